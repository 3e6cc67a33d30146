// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"
	"time"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/agoralabs/agora/api"
	"github.com/agoralabs/agora/cmd/agora/node"
	"github.com/agoralabs/agora/log"
	"github.com/agoralabs/agora/metrics"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Agora",
		Usage:     "Reputation-gated task marketplace ledger",
		Copyright: "2026 Agora Labs",
		Flags: []cli.Flag{
			genesisFlag,
			dataDirFlag,
			apiAddrFlag,
			apiCorsFlag,
			blockIntervalFlag,
			verbosityFlag,
			enableAPILogsFlag,
			enableMetricsFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitCtx := handleExitSignal()
	defer func() { logger.Info("exited") }()

	initLogger(ctx)

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	gene := selectGenesis(ctx)
	store := openStore(ctx)
	defer func() { logger.Info("closing ledger database..."); store.Close() }()

	blockInterval := time.Duration(ctx.Uint64(blockIntervalFlag.Name)) * time.Second
	n, err := node.New(store, gene, blockInterval)
	if err != nil {
		return err
	}

	apiHandler := api.New(n.Modules(), n.Lock(), api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
	})
	apiURL, apiClosed, err := startAPIServer(exitCtx, ctx.String(apiAddrFlag.Name), apiHandler)
	if err != nil {
		return err
	}
	defer apiClosed()

	logger.Info("starting Agora",
		"version", fullVersion(),
		"genesis", gene.ID(),
		"api", apiURL,
	)
	return n.Run(exitCtx)
}
