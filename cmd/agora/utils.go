// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/agoralabs/agora/co"
	"github.com/agoralabs/agora/genesis"
	"github.com/agoralabs/agora/kv"
	"github.com/agoralabs/agora/log"
)

func fatal(args ...interface{}) {
	fmt.Fprint(os.Stderr, "Fatal: ")
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}

func initLogger(ctx *cli.Context) {
	logLevel := ctx.Int(verbosityFlag.Name)
	level := new(slog.LevelVar)
	level.Set(log.FromLegacyLevel(logLevel))

	useColor := isatty.IsTerminal(os.Stderr.Fd())
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, level, useColor)
	log.SetDefault(log.NewLogger(handler))
}

func selectGenesis(ctx *cli.Context) *genesis.Genesis {
	path := ctx.String(genesisFlag.Name)
	if path == "" {
		return genesis.NewDevnet()
	}
	file, err := os.Open(path)
	if err != nil {
		fatal(err)
	}
	defer file.Close()

	config, err := genesis.LoadCustomGenesis(file)
	if err != nil {
		fatal(err)
	}
	gene, err := genesis.NewCustomNet(config)
	if err != nil {
		fatal(err)
	}
	return gene
}

func openStore(ctx *cli.Context) kv.Store {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		store, err := kv.NewMemStore()
		if err != nil {
			fatal(err)
		}
		return store
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		fatal(err)
	}
	store, err := kv.NewStore(filepath.Join(dataDir, "ledger.db"), 128, 512)
	if err != nil {
		fatal(err)
	}
	return store
}

// startAPIServer serves the handler until ctx is done, then shuts down
// gracefully.
func startAPIServer(ctx context.Context, addr string, handler http.Handler) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, err
	}
	srv := &http.Server{Handler: handler}
	var goes co.Goes
	goes.Go(func() {
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			logger.Error("api server stopped", "err", err)
		}
	})
	goes.Go(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	})
	return "http://" + listener.Addr().String() + "/", goes.Wait, nil
}

// handleExitSignal cancels the returned context on SIGINT/SIGTERM.
func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)
		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}
