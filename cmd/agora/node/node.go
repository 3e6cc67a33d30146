// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node runs the marketplace ledger in solo mode: a single
// serially-ordered executor over journaled state, with a height clock
// advancing on a fixed interval.
package node

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/agoralabs/agora/builtin"
	"github.com/agoralabs/agora/genesis"
	"github.com/agoralabs/agora/kv"
	"github.com/agoralabs/agora/log"
	"github.com/agoralabs/agora/metrics"
	"github.com/agoralabs/agora/state"
	"github.com/agoralabs/agora/xenv"
)

var (
	logger = log.WithContext("pkg", "node")

	metricBlockHeight = metrics.LazyLoadGauge("node_block_height")

	keyGenesisID = []byte("node-genesis-id")
	keyHeight    = []byte("node-height")
)

// Node is the solo ledger: one execution environment, one global
// transaction lock serializing every mutation against the query
// surface.
type Node struct {
	store   kv.Store
	env     *xenv.Environment
	modules *builtin.Agora
	lock    sync.RWMutex

	blockInterval time.Duration
}

// New opens or initializes the ledger over store. A fresh store is
// seeded with gene; a reused store must carry the same genesis id.
func New(store kv.Store, gene *genesis.Genesis, blockInterval time.Duration) (*Node, error) {
	st := state.New(store)

	storedID, err := store.Get(keyGenesisID)
	switch {
	case err != nil && store.IsNotFound(err):
		logger.Info("initializing fresh ledger", "genesis", gene.ID())
		if err := gene.Build(st); err != nil {
			return nil, err
		}
		if err := st.Commit(); err != nil {
			return nil, errors.Wrap(err, "commit genesis")
		}
		if err := store.Put(keyGenesisID, []byte(gene.ID())); err != nil {
			return nil, err
		}
		if err := putHeight(store, 1); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, errors.Wrap(err, "read genesis id")
	case string(storedID) != gene.ID():
		return nil, errors.Errorf("store was initialized with genesis %q, not %q", storedID, gene.ID())
	}

	height, err := getHeight(store)
	if err != nil {
		return nil, err
	}
	env := xenv.New(st, &xenv.BlockContext{Number: height, Time: uint64(time.Now().Unix())})

	return &Node{
		store:         store,
		env:           env,
		modules:       builtin.Wire(env),
		blockInterval: blockInterval,
	}, nil
}

// Modules returns the wired module set.
func (n *Node) Modules() *builtin.Agora {
	return n.modules
}

// Lock returns the global transaction lock shared with the query
// surface.
func (n *Node) Lock() *sync.RWMutex {
	return &n.lock
}

// Height returns the current block height.
func (n *Node) Height() uint64 {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.env.BlockNumber()
}

// Execute runs fn as one atomic ledger transition and persists the
// result. Errors revert every mutation fn made.
func (n *Node) Execute(fn func(modules *builtin.Agora) error) error {
	n.lock.Lock()
	defer n.lock.Unlock()

	if err := n.env.Run(func() error {
		return fn(n.modules)
	}); err != nil {
		return err
	}
	return n.env.State().Commit()
}

// Run advances the height clock until ctx is done. Each tick is a
// "block": the height increments and the journal is flushed.
func (n *Node) Run(ctx context.Context) error {
	logger.Info("ledger running", "height", n.Height(), "blockInterval", n.blockInterval)
	ticker := time.NewTicker(n.blockInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping ledger", "height", n.Height())
			return nil
		case <-ticker.C:
			if err := n.advance(); err != nil {
				return err
			}
		}
	}
}

func (n *Node) advance() error {
	n.lock.Lock()
	defer n.lock.Unlock()

	blockCtx := n.env.BlockContext()
	blockCtx.Number++
	blockCtx.Time = uint64(time.Now().Unix())

	if err := n.env.State().Commit(); err != nil {
		return errors.Wrap(err, "commit state")
	}
	if err := putHeight(n.store, blockCtx.Number); err != nil {
		return errors.Wrap(err, "persist height")
	}

	metricBlockHeight().Set(int64(blockCtx.Number))
	logger.Trace("new block", "height", blockCtx.Number)
	return nil
}

func getHeight(store kv.Store) (uint64, error) {
	b, err := store.Get(keyHeight)
	if err != nil {
		if store.IsNotFound(err) {
			return 1, nil
		}
		return 0, errors.Wrap(err, "read height")
	}
	return binary.BigEndian.Uint64(b), nil
}

func putHeight(store kv.Store, height uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], height)
	return store.Put(keyHeight, b[:])
}
