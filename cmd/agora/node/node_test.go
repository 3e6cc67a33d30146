// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agoralabs/agora/builtin"
	"github.com/agoralabs/agora/builtin/market"
	"github.com/agoralabs/agora/genesis"
	"github.com/agoralabs/agora/kv"
)

func TestNodePersistence(t *testing.T) {
	store, err := kv.NewMemStore()
	require.Nil(t, err)

	n, err := New(store, genesis.NewDevnet(), time.Second)
	require.Nil(t, err)
	assert.Equal(t, uint64(1), n.Height())

	requester := genesis.DevAccounts()[1]
	assert.Nil(t, n.Execute(func(modules *builtin.Agora) error {
		_, err := modules.Market.CreateTask(requester, "persist me", "survives a restart", big.NewInt(1000), 100, 0)
		return err
	}))

	// a failing transition leaves nothing behind
	err = n.Execute(func(modules *builtin.Agora) error {
		_, err := modules.Market.CreateTask(requester, "", "", big.NewInt(1000), 100, 0)
		return err
	})
	assert.Error(t, err)

	// reopen over the same store
	n2, err := New(store, genesis.NewDevnet(), time.Second)
	require.Nil(t, err)

	task, err := n2.Modules().Market.GetTask(0)
	assert.Nil(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "persist me", task.Title)
	assert.Equal(t, market.StatusOpen, task.Status)
	count, _ := n2.Modules().Market.TaskCount()
	assert.Equal(t, uint64(1), count)
}

func TestNodeGenesisMismatch(t *testing.T) {
	store, err := kv.NewMemStore()
	require.Nil(t, err)

	_, err = New(store, genesis.NewDevnet(), time.Second)
	require.Nil(t, err)

	other, err := genesis.NewCustomNet(&genesis.CustomGenesis{
		Name:   "othernet",
		Params: genesis.ParamsConfig{Executor: "0xf077b491b355e64048ce21e3a6fc4751eeea77fa"},
	})
	require.Nil(t, err)

	_, err = New(store, other, time.Second)
	assert.ErrorContains(t, err, "genesis")
}
