// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agoralabs/agora/agora"
	"github.com/agoralabs/agora/builtin/reverts"
	"github.com/agoralabs/agora/state"
)

func TestParamsGetSet(t *testing.T) {
	st := state.New(nil)
	p := New(agora.BytesToAddress([]byte("par")), st)
	admin := agora.BytesToAddress([]byte("admin"))

	// before an executor is configured, anyone can seed params
	assert.Nil(t, p.Set(admin, agora.KeyMinStake, big.NewInt(5000)))
	v, err := p.MinStake()
	assert.Nil(t, err)
	assert.Equal(t, big.NewInt(5000), v)

	assert.Nil(t, p.SetAddress(admin, agora.KeyExecutor, admin))

	// once configured, only the executor may write
	stranger := agora.BytesToAddress([]byte("stranger"))
	err = p.Set(stranger, agora.KeyMinStake, big.NewInt(1))
	assert.True(t, reverts.IsUnauthorized(err))

	assert.Nil(t, p.Set(admin, agora.KeyPaused, big.NewInt(1)))
	paused, err := p.IsPaused()
	assert.Nil(t, err)
	assert.True(t, paused)
}

func TestParamsDefaults(t *testing.T) {
	st := state.New(nil)
	p := New(agora.BytesToAddress([]byte("par")), st)

	minStake, err := p.MinStake()
	assert.Nil(t, err)
	assert.Equal(t, agora.InitialMinStake, minStake)

	maxReward, err := p.MaxTaskReward()
	assert.Nil(t, err)
	assert.Equal(t, agora.InitialMaxTaskReward, maxReward)

	feeRate, err := p.ProtocolFeeRate()
	assert.Nil(t, err)
	assert.Equal(t, 0, feeRate.Sign())

	paused, err := p.IsPaused()
	assert.Nil(t, err)
	assert.False(t, paused)

	recipient, err := p.FeeRecipient()
	assert.Nil(t, err)
	assert.True(t, recipient.IsZero())

	// zero can be stored explicitly and is distinct from "never set"
	admin := agora.BytesToAddress([]byte("admin"))
	assert.Nil(t, p.Set(admin, agora.KeyProtocolFeeRate, big.NewInt(0)))
	feeRate, err = p.ProtocolFeeRate()
	assert.Nil(t, err)
	assert.Equal(t, 0, feeRate.Sign())
}
