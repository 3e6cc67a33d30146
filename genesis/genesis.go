// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis seeds a fresh ledger: account balances, protocol
// parameters and the executor address.
package genesis

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/agoralabs/agora/agora"
	"github.com/agoralabs/agora/builtin"
	"github.com/agoralabs/agora/builtin/params"
	"github.com/agoralabs/agora/state"
)

// Genesis seeds a fresh state.
type Genesis struct {
	id        string
	seedState func(*state.State) error
}

// ID returns the short name of the genesis preset.
func (g *Genesis) ID() string {
	return g.id
}

// Build applies the seeding to st. Must run on an empty state, before
// any operation executes.
func (g *Genesis) Build(st *state.State) error {
	if err := g.seedState(st); err != nil {
		return errors.Wrap(err, "build genesis")
	}
	return st.Err()
}

// seedParams writes the initial protocol parameters. The executor is
// set last: until it is stored, params seeding is open, afterwards
// every Set is executor-gated.
func seedParams(st *state.State, cfg *paramsConfig) error {
	p := params.New(builtin.ParamsAddress, st)
	var seeder agora.Address

	set := func(key agora.Bytes32, value *big.Int) error {
		if value == nil {
			return nil
		}
		return p.Set(seeder, key, value)
	}
	if err := set(agora.KeyMinStake, cfg.minStake); err != nil {
		return err
	}
	if err := set(agora.KeyMaxStake, cfg.maxStake); err != nil {
		return err
	}
	if err := set(agora.KeyMinTaskReward, cfg.minTaskReward); err != nil {
		return err
	}
	if err := set(agora.KeyMaxTaskReward, cfg.maxTaskReward); err != nil {
		return err
	}
	if err := set(agora.KeyProtocolFeeRate, cfg.protocolFeeRate); err != nil {
		return err
	}
	if !cfg.feeRecipient.IsZero() {
		if err := p.SetAddress(seeder, agora.KeyFeeRecipient, cfg.feeRecipient); err != nil {
			return err
		}
	}
	if cfg.executor.IsZero() {
		return errors.New("executor address must be set")
	}
	return p.SetAddress(seeder, agora.KeyExecutor, cfg.executor)
}

// paramsConfig is the resolved parameter seeding, decoded either from
// a custom config or a preset.
type paramsConfig struct {
	minStake        *big.Int
	maxStake        *big.Int
	minTaskReward   *big.Int
	maxTaskReward   *big.Int
	protocolFeeRate *big.Int
	feeRecipient    agora.Address
	executor        agora.Address
}
