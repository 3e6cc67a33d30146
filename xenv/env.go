// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"math/big"

	"github.com/agoralabs/agora/agora"
	"github.com/agoralabs/agora/builtin/reverts"
	"github.com/agoralabs/agora/state"
)

// BlockContext holds the block the current transaction executes in.
// Block number is the only clock the modules know, all deadlines and
// timelocks are height comparisons against it.
type BlockContext struct {
	Number uint64
	Time   uint64
}

// Environment is the host execution context of module operations:
// journaled state, block clock and atomic value transfer.
type Environment struct {
	state    *state.State
	blockCtx *BlockContext
}

// New creates an execution environment.
func New(state *state.State, blockCtx *BlockContext) *Environment {
	return &Environment{state, blockCtx}
}

func (env *Environment) State() *state.State         { return env.state }
func (env *Environment) BlockContext() *BlockContext { return env.blockCtx }

// BlockNumber returns the current block height.
func (env *Environment) BlockNumber() uint64 {
	return env.blockCtx.Number
}

// Transfer atomically moves amount from one account to the other.
func (env *Environment) Transfer(from, to agora.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return reverts.InvalidInput("transfer amount is negative")
	}
	if amount.Sign() == 0 {
		return nil
	}
	fromBal, err := env.state.GetBalance(from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return reverts.InsufficientFunds("balance %v of %v is less than %v", fromBal, from, amount)
	}
	toBal, err := env.state.GetBalance(to)
	if err != nil {
		return err
	}
	if err := env.state.SetBalance(from, new(big.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return env.state.SetBalance(to, new(big.Int).Add(toBal, amount))
}

// Run executes fn as one serially-ordered transition. A checkpoint is
// taken at entry; any error reverts every state mutation fn made,
// including those of nested module calls. There is no partial commit.
func (env *Environment) Run(fn func() error) error {
	chk := env.state.NewCheckpoint()
	if err := fn(); err != nil {
		env.state.RevertTo(chk)
		return err
	}
	return nil
}
