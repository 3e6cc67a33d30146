// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"math/big"

	"github.com/agoralabs/agora/agora"
	"github.com/agoralabs/agora/builtin/reverts"
	"github.com/agoralabs/agora/state"
)

// Params holds the governance parameters of the protocol: pause flag,
// stake and reward bounds, fee settings and the executor identity.
// The core modules only ever read it.
type Params struct {
	addr  agora.Address
	state *state.State
}

// New create a new instance.
func New(addr agora.Address, state *state.State) *Params {
	return &Params{addr, state}
}

// Get native way to get param, zero for params never set.
func (p *Params) Get(key agora.Bytes32) (*big.Int, error) {
	var v big.Int
	if err := p.state.GetStructuredStorage(p.addr, key, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Set native way to set param. Callable by the executor only, except
// before the executor is configured (genesis seeding).
func (p *Params) Set(caller agora.Address, key agora.Bytes32, value *big.Int) error {
	executor, err := p.Executor()
	if err != nil {
		return err
	}
	if !executor.IsZero() && caller != executor {
		return reverts.Unauthorized("params: caller %v is not the executor", caller)
	}
	return p.state.SetStructuredStorage(p.addr, key, value)
}

// GetAddress reads an address-valued param.
func (p *Params) GetAddress(key agora.Bytes32) (agora.Address, error) {
	v, err := p.Get(key)
	if err != nil {
		return agora.Address{}, err
	}
	return agora.BytesToAddress(v.Bytes()), nil
}

// SetAddress writes an address-valued param, executor-only like Set.
func (p *Params) SetAddress(caller agora.Address, key agora.Bytes32, addr agora.Address) error {
	return p.Set(caller, key, new(big.Int).SetBytes(addr.Bytes()))
}

// IsPaused returns whether the protocol is paused. New tasks cannot be
// created while paused, in-flight settlements keep working.
func (p *Params) IsPaused() (bool, error) {
	v, err := p.Get(agora.KeyPaused)
	if err != nil {
		return false, err
	}
	return v.Sign() != 0, nil
}

// MinStake returns the minimum worker collateral.
func (p *Params) MinStake() (*big.Int, error) {
	return p.getWithDefault(agora.KeyMinStake, agora.InitialMinStake)
}

// MaxStake returns the maximum worker collateral.
func (p *Params) MaxStake() (*big.Int, error) {
	return p.getWithDefault(agora.KeyMaxStake, agora.InitialMaxStake)
}

// MinTaskReward returns the minimum reward of a task.
func (p *Params) MinTaskReward() (*big.Int, error) {
	return p.getWithDefault(agora.KeyMinTaskReward, agora.InitialMinTaskReward)
}

// MaxTaskReward returns the maximum reward of a task.
func (p *Params) MaxTaskReward() (*big.Int, error) {
	return p.getWithDefault(agora.KeyMaxTaskReward, agora.InitialMaxTaskReward)
}

// ProtocolFeeRate returns the fee rate in basis points charged on
// escrow release.
func (p *Params) ProtocolFeeRate() (*big.Int, error) {
	return p.getWithDefault(agora.KeyProtocolFeeRate, agora.InitialProtocolFeeRate)
}

// FeeRecipient returns the account credited with protocol fees.
func (p *Params) FeeRecipient() (agora.Address, error) {
	return p.GetAddress(agora.KeyFeeRecipient)
}

// Executor returns the admin identity, zero if never configured.
func (p *Params) Executor() (agora.Address, error) {
	return p.GetAddress(agora.KeyExecutor)
}

func (p *Params) getWithDefault(key agora.Bytes32, def *big.Int) (*big.Int, error) {
	var raw []byte
	var err error
	if raw, err = p.state.GetRawStorage(p.addr, key); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return new(big.Int).Set(def), nil
	}
	return p.Get(key)
}
