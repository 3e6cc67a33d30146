// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakereg

import (
	"math/big"

	"github.com/agoralabs/agora/agora"
	"github.com/agoralabs/agora/builtin/params"
	"github.com/agoralabs/agora/builtin/reverts"
	"github.com/agoralabs/agora/log"
	"github.com/agoralabs/agora/metrics"
	"github.com/agoralabs/agora/xenv"
)

var (
	logger = log.WithContext("pkg", "stakereg")

	metricSlashes = metrics.LazyLoadCounter("stake_slash_count")
)

// Registry implements the stake registry: per-principal collateral
// with a stake / timelocked-unstake / slash state machine, plus the
// bounded active-staker set that feeds juror selection. The registry's
// own address is the custody account of all staked funds.
type Registry struct {
	addr    agora.Address
	env     *xenv.Environment
	params  *params.Params
	storage *storage

	orchestrator agora.Address
	resolver     agora.Address
}

// New create a new instance.
func New(addr agora.Address, env *xenv.Environment, params *params.Params, orchestrator, resolver agora.Address) *Registry {
	return &Registry{
		addr:         addr,
		env:          env,
		params:       params,
		storage:      newStorage(addr, env),
		orchestrator: orchestrator,
		resolver:     resolver,
	}
}

// Address returns the registry's custody account.
func (r *Registry) Address() agora.Address {
	return r.addr
}

// GetStake returns the stake record of the given principal, nil if absent.
func (r *Registry) GetStake(owner agora.Address) (*Stake, error) {
	stake, err := r.storage.GetStake(owner)
	if err != nil {
		return nil, err
	}
	if stake.IsEmpty() {
		return nil, nil
	}
	return stake, nil
}

// TotalStaked returns the sum of all collateral currently in custody.
func (r *Registry) TotalStaked() (*big.Int, error) {
	return r.storage.GetTotalStaked()
}

// ActiveStakers returns the juror-eligible stakers in insertion order.
func (r *Registry) ActiveStakers() ([]agora.Address, error) {
	return r.storage.GetActiveSet()
}

// SlashHistory returns the retained slash records, oldest first.
func (r *Registry) SlashHistory() ([]SlashRecord, error) {
	return r.storage.GetSlashHistory()
}

// Stake locks amount of the staker's funds as collateral. A first
// stake creates the record and makes the staker juror-eligible;
// while Active further stakes top up the amount without resetting
// anything. Top-ups are rejected once unstaking.
func (r *Registry) Stake(staker agora.Address, amount *big.Int) error {
	if !agora.IsValidAmount(amount) || amount.Sign() == 0 {
		return reverts.InvalidInput("stake amount is zero or out of range")
	}
	minStake, err := r.params.MinStake()
	if err != nil {
		return err
	}
	maxStake, err := r.params.MaxStake()
	if err != nil {
		return err
	}

	stake, err := r.storage.GetStake(staker)
	if err != nil {
		return err
	}
	now := r.env.BlockNumber()

	switch stake.Status {
	case StatusActive:
		// every stake call, top-ups included, moves at least minStake
		if amount.Cmp(minStake) < 0 {
			return reverts.InsufficientStake("stake %v is below minimum %v", amount, minStake)
		}
		newAmount := new(big.Int).Add(stake.Amount, amount)
		if newAmount.Cmp(maxStake) > 0 {
			return reverts.InvalidInput("stake %v exceeds maximum %v", newAmount, maxStake)
		}
		stake.Amount = newAmount
		stake.LastActivity = now
	case StatusUnstaking:
		return reverts.InvalidInput("no top-ups while unstaking")
	default:
		// unseen principal, or a record exhausted by withdraw/slash:
		// a fresh stake starts a new lifecycle
		if amount.Cmp(minStake) < 0 {
			return reverts.InsufficientStake("stake %v is below minimum %v", amount, minStake)
		}
		if amount.Cmp(maxStake) > 0 {
			return reverts.InvalidInput("stake %v exceeds maximum %v", amount, maxStake)
		}
		*stake = Stake{
			Owner:        staker,
			Amount:       amount,
			Status:       StatusActive,
			StakedAt:     now,
			LastActivity: now,
		}
		added, err := r.storage.AddActiveStaker(staker)
		if err != nil {
			return err
		}
		if !added {
			logger.Warn("active staker set at capacity, staker not juror-eligible", "staker", staker)
		}
	}

	if err := r.env.Transfer(staker, r.addr, amount); err != nil {
		return err
	}
	if err := r.storage.SetStake(staker, stake); err != nil {
		return err
	}
	if err := r.storage.AddTotalStaked(amount); err != nil {
		return err
	}

	logger.Debug("staked", "staker", staker, "amount", amount, "total", stake.Amount)
	return nil
}

// RequestUnstake starts the timelocked exit of an Active stake and
// removes the staker from the juror pool immediately.
func (r *Registry) RequestUnstake(staker agora.Address) error {
	stake, err := r.storage.GetStake(staker)
	if err != nil {
		return err
	}
	if stake.IsEmpty() {
		return reverts.NotFound("stake of %v", staker)
	}
	if stake.Status != StatusActive {
		return reverts.InvalidInput("stake of %v is not active", staker)
	}

	now := r.env.BlockNumber()
	availableAt := now + agora.UnstakeTimelock
	stake.Status = StatusUnstaking
	stake.UnstakeRequestedAt = &now
	stake.UnstakeAvailableAt = &availableAt
	stake.LastActivity = now

	if err := r.storage.SetStake(staker, stake); err != nil {
		return err
	}
	if err := r.storage.RemoveActiveStaker(staker); err != nil {
		return err
	}

	logger.Debug("unstake requested", "staker", staker, "availableAt", availableAt)
	return nil
}

// Withdraw completes a timelocked exit, returning the full collateral.
func (r *Registry) Withdraw(staker agora.Address) error {
	stake, err := r.storage.GetStake(staker)
	if err != nil {
		return err
	}
	if stake.IsEmpty() {
		return reverts.NotFound("stake of %v", staker)
	}
	if stake.Status != StatusUnstaking {
		return reverts.InvalidInput("stake of %v is not unstaking", staker)
	}
	now := r.env.BlockNumber()
	if stake.UnstakeAvailableAt == nil || now < *stake.UnstakeAvailableAt {
		return reverts.TimelockActive("withdrawal available at block %d", *stake.UnstakeAvailableAt)
	}

	return r.payout(staker, stake, StatusWithdrawn)
}

// Release returns the full collateral without timelock, used on
// uncontested task completion. Callable by the orchestrator only.
func (r *Registry) Release(caller, staker agora.Address) error {
	if caller != r.orchestrator {
		return reverts.Unauthorized("stake release: caller %v not allowed", caller)
	}
	stake, err := r.storage.GetStake(staker)
	if err != nil {
		return err
	}
	if stake.IsEmpty() {
		return reverts.NotFound("stake of %v", staker)
	}
	if stake.Status != StatusActive {
		return reverts.InvalidInput("stake of %v is not active", staker)
	}
	if err := r.storage.RemoveActiveStaker(staker); err != nil {
		return err
	}
	return r.payout(staker, stake, StatusWithdrawn)
}

// Slash forfeits slashPercent of an Active stake and returns the
// remainder to the staker. The forfeited part goes to the fee
// recipient when one is configured, otherwise it stays in custody.
// Callable by the resolver only.
func (r *Registry) Slash(caller, staker agora.Address) error {
	if caller != r.resolver {
		return reverts.Unauthorized("stake slash: caller %v not allowed", caller)
	}
	stake, err := r.storage.GetStake(staker)
	if err != nil {
		return err
	}
	if stake.IsEmpty() {
		return reverts.NotFound("stake of %v", staker)
	}
	if stake.Status != StatusActive {
		return reverts.InvalidInput("stake of %v is not active", staker)
	}

	amount := new(big.Int).Set(stake.Amount)
	forfeited := new(big.Int).Mul(amount, big.NewInt(agora.SlashPercent))
	forfeited.Quo(forfeited, big.NewInt(100))
	returned := new(big.Int).Sub(amount, forfeited)

	if err := r.env.Transfer(r.addr, staker, returned); err != nil {
		return err
	}
	feeRecipient, err := r.params.FeeRecipient()
	if err != nil {
		return err
	}
	if !feeRecipient.IsZero() {
		if err := r.env.Transfer(r.addr, feeRecipient, forfeited); err != nil {
			return err
		}
	}

	now := r.env.BlockNumber()
	stake.Amount = new(big.Int)
	stake.Status = StatusSlashed
	stake.LastActivity = now

	if err := r.storage.SetStake(staker, stake); err != nil {
		return err
	}
	if err := r.storage.RemoveActiveStaker(staker); err != nil {
		return err
	}
	if err := r.storage.AddTotalStaked(new(big.Int).Neg(amount)); err != nil {
		return err
	}
	if err := r.storage.AppendSlashHistory(SlashRecord{
		Staker:    staker,
		Forfeited: forfeited,
		Returned:  returned,
		Block:     now,
	}); err != nil {
		return err
	}

	logger.Info("stake slashed", "staker", staker, "forfeited", forfeited, "returned", returned)
	metricSlashes().Add(1)
	return nil
}

// payout returns the full collateral and terminates the record.
func (r *Registry) payout(staker agora.Address, stake *Stake, final Status) error {
	amount := new(big.Int).Set(stake.Amount)
	if err := r.env.Transfer(r.addr, staker, amount); err != nil {
		return err
	}

	stake.Amount = new(big.Int)
	stake.Status = final
	stake.LastActivity = r.env.BlockNumber()

	if err := r.storage.SetStake(staker, stake); err != nil {
		return err
	}
	if err := r.storage.AddTotalStaked(new(big.Int).Neg(amount)); err != nil {
		return err
	}
	logger.Debug("stake paid out", "staker", staker, "amount", amount)
	return nil
}
