// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/agoralabs/agora/agora"
	"github.com/agoralabs/agora/builtin/params"
	"github.com/agoralabs/agora/builtin/reverts"
	"github.com/agoralabs/agora/log"
	"github.com/agoralabs/agora/metrics"
	"github.com/agoralabs/agora/xenv"
)

var (
	logger = log.WithContext("pkg", "escrow")

	metricSettlements = metrics.LazyLoadCounterVec("escrow_settlement_count", []string{"outcome"})

	slotTotalEscrowed = agora.BytesToBytes32([]byte("total-escrowed"))
	slotEscrowCount   = agora.BytesToBytes32([]byte("escrow-count"))
)

func escrowKey(taskID uint64) agora.Bytes32 {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], taskID)
	return agora.Blake2b([]byte("e"), b[:])
}

// Vault implements the escrow vault: per-task custody of reward funds.
// The vault's own address is the custody account, deposits move value
// into it and exactly one of release or refund moves value out.
type Vault struct {
	addr   agora.Address
	env    *xenv.Environment
	params *params.Params

	orchestrator agora.Address
	resolver     agora.Address
}

// New create a new instance.
func New(addr agora.Address, env *xenv.Environment, params *params.Params, orchestrator, resolver agora.Address) *Vault {
	return &Vault{addr, env, params, orchestrator, resolver}
}

// Address returns the vault's custody account.
func (v *Vault) Address() agora.Address {
	return v.addr
}

// GetEscrow returns the escrow record of the given task, nil if absent.
func (v *Vault) GetEscrow(taskID uint64) (*Escrow, error) {
	e, err := v.loadEscrow(taskID)
	if err != nil {
		return nil, err
	}
	if e.IsEmpty() {
		return nil, nil
	}
	return e, nil
}

// TotalEscrowed returns the sum of all amounts currently in custody.
func (v *Vault) TotalEscrowed() (*big.Int, error) {
	var total big.Int
	if err := v.env.State().GetStructuredStorage(v.addr, slotTotalEscrowed, &total); err != nil {
		return nil, errors.Wrap(err, "failed to get total escrowed")
	}
	return &total, nil
}

// EscrowCount returns the number of escrows ever created.
func (v *Vault) EscrowCount() (uint64, error) {
	var count uint64
	if err := v.env.State().GetStructuredStorage(v.addr, slotEscrowCount, &count); err != nil {
		return 0, errors.Wrap(err, "failed to get escrow count")
	}
	return count, nil
}

// Deposit pulls amount from the depositor into vault custody for the
// given task. At most one escrow may ever exist per task. Callable by
// the orchestrator and the executor only.
func (v *Vault) Deposit(caller, depositor agora.Address, taskID uint64, amount *big.Int) error {
	executor, err := v.params.Executor()
	if err != nil {
		return err
	}
	if caller != v.orchestrator && (caller != executor || executor.IsZero()) {
		return reverts.Unauthorized("escrow deposit: caller %v not allowed", caller)
	}
	if !agora.IsValidAmount(amount) || amount.Sign() == 0 {
		return reverts.InvalidInput("deposit amount is zero or out of range")
	}
	maxReward, err := v.params.MaxTaskReward()
	if err != nil {
		return err
	}
	if amount.Cmp(maxReward) > 0 {
		return reverts.InvalidInput("deposit amount %v exceeds cap %v", amount, maxReward)
	}

	existing, err := v.loadEscrow(taskID)
	if err != nil {
		return err
	}
	if !existing.IsEmpty() {
		return reverts.AlreadyExists("escrow for task %d", taskID)
	}

	if err := v.env.Transfer(depositor, v.addr, amount); err != nil {
		return err
	}

	if err := v.saveEscrow(&Escrow{
		TaskID:    taskID,
		Depositor: depositor,
		Amount:    amount,
		Status:    StatusDeposited,
		CreatedAt: v.env.BlockNumber(),
	}); err != nil {
		return err
	}
	if err := v.addTotalEscrowed(amount); err != nil {
		return err
	}
	if err := v.incrementCount(); err != nil {
		return err
	}

	logger.Debug("escrow deposited", "task", taskID, "depositor", depositor, "amount", amount)
	return nil
}

// Release moves the custodied funds to the recipient, minus the
// protocol fee. Terminal, one-way. Callable by the orchestrator and
// the resolver only.
func (v *Vault) Release(caller agora.Address, taskID uint64, recipient agora.Address) error {
	if caller != v.orchestrator && caller != v.resolver {
		return reverts.Unauthorized("escrow release: caller %v not allowed", caller)
	}
	e, err := v.loadEscrow(taskID)
	if err != nil {
		return err
	}
	if e.IsEmpty() {
		return reverts.NotFound("escrow for task %d", taskID)
	}
	if e.Status != StatusDeposited {
		return reverts.InvalidInput("escrow for task %d already settled", taskID)
	}

	payout := new(big.Int).Set(e.Amount)
	fee, err := v.protocolFee(e.Amount)
	if err != nil {
		return err
	}
	if fee.Sign() > 0 {
		feeRecipient, err := v.params.FeeRecipient()
		if err != nil {
			return err
		}
		if err := v.env.Transfer(v.addr, feeRecipient, fee); err != nil {
			return err
		}
		payout.Sub(payout, fee)
	}
	if err := v.env.Transfer(v.addr, recipient, payout); err != nil {
		return err
	}

	e.Status = StatusReleased
	e.Recipient = &recipient
	e.SettledAt = v.env.BlockNumber()
	if err := v.saveEscrow(e); err != nil {
		return err
	}
	if err := v.addTotalEscrowed(new(big.Int).Neg(e.Amount)); err != nil {
		return err
	}

	logger.Debug("escrow released", "task", taskID, "recipient", recipient, "amount", e.Amount, "fee", fee)
	metricSettlements().AddWithLabel(1, map[string]string{"outcome": "released"})
	return nil
}

// Refund moves the full custodied amount back to the depositor.
// refundTo must equal the original depositor. Terminal, one-way.
// Callable by the orchestrator, the resolver and, as an emergency
// path, the executor.
func (v *Vault) Refund(caller agora.Address, taskID uint64, refundTo agora.Address) error {
	executor, err := v.params.Executor()
	if err != nil {
		return err
	}
	if caller != v.orchestrator && caller != v.resolver && (caller != executor || executor.IsZero()) {
		return reverts.Unauthorized("escrow refund: caller %v not allowed", caller)
	}
	e, err := v.loadEscrow(taskID)
	if err != nil {
		return err
	}
	if e.IsEmpty() {
		return reverts.NotFound("escrow for task %d", taskID)
	}
	if e.Status != StatusDeposited {
		return reverts.InvalidInput("escrow for task %d already settled", taskID)
	}
	if refundTo != e.Depositor {
		return reverts.InvalidInput("refund target %v is not the depositor %v", refundTo, e.Depositor)
	}

	if err := v.env.Transfer(v.addr, refundTo, e.Amount); err != nil {
		return err
	}

	e.Status = StatusRefunded
	e.Recipient = &refundTo
	e.SettledAt = v.env.BlockNumber()
	if err := v.saveEscrow(e); err != nil {
		return err
	}
	if err := v.addTotalEscrowed(new(big.Int).Neg(e.Amount)); err != nil {
		return err
	}

	logger.Debug("escrow refunded", "task", taskID, "depositor", refundTo, "amount", e.Amount)
	metricSettlements().AddWithLabel(1, map[string]string{"outcome": "refunded"})
	return nil
}

// protocolFee computes the fee charged on release: amount * rate in
// basis points, floor division. Zero when no fee recipient is set.
func (v *Vault) protocolFee(amount *big.Int) (*big.Int, error) {
	rate, err := v.params.ProtocolFeeRate()
	if err != nil {
		return nil, err
	}
	if rate.Sign() == 0 {
		return new(big.Int), nil
	}
	feeRecipient, err := v.params.FeeRecipient()
	if err != nil {
		return nil, err
	}
	if feeRecipient.IsZero() {
		return new(big.Int), nil
	}
	if rate.Cmp(new(big.Int).SetUint64(agora.FeeRateDenominator)) > 0 {
		return nil, reverts.Overflow("fee rate %v exceeds denominator", rate)
	}
	fee := new(big.Int).Mul(amount, rate)
	fee.Quo(fee, new(big.Int).SetUint64(agora.FeeRateDenominator))
	return fee, nil
}

func (v *Vault) loadEscrow(taskID uint64) (*Escrow, error) {
	var e Escrow
	if err := v.env.State().GetStructuredStorage(v.addr, escrowKey(taskID), &e); err != nil {
		return nil, errors.Wrap(err, "failed to get escrow")
	}
	return &e, nil
}

func (v *Vault) saveEscrow(e *Escrow) error {
	if err := v.env.State().SetStructuredStorage(v.addr, escrowKey(e.TaskID), e); err != nil {
		return errors.Wrap(err, "failed to set escrow")
	}
	return nil
}

func (v *Vault) addTotalEscrowed(delta *big.Int) error {
	total, err := v.TotalEscrowed()
	if err != nil {
		return err
	}
	total.Add(total, delta)
	if err := v.env.State().SetStructuredStorage(v.addr, slotTotalEscrowed, total); err != nil {
		return errors.Wrap(err, "failed to set total escrowed")
	}
	return nil
}

func (v *Vault) incrementCount() error {
	count, err := v.EscrowCount()
	if err != nil {
		return err
	}
	count++
	if err := v.env.State().SetStructuredStorage(v.addr, slotEscrowCount, count); err != nil {
		return errors.Wrap(err, "failed to set escrow count")
	}
	return nil
}
