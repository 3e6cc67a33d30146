// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package market implements the task orchestrator, the entry point for
// requester and worker actions. It coordinates the escrow vault, the
// stake registry, the reputation ledger and the dispute resolver so
// that every lifecycle transition settles across all of them in one
// atomic unit.
package market

import (
	"math/big"

	"github.com/agoralabs/agora/agora"
	"github.com/agoralabs/agora/builtin/dispute"
	"github.com/agoralabs/agora/builtin/escrow"
	"github.com/agoralabs/agora/builtin/params"
	"github.com/agoralabs/agora/builtin/reputation"
	"github.com/agoralabs/agora/builtin/reverts"
	"github.com/agoralabs/agora/builtin/stakereg"
	"github.com/agoralabs/agora/log"
	"github.com/agoralabs/agora/metrics"
	"github.com/agoralabs/agora/xenv"
)

var (
	logger = log.WithContext("pkg", "market")

	metricTransitions = metrics.LazyLoadCounterVec("market_task_transition_count", []string{"to"})
)

// Orchestrator implements the task lifecycle state machine.
type Orchestrator struct {
	addr    agora.Address
	env     *xenv.Environment
	params  *params.Params
	vault   *escrow.Vault
	stakes  *stakereg.Registry
	ledger  *reputation.Reputation
	storage *storage

	resolver     *dispute.Resolver
	resolverAddr agora.Address
}

// New create a new instance.
func New(
	addr agora.Address,
	env *xenv.Environment,
	params *params.Params,
	vault *escrow.Vault,
	stakes *stakereg.Registry,
	ledger *reputation.Reputation,
	resolver *dispute.Resolver,
) *Orchestrator {
	return &Orchestrator{
		addr:         addr,
		env:          env,
		params:       params,
		vault:        vault,
		stakes:       stakes,
		ledger:       ledger,
		storage:      newStorage(addr, env),
		resolver:     resolver,
		resolverAddr: resolver.Address(),
	}
}

// Address returns the orchestrator's module address.
func (o *Orchestrator) Address() agora.Address {
	return o.addr
}

// GetTask returns the task record, nil if absent.
func (o *Orchestrator) GetTask(id uint64) (*Task, error) {
	task, err := o.storage.GetTask(id)
	if err != nil {
		return nil, err
	}
	if task.IsEmpty() {
		return nil, nil
	}
	return task, nil
}

// TaskCount returns the number of tasks ever created.
func (o *Orchestrator) TaskCount() (uint64, error) {
	return o.storage.GetTaskCount()
}

// CreateTask posts a new task and pulls the reward from the requester
// into escrow. The task record exists only if the deposit succeeded.
// Returns the assigned task id.
func (o *Orchestrator) CreateTask(requester agora.Address, title, description string, reward *big.Int, deadline, minReputation uint64) (uint64, error) {
	paused, err := o.params.IsPaused()
	if err != nil {
		return 0, err
	}
	if paused {
		return 0, reverts.InvalidInput("protocol is paused")
	}
	if title == "" || len(title) > agora.MaxTitleLength {
		return 0, reverts.InvalidInput("title empty or longer than %d bytes", agora.MaxTitleLength)
	}
	if description == "" || len(description) > agora.MaxDescriptionLength {
		return 0, reverts.InvalidInput("description empty or longer than %d bytes", agora.MaxDescriptionLength)
	}
	if !agora.IsValidAmount(reward) || reward.Sign() == 0 {
		return 0, reverts.InvalidInput("reward is zero or out of range")
	}
	minReward, err := o.params.MinTaskReward()
	if err != nil {
		return 0, err
	}
	if reward.Cmp(minReward) < 0 {
		return 0, reverts.InvalidInput("reward %v below minimum %v", reward, minReward)
	}
	maxReward, err := o.params.MaxTaskReward()
	if err != nil {
		return 0, err
	}
	if reward.Cmp(maxReward) > 0 {
		return 0, reverts.InvalidInput("reward %v exceeds maximum %v", reward, maxReward)
	}
	now := o.env.BlockNumber()
	if deadline <= now {
		return 0, reverts.InvalidInput("deadline %d not in the future (now %d)", deadline, now)
	}
	if minReputation > agora.MaxReputation {
		return 0, reverts.InvalidInput("min reputation %d exceeds maximum %d", minReputation, agora.MaxReputation)
	}

	id, err := o.storage.GetTaskCount()
	if err != nil {
		return 0, err
	}
	if err := o.vault.Deposit(o.addr, requester, id, reward); err != nil {
		return 0, err
	}

	task := &Task{
		ID:            id,
		Requester:     requester,
		Title:         title,
		Description:   description,
		Reward:        reward,
		Deadline:      deadline,
		MinReputation: minReputation,
		Status:        StatusOpen,
		CreatedAt:     now,
	}
	if err := o.storage.SetTask(task); err != nil {
		return 0, err
	}
	if err := o.storage.IncTaskCount(); err != nil {
		return 0, err
	}

	logger.Info("task created", "id", id, "requester", requester, "reward", reward, "deadline", deadline)
	metricTransitions().AddWithLabel(1, map[string]string{"to": "open"})
	return id, nil
}

// AcceptTask binds the caller as the task's worker, staking collateral.
// The caller must clear the task's reputation bar and may not be the
// requester.
func (o *Orchestrator) AcceptTask(worker agora.Address, taskID uint64, stakeAmount *big.Int) error {
	task, err := o.storage.GetTask(taskID)
	if err != nil {
		return err
	}
	if task.IsEmpty() {
		return reverts.NotFound("task %d", taskID)
	}
	if task.Worker != nil {
		return reverts.AlreadyExists("task %d already has a worker", taskID)
	}
	if task.Status != StatusOpen {
		return reverts.InvalidInput("task %d is not open", taskID)
	}
	now := o.env.BlockNumber()
	if now > task.Deadline {
		return reverts.DeadlinePassed("task %d deadline was block %d", taskID, task.Deadline)
	}
	if worker == task.Requester {
		return reverts.Unauthorized("requester cannot accept own task %d", taskID)
	}
	score, err := o.ledger.Get(worker)
	if err != nil {
		return err
	}
	if score < task.MinReputation {
		return reverts.InsufficientReputation("reputation %d below task minimum %d", score, task.MinReputation)
	}
	minStake, err := o.params.MinStake()
	if err != nil {
		return err
	}
	if stakeAmount == nil || stakeAmount.Cmp(minStake) < 0 {
		return reverts.InsufficientStake("stake %v below minimum %v", stakeAmount, minStake)
	}

	if err := o.stakes.Stake(worker, stakeAmount); err != nil {
		return err
	}

	task.Worker = &worker
	task.Status = StatusAccepted
	task.AcceptedAt = &now
	if err := o.storage.SetTask(task); err != nil {
		return err
	}

	logger.Info("task accepted", "id", taskID, "worker", worker, "stake", stakeAmount)
	metricTransitions().AddWithLabel(1, map[string]string{"to": "accepted"})
	return nil
}

// SubmitDelivery records the worker's delivery reference and moves the
// task to Submitted. The reference is an opaque bounded blob; only
// length and non-emptiness are validated.
func (o *Orchestrator) SubmitDelivery(caller agora.Address, taskID uint64, deliveryRef []byte) error {
	task, err := o.storage.GetTask(taskID)
	if err != nil {
		return err
	}
	if task.IsEmpty() {
		return reverts.NotFound("task %d", taskID)
	}
	if task.Worker == nil || caller != *task.Worker {
		return reverts.Unauthorized("%v is not the worker of task %d", caller, taskID)
	}
	if task.Status != StatusAccepted {
		return reverts.InvalidInput("task %d is not accepted", taskID)
	}
	now := o.env.BlockNumber()
	if now > task.Deadline {
		return reverts.DeadlinePassed("task %d deadline was block %d", taskID, task.Deadline)
	}
	if len(deliveryRef) == 0 || len(deliveryRef) > agora.MaxDeliveryRefLength {
		return reverts.InvalidInput("delivery ref empty or longer than %d bytes", agora.MaxDeliveryRefLength)
	}

	task.DeliveryRef = deliveryRef
	task.Status = StatusSubmitted
	task.SubmittedAt = &now
	if err := o.storage.SetTask(task); err != nil {
		return err
	}

	logger.Info("delivery submitted", "id", taskID, "worker", caller)
	metricTransitions().AddWithLabel(1, map[string]string{"to": "submitted"})
	return nil
}

// RequesterAccept is the happy-path settlement: the requester approves
// the delivery, the escrow is released to the worker, the worker's full
// collateral is returned and their reputation credited for the full
// reward. Atomic across all three sub-ledgers.
func (o *Orchestrator) RequesterAccept(caller agora.Address, taskID uint64) error {
	task, err := o.storage.GetTask(taskID)
	if err != nil {
		return err
	}
	if task.IsEmpty() {
		return reverts.NotFound("task %d", taskID)
	}
	if caller != task.Requester {
		return reverts.Unauthorized("%v is not the requester of task %d", caller, taskID)
	}
	if task.Status != StatusSubmitted {
		return reverts.InvalidInput("task %d is not submitted", taskID)
	}

	worker := *task.Worker
	now := o.env.BlockNumber()
	if err := o.vault.Release(o.addr, taskID, worker); err != nil {
		return err
	}
	if err := o.stakes.Release(o.addr, worker); err != nil {
		return err
	}
	if err := o.ledger.Increase(o.addr, worker, task.Reward, now, "task completed"); err != nil {
		return err
	}

	task.Status = StatusCompleted
	task.SettledAt = &now
	if err := o.storage.SetTask(task); err != nil {
		return err
	}

	logger.Info("task completed", "id", taskID, "worker", worker, "reward", task.Reward)
	metricTransitions().AddWithLabel(1, map[string]string{"to": "completed"})
	return nil
}

// RequesterDispute contests a submitted delivery, opening a dispute and
// freezing the task until the jurors decide.
func (o *Orchestrator) RequesterDispute(caller agora.Address, taskID uint64) error {
	task, err := o.storage.GetTask(taskID)
	if err != nil {
		return err
	}
	if task.IsEmpty() {
		return reverts.NotFound("task %d", taskID)
	}
	if caller != task.Requester {
		return reverts.Unauthorized("%v is not the requester of task %d", caller, taskID)
	}
	if task.Status != StatusSubmitted {
		return reverts.InvalidInput("task %d is not submitted", taskID)
	}

	disputeID, err := o.resolver.Open(o.addr, taskID, task.Requester, *task.Worker)
	if err != nil {
		return err
	}

	task.Status = StatusDisputed
	if err := o.storage.SetTask(task); err != nil {
		return err
	}

	logger.Info("task disputed", "id", taskID, "dispute", disputeID)
	metricTransitions().AddWithLabel(1, map[string]string{"to": "disputed"})
	return nil
}

// CancelTask withdraws an open task before any worker accepted it,
// refunding the escrow to the requester.
func (o *Orchestrator) CancelTask(caller agora.Address, taskID uint64) error {
	task, err := o.storage.GetTask(taskID)
	if err != nil {
		return err
	}
	if task.IsEmpty() {
		return reverts.NotFound("task %d", taskID)
	}
	if caller != task.Requester {
		return reverts.Unauthorized("%v is not the requester of task %d", caller, taskID)
	}
	if task.Status != StatusOpen {
		return reverts.InvalidInput("task %d is not open", taskID)
	}

	now := o.env.BlockNumber()
	if err := o.vault.Refund(o.addr, taskID, task.Requester); err != nil {
		return err
	}

	task.Status = StatusCancelled
	task.SettledAt = &now
	if err := o.storage.SetTask(task); err != nil {
		return err
	}

	logger.Info("task cancelled", "id", taskID)
	metricTransitions().AddWithLabel(1, map[string]string{"to": "cancelled"})
	return nil
}

// FinalizeTask applies a dispute outcome. Callable by the dispute
// resolver only, as the tail of its resolve step. A worker win settles
// like an acceptance but credits reputation at half weight; a requester
// win refunds the escrow, slashes the worker's collateral and debits
// their reputation.
func (o *Orchestrator) FinalizeTask(caller agora.Address, taskID uint64, workerWins bool) error {
	if caller != o.resolverAddr {
		return reverts.Unauthorized("task finalize: caller %v not allowed", caller)
	}
	task, err := o.storage.GetTask(taskID)
	if err != nil {
		return err
	}
	if task.IsEmpty() {
		return reverts.NotFound("task %d", taskID)
	}
	if task.Status != StatusDisputed {
		return reverts.InvalidInput("task %d is not disputed", taskID)
	}

	worker := *task.Worker
	now := o.env.BlockNumber()
	// a contested outcome moves reputation at half the reward weight,
	// winning a dispute is worth less than an uncontested completion
	halfReward := new(big.Int).Rsh(task.Reward, 1)

	if workerWins {
		if err := o.vault.Release(o.addr, taskID, worker); err != nil {
			return err
		}
		if err := o.stakes.Release(o.addr, worker); err != nil {
			return err
		}
		if err := o.ledger.Increase(o.addr, worker, halfReward, now, "dispute won"); err != nil {
			return err
		}
	} else {
		if err := o.vault.Refund(o.addr, taskID, task.Requester); err != nil {
			return err
		}
		if err := o.stakes.Slash(caller, worker); err != nil {
			return err
		}
		if err := o.ledger.Decrease(o.addr, worker, halfReward, now, "dispute lost"); err != nil {
			return err
		}
	}

	task.Status = StatusCompleted
	task.SettledAt = &now
	if err := o.storage.SetTask(task); err != nil {
		return err
	}

	logger.Info("task finalized", "id", taskID, "workerWins", workerWins)
	metricTransitions().AddWithLabel(1, map[string]string{"to": "completed"})
	return nil
}
