// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dispute

import (
	"github.com/agoralabs/agora/agora"
	"github.com/agoralabs/agora/builtin/params"
	"github.com/agoralabs/agora/builtin/reverts"
	"github.com/agoralabs/agora/builtin/stakereg"
	"github.com/agoralabs/agora/log"
	"github.com/agoralabs/agora/metrics"
	"github.com/agoralabs/agora/xenv"
)

var (
	logger = log.WithContext("pkg", "dispute")

	metricResolutions = metrics.LazyLoadCounterVec("dispute_resolution_count", []string{"winner"})
)

// Finalizer settles the disputed task once a winner is decided. It is
// injected after construction so the resolver and the orchestrator can
// reference each other without a package cycle.
type Finalizer interface {
	FinalizeTask(caller agora.Address, taskID uint64, workerWins bool) error
}

// Resolver implements juror-based dispute resolution: dispute opening
// with deterministic juror selection, the voting window, and outcome
// application through the injected finalizer.
type Resolver struct {
	addr     agora.Address
	env      *xenv.Environment
	params   *params.Params
	registry *stakereg.Registry
	storage  *storage

	orchestrator agora.Address
	finalizer    Finalizer
}

// New create a new instance.
func New(addr agora.Address, env *xenv.Environment, params *params.Params, registry *stakereg.Registry, orchestrator agora.Address) *Resolver {
	return &Resolver{
		addr:         addr,
		env:          env,
		params:       params,
		registry:     registry,
		storage:      newStorage(addr, env),
		orchestrator: orchestrator,
	}
}

// Address returns the resolver's module address.
func (r *Resolver) Address() agora.Address {
	return r.addr
}

// SetFinalizer injects the task finalizer. Must be called before any
// dispute can be resolved.
func (r *Resolver) SetFinalizer(f Finalizer) {
	r.finalizer = f
}

// GetDispute returns the dispute record, nil if absent.
func (r *Resolver) GetDispute(id uint64) (*Dispute, error) {
	d, err := r.storage.GetDispute(id)
	if err != nil {
		return nil, err
	}
	if d.IsEmpty() {
		return nil, nil
	}
	return d, nil
}

// GetDisputeByTask returns the dispute of the given task, nil if the
// task was never disputed.
func (r *Resolver) GetDisputeByTask(taskID uint64) (*Dispute, error) {
	lookup, err := r.storage.GetTaskLookup(taskID)
	if err != nil {
		return nil, err
	}
	if !lookup.Known {
		return nil, nil
	}
	return r.GetDispute(lookup.DisputeID)
}

// GetVote returns a juror's recorded vote, nil if they have not voted.
func (r *Resolver) GetVote(disputeID uint64, juror agora.Address) (*Vote, error) {
	v, err := r.storage.GetVote(disputeID, juror)
	if err != nil {
		return nil, err
	}
	if !v.Known {
		return nil, nil
	}
	return v, nil
}

// DisputeCount returns the number of disputes ever opened.
func (r *Resolver) DisputeCount() (uint64, error) {
	return r.storage.GetDisputeCount()
}

// VotingCount returns the number of disputes currently in voting.
func (r *Resolver) VotingCount() (uint64, error) {
	return r.storage.GetVotingCount()
}

// ResolvedCount returns the number of resolved disputes.
func (r *Resolver) ResolvedCount() (uint64, error) {
	return r.storage.GetResolvedCount()
}

// Open creates a dispute over the given task, selecting the juror set
// from the active stakers minus the two parties. Callable by the
// orchestrator only, at most once per task. Returns the dispute id.
func (r *Resolver) Open(caller agora.Address, taskID uint64, requester, worker agora.Address) (uint64, error) {
	if caller != r.orchestrator {
		return 0, reverts.Unauthorized("dispute open: caller %v not allowed", caller)
	}
	lookup, err := r.storage.GetTaskLookup(taskID)
	if err != nil {
		return 0, err
	}
	if lookup.Known {
		return 0, reverts.AlreadyExists("task %d already has dispute %d", taskID, lookup.DisputeID)
	}

	pool, err := r.registry.ActiveStakers()
	if err != nil {
		return 0, err
	}
	now := r.env.BlockNumber()
	jurors := selectJurors(taskID, now, pool, requester, worker)
	if len(jurors) < agora.MinJurors {
		logger.Warn("juror pool short of quorum", "taskID", taskID, "jurors", len(jurors))
	}

	id, err := r.storage.GetDisputeCount()
	if err != nil {
		return 0, err
	}
	dispute := &Dispute{
		ID:           id,
		TaskID:       taskID,
		Requester:    requester,
		Worker:       worker,
		Status:       StatusVoting,
		CreatedAt:    now,
		VotingEndsAt: now + agora.VotingPeriod,
		Jurors:       jurors,
	}

	if err := r.storage.SetDispute(dispute); err != nil {
		return 0, err
	}
	if err := r.storage.SetTaskLookup(taskID, id); err != nil {
		return 0, err
	}
	if err := r.storage.IncDisputeCount(); err != nil {
		return 0, err
	}
	if err := r.storage.AddVotingCount(1); err != nil {
		return 0, err
	}

	logger.Info("dispute opened", "id", id, "taskID", taskID, "jurors", len(jurors), "votingEndsAt", dispute.VotingEndsAt)
	return id, nil
}

// Vote records a juror's choice. Each juror votes once; votes are
// accepted only while the dispute is in voting and the window has not
// ended. A vote that gives either side a strict majority of the juror
// set resolves the dispute immediately in the same call.
func (r *Resolver) Vote(caller agora.Address, disputeID uint64, supportWorker bool) error {
	dispute, err := r.storage.GetDispute(disputeID)
	if err != nil {
		return err
	}
	if dispute.IsEmpty() {
		return reverts.NotFound("dispute %d", disputeID)
	}
	if dispute.Status != StatusVoting {
		return reverts.VotingEnded("dispute %d is resolved", disputeID)
	}
	now := r.env.BlockNumber()
	if now > dispute.VotingEndsAt {
		return reverts.VotingEnded("voting on dispute %d ended at block %d", disputeID, dispute.VotingEndsAt)
	}
	if !dispute.IsJuror(caller) {
		return reverts.Unauthorized("%v is not a juror of dispute %d", caller, disputeID)
	}
	vote, err := r.storage.GetVote(disputeID, caller)
	if err != nil {
		return err
	}
	if vote.Known {
		return reverts.AlreadyExists("juror %v already voted on dispute %d", caller, disputeID)
	}

	if supportWorker {
		dispute.VotesForWorker++
	} else {
		dispute.VotesForRequester++
	}
	if err := r.storage.SetVote(disputeID, caller, &Vote{SupportWorker: supportWorker, Block: now, Known: true}); err != nil {
		return err
	}
	if err := r.storage.SetDispute(dispute); err != nil {
		return err
	}
	logger.Debug("vote cast", "dispute", disputeID, "juror", caller, "supportWorker", supportWorker)

	if dispute.HasEarlyMajority() {
		return r.resolve(dispute)
	}
	return nil
}

// Resolve closes a dispute whose voting window has ended, applying the
// outcome through the finalizer. Before the window ends it succeeds
// only when an early majority already exists (normally applied inside
// Vote). Callable by the executor only.
func (r *Resolver) Resolve(caller agora.Address, disputeID uint64) error {
	executor, err := r.params.Executor()
	if err != nil {
		return err
	}
	if caller != executor {
		return reverts.Unauthorized("dispute resolve: caller %v not allowed", caller)
	}
	dispute, err := r.storage.GetDispute(disputeID)
	if err != nil {
		return err
	}
	if dispute.IsEmpty() {
		return reverts.NotFound("dispute %d", disputeID)
	}
	if dispute.Status != StatusVoting {
		return reverts.InvalidInput("dispute %d is not in voting", disputeID)
	}
	// resolvable from votingEndsAt onward; at that exact block late
	// votes and resolution are both accepted
	if r.env.BlockNumber() < dispute.VotingEndsAt && !dispute.HasEarlyMajority() {
		return reverts.VotingActive("voting on dispute %d open until block %d", disputeID, dispute.VotingEndsAt)
	}
	return r.resolve(dispute)
}

// resolve decides the winner, marks the dispute terminal and settles
// the task. Runs inside the caller's atomic unit: a failing settlement
// reverts the resolution with it.
func (r *Resolver) resolve(dispute *Dispute) error {
	now := r.env.BlockNumber()
	winner := dispute.WinnerAddress()
	workerWins := winner == dispute.Worker

	dispute.Status = StatusResolved
	dispute.ResolvedAt = &now
	dispute.Winner = &winner

	if err := r.storage.SetDispute(dispute); err != nil {
		return err
	}
	if err := r.storage.AddVotingCount(-1); err != nil {
		return err
	}
	if err := r.storage.IncResolvedCount(); err != nil {
		return err
	}

	if r.finalizer == nil {
		return reverts.New(reverts.KindUnknown, "dispute finalizer not configured")
	}
	if err := r.finalizer.FinalizeTask(r.addr, dispute.TaskID, workerWins); err != nil {
		return err
	}

	side := "requester"
	if workerWins {
		side = "worker"
	}
	logger.Info("dispute resolved", "id", dispute.ID, "taskID", dispute.TaskID, "winner", winner,
		"votesForWorker", dispute.VotesForWorker, "votesForRequester", dispute.VotesForRequester)
	metricResolutions().AddWithLabel(1, map[string]string{"winner": side})
	return nil
}
