// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reputation

import (
	"math/big"

	"github.com/agoralabs/agora/agora"
	"github.com/agoralabs/agora/builtin/params"
	"github.com/agoralabs/agora/builtin/reverts"
	"github.com/agoralabs/agora/log"
	"github.com/agoralabs/agora/xenv"
)

var logger = log.WithContext("pkg", "reputation")

// Reputation implements the reputation ledger: per-principal bounded
// scores with delegation and periodic decay. Scores saturate at the
// bounds, they never fail on overflow or underflow.
type Reputation struct {
	storage *storage
	params  *params.Params

	// score-mutating callers, fixed at wiring time
	orchestrator agora.Address
	resolver     agora.Address
}

// New create a new instance.
func New(addr agora.Address, env *xenv.Environment, params *params.Params, orchestrator, resolver agora.Address) *Reputation {
	return &Reputation{
		storage:      newStorage(addr, env),
		params:       params,
		orchestrator: orchestrator,
		resolver:     resolver,
	}
}

// Get returns the current score of the given principal, the initial
// default for principals never seen. Reading never materializes a record.
func (r *Reputation) Get(user agora.Address) (uint64, error) {
	rec, err := r.storage.GetRecord(user)
	if err != nil {
		return 0, err
	}
	if !rec.Known {
		return agora.InitialReputation, nil
	}
	return rec.Score, nil
}

// GetRecord returns the full stored record of the given principal.
// Unseen principals yield a synthesized default with Known=false.
func (r *Reputation) GetRecord(user agora.Address) (*Record, error) {
	rec, err := r.storage.GetRecord(user)
	if err != nil {
		return nil, err
	}
	if !rec.Known {
		rec.Score = agora.InitialReputation
		rec.TotalEarned = new(big.Int)
	}
	return rec, nil
}

// History returns the retained score delta log of the given principal,
// oldest first. At most agora.MaxReputationHistory entries are kept.
func (r *Reputation) History(user agora.Address) ([]HistoryEntry, error) {
	return r.storage.GetHistory(user)
}

// DelegatedAmount returns the score amount currently delegated between the pair.
func (r *Reputation) DelegatedAmount(delegator, delegatee agora.Address) (uint64, error) {
	return r.storage.GetDelegation(delegator, delegatee)
}

// TotalScore returns the sum of all stored scores.
func (r *Reputation) TotalScore() (*big.Int, error) {
	return r.storage.GetTotalScore()
}

// KnownCount returns the number of principals with a stored record.
func (r *Reputation) KnownCount() (uint64, error) {
	index, err := r.storage.GetIndex()
	if err != nil {
		return 0, err
	}
	return uint64(len(index)), nil
}

// Increase raises the score of user, derived from the reward amount:
// delta = reward * multiplier / scaling, floor division, saturating at
// the score ceiling. Callable by the orchestrator and the resolver only.
func (r *Reputation) Increase(caller, user agora.Address, rewardAmount *big.Int, blockNum uint64, reason string) error {
	if err := r.checkScoreMutator(caller); err != nil {
		return err
	}
	if !agora.IsValidAmount(rewardAmount) {
		return reverts.InvalidInput("reward amount out of range")
	}
	delta := scoreDelta(rewardAmount, 1)

	rec, err := r.loadOrInitRecord(user)
	if err != nil {
		return err
	}
	oldScore := rec.Score
	rec.Score = saturatingAdd(rec.Score, delta)
	rec.TasksCompleted++
	rec.TotalEarned = new(big.Int).Add(rec.TotalEarned, rewardAmount)
	rec.LastUpdated = blockNum

	if err := r.storage.SetRecord(user, rec); err != nil {
		return err
	}
	if err := r.storage.AddTotalScore(int64(rec.Score) - int64(oldScore)); err != nil {
		return err
	}
	if err := r.storage.AppendHistory(user, HistoryEntry{
		Delta:  delta,
		Reason: reason,
		Block:  blockNum,
	}); err != nil {
		return err
	}

	logger.Debug("reputation increased", "user", user, "delta", delta, "score", rec.Score)
	metricScoreChanges().AddWithLabel(1, map[string]string{"direction": "increase"})
	return nil
}

// Decrease lowers the score of user at half the increase rate,
// saturating at the floor. Callable by the orchestrator and the resolver only.
func (r *Reputation) Decrease(caller, user agora.Address, penaltyAmount *big.Int, blockNum uint64, reason string) error {
	if err := r.checkScoreMutator(caller); err != nil {
		return err
	}
	if !agora.IsValidAmount(penaltyAmount) {
		return reverts.InvalidInput("penalty amount out of range")
	}
	// penalties land at half the rate rewards do
	delta := scoreDelta(penaltyAmount, 2)

	rec, err := r.loadOrInitRecord(user)
	if err != nil {
		return err
	}
	oldScore := rec.Score
	rec.Score = saturatingSub(rec.Score, delta)
	rec.TasksDisputed++
	rec.LastUpdated = blockNum

	if err := r.storage.SetRecord(user, rec); err != nil {
		return err
	}
	if err := r.storage.AddTotalScore(int64(rec.Score) - int64(oldScore)); err != nil {
		return err
	}
	if err := r.storage.AppendHistory(user, HistoryEntry{
		Delta:    delta,
		Decrease: true,
		Reason:   reason,
		Block:    blockNum,
	}); err != nil {
		return err
	}

	logger.Debug("reputation decreased", "user", user, "delta", delta, "score", rec.Score)
	metricScoreChanges().AddWithLabel(1, map[string]string{"direction": "decrease"})
	return nil
}

// Delegate records a delegation edge from delegator to delegatee.
// The delegator's outstanding delegations, this edge included, must
// not exceed their own current score.
func (r *Reputation) Delegate(delegator, delegatee agora.Address, amount uint64) error {
	if amount == 0 {
		return reverts.InvalidInput("delegation amount is zero")
	}
	if delegator == delegatee {
		return reverts.InvalidInput("self delegation")
	}
	score, err := r.Get(delegator)
	if err != nil {
		return err
	}
	outstanding, err := r.storage.GetDelegatedOut(delegator)
	if err != nil {
		return err
	}
	if outstanding >= score || amount > score-outstanding {
		return reverts.InvalidInput("delegating %d with %d outstanding exceeds score %d", amount, outstanding, score)
	}
	current, err := r.storage.GetDelegation(delegator, delegatee)
	if err != nil {
		return err
	}
	if err := r.storage.SetDelegation(delegator, delegatee, current+amount); err != nil {
		return err
	}
	return r.storage.SetDelegatedOut(delegator, outstanding+amount)
}

// Undelegate removes up to the currently delegated amount of the edge.
func (r *Reputation) Undelegate(delegator, delegatee agora.Address, amount uint64) error {
	if amount == 0 {
		return reverts.InvalidInput("undelegation amount is zero")
	}
	current, err := r.storage.GetDelegation(delegator, delegatee)
	if err != nil {
		return err
	}
	if amount > current {
		return reverts.InvalidInput("undelegation amount %d exceeds delegated %d", amount, current)
	}
	if err := r.storage.SetDelegation(delegator, delegatee, current-amount); err != nil {
		return err
	}
	outstanding, err := r.storage.GetDelegatedOut(delegator)
	if err != nil {
		return err
	}
	if amount > outstanding {
		amount = outstanding
	}
	return r.storage.SetDelegatedOut(delegator, outstanding-amount)
}

// TotalDelegated returns the delegator's outstanding delegated amount
// summed over all delegatees.
func (r *Reputation) TotalDelegated(delegator agora.Address) (uint64, error) {
	return r.storage.GetDelegatedOut(delegator)
}

// Decay scales every stored score by numerator/denominator, floor
// division, applied uniformly. A zero numerator is rejected: decaying
// every score to absolute zero is disallowed by policy, not oversight.
// Callable by the executor only.
func (r *Reputation) Decay(caller agora.Address, numerator, denominator uint64) error {
	executor, err := r.params.Executor()
	if err != nil {
		return err
	}
	if caller != executor || executor.IsZero() {
		return reverts.Unauthorized("reputation decay: caller %v is not the executor", caller)
	}
	if numerator == 0 {
		return reverts.InvalidInput("decay numerator is zero")
	}
	if denominator == 0 {
		return reverts.InvalidInput("decay denominator is zero")
	}

	index, err := r.storage.GetIndex()
	if err != nil {
		return err
	}
	for _, user := range index {
		rec, err := r.storage.GetRecord(user)
		if err != nil {
			return err
		}
		oldScore := rec.Score
		scaled := new(big.Int).SetUint64(rec.Score)
		scaled.Mul(scaled, new(big.Int).SetUint64(numerator))
		scaled.Quo(scaled, new(big.Int).SetUint64(denominator))
		if scaled.Cmp(new(big.Int).SetUint64(agora.MaxReputation)) > 0 {
			rec.Score = agora.MaxReputation
		} else {
			rec.Score = scaled.Uint64()
		}
		if err := r.storage.SetRecord(user, rec); err != nil {
			return err
		}
		if err := r.storage.AddTotalScore(int64(rec.Score) - int64(oldScore)); err != nil {
			return err
		}
	}

	logger.Info("reputation decay applied", "numerator", numerator, "denominator", denominator, "records", len(index))
	return nil
}

func (r *Reputation) checkScoreMutator(caller agora.Address) error {
	if caller != r.orchestrator && caller != r.resolver {
		return reverts.Unauthorized("reputation: caller %v may not mutate scores", caller)
	}
	return nil
}

// loadOrInitRecord fetches the stored record, materializing the default
// for first-time writes. This is the only place a record comes into being.
func (r *Reputation) loadOrInitRecord(user agora.Address) (*Record, error) {
	rec, err := r.storage.GetRecord(user)
	if err != nil {
		return nil, err
	}
	if !rec.Known {
		rec.Known = true
		rec.Score = agora.InitialReputation
		rec.TotalEarned = new(big.Int)
		if err := r.storage.AppendIndex(user); err != nil {
			return nil, err
		}
		if err := r.storage.AddTotalScore(int64(agora.InitialReputation)); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// scoreDelta converts a monetary amount into a score delta:
// amount * multiplier / (scaling * rateDivisor), floor division,
// capped at the score ceiling since larger deltas saturate anyway.
func scoreDelta(amount *big.Int, rateDivisor uint64) uint64 {
	delta := new(big.Int).Mul(amount, new(big.Int).SetUint64(agora.ReputationMultiplier))
	delta.Quo(delta, new(big.Int).SetUint64(agora.ReputationScaling*rateDivisor))
	if delta.Cmp(new(big.Int).SetUint64(agora.MaxReputation)) > 0 {
		return agora.MaxReputation
	}
	return delta.Uint64()
}

func saturatingAdd(score, delta uint64) uint64 {
	if score+delta > agora.MaxReputation || score+delta < score {
		return agora.MaxReputation
	}
	return score + delta
}

func saturatingSub(score, delta uint64) uint64 {
	if delta >= score {
		return agora.MinReputation
	}
	return score - delta
}
