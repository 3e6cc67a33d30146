// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger exposes the read-only query surface: records by id
// and the ledger-wide aggregate counters. Queries are side-effect-free
// and fail only on bad input or absent records.
package ledger

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/agoralabs/agora/agora"
	"github.com/agoralabs/agora/api/utils"
	"github.com/agoralabs/agora/builtin"
	"github.com/agoralabs/agora/builtin/dispute"
	"github.com/agoralabs/agora/cache"
)

const settledCacheSize = 1024

// Ledger serves the query endpoints over a wired module set. Reads
// take the shared ledger lock; terminal records are immutable and
// served from a small cache once seen.
type Ledger struct {
	modules *builtin.Agora
	lock    *sync.RWMutex
	settled *cache.LRU
}

// New creates the query surface. lock is the ledger's global
// transaction lock, shared with the operation executor.
func New(modules *builtin.Agora, lock *sync.RWMutex) *Ledger {
	settled, err := cache.NewLRU(settledCacheSize)
	if err != nil {
		panic(err)
	}
	return &Ledger{modules, lock, settled}
}

func parseID(req *http.Request, name string) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(req)[name], 10, 64)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, name))
	}
	return id, nil
}

func parseAddress(req *http.Request, name string) (agora.Address, error) {
	addr, err := agora.ParseAddress(mux.Vars(req)[name])
	if err != nil {
		return agora.Address{}, utils.BadRequest(errors.WithMessage(err, name))
	}
	return addr, nil
}

func (l *Ledger) handleGetTask(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req, "id")
	if err != nil {
		return err
	}
	key := fmt.Sprintf("task-%d", id)
	if cached, ok := l.settled.Get(key); ok {
		return utils.WriteJSON(w, cached)
	}

	l.lock.RLock()
	task, err := l.modules.Market.GetTask(id)
	l.lock.RUnlock()
	if err != nil {
		return err
	}
	if task == nil {
		return utils.NotFound(errors.Errorf("task %d", id))
	}
	converted := convertTask(task)
	if task.IsTerminal() {
		l.settled.Add(key, converted)
	}
	return utils.WriteJSON(w, converted)
}

func (l *Ledger) handleGetEscrow(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req, "taskid")
	if err != nil {
		return err
	}
	l.lock.RLock()
	esc, err := l.modules.Escrow.GetEscrow(id)
	l.lock.RUnlock()
	if err != nil {
		return err
	}
	if esc == nil {
		return utils.NotFound(errors.Errorf("escrow of task %d", id))
	}
	return utils.WriteJSON(w, convertEscrow(esc))
}

func (l *Ledger) handleGetStake(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	l.lock.RLock()
	stake, err := l.modules.Stakes.GetStake(addr)
	l.lock.RUnlock()
	if err != nil {
		return err
	}
	if stake == nil {
		return utils.NotFound(errors.Errorf("stake of %v", addr))
	}
	return utils.WriteJSON(w, convertStake(stake))
}

func (l *Ledger) handleGetReputation(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	l.lock.RLock()
	rec, err := l.modules.Reputation.GetRecord(addr)
	l.lock.RUnlock()
	if err != nil {
		return err
	}
	// never a 404: unseen principals hold the default score
	return utils.WriteJSON(w, convertReputation(rec))
}

func (l *Ledger) handleGetDispute(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req, "id")
	if err != nil {
		return err
	}
	key := fmt.Sprintf("dispute-%d", id)
	if cached, ok := l.settled.Get(key); ok {
		return utils.WriteJSON(w, cached)
	}

	l.lock.RLock()
	d, err := l.modules.Dispute.GetDispute(id)
	l.lock.RUnlock()
	if err != nil {
		return err
	}
	if d == nil {
		return utils.NotFound(errors.Errorf("dispute %d", id))
	}
	converted := convertDispute(d)
	if d.Status == dispute.StatusResolved {
		l.settled.Add(key, converted)
	}
	return utils.WriteJSON(w, converted)
}

func (l *Ledger) handleGetDisputeByTask(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req, "taskid")
	if err != nil {
		return err
	}
	l.lock.RLock()
	d, err := l.modules.Dispute.GetDisputeByTask(id)
	l.lock.RUnlock()
	if err != nil {
		return err
	}
	if d == nil {
		return utils.NotFound(errors.Errorf("dispute of task %d", id))
	}
	return utils.WriteJSON(w, convertDispute(d))
}

func (l *Ledger) handleGetStats(w http.ResponseWriter, _ *http.Request) error {
	l.lock.RLock()
	defer l.lock.RUnlock()

	taskCount, err := l.modules.Market.TaskCount()
	if err != nil {
		return err
	}
	escrowCount, err := l.modules.Escrow.EscrowCount()
	if err != nil {
		return err
	}
	totalEscrowed, err := l.modules.Escrow.TotalEscrowed()
	if err != nil {
		return err
	}
	totalStaked, err := l.modules.Stakes.TotalStaked()
	if err != nil {
		return err
	}
	actives, err := l.modules.Stakes.ActiveStakers()
	if err != nil {
		return err
	}
	totalReputation, err := l.modules.Reputation.TotalScore()
	if err != nil {
		return err
	}
	knownPrincipals, err := l.modules.Reputation.KnownCount()
	if err != nil {
		return err
	}
	disputeCount, err := l.modules.Dispute.DisputeCount()
	if err != nil {
		return err
	}
	voting, err := l.modules.Dispute.VotingCount()
	if err != nil {
		return err
	}
	resolved, err := l.modules.Dispute.ResolvedCount()
	if err != nil {
		return err
	}

	return utils.WriteJSON(w, &Stats{
		TaskCount:        taskCount,
		EscrowCount:      escrowCount,
		TotalEscrowed:    bigString(totalEscrowed),
		TotalStaked:      bigString(totalStaked),
		ActiveStakers:    actives,
		TotalReputation:  bigString(totalReputation),
		KnownPrincipals:  knownPrincipals,
		DisputeCount:     disputeCount,
		DisputesVoting:   voting,
		DisputesResolved: resolved,
	})
}

func (l *Ledger) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/tasks/{id}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(l.handleGetTask))
	sub.Path("/escrows/{taskid}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(l.handleGetEscrow))
	sub.Path("/stakes/{address}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(l.handleGetStake))
	sub.Path("/reputation/{address}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(l.handleGetReputation))
	sub.Path("/disputes/{id}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(l.handleGetDispute))
	sub.Path("/tasks/{taskid}/dispute").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(l.handleGetDisputeByTask))
	sub.Path("/stats").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(l.handleGetStats))
}
