// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/agoralabs/agora/agora"
	"github.com/agoralabs/agora/builtin/dispute"
	"github.com/agoralabs/agora/builtin/escrow"
	"github.com/agoralabs/agora/builtin/market"
	"github.com/agoralabs/agora/builtin/reputation"
	"github.com/agoralabs/agora/builtin/stakereg"
)

// Amounts are rendered as decimal strings, JSON numbers cannot carry
// the full 128-bit range.

// Task is the response shape of a task record.
type Task struct {
	ID            uint64         `json:"id"`
	Requester     agora.Address  `json:"requester"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Reward        string         `json:"reward"`
	Deadline      uint64         `json:"deadline"`
	MinReputation uint64         `json:"minReputation"`
	Status        uint8          `json:"status"`
	CreatedAt     uint64         `json:"createdAt"`
	Worker        *agora.Address `json:"worker"`
	AcceptedAt    *uint64        `json:"acceptedAt"`
	DeliveryRef   []byte         `json:"deliveryRef"`
	SubmittedAt   *uint64        `json:"submittedAt"`
	SettledAt     *uint64        `json:"settledAt"`
}

func convertTask(t *market.Task) *Task {
	return &Task{
		ID:            t.ID,
		Requester:     t.Requester,
		Title:         t.Title,
		Description:   t.Description,
		Reward:        t.Reward.String(),
		Deadline:      t.Deadline,
		MinReputation: t.MinReputation,
		Status:        t.Status,
		CreatedAt:     t.CreatedAt,
		Worker:        t.Worker,
		AcceptedAt:    t.AcceptedAt,
		DeliveryRef:   t.DeliveryRef,
		SubmittedAt:   t.SubmittedAt,
		SettledAt:     t.SettledAt,
	}
}

// Escrow is the response shape of an escrow record.
type Escrow struct {
	TaskID    uint64         `json:"taskId"`
	Depositor agora.Address  `json:"depositor"`
	Amount    string         `json:"amount"`
	Status    uint8          `json:"status"`
	Recipient *agora.Address `json:"recipient"`
	CreatedAt uint64         `json:"createdAt"`
	SettledAt *uint64        `json:"settledAt"`
}

func convertEscrow(e *escrow.Escrow) *Escrow {
	var settledAt *uint64
	if e.SettledAt != 0 {
		settledAt = &e.SettledAt
	}
	return &Escrow{
		TaskID:    e.TaskID,
		Depositor: e.Depositor,
		Amount:    e.Amount.String(),
		Status:    e.Status,
		Recipient: e.Recipient,
		CreatedAt: e.CreatedAt,
		SettledAt: settledAt,
	}
}

// Stake is the response shape of a stake record.
type Stake struct {
	Owner              agora.Address `json:"owner"`
	Amount             string        `json:"amount"`
	Status             uint8         `json:"status"`
	StakedAt           uint64        `json:"stakedAt"`
	UnstakeRequestedAt *uint64       `json:"unstakeRequestedAt"`
	UnstakeAvailableAt *uint64       `json:"unstakeAvailableAt"`
	LastActivity       uint64        `json:"lastActivity"`
}

func convertStake(s *stakereg.Stake) *Stake {
	return &Stake{
		Owner:              s.Owner,
		Amount:             s.Amount.String(),
		Status:             s.Status,
		StakedAt:           s.StakedAt,
		UnstakeRequestedAt: s.UnstakeRequestedAt,
		UnstakeAvailableAt: s.UnstakeAvailableAt,
		LastActivity:       s.LastActivity,
	}
}

// Reputation is the response shape of a reputation query. Unseen
// principals report the default score with known=false.
type Reputation struct {
	Score          uint64 `json:"score"`
	TasksCompleted uint64 `json:"tasksCompleted"`
	TasksDisputed  uint64 `json:"tasksDisputed"`
	TotalEarned    string `json:"totalEarned"`
	LastUpdated    uint64 `json:"lastUpdated"`
	Known          bool   `json:"known"`
}

func convertReputation(r *reputation.Record) *Reputation {
	totalEarned := "0"
	if r.TotalEarned != nil {
		totalEarned = r.TotalEarned.String()
	}
	return &Reputation{
		Score:          r.Score,
		TasksCompleted: r.TasksCompleted,
		TasksDisputed:  r.TasksDisputed,
		TotalEarned:    totalEarned,
		LastUpdated:    r.LastUpdated,
		Known:          r.Known,
	}
}

// Dispute is the response shape of a dispute record.
type Dispute struct {
	ID                uint64          `json:"id"`
	TaskID            uint64          `json:"taskId"`
	Requester         agora.Address   `json:"requester"`
	Worker            agora.Address   `json:"worker"`
	Status            uint8           `json:"status"`
	CreatedAt         uint64          `json:"createdAt"`
	VotingEndsAt      uint64          `json:"votingEndsAt"`
	Jurors            []agora.Address `json:"jurors"`
	VotesForWorker    uint32          `json:"votesForWorker"`
	VotesForRequester uint32          `json:"votesForRequester"`
	ResolvedAt        *uint64         `json:"resolvedAt"`
	Winner            *agora.Address  `json:"winner"`
}

func convertDispute(d *dispute.Dispute) *Dispute {
	return &Dispute{
		ID:                d.ID,
		TaskID:            d.TaskID,
		Requester:         d.Requester,
		Worker:            d.Worker,
		Status:            d.Status,
		CreatedAt:         d.CreatedAt,
		VotingEndsAt:      d.VotingEndsAt,
		Jurors:            d.Jurors,
		VotesForWorker:    d.VotesForWorker,
		VotesForRequester: d.VotesForRequester,
		ResolvedAt:        d.ResolvedAt,
		Winner:            d.Winner,
	}
}

// Stats aggregates the ledger-wide counters.
type Stats struct {
	TaskCount        uint64          `json:"taskCount"`
	EscrowCount      uint64          `json:"escrowCount"`
	TotalEscrowed    string          `json:"totalEscrowed"`
	TotalStaked      string          `json:"totalStaked"`
	ActiveStakers    []agora.Address `json:"activeStakers"`
	TotalReputation  string          `json:"totalReputation"`
	KnownPrincipals  uint64          `json:"knownPrincipals"`
	DisputeCount     uint64          `json:"disputeCount"`
	DisputesVoting   uint64          `json:"disputesVoting"`
	DisputesResolved uint64          `json:"disputesResolved"`
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
