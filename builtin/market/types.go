// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package market

import (
	"math/big"

	"github.com/agoralabs/agora/agora"
)

type Status = uint8

const (
	StatusUnknown   = Status(iota) // 0 -> default value
	StatusOpen                     // posted, awaiting a worker
	StatusAccepted                 // worker bound, collateral staked
	StatusSubmitted                // delivery submitted, awaiting requester verdict
	StatusDisputed                 // adjudication in progress
	StatusCompleted                // settled, terminal
	StatusCancelled                // withdrawn by the requester before acceptance, terminal
)

// Task is the unit of work. Records are never deleted; terminal
// statuses are permanent.
type Task struct {
	ID            uint64
	Requester     agora.Address
	Title         string
	Description   string
	Reward        *big.Int
	Deadline      uint64
	MinReputation uint64
	Status        Status
	CreatedAt     uint64

	// set on accept, exactly once
	Worker     *agora.Address `rlp:"nil"`
	AcceptedAt *uint64        `rlp:"nil"`

	// set on submit
	DeliveryRef []byte
	SubmittedAt *uint64 `rlp:"nil"`

	// terminal height, set when the task reaches Completed or Cancelled
	SettledAt *uint64 `rlp:"nil"`
}

// IsEmpty returns whether the entry can be treated as empty.
func (t *Task) IsEmpty() bool {
	return t.Status == StatusUnknown
}

// IsTerminal reports whether the task can no longer transition.
func (t *Task) IsTerminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusCancelled
}
