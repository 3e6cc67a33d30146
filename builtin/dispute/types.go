// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dispute

import (
	"github.com/agoralabs/agora/agora"
)

type Status = uint8

const (
	StatusUnknown  = Status(iota) // 0 -> default value
	StatusVoting                  // juror votes being collected
	StatusResolved                // winner decided and outcome applied, terminal
)

// Dispute is the adjudication record of one disputed task.
// A task has at most one dispute, ever.
type Dispute struct {
	ID        uint64
	TaskID    uint64
	Requester agora.Address
	Worker    agora.Address
	Status    Status
	CreatedAt uint64
	// voting window end, votes are rejected strictly after this height
	// unless an early majority already closed the dispute
	VotingEndsAt uint64

	Jurors            []agora.Address
	VotesForWorker    uint32
	VotesForRequester uint32

	ResolvedAt *uint64        `rlp:"nil"`
	Winner     *agora.Address `rlp:"nil"`
}

// IsEmpty returns whether the entry can be treated as empty.
func (d *Dispute) IsEmpty() bool {
	return d.Status == StatusUnknown
}

// IsJuror reports whether addr belongs to the dispute's juror set.
func (d *Dispute) IsJuror(addr agora.Address) bool {
	for _, j := range d.Jurors {
		if j == addr {
			return true
		}
	}
	return false
}

// HasEarlyMajority reports whether either tally strictly exceeds half
// the juror set, which closes the dispute without waiting out the
// voting window.
func (d *Dispute) HasEarlyMajority() bool {
	n := uint32(len(d.Jurors))
	return d.VotesForWorker*2 > n || d.VotesForRequester*2 > n
}

// WinnerAddress computes the outcome. Ties favor the requester: the
// worker must convince a strict majority of voting jurors. A policy
// choice, not an accident.
func (d *Dispute) WinnerAddress() agora.Address {
	if d.VotesForWorker > d.VotesForRequester {
		return d.Worker
	}
	return d.Requester
}

// Vote is one juror's recorded choice.
type Vote struct {
	SupportWorker bool
	Block         uint64
	Known         bool // distinguishes a stored vote from the empty default
}
