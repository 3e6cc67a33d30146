// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"math/big"

	"github.com/agoralabs/agora/agora"
)

type Status = uint8

const (
	StatusUnknown   = Status(iota) // 0 -> default value
	StatusDeposited                // funds held in vault custody
	StatusReleased                 // funds moved to the recipient, terminal
	StatusRefunded                 // funds moved back to the depositor, terminal
)

// Escrow is the custody record of one task's reward. At most one
// exists per task, its amount is immutable after creation and its
// status only ever moves one way.
type Escrow struct {
	TaskID    uint64
	Depositor agora.Address
	Amount    *big.Int
	Status    Status
	Recipient *agora.Address `rlp:"nil"` // set on release/refund
	CreatedAt uint64
	SettledAt uint64 // block of release/refund, 0 while deposited
}

// IsEmpty returns whether the entry can be treated as empty.
func (e *Escrow) IsEmpty() bool {
	return e.Status == StatusUnknown
}
