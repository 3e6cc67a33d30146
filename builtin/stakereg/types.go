// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakereg

import (
	"math/big"

	"github.com/agoralabs/agora/agora"
)

type Status = uint8

const (
	StatusUnknown   = Status(iota) // 0 -> default value
	StatusActive                   // collateral locked, top-ups allowed
	StatusUnstaking                // timelocked exit requested, no further top-ups
	StatusSlashed                  // collateral forfeited by dispute outcome
	StatusWithdrawn                // collateral returned, record reusable by re-staking
)

// Stake is the collateral record of one principal. One record per
// principal, not per task.
type Stake struct {
	Owner              agora.Address
	Amount             *big.Int
	Status             Status
	StakedAt           uint64
	UnstakeRequestedAt *uint64 `rlp:"nil"`
	UnstakeAvailableAt *uint64 `rlp:"nil"` // UnstakeRequestedAt + timelock
	LastActivity       uint64
}

// IsEmpty returns whether the entry can be treated as empty.
func (s *Stake) IsEmpty() bool {
	return s.Status == StatusUnknown
}

// SlashRecord is one retained slashing event.
type SlashRecord struct {
	Staker    agora.Address
	Forfeited *big.Int
	Returned  *big.Int
	Block     uint64
}
