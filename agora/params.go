// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package agora

import (
	"math/big"
)

// Constants of the marketplace ledger.
const (
	BlockInterval uint64 = 10 // time interval between two consecutive blocks, in seconds.

	MaxTitleLength       = 128  // max byte length of a task title.
	MaxDescriptionLength = 2048 // max byte length of a task description.
	MaxDeliveryRefLength = 256  // max byte length of a delivery content reference.

	InitialReputation uint64 = 100  // score assumed for principals never seen by the reputation ledger.
	MaxReputation     uint64 = 1000 // reputation ceiling, scores saturate here.
	MinReputation     uint64 = 0    // reputation floor, scores saturate here.

	// ReputationMultiplier and ReputationScaling convert reward amounts into
	// reputation deltas: delta = reward * multiplier / scaling, floor division.
	ReputationMultiplier uint64 = 1
	ReputationScaling    uint64 = 10000

	UnstakeTimelock uint64 = 8640 // blocks between an unstake request and withdrawal, about 1 day.
	VotingPeriod    uint64 = 720  // blocks a dispute stays open for juror votes, about 2 hours.

	MinJurors = 3 // target lower bound of a dispute juror set.
	MaxJurors = 7 // hard upper bound of a dispute juror set.

	SlashPercent = 30 // percentage of staked collateral forfeited on a lost dispute.

	MaxActiveStakers     = 256 // capacity of the juror-eligible active staker set.
	MaxSlashHistory      = 64  // retained slash records, oldest dropped first.
	MaxReputationHistory = 64  // retained reputation delta records per principal, oldest dropped first.

	FeeRateDenominator uint64 = 10000 // protocol fee rate is expressed in basis points.
)

// Keys of governance params.
var (
	KeyPaused          = BytesToBytes32([]byte("paused"))
	KeyMinStake        = BytesToBytes32([]byte("min-stake"))
	KeyMaxStake        = BytesToBytes32([]byte("max-stake"))
	KeyMinTaskReward   = BytesToBytes32([]byte("min-task-reward"))
	KeyMaxTaskReward   = BytesToBytes32([]byte("max-task-reward"))
	KeyProtocolFeeRate = BytesToBytes32([]byte("protocol-fee-rate"))
	KeyFeeRecipient    = BytesToBytes32([]byte("fee-recipient"))
	KeyExecutor        = BytesToBytes32([]byte("executor"))

	InitialMinStake        = big.NewInt(1000)
	InitialMaxStake        = new(big.Int).Mul(big.NewInt(1e9), big.NewInt(1e9))
	InitialMinTaskReward   = big.NewInt(100)
	InitialMaxTaskReward   = new(big.Int).Mul(big.NewInt(1e9), big.NewInt(1e9))
	InitialProtocolFeeRate = big.NewInt(0)
)

// MaxAmount is the upper bound of any monetary amount handled by the ledger,
// 2^128 - 1 in minor currency units.
var MaxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// JurorSelectionSalt seeds the deterministic juror selection procedure.
// It is a fixed, auditable constant: selection is reproducible, not secret.
var JurorSelectionSalt = []byte("agora-juror-selection-v1")
