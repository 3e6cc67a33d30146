// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reputation

import "math/big"

// Record is the stored reputation of one principal.
type Record struct {
	Score          uint64
	TasksCompleted uint64
	TasksDisputed  uint64
	TotalEarned    *big.Int
	LastUpdated    uint64 // block height of the last mutation
	Known          bool   // false only for the synthesized default of an unseen principal
}

// HistoryEntry is one retained score delta.
type HistoryEntry struct {
	Delta    uint64
	Decrease bool
	Reason   string
	Block    uint64
}
