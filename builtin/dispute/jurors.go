// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dispute

import (
	"encoding/binary"

	"github.com/agoralabs/agora/agora"
)

// selectJurors draws a juror set from the active-staker pool for the
// given task. The procedure is deterministic and auditable: the same
// task, height and pool always produce the same set. It is explicitly
// NOT Sybil-resistant and not cryptographically random, weak-randomness
// is a documented property of the protocol, not a bug to fix here.
//
// The pool is filtered to exclude the two disputing parties, then up to
// maxJurors candidates are picked by hashing (taskID ‖ height ‖ salt)
// with an incrementing counter and indexing into the shrinking
// candidate list. A pool short of minJurors is used as-is.
func selectJurors(taskID, blockNum uint64, pool []agora.Address, requester, worker agora.Address) []agora.Address {
	candidates := make([]agora.Address, 0, len(pool))
	for _, p := range pool {
		if p == requester || p == worker {
			continue
		}
		candidates = append(candidates, p)
	}

	target := agora.MaxJurors
	if len(candidates) < target {
		target = len(candidates)
	}

	var task, height [8]byte
	binary.BigEndian.PutUint64(task[:], taskID)
	binary.BigEndian.PutUint64(height[:], blockNum)
	seed := agora.Blake2b(task[:], height[:], agora.JurorSelectionSalt)

	selected := make([]agora.Address, 0, target)
	for counter := uint32(0); len(selected) < target; counter++ {
		var c [4]byte
		binary.BigEndian.PutUint32(c[:], counter)
		h := agora.Blake2b(seed.Bytes(), c[:])
		idx := binary.BigEndian.Uint64(h[:8]) % uint64(len(candidates))

		selected = append(selected, candidates[idx])
		candidates = append(candidates[:idx:idx], candidates[idx+1:]...)
	}
	return selected
}
