// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package agora

import "math/big"

// IsValidAmount reports whether v is a well-formed monetary amount:
// non-nil, non-negative and within the 128-bit range.
func IsValidAmount(v *big.Int) bool {
	return v != nil && v.Sign() >= 0 && v.Cmp(MaxAmount) <= 0
}
