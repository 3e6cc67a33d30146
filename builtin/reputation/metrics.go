// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reputation

import "github.com/agoralabs/agora/metrics"

var metricScoreChanges = metrics.LazyLoadCounterVec("reputation_score_change_count", []string{"direction"})
