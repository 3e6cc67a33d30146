// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGoes(t *testing.T) {
	var g Goes
	var n int32
	for i := 0; i < 10; i++ {
		g.Go(func() { atomic.AddInt32(&n, 1) })
	}
	g.Wait()
	assert.Equal(t, int32(10), atomic.LoadInt32(&n))

	// the done channel is closed by a helper goroutine, so wait for it
	// rather than polling
	select {
	case <-g.Done():
	case <-time.After(time.Second):
		t.Fatal("done channel should be closed")
	}
}
