// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agoralabs/agora/agora"
	"github.com/agoralabs/agora/builtin"
	"github.com/agoralabs/agora/builtin/market"
	"github.com/agoralabs/agora/state"
	"github.com/agoralabs/agora/xenv"
)

var (
	admin = agora.BytesToAddress([]byte("admin"))
	alice = agora.BytesToAddress([]byte("alice"))
	bob   = agora.BytesToAddress([]byte("bob"))
)

func newTestServer(t *testing.T) (*httptest.Server, *builtin.Agora) {
	env := xenv.New(state.New(nil), &xenv.BlockContext{Number: 10})
	modules := builtin.Wire(env)
	require.Nil(t, modules.Params.SetAddress(admin, agora.KeyExecutor, admin))
	require.Nil(t, env.State().SetBalance(alice, big.NewInt(10_000_000)))
	require.Nil(t, env.State().SetBalance(bob, big.NewInt(10_000_000)))

	_, err := modules.Market.CreateTask(alice, "render", "render the scene", big.NewInt(1_000_000), 100, 0)
	require.Nil(t, err)
	require.Nil(t, modules.Market.AcceptTask(bob, 0, big.NewInt(1_000_000)))

	router := mux.NewRouter()
	New(modules, &sync.RWMutex{}).Mount(router, "/ledger")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, modules
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url)
	require.Nil(t, err)
	body, err := io.ReadAll(res.Body)
	require.Nil(t, err)
	require.Nil(t, res.Body.Close())
	return body, res.StatusCode
}

func TestGetTask(t *testing.T) {
	ts, _ := newTestServer(t)

	body, status := httpGet(t, ts.URL+"/ledger/tasks/0")
	assert.Equal(t, http.StatusOK, status)

	var task Task
	assert.Nil(t, json.Unmarshal(body, &task))
	assert.Equal(t, "render", task.Title)
	assert.Equal(t, "1000000", task.Reward)
	assert.Equal(t, market.StatusAccepted, task.Status)
	assert.Equal(t, bob, *task.Worker)

	_, status = httpGet(t, ts.URL+"/ledger/tasks/42")
	assert.Equal(t, http.StatusNotFound, status)
	_, status = httpGet(t, ts.URL+"/ledger/tasks/abc")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGetEscrowAndStake(t *testing.T) {
	ts, _ := newTestServer(t)

	body, status := httpGet(t, ts.URL+"/ledger/escrows/0")
	assert.Equal(t, http.StatusOK, status)
	var esc Escrow
	assert.Nil(t, json.Unmarshal(body, &esc))
	assert.Equal(t, alice, esc.Depositor)
	assert.Equal(t, "1000000", esc.Amount)

	body, status = httpGet(t, ts.URL+"/ledger/stakes/"+bob.String())
	assert.Equal(t, http.StatusOK, status)
	var stake Stake
	assert.Nil(t, json.Unmarshal(body, &stake))
	assert.Equal(t, "1000000", stake.Amount)

	_, status = httpGet(t, ts.URL+"/ledger/stakes/"+alice.String())
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGetReputationNeverFails(t *testing.T) {
	ts, _ := newTestServer(t)

	// unseen principal reports the default score
	body, status := httpGet(t, ts.URL+"/ledger/reputation/"+alice.String())
	assert.Equal(t, http.StatusOK, status)
	var rep Reputation
	assert.Nil(t, json.Unmarshal(body, &rep))
	assert.Equal(t, uint64(agora.InitialReputation), rep.Score)
	assert.False(t, rep.Known)
}

func TestGetStats(t *testing.T) {
	ts, _ := newTestServer(t)

	body, status := httpGet(t, ts.URL+"/ledger/stats")
	assert.Equal(t, http.StatusOK, status)

	var stats Stats
	assert.Nil(t, json.Unmarshal(body, &stats))
	assert.Equal(t, uint64(1), stats.TaskCount)
	assert.Equal(t, "1000000", stats.TotalEscrowed)
	assert.Equal(t, "1000000", stats.TotalStaked)
	assert.Equal(t, []agora.Address{bob}, stats.ActiveStakers)
	assert.Zero(t, stats.DisputeCount)
}

func TestGetDisputeByTask(t *testing.T) {
	ts, modules := newTestServer(t)

	_, status := httpGet(t, ts.URL+"/ledger/tasks/0/dispute")
	assert.Equal(t, http.StatusNotFound, status)

	assert.Nil(t, modules.Market.SubmitDelivery(bob, 0, []byte("QmX")))
	assert.Nil(t, modules.Market.RequesterDispute(alice, 0))

	body, status := httpGet(t, ts.URL+"/ledger/tasks/0/dispute")
	assert.Equal(t, http.StatusOK, status)
	var d Dispute
	assert.Nil(t, json.Unmarshal(body, &d))
	assert.Equal(t, uint64(0), d.TaskID)
	assert.Equal(t, alice, d.Requester)
	assert.Equal(t, bob, d.Worker)
}
