// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dispute

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agoralabs/agora/agora"
	"github.com/agoralabs/agora/builtin/params"
	"github.com/agoralabs/agora/builtin/reverts"
	"github.com/agoralabs/agora/builtin/stakereg"
	"github.com/agoralabs/agora/state"
	"github.com/agoralabs/agora/xenv"
)

var (
	orchestrator = agora.BytesToAddress([]byte("orchestrator"))
	admin        = agora.BytesToAddress([]byte("admin"))
	requester    = agora.BytesToAddress([]byte("requester"))
	worker       = agora.BytesToAddress([]byte("worker"))
)

type recordingFinalizer struct {
	taskID     uint64
	workerWins bool
	calls      int
}

func (f *recordingFinalizer) FinalizeTask(caller agora.Address, taskID uint64, workerWins bool) error {
	f.taskID = taskID
	f.workerWins = workerWins
	f.calls++
	return nil
}

func newTestResolver(t *testing.T, stakers int) (*Resolver, *recordingFinalizer, *xenv.Environment) {
	env := xenv.New(state.New(nil), &xenv.BlockContext{Number: 100})
	p := params.New(agora.BytesToAddress([]byte("params")), env.State())
	assert.Nil(t, p.SetAddress(admin, agora.KeyExecutor, admin))

	resolverAddr := agora.BytesToAddress([]byte("dispute"))
	reg := stakereg.New(agora.BytesToAddress([]byte("stakereg")), env, p, orchestrator, resolverAddr)
	for i := 0; i < stakers; i++ {
		staker := agora.BytesToAddress([]byte{byte(i), 0xee})
		assert.Nil(t, env.State().SetBalance(staker, big.NewInt(1_000_000)))
		assert.Nil(t, reg.Stake(staker, big.NewInt(100_000)))
	}

	r := New(resolverAddr, env, p, reg, orchestrator)
	fin := &recordingFinalizer{}
	r.SetFinalizer(fin)
	return r, fin, env
}

func TestOpen(t *testing.T) {
	r, _, _ := newTestResolver(t, 10)

	_, err := r.Open(requester, 1, requester, worker)
	assert.True(t, reverts.IsUnauthorized(err))

	id, err := r.Open(orchestrator, 1, requester, worker)
	assert.Nil(t, err)
	assert.Equal(t, uint64(0), id)

	d, err := r.GetDispute(id)
	assert.Nil(t, err)
	assert.Equal(t, StatusVoting, d.Status)
	assert.Equal(t, uint64(1), d.TaskID)
	assert.Equal(t, uint64(100), d.CreatedAt)
	assert.Equal(t, uint64(100+agora.VotingPeriod), d.VotingEndsAt)
	assert.Len(t, d.Jurors, agora.MaxJurors)
	assert.False(t, d.IsJuror(requester))
	assert.False(t, d.IsJuror(worker))

	byTask, err := r.GetDisputeByTask(1)
	assert.Nil(t, err)
	assert.Equal(t, d, byTask)

	// one dispute per task, ever
	_, err = r.Open(orchestrator, 1, requester, worker)
	assert.True(t, reverts.IsAlreadyExists(err))

	count, _ := r.DisputeCount()
	assert.Equal(t, uint64(1), count)
	voting, _ := r.VotingCount()
	assert.Equal(t, uint64(1), voting)
}

func TestOpenShortPool(t *testing.T) {
	r, _, _ := newTestResolver(t, 2)

	id, err := r.Open(orchestrator, 1, requester, worker)
	assert.Nil(t, err)
	d, _ := r.GetDispute(id)
	assert.Len(t, d.Jurors, 2)
}

func TestJurorSelectionDeterminism(t *testing.T) {
	pool := make([]agora.Address, 20)
	for i := range pool {
		pool[i] = agora.BytesToAddress([]byte{byte(i), 0xee})
	}

	a := selectJurors(7, 500, pool, requester, worker)
	b := selectJurors(7, 500, pool, requester, worker)
	assert.Equal(t, a, b)
	assert.Len(t, a, agora.MaxJurors)
	seen := map[agora.Address]bool{}
	for _, j := range a {
		assert.False(t, seen[j], "juror selected twice")
		seen[j] = true
	}

	// a different task or height draws a different set
	c := selectJurors(8, 500, pool, requester, worker)
	d := selectJurors(7, 501, pool, requester, worker)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
}

func TestVote(t *testing.T) {
	r, fin, _ := newTestResolver(t, 10)

	id, err := r.Open(orchestrator, 1, requester, worker)
	assert.Nil(t, err)
	d, _ := r.GetDispute(id)

	err = r.Vote(requester, id, true)
	assert.True(t, reverts.IsUnauthorized(err))
	err = r.Vote(d.Jurors[0], 99, true)
	assert.True(t, reverts.IsNotFound(err))

	assert.Nil(t, r.Vote(d.Jurors[0], id, true))
	vote, err := r.GetVote(id, d.Jurors[0])
	assert.Nil(t, err)
	assert.True(t, vote.SupportWorker)

	err = r.Vote(d.Jurors[0], id, false)
	assert.True(t, reverts.IsAlreadyExists(err))

	assert.Nil(t, r.Vote(d.Jurors[1], id, false))
	d, _ = r.GetDispute(id)
	assert.Equal(t, uint32(1), d.VotesForWorker)
	assert.Equal(t, uint32(1), d.VotesForRequester)
	assert.Zero(t, fin.calls)
}

func TestVoteEarlyMajority(t *testing.T) {
	r, fin, _ := newTestResolver(t, 10)

	id, _ := r.Open(orchestrator, 1, requester, worker)
	d, _ := r.GetDispute(id)
	assert.Len(t, d.Jurors, 7)

	// 4 of 7 is a strict majority; the 4th vote resolves in-call
	for i := 0; i < 3; i++ {
		assert.Nil(t, r.Vote(d.Jurors[i], id, true))
	}
	d, _ = r.GetDispute(id)
	assert.Equal(t, StatusVoting, d.Status)

	assert.Nil(t, r.Vote(d.Jurors[3], id, true))
	d, _ = r.GetDispute(id)
	assert.Equal(t, StatusResolved, d.Status)
	assert.Equal(t, worker, *d.Winner)
	assert.Equal(t, 1, fin.calls)
	assert.Equal(t, uint64(1), fin.taskID)
	assert.True(t, fin.workerWins)

	// terminal: no more votes
	err := r.Vote(d.Jurors[4], id, false)
	assert.True(t, reverts.IsVotingEnded(err))

	voting, _ := r.VotingCount()
	assert.Zero(t, voting)
	resolved, _ := r.ResolvedCount()
	assert.Equal(t, uint64(1), resolved)
}

func TestResolveAfterWindow(t *testing.T) {
	r, fin, env := newTestResolver(t, 10)

	id, _ := r.Open(orchestrator, 1, requester, worker)
	d, _ := r.GetDispute(id)

	assert.Nil(t, r.Vote(d.Jurors[0], id, false))
	assert.Nil(t, r.Vote(d.Jurors[1], id, true))

	err := r.Resolve(requester, id)
	assert.True(t, reverts.IsUnauthorized(err))
	err = r.Resolve(admin, id)
	assert.True(t, reverts.IsVotingActive(err))

	// window over, votes rejected
	env.BlockContext().Number = 100 + agora.VotingPeriod + 1
	err = r.Vote(d.Jurors[2], id, true)
	assert.True(t, reverts.IsVotingEnded(err))

	// 1-1 tie favors the requester
	assert.Nil(t, r.Resolve(admin, id))
	d, _ = r.GetDispute(id)
	assert.Equal(t, StatusResolved, d.Status)
	assert.Equal(t, requester, *d.Winner)
	assert.Equal(t, uint64(100+agora.VotingPeriod+1), *d.ResolvedAt)
	assert.False(t, fin.workerWins)

	err = r.Resolve(admin, id)
	assert.True(t, reverts.IsInvalidInput(err))
}

func TestResolveAtWindowEnd(t *testing.T) {
	r, fin, env := newTestResolver(t, 10)

	id, _ := r.Open(orchestrator, 1, requester, worker)
	d, _ := r.GetDispute(id)
	assert.Nil(t, r.Vote(d.Jurors[0], id, true))

	env.BlockContext().Number = d.VotingEndsAt - 1
	err := r.Resolve(admin, id)
	assert.True(t, reverts.IsVotingActive(err))

	// resolvable at the closing block itself
	env.BlockContext().Number = d.VotingEndsAt
	assert.Nil(t, r.Resolve(admin, id))
	d, _ = r.GetDispute(id)
	assert.Equal(t, StatusResolved, d.Status)
	assert.Equal(t, worker, *d.Winner)
	assert.Equal(t, 1, fin.calls)
}
