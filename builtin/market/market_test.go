// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package market

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agoralabs/agora/agora"
	"github.com/agoralabs/agora/builtin/dispute"
	"github.com/agoralabs/agora/builtin/escrow"
	"github.com/agoralabs/agora/builtin/params"
	"github.com/agoralabs/agora/builtin/reputation"
	"github.com/agoralabs/agora/builtin/reverts"
	"github.com/agoralabs/agora/builtin/stakereg"
	"github.com/agoralabs/agora/state"
	"github.com/agoralabs/agora/xenv"
)

var (
	admin = agora.BytesToAddress([]byte("admin"))
	alice = agora.BytesToAddress([]byte("alice")) // requester
	bob   = agora.BytesToAddress([]byte("bob"))   // worker
)

type fixture struct {
	env      *xenv.Environment
	params   *params.Params
	vault    *escrow.Vault
	stakes   *stakereg.Registry
	ledger   *reputation.Reputation
	resolver *dispute.Resolver
	market   *Orchestrator
	jurors   []agora.Address
}

// newFixture wires the full module set the way the genesis wiring does,
// funds alice and bob, and stakes extra principals to fill the juror pool.
func newFixture(t *testing.T, jurorPool int) *fixture {
	env := xenv.New(state.New(nil), &xenv.BlockContext{Number: 100})

	marketAddr := agora.BytesToAddress([]byte("agora-market"))
	escrowAddr := agora.BytesToAddress([]byte("agora-escrow"))
	stakeAddr := agora.BytesToAddress([]byte("agora-stakereg"))
	repAddr := agora.BytesToAddress([]byte("agora-reputation"))
	disputeAddr := agora.BytesToAddress([]byte("agora-dispute"))

	p := params.New(agora.BytesToAddress([]byte("agora-params")), env.State())
	assert.Nil(t, p.SetAddress(admin, agora.KeyExecutor, admin))

	vault := escrow.New(escrowAddr, env, p, marketAddr, disputeAddr)
	stakes := stakereg.New(stakeAddr, env, p, marketAddr, disputeAddr)
	ledger := reputation.New(repAddr, env, p, marketAddr, disputeAddr)
	resolver := dispute.New(disputeAddr, env, p, stakes, marketAddr)
	market := New(marketAddr, env, p, vault, stakes, ledger, resolver)
	resolver.SetFinalizer(market)

	assert.Nil(t, env.State().SetBalance(alice, big.NewInt(10_000_000)))
	assert.Nil(t, env.State().SetBalance(bob, big.NewInt(10_000_000)))

	f := &fixture{env, p, vault, stakes, ledger, resolver, market, nil}
	for i := 0; i < jurorPool; i++ {
		juror := agora.BytesToAddress([]byte{byte(i), 0xaa})
		assert.Nil(t, env.State().SetBalance(juror, big.NewInt(1_000_000)))
		assert.Nil(t, stakes.Stake(juror, big.NewInt(100_000)))
		f.jurors = append(f.jurors, juror)
	}
	return f
}

// throughSubmitted drives a fresh task to Submitted:
// reward 1_000_000, deadline +100, min reputation 50, stake 1_000_000.
func (f *fixture) throughSubmitted(t *testing.T) uint64 {
	id, err := f.market.CreateTask(alice, "render", "render the scene", big.NewInt(1_000_000), 200, 50)
	assert.Nil(t, err)
	assert.Nil(t, f.market.AcceptTask(bob, id, big.NewInt(1_000_000)))
	assert.Nil(t, f.market.SubmitDelivery(bob, id, []byte("QmDelivery")))
	return id
}

func TestCreateTaskValidation(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.market.CreateTask(alice, "", "desc", big.NewInt(1000), 200, 0)
	assert.True(t, reverts.IsInvalidInput(err))
	_, err = f.market.CreateTask(alice, "title", "", big.NewInt(1000), 200, 0)
	assert.True(t, reverts.IsInvalidInput(err))
	_, err = f.market.CreateTask(alice, "title", "desc", big.NewInt(1), 200, 0)
	assert.True(t, reverts.IsInvalidInput(err)) // below min reward
	_, err = f.market.CreateTask(alice, "title", "desc", big.NewInt(1000), 100, 0)
	assert.True(t, reverts.IsInvalidInput(err)) // deadline not in the future

	assert.Nil(t, f.params.Set(admin, agora.KeyPaused, big.NewInt(1)))
	_, err = f.market.CreateTask(alice, "title", "desc", big.NewInt(1000), 200, 0)
	assert.True(t, reverts.IsInvalidInput(err))
	assert.Nil(t, f.params.Set(admin, agora.KeyPaused, big.NewInt(0)))

	id, err := f.market.CreateTask(alice, "title", "desc", big.NewInt(1000), 200, 0)
	assert.Nil(t, err)
	assert.Equal(t, uint64(0), id)

	task, err := f.market.GetTask(id)
	assert.Nil(t, err)
	assert.Equal(t, StatusOpen, task.Status)
	assert.Equal(t, uint64(100), task.CreatedAt)
	assert.Nil(t, task.Worker)

	// reward sits in escrow, record exists only because deposit succeeded
	esc, err := f.vault.GetEscrow(id)
	assert.Nil(t, err)
	assert.Equal(t, big.NewInt(1000), esc.Amount)
	bal, _ := f.env.State().GetBalance(alice)
	assert.Equal(t, big.NewInt(9_999_000), bal)

	count, _ := f.market.TaskCount()
	assert.Equal(t, uint64(1), count)
}

func TestCreateTaskFailsWithoutFunds(t *testing.T) {
	f := newFixture(t, 0)
	poor := agora.BytesToAddress([]byte("poor"))

	_, err := f.market.CreateTask(poor, "title", "desc", big.NewInt(1000), 200, 0)
	assert.True(t, reverts.IsInsufficientFunds(err))

	// nothing persisted
	count, _ := f.market.TaskCount()
	assert.Zero(t, count)
	esc, _ := f.vault.GetEscrow(0)
	assert.Nil(t, esc)
}

func TestAcceptTaskGuards(t *testing.T) {
	f := newFixture(t, 0)

	err := f.market.AcceptTask(bob, 42, big.NewInt(1_000_000))
	assert.True(t, reverts.IsNotFound(err))

	id, err := f.market.CreateTask(alice, "render", "render the scene", big.NewInt(1_000_000), 200, 50)
	assert.Nil(t, err)

	err = f.market.AcceptTask(alice, id, big.NewInt(1_000_000))
	assert.True(t, reverts.IsUnauthorized(err)) // self-accept

	err = f.market.AcceptTask(bob, id, big.NewInt(10))
	assert.True(t, reverts.IsInsufficientStake(err))

	// default score 100 fails a 500 bar
	highBar, err := f.market.CreateTask(alice, "expert work", "needs a veteran", big.NewInt(1_000_000), 200, 500)
	assert.Nil(t, err)
	err = f.market.AcceptTask(bob, highBar, big.NewInt(1_000_000))
	assert.True(t, reverts.IsInsufficientReputation(err))

	f.env.BlockContext().Number = 201
	err = f.market.AcceptTask(bob, id, big.NewInt(1_000_000))
	assert.True(t, reverts.IsDeadlinePassed(err))
	f.env.BlockContext().Number = 100

	assert.Nil(t, f.market.AcceptTask(bob, id, big.NewInt(1_000_000)))
	task, _ := f.market.GetTask(id)
	assert.Equal(t, StatusAccepted, task.Status)
	assert.Equal(t, bob, *task.Worker)

	stake, _ := f.stakes.GetStake(bob)
	assert.Equal(t, big.NewInt(1_000_000), stake.Amount)
	actives, _ := f.stakes.ActiveStakers()
	assert.Contains(t, actives, bob)

	// worker binds once
	err = f.market.AcceptTask(alice, id, big.NewInt(1_000_000))
	assert.True(t, reverts.IsAlreadyExists(err))
}

func TestSubmitDelivery(t *testing.T) {
	f := newFixture(t, 0)
	id, err := f.market.CreateTask(alice, "render", "render the scene", big.NewInt(1_000_000), 200, 50)
	assert.Nil(t, err)

	err = f.market.SubmitDelivery(bob, id, []byte("QmX"))
	assert.True(t, reverts.IsUnauthorized(err)) // not yet the worker

	assert.Nil(t, f.market.AcceptTask(bob, id, big.NewInt(1_000_000)))

	err = f.market.SubmitDelivery(alice, id, []byte("QmX"))
	assert.True(t, reverts.IsUnauthorized(err))
	err = f.market.SubmitDelivery(bob, id, nil)
	assert.True(t, reverts.IsInvalidInput(err))

	f.env.BlockContext().Number = 201
	err = f.market.SubmitDelivery(bob, id, []byte("QmX"))
	assert.True(t, reverts.IsDeadlinePassed(err))
	f.env.BlockContext().Number = 150

	assert.Nil(t, f.market.SubmitDelivery(bob, id, []byte("QmX")))
	task, _ := f.market.GetTask(id)
	assert.Equal(t, StatusSubmitted, task.Status)
	assert.Equal(t, []byte("QmX"), task.DeliveryRef)
	assert.Equal(t, uint64(150), *task.SubmittedAt)

	err = f.market.SubmitDelivery(bob, id, []byte("QmY"))
	assert.True(t, reverts.IsInvalidInput(err)) // already submitted
}

func TestHappyPathSettlement(t *testing.T) {
	f := newFixture(t, 0)
	id := f.throughSubmitted(t)

	err := f.market.RequesterAccept(bob, id)
	assert.True(t, reverts.IsUnauthorized(err))

	assert.Nil(t, f.market.RequesterAccept(alice, id))

	task, _ := f.market.GetTask(id)
	assert.Equal(t, StatusCompleted, task.Status)

	// escrow released to the worker, stake returned in full
	esc, _ := f.vault.GetEscrow(id)
	assert.Equal(t, escrow.StatusReleased, esc.Status)
	assert.Equal(t, bob, *esc.Recipient)
	bal, _ := f.env.State().GetBalance(bob)
	assert.Equal(t, big.NewInt(11_000_000), bal)

	// reputation credited at full reward weight: 1_000_000/10_000 = +100
	score, _ := f.ledger.Get(bob)
	assert.Equal(t, uint64(200), score)
	rec, _ := f.ledger.GetRecord(bob)
	assert.Equal(t, uint64(1), rec.TasksCompleted)
	assert.Equal(t, big.NewInt(1_000_000), rec.TotalEarned)

	// terminal
	err = f.market.RequesterAccept(alice, id)
	assert.True(t, reverts.IsInvalidInput(err))
	err = f.market.RequesterDispute(alice, id)
	assert.True(t, reverts.IsInvalidInput(err))
}

func TestDisputeWorkerWins(t *testing.T) {
	f := newFixture(t, 5)
	id := f.throughSubmitted(t)

	assert.Nil(t, f.market.RequesterDispute(alice, id))
	task, _ := f.market.GetTask(id)
	assert.Equal(t, StatusDisputed, task.Status)

	d, err := f.resolver.GetDisputeByTask(id)
	assert.Nil(t, err)
	assert.Len(t, d.Jurors, 5) // pool of 5 plus bob, minus the parties
	assert.False(t, d.IsJuror(alice))
	assert.False(t, d.IsJuror(bob))

	// 3 of 5 is a strict majority, resolution happens inside the vote
	assert.Nil(t, f.resolver.Vote(d.Jurors[0], d.ID, true))
	assert.Nil(t, f.resolver.Vote(d.Jurors[1], d.ID, true))
	assert.Nil(t, f.resolver.Vote(d.Jurors[2], d.ID, true))

	d, _ = f.resolver.GetDispute(d.ID)
	assert.Equal(t, dispute.StatusResolved, d.Status)
	assert.Equal(t, bob, *d.Winner)

	task, _ = f.market.GetTask(id)
	assert.Equal(t, StatusCompleted, task.Status)

	esc, _ := f.vault.GetEscrow(id)
	assert.Equal(t, escrow.StatusReleased, esc.Status)
	bal, _ := f.env.State().GetBalance(bob)
	assert.Equal(t, big.NewInt(11_000_000), bal)

	// disputed win credits half the reward weight: +50
	score, _ := f.ledger.Get(bob)
	assert.Equal(t, uint64(150), score)
}

func TestDisputeRequesterWins(t *testing.T) {
	f := newFixture(t, 5)
	id := f.throughSubmitted(t)

	assert.Nil(t, f.market.RequesterDispute(alice, id))
	d, _ := f.resolver.GetDisputeByTask(id)

	assert.Nil(t, f.resolver.Vote(d.Jurors[0], d.ID, false))
	assert.Nil(t, f.resolver.Vote(d.Jurors[1], d.ID, false))
	assert.Nil(t, f.resolver.Vote(d.Jurors[2], d.ID, false))

	task, _ := f.market.GetTask(id)
	assert.Equal(t, StatusCompleted, task.Status)

	// escrow refunded to the requester
	esc, _ := f.vault.GetEscrow(id)
	assert.Equal(t, escrow.StatusRefunded, esc.Status)
	aliceBal, _ := f.env.State().GetBalance(alice)
	assert.Equal(t, big.NewInt(10_000_000), aliceBal)

	// worker slashed 30%: 700_000 of the 1_000_000 stake returned
	stake, _ := f.stakes.GetStake(bob)
	assert.Equal(t, stakereg.StatusSlashed, stake.Status)
	bobBal, _ := f.env.State().GetBalance(bob)
	assert.Equal(t, big.NewInt(9_700_000), bobBal)

	// debited at a quarter of the reward weight: -25
	score, _ := f.ledger.Get(bob)
	assert.Equal(t, uint64(75), score)
	rec, _ := f.ledger.GetRecord(bob)
	assert.Equal(t, uint64(1), rec.TasksDisputed)
}

func TestCancelTask(t *testing.T) {
	f := newFixture(t, 0)
	id, err := f.market.CreateTask(alice, "render", "render the scene", big.NewInt(1_000_000), 200, 50)
	assert.Nil(t, err)

	err = f.market.CancelTask(bob, id)
	assert.True(t, reverts.IsUnauthorized(err))

	assert.Nil(t, f.market.CancelTask(alice, id))
	task, _ := f.market.GetTask(id)
	assert.Equal(t, StatusCancelled, task.Status)

	esc, _ := f.vault.GetEscrow(id)
	assert.Equal(t, escrow.StatusRefunded, esc.Status)
	bal, _ := f.env.State().GetBalance(alice)
	assert.Equal(t, big.NewInt(10_000_000), bal)

	// terminal: no late acceptance, no second cancel
	err = f.market.AcceptTask(bob, id, big.NewInt(1_000_000))
	assert.True(t, reverts.IsInvalidInput(err))
	err = f.market.CancelTask(alice, id)
	assert.True(t, reverts.IsInvalidInput(err))
}

func TestFinalizeDirectCallRejected(t *testing.T) {
	f := newFixture(t, 5)
	id := f.throughSubmitted(t)
	assert.Nil(t, f.market.RequesterDispute(alice, id))

	// only the resolver settles disputed tasks, even the admin cannot
	err := f.market.FinalizeTask(alice, id, true)
	assert.True(t, reverts.IsUnauthorized(err))
	err = f.market.FinalizeTask(admin, id, true)
	assert.True(t, reverts.IsUnauthorized(err))
}

func TestEscrowConservation(t *testing.T) {
	f := newFixture(t, 5)

	// one settled, one refunded via dispute, one still deposited
	accepted := f.throughSubmitted(t)
	assert.Nil(t, f.market.RequesterAccept(alice, accepted))

	disputed := f.throughSubmitted(t)
	assert.Nil(t, f.market.RequesterDispute(alice, disputed))
	d, _ := f.resolver.GetDisputeByTask(disputed)
	assert.Nil(t, f.resolver.Vote(d.Jurors[0], d.ID, false))
	assert.Nil(t, f.resolver.Vote(d.Jurors[1], d.ID, false))
	assert.Nil(t, f.resolver.Vote(d.Jurors[2], d.ID, false))

	open, err := f.market.CreateTask(alice, "pending", "still open", big.NewInt(500_000), 300, 0)
	assert.Nil(t, err)

	// the vault's running total tracks Deposited records only
	total, _ := f.vault.TotalEscrowed()
	assert.Equal(t, big.NewInt(500_000), total)
	vaultBal, _ := f.env.State().GetBalance(f.vault.Address())
	assert.Equal(t, big.NewInt(500_000), vaultBal)

	esc, _ := f.vault.GetEscrow(open)
	assert.Equal(t, escrow.StatusDeposited, esc.Status)
}
