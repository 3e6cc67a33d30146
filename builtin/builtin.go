// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package builtin binds the ledger-resident modules to their well-known
// addresses and wires their trust relationships.
package builtin

import (
	"github.com/agoralabs/agora/agora"
	"github.com/agoralabs/agora/builtin/dispute"
	"github.com/agoralabs/agora/builtin/escrow"
	"github.com/agoralabs/agora/builtin/market"
	"github.com/agoralabs/agora/builtin/params"
	"github.com/agoralabs/agora/builtin/reputation"
	"github.com/agoralabs/agora/builtin/stakereg"
	"github.com/agoralabs/agora/xenv"
)

// Well-known module addresses. Fixed for the lifetime of a ledger: the
// per-operation allow-lists compare against these.
var (
	ParamsAddress     = agora.BytesToAddress([]byte("Params"))
	ReputationAddress = agora.BytesToAddress([]byte("Reputation"))
	StakeAddress      = agora.BytesToAddress([]byte("StakeRegistry"))
	EscrowAddress     = agora.BytesToAddress([]byte("EscrowVault"))
	DisputeAddress    = agora.BytesToAddress([]byte("DisputeResolver"))
	MarketAddress     = agora.BytesToAddress([]byte("TaskOrchestrator"))
)

// Agora is the full module set bound to one execution environment.
// Each module holds the addresses of the specific siblings it trusts;
// there is no ambient role hierarchy.
type Agora struct {
	Params     *params.Params
	Reputation *reputation.Reputation
	Stakes     *stakereg.Registry
	Escrow     *escrow.Vault
	Dispute    *dispute.Resolver
	Market     *market.Orchestrator
}

// Wire constructs the module set over env. The dispute resolver's
// finalizer is bound to the orchestrator here, closing the
// resolve-then-finalize loop inside one atomic unit.
func Wire(env *xenv.Environment) *Agora {
	p := params.New(ParamsAddress, env.State())
	vault := escrow.New(EscrowAddress, env, p, MarketAddress, DisputeAddress)
	stakes := stakereg.New(StakeAddress, env, p, MarketAddress, DisputeAddress)
	ledger := reputation.New(ReputationAddress, env, p, MarketAddress, DisputeAddress)
	resolver := dispute.New(DisputeAddress, env, p, stakes, MarketAddress)
	orchestrator := market.New(MarketAddress, env, p, vault, stakes, ledger, resolver)
	resolver.SetFinalizer(orchestrator)

	return &Agora{
		Params:     p,
		Reputation: ledger,
		Stakes:     stakes,
		Escrow:     vault,
		Dispute:    resolver,
		Market:     orchestrator,
	}
}
