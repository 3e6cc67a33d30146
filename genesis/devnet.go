// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"

	"github.com/agoralabs/agora/agora"
	"github.com/agoralabs/agora/state"
)

// DevAccounts returns the pre-funded accounts of the development
// genesis. The first one doubles as the executor.
func DevAccounts() []agora.Address {
	return []agora.Address{
		agora.MustParseAddress("0xf077b491b355e64048ce21e3a6fc4751eeea77fa"),
		agora.MustParseAddress("0x435933c8064b4ae76be665428e0307ef2ccfbd68"),
		agora.MustParseAddress("0x0f872421dc479f3c11edd89512731814d0598db5"),
		agora.MustParseAddress("0xf370940abdbd7d5ef72dcc4da2e1c01090959cf9"),
		agora.MustParseAddress("0x99602e4bbc0503b8ff4432bb1857f916c3653b85"),
		agora.MustParseAddress("0x61e7d0c2b25706be3485980f39a3a994a8207acf"),
		agora.MustParseAddress("0x361277d1b27504f36a3b33d3a52d1f8270331b8c"),
		agora.MustParseAddress("0xd7f75a0a1287ab2916848909c8531a0ea9412800"),
		agora.MustParseAddress("0xabef6032b9176c186f6bf984f548bda53349f70a"),
		agora.MustParseAddress("0x865306084235bf804c8bba8a8d56890940ca8f0b"),
	}
}

var devBalance = new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1e9))

// NewDevnet creates the development genesis: ten funded accounts,
// default parameters, the first account as executor.
func NewDevnet() *Genesis {
	accounts := DevAccounts()
	return &Genesis{
		id: "devnet",
		seedState: func(st *state.State) error {
			for _, addr := range accounts {
				if err := st.SetBalance(addr, devBalance); err != nil {
					return err
				}
			}
			return seedParams(st, &paramsConfig{executor: accounts[0]})
		},
	}
}
