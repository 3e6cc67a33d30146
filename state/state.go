// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/agoralabs/agora/agora"
	"github.com/agoralabs/agora/kv"
	"github.com/agoralabs/agora/stackedmap"
)

// State manages the main accounts trie of the ledger: balances plus
// per-module structured storage. All writes go through a stackedmap
// journal, so a whole operation can be reverted to a checkpoint taken
// at its entry. Nothing touches the backing store until Commit.
type State struct {
	store kv.Store // may be nil, then the state is purely in-memory
	sm    *stackedmap.StackedMap
	err   error // first error occurred when loading from the store
}

type (
	balanceKey agora.Address
	storageKey struct {
		addr agora.Address
		key  agora.Bytes32
	}
)

func balanceStoreKey(addr agora.Address) []byte {
	return append([]byte("b"), addr.Bytes()...)
}

func storageStoreKey(addr agora.Address, key agora.Bytes32) []byte {
	k := append([]byte("s"), addr.Bytes()...)
	return append(k, key.Bytes()...)
}

// New creates a state object backed by the given store.
// A nil store gives an empty in-memory state.
func New(store kv.Store) *State {
	state := &State{store: store}
	state.sm = stackedmap.New(func(key interface{}) (interface{}, bool) {
		return state.loadStoreValue(key)
	})
	// the bottom layer snapshots the store contents, it is never popped
	state.sm.Push()
	return state
}

// loadStoreValue loads the backing-store value for the given journal key.
// Missing entries synthesize defaults, which keeps absent records
// indistinguishable from zero-valued ones at this layer.
func (s *State) loadStoreValue(key interface{}) (interface{}, bool) {
	switch k := key.(type) {
	case balanceKey:
		if s.store == nil {
			return &big.Int{}, true
		}
		data, err := s.store.Get(balanceStoreKey(agora.Address(k)))
		if err != nil {
			if !s.store.IsNotFound(err) {
				s.setError(errors.Wrap(err, "load balance"))
			}
			return &big.Int{}, true
		}
		return new(big.Int).SetBytes(data), true
	case storageKey:
		if s.store == nil {
			return []byte(nil), true
		}
		data, err := s.store.Get(storageStoreKey(k.addr, k.key))
		if err != nil {
			if !s.store.IsNotFound(err) {
				s.setError(errors.Wrap(err, "load storage"))
			}
			return []byte(nil), true
		}
		return data, true
	}
	return nil, false
}

func (s *State) setError(err error) {
	if s.err == nil {
		s.err = err
	}
}

// Err returns the first error occurred when loading from the backing store.
func (s *State) Err() error {
	return s.err
}

// GetBalance returns balance of the given account.
func (s *State) GetBalance(addr agora.Address) (*big.Int, error) {
	v, _ := s.sm.Get(balanceKey(addr))
	if s.err != nil {
		return nil, s.err
	}
	return v.(*big.Int), nil
}

// SetBalance sets balance of the given account.
// Negative balances are rejected, non-negativity is a ledger invariant.
func (s *State) SetBalance(addr agora.Address, balance *big.Int) error {
	if balance.Sign() < 0 {
		return errors.New("negative balance")
	}
	s.sm.Put(balanceKey(addr), new(big.Int).Set(balance))
	return nil
}

// GetRawStorage returns the raw storage value of the given module slot.
func (s *State) GetRawStorage(addr agora.Address, key agora.Bytes32) ([]byte, error) {
	v, _ := s.sm.Get(storageKey{addr, key})
	if s.err != nil {
		return nil, s.err
	}
	return v.([]byte), nil
}

// SetRawStorage sets the raw storage value of the given module slot.
func (s *State) SetRawStorage(addr agora.Address, key agora.Bytes32, raw []byte) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// GetStructuredStorage decodes the stored value into val.
// An absent slot leaves val untouched, so callers see the zero value,
// matching the default-on-read semantics of the source environment.
func (s *State) GetStructuredStorage(addr agora.Address, key agora.Bytes32, val interface{}) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	if err := rlp.DecodeBytes(raw, val); err != nil {
		return errors.Wrap(err, "decode storage")
	}
	return nil
}

// SetStructuredStorage encodes val and stores it at the given slot.
func (s *State) SetStructuredStorage(addr agora.Address, key agora.Bytes32, val interface{}) error {
	raw, err := rlp.EncodeToBytes(val)
	if err != nil {
		return errors.Wrap(err, "encode storage")
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo reverts state to the given revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Commit flushes all journaled writes into the backing store in one batch.
// It is a no-op for in-memory states.
func (s *State) Commit() error {
	if s.err != nil {
		return s.err
	}
	if s.store == nil {
		return nil
	}
	batch := s.store.NewBatch()
	for _, entry := range s.sm.Journal() {
		switch k := entry.Key.(type) {
		case balanceKey:
			if err := batch.Put(balanceStoreKey(agora.Address(k)), entry.Value.(*big.Int).Bytes()); err != nil {
				return err
			}
		case storageKey:
			if err := batch.Put(storageStoreKey(k.addr, k.key), entry.Value.([]byte)); err != nil {
				return err
			}
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "commit state")
	}
	return nil
}
