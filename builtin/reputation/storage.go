// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reputation

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/agoralabs/agora/agora"
	"github.com/agoralabs/agora/xenv"
)

var (
	slotTotalScore = agora.BytesToBytes32([]byte("total-score"))
	slotIndex      = agora.BytesToBytes32([]byte("record-index"))
)

func recordKey(user agora.Address) agora.Bytes32 {
	return agora.Blake2b([]byte("r"), user.Bytes())
}

func historyKey(user agora.Address) agora.Bytes32 {
	return agora.Blake2b([]byte("h"), user.Bytes())
}

func delegationKey(delegator, delegatee agora.Address) agora.Bytes32 {
	return agora.Blake2b([]byte("d"), delegator.Bytes(), delegatee.Bytes())
}

func delegatedOutKey(delegator agora.Address) agora.Bytes32 {
	return agora.Blake2b([]byte("do"), delegator.Bytes())
}

// storage is the root storage of the reputation module.
type storage struct {
	addr agora.Address
	env  *xenv.Environment
}

func newStorage(addr agora.Address, env *xenv.Environment) *storage {
	return &storage{addr, env}
}

func (s *storage) GetRecord(user agora.Address) (*Record, error) {
	var rec Record
	if err := s.env.State().GetStructuredStorage(s.addr, recordKey(user), &rec); err != nil {
		return nil, errors.Wrap(err, "failed to get reputation record")
	}
	return &rec, nil
}

func (s *storage) SetRecord(user agora.Address, rec *Record) error {
	if err := s.env.State().SetStructuredStorage(s.addr, recordKey(user), rec); err != nil {
		return errors.Wrap(err, "failed to set reputation record")
	}
	return nil
}

func (s *storage) GetHistory(user agora.Address) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	if err := s.env.State().GetStructuredStorage(s.addr, historyKey(user), &entries); err != nil {
		return nil, errors.Wrap(err, "failed to get reputation history")
	}
	return entries, nil
}

// AppendHistory appends one delta record, dropping the oldest entry
// once the retention cap is reached.
func (s *storage) AppendHistory(user agora.Address, entry HistoryEntry) error {
	entries, err := s.GetHistory(user)
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	if len(entries) > agora.MaxReputationHistory {
		entries = entries[len(entries)-agora.MaxReputationHistory:]
	}
	if err := s.env.State().SetStructuredStorage(s.addr, historyKey(user), entries); err != nil {
		return errors.Wrap(err, "failed to set reputation history")
	}
	return nil
}

func (s *storage) GetDelegation(delegator, delegatee agora.Address) (uint64, error) {
	var amount uint64
	if err := s.env.State().GetStructuredStorage(s.addr, delegationKey(delegator, delegatee), &amount); err != nil {
		return 0, errors.Wrap(err, "failed to get delegation")
	}
	return amount, nil
}

func (s *storage) SetDelegation(delegator, delegatee agora.Address, amount uint64) error {
	if err := s.env.State().SetStructuredStorage(s.addr, delegationKey(delegator, delegatee), amount); err != nil {
		return errors.Wrap(err, "failed to set delegation")
	}
	return nil
}

func (s *storage) GetDelegatedOut(delegator agora.Address) (uint64, error) {
	var amount uint64
	if err := s.env.State().GetStructuredStorage(s.addr, delegatedOutKey(delegator), &amount); err != nil {
		return 0, errors.Wrap(err, "failed to get delegated total")
	}
	return amount, nil
}

func (s *storage) SetDelegatedOut(delegator agora.Address, amount uint64) error {
	if err := s.env.State().SetStructuredStorage(s.addr, delegatedOutKey(delegator), amount); err != nil {
		return errors.Wrap(err, "failed to set delegated total")
	}
	return nil
}

func (s *storage) GetIndex() ([]agora.Address, error) {
	var index []agora.Address
	if err := s.env.State().GetStructuredStorage(s.addr, slotIndex, &index); err != nil {
		return nil, errors.Wrap(err, "failed to get record index")
	}
	return index, nil
}

func (s *storage) AppendIndex(user agora.Address) error {
	index, err := s.GetIndex()
	if err != nil {
		return err
	}
	index = append(index, user)
	if err := s.env.State().SetStructuredStorage(s.addr, slotIndex, index); err != nil {
		return errors.Wrap(err, "failed to set record index")
	}
	return nil
}

func (s *storage) GetTotalScore() (*big.Int, error) {
	var total big.Int
	if err := s.env.State().GetStructuredStorage(s.addr, slotTotalScore, &total); err != nil {
		return nil, errors.Wrap(err, "failed to get total score")
	}
	return &total, nil
}

func (s *storage) AddTotalScore(delta int64) error {
	total, err := s.GetTotalScore()
	if err != nil {
		return err
	}
	total.Add(total, big.NewInt(delta))
	if err := s.env.State().SetStructuredStorage(s.addr, slotTotalScore, total); err != nil {
		return errors.Wrap(err, "failed to set total score")
	}
	return nil
}
