// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakereg

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/agoralabs/agora/agora"
	"github.com/agoralabs/agora/xenv"
)

var (
	slotTotalStaked  = agora.BytesToBytes32([]byte("total-staked"))
	slotActiveSet    = agora.BytesToBytes32([]byte("active-stakers"))
	slotSlashHistory = agora.BytesToBytes32([]byte("slash-history"))
)

func stakeKey(owner agora.Address) agora.Bytes32 {
	return agora.Blake2b([]byte("s"), owner.Bytes())
}

// storage is the root storage of the stake registry.
type storage struct {
	addr agora.Address
	env  *xenv.Environment
}

func newStorage(addr agora.Address, env *xenv.Environment) *storage {
	return &storage{addr, env}
}

func (s *storage) GetStake(owner agora.Address) (*Stake, error) {
	var stake Stake
	if err := s.env.State().GetStructuredStorage(s.addr, stakeKey(owner), &stake); err != nil {
		return nil, errors.Wrap(err, "failed to get stake")
	}
	return &stake, nil
}

func (s *storage) SetStake(owner agora.Address, stake *Stake) error {
	if err := s.env.State().SetStructuredStorage(s.addr, stakeKey(owner), stake); err != nil {
		return errors.Wrap(err, "failed to set stake")
	}
	return nil
}

func (s *storage) GetTotalStaked() (*big.Int, error) {
	var total big.Int
	if err := s.env.State().GetStructuredStorage(s.addr, slotTotalStaked, &total); err != nil {
		return nil, errors.Wrap(err, "failed to get total staked")
	}
	return &total, nil
}

func (s *storage) AddTotalStaked(delta *big.Int) error {
	total, err := s.GetTotalStaked()
	if err != nil {
		return err
	}
	total.Add(total, delta)
	if err := s.env.State().SetStructuredStorage(s.addr, slotTotalStaked, total); err != nil {
		return errors.Wrap(err, "failed to set total staked")
	}
	return nil
}

// GetActiveSet returns the juror-eligible stakers in insertion order.
// The order is part of consensus: juror selection indexes into it.
func (s *storage) GetActiveSet() ([]agora.Address, error) {
	var set []agora.Address
	if err := s.env.State().GetStructuredStorage(s.addr, slotActiveSet, &set); err != nil {
		return nil, errors.Wrap(err, "failed to get active set")
	}
	return set, nil
}

func (s *storage) setActiveSet(set []agora.Address) error {
	if err := s.env.State().SetStructuredStorage(s.addr, slotActiveSet, set); err != nil {
		return errors.Wrap(err, "failed to set active set")
	}
	return nil
}

// AddActiveStaker appends the staker to the active set. At capacity the
// add is silently skipped: the stake itself still counts, the staker is
// just not juror-eligible. Preserved capacity limitation, not a failure.
func (s *storage) AddActiveStaker(staker agora.Address) (bool, error) {
	set, err := s.GetActiveSet()
	if err != nil {
		return false, err
	}
	for _, a := range set {
		if a == staker {
			return true, nil
		}
	}
	if len(set) >= agora.MaxActiveStakers {
		return false, nil
	}
	return true, s.setActiveSet(append(set, staker))
}

func (s *storage) RemoveActiveStaker(staker agora.Address) error {
	set, err := s.GetActiveSet()
	if err != nil {
		return err
	}
	for i, a := range set {
		if a == staker {
			return s.setActiveSet(append(set[:i:i], set[i+1:]...))
		}
	}
	return nil
}

func (s *storage) GetSlashHistory() ([]SlashRecord, error) {
	var records []SlashRecord
	if err := s.env.State().GetStructuredStorage(s.addr, slotSlashHistory, &records); err != nil {
		return nil, errors.Wrap(err, "failed to get slash history")
	}
	return records, nil
}

// AppendSlashHistory appends one record, dropping the oldest once the
// retention cap is reached.
func (s *storage) AppendSlashHistory(record SlashRecord) error {
	records, err := s.GetSlashHistory()
	if err != nil {
		return err
	}
	records = append(records, record)
	if len(records) > agora.MaxSlashHistory {
		records = records[len(records)-agora.MaxSlashHistory:]
	}
	if err := s.env.State().SetStructuredStorage(s.addr, slotSlashHistory, records); err != nil {
		return errors.Wrap(err, "failed to set slash history")
	}
	return nil
}
