// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dispute

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/agoralabs/agora/agora"
	"github.com/agoralabs/agora/xenv"
)

var (
	slotDisputeCount  = agora.BytesToBytes32([]byte("dispute-count"))
	slotVotingCount   = agora.BytesToBytes32([]byte("voting-count"))
	slotResolvedCount = agora.BytesToBytes32([]byte("resolved-count"))
)

func be64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func disputeKey(id uint64) agora.Bytes32 {
	return agora.Blake2b([]byte("d"), be64(id))
}

func taskLookupKey(taskID uint64) agora.Bytes32 {
	return agora.Blake2b([]byte("t"), be64(taskID))
}

func voteKey(disputeID uint64, juror agora.Address) agora.Bytes32 {
	return agora.Blake2b([]byte("v"), be64(disputeID), juror.Bytes())
}

// taskLookup maps a task to its dispute, distinguishing "no dispute
// ever" from dispute id 0.
type taskLookup struct {
	DisputeID uint64
	Known     bool
}

// storage is the root storage of the dispute resolver.
type storage struct {
	addr agora.Address
	env  *xenv.Environment
}

func newStorage(addr agora.Address, env *xenv.Environment) *storage {
	return &storage{addr, env}
}

func (s *storage) GetDispute(id uint64) (*Dispute, error) {
	var d Dispute
	if err := s.env.State().GetStructuredStorage(s.addr, disputeKey(id), &d); err != nil {
		return nil, errors.Wrap(err, "failed to get dispute")
	}
	return &d, nil
}

func (s *storage) SetDispute(d *Dispute) error {
	if err := s.env.State().SetStructuredStorage(s.addr, disputeKey(d.ID), d); err != nil {
		return errors.Wrap(err, "failed to set dispute")
	}
	return nil
}

func (s *storage) GetTaskLookup(taskID uint64) (*taskLookup, error) {
	var lookup taskLookup
	if err := s.env.State().GetStructuredStorage(s.addr, taskLookupKey(taskID), &lookup); err != nil {
		return nil, errors.Wrap(err, "failed to get task lookup")
	}
	return &lookup, nil
}

func (s *storage) SetTaskLookup(taskID, disputeID uint64) error {
	if err := s.env.State().SetStructuredStorage(s.addr, taskLookupKey(taskID), &taskLookup{disputeID, true}); err != nil {
		return errors.Wrap(err, "failed to set task lookup")
	}
	return nil
}

func (s *storage) GetVote(disputeID uint64, juror agora.Address) (*Vote, error) {
	var v Vote
	if err := s.env.State().GetStructuredStorage(s.addr, voteKey(disputeID, juror), &v); err != nil {
		return nil, errors.Wrap(err, "failed to get vote")
	}
	return &v, nil
}

func (s *storage) SetVote(disputeID uint64, juror agora.Address, v *Vote) error {
	if err := s.env.State().SetStructuredStorage(s.addr, voteKey(disputeID, juror), v); err != nil {
		return errors.Wrap(err, "failed to set vote")
	}
	return nil
}

func (s *storage) getCounter(slot agora.Bytes32) (uint64, error) {
	var count uint64
	if err := s.env.State().GetStructuredStorage(s.addr, slot, &count); err != nil {
		return 0, errors.Wrap(err, "failed to get counter")
	}
	return count, nil
}

func (s *storage) setCounter(slot agora.Bytes32, count uint64) error {
	if err := s.env.State().SetStructuredStorage(s.addr, slot, count); err != nil {
		return errors.Wrap(err, "failed to set counter")
	}
	return nil
}

func (s *storage) GetDisputeCount() (uint64, error)  { return s.getCounter(slotDisputeCount) }
func (s *storage) GetVotingCount() (uint64, error)   { return s.getCounter(slotVotingCount) }
func (s *storage) GetResolvedCount() (uint64, error) { return s.getCounter(slotResolvedCount) }

func (s *storage) IncDisputeCount() error {
	count, err := s.GetDisputeCount()
	if err != nil {
		return err
	}
	return s.setCounter(slotDisputeCount, count+1)
}

func (s *storage) AddVotingCount(delta int64) error {
	count, err := s.GetVotingCount()
	if err != nil {
		return err
	}
	return s.setCounter(slotVotingCount, uint64(int64(count)+delta))
}

func (s *storage) IncResolvedCount() error {
	count, err := s.GetResolvedCount()
	if err != nil {
		return err
	}
	return s.setCounter(slotResolvedCount, count+1)
}
