// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package market

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/agoralabs/agora/agora"
	"github.com/agoralabs/agora/xenv"
)

var slotTaskCount = agora.BytesToBytes32([]byte("task-count"))

func taskKey(id uint64) agora.Bytes32 {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], id)
	return agora.Blake2b([]byte("t"), b[:])
}

// storage is the root storage of the task orchestrator.
type storage struct {
	addr agora.Address
	env  *xenv.Environment
}

func newStorage(addr agora.Address, env *xenv.Environment) *storage {
	return &storage{addr, env}
}

func (s *storage) GetTask(id uint64) (*Task, error) {
	var t Task
	if err := s.env.State().GetStructuredStorage(s.addr, taskKey(id), &t); err != nil {
		return nil, errors.Wrap(err, "failed to get task")
	}
	return &t, nil
}

func (s *storage) SetTask(t *Task) error {
	if err := s.env.State().SetStructuredStorage(s.addr, taskKey(t.ID), t); err != nil {
		return errors.Wrap(err, "failed to set task")
	}
	return nil
}

func (s *storage) GetTaskCount() (uint64, error) {
	var count uint64
	if err := s.env.State().GetStructuredStorage(s.addr, slotTaskCount, &count); err != nil {
		return 0, errors.Wrap(err, "failed to get task count")
	}
	return count, nil
}

func (s *storage) IncTaskCount() error {
	count, err := s.GetTaskCount()
	if err != nil {
		return err
	}
	if err := s.env.State().SetStructuredStorage(s.addr, slotTaskCount, count+1); err != nil {
		return errors.Wrap(err, "failed to set task count")
	}
	return nil
}
