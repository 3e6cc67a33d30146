// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies a revert. Every failure of a mutating module
// operation carries exactly one kind.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNotFound
	KindUnauthorized
	KindInvalidInput
	KindAlreadyExists
	KindDeadlinePassed
	KindVotingEnded
	KindVotingActive
	KindTimelockActive
	KindInsufficientStake
	KindInsufficientReputation
	KindInsufficientFunds
	KindOverflow
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidInput:
		return "invalid input"
	case KindAlreadyExists:
		return "already exists"
	case KindDeadlinePassed:
		return "deadline passed"
	case KindVotingEnded:
		return "voting ended"
	case KindVotingActive:
		return "voting active"
	case KindTimelockActive:
		return "timelock active"
	case KindInsufficientStake:
		return "insufficient stake"
	case KindInsufficientReputation:
		return "insufficient reputation"
	case KindInsufficientFunds:
		return "insufficient funds"
	case KindOverflow:
		return "overflow"
	default:
		return "unknown"
	}
}

// ErrRevert is the failure of a module operation. The enclosing
// transaction must discard all state changes when it surfaces.
type ErrRevert struct {
	kind    Kind
	message string
}

func New(kind Kind, format string, args ...any) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: fmt.Sprintf(format, args...),
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

// Kind returns the classification of the revert.
func (e *ErrRevert) Kind() Kind {
	return e.kind
}

// IsRevertErr reports whether err is a revert.
func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// KindOf extracts the revert kind of err, KindUnknown if err is not a revert.
func KindOf(err error) Kind {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind
	}
	return KindUnknown
}

func is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func IsNotFound(err error) bool               { return is(err, KindNotFound) }
func IsUnauthorized(err error) bool           { return is(err, KindUnauthorized) }
func IsInvalidInput(err error) bool           { return is(err, KindInvalidInput) }
func IsAlreadyExists(err error) bool          { return is(err, KindAlreadyExists) }
func IsDeadlinePassed(err error) bool         { return is(err, KindDeadlinePassed) }
func IsVotingEnded(err error) bool            { return is(err, KindVotingEnded) }
func IsVotingActive(err error) bool           { return is(err, KindVotingActive) }
func IsTimelockActive(err error) bool         { return is(err, KindTimelockActive) }
func IsInsufficientStake(err error) bool      { return is(err, KindInsufficientStake) }
func IsInsufficientReputation(err error) bool { return is(err, KindInsufficientReputation) }
func IsInsufficientFunds(err error) bool      { return is(err, KindInsufficientFunds) }
func IsOverflow(err error) bool               { return is(err, KindOverflow) }

// Shorthand constructors, one per kind.

func NotFound(format string, args ...any) *ErrRevert {
	return New(KindNotFound, format, args...)
}

func Unauthorized(format string, args ...any) *ErrRevert {
	return New(KindUnauthorized, format, args...)
}

func InvalidInput(format string, args ...any) *ErrRevert {
	return New(KindInvalidInput, format, args...)
}

func AlreadyExists(format string, args ...any) *ErrRevert {
	return New(KindAlreadyExists, format, args...)
}

func DeadlinePassed(format string, args ...any) *ErrRevert {
	return New(KindDeadlinePassed, format, args...)
}

func VotingEnded(format string, args ...any) *ErrRevert {
	return New(KindVotingEnded, format, args...)
}

func VotingActive(format string, args ...any) *ErrRevert {
	return New(KindVotingActive, format, args...)
}

func TimelockActive(format string, args ...any) *ErrRevert {
	return New(KindTimelockActive, format, args...)
}

func InsufficientStake(format string, args ...any) *ErrRevert {
	return New(KindInsufficientStake, format, args...)
}

func InsufficientReputation(format string, args ...any) *ErrRevert {
	return New(KindInsufficientReputation, format, args...)
}

func InsufficientFunds(format string, args ...any) *ErrRevert {
	return New(KindInsufficientFunds, format, args...)
}

func Overflow(format string, args ...any) *ErrRevert {
	return New(KindOverflow, format, args...)
}
