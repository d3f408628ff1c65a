package types

import (
	"fmt"
	"strings"
)

// FailureKind classifies why an operation was rejected.
type FailureKind int

const (
	FailUnspecified FailureKind = iota
	FailCooldown
	FailInsufficient
	FailInvalidTarget
	FailInvariant
	FailStatus
	FailPhase
	FailInternal
	FailPersistence
)

func (k FailureKind) String() string {
	switch k {
	case FailCooldown:
		return "cooldown"
	case FailInsufficient:
		return "insufficient"
	case FailInvalidTarget:
		return "invalid_target"
	case FailInvariant:
		return "invariant"
	case FailStatus:
		return "status"
	case FailPhase:
		return "phase"
	case FailInternal:
		return "internal"
	case FailPersistence:
		return "persistence"
	default:
		return "unspecified"
	}
}

// Failure is a rejected operation. The command layer formats it; callers
// branch on Kind, never on Message.
type Failure struct {
	Kind    FailureKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Cause)
	}
	return f.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (f *Failure) Unwrap() error {
	return f.Cause
}

// Is reports whether target is a Failure of the same kind.
func (f *Failure) Is(target error) bool {
	if t, ok := target.(*Failure); ok {
		return f.Kind == t.Kind
	}
	return false
}

// Flag is a structured outcome marker.
type Flag uint32

const (
	FlagLevelUp Flag = 1 << iota
	FlagBreakthroughReady
	FlagRealmAdvanced
	FlagDeviation
	FlagDying
	FlagRevived
	FlagVictory
	FlagDefeat
	FlagOneShot
	FlagProtected
	FlagRulerChanged
	FlagBossSlain
	FlagEquipped
	FlagSettled
	FlagRolledBack
)

// Outcome is the result of one engine operation.
//
// Failure is set when the request was rejected without touching state.
// OK is false with a nil Failure when the action ran but did not succeed
// (a failed breakthrough, a lost duel, a training deviation).
type Outcome struct {
	OK      bool
	Flags   Flag
	Lines   []string
	Failure *Failure
}

// Has reports whether every bit in f is set.
func (o Outcome) Has(f Flag) bool {
	return o.Flags&f == f
}

// Message joins the outcome lines, or returns the failure message.
func (o Outcome) Message() string {
	if o.Failure != nil {
		return o.Failure.Message
	}
	return strings.Join(o.Lines, "\n")
}

// Fail builds a rejected outcome.
func Fail(kind FailureKind, format string, args ...any) Outcome {
	return Outcome{Failure: &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}}
}

// Succeed builds a successful outcome.
func Succeed(flags Flag, lines ...string) Outcome {
	return Outcome{OK: true, Flags: flags, Lines: lines}
}
