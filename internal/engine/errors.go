package engine

import (
	"errors"
	"fmt"
)

var (
	ErrGameOver        = errors.New("game is over")
	ErrReentrant       = errors.New("year already being processed")
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// ConfigurationError reports missing or invalid level/event content. The engine degrades to
// defaults or skips the offending entry.
type ConfigurationError struct {
	Source string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("configuration %s: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// MalformedEffectError reports one effect term that could not be applied.
type MalformedEffectError struct {
	Event  string
	Term   string
	Reason string
}

func (e *MalformedEffectError) Error() string {
	if e.Event == "" {
		return fmt.Sprintf("effect term %q: %s", e.Term, e.Reason)
	}
	return fmt.Sprintf("event %q effect term %q: %s", e.Event, e.Term, e.Reason)
}

// ConditionEvaluationError reports a trigger condition that could not be parsed or evaluated.
// The event is treated as not triggered.
type ConditionEvaluationError struct {
	Expr string
	Pos  int
	Err  error
}

func (e *ConditionEvaluationError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("condition %q at %d: %v", e.Expr, e.Pos, e.Err)
	}
	return fmt.Sprintf("condition %q: %v", e.Expr, e.Err)
}

func (e *ConditionEvaluationError) Unwrap() error { return e.Err }

// InvariantViolation describes an attribute observed outside its range before clamping.
// It is only ever logged at debug level.
type InvariantViolation struct {
	Year  int
	Stage string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("year %d: attributes out of range after %s", e.Year, e.Stage)
}
