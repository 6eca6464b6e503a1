package util

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingField        = errors.New("missing required field")
	ErrUnsupportedStepKind = errors.New("unsupported step kind")
	ErrLookup              = errors.New("characterization task lookup failed")
)

// MissingFieldError reports a step or droplet record without a field the
// builders depend on.
type MissingFieldError struct {
	Record string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s: %q", ErrMissingField, e.Record, e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

type UnsupportedStepKindError struct {
	Kind string
}

func (e *UnsupportedStepKindError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnsupportedStepKind, e.Kind)
}

func (e *UnsupportedStepKindError) Unwrap() error { return ErrUnsupportedStepKind }

// LookupError is returned when a characterization output cannot be tied to
// exactly one characterization task. Matches holds the step ids that matched.
type LookupError struct {
	Name    string
	Matches []int
}

func (e *LookupError) Error() string {
	if len(e.Matches) == 0 {
		return fmt.Sprintf("%s: no task named %q", ErrLookup, e.Name)
	}
	ids := make([]string, 0, len(e.Matches))
	for _, id := range e.Matches {
		ids = append(ids, fmt.Sprint(id))
	}
	return fmt.Sprintf("%s: %q matches steps %s", ErrLookup, e.Name, strings.Join(ids, ","))
}

func (e *LookupError) Unwrap() error { return ErrLookup }
