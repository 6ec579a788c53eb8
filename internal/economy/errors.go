package economy

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks invalid construction inputs: bad supply parameters,
	// empty or duplicate names, negative investments, margins or budgets.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrOrdering marks a call made out of round-phase order, such as reading a
	// product's cost before its demand has been pushed to the materials.
	ErrOrdering = errors.New("round phase ordering violation")

	// ErrOverdraft marks a step that would spend more than is available:
	// capital for investments, stock for sales.
	ErrOverdraft = errors.New("overdraft")
)

// Error carries the entity and offending value behind a failed operation.
type Error struct {
	Op     string
	Entity string
	Value  any
	Err    error
}

func (e *Error) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Err)
	}
	return fmt.Sprintf("%s %s (%v): %v", e.Op, e.Entity, e.Value, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func configErr(op, entity string, value any, reason string) error {
	return &Error{Op: op, Entity: entity, Value: value, Err: fmt.Errorf("%w: %s", ErrConfiguration, reason)}
}

func orderingErr(op, entity string, reason string) error {
	return &Error{Op: op, Entity: entity, Err: fmt.Errorf("%w: %s", ErrOrdering, reason)}
}

func overdraftErr(op, entity string, value any, reason string) error {
	return &Error{Op: op, Entity: entity, Value: value, Err: fmt.Errorf("%w: %s", ErrOverdraft, reason)}
}
