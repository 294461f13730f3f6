package directives

import (
	"errors"
	"fmt"
)

var (
	// ErrComponentNotFound may be returned by a ComponentStore for unknown ids.
	// The resolver treats it the same as a nil component.
	ErrComponentNotFound = errors.New("directives: component not found")
	// ErrInvalidComponentID is returned by Serialize for ids the directive
	// grammar cannot carry.
	ErrInvalidComponentID = errors.New("directives: invalid component id")
	// ErrInvalidOrder is returned by Serialize for negative orders.
	ErrInvalidOrder = errors.New("directives: invalid component order")
	// ErrMalformedDirective classifies tokens whose payload or order could not
	// be decoded.
	ErrMalformedDirective = errors.New("directives: malformed directive")
)

// MalformedDirectiveError describes one inline token that was recovered during
// parsing. It is reported through diagnostics and logs, never returned from
// Parse.
type MalformedDirectiveError struct {
	ID      string
	Order   string
	Payload string
	Offset  int
	Err     error
}

func (e *MalformedDirectiveError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("directives: malformed directive %q order=%s at offset %d: %v", e.ID, e.Order, e.Offset, e.Err)
}

func (e *MalformedDirectiveError) Unwrap() []error {
	if e == nil {
		return nil
	}
	return []error{ErrMalformedDirective, e.Err}
}
