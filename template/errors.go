package template

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrTemplateNotFound = errors.New("template: not found")
	ErrTemplateInUse    = errors.New("template: in use by pages")
	ErrInvalidTemplate  = errors.New("template: invalid template")
	ErrInvalidNode      = errors.New("template: invalid node")
	ErrDuplicateNode    = errors.New("template: duplicate node name")
	ErrNodeNotFound     = errors.New("template: node not found")
)

// InUseError rejects deletion of a template still referenced by pages.
// PageCount is -1 when the store reported the conflict without a count.
type InUseError struct {
	TemplateID uuid.UUID
	PageCount  int
	Err        error
}

func (e *InUseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.PageCount < 0 {
		return fmt.Sprintf("template: %s is referenced by pages", e.TemplateID)
	}
	return fmt.Sprintf("template: %s is referenced by %d page(s)", e.TemplateID, e.PageCount)
}

func (e *InUseError) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.Err != nil {
		return []error{ErrTemplateInUse, e.Err}
	}
	return []error{ErrTemplateInUse}
}
