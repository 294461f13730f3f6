// Package revision keeps an append-only history of page content snapshots.
// Restoring an old revision writes a new one; stored revisions are never
// rewritten or deleted.
package revision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrRevisionNotFound is matched by *NotFoundError.
	ErrRevisionNotFound = errors.New("revision: not found")
	// ErrRevisionExists is returned by a Store when (PageID, RevisionNumber)
	// is already taken.
	ErrRevisionExists = errors.New("revision: revision number already exists")
	// ErrConflict is returned when every write attempt lost the race.
	ErrConflict = errors.New("revision: concurrent writers exhausted retries")
)

// Snapshot is the versioned part of a page.
type Snapshot struct {
	Title           string `json:"title"`
	Content         string `json:"content"`
	MetaTitle       string `json:"metaTitle,omitempty"`
	MetaDescription string `json:"metaDescription,omitempty"`
}

// Revision is one immutable entry in a page history.
type Revision struct {
	ID             uuid.UUID  `json:"id"`
	PageID         uuid.UUID  `json:"pageId"`
	RevisionNumber int        `json:"revisionNumber"`
	Snapshot       Snapshot   `json:"snapshot"`
	CreatedAt      time.Time  `json:"createdAt"`
	CreatedBy      string     `json:"createdBy,omitempty"`
	RestoredAt     *time.Time `json:"restoredAt,omitempty"`
	RestoredBy     string     `json:"restoredBy,omitempty"`
	RestoredFrom   int        `json:"restoredFrom,omitempty"`
}

// Restored reports whether r was produced by a restore.
func (r Revision) Restored() bool {
	return r.RestoredAt != nil
}

// NotFoundError identifies a missing revision.
type NotFoundError struct {
	PageID         uuid.UUID
	RevisionNumber int
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("revision: page %s has no revision %d", e.PageID, e.RevisionNumber)
}

func (e *NotFoundError) Unwrap() error {
	return ErrRevisionNotFound
}

// Store persists revisions. MaxRevisionNumber returns 0 for a page without
// history. Get returns (nil, nil) for unknown revisions. Insert must reject a
// duplicate (PageID, RevisionNumber) with ErrRevisionExists.
type Store interface {
	MaxRevisionNumber(ctx context.Context, pageID uuid.UUID) (int, error)
	Insert(ctx context.Context, rev Revision) error
	Get(ctx context.Context, pageID uuid.UUID, number int) (*Revision, error)
	List(ctx context.Context, pageID uuid.UUID) ([]Revision, error)
}
