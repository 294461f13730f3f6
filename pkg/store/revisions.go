package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-directives/revision"
)

type revisionKey struct {
	page   uuid.UUID
	number int
}

// Revisions is an in-memory revision.Store. Insert enforces the unique
// (page, revision number) pair.
type Revisions struct {
	mu      sync.RWMutex
	records map[revisionKey]revision.Revision
}

// NewRevisions builds an empty revision store.
func NewRevisions() *Revisions {
	return &Revisions{records: map[revisionKey]revision.Revision{}}
}

// MaxRevisionNumber returns 0 for a page without history.
func (s *Revisions) MaxRevisionNumber(_ context.Context, pageID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := 0
	for key := range s.records {
		if key.page == pageID && key.number > latest {
			latest = key.number
		}
	}
	return latest, nil
}

// Insert stores rev or returns revision.ErrRevisionExists.
func (s *Revisions) Insert(_ context.Context, rev revision.Revision) error {
	key := revisionKey{page: rev.PageID, number: rev.RevisionNumber}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; ok {
		return fmt.Errorf("%w: %s#%d", revision.ErrRevisionExists, rev.PageID, rev.RevisionNumber)
	}
	s.records[key] = cloneRevision(rev)
	return nil
}

// Get returns (nil, nil) for unknown revisions.
func (s *Revisions) Get(_ context.Context, pageID uuid.UUID, number int) (*revision.Revision, error) {
	s.mu.RLock()
	rev, ok := s.records[revisionKey{page: pageID, number: number}]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	out := cloneRevision(rev)
	return &out, nil
}

// List returns the page history ordered by revision number.
func (s *Revisions) List(_ context.Context, pageID uuid.UUID) ([]revision.Revision, error) {
	s.mu.RLock()
	out := make([]revision.Revision, 0)
	for key, rev := range s.records {
		if key.page == pageID {
			out = append(out, cloneRevision(rev))
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].RevisionNumber < out[j].RevisionNumber })
	return out, nil
}

func cloneRevision(rev revision.Revision) revision.Revision {
	if rev.RestoredAt != nil {
		at := *rev.RestoredAt
		rev.RestoredAt = &at
	}
	return rev
}
