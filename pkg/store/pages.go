package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-directives/page"
)

// Pages is an in-memory page.Store. Save rejects a slug owned by another
// page and a second homepage.
type Pages struct {
	mu      sync.RWMutex
	records map[uuid.UUID]page.Page
}

// NewPages builds an empty page store.
func NewPages() *Pages {
	return &Pages{records: map[uuid.UUID]page.Page{}}
}

// Get returns (nil, nil) for unknown ids.
func (s *Pages) Get(_ context.Context, id uuid.UUID) (*page.Page, error) {
	s.mu.RLock()
	p, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// GetBySlug returns (nil, nil) when no page owns slug.
func (s *Pages) GetBySlug(_ context.Context, slug string) (*page.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.records {
		if p.Slug == slug {
			out := p
			return &out, nil
		}
	}
	return nil, nil
}

// Save inserts or replaces p.
func (s *Pages) Save(_ context.Context, p page.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.records {
		if id == p.ID {
			continue
		}
		if existing.Slug == p.Slug {
			return fmt.Errorf("%w: %q", page.ErrSlugTaken, p.Slug)
		}
		if p.IsHomepage && existing.IsHomepage {
			return fmt.Errorf("%w: %s", page.ErrHomepageTaken, existing.ID)
		}
	}
	s.records[p.ID] = p
	return nil
}

// Delete removes id. Unknown ids are not an error.
func (s *Pages) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	delete(s.records, id)
	s.mu.Unlock()
	return nil
}

// List returns pages sorted by slug.
func (s *Pages) List(_ context.Context) ([]page.Page, error) {
	s.mu.RLock()
	out := make([]page.Page, 0, len(s.records))
	for _, p := range s.records {
		out = append(out, p)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (s *Pages) countTemplate(id uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, p := range s.records {
		if p.TemplateID != nil && *p.TemplateID == id {
			count++
		}
	}
	return count
}
