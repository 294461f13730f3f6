package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-directives/template"
)

// Templates is an in-memory template.Store. Reference counts come from the
// page store it was built with.
type Templates struct {
	mu      sync.RWMutex
	records map[uuid.UUID]template.Template
	pages   *Pages
}

// NewTemplates builds a template store. pages may be nil, in which case no
// template is ever referenced.
func NewTemplates(pages *Pages) *Templates {
	return &Templates{records: map[uuid.UUID]template.Template{}, pages: pages}
}

// Get returns (nil, nil) for unknown ids.
func (s *Templates) Get(_ context.Context, id uuid.UUID) (*template.Template, error) {
	s.mu.RLock()
	tpl, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	out := tpl.Clone()
	return &out, nil
}

// Save inserts or replaces tpl.
func (s *Templates) Save(_ context.Context, tpl template.Template) error {
	s.mu.Lock()
	s.records[tpl.ID] = tpl.Clone()
	s.mu.Unlock()
	return nil
}

// Delete removes id. A referenced template is rejected with
// *template.InUseError.
func (s *Templates) Delete(ctx context.Context, id uuid.UUID) error {
	count, _ := s.ReferencingPages(ctx, id)
	if count > 0 {
		return &template.InUseError{TemplateID: id, PageCount: count}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("%w: %s", template.ErrTemplateNotFound, id)
	}
	delete(s.records, id)
	return nil
}

// List returns templates sorted by name.
func (s *Templates) List(_ context.Context) ([]template.Template, error) {
	s.mu.RLock()
	out := make([]template.Template, 0, len(s.records))
	for _, tpl := range s.records {
		out = append(out, tpl.Clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ReferencingPages counts pages whose TemplateID is id.
func (s *Templates) ReferencingPages(_ context.Context, id uuid.UUID) (int, error) {
	if s.pages == nil {
		return 0, nil
	}
	return s.pages.countTemplate(id), nil
}
