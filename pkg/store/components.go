package store

import (
	"context"
	"sort"
	"sync"

	directives "github.com/goliatone/go-directives"
	"github.com/goliatone/go-directives/layering"
)

// Components is an in-memory directives.ComponentStore.
type Components struct {
	mu      sync.RWMutex
	records map[string]directives.Component
}

// NewComponents seeds a store with components.
func NewComponents(components ...directives.Component) *Components {
	s := &Components{records: map[string]directives.Component{}}
	for _, component := range components {
		s.Put(component)
	}
	return s
}

// Put inserts or replaces a component.
func (s *Components) Put(component directives.Component) {
	s.mu.Lock()
	s.records[component.ID] = cloneComponent(component)
	s.mu.Unlock()
}

// GetByID returns a copy of the component or (nil, nil) when unknown.
func (s *Components) GetByID(_ context.Context, id string) (*directives.Component, error) {
	s.mu.RLock()
	component, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	out := cloneComponent(component)
	return &out, nil
}

// ListActive returns active components sorted by id.
func (s *Components) ListActive(_ context.Context) ([]directives.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]directives.Component, 0, len(s.records))
	for _, component := range s.records {
		if component.IsActive {
			out = append(out, cloneComponent(component))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func cloneComponent(component directives.Component) directives.Component {
	component.Content = layering.Clone(component.Content)
	component.Settings = layering.Clone(component.Settings)
	return component
}
