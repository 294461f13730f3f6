package directives

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-directives/layering"
)

// ComponentStore is the catalog of canonical components. GetByID returns
// (nil, nil) or ErrComponentNotFound for unknown ids.
type ComponentStore interface {
	GetByID(ctx context.Context, id string) (*Component, error)
	ListActive(ctx context.Context) ([]Component, error)
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the resolver logger.
func WithResolverLogger(logger Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = loggerOrNop(logger)
	}
}

// WithResolverObserver sets the resolver observer.
func WithResolverObserver(observer Observer) ResolverOption {
	return func(r *Resolver) {
		r.observer = observerOrNop(observer)
	}
}

// Resolver merges component references with their canonical definitions.
type Resolver struct {
	store    ComponentStore
	logger   Logger
	observer Observer
}

// NewResolver builds a resolver over store.
func NewResolver(store ComponentStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:    store,
		logger:   noopLogger{},
		observer: noopObserver{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve returns the merged descriptor for ref, or nil when the component is
// unknown or inactive. Only store failures produce an error.
func (r *Resolver) Resolve(ctx context.Context, ref ComponentReference) (*RenderDescriptor, error) {
	component, err := r.lookup(ctx, ref)
	if err != nil || component == nil {
		return nil, err
	}

	var contentOverride, settingsOverride map[string]any
	if ref.Options != nil {
		contentOverride = ref.Options.Content
		settingsOverride = ref.Options.Settings
	}
	return &RenderDescriptor{
		ID:       ref.ID,
		Order:    ref.Order,
		Type:     component.Type,
		Content:  layering.MergeOverride(component.Content, contentOverride),
		Settings: layering.MergeOverride(component.Settings, settingsOverride),
	}, nil
}

// ResolveAll resolves refs in order, dropping unresolved references. A store
// failure for one reference is logged and that reference dropped; siblings
// are unaffected. Duplicate ids resolve as independent instances.
func (r *Resolver) ResolveAll(ctx context.Context, refs []ComponentReference) []RenderDescriptor {
	out := make([]RenderDescriptor, 0, len(refs))
	for _, ref := range refs {
		if ctx.Err() != nil {
			break
		}
		descriptor, err := r.Resolve(ctx, ref)
		if err != nil {
			r.observer.ReferenceUnresolved(ReasonStoreError)
			r.logger.Warn("component lookup failed",
				"component_id", ref.ID,
				"order", ref.Order,
				"error", err.Error(),
			)
			continue
		}
		if descriptor == nil {
			continue
		}
		out = append(out, *descriptor)
	}
	return out
}

// Explanation reports, per top-level key, whether the page override or the
// canonical component supplied the merged value.
type Explanation struct {
	ID       string                `json:"id"`
	Type     ComponentType         `json:"type"`
	Content  []layering.Provenance `json:"content"`
	Settings []layering.Provenance `json:"settings"`
}

// Explain describes how ref would be merged. It returns nil for unresolved
// references.
func (r *Resolver) Explain(ctx context.Context, ref ComponentReference) (*Explanation, error) {
	component, err := r.lookup(ctx, ref)
	if err != nil || component == nil {
		return nil, err
	}
	var contentOverride, settingsOverride map[string]any
	if ref.Options != nil {
		contentOverride = ref.Options.Content
		settingsOverride = ref.Options.Settings
	}
	return &Explanation{
		ID:       ref.ID,
		Type:     component.Type,
		Content:  layering.Trace(component.Content, contentOverride),
		Settings: layering.Trace(component.Settings, settingsOverride),
	}, nil
}

// PaletteEntry is an active component offered to page editors together with
// the override fields it accepts.
type PaletteEntry struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Type   ComponentType     `json:"type"`
	Fields []FieldDescriptor `json:"fields"`
}

// Palette lists active components sorted by id.
func (r *Resolver) Palette(ctx context.Context) ([]PaletteEntry, error) {
	if r.store == nil {
		return nil, fmt.Errorf("directives: component store is required")
	}
	components, err := r.store.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("directives: list active components: %w", err)
	}
	entries := make([]PaletteEntry, 0, len(components))
	for _, component := range components {
		if !component.IsActive {
			continue
		}
		entries = append(entries, PaletteEntry{
			ID:   component.ID,
			Name: component.Name,
			Type: component.Type,
			Fields: DescribeDescriptor(RenderDescriptor{
				Content:  component.Content,
				Settings: component.Settings,
			}),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

func (r *Resolver) lookup(ctx context.Context, ref ComponentReference) (*Component, error) {
	if r.store == nil {
		return nil, fmt.Errorf("directives: component store is required")
	}
	component, err := r.store.GetByID(ctx, ref.ID)
	if errors.Is(err, ErrComponentNotFound) {
		component, err = nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("directives: get component %q: %w", ref.ID, err)
	}
	if component == nil {
		r.observer.ReferenceUnresolved(ReasonNotFound)
		r.logger.Debug("component reference unresolved", "component_id", ref.ID, "reason", ReasonNotFound)
		return nil, nil
	}
	if !component.IsActive {
		r.observer.ReferenceUnresolved(ReasonInactive)
		r.logger.Debug("component reference unresolved", "component_id", ref.ID, "reason", ReasonInactive)
		return nil, nil
	}
	return component, nil
}
