package template

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	directives "github.com/goliatone/go-directives"
	"github.com/goliatone/go-directives/pkg/activity"
)

// Store persists templates. ReferencingPages reports how many pages point at
// a template; Delete may itself return ErrTemplateInUse when the store
// enforces the reference check.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*Template, error)
	Save(ctx context.Context, tpl Template) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]Template, error)
	ReferencingPages(ctx context.Context, id uuid.UUID) (int, error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the audit timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithIDGenerator overrides uuid.New for new templates.
func WithIDGenerator(next func() uuid.UUID) Option {
	return func(m *Manager) {
		if next != nil {
			m.newID = next
		}
	}
}

// WithLogger sets the manager logger.
func WithLogger(logger directives.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithActivity emits template lifecycle events through emitter.
func WithActivity(emitter *activity.Emitter) Option {
	return func(m *Manager) {
		m.activity = emitter
	}
}

// Manager applies structure edits to stored templates.
type Manager struct {
	store    Store
	now      func() time.Time
	newID    func() uuid.UUID
	logger   directives.Logger
	activity *activity.Emitter
}

// NewManager builds a manager over store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		now:    time.Now,
		newID:  uuid.New,
		logger: directives.NopLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// CreateInput describes a new template.
type CreateInput struct {
	Name        string
	Description string
	Structure   Structure
	IsActive    bool
}

// Create validates and stores a new template.
func (m *Manager) Create(ctx context.Context, input CreateInput) (*Template, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	if err := input.Structure.Validate(); err != nil {
		return nil, err
	}
	now := m.now()
	actor := activity.ActorFromContext(ctx)
	tpl := Template{
		ID:          m.newID(),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Structure:   input.Structure.clone(),
		IsActive:    input.IsActive,
		CreatedBy:   actor,
		UpdatedBy:   actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.store.Save(ctx, tpl); err != nil {
		return nil, fmt.Errorf("template: save %s: %w", tpl.ID, err)
	}
	m.emit(ctx, activity.BuildTemplateCreatedEvent(m.eventInput(ctx, tpl, "")))
	out := tpl.Clone()
	return &out, nil
}

// Get loads one template.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*Template, error) {
	tpl, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("template: get %s: %w", id, err)
	}
	if tpl == nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return tpl, nil
}

// List returns all templates.
func (m *Manager) List(ctx context.Context) ([]Template, error) {
	templates, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("template: list: %w", err)
	}
	return templates, nil
}

// AppendNode adds node at the end of the structure.
func (m *Manager) AppendNode(ctx context.Context, id uuid.UUID, node Node) (*Template, error) {
	return m.update(ctx, id, "append:"+node.Name, func(tpl *Template) error {
		structure, err := tpl.Structure.Append(node)
		if err != nil {
			return err
		}
		tpl.Structure = structure
		return nil
	})
}

// MoveNode moves the node at from to position to.
func (m *Manager) MoveNode(ctx context.Context, id uuid.UUID, from, to int) (*Template, error) {
	return m.update(ctx, id, fmt.Sprintf("move:%d:%d", from, to), func(tpl *Template) error {
		structure, err := tpl.Structure.Move(from, to)
		if err != nil {
			return err
		}
		tpl.Structure = structure
		return nil
	})
}

// RemoveNode drops the node at index.
func (m *Manager) RemoveNode(ctx context.Context, id uuid.UUID, index int) (*Template, error) {
	return m.update(ctx, id, fmt.Sprintf("remove:%d", index), func(tpl *Template) error {
		structure, err := tpl.Structure.Remove(index)
		if err != nil {
			return err
		}
		tpl.Structure = structure
		return nil
	})
}

// ToggleActive flips the template isActive flag.
func (m *Manager) ToggleActive(ctx context.Context, id uuid.UUID) (*Template, error) {
	return m.update(ctx, id, "toggle_active", func(tpl *Template) error {
		tpl.IsActive = !tpl.IsActive
		return nil
	})
}

// Delete removes a template that no page references. A referenced template
// is rejected with *InUseError, which matches ErrTemplateInUse.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	tpl, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	count, err := m.store.ReferencingPages(ctx, id)
	if err != nil {
		return fmt.Errorf("template: count references for %s: %w", id, err)
	}
	if count > 0 {
		return &InUseError{TemplateID: id, PageCount: count}
	}
	if err := m.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrTemplateInUse) {
			var inUse *InUseError
			if errors.As(err, &inUse) {
				return inUse
			}
			return &InUseError{TemplateID: id, PageCount: -1, Err: err}
		}
		return fmt.Errorf("template: delete %s: %w", id, err)
	}
	m.emit(ctx, activity.BuildTemplateDeletedEvent(m.eventInput(ctx, *tpl, "")))
	return nil
}

func (m *Manager) update(ctx context.Context, id uuid.UUID, change string, fn func(*Template) error) (*Template, error) {
	current, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	if err := fn(&next); err != nil {
		return nil, err
	}
	next.UpdatedAt = m.now()
	next.UpdatedBy = activity.ActorFromContext(ctx)
	if err := m.store.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("template: save %s: %w", id, err)
	}
	m.emit(ctx, activity.BuildTemplateUpdatedEvent(m.eventInput(ctx, next, change)))
	out := next.Clone()
	return &out, nil
}

func (m *Manager) eventInput(ctx context.Context, tpl Template, change string) activity.TemplateEventInput {
	return activity.TemplateEventInput{
		EventInput: activity.EventInput{
			ActorID:    activity.ActorFromContext(ctx),
			OccurredAt: m.now(),
		},
		TemplateID: tpl.ID.String(),
		Name:       tpl.Name,
		Change:     change,
	}
}

// emit reports hook failures through the logger; the write already succeeded.
func (m *Manager) emit(ctx context.Context, event activity.Event) {
	if err := m.activity.Emit(ctx, event); err != nil {
		m.logger.Warn("template activity hook failed", "verb", event.Verb, "object_id", event.ObjectID, "error", err.Error())
	}
}
