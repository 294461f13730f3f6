package page

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	directives "github.com/goliatone/go-directives"
	"github.com/goliatone/go-directives/pkg/activity"
	"github.com/goliatone/go-directives/revision"
)

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides uuid.New for new pages.
func WithIDGenerator(next func() uuid.UUID) Option {
	return func(s *Service) {
		if next != nil {
			s.newID = next
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger directives.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithActivity emits page events through emitter.
func WithActivity(emitter *activity.Emitter) Option {
	return func(s *Service) {
		s.activity = emitter
	}
}

// WithEngine enables Render and component edits.
func WithEngine(engine *directives.Engine) Option {
	return func(s *Service) {
		s.engine = engine
	}
}

// Service coordinates page writes with the revision ledger.
type Service struct {
	store    Store
	ledger   *revision.Ledger
	engine   *directives.Engine
	now      func() time.Time
	newID    func() uuid.UUID
	logger   directives.Logger
	activity *activity.Emitter
}

// NewService builds a page service.
func NewService(store Store, ledger *revision.Ledger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		ledger: ledger,
		now:    time.Now,
		newID:  uuid.New,
		logger: directives.NopLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CreateInput describes a new draft page.
type CreateInput struct {
	Slug            string
	Title           string
	Content         string
	Type            Type
	MetaTitle       string
	MetaDescription string
	TemplateID      *uuid.UUID
	IsHomepage      bool
}

// Create stores a draft page and records its first revision.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Page, *revision.Revision, error) {
	slug := strings.TrimSpace(input.Slug)
	if err := ValidateSlug(slug); err != nil {
		return nil, nil, err
	}
	pageType := input.Type
	if pageType == "" {
		pageType = TypePage
	}
	if !pageType.Valid() {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidType, input.Type)
	}
	now := s.now()
	actor := activity.ActorFromContext(ctx)
	p := Page{
		ID:              s.newID(),
		Slug:            slug,
		Title:           input.Title,
		Content:         input.Content,
		Type:            pageType,
		MetaTitle:       input.MetaTitle,
		MetaDescription: input.MetaDescription,
		TemplateID:      input.TemplateID,
		IsHomepage:      input.IsHomepage,
		CreatedBy:       actor,
		UpdatedBy:       actor,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Save(ctx, p); err != nil {
		return nil, nil, fmt.Errorf("page: save %s: %w", p.ID, err)
	}
	rev, err := s.ledger.CreateRevision(ctx, p.ID, p.Snapshot())
	if err != nil {
		if rollbackErr := s.store.Delete(ctx, p.ID); rollbackErr != nil {
			s.logger.Error("page rollback failed", "page_id", p.ID.String(), "error", rollbackErr.Error())
			return nil, nil, errors.Join(err, fmt.Errorf("page: delete %s: %w", p.ID, rollbackErr))
		}
		return nil, nil, err
	}
	out := p.clone()
	return &out, rev, nil
}

// Get loads one page.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Page, error) {
	p, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrPageNotFound) {
		p, err = nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("page: get %s: %w", id, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	return p, nil
}

// ContentUpdate carries the fields to change; nil fields are left as is.
type ContentUpdate struct {
	Title           *string
	Content         *string
	MetaTitle       *string
	MetaDescription *string
}

func (u ContentUpdate) applyTo(snapshot revision.Snapshot) revision.Snapshot {
	if u.Title != nil {
		snapshot.Title = *u.Title
	}
	if u.Content != nil {
		snapshot.Content = *u.Content
	}
	if u.MetaTitle != nil {
		snapshot.MetaTitle = *u.MetaTitle
	}
	if u.MetaDescription != nil {
		snapshot.MetaDescription = *u.MetaDescription
	}
	return snapshot
}

// UpdateContent writes the edit and appends a revision with the new snapshot.
func (s *Service) UpdateContent(ctx context.Context, id uuid.UUID, update ContentUpdate) (*Page, *revision.Revision, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	next := current.clone()
	next.apply(update.applyTo(current.Snapshot()))
	return s.writeSnapshot(ctx, *current, next, func(ctx context.Context) (*revision.Revision, error) {
		return s.ledger.CreateRevision(ctx, id, next.Snapshot())
	})
}

// SaveComponents serializes an edited component set into the page content.
// The prose around the directives is not preserved; the edited list is the
// whole body.
func (s *Service) SaveComponents(ctx context.Context, id uuid.UUID, components []directives.ResolvedComponent) (*Page, *revision.Revision, error) {
	content, err := directives.Serialize(components)
	if err != nil {
		return nil, nil, err
	}
	return s.UpdateContent(ctx, id, ContentUpdate{Content: &content})
}

// RestoreRevision restores revision number through the ledger and writes the
// restored snapshot back to the page.
func (s *Service) RestoreRevision(ctx context.Context, id uuid.UUID, number int) (*Page, *revision.Revision, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	source, err := s.ledger.Get(ctx, id, number)
	if err != nil {
		return nil, nil, err
	}
	next := current.clone()
	next.apply(source.Snapshot)
	return s.writeSnapshot(ctx, *current, next, func(ctx context.Context) (*revision.Revision, error) {
		return s.ledger.Restore(ctx, id, number)
	})
}

// Publish marks the page live and stamps PublishedAt.
func (s *Service) Publish(ctx context.Context, id uuid.UUID) (*Page, error) {
	return s.setPublished(ctx, id, true)
}

// Unpublish takes the page offline and clears PublishedAt.
func (s *Service) Unpublish(ctx context.Context, id uuid.UUID) (*Page, error) {
	return s.setPublished(ctx, id, false)
}

// Render resolves the page content through the engine.
func (s *Service) Render(ctx context.Context, id uuid.UUID) ([]directives.RenderDescriptor, error) {
	if s.engine == nil {
		return nil, ErrNoEngine
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.engine.Render(ctx, p.Content, p.RenderContext())
}

// writeSnapshot saves next and records its revision. When the ledger fails
// the page is put back to previous so content never runs ahead of history.
func (s *Service) writeSnapshot(ctx context.Context, previous, next Page, record func(context.Context) (*revision.Revision, error)) (*Page, *revision.Revision, error) {
	next.UpdatedAt = s.now()
	next.UpdatedBy = activity.ActorFromContext(ctx)
	if err := s.store.Save(ctx, next); err != nil {
		return nil, nil, fmt.Errorf("page: save %s: %w", next.ID, err)
	}
	rev, err := record(ctx)
	if err != nil {
		if rollbackErr := s.store.Save(ctx, previous); rollbackErr != nil {
			s.logger.Error("page rollback failed", "page_id", next.ID.String(), "error", rollbackErr.Error())
			return nil, nil, errors.Join(err, fmt.Errorf("page: restore %s: %w", next.ID, rollbackErr))
		}
		return nil, nil, err
	}
	s.emit(ctx, activity.BuildPageUpdatedEvent(s.eventInput(ctx, next, map[string]any{
		"revision_number": rev.RevisionNumber,
	})))
	out := next.clone()
	return &out, rev, nil
}

func (s *Service) setPublished(ctx context.Context, id uuid.UUID, published bool) (*Page, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := current.clone()
	now := s.now()
	next.Published = published
	if published {
		next.PublishedAt = &now
	} else {
		next.PublishedAt = nil
	}
	next.UpdatedAt = now
	next.UpdatedBy = activity.ActorFromContext(ctx)
	if err := s.store.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("page: save %s: %w", id, err)
	}
	input := s.eventInput(ctx, next, nil)
	if published {
		s.emit(ctx, activity.BuildPagePublishedEvent(input))
	} else {
		s.emit(ctx, activity.BuildPageUnpublishedEvent(input))
	}
	out := next.clone()
	return &out, nil
}

func (s *Service) eventInput(ctx context.Context, p Page, metadata map[string]any) activity.PageEventInput {
	return activity.PageEventInput{
		EventInput: activity.EventInput{
			ActorID:    activity.ActorFromContext(ctx),
			Metadata:   metadata,
			OccurredAt: p.UpdatedAt,
		},
		PageID: p.ID.String(),
		Slug:   p.Slug,
	}
}

func (s *Service) emit(ctx context.Context, event activity.Event) {
	if err := s.activity.Emit(ctx, event); err != nil {
		s.logger.Warn("page activity hook failed", "verb", event.Verb, "object_id", event.ObjectID, "error", err.Error())
	}
}
