package revision

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	directives "github.com/goliatone/go-directives"
	"github.com/goliatone/go-directives/pkg/activity"
)

// DefaultMaxAttempts bounds the read-max-then-insert loop.
const DefaultMaxAttempts = 3

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithMaxAttempts sets how many times CreateRevision retries after losing a
// revision number to a concurrent writer.
func WithMaxAttempts(attempts int) Option {
	return func(l *Ledger) {
		if attempts > 0 {
			l.maxAttempts = attempts
		}
	}
}

// WithIDGenerator overrides uuid.New for new revisions.
func WithIDGenerator(next func() uuid.UUID) Option {
	return func(l *Ledger) {
		if next != nil {
			l.newID = next
		}
	}
}

// WithLogger sets the ledger logger.
func WithLogger(logger directives.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithActivity emits revision events through emitter.
func WithActivity(emitter *activity.Emitter) Option {
	return func(l *Ledger) {
		l.activity = emitter
	}
}

// Ledger appends and restores page revisions.
type Ledger struct {
	store       Store
	now         func() time.Time
	newID       func() uuid.UUID
	maxAttempts int
	logger      directives.Logger
	activity    *activity.Emitter
}

// NewLedger builds a ledger over store.
func NewLedger(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:       store,
		now:         time.Now,
		newID:       uuid.New,
		maxAttempts: DefaultMaxAttempts,
		logger:      directives.NopLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// CreateRevision appends snapshot as revision max+1 for pageID. The actor is
// read from ctx (see activity.WithActor).
func (l *Ledger) CreateRevision(ctx context.Context, pageID uuid.UUID, snapshot Snapshot) (*Revision, error) {
	rev, err := l.append(ctx, Revision{PageID: pageID, Snapshot: snapshot})
	if err != nil {
		return nil, err
	}
	l.emit(ctx, activity.BuildRevisionCreatedEvent(l.eventInput(ctx, *rev)))
	return rev, nil
}

// Restore copies the snapshot of revision number into a new revision. The
// new revision carries RestoredAt, RestoredBy and RestoredFrom; the source
// revision is left untouched.
func (l *Ledger) Restore(ctx context.Context, pageID uuid.UUID, number int) (*Revision, error) {
	source, err := l.Get(ctx, pageID, number)
	if err != nil {
		return nil, err
	}
	restoredAt := l.now()
	rev, err := l.append(ctx, Revision{
		PageID:       pageID,
		Snapshot:     source.Snapshot,
		RestoredAt:   &restoredAt,
		RestoredBy:   activity.ActorFromContext(ctx),
		RestoredFrom: source.RevisionNumber,
	})
	if err != nil {
		return nil, err
	}
	l.emit(ctx, activity.BuildRevisionRestoredEvent(l.eventInput(ctx, *rev)))
	return rev, nil
}

// Get returns one revision or a *NotFoundError.
func (l *Ledger) Get(ctx context.Context, pageID uuid.UUID, number int) (*Revision, error) {
	rev, err := l.store.Get(ctx, pageID, number)
	if errors.Is(err, ErrRevisionNotFound) {
		rev, err = nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("revision: get %s#%d: %w", pageID, number, err)
	}
	if rev == nil {
		return nil, &NotFoundError{PageID: pageID, RevisionNumber: number}
	}
	return rev, nil
}

// List returns the page history ordered by revision number.
func (l *Ledger) List(ctx context.Context, pageID uuid.UUID) ([]Revision, error) {
	revisions, err := l.store.List(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("revision: list %s: %w", pageID, err)
	}
	sort.SliceStable(revisions, func(i, j int) bool {
		return revisions[i].RevisionNumber < revisions[j].RevisionNumber
	})
	return revisions, nil
}

// Latest returns the highest numbered revision, or a *NotFoundError for a
// page without history.
func (l *Ledger) Latest(ctx context.Context, pageID uuid.UUID) (*Revision, error) {
	latest, err := l.store.MaxRevisionNumber(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("revision: max number for %s: %w", pageID, err)
	}
	return l.Get(ctx, pageID, latest)
}

func (l *Ledger) append(ctx context.Context, rev Revision) (*Revision, error) {
	rev.CreatedBy = activity.ActorFromContext(ctx)
	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current, err := l.store.MaxRevisionNumber(ctx, rev.PageID)
		if err != nil {
			return nil, fmt.Errorf("revision: max number for %s: %w", rev.PageID, err)
		}
		rev.ID = l.newID()
		rev.RevisionNumber = current + 1
		rev.CreatedAt = l.now()

		err = l.store.Insert(ctx, rev)
		if err == nil {
			out := rev
			return &out, nil
		}
		if !errors.Is(err, ErrRevisionExists) {
			return nil, fmt.Errorf("revision: insert %s#%d: %w", rev.PageID, rev.RevisionNumber, err)
		}
		l.logger.Debug("revision number taken, retrying",
			"page_id", rev.PageID.String(),
			"revision_number", rev.RevisionNumber,
			"attempt", attempt,
		)
	}
	return nil, fmt.Errorf("%w: page %s after %d attempts", ErrConflict, rev.PageID, l.maxAttempts)
}

func (l *Ledger) eventInput(ctx context.Context, rev Revision) activity.RevisionEventInput {
	return activity.RevisionEventInput{
		EventInput: activity.EventInput{
			ActorID:    activity.ActorFromContext(ctx),
			ObjectID:   rev.ID.String(),
			OccurredAt: rev.CreatedAt,
		},
		PageID:         rev.PageID.String(),
		RevisionNumber: rev.RevisionNumber,
		RestoredFrom:   rev.RestoredFrom,
	}
}

func (l *Ledger) emit(ctx context.Context, event activity.Event) {
	if err := l.activity.Emit(ctx, event); err != nil {
		l.logger.Warn("revision activity hook failed", "verb", event.Verb, "object_id", event.ObjectID, "error", err.Error())
	}
}
