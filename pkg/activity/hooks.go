package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Event is one CMS lifecycle occurrence: a page edit, a publish, a new or
// restored revision, or a template change. IDs are plain strings so page,
// template and revision identities need no shared UUID type.
type Event struct {
	Verb           string
	ActorID        string
	UserID         string
	TenantID       string
	ObjectType     string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// complete reports whether e names what happened and to which object.
func (e Event) complete() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// Hook receives normalized events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, event Event) error

func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans events out to every hook in order.
type Hooks []Hook

// Notify normalizes event and delivers it to each hook. Incomplete events are
// dropped. A failing hook does not stop delivery to the rest; all failures
// are joined into the returned error.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}
	event = NormalizeEvent(event)
	if !event.complete() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for i, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("activity: %s hook %d: %w", event.Verb, i, err))
		}
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims identifiers, drops blank recipients, copies metadata
// and stamps OccurredAt (UTC) when unset. The input is not modified.
func NormalizeEvent(event Event) Event {
	for _, field := range []*string{
		&event.Verb,
		&event.ActorID,
		&event.UserID,
		&event.TenantID,
		&event.ObjectType,
		&event.ObjectID,
		&event.Channel,
		&event.DefinitionCode,
	} {
		*field = strings.TrimSpace(*field)
	}
	event.Metadata = cloneMap(event.Metadata)

	var recipients []string
	for _, recipient := range event.Recipients {
		if recipient = strings.TrimSpace(recipient); recipient != "" {
			recipients = append(recipients, recipient)
		}
	}
	event.Recipients = recipients

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return event
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
