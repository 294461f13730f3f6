// Package usersink records CMS activity in a go-users ActivitySink so page,
// revision and template changes show up in the same audit trail as account
// activity.
package usersink

import (
	"context"

	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"

	"github.com/goliatone/go-directives/pkg/activity"
)

// Data keys added to forwarded records.
const (
	DataActorRef       = "actor_ref"
	DataDefinitionCode = "definition_code"
	DataRecipients     = "recipients"
)

// Hook is an activity.Hook writing to Sink. A nil Sink makes it a no-op.
type Hook struct {
	Sink usertypes.ActivitySink
	// Tenant is used when an event carries no parseable tenant id, as in
	// single storefront deployments.
	Tenant uuid.UUID
}

var _ activity.Hook = Hook{}

func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	record, ok := h.Record(event)
	if !ok {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, record)
}

// Record maps event to an ActivityRecord. It reports false for events that
// do not name a verb and object. CMS editors are not always go-users
// accounts, so an actor that is not a UUID is kept under Data["actor_ref"].
func (h Hook) Record(event activity.Event) (usertypes.ActivityRecord, bool) {
	event = activity.NormalizeEvent(event)
	if event.Verb == "" || event.ObjectType == "" || event.ObjectID == "" {
		return usertypes.ActivityRecord{}, false
	}

	record := usertypes.ActivityRecord{
		ActorID:    parseUUID(event.ActorID),
		UserID:     parseUUID(event.UserID),
		TenantID:   parseUUID(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       event.Metadata,
		OccurredAt: event.OccurredAt,
	}
	if record.TenantID == uuid.Nil {
		record.TenantID = h.Tenant
	}

	extra := map[string]any{}
	if event.ActorID != "" && record.ActorID == uuid.Nil {
		extra[DataActorRef] = event.ActorID
	}
	if event.DefinitionCode != "" {
		extra[DataDefinitionCode] = event.DefinitionCode
	}
	if len(event.Recipients) > 0 {
		extra[DataRecipients] = event.Recipients
	}
	if len(extra) > 0 && record.Data == nil {
		record.Data = make(map[string]any, len(extra))
	}
	for key, value := range extra {
		record.Data[key] = value
	}
	return record, true
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(input)
	if err != nil {
		return uuid.Nil
	}
	return id
}
