package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"

	"github.com/goliatone/go-directives/pkg/activity"
	"github.com/goliatone/go-directives/pkg/activity/usersink"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsPageEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()
	pageID := uuid.New().String()

	event := activity.BuildPagePublishedEvent(activity.PageEventInput{
		EventInput: activity.EventInput{
			ActorID:        actorID.String(),
			TenantID:       tenantID.String(),
			Channel:        "cms",
			DefinitionCode: "page:published",
			Recipients:     []string{"editors@example.com"},
			OccurredAt:     now,
		},
		PageID: pageID,
		Slug:   "spring-sale",
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.TenantID != tenantID || record.UserID != uuid.Nil {
		t.Fatalf("unexpected identities: %+v", record)
	}
	if record.Verb != activity.VerbPagePublished || record.ObjectType != activity.ObjectPage || record.ObjectID != pageID {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "cms" || !record.OccurredAt.Equal(now) {
		t.Fatalf("unexpected channel or time: %+v", record)
	}
	if record.Data["slug"] != "spring-sale" || record.Data[usersink.DataDefinitionCode] != "page:published" {
		t.Fatalf("unexpected data: %v", record.Data)
	}
	if _, ok := record.Data[usersink.DataActorRef]; ok {
		t.Fatalf("uuid actors should not be duplicated into data: %v", record.Data)
	}
	recipients, ok := record.Data[usersink.DataRecipients].([]string)
	if !ok || len(recipients) != 1 || recipients[0] != "editors@example.com" {
		t.Fatalf("expected recipients data, got %v", record.Data[usersink.DataRecipients])
	}
}

func TestHookNotifyKeepsNonUUIDActor(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.BuildRevisionCreatedEvent(activity.RevisionEventInput{
		EventInput:     activity.EventInput{ActorID: "editor-1", ObjectID: "rev-1"},
		PageID:         "page-1",
		RevisionNumber: 1,
	}))
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	record := sink.records[0]
	if record.ActorID != uuid.Nil {
		t.Fatalf("expected nil actor uuid, got %s", record.ActorID)
	}
	if record.Data[usersink.DataActorRef] != "editor-1" || record.Data["revision_number"] != 1 {
		t.Fatalf("unexpected data: %v", record.Data)
	}
	if record.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}

func TestHookNotifySkipsIncompleteEvents(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	if err := hook.Notify(context.Background(), activity.Event{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
	if err := (usersink.Hook{}).Notify(context.Background(), activity.Event{Verb: "x", ObjectType: "y", ObjectID: "z"}); err != nil {
		t.Fatalf("expected nil sink to be a no-op, got %v", err)
	}
}

func TestHookPropagatesSinkErrorThroughEmitter(t *testing.T) {
	boom := errors.New("sink down")
	sink := &recordingSink{err: boom}
	emitter := activity.NewEmitter(activity.Hooks{usersink.Hook{Sink: sink}}, activity.Config{Enabled: true})

	err := emitter.Emit(context.Background(), activity.BuildTemplateDeletedEvent(activity.TemplateEventInput{TemplateID: "tpl-1"}))
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if len(sink.records) != 1 || sink.records[0].Channel != activity.DefaultChannel {
		t.Fatalf("expected one record on default channel, got %+v", sink.records)
	}
}

func TestHookAppliesDefaultTenant(t *testing.T) {
	storefront := uuid.New()
	hook := usersink.Hook{Tenant: storefront}

	record, ok := hook.Record(activity.BuildTemplateDeletedEvent(activity.TemplateEventInput{
		EventInput: activity.EventInput{TenantID: "shop-eu"},
		TemplateID: "tpl-1",
	}))
	if !ok {
		t.Fatalf("expected a record")
	}
	if record.TenantID != storefront {
		t.Fatalf("expected default tenant, got %s", record.TenantID)
	}

	explicit := uuid.New()
	record, _ = hook.Record(activity.BuildTemplateDeletedEvent(activity.TemplateEventInput{
		EventInput: activity.EventInput{TenantID: explicit.String()},
		TemplateID: "tpl-1",
	}))
	if record.TenantID != explicit {
		t.Fatalf("expected event tenant to win, got %s", record.TenantID)
	}
}
