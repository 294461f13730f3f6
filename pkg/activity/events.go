package activity

import (
	"strings"
	"time"
)

// Object types carried by CMS events.
const (
	ObjectPage     = "page"
	ObjectRevision = "page.revision"
	ObjectTemplate = "template"
)

// Verbs emitted by the page, revision and template services.
const (
	VerbPageUpdated      = "page.updated"
	VerbPagePublished    = "page.published"
	VerbPageUnpublished  = "page.unpublished"
	VerbRevisionCreated  = "revision.created"
	VerbRevisionRestored = "revision.restored"
	VerbTemplateCreated  = "template.created"
	VerbTemplateUpdated  = "template.updated"
	VerbTemplateDeleted  = "template.deleted"
)

// EventInput describes the common fields for CMS lifecycle events.
type EventInput struct {
	ActorID        string
	UserID         string
	TenantID       string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// PageEventInput adds page identity to EventInput.
type PageEventInput struct {
	EventInput
	PageID string
	Slug   string
}

// RevisionEventInput adds revision identity to EventInput.
type RevisionEventInput struct {
	EventInput
	PageID         string
	RevisionNumber int
	RestoredFrom   int
}

// TemplateEventInput adds template identity to EventInput.
type TemplateEventInput struct {
	EventInput
	TemplateID string
	Name       string
	Change     string
}

// BuildPageUpdatedEvent constructs the event for a page content edit.
func BuildPageUpdatedEvent(input PageEventInput) Event {
	return buildPageEvent(VerbPageUpdated, input)
}

// BuildPagePublishedEvent constructs the event for a page going live.
func BuildPagePublishedEvent(input PageEventInput) Event {
	return buildPageEvent(VerbPagePublished, input)
}

// BuildPageUnpublishedEvent constructs the event for a page taken offline.
func BuildPageUnpublishedEvent(input PageEventInput) Event {
	return buildPageEvent(VerbPageUnpublished, input)
}

// BuildRevisionCreatedEvent constructs the event for a new page revision.
func BuildRevisionCreatedEvent(input RevisionEventInput) Event {
	return buildRevisionEvent(VerbRevisionCreated, input)
}

// BuildRevisionRestoredEvent constructs the event for a restore. The new
// revision is the object; the restored-from number is recorded in metadata.
func BuildRevisionRestoredEvent(input RevisionEventInput) Event {
	return buildRevisionEvent(VerbRevisionRestored, input)
}

// BuildTemplateCreatedEvent constructs the event for a new template.
func BuildTemplateCreatedEvent(input TemplateEventInput) Event {
	return buildTemplateEvent(VerbTemplateCreated, input)
}

// BuildTemplateUpdatedEvent constructs the event for a structure change.
func BuildTemplateUpdatedEvent(input TemplateEventInput) Event {
	return buildTemplateEvent(VerbTemplateUpdated, input)
}

// BuildTemplateDeletedEvent constructs the event for a deleted template.
func BuildTemplateDeletedEvent(input TemplateEventInput) Event {
	return buildTemplateEvent(VerbTemplateDeleted, input)
}

func buildPageEvent(verb string, input PageEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Slug != "" {
		metadata = ensureMetadata(metadata)
		metadata["slug"] = input.Slug
	}
	return buildEvent(verb, ObjectPage, firstNonEmpty(input.ObjectID, input.PageID), metadata, input.EventInput)
}

func buildRevisionEvent(verb string, input RevisionEventInput) Event {
	metadata := ensureMetadata(cloneMap(input.Metadata))
	if input.PageID != "" {
		metadata["page_id"] = input.PageID
	}
	if input.RevisionNumber > 0 {
		metadata["revision_number"] = input.RevisionNumber
	}
	if input.RestoredFrom > 0 {
		metadata["restored_from"] = input.RestoredFrom
	}
	return buildEvent(verb, ObjectRevision, input.ObjectID, metadata, input.EventInput)
}

func buildTemplateEvent(verb string, input TemplateEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Name != "" {
		metadata = ensureMetadata(metadata)
		metadata["name"] = input.Name
	}
	if input.Change != "" {
		metadata = ensureMetadata(metadata)
		metadata["change"] = input.Change
	}
	return buildEvent(verb, ObjectTemplate, firstNonEmpty(input.ObjectID, input.TemplateID), metadata, input.EventInput)
}

func buildEvent(verb, objectType, objectID string, metadata map[string]any, input EventInput) Event {
	recipients := input.Recipients
	if len(recipients) > 0 {
		recipients = append([]string{}, input.Recipients...)
	}

	objectID = strings.TrimSpace(objectID)
	if objectID == "" {
		objectID = objectType
	}
	if len(metadata) == 0 {
		metadata = nil
	}

	return Event{
		Verb:           verb,
		ActorID:        strings.TrimSpace(input.ActorID),
		UserID:         strings.TrimSpace(input.UserID),
		TenantID:       strings.TrimSpace(input.TenantID),
		ObjectType:     objectType,
		ObjectID:       objectID,
		Channel:        strings.TrimSpace(input.Channel),
		DefinitionCode: strings.TrimSpace(input.DefinitionCode),
		Recipients:     recipients,
		Metadata:       metadata,
		OccurredAt:     input.OccurredAt,
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
