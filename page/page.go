// Package page models CMS pages and the service that edits, publishes and
// restores them. Every content edit appends a revision.
package page

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	directives "github.com/goliatone/go-directives"
	"github.com/goliatone/go-directives/revision"
)

var (
	ErrPageNotFound  = errors.New("page: not found")
	ErrInvalidSlug   = errors.New("page: invalid slug")
	ErrInvalidType   = errors.New("page: invalid type")
	ErrNoEngine      = errors.New("page: render engine not configured")
	ErrSlugTaken     = errors.New("page: slug already in use")
	ErrHomepageTaken = errors.New("page: another page is the homepage")
)

// Type classifies a page record.
type Type string

const (
	TypePage      Type = "page"
	TypeSection   Type = "section"
	TypeComponent Type = "component"
)

// Valid reports whether t is a known page type.
func (t Type) Valid() bool {
	switch t {
	case TypePage, TypeSection, TypeComponent:
		return true
	default:
		return false
	}
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*(?:/[a-z0-9]+(?:-[a-z0-9]+)*)*$`)

// ValidateSlug checks that slug is lower case, URL safe and non-empty.
func ValidateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return nil
}

// Page is a stored page whose Content mixes prose and component directives.
type Page struct {
	ID              uuid.UUID  `json:"id" yaml:"id"`
	Slug            string     `json:"slug" yaml:"slug"`
	Title           string     `json:"title" yaml:"title"`
	Content         string     `json:"content" yaml:"content"`
	Type            Type       `json:"type" yaml:"type"`
	Published       bool       `json:"published" yaml:"published"`
	PublishedAt     *time.Time `json:"publishedAt,omitempty" yaml:"publishedAt,omitempty"`
	MetaTitle       string     `json:"metaTitle,omitempty" yaml:"metaTitle,omitempty"`
	MetaDescription string     `json:"metaDescription,omitempty" yaml:"metaDescription,omitempty"`
	TemplateID      *uuid.UUID `json:"templateId,omitempty" yaml:"templateId,omitempty"`
	IsHomepage      bool       `json:"isHomepage" yaml:"isHomepage"`
	CreatedBy       string     `json:"createdBy,omitempty" yaml:"createdBy,omitempty"`
	UpdatedBy       string     `json:"updatedBy,omitempty" yaml:"updatedBy,omitempty"`
	CreatedAt       time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt" yaml:"updatedAt"`
}

// Snapshot returns the versioned fields of p.
func (p Page) Snapshot() revision.Snapshot {
	return revision.Snapshot{
		Title:           p.Title,
		Content:         p.Content,
		MetaTitle:       p.MetaTitle,
		MetaDescription: p.MetaDescription,
	}
}

// RenderContext returns the page binding exposed to display rules.
func (p Page) RenderContext() directives.PageContext {
	return directives.PageContext{
		ID:         p.ID.String(),
		Slug:       p.Slug,
		Published:  p.Published,
		IsHomepage: p.IsHomepage,
		Metadata: map[string]any{
			"type":      string(p.Type),
			"metaTitle": p.MetaTitle,
		},
	}
}

func (p *Page) apply(snapshot revision.Snapshot) {
	p.Title = snapshot.Title
	p.Content = snapshot.Content
	p.MetaTitle = snapshot.MetaTitle
	p.MetaDescription = snapshot.MetaDescription
}

func (p Page) clone() Page {
	if p.PublishedAt != nil {
		at := *p.PublishedAt
		p.PublishedAt = &at
	}
	if p.TemplateID != nil {
		id := *p.TemplateID
		p.TemplateID = &id
	}
	return p
}

// Store persists pages. Get returns (nil, nil) or ErrPageNotFound for unknown
// ids. Save enforces slug uniqueness and the single homepage rule.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*Page, error)
	GetBySlug(ctx context.Context, slug string) (*Page, error)
	Save(ctx context.Context, page Page) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]Page, error)
}
