package directives

import (
	"fmt"
	"strings"
	"time"
)

// ComponentType identifies the payload shape and renderer of a component.
type ComponentType string

const (
	TypeBanner           ComponentType = "banner"
	TypeSlider           ComponentType = "slider"
	TypeFeaturedProducts ComponentType = "featured_products"
	TypeNewsletter       ComponentType = "newsletter"
	TypeTestimonials     ComponentType = "testimonials"
	TypeText             ComponentType = "text"
	TypeImage            ComponentType = "image"
	TypeVideo            ComponentType = "video"
	TypeHTML             ComponentType = "html"
	TypePromotion        ComponentType = "promotion"
	TypeCustom           ComponentType = "custom"
)

var componentTypes = []ComponentType{
	TypeBanner,
	TypeSlider,
	TypeFeaturedProducts,
	TypeNewsletter,
	TypeTestimonials,
	TypeText,
	TypeImage,
	TypeVideo,
	TypeHTML,
	TypePromotion,
	TypeCustom,
}

// ComponentTypes returns the closed set of known component types.
func ComponentTypes() []ComponentType {
	return append([]ComponentType(nil), componentTypes...)
}

// Valid reports whether t is one of the known component types.
func (t ComponentType) Valid() bool {
	for _, known := range componentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseComponentType converts value into a ComponentType, rejecting unknown names.
func ParseComponentType(value string) (ComponentType, error) {
	t := ComponentType(strings.ToLower(strings.TrimSpace(value)))
	if !t.Valid() {
		return "", fmt.Errorf("directives: unknown component type %q", value)
	}
	return t, nil
}

// OverrideOptions is the page-local payload carried by a directive.
type OverrideOptions struct {
	Content  map[string]any `json:"content"`
	Settings map[string]any `json:"settings"`
}

// ComponentReference is one directive extracted from page content. It is never
// persisted on its own.
type ComponentReference struct {
	ID      string
	Order   int
	Options *OverrideOptions
}

// Component is the canonical, independently stored definition referenced by
// directives.
type Component struct {
	ID        string         `json:"id" yaml:"id"`
	Name      string         `json:"name" yaml:"name"`
	Type      ComponentType  `json:"type" yaml:"type"`
	Content   map[string]any `json:"content,omitempty" yaml:"content,omitempty"`
	Settings  map[string]any `json:"settings,omitempty" yaml:"settings,omitempty"`
	IsActive  bool           `json:"is_active" yaml:"is_active"`
	CreatedBy string         `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	UpdatedBy string         `json:"updated_by,omitempty" yaml:"updated_by,omitempty"`
	CreatedAt time.Time      `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt time.Time      `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// RenderDescriptor is a fully merged component ready for display. ID and Order
// are carried from the reference so the set can be edited and serialized back.
type RenderDescriptor struct {
	ID       string         `json:"id"`
	Order    int            `json:"order"`
	Type     ComponentType  `json:"type"`
	Content  map[string]any `json:"content"`
	Settings map[string]any `json:"settings"`
}

// Payload decodes the descriptor content into its typed variant.
func (d RenderDescriptor) Payload() (Payload, error) {
	return DecodePayload(d.Type, d.Content)
}

// Resolved drops the type so the descriptor can be handed to Serialize.
func (d RenderDescriptor) Resolved() ResolvedComponent {
	return ResolvedComponent{
		ID:       d.ID,
		Order:    d.Order,
		Content:  d.Content,
		Settings: d.Settings,
	}
}

// ResolvedComponent is an edited component instance as submitted by the editor.
type ResolvedComponent struct {
	ID       string         `json:"id"`
	Order    int            `json:"order"`
	Content  map[string]any `json:"content"`
	Settings map[string]any `json:"settings"`
}

// Promotion is a live campaign exposed by the promotion store.
type Promotion struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Subtitle    string    `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Image       string    `json:"image,omitempty" yaml:"image,omitempty"`
	Priority    int       `json:"priority" yaml:"priority"`
	StartDate   time.Time `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate     time.Time `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	IsActive    bool      `json:"is_active" yaml:"is_active"`
}

// PromoCode is a redeemable code, optionally tied to a promotion.
type PromoCode struct {
	Code        string    `json:"code" yaml:"code"`
	Discount    float64   `json:"discount" yaml:"discount"`
	ExpiryDate  time.Time `json:"expiry_date,omitempty" yaml:"expiry_date,omitempty"`
	Title       string    `json:"title,omitempty" yaml:"title,omitempty"`
	Subtitle    string    `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
}

// PageContext describes the page being rendered. It is exposed to display
// rules as the "page" binding.
type PageContext struct {
	ID         string
	Slug       string
	Published  bool
	IsHomepage bool
	Metadata   map[string]any
}

func (p PageContext) binding() map[string]any {
	binding := map[string]any{
		"id":         p.ID,
		"slug":       p.Slug,
		"published":  p.Published,
		"isHomepage": p.IsHomepage,
	}
	if len(p.Metadata) > 0 {
		binding["metadata"] = copyMetadata(p.Metadata)
	}
	return binding
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
