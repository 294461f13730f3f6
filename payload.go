package directives

import (
	"fmt"

	"github.com/goliatone/go-directives/internal/hydrate"
	"github.com/goliatone/go-directives/layering"
)

// Payload is the typed view of a component's content. The concrete type is
// selected by the component type; unknown and custom types decode to
// CustomPayload.
type Payload interface {
	ComponentType() ComponentType
}

// Link is a call-to-action used by several payloads.
type Link struct {
	Label string `json:"label,omitempty"`
	URL   string `json:"url,omitempty"`
}

type BannerPayload struct {
	Title      string `json:"title,omitempty"`
	Subtitle   string `json:"subtitle,omitempty"`
	Image      string `json:"image,omitempty"`
	Button     *Link  `json:"button,omitempty"`
	Background string `json:"background,omitempty"`
}

type Slide struct {
	Image    string `json:"image,omitempty"`
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
	Link     *Link  `json:"link,omitempty"`
}

type SliderPayload struct {
	Slides   []Slide `json:"slides,omitempty"`
	Autoplay bool    `json:"autoplay,omitempty"`
	Interval int     `json:"interval,omitempty"`
}

type FeaturedProductsPayload struct {
	Title      string   `json:"title,omitempty"`
	ProductIDs []string `json:"productIds,omitempty"`
	Category   string   `json:"category,omitempty"`
	Limit      int      `json:"limit,omitempty"`
}

type NewsletterPayload struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	ButtonText  string `json:"buttonText,omitempty"`
}

type Testimonial struct {
	Author string  `json:"author,omitempty"`
	Role   string  `json:"role,omitempty"`
	Quote  string  `json:"quote,omitempty"`
	Avatar string  `json:"avatar,omitempty"`
	Rating float64 `json:"rating,omitempty"`
}

type TestimonialsPayload struct {
	Title string        `json:"title,omitempty"`
	Items []Testimonial `json:"items,omitempty"`
}

type TextPayload struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

type ImagePayload struct {
	Src     string `json:"src,omitempty"`
	Alt     string `json:"alt,omitempty"`
	Caption string `json:"caption,omitempty"`
	Link    string `json:"link,omitempty"`
}

type VideoPayload struct {
	URL      string `json:"url,omitempty"`
	Poster   string `json:"poster,omitempty"`
	Autoplay bool   `json:"autoplay,omitempty"`
	Loop     bool   `json:"loop,omitempty"`
}

type HTMLPayload struct {
	HTML string `json:"html,omitempty"`
}

type PromotionPayload struct {
	Title              string  `json:"title,omitempty"`
	Subtitle           string  `json:"subtitle,omitempty"`
	Description        string  `json:"description,omitempty"`
	Image              string  `json:"image,omitempty"`
	PromoCode          string  `json:"promoCode,omitempty"`
	UseActivePromotion bool    `json:"useActivePromotion,omitempty"`
	Discount           float64 `json:"discount,omitempty"`
	ExpiryDate         string  `json:"expiryDate,omitempty"`
}

// CustomPayload carries content for custom or unrecognised component types.
type CustomPayload struct {
	Type   ComponentType
	Fields map[string]any
}

func (BannerPayload) ComponentType() ComponentType           { return TypeBanner }
func (SliderPayload) ComponentType() ComponentType           { return TypeSlider }
func (FeaturedProductsPayload) ComponentType() ComponentType { return TypeFeaturedProducts }
func (NewsletterPayload) ComponentType() ComponentType       { return TypeNewsletter }
func (TestimonialsPayload) ComponentType() ComponentType     { return TypeTestimonials }
func (TextPayload) ComponentType() ComponentType             { return TypeText }
func (ImagePayload) ComponentType() ComponentType            { return TypeImage }
func (VideoPayload) ComponentType() ComponentType            { return TypeVideo }
func (HTMLPayload) ComponentType() ComponentType             { return TypeHTML }
func (PromotionPayload) ComponentType() ComponentType        { return TypePromotion }
func (p CustomPayload) ComponentType() ComponentType         { return p.Type }

// DecodePayload converts content into the payload variant for t. Unknown
// fields are ignored so authors can carry extra keys for custom renderers.
// Quoted numbers such as "20" are accepted for numeric fields; negative
// limits, intervals and discounts and ratings outside 0..5 are rejected.
func DecodePayload(t ComponentType, content map[string]any) (Payload, error) {
	ctx := hydrate.Context{Type: string(t)}
	switch t {
	case TypeBanner:
		return decodeAs[BannerPayload](ctx, content)
	case TypeSlider:
		return decodeAs(ctx, content,
			hydrate.WithNormalizer[SliderPayload](hydrate.NumericStrings("interval")),
			hydrate.WithCheck[SliderPayload](func(_ hydrate.Context, p *SliderPayload) error {
				return nonNegative("interval", float64(p.Interval))
			}),
		)
	case TypeFeaturedProducts:
		return decodeAs(ctx, content,
			hydrate.WithNormalizer[FeaturedProductsPayload](hydrate.NumericStrings("limit")),
			hydrate.WithCheck[FeaturedProductsPayload](func(_ hydrate.Context, p *FeaturedProductsPayload) error {
				return nonNegative("limit", float64(p.Limit))
			}),
		)
	case TypeNewsletter:
		return decodeAs[NewsletterPayload](ctx, content)
	case TypeTestimonials:
		return decodeAs(ctx, content,
			hydrate.WithCheck[TestimonialsPayload](func(_ hydrate.Context, p *TestimonialsPayload) error {
				for i, item := range p.Items {
					if item.Rating < 0 || item.Rating > 5 {
						return fmt.Errorf("items[%d].rating %v outside 0..5", i, item.Rating)
					}
				}
				return nil
			}),
		)
	case TypeText:
		return decodeAs[TextPayload](ctx, content)
	case TypeImage:
		return decodeAs[ImagePayload](ctx, content)
	case TypeVideo:
		return decodeAs[VideoPayload](ctx, content)
	case TypeHTML:
		return decodeAs[HTMLPayload](ctx, content)
	case TypePromotion:
		return decodeAs(ctx, content,
			hydrate.WithNormalizer[PromotionPayload](hydrate.NumericStrings(KeyDiscount)),
			hydrate.WithCheck[PromotionPayload](func(_ hydrate.Context, p *PromotionPayload) error {
				return nonNegative(KeyDiscount, p.Discount)
			}),
		)
	default:
		return CustomPayload{Type: t, Fields: layering.Clone(content)}, nil
	}
}

func decodeAs[T Payload](ctx hydrate.Context, content map[string]any, opts ...hydrate.Option[T]) (Payload, error) {
	payload, err := hydrate.NewDecoder(opts...).Decode(ctx, content)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func nonNegative(field string, value float64) error {
	if value < 0 {
		return fmt.Errorf("%s must not be negative, got %v", field, value)
	}
	return nil
}
