package directives

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-directives/layering"
)

// PromotionStore exposes live promotion data. GetActivePromotions returns
// promotions sorted by priority, highest first. GetPromoCodeByCode returns
// (nil, nil) for unknown codes.
type PromotionStore interface {
	GetActivePromotions(ctx context.Context) ([]Promotion, error)
	GetPromoCodeByCode(ctx context.Context, code string) (*PromoCode, error)
}

// Content keys read and written by promotion enrichment.
const (
	KeyPromoCode          = "promoCode"
	KeyUseActivePromotion = "useActivePromotion"
	KeyTitle              = "title"
	KeySubtitle           = "subtitle"
	KeyDescription        = "description"
	KeyDiscount           = "discount"
	KeyExpiryDate         = "expiryDate"
	KeyImage              = "image"
)

// DefaultEnrichConcurrency bounds concurrent promotion lookups in EnrichAll.
const DefaultEnrichConcurrency = 8

var errNoPromotion = errors.New("directives: no matching promotion")

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithEnricherLogger sets the enricher logger.
func WithEnricherLogger(logger Logger) EnricherOption {
	return func(e *Enricher) {
		e.logger = loggerOrNop(logger)
	}
}

// WithEnricherObserver sets the enricher observer.
func WithEnricherObserver(observer Observer) EnricherOption {
	return func(e *Enricher) {
		e.observer = observerOrNop(observer)
	}
}

// WithConcurrency bounds the number of in-flight lookups in EnrichAll.
func WithConcurrency(limit int) EnricherOption {
	return func(e *Enricher) {
		if limit > 0 {
			e.concurrency = limit
		}
	}
}

// Enricher overlays live promotion data onto promotion components.
type Enricher struct {
	store       PromotionStore
	logger      Logger
	observer    Observer
	concurrency int
}

// NewEnricher builds an enricher over store. A nil store makes every call a
// pass-through.
func NewEnricher(store PromotionStore, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		store:       store,
		logger:      noopLogger{},
		observer:    noopObserver{},
		concurrency: DefaultEnrichConcurrency,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Enrich returns d with promotion data applied. It never fails: on any lookup
// error or miss the descriptor is returned unchanged. The input maps are not
// modified.
func (e *Enricher) Enrich(ctx context.Context, d RenderDescriptor) RenderDescriptor {
	if d.Type != TypePromotion || e == nil || e.store == nil {
		return d
	}

	var (
		content map[string]any
		outcome string
		err     error
	)
	switch {
	case promoCodeOf(d.Content) != "":
		outcome = EnrichPromoCode
		content, err = e.applyPromoCode(ctx, d.Content, promoCodeOf(d.Content))
	case truthy(d.Content[KeyUseActivePromotion]):
		outcome = EnrichActive
		content, err = e.applyActivePromotion(ctx, d.Content)
	default:
		e.observer.EnrichmentOutcome(EnrichSkipped)
		return d
	}

	if errors.Is(err, errNoPromotion) {
		e.observer.EnrichmentOutcome(EnrichMiss)
		e.logger.Debug("promotion enrichment found no data", "component_id", d.ID, "mode", outcome)
		return d
	}
	if err != nil {
		e.observer.EnrichmentOutcome(EnrichStoreFailure)
		e.logger.Warn("promotion enrichment failed", "component_id", d.ID, "mode", outcome, "error", err.Error())
		return d
	}

	e.observer.EnrichmentOutcome(outcome)
	d.Content = content
	return d
}

// EnrichAll enriches every descriptor concurrently and returns them in input
// order. One failed lookup never cancels or affects its siblings.
func (e *Enricher) EnrichAll(ctx context.Context, descriptors []RenderDescriptor) []RenderDescriptor {
	out := append([]RenderDescriptor(nil), descriptors...)
	if e == nil || e.store == nil {
		return out
	}

	var group errgroup.Group
	group.SetLimit(e.concurrency)
	for i := range out {
		if out[i].Type != TypePromotion {
			continue
		}
		i := i
		group.Go(func() error {
			out[i] = e.Enrich(ctx, out[i])
			return nil
		})
	}
	_ = group.Wait()
	return out
}

func (e *Enricher) applyPromoCode(ctx context.Context, content map[string]any, code string) (map[string]any, error) {
	promo, err := e.store.GetPromoCodeByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get promo code %q: %w", code, err)
	}
	if promo == nil {
		return nil, errNoPromotion
	}

	out := layering.Clone(content)
	out[KeyDiscount] = promo.Discount
	if !promo.ExpiryDate.IsZero() {
		out[KeyExpiryDate] = formatDate(promo.ExpiryDate)
	}
	fillUnset(out, KeyTitle, promo.Title)
	fillUnset(out, KeySubtitle, promo.Subtitle)
	fillUnset(out, KeyDescription, promo.Description)
	return out, nil
}

func (e *Enricher) applyActivePromotion(ctx context.Context, content map[string]any) (map[string]any, error) {
	promotions, err := e.store.GetActivePromotions(ctx)
	if err != nil {
		return nil, fmt.Errorf("get active promotions: %w", err)
	}
	if len(promotions) == 0 {
		return nil, errNoPromotion
	}
	promo := promotions[0]

	out := layering.Clone(content)
	fillUnset(out, KeyTitle, promo.Name)
	fillUnset(out, KeySubtitle, promo.Subtitle)
	fillUnset(out, KeyDescription, promo.Description)
	if !promo.EndDate.IsZero() {
		fillUnset(out, KeyExpiryDate, formatDate(promo.EndDate))
	}
	fillUnset(out, KeyImage, promo.Image)
	return out, nil
}

// fillUnset writes value under key only when the author left it unset and
// value carries data.
func fillUnset(content map[string]any, key, value string) {
	if value == "" || !isUnset(content[key]) {
		return
	}
	content[key] = value
}

func isUnset(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	default:
		return false
	}
}

func promoCodeOf(content map[string]any) string {
	code, _ := content[KeyPromoCode].(string)
	return strings.TrimSpace(code)
}

// truthy follows JavaScript truthiness for JSON-decoded values.
func truthy(value any) bool {
	switch typed := value.(type) {
	case nil:
		return false
	case bool:
		return typed
	case string:
		return typed != ""
	case float64:
		return typed != 0 && !math.IsNaN(typed)
	case int:
		return typed != 0
	case int64:
		return typed != 0
	default:
		return true
	}
}

func formatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
