package directives

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var springEnd = time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)

func promotionStore() *fakePromotionStore {
	return &fakePromotionStore{
		promotions: []Promotion{
			{
				ID:          "spring",
				Name:        "Spring Sale",
				Subtitle:    "Up to 40% off",
				Description: "Seasonal markdowns",
				Image:       "/img/spring.png",
				Priority:    10,
				EndDate:     springEnd,
				IsActive:    true,
			},
			{ID: "fallback", Name: "Everyday", Priority: 1, IsActive: true},
		},
		codes: map[string]PromoCode{
			"SAVE10": {
				Code:       "SAVE10",
				Discount:   10,
				ExpiryDate: time.Date(2026, time.June, 30, 23, 59, 0, 0, time.UTC),
				Title:      "Ten off",
				Subtitle:   "Today only",
			},
		},
	}
}

func promo(id string, content map[string]any) RenderDescriptor {
	return RenderDescriptor{ID: id, Type: TypePromotion, Content: content}
}

func TestEnrichActivePromotionFillsOnlyUnset(t *testing.T) {
	enricher := NewEnricher(promotionStore())
	got := enricher.Enrich(context.Background(), promo("p", map[string]any{
		"title":              "Custom",
		"useActivePromotion": true,
	}))

	want := map[string]any{
		"title":              "Custom",
		"useActivePromotion": true,
		"subtitle":           "Up to 40% off",
		"description":        "Seasonal markdowns",
		"expiryDate":         "2026-05-01T00:00:00Z",
		"image":              "/img/spring.png",
	}
	if diff := cmp.Diff(want, got.Content); diff != "" {
		t.Fatalf("unexpected content (-want +got):\n%s", diff)
	}
}

func TestEnrichActivePromotionKeepsAuthorExpiry(t *testing.T) {
	got := NewEnricher(promotionStore()).Enrich(context.Background(), promo("p", map[string]any{
		"useActivePromotion": "yes",
		"expiryDate":         "2030-01-01T00:00:00Z",
	}))
	if got.Content["expiryDate"] != "2030-01-01T00:00:00Z" {
		t.Fatalf("author expiry clobbered: %v", got.Content["expiryDate"])
	}
	if got.Content["title"] != "Spring Sale" {
		t.Fatalf("expected promotion name as title, got %v", got.Content["title"])
	}
}

func TestEnrichPromoCodeOverridesLiveFields(t *testing.T) {
	got := NewEnricher(promotionStore()).Enrich(context.Background(), promo("p", map[string]any{
		"promoCode":          "SAVE10",
		"useActivePromotion": true,
		"title":              "",
		"subtitle":           "Author subtitle",
		"discount":           99.0,
		"expiryDate":         "stale",
	}))

	want := map[string]any{
		"promoCode":          "SAVE10",
		"useActivePromotion": true,
		"title":              "Ten off",
		"subtitle":           "Author subtitle",
		"discount":           10.0,
		"expiryDate":         "2026-06-30T23:59:00Z",
	}
	if diff := cmp.Diff(want, got.Content); diff != "" {
		t.Fatalf("unexpected content (-want +got):\n%s", diff)
	}
}

func TestEnrichPassesThroughOnMissAndFailure(t *testing.T) {
	store := promotionStore()
	store.codeErrs = map[string]error{"BROKEN": errors.New("upstream down")}
	observer := &recordingObserver{}
	enricher := NewEnricher(store, WithEnricherObserver(observer))

	cases := []map[string]any{
		{"promoCode": "UNKNOWN", "title": "keep"},
		{"promoCode": "BROKEN", "title": "keep"},
		{"title": "keep"},
		{"useActivePromotion": false, "title": "keep"},
		{"useActivePromotion": 0.0, "title": "keep"},
	}
	for i, content := range cases {
		got := enricher.Enrich(context.Background(), promo(fmt.Sprintf("p%d", i), content))
		if diff := cmp.Diff(content, got.Content); diff != "" {
			t.Fatalf("case %d: content changed (-want +got):\n%s", i, diff)
		}
	}
	want := []string{EnrichMiss, EnrichStoreFailure, EnrichSkipped, EnrichSkipped, EnrichSkipped}
	if diff := cmp.Diff(want, observer.enrich); diff != "" {
		t.Fatalf("unexpected outcomes (-want +got):\n%s", diff)
	}
}

func TestEnrichIgnoresOtherTypes(t *testing.T) {
	store := promotionStore()
	d := RenderDescriptor{ID: "b", Type: TypeBanner, Content: map[string]any{"useActivePromotion": true}}
	got := NewEnricher(store).Enrich(context.Background(), d)
	if _, ok := got.Content["title"]; ok {
		t.Fatalf("non promotion component was enriched: %v", got.Content)
	}
	if store.maxInFlight.Load() != 0 {
		t.Fatalf("store should not be called for non promotion components")
	}
}

func TestEnrichDoesNotMutateInput(t *testing.T) {
	content := map[string]any{"useActivePromotion": true}
	NewEnricher(promotionStore()).Enrich(context.Background(), promo("p", content))
	if len(content) != 1 {
		t.Fatalf("input content mutated: %v", content)
	}
}

func TestEnrichAllIsolatesFailures(t *testing.T) {
	store := promotionStore()
	store.codeErrs = map[string]error{"BROKEN": errors.New("upstream down")}
	descriptors := []RenderDescriptor{
		promo("a", map[string]any{"promoCode": "BROKEN"}),
		{ID: "text", Type: TypeText, Content: map[string]any{"body": "x"}},
		promo("b", map[string]any{"promoCode": "SAVE10"}),
		promo("c", map[string]any{"useActivePromotion": true}),
	}

	got := NewEnricher(store).EnrichAll(context.Background(), descriptors)

	var ids []string
	for _, d := range got {
		ids = append(ids, d.ID)
	}
	if diff := cmp.Diff([]string{"a", "text", "b", "c"}, ids); diff != "" {
		t.Fatalf("order not preserved (-want +got):\n%s", diff)
	}
	if _, ok := got[0].Content["discount"]; ok {
		t.Fatalf("failed lookup should pass through, got %v", got[0].Content)
	}
	if got[2].Content["discount"] != 10.0 {
		t.Fatalf("sibling promo code not applied: %v", got[2].Content)
	}
	if got[3].Content["title"] != "Spring Sale" {
		t.Fatalf("sibling active promotion not applied: %v", got[3].Content)
	}
	if _, ok := descriptors[2].Content["discount"]; ok {
		t.Fatalf("input descriptors mutated")
	}
}

func TestEnrichAllBoundsConcurrency(t *testing.T) {
	store := promotionStore()
	store.delay = 5 * time.Millisecond
	descriptors := make([]RenderDescriptor, 12)
	for i := range descriptors {
		descriptors[i] = promo(fmt.Sprintf("p%d", i), map[string]any{"useActivePromotion": true})
	}

	got := NewEnricher(store, WithConcurrency(3)).EnrichAll(context.Background(), descriptors)
	if len(got) != len(descriptors) {
		t.Fatalf("expected %d descriptors, got %d", len(descriptors), len(got))
	}
	if peak := store.maxInFlight.Load(); peak > 3 {
		t.Fatalf("expected at most 3 concurrent lookups, saw %d", peak)
	}
	for _, d := range got {
		if d.Content["title"] != "Spring Sale" {
			t.Fatalf("descriptor %s not enriched", d.ID)
		}
	}
}

func TestEnrichWithoutStoreIsPassThrough(t *testing.T) {
	d := promo("p", map[string]any{"useActivePromotion": true})
	got := NewEnricher(nil).EnrichAll(context.Background(), []RenderDescriptor{d})
	if diff := cmp.Diff([]RenderDescriptor{d}, got); diff != "" {
		t.Fatalf("unexpected change (-want +got):\n%s", diff)
	}
}
