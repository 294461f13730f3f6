package directives

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-directives/layering"
)

func catalog() *fakeComponentStore {
	return newFakeComponentStore(
		Component{
			ID:       "hero",
			Type:     TypeBanner,
			IsActive: true,
			Content:  map[string]any{"title": "X", "meta": map[string]any{"a": 1.0, "b": 2.0}},
			Settings: map[string]any{"theme": "light", "fullWidth": true},
		},
		Component{
			ID:       "retired",
			Type:     TypeText,
			IsActive: false,
			Content:  map[string]any{"body": "old"},
		},
		Component{
			ID:       "note",
			Type:     TypeText,
			IsActive: true,
			Content:  map[string]any{"body": "hello"},
		},
	)
}

func TestResolveShallowMergePrecedence(t *testing.T) {
	resolver := NewResolver(catalog())
	got, err := resolver.Resolve(context.Background(), ComponentReference{
		ID:    "hero",
		Order: 3,
		Options: &OverrideOptions{
			Content:  map[string]any{"meta": map[string]any{"a": 9.0}},
			Settings: map[string]any{"theme": "dark"},
		},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := &RenderDescriptor{
		ID:       "hero",
		Order:    3,
		Type:     TypeBanner,
		Content:  map[string]any{"title": "X", "meta": map[string]any{"a": 9.0}},
		Settings: map[string]any{"theme": "dark", "fullWidth": true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected descriptor (-want +got):\n%s", diff)
	}
}

func TestResolveDoesNotMutateCanonical(t *testing.T) {
	store := catalog()
	resolver := NewResolver(store)
	got, err := resolver.Resolve(context.Background(), ComponentReference{ID: "hero"})
	if err != nil || got == nil {
		t.Fatalf("resolve: %v %v", got, err)
	}
	got.Content["meta"].(map[string]any)["a"] = 100.0

	again, _ := resolver.Resolve(context.Background(), ComponentReference{ID: "hero"})
	if again.Content["meta"].(map[string]any)["a"] != 1.0 {
		t.Fatalf("canonical content mutated through descriptor")
	}
}

func TestResolveOmitsInactiveAndUnknown(t *testing.T) {
	observer := &recordingObserver{}
	resolver := NewResolver(catalog(), WithResolverObserver(observer))

	for _, id := range []string{"retired", "missing"} {
		got, err := resolver.Resolve(context.Background(), ComponentReference{ID: id})
		if err != nil {
			t.Fatalf("resolve %s: unexpected error %v", id, err)
		}
		if got != nil {
			t.Fatalf("resolve %s: expected nil descriptor, got %+v", id, got)
		}
	}
	if diff := cmp.Diff([]string{ReasonInactive, ReasonNotFound}, observer.unresolved); diff != "" {
		t.Fatalf("unexpected reasons (-want +got):\n%s", diff)
	}
}

func TestResolveTreatsNotFoundSentinelAsAbsent(t *testing.T) {
	store := catalog()
	store.failures["gone"] = ErrComponentNotFound
	got, err := NewResolver(store).Resolve(context.Background(), ComponentReference{ID: "gone"})
	if err != nil || got != nil {
		t.Fatalf("expected silent omission, got %+v %v", got, err)
	}
}

func TestResolveAllDropsUnresolvedAndFailures(t *testing.T) {
	store := catalog()
	boom := errors.New("connection reset")
	store.failures["broken"] = boom
	logger := &recordingLogger{}
	observer := &recordingObserver{}
	resolver := NewResolver(store, WithResolverLogger(logger), WithResolverObserver(observer))

	got := resolver.ResolveAll(context.Background(), []ComponentReference{
		{ID: "note", Order: 0},
		{ID: "retired", Order: 1},
		{ID: "broken", Order: 2},
		{ID: "hero", Order: 3},
		{ID: "note", Order: 4, Options: &OverrideOptions{Content: map[string]any{"body": "again"}}},
	})

	var ids []string
	for _, d := range got {
		ids = append(ids, d.ID)
	}
	if diff := cmp.Diff([]string{"note", "hero", "note"}, ids); diff != "" {
		t.Fatalf("unexpected ids (-want +got):\n%s", diff)
	}
	if got[0].Content["body"] != "hello" || got[2].Content["body"] != "again" {
		t.Fatalf("duplicate references should resolve independently: %+v", got)
	}
	if diff := cmp.Diff([]string{ReasonInactive, ReasonStoreError}, observer.unresolved); diff != "" {
		t.Fatalf("unexpected reasons (-want +got):\n%s", diff)
	}
	if len(logger.messages) == 0 {
		t.Fatalf("expected store failure to be logged")
	}
}

func TestResolveReturnsStoreErrors(t *testing.T) {
	store := catalog()
	boom := errors.New("timeout")
	store.failures["hero"] = boom
	_, err := NewResolver(store).Resolve(context.Background(), ComponentReference{ID: "hero"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestResolveAllStopsOnCancelledContext(t *testing.T) {
	store := catalog()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := NewResolver(store).ResolveAll(ctx, []ComponentReference{{ID: "hero"}, {ID: "note"}})
	if len(got) != 0 {
		t.Fatalf("expected nothing resolved after cancellation, got %v", got)
	}
	if len(store.calls) != 0 {
		t.Fatalf("store should not be called after cancellation, got %v", store.calls)
	}
}

func TestExplainReportsProvenance(t *testing.T) {
	explanation, err := NewResolver(catalog()).Explain(context.Background(), ComponentReference{
		ID:      "hero",
		Options: &OverrideOptions{Content: map[string]any{"title": "Y"}},
	})
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	layers := map[string]string{}
	for _, p := range explanation.Content {
		layers[p.Key] = p.Layer
	}
	want := map[string]string{"meta": layering.LayerCanonical, "title": layering.LayerOverride}
	if diff := cmp.Diff(want, layers); diff != "" {
		t.Fatalf("unexpected provenance (-want +got):\n%s", diff)
	}
	if explanation.Type != TypeBanner {
		t.Fatalf("expected banner type, got %s", explanation.Type)
	}
}

func TestPaletteListsActiveComponents(t *testing.T) {
	resolver := NewResolver(catalog())
	got, err := resolver.Palette(context.Background())
	if err != nil {
		t.Fatalf("palette: %v", err)
	}
	want := []PaletteEntry{
		{
			ID:   "hero",
			Type: TypeBanner,
			Fields: []FieldDescriptor{
				{Path: "content.meta.a", Type: "number"},
				{Path: "content.meta.b", Type: "number"},
				{Path: "content.title", Type: "string"},
				{Path: "settings.fullWidth", Type: "boolean"},
				{Path: "settings.theme", Type: "string"},
			},
		},
		{
			ID:     "note",
			Type:   TypeText,
			Fields: []FieldDescriptor{{Path: "content.body", Type: "string"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("palette mismatch (-want +got):\n%s", diff)
	}
}

func TestPaletteStoreFailure(t *testing.T) {
	store := catalog()
	store.listErr = errors.New("offline")
	_, err := NewResolver(store).Palette(context.Background())
	if err == nil || !errors.Is(err, store.listErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
