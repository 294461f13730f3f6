package directives

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDescribeFields(t *testing.T) {
	got := DescribeFields(map[string]any{
		"title":  "Hello",
		"button": map[string]any{"label": "Go", "url": "/go"},
		"slides": []any{map[string]any{"image": "/a.png"}},
		"limit":  4.0,
		"empty":  map[string]any{},
		"hidden": false,
		"poster": nil,
	})
	want := []FieldDescriptor{
		{Path: "button.label", Type: "string"},
		{Path: "button.url", Type: "string"},
		{Path: "empty", Type: "object"},
		{Path: "hidden", Type: "boolean"},
		{Path: "limit", Type: "number"},
		{Path: "poster", Type: "null"},
		{Path: "slides", Type: "[]object"},
		{Path: "title", Type: "string"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected descriptors (-want +got):\n%s", diff)
	}
}

func TestDescribeFieldsEmpty(t *testing.T) {
	if got := DescribeFields(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty descriptors, got %#v", got)
	}
}

func TestDescribeDescriptor(t *testing.T) {
	got := DescribeDescriptor(RenderDescriptor{
		Content:  map[string]any{"title": "Hi"},
		Settings: map[string]any{"visibleWhen": "page.isHomepage"},
	})
	want := []FieldDescriptor{
		{Path: "content.title", Type: "string"},
		{Path: "settings.visibleWhen", Type: "string"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected descriptors (-want +got):\n%s", diff)
	}
}
