package hydrate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDecoderFromFixtures(t *testing.T) {
	fx := loadFixture(t, "hydrate_components.json")

	for _, tc := range fx.Cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			decoder := NewDecoder[sliderContent](buildOptions(tc)...)

			ctx := Context{
				ComponentID: tc.ComponentID,
				Type:        tc.Type,
			}

			result, err := decoder.Decode(ctx, tc.Input)

			if tc.ExpectErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.ExpectErr)
				}
				if !strings.Contains(err.Error(), tc.ExpectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.ExpectErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}

			if !reflect.DeepEqual(tc.Expect, result) {
				t.Fatalf("decoded payload mismatch:\nwant: %#v\n got: %#v", tc.Expect, result)
			}
		})
	}
}

func TestDecodeNilPayload(t *testing.T) {
	result, err := NewDecoder[sliderContent]().Decode(Context{Type: "slider"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(sliderContent{}, result) {
		t.Fatalf("expected zero value, got %#v", result)
	}
}

func TestDecodeDoesNotMutateInput(t *testing.T) {
	input := map[string]any{"interval": "3s"}
	decoder := NewDecoder[sliderContent](WithNormalizer[sliderContent](intervalSeconds))
	if _, err := decoder.Decode(Context{Type: "slider"}, input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input["interval"] != "3s" {
		t.Fatalf("normalizer mutated caller content: %#v", input)
	}
}

func TestContextString(t *testing.T) {
	if got := (Context{Type: "banner"}).String(); got != "banner" {
		t.Fatalf("unexpected context label %q", got)
	}
	if got := (Context{Type: "banner", ComponentID: "hero"}).String(); got != "banner/hero" {
		t.Fatalf("unexpected context label %q", got)
	}
}

func buildOptions(tc fixtureCase) []Option[sliderContent] {
	options := []Option[sliderContent]{}
	for _, name := range tc.Options {
		if name == "strict" {
			options = append(options, Strict[sliderContent]())
		}
	}
	for _, name := range tc.Normalizers {
		switch name {
		case "interval_seconds":
			options = append(options, WithNormalizer[sliderContent](intervalSeconds))
		case "numeric_strings":
			options = append(options, WithNormalizer[sliderContent](NumericStrings("interval")))
		}
	}
	for _, name := range tc.Checks {
		switch name {
		case "require_slides":
			options = append(options, WithCheck[sliderContent](requireSlides))
		case "default_alt":
			options = append(options, WithCheck[sliderContent](defaultAlt))
		}
	}
	return options
}

// intervalSeconds accepts "<n>s" strings for the interval field.
func intervalSeconds(_ Context, content map[string]any) (map[string]any, error) {
	value, ok := content["interval"].(string)
	if !ok || value == "" {
		return content, nil
	}
	var seconds int
	if _, err := fmt.Sscanf(value, "%ds", &seconds); err != nil {
		return nil, fmt.Errorf("invalid interval %q", value)
	}
	content["interval"] = seconds * 1000
	return content, nil
}

func requireSlides(ctx Context, content *sliderContent) error {
	if len(content.Slides) == 0 {
		return fmt.Errorf("%s has no slides", ctx)
	}
	return nil
}

func defaultAlt(ctx Context, content *sliderContent) error {
	for i := range content.Slides {
		if content.Slides[i].Alt == "" {
			content.Slides[i].Alt = fmt.Sprintf("%s slide %d", ctx.ComponentID, i+1)
		}
	}
	return nil
}

type fixture struct {
	Description string        `json:"description"`
	Cases       []fixtureCase `json:"cases"`
}

type fixtureCase struct {
	Name        string         `json:"name"`
	ComponentID string         `json:"componentId"`
	Type        string         `json:"type"`
	Input       map[string]any `json:"input"`
	Expect      sliderContent  `json:"expect"`
	ExpectErr   string         `json:"expectErr"`
	Normalizers []string       `json:"normalizers"`
	Checks      []string       `json:"checks"`
	Options     []string       `json:"options"`
}

type sliderContent struct {
	Slides   []slide `json:"slides"`
	Autoplay bool    `json:"autoplay"`
	Interval int     `json:"interval"`
}

type slide struct {
	Image string `json:"image"`
	Alt   string `json:"alt"`
	Title string `json:"title"`
}

func loadFixture(t *testing.T, name string) fixture {
	t.Helper()
	path := filepath.Join("testdata", name)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read hydrate fixture %q: %v", name, err)
	}
	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		t.Fatalf("failed to unmarshal hydrate fixture %q: %v", name, err)
	}
	return fx
}
