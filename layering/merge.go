// Package layering merges page-level overrides onto canonical component data.
//
// The merge is intentionally shallow: a key present in the override replaces
// the canonical value at that key wholesale, including nested maps and
// slices. Callers that want to change one nested field must resend the whole
// nested value.
package layering

import "sort"

// Layer names used in provenance records.
const (
	LayerCanonical = "component"
	LayerOverride  = "page"
)

// MergeOverride returns a new map holding canonical with every top-level key of
// override applied on top. Neither input is modified and the result shares no
// nested maps or slices with them. A nil result is returned only when both
// inputs are nil.
func MergeOverride(canonical, override map[string]any) map[string]any {
	if canonical == nil && override == nil {
		return nil
	}
	merged := make(map[string]any, len(canonical)+len(override))
	for key, value := range canonical {
		merged[key] = CloneValue(value)
	}
	for key, value := range override {
		merged[key] = CloneValue(value)
	}
	return merged
}

// Provenance records which layer supplied a top-level key.
type Provenance struct {
	Key        string `json:"key"`
	Layer      string `json:"layer"`
	Overridden bool   `json:"overridden"`
	Value      any    `json:"value,omitempty"`
}

// Trace explains MergeOverride key by key, sorted by key.
func Trace(canonical, override map[string]any) []Provenance {
	keys := make([]string, 0, len(canonical)+len(override))
	seen := make(map[string]struct{}, len(canonical)+len(override))
	for key := range canonical {
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	for key := range override {
		if _, ok := seen[key]; ok {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]Provenance, 0, len(keys))
	for _, key := range keys {
		if value, ok := override[key]; ok {
			_, shadowed := canonical[key]
			out = append(out, Provenance{
				Key:        key,
				Layer:      LayerOverride,
				Overridden: shadowed,
				Value:      CloneValue(value),
			})
			continue
		}
		out = append(out, Provenance{
			Key:   key,
			Layer: LayerCanonical,
			Value: CloneValue(canonical[key]),
		})
	}
	return out
}

// Clone deep copies a JSON-like map.
func Clone(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for key, value := range src {
		out[key] = CloneValue(value)
	}
	return out
}

// CloneValue deep copies maps and slices produced by JSON or YAML decoding.
// Scalars and unknown types are returned as-is.
func CloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return Clone(typed)
	case []any:
		if typed == nil {
			return typed
		}
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = CloneValue(typed[i])
		}
		return out
	case []map[string]any:
		if typed == nil {
			return typed
		}
		out := make([]map[string]any, len(typed))
		for i := range typed {
			out[i] = Clone(typed[i])
		}
		return out
	case []string:
		if typed == nil {
			return typed
		}
		return append([]string(nil), typed...)
	default:
		return value
	}
}
