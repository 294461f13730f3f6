package directives

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type tokenPayload struct {
	Content  map[string]any `json:"content"`
	Settings map[string]any `json:"settings"`
}

// Serialize renders components as newline separated inline directives,
// ordered by Order (stable). encoding/json sorts map keys, so unchanged data
// always serializes to the same bytes.
func Serialize(components []ResolvedComponent) (string, error) {
	ordered := append([]ResolvedComponent(nil), components...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	lines := make([]string, 0, len(ordered))
	for _, component := range ordered {
		if !ValidComponentID(component.ID) {
			return "", fmt.Errorf("%w: %q", ErrInvalidComponentID, component.ID)
		}
		if component.Order < 0 {
			return "", fmt.Errorf("%w: %q has order %d", ErrInvalidOrder, component.ID, component.Order)
		}
		payload, err := json.Marshal(tokenPayload{
			Content:  component.Content,
			Settings: component.Settings,
		})
		if err != nil {
			return "", fmt.Errorf("directives: encode component %q: %w", component.ID, err)
		}
		lines = append(lines, FormatToken(component.ID, component.Order, payload))
	}
	return strings.Join(lines, "\n"), nil
}

// Renumber returns a copy of components with orders rewritten to 0, step,
// 2*step... following their current order. Editors call it after drag and
// drop so serialized orders stay unique.
func Renumber(components []ResolvedComponent, step int) []ResolvedComponent {
	if step <= 0 {
		step = StructuredOrderStep
	}
	out := append([]ResolvedComponent(nil), components...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	for i := range out {
		out[i].Order = i * step
	}
	return out
}
