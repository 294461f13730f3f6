// Package hydrate decodes the loosely typed content map of a component into
// its typed payload struct.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Context identifies the component being decoded.
type Context struct {
	ComponentID string
	Type        string
}

func (c Context) String() string {
	if c.ComponentID == "" {
		return c.Type
	}
	return c.Type + "/" + c.ComponentID
}

// Normalizer rewrites content before decoding. It receives a private copy
// and may modify it in place.
type Normalizer func(Context, map[string]any) (map[string]any, error)

// Check validates, or fills defaults on, the decoded payload.
type Check[T any] func(Context, *T) error

// Option configures a Decoder.
type Option[T any] func(*Decoder[T])

// WithNormalizer runs fn before decoding. Normalizers run in order.
func WithNormalizer[T any](fn Normalizer) Option[T] {
	return func(d *Decoder[T]) {
		if fn != nil {
			d.normalizers = append(d.normalizers, fn)
		}
	}
}

// WithCheck runs fn after decoding. Checks run in order.
func WithCheck[T any](fn Check[T]) Option[T] {
	return func(d *Decoder[T]) {
		if fn != nil {
			d.checks = append(d.checks, fn)
		}
	}
}

// Strict rejects content keys that T does not declare.
func Strict[T any]() Option[T] {
	return func(d *Decoder[T]) {
		d.strict = true
	}
}

// Decoder converts component content into T.
type Decoder[T any] struct {
	normalizers []Normalizer
	checks      []Check[T]
	strict      bool
}

func NewDecoder[T any](opts ...Option[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts content into T. A nil map decodes to the zero value. The
// caller's map is never modified.
func (d *Decoder[T]) Decode(ctx Context, content map[string]any) (T, error) {
	var zero T
	if content == nil {
		content = map[string]any{}
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return zero, fmt.Errorf("hydrate: encode %s: %w", ctx, err)
	}

	if len(d.normalizers) > 0 {
		var working map[string]any
		if err := json.Unmarshal(raw, &working); err != nil {
			return zero, fmt.Errorf("hydrate: copy %s: %w", ctx, err)
		}
		for _, normalize := range d.normalizers {
			next, err := normalize(ctx, working)
			if err != nil {
				return zero, fmt.Errorf("hydrate: normalize %s: %w", ctx, err)
			}
			if next != nil {
				working = next
			}
		}
		if raw, err = json.Marshal(working); err != nil {
			return zero, fmt.Errorf("hydrate: encode %s: %w", ctx, err)
		}
	}

	var out T
	dec := json.NewDecoder(bytes.NewReader(raw))
	if d.strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&out); err != nil {
		return zero, fmt.Errorf("hydrate: decode %s: %w", ctx, err)
	}
	for _, check := range d.checks {
		if err := check(ctx, &out); err != nil {
			return zero, fmt.Errorf("hydrate: check %s: %w", ctx, err)
		}
	}
	return out, nil
}

// NumericStrings converts quoted numbers under keys, such as "20" for a
// discount, into numbers. Strings that do not parse are left for the decoder
// to reject.
func NumericStrings(keys ...string) Normalizer {
	return func(_ Context, content map[string]any) (map[string]any, error) {
		for _, key := range keys {
			text, ok := content[key].(string)
			if !ok {
				continue
			}
			text = strings.TrimSpace(text)
			if text == "" {
				delete(content, key)
				continue
			}
			if number, err := strconv.ParseFloat(text, 64); err == nil {
				content[key] = number
			}
		}
		return content, nil
	}
}
