package directives

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"
)

// ParseStrategy recognises one source grammar. TryParse returns ok=false when
// content is not in its grammar so the next strategy can be tried.
type ParseStrategy interface {
	Name() string
	TryParse(content string) (refs []ComponentReference, ok bool)
}

// StructuredOrderStep is the gap left between structured-form components so
// editors can insert items without renumbering.
const StructuredOrderStep = 10

// StructuredStrategy accepts content that is exactly a JSON document of the
// form {"components": [{"id": ..., "settings": {...}}, ...]}.
type StructuredStrategy struct{}

func (StructuredStrategy) Name() string { return "structured" }

// TryParse walks the components array element by element. An element
// without a string id is skipped; settings that are not an object are dropped
// and the reference is kept, as with a bad inline payload.
func (StructuredStrategy) TryParse(content string) ([]ComponentReference, bool) {
	if !gjson.Valid(content) {
		return nil, false
	}
	components := gjson.Get(content, "components")
	if !components.IsArray() {
		return nil, false
	}
	elements := components.Array()
	refs := make([]ComponentReference, 0, len(elements))
	for i, element := range elements {
		id := element.Get("id")
		if id.Type != gjson.String || id.Str == "" {
			continue
		}
		ref := ComponentReference{ID: id.Str, Order: i * StructuredOrderStep}
		switch settings := element.Get("settings"); {
		case !settings.Exists() || settings.Type == gjson.Null:
			ref.Options = &OverrideOptions{}
		case settings.IsObject():
			var values map[string]any
			if err := decodeJSON([]byte(settings.Raw), &values); err == nil {
				ref.Options = &OverrideOptions{Settings: values}
			}
		}
		refs = append(refs, ref)
	}
	return refs, true
}

// InlineStrategy extracts <!-- component:... --> tokens from prose. It always
// succeeds, returning an empty list when no tokens are present.
type InlineStrategy struct {
	// OnMalformed is called once per recovered token.
	OnMalformed func(*MalformedDirectiveError)
}

func (InlineStrategy) Name() string { return "inline" }

func (s InlineStrategy) TryParse(content string) ([]ComponentReference, bool) {
	tokens := Tokenize(content)
	refs := make([]ComponentReference, 0, len(tokens))
	for _, token := range tokens {
		order, err := token.order()
		if err != nil {
			s.report(token, err)
			continue
		}
		ref := ComponentReference{ID: token.ID, Order: order}
		if token.HasPayload {
			var options OverrideOptions
			if err := decodeJSON([]byte(token.Payload), &options); err != nil {
				s.report(token, err)
			} else {
				ref.Options = &options
			}
		}
		refs = append(refs, ref)
	}
	return refs, true
}

func (s InlineStrategy) report(token Token, err error) {
	if s.OnMalformed == nil {
		return
	}
	s.OnMalformed(&MalformedDirectiveError{
		ID:      token.ID,
		Order:   token.Order,
		Payload: token.Payload,
		Offset:  token.Start,
		Err:     err,
	})
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithStrategies replaces the default strategy chain.
func WithStrategies(strategies ...ParseStrategy) ParserOption {
	return func(p *Parser) {
		p.strategies = nil
		for _, strategy := range strategies {
			if strategy != nil {
				p.strategies = append(p.strategies, strategy)
			}
		}
	}
}

// WithParserLogger sets the logger used for malformed directive warnings.
func WithParserLogger(logger Logger) ParserOption {
	return func(p *Parser) {
		p.logger = loggerOrNop(logger)
	}
}

// WithParserObserver sets the observer notified after each parse.
func WithParserObserver(observer Observer) ParserOption {
	return func(p *Parser) {
		p.observer = observerOrNop(observer)
	}
}

// Parser turns raw page content into ordered component references. A Parser
// holds no mutable state and is safe for concurrent use.
type Parser struct {
	strategies []ParseStrategy
	logger     Logger
	observer   Observer
}

// NewParser builds a parser with the structured then inline strategy chain.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		logger:   noopLogger{},
		observer: noopObserver{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if len(p.strategies) == 0 {
		p.strategies = []ParseStrategy{StructuredStrategy{}, InlineStrategy{}}
	}
	return p
}

var defaultParser = NewParser()

// Parse extracts references from content using the default strategy chain.
func Parse(content string) []ComponentReference {
	return defaultParser.Parse(content)
}

// Parse extracts references from content, sorted by order. Ties keep their
// document order. Malformed tokens are logged and recovered.
func (p *Parser) Parse(content string) []ComponentReference {
	refs, _ := p.ParseWithDiagnostics(content)
	return refs
}

// ParseWithDiagnostics is Parse plus one error per recovered token.
func (p *Parser) ParseWithDiagnostics(content string) ([]ComponentReference, []error) {
	var diagnostics []error
	onMalformed := func(err *MalformedDirectiveError) {
		p.logger.Warn("malformed component directive",
			"component_id", err.ID,
			"order", err.Order,
			"offset", err.Offset,
			"error", err.Err.Error(),
		)
		diagnostics = append(diagnostics, err)
	}

	for _, strategy := range p.strategies {
		switch inline := strategy.(type) {
		case InlineStrategy:
			if inline.OnMalformed == nil {
				inline.OnMalformed = onMalformed
				strategy = inline
			}
		case *InlineStrategy:
			if inline != nil && inline.OnMalformed == nil {
				scoped := *inline
				scoped.OnMalformed = onMalformed
				strategy = scoped
			}
		}
		refs, ok := strategy.TryParse(content)
		if !ok {
			continue
		}
		sortReferences(refs)
		p.observer.DirectivesParsed(strategy.Name(), len(refs), len(diagnostics))
		return refs, diagnostics
	}
	p.observer.DirectivesParsed("none", 0, len(diagnostics))
	return []ComponentReference{}, diagnostics
}

func sortReferences(refs []ComponentReference) {
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].Order < refs[j].Order
	})
}

func (r ComponentReference) String() string {
	return fmt.Sprintf("%s@%d", r.ID, r.Order)
}

// decodeJSON decodes one JSON value into v keeping numbers exact: integers
// come back as int and everything else as float64, matching what the YAML
// catalog produces, so Parse(Serialize(x)) reproduces x.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	switch out := v.(type) {
	case *OverrideOptions:
		out.Content = normalizeObject(out.Content)
		out.Settings = normalizeObject(out.Settings)
	case *map[string]any:
		*out = normalizeObject(*out)
	}
	return nil
}

func normalizeObject(values map[string]any) map[string]any {
	for key, value := range values {
		values[key] = normalizeNumbers(value)
	}
	return values
}

func normalizeNumbers(value any) any {
	switch v := value.(type) {
	case json.Number:
		if n, err := strconv.ParseInt(string(v), 10, 0); err == nil {
			return int(n)
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v
	case map[string]any:
		return normalizeObject(v)
	case []any:
		for i := range v {
			v[i] = normalizeNumbers(v[i])
		}
		return v
	}
	return value
}
