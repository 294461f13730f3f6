package directives

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

var ruleEvaluators = []struct {
	name string
	new  func(opts ...EvaluatorOption) Evaluator
}{
	{name: RulesEngineExpr, new: NewExprEvaluator},
	{name: RulesEngineCEL, new: NewCELEvaluator},
}

func withRule(rule string) RenderDescriptor {
	return RenderDescriptor{
		ID:       "hero",
		Type:     TypeBanner,
		Content:  map[string]any{"title": "Hi"},
		Settings: map[string]any{SettingVisibleWhen: rule, "audience": "vip"},
	}
}

func TestVisibilityAcrossEngines(t *testing.T) {
	page := PageContext{ID: "p1", Slug: "home", IsHomepage: true, Published: true}
	cases := []struct {
		rule string
		want bool
	}{
		{rule: "page.isHomepage", want: true},
		{rule: `page.slug == "about"`, want: false},
		{rule: `settings.audience == "vip" && content.title == "Hi"`, want: true},
	}

	for _, factory := range ruleEvaluators {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			visibility := NewVisibility(factory.new(WithRuleCache(NewLRUProgramCache(8))))
			for _, tc := range cases {
				got, err := visibility.Visible(withRule(tc.rule), page)
				if err != nil {
					t.Fatalf("%s: unexpected error %v", tc.rule, err)
				}
				if got != tc.want {
					t.Fatalf("%s: expected %v, got %v", tc.rule, tc.want, got)
				}
			}
		})
	}
}

func TestVisibilityWithoutRule(t *testing.T) {
	visibility := NewVisibility(nil)
	got, err := visibility.Visible(RenderDescriptor{ID: "a"}, PageContext{})
	if err != nil || !got {
		t.Fatalf("components without rules are visible, got %v %v", got, err)
	}
}

func TestVisibilityFailsOpen(t *testing.T) {
	visibility := NewVisibility(NewExprEvaluator())

	visible, err := visibility.Visible(withRule(`"not a bool"`), PageContext{})
	if !visible || err == nil {
		t.Fatalf("non bool rule should stay visible with an error, got %v %v", visible, err)
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Component != "hero" {
		t.Fatalf("expected EvaluationError for hero, got %v", err)
	}

	visible, err = visibility.Visible(withRule("page.("), PageContext{})
	if !visible || err == nil {
		t.Fatalf("invalid rule should stay visible with an error, got %v %v", visible, err)
	}
}

func TestVisibilityUsesClock(t *testing.T) {
	launch := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	d := withRule(`now >= timestamp("2026-03-01T00:00:00Z")`)

	before := NewVisibility(NewCELEvaluator(), WithRuleClock(func() time.Time { return launch.Add(-time.Hour) }))
	after := NewVisibility(NewCELEvaluator(), WithRuleClock(func() time.Time { return launch.Add(time.Hour) }))

	if got, err := before.Visible(d, PageContext{}); err != nil || got {
		t.Fatalf("expected hidden before launch, got %v %v", got, err)
	}
	if got, err := after.Visible(d, PageContext{}); err != nil || !got {
		t.Fatalf("expected visible after launch, got %v %v", got, err)
	}
}

func TestVisibilityFunctionRegistry(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("insegment", func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, errors.New("insegment expects 1 arg")
		}
		segment, _ := args[0].(string)
		return strings.HasPrefix(segment, "v"), nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	rules := map[string]string{
		"expr": "insegment(settings.audience)",
		"cel":  `call("insegment", settings.audience) == true`,
	}
	for _, factory := range ruleEvaluators {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			visibility := NewVisibility(factory.new(WithRuleFunctions(registry)))
			got, err := visibility.Visible(withRule(rules[factory.name]), PageContext{})
			if err != nil || !got {
				t.Fatalf("expected registry function to be callable, got %v %v", got, err)
			}
		})
	}
}

func TestCELRegistryErrorKeepsMessage(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("quota", func(...any) (any, error) {
		return nil, errors.New("quota at 100% for %s")
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	visibility := NewVisibility(NewCELEvaluator(WithRuleFunctions(registry)))
	visible, err := visibility.Visible(withRule(`call("quota") == true`), PageContext{})
	if !visible || err == nil {
		t.Fatalf("failing function should stay visible with an error, got %v %v", visible, err)
	}
	if !strings.Contains(err.Error(), "quota at 100% for %s") {
		t.Fatalf("function error text not preserved: %v", err)
	}
}

func TestVisibilityFilterLogsAndObserves(t *testing.T) {
	logger := &recordingLogger{}
	observer := &recordingObserver{}
	var events []EvaluatorLogEvent
	visibility := NewVisibility(NewExprEvaluator(),
		WithVisibilityLogger(logger),
		WithVisibilityObserver(observer),
		WithRuleLogger(EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
			events = append(events, event)
		})),
	)

	descriptors := []RenderDescriptor{
		withRule("false"),
		{ID: "always", Type: TypeText},
		withRule("1 +"),
	}
	descriptors[2].ID = "broken"

	got := visibility.Filter(context.Background(), descriptors, PageContext{})
	if len(got) != 2 || got[0].ID != "always" || got[1].ID != "broken" {
		t.Fatalf("unexpected visible set: %+v", got)
	}
	if len(observer.rules) != 3 {
		t.Fatalf("expected 3 rule outcomes, got %v", observer.rules)
	}
	if len(events) != 2 || events[0].Engine != "expr" {
		t.Fatalf("expected 2 evaluation events from expr, got %+v", events)
	}
	if len(logger.messages) != 1 {
		t.Fatalf("expected one warning for the broken rule, got %v", logger.messages)
	}
}

func TestBuiltinRuleHelpers(t *testing.T) {
	d := withRule("")
	d.Content["promoCode"] = "  "
	rules := map[string][]string{
		RulesEngineExpr: {"blank(content.promoCode)", "blank(content.missing)", `truthy(settings.audience)`},
		RulesEngineCEL:  {`call("blank", content.promoCode) == true`, `call("truthy", settings.audience) == true`},
	}
	for _, factory := range ruleEvaluators {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			evaluator := factory.new()
			for _, rule := range rules[factory.name] {
				d.Settings[SettingVisibleWhen] = rule
				got, err := NewVisibility(evaluator).Visible(d, PageContext{})
				if err != nil || !got {
					t.Fatalf("%s: expected true, got %v %v", rule, got, err)
				}
			}
		})
	}
}

func TestRegistryOverridesBuiltinHelper(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register(FuncBlank, func(...any) (any, error) { return false, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	got, err := NewVisibility(NewExprEvaluator(WithRuleFunctions(registry))).
		Visible(withRule("blank(content.missing)"), PageContext{})
	if err != nil || got {
		t.Fatalf("expected registry blank to win, got %v %v", got, err)
	}
	if names := registry.Names(); len(names) != 1 {
		t.Fatalf("caller registry must not gain helpers, got %v", names)
	}
}

func TestRuleCacheSharedAcrossEngines(t *testing.T) {
	cache := NewLRUProgramCache(8)
	d := withRule(`settings.audience == "vip"`)
	for _, factory := range ruleEvaluators {
		visibility := NewVisibility(factory.new(WithRuleCache(cache)))
		for i := 0; i < 2; i++ {
			if got, err := visibility.Visible(d, PageContext{}); err != nil || !got {
				t.Fatalf("%s: expected visible, got %v %v", factory.name, got, err)
			}
		}
	}
	if n := cache.(*lruProgramCache).Len(); n != 2 {
		t.Fatalf("expected one cached program per engine, got %d", n)
	}
}
