package directives

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type fakeComponentStore struct {
	mu         sync.Mutex
	components map[string]Component
	failures   map[string]error
	calls      []string
	listErr    error
}

func newFakeComponentStore(components ...Component) *fakeComponentStore {
	store := &fakeComponentStore{
		components: map[string]Component{},
		failures:   map[string]error{},
	}
	for _, component := range components {
		store.components[component.ID] = component
	}
	return store
}

func (s *fakeComponentStore) GetByID(_ context.Context, id string) (*Component, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, id)
	if err := s.failures[id]; err != nil {
		return nil, err
	}
	component, ok := s.components[id]
	if !ok {
		return nil, nil
	}
	return &component, nil
}

func (s *fakeComponentStore) ListActive(context.Context) ([]Component, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []Component
	for _, component := range s.components {
		if component.IsActive {
			out = append(out, component)
		}
	}
	return out, nil
}

type fakePromotionStore struct {
	promotions    []Promotion
	codes         map[string]PromoCode
	promotionsErr error
	codeErrs      map[string]error
	delay         time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (s *fakePromotionStore) enter() func() {
	current := s.inFlight.Add(1)
	for {
		seen := s.maxInFlight.Load()
		if current <= seen || s.maxInFlight.CompareAndSwap(seen, current) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return func() { s.inFlight.Add(-1) }
}

func (s *fakePromotionStore) GetActivePromotions(context.Context) ([]Promotion, error) {
	defer s.enter()()
	if s.promotionsErr != nil {
		return nil, s.promotionsErr
	}
	return s.promotions, nil
}

func (s *fakePromotionStore) GetPromoCodeByCode(_ context.Context, code string) (*PromoCode, error) {
	defer s.enter()()
	if err := s.codeErrs[code]; err != nil {
		return nil, err
	}
	promo, ok := s.codes[code]
	if !ok {
		return nil, nil
	}
	return &promo, nil
}

type recordingObserver struct {
	mu         sync.Mutex
	parsed     []string
	malformed  int
	unresolved []string
	enrich     []string
	rules      []bool
	rendered   int
}

func (o *recordingObserver) DirectivesParsed(strategy string, _ int, malformed int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.parsed = append(o.parsed, strategy)
	o.malformed += malformed
}

func (o *recordingObserver) ReferenceUnresolved(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.unresolved = append(o.unresolved, reason)
}

func (o *recordingObserver) EnrichmentOutcome(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.enrich = append(o.enrich, outcome)
}

func (o *recordingObserver) RuleOutcome(visible bool, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rules = append(o.rules, visible)
}

func (o *recordingObserver) RenderCompleted(components int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rendered = components
}

type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, level+": "+msg)
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.record("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.record("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.record("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.record("error", msg) }
