package directives

import "time"

// Unresolved reasons reported to Observer.ReferenceUnresolved.
const (
	ReasonNotFound   = "not_found"
	ReasonInactive   = "inactive"
	ReasonStoreError = "store_error"
)

// Enrichment outcomes reported to Observer.EnrichmentOutcome.
const (
	EnrichSkipped      = "skipped"
	EnrichPromoCode    = "promo_code"
	EnrichActive       = "active_promotion"
	EnrichMiss         = "miss"
	EnrichStoreFailure = "failure"
)

// Observer receives engine counters. Implementations must be safe for
// concurrent use; see the metrics package for a Prometheus collector.
type Observer interface {
	DirectivesParsed(strategy string, references, malformed int)
	ReferenceUnresolved(reason string)
	EnrichmentOutcome(outcome string)
	RuleOutcome(visible bool, err error)
	RenderCompleted(components int, duration time.Duration)
}

type noopObserver struct{}

func (noopObserver) DirectivesParsed(string, int, int)  {}
func (noopObserver) ReferenceUnresolved(string)         {}
func (noopObserver) EnrichmentOutcome(string)           {}
func (noopObserver) RuleOutcome(bool, error)            {}
func (noopObserver) RenderCompleted(int, time.Duration) {}

func observerOrNop(observer Observer) Observer {
	if observer == nil {
		return noopObserver{}
	}
	return observer
}
