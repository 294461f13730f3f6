package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	directives "github.com/goliatone/go-directives"
)

// PromotionsOption configures a Promotions store.
type PromotionsOption func(*Promotions)

// WithPromotionClock overrides the clock used for the active window check.
func WithPromotionClock(now func() time.Time) PromotionsOption {
	return func(s *Promotions) {
		if now != nil {
			s.now = now
		}
	}
}

// Promotions is an in-memory directives.PromotionStore.
type Promotions struct {
	mu         sync.RWMutex
	promotions map[string]directives.Promotion
	codes      map[string]directives.PromoCode
	now        func() time.Time
}

// NewPromotions builds an empty promotion store.
func NewPromotions(opts ...PromotionsOption) *Promotions {
	s := &Promotions{
		promotions: map[string]directives.Promotion{},
		codes:      map[string]directives.PromoCode{},
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// PutPromotion inserts or replaces a promotion.
func (s *Promotions) PutPromotion(promo directives.Promotion) {
	s.mu.Lock()
	s.promotions[promo.ID] = promo
	s.mu.Unlock()
}

// PutCode inserts or replaces a promo code. Codes match case-insensitively.
func (s *Promotions) PutCode(code directives.PromoCode) {
	s.mu.Lock()
	s.codes[codeKey(code.Code)] = code
	s.mu.Unlock()
}

// GetActivePromotions returns active promotions whose window contains now,
// highest priority first. Ties sort by id.
func (s *Promotions) GetActivePromotions(_ context.Context) ([]directives.Promotion, error) {
	now := s.now()
	s.mu.RLock()
	out := make([]directives.Promotion, 0, len(s.promotions))
	for _, promo := range s.promotions {
		if live(promo, now) {
			out = append(out, promo)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetPromoCodeByCode returns (nil, nil) for unknown codes.
func (s *Promotions) GetPromoCodeByCode(_ context.Context, code string) (*directives.PromoCode, error) {
	s.mu.RLock()
	promo, ok := s.codes[codeKey(code)]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &promo, nil
}

func live(promo directives.Promotion, now time.Time) bool {
	if !promo.IsActive {
		return false
	}
	if !promo.StartDate.IsZero() && now.Before(promo.StartDate) {
		return false
	}
	if !promo.EndDate.IsZero() && now.After(promo.EndDate) {
		return false
	}
	return true
}

func codeKey(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
