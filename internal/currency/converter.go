package currency

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Converter normalizes amounts to USD using cached provider rates.
type Converter struct {
	cache    Cache
	provider RateProvider
	ttl      time.Duration
	now      func() time.Time
}

func NewConverter(cache Cache, provider RateProvider, ttl time.Duration, now func() time.Time) *Converter {
	if now == nil {
		now = time.Now
	}
	return &Converter{cache: cache, provider: provider, ttl: ttl, now: now}
}

func cacheKey(base string) string {
	return "rates:" + base
}

// Rates returns rates for base, from the cache when fresh. If the provider
// fails for USD the built-in table is returned and nothing is cached.
func (c *Converter) Rates(ctx context.Context, base string) (Rates, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	key := cacheKey(base)
	r, err := c.cache.Get(ctx, key)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, ErrMiss) {
		log.Printf("[currency] key=%s stage=cache_get err=%v", key, err)
	}

	r, err = c.provider.Latest(ctx, base)
	if err != nil {
		log.Printf("[currency] base=%s stage=fetch err=%v", base, err)
		if base == "USD" {
			return fallbackRates(), nil
		}
		return Rates{}, err
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = c.now()
	}
	if err := c.cache.Put(ctx, key, r, c.now().Add(c.ttl)); err != nil {
		log.Printf("[currency] key=%s stage=cache_put err=%v", key, err)
	}
	return r, nil
}

// ToUSD converts amount in code to US dollars.
func (c *Converter) ToUSD(ctx context.Context, amount float64, code string) (float64, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !IsSupported(code) {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, code)
	}
	if code == "USD" {
		return amount, nil
	}
	r, err := c.Rates(ctx, "USD")
	if err != nil {
		return 0, err
	}
	rate, ok := r.rate(code)
	if !ok {
		rate, _ = fallbackRates().rate(code)
	}
	return amount / rate, nil
}
