package currency

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache(func() time.Time { return now })

	if _, err := c.Get(ctx, "rates:USD"); !errors.Is(err, ErrMiss) {
		t.Fatalf("empty cache err=%v", err)
	}
	_ = c.Put(ctx, "rates:USD", fallbackRates(), now.Add(time.Hour))

	now = now.Add(59 * time.Minute)
	if r, err := c.Get(ctx, "rates:USD"); err != nil || r.Rates["EUR"] != 0.85 {
		t.Fatalf("fresh get r=%+v err=%v", r, err)
	}
	now = now.Add(time.Minute)
	if _, err := c.Get(ctx, "rates:USD"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expired get err=%v", err)
	}
}
