package currency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RateProvider fetches fresh rates for a base currency.
type RateProvider interface {
	Latest(ctx context.Context, base string) (Rates, error)
}

type latestResponse struct {
	Base            string             `json:"base"`
	TimeLastUpdated int64              `json:"time_last_updated"`
	Rates           map[string]float64 `json:"rates"`
}

// HTTPProvider talks to an exchangerate-api style endpoint: GET {baseURL}/{BASE}.
type HTTPProvider struct {
	client  *resty.Client
	baseURL string
}

func NewHTTPProvider(baseURL string) *HTTPProvider {
	client := resty.New().
		SetTimeout(10*time.Second).
		SetHeader("Accept", "application/json")
	return &HTTPProvider{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (p *HTTPProvider) Latest(ctx context.Context, base string) (Rates, error) {
	var body latestResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetResult(&body).
		Get(p.baseURL + "/" + base)
	if err != nil {
		return Rates{}, fmt.Errorf("exchange rates: %w", err)
	}
	if resp.IsError() {
		return Rates{}, fmt.Errorf("exchange rates: status %d", resp.StatusCode())
	}
	if len(body.Rates) == 0 {
		return Rates{}, errors.New("exchange rates: empty response")
	}
	r := Rates{Base: strings.ToUpper(body.Base), Rates: body.Rates}
	if r.Base == "" {
		r.Base = base
	}
	if body.TimeLastUpdated > 0 {
		r.UpdatedAt = time.Unix(body.TimeLastUpdated, 0).UTC()
	}
	return r, nil
}
