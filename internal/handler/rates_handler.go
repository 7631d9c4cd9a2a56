package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/zaposlitev-backend/internal/currency"
)

type RatesSource interface {
	Rates(ctx context.Context, base string) (currency.Rates, error)
}

type RatesHandler struct {
	src RatesSource
}

func NewRatesHandler(src RatesSource) *RatesHandler {
	return &RatesHandler{src: src}
}

type RatesResponse struct {
	Base        string             `json:"base"`
	Rates       map[string]float64 `json:"rates"`
	Formatted   []string           `json:"formatted"`
	LastUpdated string             `json:"lastUpdated,omitempty"`
}

func (h *RatesHandler) Get(c echo.Context) error {
	r, err := h.src.Rates(c.Request().Context(), "USD")
	if err != nil {
		return c.JSON(http.StatusBadGateway, NewErrorResponse("upstream_error", "failed to fetch exchange rates"))
	}
	resp := RatesResponse{
		Base:      r.Base,
		Rates:     make(map[string]float64, len(currency.Supported)),
		Formatted: currency.FormattedRates(r),
	}
	for _, code := range currency.Supported {
		if v, ok := r.Rates[code]; ok {
			resp.Rates[code] = v
		}
	}
	if !r.UpdatedAt.IsZero() {
		resp.LastUpdated = r.UpdatedAt.Format(time.RFC3339)
	}
	return c.JSON(http.StatusOK, resp)
}
