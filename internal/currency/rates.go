package currency

import (
	"errors"
	"time"
)

var ErrUnsupportedCurrency = errors.New("unsupported currency")

// Rates holds how many units of each currency one unit of Base buys.
type Rates struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Supported lists the currencies postings may be entered in.
var Supported = []string{"USD", "EUR", "GBP"}

// IsSupported reports whether code is one of Supported. code must already be
// upper case.
func IsSupported(code string) bool {
	for _, s := range Supported {
		if s == code {
			return true
		}
	}
	return false
}

// fallbackRates are used when the provider cannot be reached.
func fallbackRates() Rates {
	return Rates{
		Base:  "USD",
		Rates: map[string]float64{"USD": 1, "EUR": 0.85, "GBP": 0.73},
	}
}

func (r Rates) rate(code string) (float64, bool) {
	if code == r.Base {
		return 1, true
	}
	v, ok := r.Rates[code]
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}
