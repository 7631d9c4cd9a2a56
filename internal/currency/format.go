package currency

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

var symbols = map[string]string{"USD": "$", "EUR": "€", "GBP": "£"}

// FormatCurrency renders whole units with grouping, e.g. "$85,000".
func FormatCurrency(amount float64, code string) string {
	if amount == 0 {
		return "Salary not specified"
	}
	sym, ok := symbols[code]
	if !ok {
		sym = code + " "
	}
	n := int64(math.Round(amount))
	if n < 0 {
		return printer.Sprintf("-%s%d", sym, -n)
	}
	return printer.Sprintf("%s%d", sym, n)
}

func FormatSalaryRange(min, max float64) string {
	switch {
	case min == 0 && max == 0:
		return "Salary not specified"
	case max == 0:
		return FormatCurrency(min, "USD") + "+"
	case min == 0:
		return "Up to " + FormatCurrency(max, "USD")
	}
	return FormatCurrency(min, "USD") + " - " + FormatCurrency(max, "USD")
}

// FormattedRates lists "1 USD = 0.85 EUR" lines for every supported currency
// other than the base.
func FormattedRates(r Rates) []string {
	out := make([]string, 0, len(Supported))
	for _, code := range Supported {
		if code == r.Base {
			continue
		}
		rate, ok := r.rate(code)
		if !ok {
			continue
		}
		out = append(out, printer.Sprintf("1 %s = %.2f %s", r.Base, rate, code))
	}
	return out
}
