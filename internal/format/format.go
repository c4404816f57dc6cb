// Package format renders prices, percentages and sparklines for display.
package format

import (
	"fmt"
	"strings"

	"github.com/novacrypto/nova/internal/model"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "CN¥",
	"INR": "₹",
	"KRW": "₩",
	"AUD": "A$",
	"CAD": "CA$",
	"BRL": "R$",
}

// NormalizeCurrency validates an ISO 4217 code and returns it lower-cased.
func NormalizeCurrency(code string) (string, error) {
	code = strings.TrimSpace(code)
	if len(code) != 3 {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidCurrency, code)
	}
	unit, err := currency.ParseISO(strings.ToUpper(code))
	if err != nil {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidCurrency, code)
	}
	return strings.ToLower(unit.String()), nil
}

// Symbol returns the display symbol for a currency code, or the upper-cased
// code followed by a space when no narrow symbol is known.
func Symbol(code string) string {
	upper := strings.ToUpper(code)
	if s, ok := symbols[upper]; ok {
		return s
	}
	return upper + " "
}

// Number formats v with grouping and no fraction digits above 100, two otherwise.
func Number(v float64) string {
	digits := 2
	if v > 100 {
		digits = 0
	}
	return printer.Sprint(number.Decimal(v, number.Scale(digits)))
}

// Currency formats v as an amount in the given quote currency, e.g. "$1,235".
func Currency(v float64, code string) string {
	if v < 0 {
		return "-" + Symbol(code) + Number(-v)
	}
	return Symbol(code) + Number(v)
}

// Percent formats a 24h change as a signed percentage with two decimals.
// The sign follows the rounded value, so values that round to zero read +0.00%.
func Percent(p *float64) string {
	if p == nil {
		return "n/a"
	}
	d := decimal.NewFromFloat(*p).Round(2)
	s := d.StringFixed(2)
	if !d.IsNegative() {
		s = "+" + s
	}
	return s + "%"
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders prices as a single line of block characters scaled
// between the series minimum and maximum. Long series are resampled to width.
func Sparkline(prices []float64, width int) string {
	if len(prices) == 0 || width <= 0 {
		return ""
	}
	if len(prices) > width {
		sampled := make([]float64, width)
		for i := range sampled {
			sampled[i] = prices[i*len(prices)/width]
		}
		prices = sampled
	}

	lo, hi := prices[0], prices[0]
	for _, p := range prices {
		lo = min(lo, p)
		hi = max(hi, p)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	top := float64(len(sparkBlocks) - 1)
	for _, p := range prices {
		b.WriteRune(sparkBlocks[int((p-lo)/span*top+0.5)])
	}
	return b.String()
}
