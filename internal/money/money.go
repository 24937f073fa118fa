// Package money parses and formats the currency-prefixed amount strings
// expenditures are stored with ("£12.50").
package money

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ErrNoDigits is returned when an amount string contains no number at all.
var ErrNoDigits = errors.New("amount has no digits")

// Parse extracts the numeric value from an amount string. Any run of
// non-numeric characters before the number is treated as a currency prefix,
// which tolerates mis-encoded symbols such as "Â£". A minus sign anywhere in
// the prefix makes the amount negative.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	start := strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsDigit(r) || r == '.'
	})
	if start < 0 {
		return decimal.Zero, fmt.Errorf("parsing %q: %w", s, ErrNoDigits)
	}

	prefix, num := s[:start], s[start:]
	num = strings.ReplaceAll(num, ",", "")
	if end := strings.IndexFunc(num, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	}); end >= 0 {
		num = num[:end]
	}

	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %q: %w", s, err)
	}
	if strings.Contains(prefix, "-") {
		d = d.Neg()
	}
	return d, nil
}

// ParseLimit parses a bare budget limit such as "200" or "12.5".
// ok is false for an empty or malformed limit.
func ParseLimit(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := Parse(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Format renders d with a currency symbol and two decimals: "£12.50", "-£3.00".
func Format(d decimal.Decimal, symbol string) string {
	if d.IsNegative() {
		return "-" + symbol + d.Neg().StringFixed(2)
	}
	return symbol + d.StringFixed(2)
}

// Sum adds up the parsable amounts and reports how many could not be parsed.
func Sum(amounts []string) (total decimal.Decimal, unparsed int) {
	total = decimal.Zero
	for _, a := range amounts {
		d, err := Parse(a)
		if err != nil {
			unparsed++
			continue
		}
		total = total.Add(d)
	}
	return total, unparsed
}
