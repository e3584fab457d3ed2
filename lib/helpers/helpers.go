package helpers

import (
	"html"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Placeholder shown in replies for a value that could not be fetched yet.
const Unknown = "???"

var (
	fractionRe = regexp.MustCompile(`\.\d+`)

	// bareThreshold marks prices that are already whole rubles.
	bareThreshold = decimal.NewFromInt(10000)
)

// NormalizePrice rounds a decimal string to two fractional digits, half away from zero.
func NormalizePrice(value string) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return "", errors.Wrapf(err, "invalid price %q", value)
	}
	return d.StringFixed(2), nil
}

// NormalizeFloat is NormalizePrice for values that were decoded as numbers.
func NormalizeFloat(value float64) string {
	return decimal.NewFromFloat(value).StringFixed(2)
}

// StripFraction removes any whitespace from a scraped price and drops its
// fractional part once the value exceeds the whole-ruble threshold.
func StripFraction(value string) string {
	price := strings.Join(strings.Fields(value), "")

	d, err := decimal.NewFromString(price)
	if err == nil && d.GreaterThan(bareThreshold) {
		return fractionRe.ReplaceAllString(price, "")
	}
	return price
}

// DropFraction removes any whitespace from a scraped price and always drops
// its fractional part.
func DropFraction(value string) string {
	return fractionRe.ReplaceAllString(strings.Join(strings.Fields(value), ""), "")
}

// IsPositive reports whether value parses as a decimal greater than zero.
func IsPositive(value string) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	return err == nil && d.IsPositive()
}

// SignedPercent renders a percentage change with an explicit sign, using an
// en dash for negative values.
func SignedPercent(value float64) string {
	formatted := NormalizeFloat(value)
	if strings.HasPrefix(formatted, "-") {
		return "–" + formatted[1:]
	}
	return "+" + formatted
}

func EscapeHTML(text string) string {
	return html.EscapeString(text)
}

// SearchKey lowercases text and removes all whitespace so that
// "RTX 3070 Ti" and "3070ti" can be compared by containment.
func SearchKey(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), ""))
}

// AddToPrice adds delta to a decimal price string and rounds to two digits.
func AddToPrice(value string, delta int64) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return "", errors.Wrapf(err, "invalid price %q", value)
	}
	return d.Add(decimal.NewFromInt(delta)).StringFixed(2), nil
}
