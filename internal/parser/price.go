package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/maltedev/price-monitor/internal/models"
	"github.com/shopspring/decimal"
)

var (
	// "1 299,00" and "1 299,00" use a space as thousands separator.
	spacedThousands = regexp.MustCompile(`(\d)[ \x{00A0}\x{202F}](\d{3})`)
	numericRun      = regexp.MustCompile(`\d+(?:[.,]\d+)*`)
)

// ParsePrice turns a display price such as "725.00 €" or "1.299,00 €" into
// a decimal. Text without digits yields zero.
func ParsePrice(text string) decimal.Decimal {
	for {
		joined := spacedThousands.ReplaceAllString(text, "$1$2")
		if joined == text {
			break
		}
		text = joined
	}

	run := numericRun.FindString(text)
	if run == "" {
		return decimal.Zero
	}

	value, err := decimal.NewFromString(normalizeSeparators(run))
	if err != nil {
		return decimal.Zero
	}
	return value
}

// normalizeSeparators rewrites a digit run to use "." as the only decimal
// separator and no thousands separators.
func normalizeSeparators(run string) string {
	lastDot := strings.LastIndex(run, ".")
	lastComma := strings.LastIndex(run, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			return strings.Replace(strings.ReplaceAll(run, ".", ""), ",", ".", 1)
		}
		return strings.ReplaceAll(run, ",", "")
	case lastDot >= 0:
		return resolveSingle(run, ".")
	case lastComma >= 0:
		return resolveSingle(run, ",")
	}
	return run
}

func resolveSingle(run, sep string) string {
	if strings.Count(run, sep) > 1 {
		return strings.ReplaceAll(run, sep, "")
	}

	idx := strings.Index(run, sep)
	if len(run)-idx-1 == 3 {
		return strings.Replace(run, sep, "", 1)
	}
	return strings.Replace(run, sep, ".", 1)
}

// SortOffers returns a copy of result with offers ordered by ascending
// price and positions renumbered. Offers without a price go last.
func SortOffers(result *models.ProductResult) *models.ProductResult {
	sorted := *result
	sorted.Offers = make([]models.Offer, len(result.Offers))
	copy(sorted.Offers, result.Offers)

	sort.SliceStable(sorted.Offers, func(i, j int) bool {
		a, b := sorted.Offers[i].PriceValue, sorted.Offers[j].PriceValue
		if a.IsZero() != b.IsZero() {
			return b.IsZero()
		}
		return a.LessThan(b)
	})

	for i := range sorted.Offers {
		sorted.Offers[i].Position = i + 1
	}
	return &sorted
}
