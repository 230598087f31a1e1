package sop

import (
	"fmt"
	"strings"

	"golang-zone-analyzer/pkg/utils"

	"github.com/shopspring/decimal"
)

// PipCheck is the outcome of a pip width lookup.
type PipCheck struct {
	Valid      bool    `json:"valid"`
	ActualPips float64 `json:"actual_pips"`
	Error      string  `json:"error,omitempty"`
}

var (
	pipStandard = decimal.RequireFromString("0.0001")
	pipJPY      = decimal.RequireFromString("0.01")
	pipGold     = decimal.RequireFromString("0.1")
	pipSilver   = decimal.RequireFromString("0.01")
	pipPoint    = decimal.NewFromInt(1)

	pointInstruments = []string{"US30", "NAS100", "US100", "SPX500", "US500", "GER40", "DE40", "UK100", "JP225", "BTC", "ETH"}
)

// PipSize returns the pip increment for a pair, or false for an empty pair.
func PipSize(pair string) (decimal.Decimal, bool) {
	p := utils.NormalizePair(pair)
	if p == "" {
		return decimal.Zero, false
	}
	switch {
	case strings.HasPrefix(p, "XAU"):
		return pipGold, true
	case strings.HasPrefix(p, "XAG"):
		return pipSilver, true
	case strings.Contains(p, "JPY"):
		return pipJPY, true
	}
	for _, instrument := range pointInstruments {
		if strings.HasPrefix(p, instrument) {
			return pipPoint, true
		}
	}
	return pipStandard, true
}

// PipWidth measures a zone in pips and checks it against [minPips, maxPips].
// A non-positive maxPips disables the upper bound.
func PipWidth(pair string, priceHigh, priceLow, minPips, maxPips float64) PipCheck {
	size, ok := PipSize(pair)
	if !ok {
		return PipCheck{Error: "PIP WIDTH: unknown pair"}
	}

	width := decimal.NewFromFloat(priceHigh).Sub(decimal.NewFromFloat(priceLow)).Abs()
	pips := width.Div(size).Round(1)
	actual := pips.InexactFloat64()

	switch {
	case pips.LessThan(decimal.NewFromFloat(minPips)):
		return PipCheck{ActualPips: actual, Error: fmt.Sprintf("PIP WIDTH: zone is %s pips, below minimum %s", pips.String(), trim(minPips))}
	case maxPips > 0 && pips.GreaterThan(decimal.NewFromFloat(maxPips)):
		return PipCheck{ActualPips: actual, Error: fmt.Sprintf("PIP WIDTH: zone is %s pips, above maximum %s", pips.String(), trim(maxPips))}
	}
	return PipCheck{Valid: true, ActualPips: actual}
}

func trim(v float64) string {
	return decimal.NewFromFloat(v).String()
}
