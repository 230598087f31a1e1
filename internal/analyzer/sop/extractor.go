package sop

import (
	"regexp"
	"strconv"
	"strings"

	"golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/pkg/utils"
)

const extractedDefaultConfidence = 0.5

var (
	reSignalField = regexp.MustCompile(`(?i)"?signal"?\s*[:=]\s*"?(buy|sell|wait)\b`)
	reSignalWord  = regexp.MustCompile(`(?i)\b(buy|sell|wait)\b`)
	reTrend       = regexp.MustCompile(`(?i)\b(uptrend|downtrend|sideways)\b`)
	rePriceHigh   = regexp.MustCompile(`(?i)"?price_high"?\s*[:=]\s*"?([0-9]+(?:\.[0-9]+)?)`)
	rePriceLow    = regexp.MustCompile(`(?i)"?price_low"?\s*[:=]\s*"?([0-9]+(?:\.[0-9]+)?)`)
	rePriceRange  = regexp.MustCompile(`([0-9]+\.?[0-9]*)\s*(?:-|–|to)\s*([0-9]+\.?[0-9]*)`)
	reConfidence  = regexp.MustCompile(`(?i)"?confidence"?\s*[:=]\s*"?([0-9]*\.?[0-9]+)`)
	reZoneKind    = regexp.MustCompile(`(?i)\b(support|resistance|breakout)\b`)
	reInside      = regexp.MustCompile(`(?i)"?inside_primary_zone"?\s*[:=]\s*(true|false)`)
)

// ExtractResult pulls a best-effort result out of free text when the model
// reply is not valid JSON. It needs at least a signal and a price range.
func ExtractResult(raw string, role dto.Role, timeframe string, vocabulary []string) (*dto.TimeframeResult, bool) {
	signal := firstMatch(reSignalField, raw)
	if signal == "" {
		signal = firstMatch(reSignalWord, raw)
	}
	if signal == "" {
		return nil, false
	}

	high, low, ok := extractRange(raw)
	if !ok {
		return nil, false
	}

	result := &dto.TimeframeResult{
		TimeframeID: timeframe,
		Role:        role,
		Signal:      dto.Signal(strings.ToLower(signal)),
		Pattern:     extractPattern(raw, vocabulary),
		Source:      dto.SourceExtracted,
		RawText:     raw,
		Zone: dto.ZoneCandidate{
			PriceHigh: high,
			PriceLow:  low,
			ZoneKind:  dto.ZoneKind(strings.ToLower(firstMatch(reZoneKind, raw))),
		},
	}

	if trend := firstMatch(reTrend, raw); trend != "" {
		result.Trend = dto.Trend(strings.ToLower(trend))
	} else {
		result.Trend = trendFromSignal(result.Signal)
	}

	conf := extractedDefaultConfidence
	if v, err := strconv.ParseFloat(firstMatch(reConfidence, raw), 64); err == nil {
		if v > 1 && v <= 100 {
			v /= 100
		}
		conf = v
	}
	result.Confidence = utils.ToPointer(conf)
	result.Zone.Confidence = conf

	if role == dto.RoleEntry {
		if inside := firstMatch(reInside, raw); inside != "" {
			result.InsidePrimaryZone = utils.ToPointer(strings.EqualFold(inside, "true"))
		}
	}
	return result, true
}

func extractRange(raw string) (float64, float64, bool) {
	high, errHigh := strconv.ParseFloat(firstMatch(rePriceHigh, raw), 64)
	low, errLow := strconv.ParseFloat(firstMatch(rePriceLow, raw), 64)
	if errHigh != nil || errLow != nil {
		m := rePriceRange.FindStringSubmatch(raw)
		if m == nil {
			return 0, 0, false
		}
		var err error
		if low, err = strconv.ParseFloat(m[1], 64); err != nil {
			return 0, 0, false
		}
		if high, err = strconv.ParseFloat(m[2], 64); err != nil {
			return 0, 0, false
		}
	}
	if high < low {
		high, low = low, high
	}
	if low <= 0 || high == low {
		return 0, 0, false
	}
	return high, low, true
}

func extractPattern(raw string, vocabulary []string) string {
	text := normalizePattern(raw)
	for _, p := range vocabulary {
		if p == PatternNone {
			continue
		}
		if strings.Contains(text, normalizePattern(p)) {
			return normalizePattern(p)
		}
	}
	return PatternNone
}

func trendFromSignal(signal dto.Signal) dto.Trend {
	switch signal {
	case dto.SignalBuy:
		return dto.TrendUp
	case dto.SignalSell:
		return dto.TrendDown
	default:
		return dto.TrendSideways
	}
}

func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
