package sop

import (
	"strings"

	"golang-zone-analyzer/internal/analyzer/dto"
)

const PatternNone = "none"

var patternBias = map[string]dto.Signal{
	"bullish_engulfing":        dto.SignalBuy,
	"bearish_engulfing":        dto.SignalSell,
	"bullish_pin_bar":          dto.SignalBuy,
	"bearish_pin_bar":          dto.SignalSell,
	"hammer":                   dto.SignalBuy,
	"shooting_star":            dto.SignalSell,
	"inside_bar_breakout_up":   dto.SignalBuy,
	"inside_bar_breakout_down": dto.SignalSell,
	PatternNone:                "",
}

// PatternBias returns the direction a candlestick pattern points to: buy for
// bullish, sell for bearish and empty for neutral or unknown patterns.
func PatternBias(pattern string) dto.Signal {
	p := normalizePattern(pattern)
	if bias, ok := patternBias[p]; ok {
		return bias
	}
	switch {
	case strings.HasPrefix(p, "bullish"), strings.HasSuffix(p, "_up"):
		return dto.SignalBuy
	case strings.HasPrefix(p, "bearish"), strings.HasSuffix(p, "_down"):
		return dto.SignalSell
	}
	return ""
}

func normalizePattern(pattern string) string {
	p := strings.ToLower(strings.TrimSpace(pattern))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(p)
}

func inVocabulary(pattern string, vocabulary []string) bool {
	p := normalizePattern(pattern)
	for _, v := range vocabulary {
		if normalizePattern(v) == p {
			return true
		}
	}
	return false
}
