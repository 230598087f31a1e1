package sop

import (
	"golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/pkg/utils"
)

// Settings is the per-strategy configuration surface. The threshold and
// tolerance are pointers so an explicit 0 survives defaulting.
type Settings struct {
	PrimaryTimeframe    string        `mapstructure:"primary_timeframe"`
	EntryTimeframe      string        `mapstructure:"entry_timeframe"`
	ConfidenceThreshold *float64      `mapstructure:"confidence_threshold"`
	Patterns            []string      `mapstructure:"patterns"`
	MinPips             float64       `mapstructure:"min_pips"`
	MaxPips             float64       `mapstructure:"max_pips"`
	DrawStyle           dto.DrawStyle `mapstructure:"draw_style"`
	OverlapTolerance    *float64      `mapstructure:"overlap_tolerance"`
	Hints               []string      `mapstructure:"hints"`
}

// Threshold is the minimum confidence, 0 when unset.
func (s Settings) Threshold() float64 {
	if s.ConfidenceThreshold == nil {
		return 0
	}
	return *s.ConfidenceThreshold
}

// Tolerance is the overlap tolerance as a fraction of the primary range.
func (s Settings) Tolerance() float64 {
	if s.OverlapTolerance == nil {
		return 0
	}
	return *s.OverlapTolerance
}

func DefaultSwingSettings() Settings {
	return Settings{
		PrimaryTimeframe:    "D1",
		EntryTimeframe:      "H4",
		ConfidenceThreshold: utils.ToPointer(0.7),
		Patterns:            []string{"bullish_engulfing", "bearish_engulfing", "none"},
		MinPips:             20,
		MaxPips:             200,
		DrawStyle:           dto.DrawShadowToShadow,
		OverlapTolerance:    utils.ToPointer(0.5),
		Hints: []string{
			"Prefer zones that held at least twice on the daily chart.",
			"Avoid fresh entries during high impact news releases.",
		},
	}
}

func DefaultScalpingSettings() Settings {
	return Settings{
		PrimaryTimeframe:    "H1",
		EntryTimeframe:      "M15",
		ConfidenceThreshold: utils.ToPointer(0.7),
		Patterns: []string{
			"bullish_engulfing", "bearish_engulfing",
			"bullish_pin_bar", "bearish_pin_bar",
			"none",
		},
		MinPips:          5,
		MaxPips:          40,
		DrawStyle:        dto.DrawBodyToBody,
		OverlapTolerance: utils.ToPointer(0.5),
		Hints: []string{
			"Trade the London and New York sessions; skip the Asian range.",
			"Stand aside 30 minutes before and after red folder news.",
		},
	}
}

// withDefaults fills unset values from def.
func (s Settings) withDefaults(def Settings) Settings {
	if s.PrimaryTimeframe == "" {
		s.PrimaryTimeframe = def.PrimaryTimeframe
	}
	if s.EntryTimeframe == "" {
		s.EntryTimeframe = def.EntryTimeframe
	}
	if s.ConfidenceThreshold == nil {
		s.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if len(s.Patterns) == 0 {
		s.Patterns = def.Patterns
	}
	if s.MinPips == 0 && s.MaxPips == 0 {
		s.MinPips, s.MaxPips = def.MinPips, def.MaxPips
	}
	if s.DrawStyle == "" {
		s.DrawStyle = def.DrawStyle
	}
	if s.OverlapTolerance == nil {
		s.OverlapTolerance = def.OverlapTolerance
	}
	if len(s.Hints) == 0 {
		s.Hints = def.Hints
	}
	return s
}
