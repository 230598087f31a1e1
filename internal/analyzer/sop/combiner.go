package sop

import (
	"math"
	"strings"

	"golang-zone-analyzer/internal/analyzer/dto"
)

// Combine merges the primary and entry analyses into one decision. It never
// fails; missing or invalid inputs degrade the status instead. An entry read
// by the image heuristic cannot confirm, and the decision signal is always
// buy, sell or wait.
func (s *sopStrategy) Combine(primary, entry *dto.TimeframeResult, primaryOutcome dto.ValidationOutcome, entryOutcome *dto.ValidationOutcome) dto.CombinedDecision {
	d := dto.CombinedDecision{
		Strategy:         s.name,
		Status:           dto.StatusForming,
		Signal:           dto.SignalWait,
		PrimaryTimeframe: s.settings.PrimaryTimeframe,
		EntryTimeframe:   s.settings.EntryTimeframe,
		Validation:       dto.DecisionValidation{Primary: primaryOutcome, Entry: entryOutcome},
	}
	if primary == nil {
		return d
	}

	d.PrimaryZone = primary.Zone
	if entry != nil {
		zone := entry.Zone
		d.EntryZone = &zone
	}
	primaryConf := clamp01(primary.ConfidenceValue())

	switch {
	case primary.Trend == dto.TrendSideways || primary.Signal == dto.SignalWait:
		d.Status = dto.StatusWaitBreakout
		d.Signal = dto.SignalWait
		d.Confidence = primaryConf

	case primary.Trend.IsDirectional() && primaryOutcome.Valid &&
		entry != nil && entryOutcome != nil && entryOutcome.Valid &&
		entry.Source != dto.SourceFallback:
		d.Status = dto.StatusConfirmed
		d.Valid = true
		d.Signal = primary.Signal
		if s.rules.confirmEntrySignal && entry.Signal != dto.SignalWait {
			d.Signal = entry.Signal
		}
		d.Confidence = clamp01(round4((primaryConf + clamp01(entry.ConfidenceValue())) / 2))

	default:
		d.Status = dto.StatusForming
		d.Confidence = primaryConf
		if primary.Signal.IsDirectional() && !hasSchemaError(primaryOutcome) {
			d.Signal = primary.Signal
		}
	}
	return d
}

func hasSchemaError(o dto.ValidationOutcome) bool {
	for _, e := range o.Errors {
		if strings.HasPrefix(e, schemaErrorPrefix) {
			return true
		}
	}
	return false
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
