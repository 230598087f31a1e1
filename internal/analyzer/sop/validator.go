package sop

import (
	"errors"
	"fmt"
	"strings"

	"golang-zone-analyzer/internal/analyzer/dto"

	"github.com/go-playground/validator/v10"
)

const schemaErrorPrefix = "SCHEMA ERROR: "

type outcome struct {
	errors   []string
	warnings []string
}

func (o *outcome) fail(format string, args ...any) {
	o.errors = append(o.errors, fmt.Sprintf(format, args...))
}

func (o *outcome) warn(format string, args ...any) {
	o.warnings = append(o.warnings, fmt.Sprintf(format, args...))
}

// relaxed records an error, or a warning when relax is set.
func (o *outcome) relaxed(relax bool, format string, args ...any) {
	if relax {
		o.warn(format, args...)
		return
	}
	o.fail(format, args...)
}

func (o *outcome) result() dto.ValidationOutcome {
	errs, warns := o.errors, o.warnings
	if errs == nil {
		errs = []string{}
	}
	if warns == nil {
		warns = []string{}
	}
	return dto.ValidationOutcome{Valid: len(errs) == 0, Errors: errs, Warnings: warns}
}

// Validate applies the schema check, the common trading rules, the entry
// rules against primary and the strategy specific extras.
func (s *sopStrategy) Validate(pair string, result, primary *dto.TimeframeResult) dto.ValidationOutcome {
	var o outcome
	if result == nil {
		o.fail("%sresult is missing", schemaErrorPrefix)
		return o.result()
	}
	if err := s.schema.Struct(result); err != nil {
		for _, msg := range schemaMessages(err) {
			o.fail("%s", msg)
		}
		return o.result()
	}
	// entry replies may leave the micro trend out; the primary trend drives the decision
	if result.Role == dto.RolePrimary && result.Trend == "" {
		o.fail("%strend failed on 'required'", schemaErrorPrefix)
		return o.result()
	}

	isEntry := result.Role == dto.RoleEntry
	if isEntry && primary == nil {
		o.fail("ENTRY CONTEXT: entry result has no primary result to compare with")
		return o.result()
	}

	s.checkCommon(&o, pair, result, isEntry)
	if isEntry {
		s.checkEntry(&o, result, primary)
	}
	return o.result()
}

func (s *sopStrategy) checkCommon(o *outcome, pair string, r *dto.TimeframeResult, isEntry bool) {
	conf := *r.Confidence
	switch {
	case conf < 0 || conf > 1:
		o.fail("CONFIDENCE OUT OF RANGE: %.2f is outside [0, 1]", conf)
	case conf < s.settings.Threshold():
		o.relaxed(isEntry, "LOW CONFIDENCE: %.2f is below threshold %.2f", conf, s.settings.Threshold())
	}

	if !inVocabulary(r.Pattern, s.settings.Patterns) {
		o.relaxed(isEntry, "PATTERN NOT ALLOWED: %q is not in the %s vocabulary", r.Pattern, s.name)
	}

	bias := PatternBias(r.Pattern)
	switch {
	case r.Trend == dto.TrendUp && r.Signal == dto.SignalSell,
		r.Trend == dto.TrendDown && r.Signal == dto.SignalBuy:
		o.fail("TREND MISMATCH: %s with %s signal", r.Trend, r.Signal)
	}
	switch {
	case r.Trend == dto.TrendUp && bias == dto.SignalSell,
		r.Trend == dto.TrendDown && bias == dto.SignalBuy:
		o.fail("PATTERN MISMATCH: %s with %s", r.Trend, r.Pattern)
	}
	if r.Signal != dto.SignalWait && bias != "" && bias == r.Signal.Opposite() {
		o.fail("SIGNAL-PATTERN MISMATCH: %s signal with %s", r.Signal, r.Pattern)
	}

	pip := PipWidth(pair, r.Zone.PriceHigh, r.Zone.PriceLow, s.settings.MinPips, s.settings.MaxPips)
	if !pip.Valid {
		o.relaxed(isEntry && s.rules.relaxEntryPips, "%s", pip.Error)
	}

	if r.Signal != dto.SignalWait && r.Zone.ZoneKind != "" && !zoneFitsSignal(r.Zone.ZoneKind, r.Signal) {
		o.relaxed(isEntry || !s.rules.strictZoneKind, "ZONE MISMATCH: %s signal on a %s zone", r.Signal, r.Zone.ZoneKind)
	}

	if s.rules.warnDirectionWait && !isEntry && r.Trend.IsDirectional() && r.Signal == dto.SignalWait {
		o.warn("NO SIGNAL: %s but signal is wait", r.Trend)
	}
}

func (s *sopStrategy) checkEntry(o *outcome, entry, primary *dto.TimeframeResult) {
	if entry.InsidePrimaryZone == nil || !*entry.InsidePrimaryZone {
		overlap := ToleranceOverlap(primary.Zone.PriceHigh, primary.Zone.PriceLow,
			entry.Zone.PriceHigh, entry.Zone.PriceLow, s.settings.Tolerance())
		if !overlap.Overlapping {
			o.warn("TOLERANCE WARNING: entry zone %s - %s is outside primary zone %s - %s even with %s tolerance",
				trim(entry.Zone.PriceLow), trim(entry.Zone.PriceHigh),
				trim(primary.Zone.PriceLow), trim(primary.Zone.PriceHigh), trim(overlap.Tolerance))
		}
	}

	want := primary.Signal
	if want == dto.SignalWait {
		return
	}

	bias := PatternBias(entry.Pattern)
	switch {
	case bias == want.Opposite():
		o.fail("PATTERN MISMATCH: entry %s contradicts primary %s signal", entry.Pattern, want)
	case normalizePattern(entry.Pattern) != normalizePattern(primary.Pattern):
		o.warn("PATTERN DIFFERS: entry %s differs from primary %s", entry.Pattern, primary.Pattern)
	}

	if entry.Signal == want.Opposite() {
		o.fail("SIGNAL MISMATCH: entry %s against primary %s", entry.Signal, want)
	}
}

func zoneFitsSignal(kind dto.ZoneKind, signal dto.Signal) bool {
	switch signal {
	case dto.SignalBuy:
		return kind == dto.ZoneSupport || kind == dto.ZoneBreakout
	case dto.SignalSell:
		return kind == dto.ZoneResistance || kind == dto.ZoneBreakout
	}
	return true
}

func schemaMessages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{schemaErrorPrefix + err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		msg := fmt.Sprintf("%s%s failed on '%s'", schemaErrorPrefix, field, fe.Tag())
		if fe.Param() != "" {
			msg += " " + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	return msgs
}
