package sop

import (
	"fmt"
	"strings"

	"golang-zone-analyzer/internal/analyzer/apperror"
	"golang-zone-analyzer/internal/analyzer/dto"
)

// PromptInput carries what a prompt needs. Prior is required for the entry role.
type PromptInput struct {
	Pair  string
	Role  dto.Role
	Prior *dto.TimeframeResult
}

type promptBrief struct {
	title        string
	primaryFocus string
	entryFocus   string
}

const responseSchema = `Respond with a single JSON object and nothing else:
{
  "trend": "uptrend | downtrend | sideways",
  "signal": "buy | sell | wait",
  "pattern": "%s",
  "zone": {
    "price_high": {number},
    "price_low": {number},
    "zone_kind": "support | resistance | breakout | none",
    "pixel_rect": {"x1": {int}, "y1": {int}, "x2": {int}, "y2": {int}}
  },
  "confidence": {0.0 - 1.0},%s
  "reasoning": "{one or two sentences}"
}`

// BuildPrompt renders the analysis request for one chart.
func (s *sopStrategy) BuildPrompt(in PromptInput) (string, error) {
	if strings.TrimSpace(in.Pair) == "" {
		return "", fmt.Errorf("%w: pair is required", apperror.ErrMissingPromptInput)
	}
	if in.Role == dto.RoleEntry && in.Prior == nil {
		return "", fmt.Errorf("%w: entry prompt needs the primary result", apperror.ErrMissingPromptInput)
	}

	var b strings.Builder
	timeframe := s.settings.PrimaryTimeframe
	if in.Role == dto.RoleEntry {
		timeframe = s.settings.EntryTimeframe
	}

	fmt.Fprintf(&b, "You are a price action analyst preparing a %s on %s. The attached image is the %s chart.\n\n",
		s.brief.title, strings.ToUpper(in.Pair), timeframe)

	if in.Role == dto.RoleEntry {
		p := in.Prior
		fmt.Fprintf(&b, "The %s chart already produced: trend %s, signal %s, pattern %s, %s zone %s - %s.\n",
			s.settings.PrimaryTimeframe, p.Trend, p.Signal, p.Pattern, zoneKindOrNone(p.Zone.ZoneKind),
			trim(p.Zone.PriceLow), trim(p.Zone.PriceHigh))
		b.WriteString("Keep your analysis inside that price band unless the chart clearly invalidates it.\n\n")
		b.WriteString(s.brief.entryFocus)
	} else {
		b.WriteString(s.brief.primaryFocus)
	}

	b.WriteString("\n\nRules:\n")
	fmt.Fprintf(&b, "- Allowed patterns: %s. Use none when no pattern is present.\n", strings.Join(s.settings.Patterns, ", "))
	fmt.Fprintf(&b, "- The zone must be between %s and %s pips wide for %s.\n",
		trim(s.settings.MinPips), trim(s.settings.MaxPips), strings.ToUpper(in.Pair))
	fmt.Fprintf(&b, "- %s\n", drawStyleRule(s.settings.DrawStyle))
	b.WriteString("- A buy needs a support or breakout zone, a sell needs a resistance or breakout zone.\n")
	b.WriteString("- Never give a signal against the trend. Use wait when the trend is sideways.\n")
	for _, hint := range s.settings.Hints {
		fmt.Fprintf(&b, "- Note: %s\n", hint)
	}
	b.WriteString("\n")

	insideField := ""
	if in.Role == dto.RoleEntry {
		insideField = "\n  \"inside_primary_zone\": true | false,"
	}
	fmt.Fprintf(&b, responseSchema, strings.Join(s.settings.Patterns, " | "), insideField)

	return b.String(), nil
}

func drawStyleRule(style dto.DrawStyle) string {
	if style == dto.DrawBodyToBody {
		return "Draw the zone from body to body: lowest candle body to highest candle body of the reaction candles, ignoring wicks."
	}
	return "Draw the zone from shadow to shadow: lowest wick to highest wick of the reaction candles."
}

func zoneKindOrNone(kind dto.ZoneKind) dto.ZoneKind {
	if kind == "" {
		return dto.ZoneNone
	}
	return kind
}
