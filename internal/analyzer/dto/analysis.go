package dto

import "time"

type Role string

const (
	RolePrimary Role = "primary"
	RoleEntry   Role = "entry"
)

type Trend string

const (
	TrendUp       Trend = "uptrend"
	TrendDown     Trend = "downtrend"
	TrendSideways Trend = "sideways"
)

// IsDirectional reports whether the trend points up or down.
func (t Trend) IsDirectional() bool {
	return t == TrendUp || t == TrendDown
}

type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalWait Signal = "wait"
)

// IsDirectional reports whether the signal is buy or sell.
func (s Signal) IsDirectional() bool {
	return s == SignalBuy || s == SignalSell
}

// Opposite returns the contrary direction; wait has none.
func (s Signal) Opposite() Signal {
	switch s {
	case SignalBuy:
		return SignalSell
	case SignalSell:
		return SignalBuy
	default:
		return ""
	}
}

type ZoneKind string

const (
	ZoneSupport    ZoneKind = "support"
	ZoneResistance ZoneKind = "resistance"
	ZoneBreakout   ZoneKind = "breakout"
	ZoneNone       ZoneKind = "none"
)

type DecisionStatus string

const (
	StatusConfirmed    DecisionStatus = "CONFIRMED"
	StatusWaitBreakout DecisionStatus = "WAIT_BREAKOUT"
	StatusForming      DecisionStatus = "FORMING"
)

// Source tells how a TimeframeResult was produced.
type Source string

const (
	SourceVision    Source = "vision"
	SourceExtracted Source = "extracted"
	SourceFallback  Source = "fallback"
)

type StrategyName string

const (
	StrategySwing    StrategyName = "swing"
	StrategyScalping StrategyName = "scalping"
)

type DrawStyle string

const (
	DrawBodyToBody     DrawStyle = "body-to-body"
	DrawShadowToShadow DrawStyle = "shadow-to-shadow"
)

// PixelRect is a rectangle in image coordinates, origin top-left.
type PixelRect struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (r PixelRect) Width() int  { return r.X2 - r.X1 }
func (r PixelRect) Height() int { return r.Y2 - r.Y1 }

// ZoneCandidate is a proposed price band with its optional on-image rectangle.
type ZoneCandidate struct {
	PriceHigh   float64    `json:"price_high" validate:"required,gt=0,gtefield=PriceLow"`
	PriceLow    float64    `json:"price_low" validate:"required,gt=0"`
	PixelRect   *PixelRect `json:"pixel_rect,omitempty"`
	PatternKind string     `json:"pattern_kind,omitempty"`
	ZoneKind    ZoneKind   `json:"zone_kind" validate:"omitempty,oneof=support resistance breakout none"`
	Confidence  float64    `json:"confidence"`
}

// TimeframeResult is one analysis of one chart image. Treat as immutable once built.
type TimeframeResult struct {
	TimeframeID       string        `json:"timeframe_id" validate:"required"`
	Role              Role          `json:"role" validate:"required,oneof=primary entry"`
	Trend             Trend         `json:"trend" validate:"omitempty,oneof=uptrend downtrend sideways"`
	Signal            Signal        `json:"signal" validate:"required,oneof=buy sell wait"`
	Pattern           string        `json:"pattern" validate:"required"`
	Zone              ZoneCandidate `json:"zone"`
	Confidence        *float64      `json:"confidence" validate:"required"`
	InsidePrimaryZone *bool         `json:"inside_primary_zone,omitempty"`
	Reasoning         string        `json:"reasoning,omitempty"`
	Source            Source        `json:"source"`
	RawText           string        `json:"raw_text,omitempty"`
}

// ConfidenceValue returns the confidence or 0 when absent.
func (r *TimeframeResult) ConfidenceValue() float64 {
	if r == nil || r.Confidence == nil {
		return 0
	}
	return *r.Confidence
}

// ValidationOutcome separates blocking errors from informational warnings.
type ValidationOutcome struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

type DecisionValidation struct {
	Primary ValidationOutcome  `json:"primary"`
	Entry   *ValidationOutcome `json:"entry,omitempty"`
}

// CombinedDecision is the canonical output of one pair x strategy run.
type CombinedDecision struct {
	RunID            string             `json:"run_id"`
	Pair             string             `json:"pair"`
	Strategy         StrategyName       `json:"strategy"`
	Status           DecisionStatus     `json:"status"`
	Valid            bool               `json:"valid"`
	Signal           Signal             `json:"signal"`
	Confidence       float64            `json:"confidence"`
	PrimaryTimeframe string             `json:"primary_timeframe"`
	EntryTimeframe   string             `json:"entry_timeframe"`
	PrimaryZone      ZoneCandidate      `json:"primary_zone"`
	EntryZone        *ZoneCandidate     `json:"entry_zone,omitempty"`
	Validation       DecisionValidation `json:"validation"`
	EntryFailure     string             `json:"entry_failure,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

// PriceScale describes the visible price axis of a chart image.
type PriceScale struct {
	PriceHigh   float64 `json:"price_high"`
	PriceLow    float64 `json:"price_low"`
	ImageWidth  int     `json:"image_width"`
	ImageHeight int     `json:"image_height"`
}

type Canvas struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type LabelPlacement string

const (
	LabelAbove  LabelPlacement = "above"
	LabelBelow  LabelPlacement = "below"
	LabelInside LabelPlacement = "inside"
)

type LabelPosition struct {
	X         int            `json:"x"`
	Y         int            `json:"y"`
	Placement LabelPlacement `json:"placement"`
}

// RGBA is a plain colour so instructions stay free of image types.
type RGBA struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// DrawingInstruction is derived from a decision for rendering only.
type DrawingInstruction struct {
	PixelRect     PixelRect     `json:"pixel_rect"`
	Color         RGBA          `json:"color"`
	Opacity       float64       `json:"opacity"`
	BorderWidth   int           `json:"border_width"`
	Label         string        `json:"label"`
	LabelPosition LabelPosition `json:"label_position"`
}
