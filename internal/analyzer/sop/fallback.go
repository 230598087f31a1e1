package sop

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"golang-zone-analyzer/internal/analyzer/apperror"
	"golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/internal/analyzer/geometry"
	"golang-zone-analyzer/pkg/utils"
)

const (
	fallbackStep          = 2
	fallbackAxisShare     = 0.92
	fallbackRecentShare   = 0.85
	fallbackTrendMinDelta = 0.05
	fallbackBaseConf      = 0.2
	fallbackConfRange     = 0.2
	fallbackFullDelta     = 0.25
)

// FallbackInput is what the rule-based analyzer needs for one chart.
type FallbackInput struct {
	Image     []byte
	Role      dto.Role
	Timeframe string
	Scale     *dto.PriceScale
	Prior     *dto.TimeframeResult
}

type candleStats struct {
	leftSum, rightSum float64
	leftN, rightN     int
	recentBull        int
	recentBear        int
	recentTop         int
	recentBottom      int
	recentStart       int
	plotRight         int
}

// AnalyzeFallback reads candle colours from the image to produce a low
// confidence result when the vision model is unavailable. The score is
// always between 0.2 and 0.4 so a fallback result never clears a threshold.
func AnalyzeFallback(in FallbackInput) (*dto.TimeframeResult, error) {
	img, _, err := image.Decode(bytes.NewReader(in.Image))
	if err != nil {
		return nil, fmt.Errorf("%w: decode chart: %w", apperror.ErrFallbackFailed, err)
	}

	bounds := img.Bounds()
	stats := scanCandles(img)
	if stats.leftN+stats.rightN == 0 {
		return nil, fmt.Errorf("%w: no candles detected", apperror.ErrFallbackFailed)
	}

	trend, delta := dto.TrendSideways, 0.0
	if stats.leftN > 0 && stats.rightN > 0 {
		// y grows downwards so a rising market has a smaller mean y on the right
		delta = (stats.leftSum/float64(stats.leftN) - stats.rightSum/float64(stats.rightN)) / float64(bounds.Dy())
		switch {
		case delta > fallbackTrendMinDelta:
			trend = dto.TrendUp
		case delta < -fallbackTrendMinDelta:
			trend = dto.TrendDown
		}
	}

	signal := dto.SignalWait
	switch {
	case trend == dto.TrendUp && stats.recentBull > stats.recentBear:
		signal = dto.SignalBuy
	case trend == dto.TrendDown && stats.recentBear > stats.recentBull:
		signal = dto.SignalSell
	}

	conf := fallbackBaseConf + math.Min(math.Abs(delta)/fallbackFullDelta, 1)*fallbackConfRange
	conf = math.Round(conf*100) / 100

	result := &dto.TimeframeResult{
		TimeframeID: in.Timeframe,
		Role:        in.Role,
		Trend:       trend,
		Signal:      signal,
		Pattern:     PatternNone,
		Confidence:  utils.ToPointer(conf),
		Source:      dto.SourceFallback,
		Reasoning:   fmt.Sprintf("rule-based fallback: trend delta %.3f, recent bull %d bear %d", delta, stats.recentBull, stats.recentBear),
	}

	zone, err := fallbackZone(stats, signal, bounds.Dy(), in.Scale)
	if err != nil {
		if in.Prior == nil {
			return nil, err
		}
		// unpriced entry chart: keep the primary band, InsidePrimaryZone stays
		// unset so the overlap check still runs
		zone = in.Prior.Zone
	}
	zone.Confidence = conf
	result.Zone = zone
	return result, nil
}

func scanCandles(img image.Image) candleStats {
	b := img.Bounds()
	plotRight := b.Min.X + int(float64(b.Dx())*fallbackAxisShare)
	mid := b.Min.X + (plotRight-b.Min.X)/2
	recentStart := b.Min.X + int(float64(plotRight-b.Min.X)*fallbackRecentShare)

	s := candleStats{recentTop: math.MaxInt, recentBottom: -1, recentStart: recentStart, plotRight: plotRight}
	for x := b.Min.X; x < plotRight; x += fallbackStep {
		for y := b.Min.Y; y < b.Max.Y; y += fallbackStep {
			bull, bear := classify(img.At(x, y).RGBA())
			if !bull && !bear {
				continue
			}
			ry := float64(y - b.Min.Y)
			if x < mid {
				s.leftSum += ry
				s.leftN++
			} else {
				s.rightSum += ry
				s.rightN++
			}
			if x >= recentStart {
				if bull {
					s.recentBull++
				} else {
					s.recentBear++
				}
				s.recentTop = min(s.recentTop, y-b.Min.Y)
				s.recentBottom = max(s.recentBottom, y-b.Min.Y)
			}
		}
	}
	return s
}

// classify reports whether a pixel looks like a bullish (green) or bearish (red) candle.
func classify(r32, g32, b32, _ uint32) (bool, bool) {
	r, g, b := int(r32>>8), int(g32>>8), int(b32>>8)
	bull := g > r+40 && g > b+40
	bear := r > g+40 && r > b+40
	return bull, bear
}

func fallbackZone(s candleStats, signal dto.Signal, height int, scale *dto.PriceScale) (dto.ZoneCandidate, error) {
	if scale == nil || scale.PriceHigh <= scale.PriceLow {
		return dto.ZoneCandidate{}, fmt.Errorf("%w: price scale unavailable", apperror.ErrFallbackFailed)
	}
	if s.recentBottom < 0 {
		return dto.ZoneCandidate{}, fmt.Errorf("%w: no recent candles", apperror.ErrFallbackFailed)
	}

	band := max(1, (s.recentBottom-s.recentTop)/4)
	top, bottom, kind := s.recentTop, s.recentBottom, dto.ZoneBreakout
	switch signal {
	case dto.SignalBuy:
		top, kind = s.recentBottom-band, dto.ZoneSupport
	case dto.SignalSell:
		bottom, kind = s.recentTop+band, dto.ZoneResistance
	}

	// the scale may describe a different height than the decoded image
	mapped := *scale
	mapped.ImageHeight = height
	high, okHigh := geometry.PixelToPrice(top, &mapped)
	low, okLow := geometry.PixelToPrice(bottom, &mapped)
	if !okHigh || !okLow || high <= low {
		return dto.ZoneCandidate{}, fmt.Errorf("%w: zone could not be priced", apperror.ErrFallbackFailed)
	}

	return dto.ZoneCandidate{
		PriceHigh: high,
		PriceLow:  low,
		ZoneKind:  kind,
		PixelRect: &dto.PixelRect{X1: s.recentStart, Y1: top, X2: s.plotRight, Y2: bottom},
	}, nil
}
