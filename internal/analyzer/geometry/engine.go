package geometry

import (
	"fmt"

	"golang-zone-analyzer/internal/analyzer/dto"
)

// Config controls zone rectangle repair and annotation styling.
type Config struct {
	MinThickness int     `mapstructure:"min_thickness" default:"8"`
	Opacity      float64 `mapstructure:"opacity" default:"0.25"`
	BorderWidth  int     `mapstructure:"border_width" default:"2"`
	LabelPadding int     `mapstructure:"label_padding" default:"3"`
	CharWidth    int     `mapstructure:"char_width" default:"7"`
	LineHeight   int     `mapstructure:"line_height" default:"13"`
}

var (
	colorBuy  = dto.RGBA{R: 0, G: 200, B: 83, A: 255}
	colorSell = dto.RGBA{R: 213, G: 0, B: 0, A: 255}
	colorWait = dto.RGBA{R: 255, G: 171, B: 0, A: 255}
)

// Engine repairs zone rectangles so they can always be drawn.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	if cfg.MinThickness <= 0 {
		cfg.MinThickness = 8
	}
	if cfg.CharWidth <= 0 {
		cfg.CharWidth = 7
	}
	if cfg.LineHeight <= 0 {
		cfg.LineHeight = 13
	}
	return &Engine{cfg: cfg}
}

// Normalize clamps, orders and widens rect so it fits the canvas and honours the
// minimum thickness. It never fails; a canvas too small for the minimum gets
// the largest rectangle it can hold.
func (e *Engine) Normalize(rect dto.PixelRect, canvas dto.Canvas) dto.PixelRect {
	w, h := canvas.Width, canvas.Height
	if w < 1 || h < 3 {
		return clampLoose(rect, w, h)
	}

	x1, x2 := clamp(rect.X1, 0, w-1), clamp(rect.X2, 0, w-1)
	y1, y2 := clamp(rect.Y1, 1, h-2), clamp(rect.Y2, 1, h-2)
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}

	minX := min(e.cfg.MinThickness, w-1)
	if x2-x1 < minX {
		x2 = min(w-1, x1+minX)
		if x2-x1 < minX {
			x1 = max(0, x2-minX)
		}
	}

	minY := min(e.cfg.MinThickness, h-3)
	// upward first, whatever the top edge cannot take goes below
	if deficit := minY - (y2 - y1); deficit > 0 {
		up := min(deficit, y1-1)
		y1 -= up
		y2 = min(h-2, y2+deficit-up)
	}

	return dto.PixelRect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// PlaceLabel positions a label box of the given size above the rectangle,
// below it when the top has no room, and inside otherwise. X and Y are the
// top-left corner of the label box.
func (e *Engine) PlaceLabel(rect dto.PixelRect, canvas dto.Canvas, labelWidth, labelHeight int) dto.LabelPosition {
	pad := e.cfg.LabelPadding
	x := clamp(rect.X1+pad, 0, max(0, canvas.Width-labelWidth))

	if top := rect.Y1 - pad - labelHeight; top >= 0 {
		return dto.LabelPosition{X: x, Y: top, Placement: dto.LabelAbove}
	}
	if below := rect.Y2 + pad; below+labelHeight <= canvas.Height-1 {
		return dto.LabelPosition{X: x, Y: below, Placement: dto.LabelBelow}
	}
	y := clamp(rect.Y1+pad, 0, max(0, canvas.Height-labelHeight))
	return dto.LabelPosition{X: x, Y: y, Placement: dto.LabelInside}
}

// ZoneRect derives the pixel rectangle of a zone. Prices win over any model
// supplied rectangle when the scale is usable; the horizontal span falls back
// to the right two fifths of the chart.
func (e *Engine) ZoneRect(zone dto.ZoneCandidate, scale *dto.PriceScale, canvas dto.Canvas) (dto.PixelRect, bool) {
	rect := dto.PixelRect{X1: canvas.Width * 3 / 5, X2: canvas.Width - 1}
	if zone.PixelRect != nil {
		rect.X1, rect.X2 = zone.PixelRect.X1, zone.PixelRect.X2
	}

	top, okTop := PriceToPixel(zone.PriceHigh, scale)
	bottom, okBottom := PriceToPixel(zone.PriceLow, scale)
	switch {
	case okTop && okBottom:
		rect.Y1, rect.Y2 = top, bottom
	case zone.PixelRect != nil:
		rect.Y1, rect.Y2 = zone.PixelRect.Y1, zone.PixelRect.Y2
	default:
		return dto.PixelRect{}, false
	}
	return e.Normalize(rect, canvas), true
}

// Instruction builds the drawing instruction for one zone of a decision.
func (e *Engine) Instruction(zone dto.ZoneCandidate, signal dto.Signal, label string, scale *dto.PriceScale, canvas dto.Canvas) (dto.DrawingInstruction, bool) {
	rect, ok := e.ZoneRect(zone, scale, canvas)
	if !ok {
		return dto.DrawingInstruction{}, false
	}
	lw, lh := e.LabelSize(label)
	return dto.DrawingInstruction{
		PixelRect:     rect,
		Color:         ColorFor(signal),
		Opacity:       e.cfg.Opacity,
		BorderWidth:   e.cfg.BorderWidth,
		Label:         label,
		LabelPosition: e.PlaceLabel(rect, canvas, lw, lh),
	}, true
}

// LabelSize returns the box needed for a single line label.
func (e *Engine) LabelSize(label string) (int, int) {
	return len(label)*e.cfg.CharWidth + 2*e.cfg.LabelPadding, e.cfg.LineHeight + 2*e.cfg.LabelPadding
}

func ColorFor(signal dto.Signal) dto.RGBA {
	switch signal {
	case dto.SignalBuy:
		return colorBuy
	case dto.SignalSell:
		return colorSell
	default:
		return colorWait
	}
}

// ZoneLabel is the text drawn next to a zone, e.g. "BUY support 1.1000-1.1030".
func ZoneLabel(signal dto.Signal, zone dto.ZoneCandidate) string {
	kind := string(zone.ZoneKind)
	if kind == "" {
		kind = string(dto.ZoneNone)
	}
	return fmt.Sprintf("%s %s %s-%s", upper(string(signal)), kind, trimFloat(zone.PriceLow), trimFloat(zone.PriceHigh))
}

func clampLoose(rect dto.PixelRect, w, h int) dto.PixelRect {
	mx, my := max(w-1, 0), max(h-1, 0)
	r := dto.PixelRect{
		X1: clamp(rect.X1, 0, mx), X2: clamp(rect.X2, 0, mx),
		Y1: clamp(rect.Y1, 0, my), Y2: clamp(rect.Y2, 0, my),
	}
	if r.X1 > r.X2 {
		r.X1, r.X2 = r.X2, r.X1
	}
	if r.Y1 > r.Y2 {
		r.Y1, r.Y2 = r.Y2, r.Y1
	}
	return r
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
