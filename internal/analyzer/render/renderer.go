package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"

	"golang-zone-analyzer/internal/analyzer/dto"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const labelPadding = 3

var labelBackground = color.NRGBA{R: 255, G: 255, B: 255, A: 220}

// Renderer paints drawing instructions onto chart images. Each call works on
// its own copy of the image.
type Renderer struct {
	face font.Face
}

func NewRenderer() *Renderer {
	return &Renderer{face: basicfont.Face7x13}
}

// Render decodes src, draws every instruction and returns the result as PNG.
func (r *Renderer) Render(src []byte, instructions []dto.DrawingInstruction) ([]byte, error) {
	decoded, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to decode chart image: %w", err)
	}

	bounds := decoded.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), decoded, bounds.Min, draw.Src)

	for _, ins := range instructions {
		r.drawZone(canvas, ins)
		if ins.Label != "" {
			r.drawLabel(canvas, ins)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode annotated image: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawZone(dst *image.RGBA, ins dto.DrawingInstruction) {
	rect := image.Rect(ins.PixelRect.X1, ins.PixelRect.Y1, ins.PixelRect.X2+1, ins.PixelRect.Y2+1).Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}

	fill := color.NRGBA{R: ins.Color.R, G: ins.Color.G, B: ins.Color.B, A: alpha(ins.Opacity)}
	draw.Draw(dst, rect, image.NewUniform(fill), image.Point{}, draw.Over)

	bw := ins.BorderWidth
	if bw <= 0 {
		return
	}
	border := image.NewUniform(color.NRGBA{R: ins.Color.R, G: ins.Color.G, B: ins.Color.B, A: 255})
	edges := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+bw),
		image.Rect(rect.Min.X, rect.Max.Y-bw, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+bw, rect.Max.Y),
		image.Rect(rect.Max.X-bw, rect.Min.Y, rect.Max.X, rect.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(rect), border, image.Point{}, draw.Src)
	}
}

func (r *Renderer) drawLabel(dst *image.RGBA, ins dto.DrawingInstruction) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(color.Black), Face: r.face}
	width := d.MeasureString(ins.Label).Ceil()
	metrics := r.face.Metrics()
	height := metrics.Height.Ceil()

	pos := ins.LabelPosition
	box := image.Rect(pos.X, pos.Y, pos.X+width+2*labelPadding, pos.Y+height+2*labelPadding).Intersect(dst.Bounds())
	draw.Draw(dst, box, image.NewUniform(labelBackground), image.Point{}, draw.Over)

	d.Dot = fixed.P(pos.X+labelPadding, pos.Y+labelPadding+metrics.Ascent.Ceil())
	d.DrawString(ins.Label)
}

func alpha(opacity float64) uint8 {
	switch {
	case opacity <= 0:
		return 0
	case opacity >= 1:
		return 255
	}
	return uint8(opacity*255 + 0.5)
}
