package render

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"golang-zone-analyzer/internal/analyzer/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func whitePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func rgbAt(img image.Image, x, y int) (uint8, uint8, uint8) {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

func TestRenderDrawsZoneBorderAndLabel(t *testing.T) {
	green := dto.RGBA{R: 0, G: 200, B: 83, A: 255}
	out, err := NewRenderer().Render(whitePNG(t, 200, 120), []dto.DrawingInstruction{{
		PixelRect:     dto.PixelRect{X1: 20, Y1: 50, X2: 120, Y2: 90},
		Color:         green,
		Opacity:       0.25,
		BorderWidth:   2,
		Label:         "BUY",
		LabelPosition: dto.LabelPosition{X: 23, Y: 25, Placement: dto.LabelAbove},
	}})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 200, 120), img.Bounds())

	r, g, b := rgbAt(img, 20, 70)
	assert.Equal(t, [3]uint8{0, 200, 83}, [3]uint8{r, g, b}, "border is drawn opaque")

	r, g, b = rgbAt(img, 70, 70)
	assert.Less(t, r, uint8(255), "fill is blended over the chart")
	assert.Greater(t, r, uint8(150))
	assert.Greater(t, g, r)
	assert.Greater(t, b, uint8(0))

	r, g, b = rgbAt(img, 180, 110)
	assert.Equal(t, [3]uint8{255, 255, 255}, [3]uint8{r, g, b})

	dark := false
	for x := 23; x < 60 && !dark; x++ {
		for y := 25; y < 48; y++ {
			if r, _, _ := rgbAt(img, x, y); r < 100 {
				dark = true
				break
			}
		}
	}
	assert.True(t, dark, "label text is drawn")
}

func TestRenderClipsOutOfBounds(t *testing.T) {
	out, err := NewRenderer().Render(whitePNG(t, 50, 50), []dto.DrawingInstruction{{
		PixelRect:   dto.PixelRect{X1: 60, Y1: 60, X2: 80, Y2: 80},
		Color:       dto.RGBA{R: 213, A: 255},
		Opacity:     0.25,
		BorderWidth: 2,
	}})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRenderRejectsGarbage(t *testing.T) {
	_, err := NewRenderer().Render([]byte("nope"), nil)
	assert.Error(t, err)
}
