package geometry

import (
	"math"

	"golang-zone-analyzer/internal/analyzer/dto"
)

// PriceToPixel maps a price onto the vertical axis of the image described by scale.
// It reports false when the scale is missing or unusable.
func PriceToPixel(price float64, scale *dto.PriceScale) (int, bool) {
	if !usable(scale) {
		return 0, false
	}
	ratio := (scale.PriceHigh - price) / (scale.PriceHigh - scale.PriceLow)
	return int(math.Round(ratio * float64(scale.ImageHeight))), true
}

// PixelToPrice is the inverse of PriceToPixel.
func PixelToPrice(y int, scale *dto.PriceScale) (float64, bool) {
	if !usable(scale) {
		return 0, false
	}
	span := scale.PriceHigh - scale.PriceLow
	return scale.PriceHigh - float64(y)/float64(scale.ImageHeight)*span, true
}

func usable(scale *dto.PriceScale) bool {
	return scale != nil && scale.PriceHigh > scale.PriceLow && scale.ImageHeight > 0
}
