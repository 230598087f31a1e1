package sop

import (
	"golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/pkg/utils"
)

func primaryResult(trend dto.Trend, signal dto.Signal, pattern string, conf float64) *dto.TimeframeResult {
	return &dto.TimeframeResult{
		TimeframeID: "D1",
		Role:        dto.RolePrimary,
		Trend:       trend,
		Signal:      signal,
		Pattern:     pattern,
		Zone:        dto.ZoneCandidate{PriceHigh: 1.1050, PriceLow: 1.1000, ZoneKind: dto.ZoneSupport},
		Confidence:  utils.ToPointer(conf),
		Source:      dto.SourceVision,
	}
}

func entryResult(signal dto.Signal, pattern string, conf float64, inside bool) *dto.TimeframeResult {
	return &dto.TimeframeResult{
		TimeframeID:       "H4",
		Role:              dto.RoleEntry,
		Trend:             dto.TrendUp,
		Signal:            signal,
		Pattern:           pattern,
		Zone:              dto.ZoneCandidate{PriceHigh: 1.1030, PriceLow: 1.1010, ZoneKind: dto.ZoneSupport},
		Confidence:        utils.ToPointer(conf),
		InsidePrimaryZone: utils.ToPointer(inside),
		Source:            dto.SourceVision,
	}
}
