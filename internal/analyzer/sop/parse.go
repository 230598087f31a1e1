package sop

import (
	"encoding/json"
	"strings"

	"golang-zone-analyzer/internal/analyzer/apperror"
	"golang-zone-analyzer/internal/analyzer/dto"
)

// ParseVisionResponse decodes a model reply. Malformed JSON yields *apperror.SchemaError.
func ParseVisionResponse(raw string, role dto.Role, timeframe string) (*dto.TimeframeResult, error) {
	var result dto.TimeframeResult
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &result); err != nil {
		return nil, &apperror.SchemaError{Reason: err.Error(), Raw: raw}
	}

	result.Role = role
	result.TimeframeID = timeframe
	result.Source = dto.SourceVision
	result.RawText = raw
	result.Trend = dto.Trend(strings.ToLower(strings.TrimSpace(string(result.Trend))))
	result.Signal = dto.Signal(strings.ToLower(strings.TrimSpace(string(result.Signal))))
	result.Pattern = normalizePattern(result.Pattern)
	result.Zone.ZoneKind = dto.ZoneKind(strings.ToLower(strings.TrimSpace(string(result.Zone.ZoneKind))))
	if result.Role != dto.RoleEntry {
		result.InsidePrimaryZone = nil
	}
	return &result, nil
}

// cleanJSON strips markdown fences and any prose around the outermost object.
func cleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "`")
	s = strings.TrimPrefix(s, "json")
	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return strings.TrimSpace(s)
}
