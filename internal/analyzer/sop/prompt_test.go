package sop

import (
	"testing"

	"golang-zone-analyzer/internal/analyzer/apperror"
	"golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPromptPrimary(t *testing.T) {
	swing := NewSwing(Settings{})

	prompt, err := swing.BuildPrompt(PromptInput{Pair: "eurusd", Role: dto.RolePrimary})

	require.NoError(t, err)
	assert.Contains(t, prompt, "EURUSD")
	assert.Contains(t, prompt, "D1 chart")
	assert.Contains(t, prompt, "Allowed patterns: bullish_engulfing, bearish_engulfing, none.")
	assert.Contains(t, prompt, "between 20 and 200 pips")
	assert.Contains(t, prompt, "shadow to shadow")
	assert.Contains(t, prompt, "high impact news")
	assert.NotContains(t, prompt, "inside_primary_zone")
}

func TestBuildPromptEntryEmbedsPrior(t *testing.T) {
	scalping := NewScalping(Settings{})
	prior := primaryResult(dto.TrendUp, dto.SignalBuy, "bullish_engulfing", 0.8)

	prompt, err := scalping.BuildPrompt(PromptInput{Pair: "EURUSD", Role: dto.RoleEntry, Prior: prior})

	require.NoError(t, err)
	assert.Contains(t, prompt, "M15 chart")
	assert.Contains(t, prompt, "signal buy, pattern bullish_engulfing, support zone 1.1 - 1.105")
	assert.Contains(t, prompt, "body to body")
	assert.Contains(t, prompt, "bullish_pin_bar")
	assert.Contains(t, prompt, "inside_primary_zone")
}

func TestBuildPromptMissingInput(t *testing.T) {
	swing := NewSwing(Settings{})

	_, err := swing.BuildPrompt(PromptInput{Role: dto.RolePrimary})
	assert.ErrorIs(t, err, apperror.ErrMissingPromptInput)

	_, err = swing.BuildPrompt(PromptInput{Pair: "EURUSD", Role: dto.RoleEntry})
	assert.ErrorIs(t, err, apperror.ErrMissingPromptInput)
}

func TestSettingsOverrideKeepsDefaults(t *testing.T) {
	swing := NewSwing(Settings{ConfidenceThreshold: utils.ToPointer(0.8), MinPips: 30, MaxPips: 120})

	got := swing.Settings()
	assert.Equal(t, 0.8, got.Threshold())
	assert.Equal(t, 0.5, got.Tolerance())
	assert.Equal(t, 30.0, got.MinPips)
	assert.Equal(t, "D1", got.PrimaryTimeframe)
	assert.Equal(t, dto.DrawShadowToShadow, got.DrawStyle)
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry(NewSwing(Settings{}), NewScalping(Settings{}))

	s, err := registry.Get("Scalping")
	require.NoError(t, err)
	assert.Equal(t, dto.StrategyScalping, s.Name())

	_, err = registry.Get("position")
	assert.ErrorIs(t, err, apperror.ErrUnknownStrategy)

	assert.Equal(t, []dto.StrategyName{dto.StrategyScalping, dto.StrategySwing}, registry.Names())

	_, err = New("position", Settings{})
	assert.ErrorIs(t, err, apperror.ErrUnknownStrategy)
}
