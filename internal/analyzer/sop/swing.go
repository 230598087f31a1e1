package sop

import "golang-zone-analyzer/internal/analyzer/dto"

// NewSwing builds the daily/4-hour swing procedure. Zone kind must agree with
// the signal on the primary chart; the entry chart may exceed the pip range.
func NewSwing(settings Settings) Strategy {
	return newStrategy(dto.StrategySwing, settings.withDefaults(DefaultSwingSettings()), rules{
		strictZoneKind: true,
		relaxEntryPips: true,
	}, promptBrief{
		title: "swing trade",
		primaryFocus: `1. Read the market structure. Higher highs and higher lows is an uptrend, lower highs and lower lows is a downtrend, anything else is sideways.
2. Mark the nearest support zone in an uptrend or resistance zone in a downtrend. Use a breakout zone only when a candle has just closed beyond a tested level.
3. Look for an engulfing candle that closed at the zone. Without one the signal is wait.`,
		entryFocus: `1. Check that price is trading inside or right next to the higher timeframe zone.
2. Look for an engulfing candle in the direction of the higher timeframe signal.
3. Mark the entry zone around the candle that confirms the reaction.`,
	})
}
