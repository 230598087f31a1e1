package sop

import "golang-zone-analyzer/internal/analyzer/dto"

// NewScalping builds the hourly/15-minute scalping procedure. Zone kind
// disagreements only warn, pip range is strict on both charts and a confirmed
// decision reports the entry chart's direction.
func NewScalping(settings Settings) Strategy {
	return newStrategy(dto.StrategyScalping, settings.withDefaults(DefaultScalpingSettings()), rules{
		warnDirectionWait:  true,
		confirmEntrySignal: true,
	}, promptBrief{
		title: "intraday scalp",
		primaryFocus: `1. Read the micro trend from the last 20 to 30 candles only.
2. Mark the closest intraday support or resistance the price is reacting to right now.
3. Look for a pin bar or engulfing candle rejecting that level. Without one the signal is wait.`,
		entryFocus: `1. Zoom into the higher timeframe zone and confirm price is inside it.
2. Look for a pin bar or engulfing candle that rejects the zone in the higher timeframe direction.
3. Mark a tight entry zone around the rejection candle.`,
	})
}
