package common

const (
	RedisStreamAnalysisJob = "analysis.job"

	RedisStreamGroup    = "analyzer-group"
	RedisStreamConsumer = "analyzer-consumer"

	// RedisKeyLatestDecision holds the last decision JSON per pair and strategy.
	RedisKeyLatestDecision = "decision:latest:%s:%s"
)
