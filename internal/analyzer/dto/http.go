package dto

// ErrorResponse represents a generic error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// EnqueueAnalysisRequest asks for one pair x strategy analysis.
type EnqueueAnalysisRequest struct {
	Pair       string       `json:"pair" validate:"required"`
	Strategy   StrategyName `json:"strategy" validate:"required,oneof=swing scalping"`
	NotifyUser bool         `json:"notify_user"`
	TelegramID int64        `json:"telegram_id" validate:"required_if=NotifyUser true"`
}

// EnqueueAnalysisResponse is returned once the job is on the stream.
type EnqueueAnalysisResponse struct {
	MessageID string       `json:"message_id"`
	Pair      string       `json:"pair"`
	Strategy  StrategyName `json:"strategy"`
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}
