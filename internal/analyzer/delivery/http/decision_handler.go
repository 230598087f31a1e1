package http

import (
	"net/http"
	"strings"

	"golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/internal/analyzer/repository"
	"golang-zone-analyzer/pkg/logger"
	"golang-zone-analyzer/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// DecisionHandler serves decisions and accepts new analysis requests.
type DecisionHandler struct {
	decisions repository.DecisionCacheRepository
	reports   repository.AnalysisReportRepository
	queue     repository.JobQueueRepository
	validate  *validator.Validate
	logger    *logger.Logger
}

// NewDecisionHandler creates a new DecisionHandler. reports may be nil when
// the service runs with the file report store.
func NewDecisionHandler(decisions repository.DecisionCacheRepository, reports repository.AnalysisReportRepository, queue repository.JobQueueRepository, logger *logger.Logger) *DecisionHandler {
	return &DecisionHandler{
		decisions: decisions,
		reports:   reports,
		queue:     queue,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

// RegisterRoutes registers the decision routes to the Echo group.
func (h *DecisionHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/decisions/:pair/:strategy", h.GetLatestDecision)
	g.POST("/analyses", h.EnqueueAnalysis)
}

// Health godoc
// @Summary Liveness probe
// @Tags health
// @Produce  json
// @Success 200 {object} dto.HealthResponse
// @Router /healthz [get]
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
}

// GetLatestDecision godoc
// @Summary Get the latest decision
// @Description Latest decision for a pair and strategy, from the cache or the report table
// @Tags decisions
// @Produce  json
// @Param   pair      path  string true "Pair, e.g. EURUSD"
// @Param   strategy  path  string true "swing or scalping"
// @Success 200 {object} dto.CombinedDecision
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /decisions/{pair}/{strategy} [get]
func (h *DecisionHandler) GetLatestDecision(c echo.Context) error {
	ctx := c.Request().Context()
	pair := utils.NormalizePair(c.Param("pair"))
	strategy := dto.StrategyName(strings.ToLower(c.Param("strategy")))

	decision, err := h.decisions.Get(ctx, pair, strategy)
	if err != nil {
		h.logger.Warn("Failed to read decision cache", logger.ErrorField(err), logger.StringField("pair", pair))
	}
	if decision != nil {
		return c.JSON(http.StatusOK, decision)
	}

	if h.reports != nil {
		row, err := h.reports.GetLatest(ctx, pair, string(strategy))
		if err != nil {
			h.logger.Error("Failed to get latest report", logger.ErrorField(err), logger.StringField("pair", pair))
			return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get decision"})
		}
		if row != nil {
			decision, err := repository.DecisionFromEntity(row)
			if err != nil {
				h.logger.Error("Failed to decode stored report", logger.ErrorField(err), logger.StringField("report_key", row.ReportKey))
				return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get decision"})
			}
			return c.JSON(http.StatusOK, decision)
		}
	}

	return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "No decision found"})
}

// EnqueueAnalysis godoc
// @Summary Request an analysis
// @Description Put one pair x strategy job on the analysis stream
// @Tags analyses
// @Accept  json
// @Produce  json
// @Param   request  body    dto.EnqueueAnalysisRequest   true    "Analysis to run"
// @Success 202 {object} dto.EnqueueAnalysisResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /analyses [post]
func (h *DecisionHandler) EnqueueAnalysis(c echo.Context) error {
	var req dto.EnqueueAnalysisRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request payload"})
	}
	req.Strategy = dto.StrategyName(strings.ToLower(string(req.Strategy)))
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	job := dto.StreamDataAnalysisJob{
		Pair:       utils.NormalizePair(req.Pair),
		Strategy:   req.Strategy,
		NotifyUser: req.NotifyUser,
		TelegramID: req.TelegramID,
	}
	id, err := h.queue.Enqueue(c.Request().Context(), job)
	if err != nil {
		h.logger.Error("Failed to enqueue analysis", logger.ErrorField(err), logger.StringField("pair", job.Pair))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to enqueue analysis"})
	}

	return c.JSON(http.StatusAccepted, dto.EnqueueAnalysisResponse{MessageID: id, Pair: job.Pair, Strategy: job.Strategy})
}
