package http

import (
	"errors"
	"net/http"

	analyzerdto "golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/internal/scheduler/service"
	"golang-zone-analyzer/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ScheduleHandler handles HTTP requests for schedules.
type ScheduleHandler struct {
	schedulerService service.SchedulerService
	logger           *logger.Logger
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(schedulerService service.SchedulerService, logger *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{schedulerService: schedulerService, logger: logger}
}

// RegisterRoutes registers the schedule routes to the Echo group.
func (h *ScheduleHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetAllSchedules)
	g.POST("/:name/trigger", h.TriggerSchedule)
}

// GetAllSchedules godoc
// @Summary Get all schedules
// @Description List configured schedules with their next and previous run
// @Tags schedules
// @Produce  json
// @Success 200 {array} dto.ScheduleResponse
// @Router /schedules [get]
func (h *ScheduleHandler) GetAllSchedules(c echo.Context) error {
	return c.JSON(http.StatusOK, h.schedulerService.Schedules())
}

// TriggerSchedule godoc
// @Summary Run a schedule now
// @Description Enqueue every pair x strategy job of the schedule immediately
// @Tags schedules
// @Produce  json
// @Param   name  path    string true    "Schedule name"
// @Success 202 {object} dto.TriggerResponse
// @Failure 404 {object} analyzerdto.ErrorResponse
// @Failure 500 {object} analyzerdto.ErrorResponse
// @Router /schedules/{name}/trigger [post]
func (h *ScheduleHandler) TriggerSchedule(c echo.Context) error {
	resp, err := h.schedulerService.Trigger(c.Request().Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, service.ErrScheduleNotFound) {
			return c.JSON(http.StatusNotFound, analyzerdto.ErrorResponse{Error: err.Error()})
		}
		h.logger.Error("Failed to trigger schedule", logger.ErrorField(err), logger.StringField("name", c.Param("name")))
		return c.JSON(http.StatusInternalServerError, analyzerdto.ErrorResponse{Error: "Failed to trigger schedule"})
	}
	return c.JSON(http.StatusAccepted, resp)
}
