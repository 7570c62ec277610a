package v1

import (
	"net/http"

	"github.com/RiveraMg/MiaBot/internal/logger"
	"github.com/RiveraMg/MiaBot/internal/service"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
	logger           *logger.Logger
}

func NewDashboardHandler(dashboardService service.DashboardService, logger *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// GetFinanceSummary godoc
// @Summary Finance summary
// @Description Revenue this month and last month, growth, receivables and inventory value
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.FinanceSummaryResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Router /dashboard/finance [get]
func (h *DashboardHandler) GetFinanceSummary(c *gin.Context) {
	resp, err := h.dashboardService.GetFinanceSummary(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
