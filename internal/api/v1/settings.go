package v1

import (
	"net/http"

	"github.com/RiveraMg/MiaBot/internal/api/dto"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/logger"
	"github.com/RiveraMg/MiaBot/internal/service"
	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	settingsService service.SettingsService
	logger          *logger.Logger
}

func NewSettingsHandler(settingsService service.SettingsService, logger *logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

// GetSettings godoc
// @Summary Get tenant ledger settings
// @Description Tax rate, invoice prefix and payment terms. Defaults are returned until the tenant saves its own.
// @Tags Settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SettingsResponse
// @Router /settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	resp, err := h.settingsService.GetSettings(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateSettings godoc
// @Summary Update tenant ledger settings
// @Description Applies to invoices created afterwards. Existing invoices keep their rate.
// @Tags Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param settings body dto.UpdateSettingsRequest true "Changes"
// @Success 200 {object} dto.SettingsResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /settings [put]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req dto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.settingsService.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
