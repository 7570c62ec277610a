package v1

import (
	"net/http"

	"github.com/RiveraMg/MiaBot/internal/api/dto"
	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/RiveraMg/MiaBot/internal/logger"
	"github.com/RiveraMg/MiaBot/internal/service"
	"github.com/RiveraMg/MiaBot/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	logger         *logger.Logger
}

func NewPaymentHandler(paymentService service.PaymentService, logger *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// RecordPayment godoc
// @Summary Record a payment
// @Description Record money received against a sent invoice. Retries carrying the same Idempotency-Key return the original payment.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Param Idempotency-Key header string false "Idempotency key"
// @Param payment body dto.RecordPaymentRequest true "Payment"
// @Success 201 {object} dto.RecordPaymentResponse
// @Success 200 {object} dto.RecordPaymentResponse "Replayed"
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /invoices/{id}/payments [post]
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	if key := c.GetHeader(types.HeaderIdempotency); key != "" && req.IdempotencyKey == nil {
		req.IdempotencyKey = lo.ToPtr(key)
	}

	resp, err := h.paymentService.RecordPayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(lo.Ternary(resp.Replayed, http.StatusOK, http.StatusCreated), resp)
}

// ListPayments godoc
// @Summary List payments of an invoice
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.ListPaymentsResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /invoices/{id}/payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	resp, err := h.paymentService.ListPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
