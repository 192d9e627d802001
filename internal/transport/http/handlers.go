package httpt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"checkout/internal/catalog"
	"checkout/internal/entity"
	"checkout/pkg/logger"

	"github.com/gin-gonic/gin"
)

const _signatureHeader = "X-Razorpay-Signature"

func (h *CheckoutHandler) getMenuHandler(c *gin.Context) {
	c.JSON(http.StatusOK, MenuResponse{Items: h.catalog.Menu()})
}

func (h *CheckoutHandler) createOrderHandler(c *gin.Context) {
	const op = "transport.createOrderHandler"

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, op, err)
		return
	}

	lines := make([]catalog.LineRequest, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, catalog.LineRequest{ID: item.ID, Quantity: item.Quantity})
	}

	items, err := h.catalog.Resolve(lines)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	created, err := h.orders.CreateOrder(ctx, req.CustomerName, req.PhoneNumber, items)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *CheckoutHandler) verifyPaymentHandler(c *gin.Context) {
	const op = "transport.verifyPaymentHandler"

	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctx := c.Request.Context()
		h.log.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "invalid verification request",
			logger.String("op", op),
			logger.Err(err),
			logger.String("remote_addr", c.ClientIP()),
		)
		result := entity.VerificationFailure(fmt.Errorf("%s: %w: %w", op, entity.ErrInvalidData, err))
		c.JSON(verificationStatus(result), result)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	result := h.verifier.Verify(ctx, req.callback())
	c.JSON(verificationStatus(result), result)
}

func (h *CheckoutHandler) paymentWebhookHandler(c *gin.Context) {
	const op = "transport.paymentWebhookHandler"
	log := h.log.Ctx(c.Request.Context())

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxWebhookBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Payload too large"})
			return
		}
		log.LogAttrs(c.Request.Context(), logger.WarnLevel, "failed to read webhook body",
			logger.String("op", op),
			logger.Err(err),
		)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid payload"})
		return
	}

	ack, err := h.webhooks.HandleWebhook(c.Request.Context(), body, c.GetHeader(_signatureHeader))
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, ack)
}

// verificationStatus keeps the VerificationResult body for every outcome and
// only varies the status code.
func verificationStatus(result entity.VerificationResult) int {
	if result.Success {
		return http.StatusOK
	}

	err := result.Err()
	switch {
	case errors.Is(err, entity.ErrOrderNotFound),
		errors.Is(err, entity.ErrSignatureMismatch),
		errors.Is(err, entity.ErrInvalidData):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrPaymentIncomplete):
		return http.StatusPaymentRequired
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
