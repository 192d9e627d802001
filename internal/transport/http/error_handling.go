package httpt

import (
	"context"
	"errors"
	"net/http"

	"checkout/internal/entity"
	"checkout/pkg/logger"

	"github.com/gin-gonic/gin"
)

func (h *CheckoutHandler) handleServiceError(c *gin.Context, err error, op string) {
	ctx := c.Request.Context()
	log := h.log.Ctx(ctx)

	log.LogAttrs(ctx, logger.WarnLevel, op+" failed",
		logger.Err(err),
		logger.String("remote_addr", c.ClientIP()),
		logger.String("user_agent", c.Request.UserAgent()),
	)

	switch {
	case errors.Is(err, entity.ErrMissingSignature):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing signature"})
	case errors.Is(err, entity.ErrSignatureMismatch):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid signature"})
	case errors.Is(err, entity.ErrMalformedEvent):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid payload"})
	case errors.Is(err, entity.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Cart is empty"})
	case errors.Is(err, entity.ErrUnknownMenuItem):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unknown menu item"})
	case errors.Is(err, entity.ErrInvalidData):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid order data"})
	case errors.Is(err, entity.ErrMissingConfiguration):
		log.LogAttrs(ctx, logger.ErrorLevel, "service misconfigured",
			logger.String("op", op),
			logger.String("path", c.Request.URL.Path),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Service not configured"})
	case errors.Is(err, entity.ErrOrderCreationFailed):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Failed to create order"})
	case errors.Is(err, entity.ErrTooManyPendingOrders):
		c.Header("Retry-After", "60")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Too many pending orders, try again later"})
	case errors.Is(err, context.DeadlineExceeded):
		log.LogAttrs(ctx, logger.WarnLevel, "request timeout",
			logger.String("path", c.Request.URL.Path),
			logger.String("client_ip", c.ClientIP()),
		)
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: "Request timed out"})
	default:
		log.LogAttrs(ctx, logger.ErrorLevel, "internal server error",
			logger.Err(err),
			logger.String("path", c.Request.URL.Path),
			logger.String("client_ip", c.ClientIP()),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal service error"})
	}
}

func (h *CheckoutHandler) handleBindError(c *gin.Context, op string, err error) {
	ctx := c.Request.Context()

	h.log.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "invalid request body",
		logger.String("op", op),
		logger.Err(err),
		logger.String("remote_addr", c.ClientIP()),
	)

	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
}
