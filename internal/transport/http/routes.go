package httpt

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *CheckoutHandler) setupRoutes() {
	h.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := h.router.Group("/api/v1")
	{
		api.GET("/menu", h.getMenuHandler)
		api.POST("/orders", h.createOrderHandler)
		api.POST("/payments/verify", h.verifyPaymentHandler)
		api.POST("/webhooks/payment", h.paymentWebhookHandler)
	}
}
