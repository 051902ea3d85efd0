package controllers

import (
	"github.com/gin-gonic/gin"
	"net/http"

	"trip/internal/services"
)

const signatureHeader = "Stripe-Signature"

type PaymentController struct {
	paymentService services.PaymentService
}

func NewPaymentController(paymentService services.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

// WebhookCheckout godoc
// @Summary Payment provider webhook
// @Description Verifies the signature and books completed checkout sessions. Replayed events are acknowledged without a second booking.
// @Tags Payments
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Provider signature"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} utils.APIResponse
// @Router /webhook-checkout [post]
func (p *PaymentController) WebhookCheckout(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := p.paymentService.HandleWebhook(c.Request.Context(), payload, c.GetHeader(signatureHeader)); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
