package server

import (
	"io"
	"net/http"
	"strings"

	billingdomain "github.com/foundify/foundify/internal/billing/domain"
	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

// webhookStatusCode maps reconciliation outcomes to provider-facing HTTP
// codes: 2xx stops redelivery, non-2xx asks for another attempt.
func webhookStatusCode(result billingdomain.Result) int {
	switch result.Status {
	case billingdomain.StatusApplied, billingdomain.StatusIgnored:
		return http.StatusOK
	case billingdomain.StatusFailed:
		if result.Reason == billingdomain.ReasonStorageUnavailable {
			return http.StatusServiceUnavailable
		}
		if result.Retryable {
			return http.StatusUnprocessableEntity
		}
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// @Summary      Billing Webhook
// @Description  Ingest a payment provider event
// @Tags         billing
// @Accept       json
// @Produce      json
// @Success      200  {object}  billingdomain.Result
// @Router       /billing/webhook [post]
func (s *Server) BillingWebhook(c *gin.Context) {
	provider := strings.TrimSpace(c.Query("provider"))
	if provider == "" {
		provider = "stripe"
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.billingSvc.IngestWebhook(c.Request.Context(), provider, payload, c.Request.Header)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(webhookStatusCode(result), gin.H{"data": result})
}

type startCheckoutRequest struct {
	AccountID string `json:"accountId"`
}

// @Summary      Start Checkout
// @Description  Create a hosted checkout session for the PRO subscription
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        request body startCheckoutRequest true "Start Checkout Request"
// @Success      200  {object}  checkoutdomain.Session
// @Router       /billing/checkout [post]
func (s *Server) StartCheckout(c *gin.Context) {
	var req startCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	session, err := s.checkoutSvc.Start(c.Request.Context(), strings.TrimSpace(req.AccountID))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": session})
}

type verifyCheckoutRequest struct {
	AccountID string `json:"accountId"`
	SessionID string `json:"sessionId"`
}

// @Summary      Verify Checkout
// @Description  Synchronously reconcile a completed checkout session
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        request body verifyCheckoutRequest true "Verify Checkout Request"
// @Success      200  {object}  billingdomain.Result
// @Router       /billing/checkout/verify [post]
func (s *Server) VerifyCheckout(c *gin.Context) {
	var req verifyCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.checkoutSvc.Verify(
		c.Request.Context(),
		strings.TrimSpace(req.AccountID),
		strings.TrimSpace(req.SessionID),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}
