package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// ServiceTokenRequired guards internal endpoints with a shared bearer token.
// An unset token disables the surface entirely rather than leaving it open.
func (s *Server) ServiceTokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.ServiceToken == "" {
			AbortWithError(c, ErrNotFound)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.ServiceToken)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

type analyticsResponse struct {
	FreeAccounts     int64 `json:"freeAccounts"`
	ProAccounts      int64 `json:"proAccounts"`
	GenerationsMonth int64 `json:"generationsThisMonth"`
	Referrals        int64 `json:"referrals"`
	PendingEvents    int64 `json:"pendingBillingEvents"`
	FailedEvents     int64 `json:"failedBillingEvents"`
}

// @Summary      Analytics
// @Description  Operational counters for dashboards
// @Tags         internal
// @Produce      json
// @Success      200  {object}  analyticsResponse
// @Router       /internal/analytics [get]
func (s *Server) Analytics(c *gin.Context) {
	ctx := c.Request.Context()
	var resp analyticsResponse

	rows := []struct {
		dest  *int64
		query string
		args  []any
	}{
		{&resp.FreeAccounts, "SELECT COUNT(*) FROM accounts WHERE tier = ?", []any{"FREE"}},
		{&resp.ProAccounts, "SELECT COUNT(*) FROM accounts WHERE tier = ?", []any{"PRO"}},
		{&resp.GenerationsMonth, "SELECT COUNT(*) FROM generation_records WHERE created_at >= ?", []any{monthStart(time.Now().UTC())}},
		{&resp.Referrals, "SELECT COUNT(*) FROM referrals", nil},
		{&resp.PendingEvents, "SELECT COUNT(*) FROM billing_events WHERE processed_at IS NULL", nil},
		{&resp.FailedEvents, "SELECT COUNT(*) FROM billing_events WHERE status = ?", []any{"FAILED"}},
	}
	for _, r := range rows {
		if err := s.db.WithContext(ctx).Raw(r.query, r.args...).Scan(r.dest).Error; err != nil {
			AbortWithError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func monthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

type provisionAccountRequest struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
}

// @Summary      Provision Account
// @Description  Create the entitlement row for an identity-provider account
// @Tags         internal
// @Accept       json
// @Produce      json
// @Param        request body provisionAccountRequest true "Provision Account Request"
// @Success      200  {object}  domain.Account
// @Router       /internal/accounts [post]
func (s *Server) ProvisionAccount(c *gin.Context) {
	var req provisionAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	account, err := s.entitlementSvc.EnsureAccount(
		c.Request.Context(),
		strings.TrimSpace(req.AccountID),
		strings.TrimSpace(req.Email),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": account})
}
