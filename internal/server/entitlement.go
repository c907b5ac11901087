package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type entitlementResponse struct {
	AccountID          string `json:"accountId"`
	Tier               string `json:"tier"`
	BillingCustomerRef string `json:"billingCustomerRef,omitempty"`
}

// @Summary      Get Entitlement
// @Description  Read an account's current tier
// @Tags         entitlement
// @Produce      json
// @Param        accountId  path  string  true  "Account ID"
// @Success      200  {object}  entitlementResponse
// @Router       /entitlement/{accountId} [get]
func (s *Server) GetEntitlement(c *gin.Context) {
	accountID := strings.TrimSpace(c.Param("accountId"))
	account, err := s.entitlementSvc.Lookup(c.Request.Context(), accountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := entitlementResponse{
		AccountID: account.ID,
		Tier:      string(account.Tier),
	}
	if account.BillingCustomerRef != nil {
		resp.BillingCustomerRef = *account.BillingCustomerRef
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
