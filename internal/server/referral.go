package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type trackReferralRequest struct {
	AccountID    string `json:"accountId"`
	ReferralCode string `json:"referralCode"`
}

// @Summary      Track Referral
// @Description  Record that an account signed up through another account's referral code
// @Tags         referrals
// @Accept       json
// @Produce      json
// @Param        request body trackReferralRequest true "Track Referral Request"
// @Success      200
// @Router       /referrals/track [post]
func (s *Server) TrackReferral(c *gin.Context) {
	var req trackReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	// Referral codes are the referrer's account ID.
	created, err := s.referralSvc.Track(
		c.Request.Context(),
		strings.TrimSpace(req.ReferralCode),
		strings.TrimSpace(req.AccountID),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"created": created}})
}
