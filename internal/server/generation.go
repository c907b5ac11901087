package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type authorizeGenerationRequest struct {
	AccountID string `json:"accountId"`
}

// @Summary      Authorize Generation
// @Description  Decide whether the account may start a generation
// @Tags         generation
// @Accept       json
// @Produce      json
// @Param        request body authorizeGenerationRequest true "Authorize Request"
// @Success      200  {object}  quotadomain.Decision
// @Router       /generation/authorize [post]
func (s *Server) AuthorizeGeneration(c *gin.Context) {
	var req authorizeGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	accountID := strings.TrimSpace(req.AccountID)
	if accountID == "" {
		AbortWithError(c, newValidationError("accountId", "required", "accountId is required"))
		return
	}
	if !s.authorizeLimit.Allow(accountID) {
		AbortWithError(c, ErrTooManyRequests)
		return
	}

	// Storage failures come back as a DENY decision, not an error; only
	// unknown accounts surface as an error here.
	decision, err := s.quotaSvc.CanGenerate(c.Request.Context(), accountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": decision})
}

type recordGenerationRequest struct {
	AccountID    string `json:"accountId"`
	GenerationID string `json:"generationId"`
}

// @Summary      Record Generation
// @Description  Append a completed generation to the ledger
// @Tags         generation
// @Accept       json
// @Produce      json
// @Param        request body recordGenerationRequest true "Record Request"
// @Success      200  {object}  generationdomain.Record
// @Router       /generation/record [post]
func (s *Server) RecordGeneration(c *gin.Context) {
	var req recordGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	record, err := s.generationSvc.Record(
		c.Request.Context(),
		strings.TrimSpace(req.AccountID),
		strings.TrimSpace(req.GenerationID),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"generationId": record.ID,
		"accountId":    record.AccountID,
		"recordedAt":   record.CreatedAt,
	}})
}
