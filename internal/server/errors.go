package server

import (
	"errors"
	"net/http"

	billingdomain "github.com/foundify/foundify/internal/billing/domain"
	checkoutdomain "github.com/foundify/foundify/internal/checkout/domain"
	entitlementdomain "github.com/foundify/foundify/internal/entitlement/domain"
	generationdomain "github.com/foundify/foundify/internal/generation/domain"
	referraldomain "github.com/foundify/foundify/internal/referral/domain"
	"github.com/gin-gonic/gin"
)

var (
	ErrNotFound           = errors.New("not_found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTooManyRequests    = errors.New("too_many_requests")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

type apiError struct {
	status  int
	code    string
	message string
}

func (e apiError) Error() string { return e.code }

func invalidRequestError() error {
	return apiError{status: http.StatusBadRequest, code: "invalid_request", message: "request body could not be parsed"}
}

func newValidationError(field, code, message string) error {
	return apiError{status: http.StatusBadRequest, code: field + "_" + code, message: message}
}

// AbortWithError maps domain errors onto the HTTP surface. Storage failures
// collapse to 503 so callers retry rather than interpret.
func AbortWithError(c *gin.Context, err error) {
	var typed apiError
	if errors.As(err, &typed) {
		c.AbortWithStatusJSON(typed.status, gin.H{"error": gin.H{"code": typed.code, "message": typed.message}})
		return
	}

	status := http.StatusServiceUnavailable
	code := "storage_unavailable"

	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, entitlementdomain.ErrNotFound),
		errors.Is(err, checkoutdomain.ErrSessionNotFound),
		errors.Is(err, billingdomain.ErrProviderNotFound):
		status = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, ErrUnauthorized):
		status = http.StatusUnauthorized
		code = "unauthorized"
	case errors.Is(err, ErrTooManyRequests):
		status = http.StatusTooManyRequests
		code = "too_many_requests"
	case errors.Is(err, entitlementdomain.ErrInvalidAccount),
		errors.Is(err, entitlementdomain.ErrInvalidTier),
		errors.Is(err, generationdomain.ErrInvalidAccount),
		errors.Is(err, generationdomain.ErrInvalidGeneration),
		errors.Is(err, referraldomain.ErrInvalidReferral),
		errors.Is(err, referraldomain.ErrSelfReferral),
		errors.Is(err, checkoutdomain.ErrInvalidSession),
		errors.Is(err, billingdomain.ErrInvalidPayload),
		errors.Is(err, billingdomain.ErrInvalidEvent),
		errors.Is(err, billingdomain.ErrInvalidProvider):
		status = http.StatusBadRequest
		code = err.Error()
	case errors.Is(err, billingdomain.ErrInvalidSignature):
		status = http.StatusBadRequest
		code = "invalid_signature"
	case errors.Is(err, generationdomain.ErrOwnershipMismatch),
		errors.Is(err, entitlementdomain.ErrStaleTransition),
		errors.Is(err, checkoutdomain.ErrSessionMismatch):
		status = http.StatusConflict
		code = err.Error()
	case errors.Is(err, entitlementdomain.ErrMissingBillingRef):
		status = http.StatusUnprocessableEntity
		code = err.Error()
	case errors.Is(err, checkoutdomain.ErrProviderUnavailable):
		status = http.StatusBadGateway
		code = err.Error()
	}

	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": code}})
}
