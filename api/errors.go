package api

import (
	"net/http"

	"github.com/Domenick1991/flightshop/internal/domain"
	"github.com/Domenick1991/flightshop/internal/supplier"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
)

const invalidSessionMessage = "invalid or expired session"

// respondError maps service errors to status codes. Session failures all
// collapse into one message regardless of cause.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, domain.ErrInvalidSession):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": invalidSessionMessage})
	case errors.Is(err, domain.ErrInvalidSearchParams), errors.Is(err, domain.ErrInvalidOrder):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNoOffers):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": domain.ErrNoOffers.Error()})
	case errors.Is(err, domain.ErrOrderNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": domain.ErrOrderNotFound.Error()})
	case errors.Is(err, domain.ErrCheckoutInProgress):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": domain.ErrCheckoutInProgress.Error()})
	case errors.Is(err, supplier.ErrUpstream):
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": supplier.ErrUpstream.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
