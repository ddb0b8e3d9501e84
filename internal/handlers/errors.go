package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"affiliate-platform/internal/services"
)

// respondServiceError maps service sentinels to HTTP statuses. Anything
// unrecognized is a 500 with the detail kept server-side.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrLinkNotFound),
		errors.Is(err, services.ErrAffiliateNotFound),
		errors.Is(err, services.ErrPayoutNotFound),
		errors.Is(err, services.ErrCommissionNotFound),
		errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrSlugTaken),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidSlug),
		errors.Is(err, services.ErrInvalidURL),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrMissingFields),
		errors.Is(err, services.ErrInsufficientBalance):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		log.Printf("Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
