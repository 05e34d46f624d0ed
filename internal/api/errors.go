package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strconv"  // ID parsing

	"finance_tracker/internal/domain" // Error taxonomy

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// respondError maps a service error onto a status code and JSON body
func respondError(c *gin.Context, err error) {
	var insufficient *domain.InsufficientBalanceError
	var invalid *domain.ValidationError
	switch {
	case errors.As(err, &insufficient):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    err.Error(),             // Human readable message
			"wallet":   insufficient.WalletName, // Source wallet
			"balance":  insufficient.Balance,    // Current balance
			"required": insufficient.Required,   // Amount plus fee
		})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": invalid.Field})
	case errors.Is(err, domain.ErrStorage):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": domain.ErrStorage.Error()})
	default:
		logrus.WithFields(logrus.Fields{
			"path":  c.FullPath(), // Route
			"error": err.Error(),  // Error message
		}).Error("Unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// badRequest reports a request that could not be bound
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// paramID parses the :id path parameter
func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid id")
		return 0, false
	}
	return uint(id), true
}
