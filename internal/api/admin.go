package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Query parsing

	"finance_tracker/internal/service" // Ledger operations

	"github.com/gin-gonic/gin" // Gin web framework
)

// SummaryHandler returns ledger totals and wallet balances
func SummaryHandler(svc *service.LedgerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := svc.GetSummary(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

// ReconcileHandler runs a full reconciliation now
func ReconcileHandler(rec *service.Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		corrections, err := rec.Reconcile(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":     "Reconciliation completed", // Result message
			"corrected":   len(corrections),           // Wallets corrected
			"corrections": corrections,                // Details
		})
	}
}

// ListCorrectionsHandler returns the balance correction audit trail, newest first
func ListCorrectionsHandler(rec *service.Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 0 // Service default
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				badRequest(c, "Invalid limit")
				return
			}
			limit = n
		}
		corrections, err := rec.ListCorrections(c.Request.Context(), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"corrections": corrections})
	}
}

// InitDefaultsHandler seeds default wallets and categories into empty tables
func InitDefaultsHandler(svc *service.SettingsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.InitDefaults(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Default data initialized", "result": res})
	}
}
