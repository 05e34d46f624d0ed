package api

import (
	"net/http" // HTTP status codes
	"time"     // Request latency

	"finance_tracker/internal/middleware" // Custom package for middleware
	"finance_tracker/internal/service"    // Ledger and settings operations
	"finance_tracker/internal/store"      // Health check

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// NewRouter registers every route on a fresh gin engine
func NewRouter(svcs *service.Services, st store.Store, auth AuthConfig, trustedProxies []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies(trustedProxies); err != nil {
		logrus.WithField("error", err.Error()).Warn("Failed to set trusted proxies")
	}

	r.GET("/healthz", HealthHandler(st)) // Liveness and DB check
	r.POST("/auth/login", LoginHandler(auth))

	// Ledger routes (protected by JWT)
	apiGroup := r.Group("/api")
	apiGroup.Use(middleware.JWTAuthMiddleware(auth.JWTSecret), middleware.OperatorOnlyMiddleware(auth.Username))

	apiGroup.GET("/transactions", ListTransactionsHandler(svcs.Ledger))
	apiGroup.POST("/transactions", CreateTransactionHandler(svcs.Ledger))
	apiGroup.POST("/transactions/convert", ConvertHandler(svcs.Ledger))
	apiGroup.PUT("/transactions/:id", UpdateTransactionHandler(svcs.Ledger))
	apiGroup.DELETE("/transactions/:id", DeleteTransactionHandler(svcs.Ledger))

	apiGroup.GET("/summary", SummaryHandler(svcs.Ledger))
	apiGroup.POST("/reconcile", ReconcileHandler(svcs.Reconciler))
	apiGroup.GET("/reconcile/corrections", ListCorrectionsHandler(svcs.Reconciler))

	apiGroup.GET("/wallets", ListWalletsHandler(svcs.Settings))
	apiGroup.POST("/wallets", CreateWalletHandler(svcs.Settings))
	apiGroup.PUT("/wallets/:id", UpdateWalletHandler(svcs.Settings))
	apiGroup.DELETE("/wallets/:id", DeleteWalletHandler(svcs.Settings))

	apiGroup.GET("/categories", ListCategoriesHandler(svcs.Settings))
	apiGroup.POST("/categories", CreateCategoryHandler(svcs.Settings))
	apiGroup.PUT("/categories/:id", UpdateCategoryHandler(svcs.Settings))
	apiGroup.DELETE("/categories/:id", DeleteCategoryHandler(svcs.Settings))

	apiGroup.POST("/init", InitDefaultsHandler(svcs.Settings))
	return r
}

// HealthHandler reports whether the database answers
func HealthHandler(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := st.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// requestLogger logs one line per request through logrus
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,           // HTTP method
			"path":    c.Request.URL.Path,         // Request path
			"status":  c.Writer.Status(),          // Response status
			"latency": time.Since(start).String(), // Time spent
			"client":  c.ClientIP(),               // Caller address
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("Request failed")
			return
		}
		entry.Info("Request handled")
	}
}
