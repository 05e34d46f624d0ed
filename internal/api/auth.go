package api

import (
	"crypto/subtle" // Constant time comparison
	"net/http"      // HTTP status codes
	"time"          // Token lifetime

	"finance_tracker/internal/utils" // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
)

// LoginRequest is the body of a login
type LoginRequest struct {
	Username string `json:"username" binding:"required"` // Username must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// AuthResponse carries the issued token
type AuthResponse struct {
	Token string `json:"token"` // JWT token
}

// AuthConfig holds the single operator's credentials
type AuthConfig struct {
	Username     string        // Operator login name
	PasswordHash string        // bcrypt hash of the operator password
	JWTSecret    string        // JWT signing secret
	TokenTTL     time.Duration // Token lifetime
}

// LoginHandler authenticates the operator and returns a JWT token
func LoginHandler(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			badRequest(c, "Invalid request")
			return
		}
		// Compare provided password with stored hash before checking the username
		hashErr := bcrypt.CompareHashAndPassword([]byte(cfg.PasswordHash), []byte(req.Password))
		if subtle.ConstantTimeCompare([]byte(req.Username), []byte(cfg.Username)) != 1 || hashErr != nil {
			logrus.WithField("username", req.Username).Warn("Failed login attempt")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(cfg.Username, cfg.JWTSecret, cfg.TokenTTL)
		if err != nil {
			// If token generation fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		// Return the token in the response
		c.JSON(http.StatusOK, AuthResponse{Token: token})
	}
}
