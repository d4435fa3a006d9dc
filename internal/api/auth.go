package api

import (
	"net/http"                      // HTTP status codes
	"prize_wheel/internal/identity" // Sign-in and token issuance

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// Request and Response structs
type RegisterRequest struct {
	Username     string `json:"username" binding:"required"` // Username must be provided
	Password     string `json:"password" binding:"required"` // Password must be provided
	ReferralCode string `json:"referral_code"`               // Optional referrer's code
}

// Request struct for login
type LoginRequest struct {
	Username string `json:"username" binding:"required"` // Username must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Request struct for anonymous sign-in
type AnonymousRequest struct {
	ReferralCode string `json:"referral_code"` // Optional referrer's code
}

// Response struct for authentication
type AuthResponse struct {
	Token        string `json:"token"`         // JWT token
	UserID       string `json:"user_id"`       // Ledger record user ID
	ReferralCode string `json:"referral_code"` // The user's own code to share
}

func authResponse(s *identity.Session) AuthResponse {
	return AuthResponse{Token: s.Token, UserID: s.UserID, ReferralCode: s.Record.ReferralCode}
}

// AnonymousSessionHandler creates an anonymous ledger record and returns its token
func AnonymousSessionHandler(idp *identity.Provider, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AnonymousRequest // Body is optional
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				// If binding fails, return bad request
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
				return
			}
		}
		sess, err := idp.SignInAnonymous(c.Request.Context(), req.ReferralCode)
		if err != nil {
			respondError(c, log, err) // Unknown referral code or store failure
			return
		}
		c.JSON(http.StatusCreated, authResponse(sess)) // Return the new session
	}
}

// RegisterHandler creates a named ledger record
func RegisterHandler(idp *identity.Provider, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		sess, err := idp.Register(c.Request.Context(), req.Username, req.Password, req.ReferralCode)
		if err != nil {
			respondError(c, log, err) // Invalid input, duplicate username or store failure
			return
		}
		c.JSON(http.StatusCreated, authResponse(sess)) // Return success response
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(idp *identity.Provider, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		sess, err := idp.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			respondError(c, log, err) // Invalid credentials map to 401
			return
		}
		c.JSON(http.StatusOK, authResponse(sess)) // Return the token in the response
	}
}
