package middleware

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"

	"github.com/agita-app/agita-server/internal/helpers"
	"github.com/agita-app/agita-server/internal/services"
)

// SessionKey is the gin context key holding the caller's helpers.Session.
const SessionKey = "session"

// AccessTokenKey is the gin context key holding the caller's access token,
// forwarded to the record store so row-level security applies.
const AccessTokenKey = "access_token"

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		clientIP := c.ClientIP()
		method := c.Request.Method
		statusCode := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		requestID, _ := c.Get("request_id")

		logger.Info("HTTP Request",
			"request_id", requestID,
			"method", method,
			"path", path,
			"status", statusCode,
			"latency", latency,
			"client_ip", clientIP,
		)
	}
}

// ErrorHandler provides centralized error handling
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			requestID, _ := c.Get("request_id")

			logger.Error("Request error",
				"request_id", requestID,
				"error", err.Error(),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)

			c.JSON(500, gin.H{
				"error":      "Internal server error",
				"request_id": requestID,
			})
		}
	}
}

// AuthMiddleware validates the access-token cookie against the auth
// service's JWKS and refreshes it with the refresh-token cookie when it has
// expired, mirroring the session-change subscription a client would hold.
// On success the caller's session and access token land in the gin context.
func AuthMiddleware(userService *services.UserService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("access_token")
		if err != nil {
			unauthorized(c, "authentication required")
			return
		}

		claims, err := helpers.ValidateToken(token)
		if err != nil {
			refreshToken, refreshErr := c.Cookie("refresh_token")
			if refreshErr != nil {
				unauthorized(c, err.Error())
				return
			}

			refreshResponse, refreshErr := userService.RefreshToken(c.Request.Context(), refreshToken)
			if refreshErr != nil {
				logger.Error("Token refresh failed", "error", refreshErr)
				unauthorized(c, "session expired")
				return
			}

			tokenRes, ok := refreshResponse.(*types.TokenResponse)
			if !ok || tokenRes.AccessToken == "" {
				unauthorized(c, "invalid refresh response")
				return
			}

			logger.Info("Token refreshed",
				"user_id", tokenRes.User.ID,
				"expires_in", tokenRes.ExpiresIn,
			)

			isProduction := os.Getenv("GIN_MODE") == "production"
			c.SetCookie("access_token", tokenRes.AccessToken, tokenRes.ExpiresIn, "/", "", isProduction, true)
			c.SetCookie("refresh_token", tokenRes.RefreshToken, 3600*24*30, "/", "", isProduction, true)

			token = tokenRes.AccessToken
			claims, err = helpers.ValidateToken(token)
			if err != nil {
				unauthorized(c, "refreshed token validation failed")
				return
			}
		}

		c.Set(SessionKey, helpers.SessionFromClaims(claims))
		c.Set(AccessTokenKey, token)
		c.Next()
	}
}

// unauthorized responds 401 with a hint that the client should open its
// inline auth modal instead of navigating away.
func unauthorized(c *gin.Context, reason string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"message":     "Unauthorized access",
		"error":       reason,
		"auth_action": "show_auth_modal",
	})
	c.Abort()
}

// CurrentSession extracts the session placed in the context by
// AuthMiddleware.
func CurrentSession(c *gin.Context) (helpers.Session, bool) {
	value, exists := c.Get(SessionKey)
	if !exists {
		return helpers.Session{}, false
	}
	session, ok := value.(helpers.Session)
	return session, ok
}
