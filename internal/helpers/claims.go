package helpers

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type CustomClaims struct {
	Role        string `json:"role"`
	Email       string `json:"email"`
	AppMetadata struct {
		Provider  string   `json:"provider"`
		Providers []string `json:"providers"`
	} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// Session is the authenticated identity every screen subscribes to:
// user id, display name and email.
type Session struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// SessionFromClaims builds the session view of a validated token. The
// display name falls back to the local part of the email when the account
// has no explicit name set.
func SessionFromClaims(claims *CustomClaims) Session {
	session := Session{
		UserID: claims.Subject,
		Email:  claims.Email,
	}

	if name, ok := claims.UserMetadata["name"].(string); ok && name != "" {
		session.Name = name
	} else if at := strings.Index(claims.Email, "@"); at > 0 {
		session.Name = claims.Email[:at]
	} else {
		session.Name = "user"
	}

	return session
}
