package helpers

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func claimsFor(email string, metadata map[string]interface{}) *CustomClaims {
	return &CustomClaims{
		Email:        email,
		UserMetadata: metadata,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "9f4b2c1a-0000-0000-0000-000000000001",
		},
	}
}

func TestSessionFromClaimsUsesMetadataName(t *testing.T) {
	claims := claimsFor("maria.luisa@example.com", map[string]interface{}{
		"name": "Maria Luísa",
	})

	session := SessionFromClaims(claims)
	if session.Name != "Maria Luísa" {
		t.Errorf("name = %q, want the metadata name", session.Name)
	}
	if session.UserID != claims.Subject {
		t.Errorf("user id = %q, want %q", session.UserID, claims.Subject)
	}
	if session.Email != "maria.luisa@example.com" {
		t.Errorf("email = %q", session.Email)
	}
}

func TestSessionFromClaimsFallsBackToEmailLocalPart(t *testing.T) {
	session := SessionFromClaims(claimsFor("maria.luisa@example.com", nil))
	if session.Name != "maria.luisa" {
		t.Errorf("name = %q, want the email local part", session.Name)
	}

	// An empty metadata name falls back the same way.
	session = SessionFromClaims(claimsFor("joao@example.com", map[string]interface{}{"name": ""}))
	if session.Name != "joao" {
		t.Errorf("name = %q, want joao", session.Name)
	}
}

func TestSessionFromClaimsWithUnusableEmail(t *testing.T) {
	session := SessionFromClaims(claimsFor("", nil))
	if session.Name != "user" {
		t.Errorf("name = %q, want the generic fallback", session.Name)
	}
}
