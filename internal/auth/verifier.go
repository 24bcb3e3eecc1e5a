// Package auth verifies the opaque bearer credentials presented by the
// frontend and maps them to a user identity.
package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/confbase/confbase/internal/domain"
)

// Verifier validates identity tokens issued by the configured identity
// provider and extracts the user ID and email claims.
type Verifier struct {
	secret   []byte
	audience string
}

// New creates a token verifier. audience is optional; when set, tokens with a
// different aud claim are rejected.
func New(secret string, audience string) *Verifier {
	return &Verifier{secret: []byte(secret), audience: audience}
}

// VerifyHeader verifies an Authorization header value ("Bearer <token>" or a
// bare token, which older frontend builds send without the scheme).
func (v *Verifier) VerifyHeader(header string) (domain.Identity, error) {
	if header == "" {
		return domain.Identity{}, fmt.Errorf("missing authorization header: %w", domain.ErrUnauthorized)
	}
	token := strings.TrimPrefix(header, "Bearer ")
	return v.Verify(token)
}

// Verify validates a raw token string and returns the identity it carries.
func (v *Verifier) Verify(tokenStr string) (domain.Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("parse token: %w: %w", err, domain.ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Identity{}, fmt.Errorf("unexpected claims type: %w", domain.ErrUnauthorized)
	}

	id := domain.Identity{}
	if sub, err := claims.GetSubject(); err == nil {
		id.UserID = sub
	}
	// Some identity providers put the stable ID in user_id instead of sub.
	if id.UserID == "" {
		if uid, ok := claims["user_id"].(string); ok {
			id.UserID = uid
		}
	}
	if id.UserID == "" {
		return domain.Identity{}, fmt.Errorf("token has no subject: %w", domain.ErrUnauthorized)
	}
	if email, ok := claims["email"].(string); ok {
		id.Email = email
	}
	return id, nil
}
