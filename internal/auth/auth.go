// Package auth verifies the bearer tokens issued by the identity provider.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("authentication credentials were not provided")
	ErrInvalidToken = errors.New("invalid or expired token")
)

const userIDClaim = "user_id"

// Verifier checks HS256 tokens and extracts the caller's user id.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

// FromHeader verifies an "Authorization: Bearer <token>" value.
func (v *Verifier) FromHeader(header string) (int64, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return 0, ErrMissingToken
	}
	return v.Verify(strings.TrimSpace(token))
}

// Verify parses token and returns its user id claim.
func (v *Verifier) Verify(token string) (int64, error) {
	claims := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	switch id := claims[userIDClaim].(type) {
	case float64:
		if id <= 0 || id != float64(int64(id)) {
			return 0, ErrInvalidToken
		}
		return int64(id), nil
	default:
		return 0, fmt.Errorf("%w: missing %s claim", ErrInvalidToken, userIDClaim)
	}
}

// NewToken signs a token for userID valid for ttl. The HTTP service only
// verifies tokens; this is used by tooling and tests.
func NewToken(secret string, userID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		userIDClaim: userID,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}
