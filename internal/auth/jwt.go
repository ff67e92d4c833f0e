package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the payload of the session cookie. Subject holds the username;
// the display name and role ride along so pages render without a lookup.
type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() *Identity {
	return &Identity{
		Username: c.Subject,
		Name:     c.Name,
		Role:     NormalizeRole(c.Role),
	}
}

// JWTManager signs and checks HS256 session tokens.
type JWTManager struct {
	key    []byte
	ttl    time.Duration
	issuer string
	parser *jwt.Parser
}

func NewJWTManager(secret string, expiry time.Duration, issuer string) *JWTManager {
	return &JWTManager{
		key:    []byte(secret),
		ttl:    expiry,
		issuer: issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
		),
	}
}

// Expiry is the session lifetime, also used as the cookie Max-Age.
func (m *JWTManager) Expiry() time.Duration {
	return m.ttl
}

// Generate issues a token for a signed-in user.
func (m *JWTManager) Generate(identity Identity) (string, error) {
	if identity.Username == "" || identity.Role == "" {
		return "", fmt.Errorf("%w: username and role are required", ErrInvalidToken)
	}

	issued := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Name: identity.Name,
		Role: string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Username,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(m.ttl)),
		},
	})
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, issuer and expiry. Every failure wraps
// ErrInvalidToken except an empty token, which is ErrMissingToken.
func (m *JWTManager) Validate(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	if _, err := m.parser.ParseWithClaims(token, claims, m.keyFunc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return claims, nil
}

func (m *JWTManager) keyFunc(*jwt.Token) (any, error) {
	return m.key, nil
}
