// Package auth issues and validates the HMAC-signed bearer tokens that
// protect the decision webhook and admin routes.
package auth

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier validates operator tokens. The webhook handler accepts any
// implementation so tests can substitute a mock.
type TokenVerifier interface {
	ValidateToken(authHeader string) (string, bool)
}

// JWTManager signs and verifies operator tokens with a shared secret.
type JWTManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewJWTManager creates a manager for the given shared secret.
func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		issuer: "reply-scout",
		ttl:    30 * 24 * time.Hour,
	}
}

// IssueToken creates a signed token identifying an operator.
func (m *JWTManager) IssueToken(operator string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   operator,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ExtractOperatorFromToken verifies a token and returns the operator identity
// from its subject claim.
func (m *JWTManager) ExtractOperatorFromToken(tokenString string) (string, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer))
	if err != nil {
		return "", fmt.Errorf("failed to verify token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("token is not valid")
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("no sub claim in token")
	}

	return claims.Subject, nil
}

// ValidateToken is a middleware-friendly wrapper that returns the operator
// identity and whether the token was valid.
func (m *JWTManager) ValidateToken(authHeader string) (string, bool) {
	if authHeader == "" {
		return "", false
	}

	operator, err := m.ExtractOperatorFromToken(authHeader)
	if err != nil {
		log.Printf("JWT validation error: %v", err)
		return "", false
	}

	return operator, true
}

// For development/testing purposes - mock token validation
type MockVerifier struct {
	Operator string
}

func NewMockVerifier(operator string) *MockVerifier {
	return &MockVerifier{Operator: operator}
}

func (m *MockVerifier) ValidateToken(authHeader string) (string, bool) {
	if authHeader == "" {
		return "", false
	}
	return m.Operator, true
}
