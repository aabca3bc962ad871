package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims holds the validated identity extracted from a bearer token.
type Claims struct {
	UserID uuid.UUID
}

// JWTService validates bearer tokens. It is consumed by the auth middleware
// and substitutable with a test double.
type JWTService interface {
	// ValidateToken verifies the token signature and expiry and returns
	// the embedded claims.
	ValidateToken(ctx context.Context, token string) (*Claims, error)

	// GenerateToken signs a token for the given user. Used by tests and
	// provisioning tooling; this server has no login endpoint.
	GenerateToken(ctx context.Context, userID uuid.UUID, lifetime time.Duration) (string, error)
}

// jwtService is the HMAC-SHA256 implementation of JWTService.
type jwtService struct {
	secret []byte
}

// NewJWTService creates a JWTService signing with the given shared secret.
func NewJWTService(secret string) (JWTService, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &jwtService{secret: []byte(secret)}, nil
}

// ValidateToken implements JWTService.ValidateToken.
func (s *jwtService) ValidateToken(_ context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed subject", ErrInvalidToken)
	}

	return &Claims{UserID: userID}, nil
}

// GenerateToken implements JWTService.GenerateToken.
func (s *jwtService) GenerateToken(_ context.Context, userID uuid.UUID, lifetime time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}
