// Package auth verifies the bearer tokens issued by the identity service and
// turns them into booking actors.
package auth

import (
	"errors"
	"fmt"
	"time"

	bookingDomain "github.com/glowbook/service-booking/internal/domain/booking"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles carried in the token's role claim.
const (
	RoleCustomer = "customer"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the custom JWT claims.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// Actor maps the claims onto a booking actor.
func (c *Claims) Actor() (bookingDomain.Actor, error) {
	switch c.Role {
	case RoleCustomer:
		return bookingDomain.Actor{ID: c.UserID, Role: bookingDomain.RoleCustomer}, nil
	case RoleProvider:
		return bookingDomain.Actor{ID: c.UserID, Role: bookingDomain.RoleProvider}, nil
	case RoleAdmin:
		return bookingDomain.Actor{ID: c.UserID, Role: bookingDomain.RoleAdmin}, nil
	}
	return bookingDomain.Actor{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, c.Role)
}

// JWTManager signs and verifies HS256 tokens.
type JWTManager struct {
	secret   []byte
	tokenTTL time.Duration
}

// NewJWTManager creates a JWTManager.
func NewJWTManager(secret string, tokenTTL time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), tokenTTL: tokenTTL}
}

// GenerateToken issues a token for the user. Tokens are normally issued by
// the identity service; this is used by tooling and tests.
func (m *JWTManager) GenerateToken(userID uuid.UUID, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses and verifies a token string.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
