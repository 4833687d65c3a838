// Package auth issues and verifies the HS256 bearer tokens accepted by the API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrInvalidToken wraps every token rejection.
var ErrInvalidToken = errors.New("invalid token")

// JWTService signs and validates tokens with a shared secret.
type JWTService struct {
	secretKey   string
	expiryHours int
	nowF        func() time.Time
}

// NewJWTService signs with secretKey. Non-positive expiryHours means 24.
func NewJWTService(secretKey string, expiryHours int) *JWTService {
	if expiryHours <= 0 {
		expiryHours = 24
	}
	return &JWTService{
		secretKey:   secretKey,
		expiryHours: expiryHours,
		nowF:        time.Now,
	}
}

// Claims only carries the registered claims; the caller identity is Subject.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken issues a token for subject that expires after the configured
// hours. The API never mints tokens itself; cmd/token uses this to hand one to
// internal callers that share the secret.
func (s *JWTService) GenerateToken(subject string) (string, error) {
	now := s.nowF()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour * time.Duration(s.expiryHours))),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secretKey))
}

// ValidateToken accepts only HS256 tokens signed with the service secret.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}
