package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies session tokens.
type TokenManager struct {
	secret    []byte
	expiresIn time.Duration
	now       Clock
}

func NewTokenManager(secret string, expiresIn time.Duration, now Clock) *TokenManager {
	return &TokenManager{secret: []byte(secret), expiresIn: expiresIn, now: now.OrSystem()}
}

func (m *TokenManager) CreateToken(userID uuid.UUID) (string, error) {
	issued := m.now()
	claims := &Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(issued.Add(m.expiresIn)),
			IssuedAt:  jwt.NewNumericDate(issued),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken returns the jwt library error untouched so it can be translated centrally.
func (m *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.IssuedAt == nil {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, errors.Join(jwt.ErrTokenInvalidClaims, err)
	}
	return claims, nil
}
