package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "KasirApp"

type CustomClaims struct {
	UserID   uint   `json:"user_id"`
	StaffRef string `json:"staff_ref"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager menerbitkan dan memverifikasi JWT staff.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

func (m *TokenManager) GenerateToken(userID uint, staffRef, role string) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID:   userID,
		StaffRef: staffRef,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staffRef,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *TokenManager) ParseToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithIssuer(tokenIssuer))

	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || claims.StaffRef == "" {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
