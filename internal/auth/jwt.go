package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the only role tokens are issued for.
const RoleAdmin = "admin"

// Claims represents JWT claims used by this service.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an admin token valid for ttl from now.
func IssueToken(secret []byte, subject string, ttl time.Duration, now time.Time) (string, time.Time, error) {
	if len(secret) == 0 {
		return "", time.Time{}, errors.New("auth: empty secret")
	}
	if ttl <= 0 {
		return "", time.Time{}, errors.New("auth: ttl must be positive")
	}
	expires := now.Add(ttl)
	claims := Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// ParseJWT validates a JWT and returns claims.
func ParseJWT(tokenString string, secret []byte) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("auth: empty token")
	}
	if len(secret) == 0 {
		return nil, errors.New("auth: empty secret")
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("auth: invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("auth: invalid token")
	}
	if claims.Role != RoleAdmin {
		return nil, errors.New("auth: invalid role")
	}
	return claims, nil
}
