package services

import (
	"time"

	amen_errors "amen-chat/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService verifies the access tokens the identity provider issues.
// Identity itself lives outside this service; all we need here is a
// trusted user ID for every authenticated request.
type TokenService struct {
	jwtSecret []byte
	accessTTL time.Duration
}

type AccessClaims struct {
	UserID string `json:"sub"`
	jwt.RegisteredClaims
}

func NewTokenService(jwtSecret []byte, accessTTL time.Duration) *TokenService {
	return &TokenService{jwtSecret: jwtSecret, accessTTL: accessTTL}
}

func (s *TokenService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	if tokenString == "" {
		return AccessClaims{}, amen_errors.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, amen_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return AccessClaims{}, amen_errors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return AccessClaims{}, amen_errors.ErrUnauthorized
	}

	return *claims, nil
}

// IssueAccessToken signs a token for the given user. Used by local tooling
// and tests; production tokens come from the identity provider sharing the
// same secret.
func (s *TokenService) IssueAccessToken(userID string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
