package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rainbowshop/backend/internal/apperr"
)

// TokenTTL is the validity window of an issued token.
const TokenTTL = 7 * 24 * time.Hour

// Service signs and verifies identity tokens. The secret is injected at
// construction so tests can substitute their own.
type Service struct {
	Secret []byte
}

func New(secret []byte) *Service {
	return &Service{Secret: secret}
}

// Issue produces a signed token embedding userID, expiring TokenTTL from now.
func (s *Service) Issue(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"sub": fmt.Sprint(userID),
		"exp": jwt.NewNumericDate(time.Now().Add(TokenTTL)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.Secret)
}

// Verify checks signature and expiry and returns the embedded user ID.
// Every failure mode (malformed, expired, wrong signature, bad claims)
// collapses into apperr.ErrInvalidToken.
func (s *Service) Verify(raw string) (uint, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.Secret, nil
	})
	if err != nil || !t.Valid {
		return 0, apperr.ErrInvalidToken
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return 0, apperr.ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, apperr.ErrInvalidToken
	}

	var id uint
	if _, err := fmt.Sscanf(sub, "%d", &id); err != nil || id == 0 {
		return 0, apperr.ErrInvalidToken
	}
	return id, nil
}
