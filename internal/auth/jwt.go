package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Philip-857-bit/feedback/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionService issues and validates the admin session token. There is a
// single password-gated admin role, so the token carries no subject beyond
// the role claim.
type SessionService struct {
	secret string
	expiry time.Duration
}

type SessionClaims struct {
	Role string `json:"role"`
	JTI  string `json:"jti"`
	jwt.RegisteredClaims
}

func NewSessionService(cfg *config.Config) *SessionService {
	return &SessionService{
		secret: cfg.Admin.SessionSecret,
		expiry: cfg.Admin.SessionExpiry,
	}
}

func (s *SessionService) Expiry() time.Duration { return s.expiry }

func (s *SessionService) IssueToken() (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Role: "admin",
		JTI:  uuid.New().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

func (s *SessionService) ValidateToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}
