package csrf

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ward-notify-api/internal/config"
	"github.com/ward-notify-api/internal/pkg/token"
)

// Provider issues and validates anti-forgery tokens. Tokens are short-lived
// HS256 JWTs bound to a user id with a random nonce, so they are stateless on
// the server and cannot be replayed across users.
type Provider struct {
	secret []byte
	ttl    time.Duration
}

type csrfClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg.CSRFSecret == "" {
		return nil, errors.New("CSRF_SECRET not configured")
	}
	return &Provider{secret: []byte(cfg.CSRFSecret), ttl: cfg.CSRFTokenTTL}, nil
}

// Issue returns a fresh anti-forgery token for the given user.
func (p *Provider) Issue(userID string) (string, error) {
	nonce, err := token.NewNonce()
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := csrfClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        nonce,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// Validate checks that tokenStr is a live token issued for userID.
func (p *Provider) Validate(userID, tokenStr string) error {
	parsed, err := jwt.ParseWithClaims(tokenStr, &csrfClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	})
	if err != nil {
		return fmt.Errorf("parse csrf token: %w", err)
	}
	claims, ok := parsed.Claims.(*csrfClaims)
	if !ok || !parsed.Valid {
		return errors.New("invalid csrf token")
	}
	if claims.UserID != userID {
		return errors.New("csrf token issued for a different user")
	}
	return nil
}
