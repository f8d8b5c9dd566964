package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/skipscan/skipscan/internal/config"
)

const tokenTTL = 24 * time.Hour

var (
	ErrMissingSecret = errors.New("auth jwt secret is required")
	ErrInvalidToken  = errors.New("invalid_token")
)

// Manager issues and verifies the bearer tokens that identify accounts.
// Tokens are HS256 with the account ID as subject.
type Manager struct {
	secret []byte
	now    func() time.Time
}

func NewManager(cfg config.Config) (*Manager, error) {
	secret := strings.TrimSpace(cfg.AuthJWTSecret)
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Manager{
		secret: []byte(secret),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (m *Manager) Issue(accountID snowflake.ID) (string, error) {
	if accountID == 0 {
		return "", ErrInvalidToken
	}
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   accountID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	})
	return token.SignedString(m.secret)
}

func (m *Manager) Verify(tokenString string) (snowflake.ID, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return 0, ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	accountID, err := snowflake.ParseString(claims.Subject)
	if err != nil || accountID == 0 {
		return 0, ErrInvalidToken
	}

	return accountID, nil
}
