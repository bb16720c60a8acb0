package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
)

type claims struct {
	UserID   string `json:"uid"`
	Nickname string `json:"nick"`
	jwt.RegisteredClaims
}

// Identity is what a verified token says about its bearer.
type Identity struct {
	UserID   uuid.UUID
	Nickname string
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (m *TokenManager) Issue(user *domain.User) (string, error) {
	now := m.now()
	c := claims{
		UserID:   user.ID.String(),
		Nickname: user.Nickname,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  user.ID.String(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if m.ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies raw and returns its identity. Every failure is ErrInvalidToken.
func (m *TokenManager) Parse(raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, domain.ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Identity{}, fmt.Errorf("%w: expired", domain.ErrInvalidToken)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Identity{}, fmt.Errorf("%w: bad signature", domain.ErrInvalidToken)
		default:
			return Identity{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
		}
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, domain.ErrInvalidToken
	}
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: bad subject", domain.ErrInvalidToken)
	}
	return Identity{UserID: id, Nickname: c.Nickname}, nil
}
