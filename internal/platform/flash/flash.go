// Package flash carries one-shot notices across a redirect in a signed cookie.
package flash

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	CookieName = "clinic_flash"
	// DefaultTTL bounds how long an unread notice survives.
	DefaultTTL = 5 * time.Minute

	pendingKey = "flash_pending"
)

// Notice categories used by the views.
const (
	CategorySuccess = "success"
	CategoryError   = "error"
	CategoryMessage = "message"
)

// Notice is a single user-visible message.
type Notice struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

type flashClaims struct {
	Notices []Notice `json:"notices"`
	jwt.RegisteredClaims
}

// Store signs and verifies flash cookies with an HMAC key.
type Store struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewStore creates a flash store keyed by secret.
func NewStore(secret string) *Store {
	return &Store{
		secret: []byte(secret),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
}

// Add appends a notice to the pending set and rewrites the cookie.
func (s *Store) Add(c echo.Context, category, message string) error {
	if category == "" {
		category = CategoryMessage
	}
	notices := append(s.pending(c), Notice{Category: category, Message: message})
	c.Set(pendingKey, notices)

	now := s.now()
	claims := flashClaims{
		Notices: notices,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("sign flash cookie: %w", err)
	}

	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Pop returns the pending notices and clears them.
func (s *Store) Pop(c echo.Context) []Notice {
	notices := s.pending(c)
	c.Set(pendingKey, []Notice(nil))
	if _, err := c.Cookie(CookieName); err == nil || len(notices) > 0 {
		c.SetCookie(&http.Cookie{
			Name:     CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return notices
}

// pending returns notices added during this request, falling back to the
// incoming cookie. Invalid or expired cookies yield no notices.
func (s *Store) pending(c echo.Context) []Notice {
	if v, ok := c.Get(pendingKey).([]Notice); ok {
		return v
	}
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	notices, err := s.decode(cookie.Value)
	if err != nil {
		return nil
	}
	return notices
}

func (s *Store) decode(value string) ([]Notice, error) {
	claims := &flashClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid flash token")
	}
	return claims.Notices, nil
}
