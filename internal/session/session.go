// Package session holds the dashboard operator's login state and UI
// preferences.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotLoggedIn    = errors.New("not logged in: run `shopdash login` first")
	ErrMissingShopURL = errors.New("shop URL is required to log in")
)

// Session exists from a successful login until logout. The login itself is
// mocked: no credential is checked.
type Session struct {
	ID        string    `yaml:"id"`
	ShopURL   string    `yaml:"shop_url"`
	StartedAt time.Time `yaml:"started_at"`
}

func Login(shopURL string, now time.Time) (*Session, error) {
	shopURL = strings.TrimSpace(shopURL)
	if shopURL == "" {
		return nil, ErrMissingShopURL
	}
	return &Session{
		ID:        uuid.New().String(),
		ShopURL:   shopURL,
		StartedAt: now.UTC(),
	}, nil
}

type contextKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}

// Require returns the session in ctx or ErrNotLoggedIn.
func Require(ctx context.Context) (*Session, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return nil, ErrNotLoggedIn
	}
	return s, nil
}
