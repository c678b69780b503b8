// Package identity answers who is using the application.
package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/jask/finmgr/internal/api"
)

// User is the current identity. A zero User is anonymous.
type User struct {
	IsAuthenticated   bool
	IsAdmin           bool
	UserID            uuid.UUID
	Username          string
	PreferredLanguage string
}

// Provider resolves the current user. An error means the identity could not be
// determined at all, which callers treat as "not gated".
type Provider interface {
	Current(ctx context.Context) (User, error)
}

// APIProvider asks the backend who owns the current session.
type APIProvider struct {
	Client api.Client
}

func (p APIProvider) Current(ctx context.Context) (User, error) {
	u, err := p.Client.CurrentUser(ctx)
	if err != nil {
		if api.IsUnauthorized(err) {
			return User{}, nil
		}
		return User{}, err
	}
	if u == nil {
		return User{}, nil
	}
	return FromAPI(*u), nil
}

// FromAPI converts a backend user into an authenticated identity.
func FromAPI(u api.User) User {
	return User{
		IsAuthenticated:   true,
		IsAdmin:           u.IsAdmin,
		UserID:            u.ID,
		Username:          u.Username,
		PreferredLanguage: u.PreferredLanguage,
	}
}

// Static always returns the same user.
type Static User

func (s Static) Current(context.Context) (User, error) { return User(s), nil }

// Func adapts a function to Provider.
type Func func(ctx context.Context) (User, error)

func (f Func) Current(ctx context.Context) (User, error) { return f(ctx) }
