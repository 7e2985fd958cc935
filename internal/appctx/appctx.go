// Package appctx carries the signed-in user's state through a request.
//
// An AppContext is built when a user signs in, resolved again from the
// session on every authenticated request and discarded on sign out.
package appctx

import (
	"context"

	"actuarialhub/internal/models"
)

// AppContext is the authenticated state shared by handlers and services
type AppContext struct {
	User      *models.User
	Profile   *models.Profile
	SessionID string
	// Bearer is set when the request authenticated with a token rather than the cookie
	Bearer bool
}

// UserID returns the signed-in user's ID
func (ac *AppContext) UserID() int64 {
	if ac == nil || ac.User == nil {
		return 0
	}
	return ac.User.ID
}

// IsAdmin reports whether the user holds the admin role
func (ac *AppContext) IsAdmin() bool {
	return ac != nil && ac.User != nil && ac.User.IsAdmin()
}

// IsStaff reports whether the user may manage content
func (ac *AppContext) IsStaff() bool {
	return ac != nil && ac.User != nil && ac.User.IsStaff()
}

type contextKey string

const appContextKey contextKey = "appctx"

// With returns a copy of ctx carrying ac
func With(ctx context.Context, ac *AppContext) context.Context {
	return context.WithValue(ctx, appContextKey, ac)
}

// From returns the AppContext stored in ctx, or nil
func From(ctx context.Context) *AppContext {
	ac, ok := ctx.Value(appContextKey).(*AppContext)
	if !ok {
		return nil
	}
	return ac
}
