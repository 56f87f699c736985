package accounts

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// Keys under which the request middleware stores the resolved session.
const (
	LocalUserKey  = "current_user"
	LocalTokenKey = "current_token"
)

type contextKey struct{ name string }

var userContextKey = &contextKey{"accounts:user"}

// WithUserContext stores the user on a standard context.
func WithUserContext(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext retrieves the user stored by WithUserContext.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey).(*User)
	return user, ok
}

// CurrentUser returns the authenticated user for the request, if any.
func CurrentUser(c *fiber.Ctx) (*User, bool) {
	user, ok := c.Locals(LocalUserKey).(*User)
	return user, ok
}

// CurrentToken returns the session token for the request, if any.
func CurrentToken(c *fiber.Ctx) (*Token, bool) {
	token, ok := c.Locals(LocalTokenKey).(*Token)
	return token, ok
}
