// Package tokenware provides fiber middleware for opaque session token
// authentication. It carries no knowledge of the account model, the
// host application supplies an Authenticate callback and reads the
// resolved principal back from request locals.
package tokenware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// ErrCredentialsMissing is returned when a protected route is hit
// without a parseable Authorization header.
var ErrCredentialsMissing = goerrors.New(
	"Authentication credentials were not provided.",
	goerrors.CategoryAuth,
).WithCode(goerrors.CodeUnauthorized)

// Config holds the middleware configuration.
type Config struct {
	// Authenticate resolves an Authorization header into a principal.
	// A (nil, nil, nil) return means the header was absent or
	// malformed and the request is anonymous.
	Authenticate func(ctx context.Context, header string) (user, token any, err error)

	// UserContextKey is the local key the resolved user is stored
	// under. Defaults to "current_user".
	UserContextKey string

	// TokenContextKey is the local key the session token is stored
	// under. Defaults to "current_token".
	TokenContextKey string

	// Optional lets anonymous requests through without error. Route
	// handlers decide what an absent user means.
	Optional bool

	// ErrorHandler runs on authentication failure. Defaults to a 401
	// JSON response.
	ErrorHandler fiber.ErrorHandler

	// Filter skips the middleware when it returns true.
	Filter func(*fiber.Ctx) bool
}

func (c *Config) setDefaults() {
	if c.UserContextKey == "" {
		c.UserContextKey = "current_user"
	}
	if c.TokenContextKey == "" {
		c.TokenContextKey = "current_token"
	}
	if c.ErrorHandler == nil {
		c.ErrorHandler = defaultErrorHandler
	}
}

func defaultErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusUnauthorized
	message := "Authentication failed."

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		message = richErr.Message
		if richErr.Category == goerrors.CategoryAuthz {
			status = fiber.StatusForbidden
		}
	}

	return c.Status(status).JSON(fiber.Map{"detail": message})
}

// New returns a middleware that authenticates requests through
// cfg.Authenticate and stores the principal in request locals.
func New(cfg Config) fiber.Handler {
	if cfg.Authenticate == nil {
		panic("tokenware: Authenticate is required")
	}
	cfg.setDefaults()

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		header := c.Get(fiber.HeaderAuthorization)
		user, token, err := cfg.Authenticate(c.UserContext(), header)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		if user == nil {
			if cfg.Optional {
				return c.Next()
			}
			return cfg.ErrorHandler(c, ErrCredentialsMissing)
		}

		c.Locals(cfg.UserContextKey, user)
		c.Locals(cfg.TokenContextKey, token)

		return c.Next()
	}
}

// Touch returns a middleware that refreshes the session token carried
// by the request, when there is one. It runs after the handler chain
// and never fails the request.
func Touch(touch func(ctx context.Context, header string)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if header := c.Get(fiber.HeaderAuthorization); header != "" {
			touch(c.UserContext(), header)
		}
		return err
	}
}
