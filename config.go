package accounts

import "time"

const (
	// DefaultAuthScheme is the Authorization header keyword.
	DefaultAuthScheme = "Token"
	// DefaultTokenExpiration is the sliding session window.
	DefaultTokenExpiration = 24 * time.Hour
	// DefaultSignedTokenHorizon is how many whole days an activation or
	// password reset link stays valid.
	DefaultSignedTokenHorizon = 1
	// DefaultBcryptCost is the work factor for new password hashes.
	DefaultBcryptCost = 14
)

// Config holds the knobs the authenticator and account commands need.
// It is injected explicitly into constructors, there is no ambient
// settings lookup.
type Config interface {
	GetSecret() string
	GetAuthScheme() string
	GetTokenExpiration() time.Duration
	GetSignedTokenHorizon() int
	GetBcryptCost() int
	GetBaseURL() string
	GetActivationPath() string
	GetPasswordResetPath() string
	GetFromEmail() string
}

// SimpleConfig is a value implementation of Config with sane defaults
// for every zero field.
type SimpleConfig struct {
	Secret                 string
	AuthScheme             string
	TokenExpiration        time.Duration
	SignedTokenHorizonDays int
	BcryptCost             int
	BaseURL                string
	ActivationPath         string
	PasswordResetPath      string
	FromEmail              string
}

var _ Config = SimpleConfig{}

func (c SimpleConfig) GetSecret() string {
	return c.Secret
}

func (c SimpleConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return DefaultAuthScheme
	}
	return c.AuthScheme
}

func (c SimpleConfig) GetTokenExpiration() time.Duration {
	if c.TokenExpiration <= 0 {
		return DefaultTokenExpiration
	}
	return c.TokenExpiration
}

func (c SimpleConfig) GetSignedTokenHorizon() int {
	if c.SignedTokenHorizonDays <= 0 {
		return DefaultSignedTokenHorizon
	}
	return c.SignedTokenHorizonDays
}

func (c SimpleConfig) GetBcryptCost() int {
	if c.BcryptCost <= 0 {
		return DefaultBcryptCost
	}
	return c.BcryptCost
}

func (c SimpleConfig) GetBaseURL() string {
	return c.BaseURL
}

func (c SimpleConfig) GetActivationPath() string {
	if c.ActivationPath == "" {
		return "/user/activate/"
	}
	return c.ActivationPath
}

func (c SimpleConfig) GetPasswordResetPath() string {
	if c.PasswordResetPath == "" {
		return "/user/password-reset/"
	}
	return c.PasswordResetPath
}

func (c SimpleConfig) GetFromEmail() string {
	return c.FromEmail
}
