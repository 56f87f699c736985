package accounts

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Auther owns the session token lifecycle: it issues tokens on login,
// validates inbound credentials, refreshes the sliding expiration
// window, and soft-invalidates on logout.
type Auther struct {
	repo   RepositoryManager
	cfg    Config
	logger Logger
	now    func() time.Time
}

// NewAuthenticator returns a new Auther.
func NewAuthenticator(repo RepositoryManager, cfg Config) *Auther {
	return &Auther{
		repo:   repo,
		cfg:    cfg,
		logger: defLogger{},
		now:    time.Now,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithClock overrides the time source, used by tests to cross the
// expiration boundary.
func (s *Auther) WithClock(now func() time.Time) *Auther {
	if now != nil {
		s.now = now
	}
	return s
}

// ParseTokenHeader splits an Authorization header into its key part.
// ok is false for anything malformed: an empty header, a foreign or
// missing scheme keyword, or extra segments. Malformed credentials are
// anonymous, not an error.
func ParseTokenHeader(header, scheme string) (string, bool) {
	fields := strings.Fields(header)
	if len(fields) != 2 {
		return "", false
	}
	if !strings.EqualFold(fields[0], scheme) {
		return "", false
	}
	return fields[1], true
}

// Login verifies the email/password pair and issues a fresh session
// token. Existing tokens are left alone, concurrent sessions per user
// are allowed by design. Failures follow the documented taxonomy: an
// unknown email is a permission error, a wrong password an
// authentication error, an inactive account a permission error.
func (s *Auther) Login(ctx context.Context, email, password string) (*Token, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.logger.Info("login rejected for unknown email")
			return nil, ErrNoSuchUser
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during login")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Info("login rejected, password mismatch: %s", user.ID)
		return nil, ErrBadCredentials
	}

	if !user.IsActive {
		s.logger.Info("login rejected, user inactive: %s", user.ID)
		return nil, ErrUserInactive
	}

	var issued *Token
	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.repo.Users().TrackSuccessfulLoginTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record login time")
		}

		token, err := s.repo.Tokens().IssueTx(ctx, tx, user)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue session token")
		}

		issued = token
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "login transaction failed")
	}

	return issued, nil
}

// Authenticate resolves an Authorization header into the owning user
// and session token. A malformed header yields (nil, nil, nil): the
// request proceeds anonymously and route guards decide what that
// means.
func (s *Auther) Authenticate(ctx context.Context, header string) (*User, *Token, error) {
	key, ok := ParseTokenHeader(header, s.cfg.GetAuthScheme())
	if !ok {
		return nil, nil, nil
	}
	return s.AuthenticateKey(ctx, key)
}

// AuthenticateKey validates a raw session key and refreshes the
// sliding expiration window: every successful use resets the clock.
func (s *Auther) AuthenticateKey(ctx context.Context, key string) (*User, *Token, error) {
	token, err := s.repo.Tokens().GetByKey(ctx, key)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up session token")
	}

	// A logged out token reads exactly like a missing one.
	if token.Logout {
		return nil, nil, ErrInvalidToken
	}

	user := token.User
	if user == nil {
		user, err = s.repo.Users().GetByID(ctx, token.UserID.String())
		if err != nil {
			return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve token owner")
		}
	}

	if !user.IsActive {
		return nil, nil, ErrUserInactive
	}

	if s.now().Sub(token.Updated) >= s.cfg.GetTokenExpiration() {
		return nil, nil, ErrTokenExpired
	}

	token.Updated = s.now()
	if err := s.repo.Tokens().Touch(ctx, token); err != nil {
		return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to refresh session token")
	}

	return user, token, nil
}

// TouchToken opportunistically refreshes a token's updated stamp for
// requests that carry one. Every failure is swallowed: session
// bookkeeping must never fail a request.
func (s *Auther) TouchToken(ctx context.Context, header string) {
	key, ok := ParseTokenHeader(header, s.cfg.GetAuthScheme())
	if !ok {
		return
	}

	token, err := s.repo.Tokens().GetByKey(ctx, key)
	if err != nil {
		s.logger.Debug("touch skipped, token lookup failed: %v", err)
		return
	}

	token.Updated = s.now()
	if err := s.repo.Tokens().Touch(ctx, token); err != nil {
		s.logger.Debug("touch failed: %v", err)
	}
}

// Logout soft-invalidates the presented token, and only that token.
// An absent or malformed credential is a client error here, unlike in
// Authenticate.
func (s *Auther) Logout(ctx context.Context, header string) error {
	key, ok := ParseTokenHeader(header, s.cfg.GetAuthScheme())
	if !ok {
		return ErrTokenMissing
	}

	token, err := s.repo.Tokens().GetByKey(ctx, key)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrTokenMissing
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up session token")
	}

	if err := s.repo.Tokens().Revoke(ctx, token); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to revoke session token")
	}

	return nil
}
