package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// CreateSuperuser provisions an active account with full privileges.
// Meant for bootstrap scripts and fixtures, it bypasses activation
// email flow entirely.
func CreateSuperuser(ctx context.Context, repo RepositoryManager, cfg Config, email, password string) (*User, error) {
	return createSeededUser(ctx, repo, cfg, email, password, true)
}

// CreateUser provisions an active regular account without the email
// activation round trip.
func CreateUser(ctx context.Context, repo RepositoryManager, cfg Config, email, password string) (*User, error) {
	return createSeededUser(ctx, repo, cfg, email, password, false)
}

func createSeededUser(ctx context.Context, repo RepositoryManager, cfg Config, email, password string, super bool) (*User, error) {
	if email == "" || password == "" {
		return nil, ErrNoEmptyString
	}

	if err := ValidatePasswordStrength(password); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "password rejected").
			WithCode(goerrors.CodeBadRequest)
	}

	hash, err := HashPasswordCost(password, cfg.GetBcryptCost())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		ID:           uuid.New(),
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
		IsActive:     true,
		IsAdmin:      super,
		IsSuperuser:  super,
		DateJoined:   time.Now(),
		Updated:      time.Now(),
	}

	created, err := repo.Users().Register(ctx, user)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to create account")
	}

	return created, nil
}
