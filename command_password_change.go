package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

type ChangePasswordMessage struct {
	User *User `json:"-"`

	Password           string `json:"password"`
	PasswordNew        string `json:"password_new"`
	PasswordNewConfirm string `json:"password_new_confirm"`
}

func (e ChangePasswordMessage) Type() string { return "account.password.change" }

func (e ChangePasswordMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Password, validation.Required),
		validation.Field(&e.PasswordNew, validation.Required, validation.By(ValidatePasswordStrength)),
		validation.Field(&e.PasswordNewConfirm, validation.Required, validation.By(ValidateStringEquals(e.PasswordNew))),
	)
}

// ChangePasswordHandler rotates the password of an authenticated user
// after re-verifying the current one. Existing session tokens stay
// valid, callers that want a clean slate call
// Tokens().RevokeAllForUser afterwards.
type ChangePasswordHandler struct {
	repo RepositoryManager
	cfg  Config
}

func NewChangePasswordHandler(repo RepositoryManager, cfg Config) *ChangePasswordHandler {
	return &ChangePasswordHandler{repo: repo, cfg: cfg}
}

func (h *ChangePasswordHandler) Execute(ctx context.Context, event ChangePasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password change",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ChangePasswordHandler) execute(ctx context.Context, event ChangePasswordMessage) error {
	if event.User == nil {
		return ErrUserMissing
	}

	if err := event.Validate(); err != nil {
		return NewValidationError(FormatValidationErrorToMap(err))
	}

	if err := ComparePasswordAndHash(event.Password, event.User.PasswordHash); err != nil {
		return NewValidationError(map[string]string{
			"password": "current password is incorrect",
		})
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	hash, err := HashPasswordCost(event.PasswordNew, h.cfg.GetBcryptCost())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	if err := h.repo.Users().UpdatePassword(ctx, event.User.ID, hash); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password")
	}

	return nil
}
