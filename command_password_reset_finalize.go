package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type FinalizePasswordResetMessage struct {
	UID   string `json:"-"`
	Token string `json:"-"`

	PasswordNew        string `json:"password_new"`
	PasswordNewConfirm string `json:"password_new_confirm"`

	OnResponse func(*User) `json:"-"`
}

func (e FinalizePasswordResetMessage) Type() string { return "account.password.reset.finalize" }

func (e FinalizePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.PasswordNew, validation.Required, validation.By(ValidatePasswordStrength)),
		validation.Field(&e.PasswordNewConfirm, validation.Required, validation.By(ValidateStringEquals(e.PasswordNew))),
	)
}

// FinalizePasswordResetHandler sets a new password when presented with
// a valid signed reset link. There is no consumption marker, the same
// link keeps working until its day horizon passes.
type FinalizePasswordResetHandler struct {
	repo   RepositoryManager
	cfg    Config
	signer *TokenSigner
}

func NewFinalizePasswordResetHandler(repo RepositoryManager, cfg Config, signer *TokenSigner) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{repo: repo, cfg: cfg, signer: signer}
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	id, err := DecodeUID(event.UID)
	if err != nil {
		return ErrUserMissing
	}

	user, err := h.repo.Users().GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUserMissing
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	if !h.signer.Check(user, PurposeReset, event.Token) {
		return ErrInvalidResetLink
	}

	if err := event.Validate(); err != nil {
		return NewValidationError(FormatValidationErrorToMap(err))
	}

	hash, err := HashPasswordCost(event.PasswordNew, h.cfg.GetBcryptCost())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	if err := h.repo.Users().UpdatePassword(ctx, user.ID, hash); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password")
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
