package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type InitializePasswordResetMessage struct {
	Email string `json:"email"`

	OnResponse func(*User) `json:"-"`
}

func (e InitializePasswordResetMessage) Type() string { return "account.password.reset.init" }

func (e InitializePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

// InitializePasswordResetHandler emails a signed reset link to the
// account owner. Nothing is persisted, the link carries all state and
// stays valid until its day horizon passes.
type InitializePasswordResetHandler struct {
	repo   RepositoryManager
	signer *TokenSigner
	mail   *MailComposer
}

func NewInitializePasswordResetHandler(repo RepositoryManager, signer *TokenSigner, mail *MailComposer) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{repo: repo, signer: signer, mail: mail}
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
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

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	if err := event.Validate(); err != nil {
		return NewValidationError(FormatValidationErrorToMap(err))
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return NewValidationError(map[string]string{
				"email": "user with this email does not exist",
			})
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	uid := EncodeUID(user.ID)
	token := h.signer.Make(user, PurposeReset)
	if err := h.mail.SendPasswordReset(ctx, user, uid, token); err != nil {
		return err
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
