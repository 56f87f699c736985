package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Phone           string `json:"phone_number"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`

	OnResponse func(*User) `json:"-"`
}

func (e RegisterUserMessage) Type() string { return "account.register" }

func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.FirstName, validation.Required, validation.Length(1, 30)),
		validation.Field(&e.LastName, validation.Required, validation.Length(1, 30)),
		validation.Field(&e.Phone, validation.By(ValidatePhoneNumber)),
		validation.Field(&e.Password, validation.Required, validation.By(ValidatePasswordStrength)),
		validation.Field(&e.PasswordConfirm, validation.Required, validation.By(ValidateStringEquals(e.Password))),
	)
}

// RegisterUserHandler creates inactive accounts and dispatches the
// activation email. The account row is committed before delivery is
// attempted, so a delivery failure surfaces as an error without
// rolling the account back.
type RegisterUserHandler struct {
	repo   RepositoryManager
	cfg    Config
	signer *TokenSigner
	mail   *MailComposer
	logger Logger
}

func NewRegisterUserHandler(repo RepositoryManager, cfg Config, signer *TokenSigner, mail *MailComposer) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:   repo,
		cfg:    cfg,
		signer: signer,
		mail:   mail,
		logger: defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	if err := event.Validate(); err != nil {
		return NewValidationError(FormatValidationErrorToMap(err))
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := h.repo.Users().GetByEmailTx(ctx, tx, event.Email); err == nil {
			return NewValidationError(map[string]string{
				"email": "user with this email already exists",
			})
		} else if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
		}

		hash, err := HashPasswordCost(event.Password, h.cfg.GetBcryptCost())
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.Email = event.Email
		user.FirstName = event.FirstName
		user.LastName = event.LastName
		user.Phone = event.Phone
		user.PasswordHash = hash
		user.IsActive = false

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	// The account row is already committed. A failed delivery is
	// reported to the caller, the user can request the email again
	// through the password reset flow once support reactivates them.
	uid := EncodeUID(user.ID)
	token := h.signer.Make(user, PurposeActivation)
	if err := h.mail.SendActivation(ctx, user, uid, token); err != nil {
		h.logger.Error("activation email failed for %s: %v", user.ID, err)
		return err
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
