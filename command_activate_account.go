package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type ActivateAccountMessage struct {
	UID   string `json:"uid"`
	Token string `json:"token"`

	OnResponse func(*User) `json:"-"`
}

func (e ActivateAccountMessage) Type() string { return "account.activate" }

// ActivateAccountHandler flips an account active when presented with a
// valid signed activation link. The link signs over the active flag,
// so a successful activation invalidates the link it arrived on.
type ActivateAccountHandler struct {
	repo   RepositoryManager
	signer *TokenSigner
}

func NewActivateAccountHandler(repo RepositoryManager, signer *TokenSigner) *ActivateAccountHandler {
	return &ActivateAccountHandler{repo: repo, signer: signer}
}

func (h *ActivateAccountHandler) Execute(ctx context.Context, event ActivateAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account activation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ActivateAccountHandler) execute(ctx context.Context, event ActivateAccountMessage) error {
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
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for activation")
	}

	if !h.signer.Check(user, PurposeActivation, event.Token) {
		return ErrInvalidActivationLink
	}

	activated, err := h.repo.Users().Activate(ctx, user.ID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to activate account")
	}

	if event.OnResponse != nil {
		event.OnResponse(activated)
	}

	return nil
}
