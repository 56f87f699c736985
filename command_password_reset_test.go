package accounts_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accounts "github.com/koretskiy/go-accounts"
)

func resetHandlers(t *testing.T, repo accounts.RepositoryManager, mailer accounts.Mailer) (*accounts.InitializePasswordResetHandler, *accounts.FinalizePasswordResetHandler, *accounts.TokenSigner) {
	t.Helper()

	cfg := testConfig()
	signer := accounts.NewTokenSigner(cfg)
	mail, err := accounts.NewMailComposer(mailer, cfg)
	require.NoError(t, err)

	return accounts.NewInitializePasswordResetHandler(repo, signer, mail),
		accounts.NewFinalizePasswordResetHandler(repo, cfg, signer),
		signer
}

func TestPasswordResetInitializeSendsEmail(t *testing.T) {
	repo := setupRepo(t)
	mailer := &capturingMailer{}
	initHandler, _, _ := resetHandlers(t, repo, mailer)
	ctx := context.Background()

	seedUser(t, repo, "ada@example.com", "password-123", true)

	require.NoError(t, initHandler.Execute(ctx, accounts.InitializePasswordResetMessage{
		Email: "ada@example.com",
	}))

	email, ok := mailer.last()
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", email.To)
	assert.Equal(t, "Change your account password.", email.Subject)
	assert.Contains(t, email.HTMLBody, "/user/password-reset/")
}

func TestPasswordResetInitializeUnknownEmail(t *testing.T) {
	repo := setupRepo(t)
	mailer := &capturingMailer{}
	initHandler, _, _ := resetHandlers(t, repo, mailer)

	err := initHandler.Execute(context.Background(), accounts.InitializePasswordResetMessage{
		Email: "nobody@example.com",
	})
	require.Error(t, err)

	fields := accounts.FieldErrors(err)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "email")
	assert.Zero(t, mailer.count())
}

func TestPasswordResetFinalize(t *testing.T) {
	repo := setupRepo(t)
	_, finalize, signer := resetHandlers(t, repo, &capturingMailer{})
	ctx := context.Background()

	user := seedUser(t, repo, "bob@example.com", "old-password-1", true)

	err := finalize.Execute(ctx, accounts.FinalizePasswordResetMessage{
		UID:                accounts.EncodeUID(user.ID),
		Token:              signer.Make(user, accounts.PurposeReset),
		PasswordNew:        "new-password-1",
		PasswordNewConfirm: "new-password-1",
	})
	require.NoError(t, err)

	got, err := repo.Users().GetByID(ctx, user.ID.String())
	require.NoError(t, err)
	assert.NoError(t, accounts.ComparePasswordAndHash("new-password-1", got.PasswordHash))
}

func TestPasswordResetFinalizeBadToken(t *testing.T) {
	repo := setupRepo(t)
	_, finalize, _ := resetHandlers(t, repo, &capturingMailer{})

	user := seedUser(t, repo, "carol@example.com", "old-password-1", true)

	err := finalize.Execute(context.Background(), accounts.FinalizePasswordResetMessage{
		UID:                accounts.EncodeUID(user.ID),
		Token:              "10-0123456789abcdef0123",
		PasswordNew:        "new-password-1",
		PasswordNewConfirm: "new-password-1",
	})
	assert.ErrorIs(t, err, accounts.ErrInvalidResetLink)
}

func TestPasswordResetFinalizeWrongPurpose(t *testing.T) {
	repo := setupRepo(t)
	_, finalize, signer := resetHandlers(t, repo, &capturingMailer{})

	user := seedUser(t, repo, "dave@example.com", "old-password-1", false)

	err := finalize.Execute(context.Background(), accounts.FinalizePasswordResetMessage{
		UID:                accounts.EncodeUID(user.ID),
		Token:              signer.Make(user, accounts.PurposeActivation),
		PasswordNew:        "new-password-1",
		PasswordNewConfirm: "new-password-1",
	})
	assert.ErrorIs(t, err, accounts.ErrInvalidResetLink)
}

func TestPasswordResetLinkReplaysUntilHorizon(t *testing.T) {
	repo := setupRepo(t)
	_, finalize, signer := resetHandlers(t, repo, &capturingMailer{})
	ctx := context.Background()

	user := seedUser(t, repo, "erin@example.com", "old-password-1", true)
	token := signer.Make(user, accounts.PurposeReset)

	msg := accounts.FinalizePasswordResetMessage{
		UID:                accounts.EncodeUID(user.ID),
		Token:              token,
		PasswordNew:        "new-password-1",
		PasswordNewConfirm: "new-password-1",
	}
	require.NoError(t, finalize.Execute(ctx, msg))

	// There is no consumption marker, the link stays valid until the
	// day horizon passes.
	msg.PasswordNew = "another-password-1"
	msg.PasswordNewConfirm = "another-password-1"
	require.NoError(t, finalize.Execute(ctx, msg))

	got, err := repo.Users().GetByID(ctx, user.ID.String())
	require.NoError(t, err)
	assert.NoError(t, accounts.ComparePasswordAndHash("another-password-1", got.PasswordHash))
}

func TestPasswordResetFinalizeValidatesPassword(t *testing.T) {
	repo := setupRepo(t)
	_, finalize, signer := resetHandlers(t, repo, &capturingMailer{})

	user := seedUser(t, repo, "frank@example.com", "old-password-1", true)

	err := finalize.Execute(context.Background(), accounts.FinalizePasswordResetMessage{
		UID:                accounts.EncodeUID(user.ID),
		Token:              signer.Make(user, accounts.PurposeReset),
		PasswordNew:        "short",
		PasswordNewConfirm: "short",
	})
	require.Error(t, err)

	fields := accounts.FieldErrors(err)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "password_new")
}
