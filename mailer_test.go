package accounts_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accounts "github.com/koretskiy/go-accounts"
)

func TestSendActivationRendersLink(t *testing.T) {
	mailer := &capturingMailer{}
	cfg := testConfig()

	mail, err := accounts.NewMailComposer(mailer, cfg)
	require.NoError(t, err)

	user := &accounts.User{ID: uuid.New(), Email: "ada@example.com", FirstName: "Ada"}

	require.NoError(t, mail.SendActivation(context.Background(), user, "some-uid", "10-abcdef"))

	email, ok := mailer.last()
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", email.To)
	assert.Equal(t, cfg.FromEmail, email.From)
	assert.Equal(t, "Activate your account.", email.Subject)
	assert.Contains(t, email.HTMLBody, "Hi Ada,")
	assert.Contains(t, email.HTMLBody, "http://localhost:8080/user/activate/some-uid/10-abcdef/")
}

func TestSendPasswordResetRendersLink(t *testing.T) {
	mailer := &capturingMailer{}

	mail, err := accounts.NewMailComposer(mailer, testConfig())
	require.NoError(t, err)

	user := &accounts.User{ID: uuid.New(), Email: "bob@example.com", FirstName: "Bob"}

	require.NoError(t, mail.SendPasswordReset(context.Background(), user, "some-uid", "10-abcdef"))

	email, ok := mailer.last()
	require.True(t, ok)
	assert.Equal(t, "Change your account password.", email.Subject)
	assert.Contains(t, email.HTMLBody, "http://localhost:8080/user/password-reset/some-uid/10-abcdef/")
}
