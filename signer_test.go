package accounts_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accounts "github.com/koretskiy/go-accounts"
)

var tokenShape = regexp.MustCompile(`^[0-9a-z]{1,13}-[0-9a-f]{1,20}$`)

func TestTokenSignerRoundTrip(t *testing.T) {
	signer := accounts.NewTokenSigner(testConfig())
	user := &accounts.User{ID: uuid.New(), Email: "alice@example.com"}

	token := signer.Make(user, accounts.PurposeActivation)
	assert.Regexp(t, tokenShape, token)
	assert.True(t, signer.Check(user, accounts.PurposeActivation, token))
}

func TestTokenSignerRejectsWrongPurpose(t *testing.T) {
	signer := accounts.NewTokenSigner(testConfig())
	user := &accounts.User{ID: uuid.New()}

	token := signer.Make(user, accounts.PurposeActivation)
	assert.False(t, signer.Check(user, accounts.PurposeReset, token))
}

func TestTokenSignerRejectsWrongUser(t *testing.T) {
	signer := accounts.NewTokenSigner(testConfig())
	user := &accounts.User{ID: uuid.New()}
	other := &accounts.User{ID: uuid.New()}

	token := signer.Make(user, accounts.PurposeReset)
	assert.False(t, signer.Check(other, accounts.PurposeReset, token))
}

func TestTokenSignerRejectsForeignSecret(t *testing.T) {
	cfg := testConfig()
	user := &accounts.User{ID: uuid.New()}

	token := accounts.NewTokenSigner(cfg).Make(user, accounts.PurposeReset)

	cfg.Secret = "another-secret"
	assert.False(t, accounts.NewTokenSigner(cfg).Check(user, accounts.PurposeReset, token))
}

func TestActivationTokenDiesWhenAccountActivates(t *testing.T) {
	signer := accounts.NewTokenSigner(testConfig())
	user := &accounts.User{ID: uuid.New(), IsActive: false}

	token := signer.Make(user, accounts.PurposeActivation)
	require.True(t, signer.Check(user, accounts.PurposeActivation, token))

	user.IsActive = true
	assert.False(t, signer.Check(user, accounts.PurposeActivation, token))
}

func TestTokenSignerHorizon(t *testing.T) {
	cfg := testConfig()
	cfg.SignedTokenHorizonDays = 1

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := start

	signer := accounts.NewTokenSigner(cfg).WithClock(func() time.Time { return now })
	user := &accounts.User{ID: uuid.New()}
	token := signer.Make(user, accounts.PurposeReset)

	// Still accepted through the last day of the horizon.
	now = start.Add(24 * time.Hour)
	assert.True(t, signer.Check(user, accounts.PurposeReset, token))

	// Rejected once the horizon day has passed.
	now = start.Add(48 * time.Hour)
	assert.False(t, signer.Check(user, accounts.PurposeReset, token))
}

func TestTokenSignerRejectsGarbage(t *testing.T) {
	signer := accounts.NewTokenSigner(testConfig())
	user := &accounts.User{ID: uuid.New()}

	for _, token := range []string{"", "no-dash-at-all?", "!!!-abcdef", "zz", "-", "10-"} {
		assert.False(t, signer.Check(user, accounts.PurposeReset, token), "token %q", token)
	}
	assert.False(t, signer.Check(nil, accounts.PurposeReset, "10-abc"))
}

func TestEncodeDecodeUID(t *testing.T) {
	id := uuid.New()

	encoded := accounts.EncodeUID(id)
	assert.NotContains(t, encoded, "/")

	decoded, err := accounts.DecodeUID(encoded)
	require.NoError(t, err)
	assert.Equal(t, id, decoded)

	_, err = accounts.DecodeUID("not base64 at all!!")
	assert.Error(t, err)
}
