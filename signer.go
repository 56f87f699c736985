package accounts

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenPurpose selects which mutable user state a signed token watches.
type TokenPurpose string

const (
	// PurposeActivation folds is_active into the signature, so a token
	// dies the instant the account activates.
	PurposeActivation TokenPurpose = "activation"
	// PurposeReset watches nothing mutable and relies on the time
	// horizon alone.
	PurposeReset TokenPurpose = "reset"
)

// signatureLength keeps link tokens short. 80 bits of a keyed MAC is
// plenty for a token that also expires in days.
const signatureLength = 20

// secondsPerDay converts timestamps into whole-day buckets.
const secondsPerDay = 24 * 60 * 60

// TokenSigner mints and checks the stateless signed tokens used in
// activation and password reset links. Nothing is stored server side:
// a token is a day bucket plus an HMAC over the purpose, the user id,
// the bucket and the watched field. Statelessness means a token cannot
// be revoked before its horizon, only outlived.
type TokenSigner struct {
	secret  []byte
	horizon int
	now     func() time.Time
}

// NewTokenSigner builds a signer from the injected configuration.
func NewTokenSigner(cfg Config) *TokenSigner {
	horizon := cfg.GetSignedTokenHorizon()
	if horizon <= 0 {
		horizon = DefaultSignedTokenHorizon
	}
	return &TokenSigner{
		secret:  []byte(cfg.GetSecret()),
		horizon: horizon,
		now:     time.Now,
	}
}

// WithClock overrides the time source. Tests use it to cross the
// expiry horizon without sleeping.
func (s *TokenSigner) WithClock(now func() time.Time) *TokenSigner {
	if now != nil {
		s.now = now
	}
	return s
}

// Make returns a signed token for user and purpose, valid until the
// horizon elapses or the watched field changes.
func (s *TokenSigner) Make(user *User, purpose TokenPurpose) string {
	bucket := s.dayBucket(s.now())
	return strconv.FormatInt(bucket, 36) + "-" + s.signature(user, purpose, bucket)
}

// Check reports whether token is a valid, unexpired signature for user
// and purpose. A bad signature and an expired bucket both come back
// false; callers cannot tell them apart, and neither can an attacker.
func (s *TokenSigner) Check(user *User, purpose TokenPurpose, token string) bool {
	if user == nil || token == "" {
		return false
	}

	bucketPart, mac, ok := strings.Cut(token, "-")
	if !ok {
		return false
	}

	bucket, err := strconv.ParseInt(bucketPart, 36, 64)
	if err != nil || bucket < 0 {
		return false
	}

	want := s.signature(user, purpose, bucket)
	if subtle.ConstantTimeCompare([]byte(want), []byte(mac)) != 1 {
		return false
	}

	// Accepted through the last day of the horizon, rejected after.
	if s.dayBucket(s.now())-bucket > int64(s.horizon) {
		return false
	}

	return true
}

func (s *TokenSigner) dayBucket(t time.Time) int64 {
	return t.Unix() / secondsPerDay
}

func (s *TokenSigner) signature(user *User, purpose TokenPurpose, bucket int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%s|%d|%s", purpose, user.ID, bucket, s.watchedState(user, purpose))
	return hex.EncodeToString(mac.Sum(nil))[:signatureLength]
}

// watchedState is the mutable field folded into the MAC input. For
// activation that is is_active, making every outstanding activation
// token invalid the moment the flag flips.
func (s *TokenSigner) watchedState(user *User, purpose TokenPurpose) string {
	if purpose == PurposeActivation {
		return strconv.FormatBool(user.IsActive)
	}
	return ""
}

// EncodeUID converts a user id into the URL-safe form embedded in
// email links.
func EncodeUID(id uuid.UUID) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id.String()))
}

// DecodeUID reverses EncodeUID.
func DecodeUID(s string) (uuid.UUID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(string(raw))
}
