package accounts

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// tokenKeyBytes is the entropy behind a session token key. 20 random
// bytes hex-encode to the 40 character keys clients present.
const tokenKeyBytes = 20

// User is the account model.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email        string     `bun:"email,notnull,unique" json:"email,omitempty"`
	FirstName    string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName     string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Phone        string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash string     `bun:"password_hash" json:"-"`
	IsActive     bool       `bun:"is_active" json:"is_active"`
	IsAdmin      bool       `bun:"is_admin" json:"is_admin"`
	IsSuperuser  bool       `bun:"is_superuser" json:"is_superuser"`
	DateJoined   time.Time  `bun:"date_joined,nullzero,default:current_timestamp" json:"date_joined,omitempty"`
	LastLogin    *time.Time `bun:"last_login,nullzero" json:"last_login,omitempty"`
	Updated      time.Time  `bun:"updated,nullzero,default:current_timestamp" json:"updated,omitempty"`
}

// IsStaff reports whether the user may access staff-only surfaces.
// There is no separate staff flag, it derives from IsAdmin.
func (u *User) IsStaff() bool {
	return u.IsAdmin
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) String() string {
	return u.Email
}

// Token is a server-stored opaque session credential. Rows are never
// deleted and keys are never reused; logout soft-invalidates the key
// permanently.
type Token struct {
	bun.BaseModel `bun:"table:tokens,alias:tok"`

	Key     string    `bun:"key,pk" json:"key,omitempty"`
	UserID  uuid.UUID `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User    *User     `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Created time.Time `bun:"created,nullzero,default:current_timestamp" json:"created,omitempty"`
	Updated time.Time `bun:"updated,nullzero,default:current_timestamp" json:"updated,omitempty"`
	Logout  bool      `bun:"logout" json:"logout"`
}

func (t *Token) String() string {
	return t.Key
}

// GenerateTokenKey returns a fresh unpredictable session key from a
// cryptographically secure source.
func GenerateTokenKey() (string, error) {
	buf := make([]byte, tokenKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// NormalizeEmail lowercases the domain part of an address. The local
// part is left alone since it is case sensitive per RFC 5321, even if
// nobody treats it that way.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}
