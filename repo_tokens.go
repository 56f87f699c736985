package accounts

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// maxKeyCollisionRetries bounds insert retries on a duplicate key. Two
// identical 160 bit random draws will not happen, the bound only keeps
// a broken entropy source from looping forever.
const maxKeyCollisionRetries = 3

// Tokens is the session token store. Keys are random, collision
// checked by the primary key constraint, and never reused: logout
// flips a flag instead of deleting the row.
type Tokens interface {
	Issue(ctx context.Context, user *User) (*Token, error)
	IssueTx(ctx context.Context, tx bun.IDB, user *User) (*Token, error)
	GetByKey(ctx context.Context, key string) (*Token, error)
	Touch(ctx context.Context, token *Token) error
	Revoke(ctx context.Context, token *Token) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Token, error)
}

type tokens struct {
	db *bun.DB
}

var _ Tokens = (*tokens)(nil)

// NewTokensRepository builds the session token store on top of db.
func NewTokensRepository(db *bun.DB) Tokens {
	return &tokens{db: db}
}

func (t *tokens) Issue(ctx context.Context, user *User) (*Token, error) {
	return t.IssueTx(ctx, t.db, user)
}

func (t *tokens) IssueTx(ctx context.Context, tx bun.IDB, user *User) (*Token, error) {
	var lastErr error

	for range maxKeyCollisionRetries {
		key, err := GenerateTokenKey()
		if err != nil {
			return nil, err
		}

		now := time.Now()
		token := &Token{
			Key:     key,
			UserID:  user.ID,
			User:    user,
			Created: now,
			Updated: now,
		}

		if _, err := tx.NewInsert().Model(token).Exec(ctx); err != nil {
			if isDuplicateKey(err) {
				lastErr = err
				continue
			}
			return nil, err
		}

		return token, nil
	}

	return nil, lastErr
}

func (t *tokens) GetByKey(ctx context.Context, key string) (*Token, error) {
	token := &Token{}
	err := t.db.NewSelect().
		Model(token).
		Relation("User").
		Where("?TableAlias.key = ?", key).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"key": key,
				})
		}
		return nil, err
	}

	return token, nil
}

// Touch persists the token's refreshed updated stamp. Races between
// concurrent touches are last-writer-wins, which only ever extends the
// window by the gap between the writes.
func (t *tokens) Touch(ctx context.Context, token *Token) error {
	_, err := t.db.NewUpdate().
		Model(token).
		Column("updated").
		WherePK().
		Exec(ctx)
	return err
}

// Revoke soft-invalidates the token. There is no way back.
func (t *tokens) Revoke(ctx context.Context, token *Token) error {
	token.Logout = true
	token.Updated = time.Now()
	_, err := t.db.NewUpdate().
		Model(token).
		Column("logout", "updated").
		WherePK().
		Exec(ctx)
	return err
}

// RevokeAllForUser soft-invalidates every session the user holds. Not
// called by any core flow; callers wanting password changes to revoke
// outstanding sessions can use it.
func (t *tokens) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := t.db.NewUpdate().
		Model((*Token)(nil)).
		Set("logout = ?", true).
		Set("updated = ?", time.Now()).
		Where("user_id = ?", userID).
		Exec(ctx)
	return err
}

func (t *tokens) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Token, error) {
	var records []*Token
	err := t.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Order("updated DESC", "created DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
