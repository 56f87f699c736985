package accounts_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/bcrypt"

	accounts "github.com/koretskiy/go-accounts"
)

func testConfig() accounts.SimpleConfig {
	return accounts.SimpleConfig{
		Secret:          "test-secret",
		TokenExpiration: time.Hour,
		BcryptCost:      bcrypt.MinCost,
		BaseURL:         "http://localhost:8080",
		FromEmail:       "noreply@example.com",
	}
}

func setupDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		db.Close()
	})

	ctx := context.Background()

	_, err = db.NewCreateTable().Model((*accounts.User)(nil)).Exec(ctx)
	require.NoError(t, err)

	_, err = db.NewCreateTable().Model((*accounts.Token)(nil)).Exec(ctx)
	require.NoError(t, err)

	return db
}

func setupRepo(t *testing.T) accounts.RepositoryManager {
	t.Helper()
	return accounts.NewRepositoryManager(setupDB(t))
}

func seedUser(t *testing.T, repo accounts.RepositoryManager, email, password string, active bool) *accounts.User {
	t.Helper()

	hash, err := accounts.HashPasswordCost(password, bcrypt.MinCost)
	require.NoError(t, err)

	user, err := repo.Users().Register(context.Background(), &accounts.User{
		Email:        email,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: hash,
		IsActive:     active,
	})
	require.NoError(t, err)

	return user
}

func seedAdmin(t *testing.T, repo accounts.RepositoryManager, email, password string) *accounts.User {
	t.Helper()

	user, err := accounts.CreateSuperuser(context.Background(), repo, testConfig(), email, password)
	require.NoError(t, err)

	return user
}
