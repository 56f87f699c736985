package accounts_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	accounts "github.com/koretskiy/go-accounts"
)

func TestIsAuthenticatedAndActive(t *testing.T) {
	assert.False(t, accounts.IsAuthenticatedAndActive(nil))
	assert.False(t, accounts.IsAuthenticatedAndActive(&accounts.User{}))
	assert.True(t, accounts.IsAuthenticatedAndActive(&accounts.User{IsActive: true}))
}

func TestIsAdmin(t *testing.T) {
	assert.False(t, accounts.IsAdmin(nil))
	assert.False(t, accounts.IsAdmin(&accounts.User{IsAdmin: true}), "inactive admins carry no privileges")
	assert.False(t, accounts.IsAdmin(&accounts.User{IsActive: true}))
	assert.True(t, accounts.IsAdmin(&accounts.User{IsActive: true, IsAdmin: true}))
}

func TestIsOwnerOrReadOnly(t *testing.T) {
	id := uuid.New()
	owner := &accounts.User{ID: id, IsActive: true}
	stranger := &accounts.User{ID: uuid.New(), IsActive: true}

	for _, method := range []string{"GET", "HEAD", "OPTIONS"} {
		assert.True(t, accounts.IsOwnerOrReadOnly(method, stranger, id), method)
		assert.True(t, accounts.IsOwnerOrReadOnly(method, nil, id), method)
	}

	assert.True(t, accounts.IsOwnerOrReadOnly("PUT", owner, id))
	assert.False(t, accounts.IsOwnerOrReadOnly("PUT", stranger, id))
	assert.False(t, accounts.IsOwnerOrReadOnly("DELETE", nil, id))
}

func TestIsOwnerOrAdmin(t *testing.T) {
	id := uuid.New()
	owner := &accounts.User{ID: id, IsActive: true}
	admin := &accounts.User{ID: uuid.New(), IsActive: true, IsAdmin: true}
	stranger := &accounts.User{ID: uuid.New(), IsActive: true}

	assert.True(t, accounts.IsOwnerOrAdmin(owner, id))
	assert.True(t, accounts.IsOwnerOrAdmin(admin, id))
	assert.False(t, accounts.IsOwnerOrAdmin(stranger, id))
	assert.False(t, accounts.IsOwnerOrAdmin(nil, id))
}
