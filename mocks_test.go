package accounts_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	accounts "github.com/koretskiy/go-accounts"
)

// capturingMailer records every message instead of delivering it.
type capturingMailer struct {
	mu   sync.Mutex
	sent []accounts.Email
}

func (m *capturingMailer) Send(_ context.Context, msg accounts.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *capturingMailer) last() (accounts.Email, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return accounts.Email{}, false
	}
	return m.sent[len(m.sent)-1], true
}

func (m *capturingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// mockMailer asserts on delivery expectations.
type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, msg accounts.Email) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
