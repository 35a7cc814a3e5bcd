package auth

import (
	"context"
	"sync"
	"testing"

	"github.com/AntonTsoy/auth-service/internal/account"
	"github.com/AntonTsoy/auth-service/internal/logging"
	"github.com/AntonTsoy/auth-service/internal/secret"
	"github.com/AntonTsoy/auth-service/internal/token"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type memAccounts struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*account.Account
	findErr error
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: make(map[uuid.UUID]*account.Account)}
}

func (m *memAccounts) Create(_ context.Context, email, passwordHash string) (*account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.byID {
		if acc.Email == email {
			return nil, account.ErrDuplicateEmail
		}
	}
	acc := &account.Account{ID: uuid.New(), Email: email, PasswordHash: passwordHash}
	m.byID[acc.ID] = acc
	return acc, nil
}

func (m *memAccounts) FindByEmail(_ context.Context, email string) (*account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, acc := range m.byID {
		if acc.Email == email {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, account.ErrNotFound
}

func (m *memAccounts) FindByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	acc, ok := m.byID[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (m *memAccounts) remove(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
}

type memTokens struct {
	mu      sync.Mutex
	records map[uuid.UUID]token.RefreshToken
	listErr error
	deletes int
}

func newMemTokens() *memTokens {
	return &memTokens{records: make(map[uuid.UUID]token.RefreshToken)}
}

func (m *memTokens) Insert(_ context.Context, rt *token.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rt.ID] = *rt
	return nil
}

func (m *memTokens) ListActive(_ context.Context, accountID uuid.UUID) ([]token.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []token.RefreshToken
	for _, rt := range m.records {
		if rt.AccountID == accountID && !rt.Revoked {
			out = append(out, rt)
		}
	}
	return out, nil
}

func (m *memTokens) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.records, id)
	return nil
}

func (m *memTokens) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *memTokens) all() []token.RefreshToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]token.RefreshToken, 0, len(m.records))
	for _, rt := range m.records {
		out = append(out, rt)
	}
	return out
}

func (m *memTokens) update(id uuid.UUID, fn func(*token.RefreshToken)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt := m.records[id]
	fn(&rt)
	m.records[id] = rt
}

const testSecret = "test-secret"

type testEnv struct {
	svc      *Service
	accounts *memAccounts
	tokens   *memTokens
	signer   *token.Signer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	accounts := newMemAccounts()
	tokens := newMemTokens()
	signer := token.NewSigner(testSecret)
	svc := NewService(accounts, tokens, secret.NewBcrypt(bcrypt.MinCost), signer, logging.Discard())
	return &testEnv{svc: svc, accounts: accounts, tokens: tokens, signer: signer}
}
