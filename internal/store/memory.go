package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/serroba/linkkeeper/internal/account"
	"github.com/serroba/linkkeeper/internal/shortener"
)

// MemoryStore keeps accounts and links in process memory. It satisfies
// account.Repository and shortener.Repository and is used for local runs
// and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*account.Account // id -> account
	emails   map[string]string           // email -> id
	links    map[shortener.Code]*shortener.ShortURL
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*account.Account),
		emails:   make(map[string]string),
		links:    make(map[shortener.Code]*shortener.ShortURL),
	}
}

func (m *MemoryStore) Create(_ context.Context, acct *account.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.emails[acct.Email]; taken {
		return account.ErrDuplicateEmail
	}

	if acct.ID == "" {
		acct.ID = uuid.NewString()
	}

	stored := *acct
	m.accounts[stored.ID] = &stored
	m.emails[stored.Email] = stored.ID

	return nil
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (*account.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acct, ok := m.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}

	found := *acct

	return &found, nil
}

func (m *MemoryStore) FindByEmail(_ context.Context, email string) ([]*account.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.emails[email]
	if !ok {
		return nil, nil
	}

	found := *m.accounts[id]

	return []*account.Account{&found}, nil
}

func (m *MemoryStore) ActivateByToken(_ context.Context, token string) (*account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token == "" {
		return nil, account.ErrNotFound
	}

	for _, acct := range m.accounts {
		if acct.ActivationToken == token {
			acct.IsActivated = true
			acct.ActivationToken = ""
			activated := *acct

			return &activated, nil
		}
	}

	return nil, account.ErrNotFound
}

func (m *MemoryStore) SetResetToken(_ context.Context, id, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.accounts[id]
	if !ok {
		return account.ErrNotFound
	}

	acct.ResetToken = token

	return nil
}

func (m *MemoryStore) ConsumeResetToken(_ context.Context, id, token, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.accounts[id]
	if !ok || token == "" || acct.ResetToken != token {
		return account.ErrNotFound
	}

	acct.PasswordHash = passwordHash
	acct.ResetToken = ""

	return nil
}

func (m *MemoryStore) Save(_ context.Context, link *shortener.ShortURL) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.links[link.Code]; taken {
		return shortener.ErrCodeTaken
	}

	stored := *link
	m.links[link.Code] = &stored

	return nil
}

func (m *MemoryStore) GetByCode(_ context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.links[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	found := *link

	return &found, nil
}

func (m *MemoryStore) ListByOwner(_ context.Context, ownerID string) ([]*shortener.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	owned := make([]*shortener.ShortURL, 0)

	for _, link := range m.links {
		if link.OwnerID == ownerID {
			found := *link
			owned = append(owned, &found)
		}
	}

	slices.SortFunc(owned, func(a, b *shortener.ShortURL) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}

		return cmp.Compare(a.Code, b.Code)
	})

	return owned, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

