package auth

import "sync"

// TokenKey identifies a credential by issuer (token endpoint) and scopes.
type TokenKey struct {
	Issuer string
	Scopes string
}

// Store is a pluggable persistence layer for credentials.
// The in-memory default is fine for a single process; swap it to share tokens across a fleet.
type Store interface {
	LookupCredential(key TokenKey) (*Credential, bool)
	AddCredential(key TokenKey, credential *Credential) error
	DeleteCredential(key TokenKey) error
}

type memoryStore struct {
	mu          sync.RWMutex
	credentials map[TokenKey]*Credential
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore() Store {
	return &memoryStore{credentials: map[TokenKey]*Credential{}}
}

func (m *memoryStore) LookupCredential(key TokenKey) (*Credential, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	credential, ok := m.credentials[key]
	return credential, ok
}

func (m *memoryStore) AddCredential(key TokenKey, credential *Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credentials[key] = credential
	return nil
}

func (m *memoryStore) DeleteCredential(key TokenKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.credentials, key)
	return nil
}
