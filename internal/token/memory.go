package token

import (
	"context"
	"sync"
)

// MemoryStorage holds tokens keyed by host. It is safe for concurrent use.
type MemoryStorage struct {
	mu     sync.RWMutex
	tokens map[string]Token
}

// NewMemoryStorage creates a new instance of MemoryStorage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		tokens: make(map[string]Token),
	}
}

// Store saves a token for host, replacing any previous one.
func (m *MemoryStorage) Store(host string, token Token) error {
	if !IsValid(token) {
		return ErrTokenInvalid
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if token.Source == "" {
		token.Source = "memory"
	}
	m.tokens[host] = token
	return nil
}

// Lookup implements Source.
func (m *MemoryStorage) Lookup(_ context.Context, host string) (Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	token, exists := m.tokens[host]
	if !exists {
		return Token{}, ErrTokenNotFound
	}
	if IsExpired(token) {
		return Token{}, ErrTokenExpired
	}
	return token, nil
}
