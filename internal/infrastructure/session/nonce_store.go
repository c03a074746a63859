package session

import (
	"sync"
	"time"
)

type nonceEntry struct {
	nonce     string
	expiresAt time.Time
}

// NonceStore remembers the last nonce seen for each cart token.
type NonceStore struct {
	entries map[string]nonceEntry
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
}

const DefaultNonceTTL = 12 * time.Hour

func NewNonceStore(ttl time.Duration) *NonceStore {
	if ttl <= 0 {
		ttl = DefaultNonceTTL
	}
	return &NonceStore{
		entries: make(map[string]nonceEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *NonceStore) Get(cartToken string) (string, bool) {
	if cartToken == "" {
		return "", false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[cartToken]
	if !ok || !s.now().Before(entry.expiresAt) {
		return "", false
	}
	return entry.nonce, true
}

// Set ignores empty tokens: an anonymous session has nothing to key on.
func (s *NonceStore) Set(cartToken, nonce string) {
	if cartToken == "" || nonce == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[cartToken] = nonceEntry{
		nonce:     nonce,
		expiresAt: s.now().Add(s.ttl),
	}
}

// Sweep drops expired entries and returns how many were removed.
func (s *NonceStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for token, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, token)
			removed++
		}
	}
	return removed
}

func (s *NonceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
