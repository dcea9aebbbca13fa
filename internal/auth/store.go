// Package auth provides the in-memory API key store. Keys live in the
// configuration file as bcrypt hashes; the store loads them once at
// startup and answers authentication checks for the API layer.
package auth

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// KeyRecord is one configured API key entry: a display name, the
// bcrypt hash of the key, and the role the key acts with.
type KeyRecord struct {
	Name string
	Hash string
	Role string
}

// Store holds the accepted API keys in memory.
type Store struct {
	mu   sync.RWMutex
	keys []*storedKey
}

type storedKey struct {
	info APIKeyInfo
	hash string
}

// NewStore builds a store from configured key records. Names must be
// unique and every record needs a hash and a known role.
func NewStore(records []KeyRecord) (*Store, error) {
	store := &Store{}
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if err := validateKeyName(rec.Name); err != nil {
			return nil, fmt.Errorf("invalid key name %q: %w", rec.Name, err)
		}
		if seen[rec.Name] {
			return nil, fmt.Errorf("duplicate key name: %s", rec.Name)
		}
		seen[rec.Name] = true
		if rec.Hash == "" {
			return nil, fmt.Errorf("key %q has no hash", rec.Name)
		}
		if !ValidRole(rec.Role) {
			return nil, fmt.Errorf("key %q has unknown role: %s", rec.Name, rec.Role)
		}
		store.keys = append(store.keys, &storedKey{
			info: APIKeyInfo{
				ID:        uuid.NewString(),
				Name:      rec.Name,
				Role:      NormalizeRole(rec.Role),
				CreatedAt: time.Now().UTC(),
			},
			hash: rec.Hash,
		})
	}
	return store, nil
}

// Authenticate checks a presented key against every stored hash and
// returns the matching key's metadata. A format check runs first so
// obviously malformed keys skip the bcrypt comparisons.
func (s *Store) Authenticate(apiKey string) (APIKeyInfo, bool) {
	if !IsValidAPIKeyFormat(apiKey) {
		return APIKeyInfo{}, false
	}

	s.mu.RLock()
	var match *storedKey
	for _, key := range s.keys {
		if ValidateAPIKey(apiKey, key.hash) {
			match = key
			break
		}
	}
	s.mu.RUnlock()
	if match == nil {
		return APIKeyInfo{}, false
	}

	now := time.Now().UTC()
	s.mu.Lock()
	match.info.LastUsedAt = &now
	match.info.UsageCount++
	info := match.info
	s.mu.Unlock()
	return info, true
}

// Keys returns metadata for every stored key, in configuration order.
func (s *Store) Keys() []APIKeyInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]APIKeyInfo, 0, len(s.keys))
	for _, key := range s.keys {
		out = append(out, key.info)
	}
	return out
}

// Count returns the number of stored keys.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}
