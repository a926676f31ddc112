// Package memory implements the per-user key/value memory store with a
// durable write-through for the profile keys.
package memory

import (
	"context"
	"sync"
	"time"

	"minerva/internal/logger"
)

// Memory keys. The two profile keys are mirrored to the durable store.
const (
	KeyPersonalInfo       = "personal_info"
	KeyPersonalPreference = "personal_preference"
	KeyMainContext        = "main_context"
	KeySuffixContext      = "suffix_context"
	KeyChatUserMemory     = "chat_user_memory"
	KeySearchQuery        = "search_query"
)

const writeThroughTimeout = 5 * time.Second

var durableKeys = map[string]bool{
	KeyPersonalInfo:       true,
	KeyPersonalPreference: true,
}

// Store is an in-process key/value store namespaced by user id. The
// in-memory value is authoritative; the durable mirror exists for restart
// recovery only.
type Store struct {
	mu    sync.RWMutex
	data  map[string]map[string]string
	users *UserDB // optional durable backing
}

// NewStore creates a store. users may be nil to disable the durable mirror.
func NewStore(users *UserDB) *Store {
	return &Store{
		data:  make(map[string]map[string]string),
		users: users,
	}
}

// Get returns the stored value, or "" when the key is absent.
func (s *Store) Get(namespace, key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[namespace][key]
}

// Put overwrites the value unconditionally. Profile keys are mirrored to
// the durable store without blocking the caller; a mirror failure is
// logged and swallowed.
func (s *Store) Put(namespace, key, value string) {
	s.mu.Lock()
	ns, ok := s.data[namespace]
	if !ok {
		ns = make(map[string]string)
		s.data[namespace] = ns
	}
	ns[key] = value
	s.mu.Unlock()

	if s.users != nil && durableKeys[key] {
		go s.writeThrough(namespace, key, value)
	}
}

func (s *Store) writeThrough(namespace, key, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), writeThroughTimeout)
	defer cancel()

	if err := s.users.UpdateField(ctx, namespace, key, value); err != nil {
		logger.Error().
			Err(err).
			Str("user_id", namespace).
			Str("key", key).
			Msg("durable write-through failed, in-memory value remains authoritative")
	}
}

// LoadUser seeds the namespace from the durable profile row, creating the
// row on first contact. Keys already present in memory are kept, since the
// in-memory value is authoritative for the process lifetime.
func (s *Store) LoadUser(ctx context.Context, userID string) error {
	if s.users == nil {
		return nil
	}

	profile, err := s.users.GetOrCreateUser(ctx, userID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.data[userID]
	if !ok {
		ns = make(map[string]string)
		s.data[userID] = ns
	}
	seed := map[string]string{
		KeyPersonalInfo:       profile.PersonalInfo,
		KeyPersonalPreference: profile.PersonalPreference,
	}
	for key, value := range seed {
		if _, exists := ns[key]; !exists && value != "" {
			ns[key] = value
		}
	}
	return nil
}

// DeleteNamespace drops all in-memory values for the user. The durable
// profile row is left untouched.
func (s *Store) DeleteNamespace(namespace string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, namespace)
}
