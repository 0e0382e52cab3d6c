// Package session tracks the current proposal draft per session. Each
// session holds exactly one draft slot; refinement turns overwrite it.
package session

import (
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
)

// DefaultID is used when a caller supplies no session identity.
const DefaultID = "default"

// Store is a per-session single-slot draft store. Slots expire after the
// configured TTL so abandoned sessions do not accumulate.
type Store struct {
	drafts *cache.Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		drafts: cache.New(ttl, ttl/2),
		locks:  map[string]*sync.Mutex{},
	}
}

// Get returns the current draft for the session, or "" when no draft exists.
func (s *Store) Get(sessionID string) string {
	if v, ok := s.drafts.Get(key(sessionID)); ok {
		return v.(string)
	}
	return ""
}

// Set unconditionally overwrites the session's draft. Clearing is Set("").
func (s *Store) Set(sessionID, text string) {
	s.drafts.SetDefault(key(sessionID), text)
}

// Update runs fn against the session's current draft and stores the result,
// serialized per session so concurrent refinement turns cannot interleave
// their read-modify-write. When fn fails the draft is left untouched.
func (s *Store) Update(sessionID string, fn func(current string) (string, error)) error {
	lock := s.lockFor(key(sessionID))
	lock.Lock()
	defer lock.Unlock()

	next, err := fn(s.Get(sessionID))
	if err != nil {
		return err
	}
	s.Set(sessionID, next)
	return nil
}

func (s *Store) lockFor(k string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[k]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[k] = l
	return l
}

func key(sessionID string) string {
	if sessionID == "" {
		return DefaultID
	}
	return sessionID
}
