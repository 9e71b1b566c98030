// Package scripts runs the script viewer flow: parameters are stashed under a
// tab id, a generation call consumes them, and the result is cached.
package scripts

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Prathap331/SB-Next/internal/api"
	"github.com/Prathap331/SB-Next/internal/clock"
)

// DefaultStashTTL is how long stashed parameters wait to be consumed.
const DefaultStashTTL = 30 * time.Minute

type stashed struct {
	expires time.Time
	req     api.GenerationRequest
}

// Stash holds generation parameters per tab until they are consumed.
type Stash struct {
	clock   clock.Clock
	entries map[string]stashed
	ttl     time.Duration
	mu      sync.Mutex
}

// NewStash creates an empty stash.
func NewStash(clk clock.Clock, ttl time.Duration) *Stash {
	if ttl <= 0 {
		ttl = DefaultStashTTL
	}
	return &Stash{clock: clk, ttl: ttl, entries: make(map[string]stashed)}
}

// NewTabID returns a fresh tab id.
func NewTabID() string {
	return uuid.NewString()
}

// Put stores req for tabID, replacing anything already there.
func (s *Stash) Put(tabID string, req api.GenerationRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	s.entries[tabID] = stashed{req: req, expires: s.clock.Now().Add(s.ttl)}
}

// Peek returns the parameters for tabID without consuming them.
func (s *Stash) Peek(tabID string) (api.GenerationRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	entry, ok := s.entries[tabID]
	return entry.req, ok
}

// Take returns and removes the parameters for tabID.
func (s *Stash) Take(tabID string) (api.GenerationRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	entry, ok := s.entries[tabID]
	delete(s.entries, tabID)
	return entry.req, ok
}

// Forget drops the parameters for tabID.
func (s *Stash) Forget(tabID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, tabID)
}

func (s *Stash) sweep() {
	now := s.clock.Now()
	for id, entry := range s.entries {
		if !now.Before(entry.expires) {
			delete(s.entries, id)
		}
	}
}
