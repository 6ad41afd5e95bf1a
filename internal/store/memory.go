// internal/store/memory.go
//
// In-memory registry of live environment sessions for the HTTP server.
//
// Characteristics:
//   - Sessions are keyed by ID in a map guarded by an RWMutex.
//   - Each Session serializes access to its engine (engines are not concurrency safe).
//   - Idle sessions are dropped by Sweep; nothing survives a restart.

package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/DylanRuth/ml-hangman/internal/game"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// Session owns one engine. Use Do for every engine access.
type Session struct {
	ID        string
	Daily     string // date key when the session plays the word of the day
	CreatedAt time.Time

	mu       sync.Mutex
	env      *game.Engine
	now      func() time.Time
	lastUsed time.Time
}

// NewSession wraps env under id (see NewID). now stamps creation and use
// times; nil means time.Now. Pass the same clock used for Sweep cutoffs.
func NewSession(id string, env *game.Engine, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	t := now()
	return &Session{ID: id, CreatedAt: t, env: env, now: now, lastUsed: t}
}

// Do runs fn with exclusive access to the engine.
func (s *Session) Do(fn func(env *game.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = s.now()
	return fn(s.env)
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Store defines the persistence interface for sessions.
type Store interface {
	// Save persists or replaces a session.
	Save(ctx context.Context, s *Session) error

	// Get retrieves a session by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session; unknown IDs return ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Sweep drops sessions idle since before cutoff and returns how many were removed.
	Sweep(ctx context.Context, cutoff time.Time) int

	// Len reports the number of live sessions.
	Len() int
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*Session)}
}

func (m *memory) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *memory) Sweep(ctx context.Context, cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// NewID returns a compact 16-hex-char session identifier.
func NewID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
