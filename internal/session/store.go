// Package session keeps one navigation coordinator per browser session.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docnav/internal/logfields"
	"github.com/dgallion1/docnav/internal/metrics"
	"github.com/dgallion1/docnav/internal/navigation"
	"github.com/dgallion1/docnav/internal/topics"
)

// Factory builds the coordinator for a new session. initialURL may be empty.
type Factory func(initialURL string) (*navigation.Coordinator, error)

// Session is one browser's navigation state.
type Session struct {
	ID          string
	Coordinator *navigation.Coordinator
	CreatedAt   time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// Touch marks the session as used now.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Snapshot is a JSON-safe view of a session.
type Snapshot struct {
	ID        string    `json:"session_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:        s.ID,
		URL:       s.Coordinator.Selection().URL(),
		CreatedAt: s.CreatedAt,
		LastSeen:  s.LastSeen(),
	}
}

// Store is a thread-safe in-memory session registry with TTL eviction.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	factory  Factory
	gen      uint64 // bumped by Reload; guards Create against a stale factory
	rec      metrics.Recorder
	log      *slog.Logger
}

func NewStore(ttl time.Duration, factory Factory, rec metrics.Recorder, log *slog.Logger) *Store {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		factory:  factory,
		rec:      rec,
		log:      log,
	}
}

// Create starts a session at initialURL, or at the manifest defaults when it
// is empty.
func (s *Store) Create(initialURL string) (*Session, error) {
	for {
		s.mu.Lock()
		factory, gen := s.factory, s.gen
		s.mu.Unlock()

		coord, err := factory(initialURL)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		sess := &Session{
			ID:          uuid.NewString(),
			Coordinator: coord,
			CreatedAt:   now,
			lastSeen:    now,
		}

		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			s.log.Debug("manifest reloaded during session create, retrying")
			continue
		}
		s.sessions[sess.ID] = sess
		n := len(s.sessions)
		s.mu.Unlock()

		s.rec.SetSessions(n)
		s.log.Debug("session created", logfields.SessionID(sess.ID), logfields.URL(coord.Selection().URL()))
		return sess, nil
	}
}

// Get returns the session and refreshes its last-seen time, or nil.
func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	sess := s.sessions[id]
	s.mu.Unlock()
	if sess != nil {
		sess.Touch()
	}
	return sess
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()
	s.rec.SetSessions(n)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Range calls fn for each live session until fn returns false. fn runs
// without the store lock held.
func (s *Store) Range(fn func(*Session) bool) {
	s.mu.Lock()
	list := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		list = append(list, sess)
	}
	s.mu.Unlock()

	for _, sess := range list {
		if !fn(sess) {
			return
		}
	}
}

// Reload moves every live session onto m and uses f for new sessions.
// Sessions whose coordinator rejects m keep their previous manifest. A Create
// that started before the swap is rebuilt with f.
func (s *Store) Reload(ctx context.Context, m *topics.Manifest, f Factory) error {
	s.mu.Lock()
	s.factory = f
	s.gen++
	s.mu.Unlock()

	var errs []error
	s.Range(func(sess *Session) bool {
		if err := sess.Coordinator.Reload(ctx, m); err != nil {
			s.log.Warn("session reload failed", logfields.SessionID(sess.ID), logfields.Error(err))
			errs = append(errs, fmt.Errorf("session %s: %w", sess.ID, err))
		}
		return true
	})
	return errors.Join(errs...)
}

// Cleanup removes sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	now := time.Now()
	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.LastSeen()) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	s.rec.SetSessions(n)
	if removed > 0 {
		s.log.Info("expired sessions removed", "removed", removed, "remaining", n)
	}
	return removed
}

// Run evicts expired sessions every interval until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Cleanup()
		}
	}
}
