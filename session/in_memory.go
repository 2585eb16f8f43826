package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/agrimesh/core"
	"github.com/hupe1980/agrimesh/logging"
)

// Options configures an InMemoryStore.
type Options struct {
	// TTL evicts sessions idle for longer than this duration. Zero disables eviction.
	TTL time.Duration
	// SweepInterval is how often the janitor looks for idle sessions.
	SweepInterval time.Duration
	Logger        logging.Logger
	// Now overrides the clock used for idle checks.
	Now func() time.Time
}

// InMemoryStore is a volatile SessionStore implementation storing
// sessions in a process local map. It is safe for concurrent access.
// All history is lost when the process exits.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
	turns    map[string]*turnLock
	opts     Options

	stop     chan struct{}
	stopOnce sync.Once
}

// NewInMemoryStore constructs an empty in‑memory session store. When a TTL is
// configured a background janitor is started; call Close to stop it.
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	opts := Options{
		SweepInterval: time.Minute,
		Logger:        logging.NoOpLogger{},
		Now:           time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &InMemoryStore{
		sessions: make(map[string]*core.Session),
		turns:    make(map[string]*turnLock),
		opts:     opts,
		stop:     make(chan struct{}),
	}

	if opts.TTL > 0 && opts.SweepInterval > 0 {
		go s.janitor()
	}

	return s
}

// GetOrCreate returns the session for id, lazily creating it.
func (s *InMemoryStore) GetOrCreate(id string) *core.Session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	sess = core.NewSession(id)
	s.sessions[id] = sess
	s.opts.Logger.Debug("session.created", "session_id", id)
	return sess
}

// Append records a message at the end of the session history.
func (s *InMemoryStore) Append(id string, role core.Role, content string) core.Message {
	return s.GetOrCreate(id).Append(role, content)
}

// History returns a copy of the session messages in insertion order. An
// unknown id yields an empty (but created) session.
func (s *InMemoryStore) History(id string) []core.Message {
	return s.GetOrCreate(id).Messages()
}

// Clear removes the session. A later reference starts a fresh history; a turn
// that already holds the old session appends to it, not to the new one.
func (s *InMemoryStore) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; ok {
		delete(s.sessions, id)
		s.opts.Logger.Info("session.cleared", "session_id", id)
	}
}

// turnLock is a one-slot semaphore shared by every turn on a key. refs counts
// the holder plus waiters; the entry is dropped when it reaches zero.
type turnLock struct {
	sem  chan struct{}
	refs int
}

// Lock enters the per-session turn region. The lock is independent of the
// session object, so Clear does not release it.
func (s *InMemoryStore) Lock(ctx context.Context, id string) (func(), error) {
	s.mu.Lock()
	tl, ok := s.turns[id]
	if !ok {
		tl = &turnLock{sem: make(chan struct{}, 1)}
		s.turns[id] = tl
	}
	tl.refs++
	s.mu.Unlock()

	select {
	case tl.sem <- struct{}{}:
	case <-ctx.Done():
		s.release(id, tl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-tl.sem
			s.release(id, tl)
		})
	}, nil
}

func (s *InMemoryStore) release(id string, tl *turnLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tl.refs--
	if tl.refs == 0 {
		delete(s.turns, id)
	}
}

// Len returns the number of live sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Keys returns the live session ids in sorted order.
func (s *InMemoryStore) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.sessions))
	for k := range s.sessions {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// EvictIdle removes sessions idle longer than the configured TTL and returns
// how many were removed. Sessions with a turn running or waiting are kept.
func (s *InMemoryStore) EvictIdle() int {
	if s.opts.TTL <= 0 {
		return 0
	}
	cutoff := s.opts.Now().Add(-s.opts.TTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, sess := range s.sessions {
		if _, busy := s.turns[id]; busy || sess.Updated().After(cutoff) {
			continue
		}
		delete(s.sessions, id)
		evicted++
	}
	if evicted > 0 {
		s.opts.Logger.Info("session.evicted", "count", evicted, "ttl", s.opts.TTL.String())
	}
	return evicted
}

// Close stops the eviction janitor. It is safe to call more than once.
func (s *InMemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *InMemoryStore) janitor() {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.EvictIdle()
		}
	}
}
