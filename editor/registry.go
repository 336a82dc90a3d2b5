package editor

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/1rvyn/story-builder/store"
)

// DefaultIdleTimeout is how long a session may go unused before the
// registry saves and closes it.
const DefaultIdleTimeout = 30 * time.Minute

type RegistryOption func(*Registry)

// WithSessionOptions applies opts to every session the registry opens.
func WithSessionOptions(opts ...Option) RegistryOption {
	return func(r *Registry) { r.opts = append(r.opts, opts...) }
}

// WithIdleTimeout overrides DefaultIdleTimeout. Zero keeps sessions until
// they are closed.
func WithIdleTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.idle = d }
}

// WithRegistryClock sets the clock used for idle expiry and by every
// session's timers.
func WithRegistryClock(c clockwork.Clock) RegistryOption {
	return func(r *Registry) {
		r.clock = c
		r.opts = append(r.opts, WithClock(c))
	}
}

type entry struct {
	sess     *Session
	lastUsed time.Time
}

// Registry holds one Session per open story so every request edits the
// same working copy. Sessions left idle are saved and closed the next time
// a story is opened.
type Registry struct {
	mu       sync.Mutex
	store    store.Store
	opts     []Option
	clock    clockwork.Clock
	idle     time.Duration
	sessions map[string]*entry
}

func NewRegistry(st store.Store, opts ...RegistryOption) *Registry {
	r := &Registry{
		store:    st,
		clock:    clockwork.NewRealClock(),
		idle:     DefaultIdleTimeout,
		sessions: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open returns the session for id, loading the story on first use.
func (r *Registry) Open(ctx context.Context, id string) (*Session, error) {
	r.mu.Lock()
	now := r.clock.Now()
	expired := r.expireLocked(now)
	s, err := r.openLocked(ctx, id, now)
	r.mu.Unlock()

	for _, old := range expired {
		if cerr := old.Close(ctx); cerr != nil {
			log.Printf("Warning: closing idle session %s: %v", old.ID(), cerr)
		}
	}
	return s, err
}

func (r *Registry) openLocked(ctx context.Context, id string, now time.Time) (*Session, error) {
	if e, ok := r.sessions[id]; ok {
		e.lastUsed = now
		return e.sess, nil
	}
	story, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s := NewSession(story, r.store, r.opts...)
	r.sessions[id] = &entry{sess: s, lastUsed: now}
	return s, nil
}

// expireLocked forgets every session idle for longer than the timeout
// and returns them for closing.
func (r *Registry) expireLocked(now time.Time) []*Session {
	if r.idle <= 0 {
		return nil
	}
	var out []*Session
	for id, e := range r.sessions {
		if now.Sub(e.lastUsed) > r.idle {
			out = append(out, e.sess)
			delete(r.sessions, id)
		}
	}
	return out
}

// Lookup returns the session for id if one is open.
func (r *Registry) Lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastUsed = r.clock.Now()
	return e.sess, true
}

// Close saves and forgets the session for id.
func (r *Registry) Close(ctx context.Context, id string) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return e.sess.Close(ctx)
}

// Discard forgets the session for id without saving. It is used once the
// story itself has been deleted.
func (r *Registry) Discard(id string) {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		e.sess.stop()
	}
}

// CloseAll saves and closes every open session.
func (r *Registry) CloseAll(ctx context.Context) error {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for id, e := range r.sessions {
		all = append(all, e.sess)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	var errs []error
	for _, s := range all {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
