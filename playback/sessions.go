package playback

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/1rvyn/story-builder/models"
)

// DefaultIdleTimeout is how long a session may go unused before it is
// ended.
const DefaultIdleTimeout = 30 * time.Minute

var ErrSessionNotFound = errors.New("playback session not found")

type SessionsOption func(*Sessions)

// WithPlayerOptions applies opts to every player, before any options
// passed to Start.
func WithPlayerOptions(opts ...Option) SessionsOption {
	return func(s *Sessions) { s.opts = append(s.opts, opts...) }
}

// WithIdleTimeout overrides DefaultIdleTimeout. Zero keeps sessions until
// they are ended.
func WithIdleTimeout(d time.Duration) SessionsOption {
	return func(s *Sessions) { s.idle = d }
}

// WithSessionsClock sets the clock used for idle expiry and by every
// player's reveal timer.
func WithSessionsClock(c clockwork.Clock) SessionsOption {
	return func(s *Sessions) {
		s.clock = c
		s.opts = append(s.opts, WithClock(c))
	}
}

type session struct {
	player   *Player
	lastUsed time.Time
}

// Sessions keeps the players started over HTTP, keyed by session id.
// Sessions left idle are ended on the next Start or Get.
type Sessions struct {
	mu      sync.Mutex
	players map[string]*session
	opts    []Option
	clock   clockwork.Clock
	idle    time.Duration
}

func NewSessions(opts ...SessionsOption) *Sessions {
	s := &Sessions{
		players: make(map[string]*session),
		clock:   clockwork.NewRealClock(),
		idle:    DefaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates a player for story and returns its session id.
func (s *Sessions) Start(story models.Story, opts ...Option) (string, *Player, error) {
	all := append(append([]Option{}, s.opts...), opts...)
	p, err := NewPlayer(story, all...)
	if err != nil {
		return "", nil, err
	}
	id := uuid.NewString()

	s.mu.Lock()
	now := s.clock.Now()
	expired := s.expireLocked(now)
	s.players[id] = &session{player: p, lastUsed: now}
	s.mu.Unlock()

	closeAll(expired)
	return id, p, nil
}

func (s *Sessions) Get(id string) (*Player, error) {
	s.mu.Lock()
	now := s.clock.Now()
	expired := s.expireLocked(now)
	sess, ok := s.players[id]
	if ok {
		sess.lastUsed = now
	}
	s.mu.Unlock()

	closeAll(expired)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess.player, nil
}

// End closes and forgets the session. Unknown ids are ignored.
func (s *Sessions) End(id string) {
	s.mu.Lock()
	sess, ok := s.players[id]
	delete(s.players, id)
	s.mu.Unlock()
	if ok {
		sess.player.Close()
	}
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

func (s *Sessions) expireLocked(now time.Time) []*Player {
	if s.idle <= 0 {
		return nil
	}
	var out []*Player
	for id, sess := range s.players {
		if now.Sub(sess.lastUsed) > s.idle {
			out = append(out, sess.player)
			delete(s.players, id)
		}
	}
	return out
}

func closeAll(players []*Player) {
	for _, p := range players {
		p.Close()
	}
}
