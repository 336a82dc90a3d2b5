// Package playback walks a story's scene graph.
//
// A Player holds the playback state for one story: the current scene
// index, whether the current scene's decisions are shown, and the history of
// decision jumps used by GoBack. Entering a scene with decisions arms a
// reveal timer; any later transition cancels it, so decisions are never
// revealed for a scene the reader has already left.
package playback

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/1rvyn/story-builder/models"
	"github.com/1rvyn/story-builder/storygraph"
)

// DefaultRevealDelay is how long a branching scene is shown before its
// decisions appear on their own.
const DefaultRevealDelay = 2 * time.Second

var (
	// ErrDanglingDecision is a warning: the decision has no target yet.
	// Playback state is unchanged.
	ErrDanglingDecision = errors.New("this decision path is not connected yet")

	// ErrUnresolvableTarget means the decision points at a scene id that is
	// not in the story. Playback state is unchanged.
	ErrUnresolvableTarget = errors.New("target scene not found")

	ErrDecisionNotFound = errors.New("decision is not on the current scene")
	ErrEmptyStory       = errors.New("story has no scenes")
	ErrIndexOutOfRange  = errors.New("start index out of range")
)

// HistoryEntry records a decision jump.
type HistoryEntry struct {
	SceneIndex   int    `json:"sceneIndex"`
	DecisionText string `json:"decisionText"`
}

// State is a snapshot of the player.
type State struct {
	SceneIndex       int            `json:"sceneIndex"`
	DecisionsVisible bool           `json:"decisionsVisible"`
	History          []HistoryEntry `json:"history"`
}

// Option configures a Player.
type Option func(*Player) error

// WithClock replaces the real clock behind the reveal timer.
func WithClock(c clockwork.Clock) Option {
	return func(p *Player) error {
		p.clock = c
		return nil
	}
}

// WithRevealDelay overrides DefaultRevealDelay.
func WithRevealDelay(d time.Duration) Option {
	return func(p *Player) error {
		p.delay = d
		return nil
	}
}

// WithStartIndex starts playback at scene i instead of the first scene.
func WithStartIndex(i int) Option {
	return func(p *Player) error {
		if i < 0 || i >= len(p.story.Scenes) {
			return ErrIndexOutOfRange
		}
		p.state.SceneIndex = i
		return nil
	}
}

// OnChange registers a callback run after every transition, including
// timer reveals. It is called without the player lock held.
func OnChange(fn func(State)) Option {
	return func(p *Player) error {
		p.onChange = fn
		return nil
	}
}

type Player struct {
	mu       sync.Mutex
	story    models.Story
	state    State
	clock    clockwork.Clock
	delay    time.Duration
	reveal   clockwork.Timer
	gen      uint64
	onChange func(State)
	closed   bool
}

// NewPlayer starts playback of story and enters the starting scene.
func NewPlayer(story models.Story, opts ...Option) (*Player, error) {
	if len(story.Scenes) == 0 {
		return nil, ErrEmptyStory
	}
	p := &Player{
		story: storygraph.CloneStory(story),
		clock: clockwork.NewRealClock(),
		delay: DefaultRevealDelay,
		state: State{History: []HistoryEntry{}},
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	p.mu.Lock()
	p.enterLocked(p.state.SceneIndex)
	p.mu.Unlock()
	return p, nil
}

// State returns a copy of the current state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Story returns the story being played.
func (p *Player) Story() models.Story {
	p.mu.Lock()
	defer p.mu.Unlock()
	return storygraph.CloneStory(p.story)
}

// CurrentScene returns the scene at the current index. Narration is never
// started here; playing CurrentScene().AudioURL is up to the caller.
func (p *Player) CurrentScene() models.Scene {
	p.mu.Lock()
	defer p.mu.Unlock()
	return storygraph.CloneScene(p.story.Scenes[p.state.SceneIndex])
}

// Reveal shows the current scene's decisions right away. It reports false
// when there is nothing to reveal.
func (p *Player) Reveal() bool {
	p.mu.Lock()
	scene := p.story.Scenes[p.state.SceneIndex]
	if !scene.HasDecisions() || p.state.DecisionsVisible {
		p.mu.Unlock()
		return false
	}
	p.stopRevealLocked()
	p.state.DecisionsVisible = true
	p.mu.Unlock()

	p.notify()
	return true
}

// Select follows the decision with id on the current scene. An id that
// is not on the current scene returns ErrDecisionNotFound. A decision
// without a target returns ErrDanglingDecision and one whose target is
// missing returns ErrUnresolvableTarget; in every case nothing changes.
func (p *Player) Select(decisionID string) error {
	p.mu.Lock()
	err := p.selectLocked(decisionID)
	p.mu.Unlock()
	if err != nil {
		return err
	}

	p.notify()
	return nil
}

// SelectDecision follows d, which must be on the current scene. The
// current scene's copy of the decision is followed.
func (p *Player) SelectDecision(d models.Decision) error {
	return p.Select(d.ID)
}

func (p *Player) selectLocked(decisionID string) error {
	var chosen *models.Decision
	for _, d := range p.story.Scenes[p.state.SceneIndex].Decisions {
		if d.ID == decisionID {
			d := d
			chosen = &d
			break
		}
	}
	if chosen == nil {
		return ErrDecisionNotFound
	}
	if chosen.TargetSceneID == nil {
		return ErrDanglingDecision
	}
	target := storygraph.SceneIndex(p.story, *chosen.TargetSceneID)
	if target < 0 {
		return ErrUnresolvableTarget
	}
	p.state.History = append(p.state.History, HistoryEntry{
		SceneIndex:   p.state.SceneIndex,
		DecisionText: chosen.Text,
	})
	p.enterLocked(target)
	return nil
}

// Next advances linearly. It does nothing on branching scenes and on the
// last scene.
func (p *Player) Next() bool {
	p.mu.Lock()
	if !p.canNextLocked() {
		p.mu.Unlock()
		return false
	}
	p.enterLocked(p.state.SceneIndex + 1)
	p.mu.Unlock()

	p.notify()
	return true
}

// Previous steps back one position. It does nothing on the first scene.
func (p *Player) Previous() bool {
	p.mu.Lock()
	if p.state.SceneIndex == 0 {
		p.mu.Unlock()
		return false
	}
	p.enterLocked(p.state.SceneIndex - 1)
	p.mu.Unlock()

	p.notify()
	return true
}

// GoBack undoes the most recent decision jump.
func (p *Player) GoBack() bool {
	p.mu.Lock()
	n := len(p.state.History)
	if n == 0 {
		p.mu.Unlock()
		return false
	}
	last := p.state.History[n-1]
	p.state.History = p.state.History[:n-1]
	p.enterLocked(last.SceneIndex)
	p.mu.Unlock()

	p.notify()
	return true
}

// Back is the reader's back button: it undoes a decision jump when there
// is one and otherwise steps back one position.
func (p *Player) Back() bool {
	if p.CanGoBack() {
		return p.GoBack()
	}
	return p.Previous()
}

// Restart returns to the first scene and forgets the history.
func (p *Player) Restart() {
	p.mu.Lock()
	p.state.History = []HistoryEntry{}
	p.enterLocked(0)
	p.mu.Unlock()

	p.notify()
}

func (p *Player) CanNext() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.canNextLocked()
}

func (p *Player) CanPrevious() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.SceneIndex > 0
}

func (p *Player) CanGoBack() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.state.History) > 0
}

// IsLast reports whether the current scene is the final one in order.
func (p *Player) IsLast() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.SceneIndex == len(p.story.Scenes)-1
}

// Close cancels any pending reveal. The player must not be used after.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopRevealLocked()
	p.closed = true
}

func (p *Player) canNextLocked() bool {
	if p.story.Scenes[p.state.SceneIndex].HasDecisions() {
		return false
	}
	return p.state.SceneIndex < len(p.story.Scenes)-1
}

// enterLocked moves to scene i, hides decisions and re-arms the reveal
// timer for the new scene.
func (p *Player) enterLocked(i int) {
	p.stopRevealLocked()
	p.state.SceneIndex = i
	p.state.DecisionsVisible = false
	p.gen++

	if p.closed || !p.story.Scenes[i].HasDecisions() {
		return
	}
	gen := p.gen
	p.reveal = p.clock.AfterFunc(p.delay, func() { p.fireReveal(gen) })
}

func (p *Player) fireReveal(gen uint64) {
	p.mu.Lock()
	if gen != p.gen || p.closed || p.state.DecisionsVisible {
		p.mu.Unlock()
		return
	}
	p.reveal = nil
	p.state.DecisionsVisible = true
	p.mu.Unlock()

	p.notify()
}

func (p *Player) stopRevealLocked() {
	if p.reveal != nil {
		p.reveal.Stop()
		p.reveal = nil
	}
}

func (p *Player) snapshotLocked() State {
	h := make([]HistoryEntry, len(p.state.History))
	copy(h, p.state.History)
	return State{
		SceneIndex:       p.state.SceneIndex,
		DecisionsVisible: p.state.DecisionsVisible,
		History:          h,
	}
}

func (p *Player) notify() {
	if p.onChange == nil {
		return
	}
	p.onChange(p.State())
}
