// Package editor keeps the working copy of each story being edited.
//
// A Session applies storygraph helpers to one in-memory story, tracks the
// selected scene, and writes the story back to the store a short while
// after the last edit. Animation tags are kept beside the story, keyed by
// placed-asset id, and clear on their own once the animation has played.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/1rvyn/story-builder/models"
	"github.com/1rvyn/story-builder/store"
	"github.com/1rvyn/story-builder/storygraph"
)

const (
	DefaultSaveDelay         = 2 * time.Second
	DefaultAnimationDuration = time.Second
)

var ErrSessionClosed = errors.New("editing session is closed")

type Option func(*Session)

// WithClock replaces the real clock behind the save and animation timers.
func WithClock(c clockwork.Clock) Option {
	return func(sess *Session) { sess.clock = c }
}

// WithSaveDelay sets how long after the last edit the story is saved.
func WithSaveDelay(d time.Duration) Option {
	return func(sess *Session) { sess.saveDelay = d }
}

// WithAnimationDuration sets how long an animation tag stays on an asset.
func WithAnimationDuration(d time.Duration) Option {
	return func(sess *Session) { sess.animDuration = d }
}

type Session struct {
	mu           sync.Mutex
	saveMu       sync.Mutex
	store        store.Store
	clock        clockwork.Clock
	saveDelay    time.Duration
	animDuration time.Duration

	story      models.Story
	current    int
	version    uint64
	saved      uint64
	saveTimer  clockwork.Timer
	anims      map[string]string
	animTimers map[string]clockwork.Timer
	lastErr    error
	closed     bool
}

// NewSession starts editing story. Edits are written to st.
func NewSession(story models.Story, st store.Store, opts ...Option) *Session {
	s := &Session{
		store:        st,
		clock:        clockwork.NewRealClock(),
		saveDelay:    DefaultSaveDelay,
		animDuration: DefaultAnimationDuration,
		story:        storygraph.CloneStory(story),
		anims:        make(map[string]string),
		animTimers:   make(map[string]clockwork.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.story.ID
}

// Story returns a copy of the working story, unsaved edits included.
func (s *Session) Story() models.Story {
	s.mu.Lock()
	defer s.mu.Unlock()
	return storygraph.CloneStory(s.story)
}

// Current returns the index of the selected scene.
func (s *Session) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) CurrentScene() models.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return storygraph.CloneScene(s.story.Scenes[s.current])
}

// Dirty reports whether there are edits not yet written to the store.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version != s.saved
}

// LastSaveError returns the error of the most recent save, or nil once a
// later save has succeeded.
func (s *Session) LastSaveError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// SelectScene changes the selected scene.
func (s *Session) SelectScene(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if index < 0 || index >= len(s.story.Scenes) {
		return storygraph.ErrIndexOutOfRange
	}
	s.current = index
	return nil
}

func (s *Session) SetTitle(title string) error {
	return s.edit(func(st models.Story) (models.Story, error) {
		title = strings.TrimSpace(title)
		if title == "" {
			title = storygraph.DefaultTitle
		}
		st.Title = title
		return st, nil
	})
}

func (s *Session) SetTheme(theme models.Theme) error {
	return s.edit(func(st models.Story) (models.Story, error) {
		if !theme.Valid() {
			return st, fmt.Errorf("unknown theme %q", theme)
		}
		st.Theme = theme
		return st, nil
	})
}

// AddScene appends an empty scene and selects it.
func (s *Session) AddScene() (models.Scene, error) {
	var added models.Scene
	err := s.edit(func(st models.Story) (models.Story, error) {
		st = storygraph.AddScene(st)
		added = st.Scenes[len(st.Scenes)-1]
		s.current = len(st.Scenes) - 1
		return st, nil
	})
	if err != nil {
		return models.Scene{}, err
	}
	return added, nil
}

// DeleteScene removes the scene at index and keeps the selection on the
// same scene where it still exists.
func (s *Session) DeleteScene(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	next, err := storygraph.DeleteScene(s.story, index)
	if err != nil {
		return err
	}
	if s.current >= index && s.current > 0 {
		s.current--
	}
	s.commitLocked(next)
	return nil
}

// ReorderScene moves a scene. The selection follows the scene it was on.
func (s *Session) ReorderScene(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	next, err := storygraph.ReorderScene(s.story, from, to)
	if err != nil {
		return err
	}
	switch {
	case s.current == from:
		s.current = to
	case from < s.current && s.current <= to:
		s.current--
	case to <= s.current && s.current < from:
		s.current++
	}
	s.commitLocked(next)
	return nil
}

func (s *Session) AddDecision(sceneID, text string) (models.Decision, error) {
	var added models.Decision
	err := s.editScene(sceneID, func(sc models.Scene) (models.Scene, error) {
		sc, err := storygraph.AddDecision(sc, text)
		if err != nil {
			return sc, err
		}
		added = sc.Decisions[len(sc.Decisions)-1]
		return sc, nil
	})
	return added, err
}

func (s *Session) UpdateDecision(sceneID, decisionID string, patch storygraph.DecisionPatch) error {
	return s.editScene(sceneID, func(sc models.Scene) (models.Scene, error) {
		return storygraph.UpdateDecision(sc, decisionID, patch)
	})
}

func (s *Session) RemoveDecision(sceneID, decisionID string) error {
	return s.editScene(sceneID, func(sc models.Scene) (models.Scene, error) {
		return storygraph.RemoveDecision(sc, decisionID), nil
	})
}

// PlaceAsset drops asset onto the scene with its footprint centred on
// pointer.
func (s *Session) PlaceAsset(sceneID string, asset models.AssetSummary, pointer models.Position, canvas models.Bounds) (models.PlacedAsset, error) {
	var placed models.PlacedAsset
	err := s.editScene(sceneID, func(sc models.Scene) (models.Scene, error) {
		sc = storygraph.PlaceAsset(sc, asset, storygraph.CenterOnPointer(pointer), canvas)
		placed = sc.Assets[len(sc.Assets)-1]
		return sc, nil
	})
	return placed, err
}

func (s *Session) MoveAsset(sceneID, assetID string, pos models.Position) error {
	return s.editScene(sceneID, func(sc models.Scene) (models.Scene, error) {
		return storygraph.MoveAsset(sc, assetID, pos)
	})
}

func (s *Session) DeleteAsset(sceneID, assetID string) error {
	s.stopAnimation(assetID)
	return s.editScene(sceneID, func(sc models.Scene) (models.Scene, error) {
		return storygraph.DeleteAsset(sc, assetID), nil
	})
}

func (s *Session) SetBackground(sceneID string, ref *string) error {
	return s.editScene(sceneID, func(sc models.Scene) (models.Scene, error) {
		return storygraph.SetBackground(sc, ref), nil
	})
}

func (s *Session) SetAudio(sceneID string, url *string) error {
	return s.editScene(sceneID, func(sc models.Scene) (models.Scene, error) {
		return storygraph.SetAudio(sc, url), nil
	})
}

// AnimateAsset tags the asset with an animation for the animation
// duration. The tag is not an edit: it never marks the story dirty and is
// never saved. An empty tag clears it.
func (s *Session) AnimateAsset(sceneID, assetID, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	scene, _, err := storygraph.FindScene(s.story, sceneID)
	if err != nil {
		return err
	}
	if !hasAsset(scene, assetID) {
		return &storygraph.NotFoundError{Kind: "asset", ID: assetID}
	}

	s.clearAnimationLocked(assetID)
	if tag == "" {
		return nil
	}
	s.anims[assetID] = tag
	var timer clockwork.Timer
	timer = s.clock.AfterFunc(s.animDuration, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.animTimers[assetID] != timer {
			return
		}
		delete(s.animTimers, assetID)
		delete(s.anims, assetID)
	})
	s.animTimers[assetID] = timer
	return nil
}

// Animations returns the running animation tag of each placed asset.
func (s *Session) Animations() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.anims))
	for id, tag := range s.anims {
		out[id] = tag
	}
	return out
}

// Save writes pending edits now.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	s.mu.Unlock()
	return s.flush(ctx)
}

// Close saves pending edits and stops all timers.
func (s *Session) Close(ctx context.Context) error {
	err := s.Save(ctx)
	s.stop()
	return err
}

// stop cancels timers without saving.
func (s *Session) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	for id := range s.animTimers {
		s.clearAnimationLocked(id)
	}
}

func (s *Session) edit(fn func(models.Story) (models.Story, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	next, err := fn(storygraph.CloneStory(s.story))
	if err != nil {
		return err
	}
	s.commitLocked(next)
	return nil
}

func (s *Session) editScene(sceneID string, fn func(models.Scene) (models.Scene, error)) error {
	return s.edit(func(st models.Story) (models.Story, error) {
		scene, idx, err := storygraph.FindScene(st, sceneID)
		if err != nil {
			return st, err
		}
		scene, err = fn(scene)
		if err != nil {
			return st, err
		}
		return storygraph.ReplaceScene(st, idx, scene)
	})
}

func (s *Session) clearAnimationLocked(assetID string) {
	if t, ok := s.animTimers[assetID]; ok {
		t.Stop()
		delete(s.animTimers, assetID)
	}
	delete(s.anims, assetID)
}

func (s *Session) stopAnimation(assetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearAnimationLocked(assetID)
}

func hasAsset(scene models.Scene, assetID string) bool {
	for _, a := range scene.Assets {
		if a.ID == assetID {
			return true
		}
	}
	return false
}

// commitLocked installs next as the working story and re-arms auto-save.
func (s *Session) commitLocked(next models.Story) {
	s.story = next
	s.version++
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	var timer clockwork.Timer
	timer = s.clock.AfterFunc(s.saveDelay, func() {
		s.mu.Lock()
		if s.saveTimer == timer {
			s.saveTimer = nil
		}
		s.mu.Unlock()
		s.autoSave()
	})
	s.saveTimer = timer
}

func (s *Session) autoSave() {

	if err := s.flush(context.Background()); err != nil {
		log.Printf("Auto-save failed for story %s: %v", s.ID(), err)
	}
}

func (s *Session) flush(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if s.version == s.saved {
		s.mu.Unlock()
		return nil
	}
	snapshot := storygraph.CloneStory(s.story)
	version := s.version
	s.mu.Unlock()

	saved, err := s.store.Update(ctx, snapshot.ID, store.Patch{
		Title:  &snapshot.Title,
		Theme:  &snapshot.Theme,
		Scenes: snapshot.Scenes,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		return fmt.Errorf("save story %s: %w", snapshot.ID, err)
	}
	s.lastErr = nil
	s.saved = version
	s.story.UpdatedAt = saved.UpdatedAt
	return nil
}
