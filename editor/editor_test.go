package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1rvyn/story-builder/models"
	"github.com/1rvyn/story-builder/store"
	"github.com/1rvyn/story-builder/storygraph"
)

// spyStore counts updates and can be made to fail.
type spyStore struct {
	*store.Memory
	mu      sync.Mutex
	updates int
	fail    error
}

func (s *spyStore) Update(ctx context.Context, id string, p store.Patch) (models.Story, error) {
	s.mu.Lock()
	s.updates++
	fail := s.fail
	s.mu.Unlock()
	if fail != nil {
		return models.Story{}, fail
	}
	return s.Memory.Update(ctx, id, p)
}

func (s *spyStore) setFail(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

func (s *spyStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

const waitFor = time.Second

type fixture struct {
	store *spyStore
	clock clockwork.FakeClock
	sess  *Session
}

func newFixture(t *testing.T, scenes int) fixture {
	t.Helper()
	st := &spyStore{Memory: store.NewMemory()}
	draft := store.Draft{Title: "Tale"}
	for i := 0; i < scenes; i++ {
		draft.Scenes = append(draft.Scenes, storygraph.NewScene())
	}
	story, err := st.Create(context.Background(), draft)
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	sess := NewSession(story, st, WithClock(clock))
	return fixture{store: st, clock: clock, sess: sess}
}

func (f fixture) sceneID(i int) string {
	return f.sess.Story().Scenes[i].ID
}

// pending counts the armed save and animation timers.
func (f fixture) pending() int {
	f.sess.mu.Lock()
	defer f.sess.mu.Unlock()
	n := len(f.sess.animTimers)
	if f.sess.saveTimer != nil {
		n++
	}
	return n
}

// saved waits for the auto-save, which runs on its own goroutine.
func (f fixture) saved(t *testing.T, want int) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return f.store.count() == want && !f.sess.Dirty()
	}, waitFor, time.Millisecond)
}

func TestAutoSaveDebounces(t *testing.T) {
	f := newFixture(t, 1)

	require.NoError(t, f.sess.SetTitle("One"))
	f.clock.Advance(1500 * time.Millisecond)
	require.NoError(t, f.sess.SetTitle("Two"))
	f.clock.Advance(1500 * time.Millisecond)
	assert.Zero(t, f.store.count(), "second edit restarts the delay")
	assert.True(t, f.sess.Dirty())

	f.clock.Advance(500 * time.Millisecond)
	f.saved(t, 1)

	saved, err := f.store.Get(context.Background(), f.sess.ID())
	require.NoError(t, err)
	assert.Equal(t, "Two", saved.Title)
}

func TestAutoSaveFailureStaysDirty(t *testing.T) {
	f := newFixture(t, 1)
	f.store.setFail(errors.New("disk full"))

	_, err := f.sess.AddScene()
	require.NoError(t, err)
	f.clock.Advance(DefaultSaveDelay)
	assert.Eventually(t, func() bool { return f.sess.LastSaveError() != nil }, waitFor, time.Millisecond)
	assert.True(t, f.sess.Dirty())
	assert.EqualError(t, f.sess.LastSaveError(), "disk full")

	f.store.setFail(nil)
	require.NoError(t, f.sess.Save(context.Background()))
	assert.False(t, f.sess.Dirty())
	assert.NoError(t, f.sess.LastSaveError())
}

func TestSaveWithoutEditsIsNoop(t *testing.T) {
	f := newFixture(t, 1)
	require.NoError(t, f.sess.Save(context.Background()))
	assert.Zero(t, f.store.count())
}

func TestAddSceneSelectsIt(t *testing.T) {
	f := newFixture(t, 2)
	added, err := f.sess.AddScene()
	require.NoError(t, err)
	assert.Equal(t, 2, f.sess.Current())
	assert.Equal(t, added.ID, f.sess.CurrentScene().ID)
}

func TestConcurrentAddSceneSelection(t *testing.T) {
	f := newFixture(t, 1)

	const adds = 20
	var wg sync.WaitGroup
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.sess.AddScene()
			assert.NoError(t, err)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < adds; i++ {
			_ = f.sess.SelectScene(0)
		}
	}()
	wg.Wait()

	story := f.sess.Story()
	require.Len(t, story.Scenes, adds+1)
	current := f.sess.Current()
	assert.True(t, current == 0 || current == adds, "selection is the first scene or the last one added, got %d", current)
}

func TestDeleteSceneSelection(t *testing.T) {
	tests := []struct {
		name             string
		current, deleted int
		want             int
	}{
		{"delete before current", 2, 0, 1},
		{"delete current", 2, 2, 1},
		{"delete after current", 0, 2, 0},
		{"delete first while on first", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 3)
			require.NoError(t, f.sess.SelectScene(tt.current))
			require.NoError(t, f.sess.DeleteScene(tt.deleted))
			assert.Equal(t, tt.want, f.sess.Current())
		})
	}
}

func TestDeleteLastSceneRejected(t *testing.T) {
	f := newFixture(t, 1)
	assert.ErrorIs(t, f.sess.DeleteScene(0), storygraph.ErrLastScene)
	assert.False(t, f.sess.Dirty())
	assert.Zero(t, f.pending())
}

func TestReorderSelectionFollowsScene(t *testing.T) {
	tests := []struct {
		name              string
		current, from, to int
		want              int
	}{
		{"moved scene", 1, 1, 3, 3},
		{"shift left", 2, 0, 3, 1},
		{"shift right", 1, 3, 0, 2},
		{"untouched", 0, 2, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 4)
			before := f.sess.Story().Scenes[tt.current].ID
			require.NoError(t, f.sess.SelectScene(tt.current))
			require.NoError(t, f.sess.ReorderScene(tt.from, tt.to))
			assert.Equal(t, tt.want, f.sess.Current())
			assert.Equal(t, before, f.sess.CurrentScene().ID)
		})
	}
}

func TestSelectSceneRange(t *testing.T) {
	f := newFixture(t, 2)
	assert.ErrorIs(t, f.sess.SelectScene(2), storygraph.ErrIndexOutOfRange)
	assert.ErrorIs(t, f.sess.SelectScene(-1), storygraph.ErrIndexOutOfRange)
}

func TestDecisionEdits(t *testing.T) {
	f := newFixture(t, 2)
	a, b := f.sceneID(0), f.sceneID(1)

	d, err := f.sess.AddDecision(a, "  Enter the cave ")
	require.NoError(t, err)
	assert.Equal(t, "Enter the cave", d.Text)
	assert.Nil(t, d.TargetSceneID)

	require.NoError(t, f.sess.UpdateDecision(a, d.ID, storygraph.DecisionPatch{TargetSceneID: &b}))
	got := f.sess.Story().Scenes[0].Decisions[0]
	assert.Equal(t, b, *got.TargetSceneID)

	for i := 0; i < 2; i++ {
		_, err = f.sess.AddDecision(a, "more")
		require.NoError(t, err)
	}
	_, err = f.sess.AddDecision(a, "one too many")
	assert.ErrorIs(t, err, storygraph.ErrDecisionLimit)

	require.NoError(t, f.sess.RemoveDecision(a, d.ID))
	assert.Len(t, f.sess.Story().Scenes[0].Decisions, 2)

	_, err = f.sess.AddDecision("nope", "x")
	assert.ErrorIs(t, err, storygraph.ErrNotFound)
}

func TestAssetEditsAndAnimation(t *testing.T) {
	f := newFixture(t, 1)
	a := f.sceneID(0)
	knight := models.AssetSummary{ID: "1", Type: models.AssetCharacter}

	placed, err := f.sess.PlaceAsset(a, knight, models.Position{X: 148, Y: 148}, models.Bounds{Width: 800, Height: 600})
	require.NoError(t, err)
	assert.Equal(t, models.Position{X: 100, Y: 100}, placed.Position)

	require.NoError(t, f.sess.MoveAsset(a, placed.ID, models.Position{X: 5, Y: 6}))
	f.clock.Advance(DefaultSaveDelay)
	f.saved(t, 1)

	require.NoError(t, f.sess.AnimateAsset(a, placed.ID, "jump"))
	assert.Equal(t, map[string]string{placed.ID: "jump"}, f.sess.Animations())
	assert.Empty(t, f.sess.Story().Scenes[0].Assets[0].Animation, "tags stay out of the story")
	assert.False(t, f.sess.Dirty(), "animation is not an edit")

	f.clock.Advance(DefaultAnimationDuration)
	assert.Eventually(t, func() bool { return len(f.sess.Animations()) == 0 }, waitFor, time.Millisecond)
	assert.Equal(t, 1, f.store.count())

	assert.ErrorIs(t, f.sess.AnimateAsset(a, "ghost", "jump"), storygraph.ErrNotFound)

	require.NoError(t, f.sess.AnimateAsset(a, placed.ID, "wave"))
	require.NoError(t, f.sess.DeleteAsset(a, placed.ID))
	assert.Empty(t, f.sess.Animations())
	assert.Equal(t, 1, f.pending(), "only the auto-save timer is left")
	assert.Empty(t, f.sess.Story().Scenes[0].Assets)
}

func TestAnimationRestartExtendsTag(t *testing.T) {
	f := newFixture(t, 1)
	a := f.sceneID(0)
	placed, err := f.sess.PlaceAsset(a, models.AssetSummary{ID: "2", Type: models.AssetProp}, models.Position{}, models.Bounds{Width: 500, Height: 500})
	require.NoError(t, err)

	require.NoError(t, f.sess.AnimateAsset(a, placed.ID, "sparkle"))
	f.clock.Advance(600 * time.Millisecond)
	require.NoError(t, f.sess.AnimateAsset(a, placed.ID, "sparkle"))
	f.clock.Advance(600 * time.Millisecond)
	assert.Equal(t, "sparkle", f.sess.Animations()[placed.ID])
	f.clock.Advance(400 * time.Millisecond)
	assert.Eventually(t, func() bool { return len(f.sess.Animations()) == 0 }, waitFor, time.Millisecond)

	require.NoError(t, f.sess.AnimateAsset(a, placed.ID, "bounce"))
	require.NoError(t, f.sess.AnimateAsset(a, placed.ID, ""))
	assert.Empty(t, f.sess.Animations())
}

func TestBackgroundAndAudio(t *testing.T) {
	f := newFixture(t, 1)
	a := f.sceneID(0)
	bg, clip := "castle.jpg", "/api/audio/x"

	require.NoError(t, f.sess.SetBackground(a, &bg))
	require.NoError(t, f.sess.SetAudio(a, &clip))
	sc := f.sess.Story().Scenes[0]
	assert.Equal(t, bg, *sc.Background)
	assert.Equal(t, clip, *sc.AudioURL)

	require.NoError(t, f.sess.SetAudio(a, nil))
	assert.Nil(t, f.sess.Story().Scenes[0].AudioURL)
}

func TestSetTheme(t *testing.T) {
	f := newFixture(t, 1)
	require.NoError(t, f.sess.SetTheme(models.ThemeSpace))
	assert.Equal(t, models.ThemeSpace, f.sess.Story().Theme)
	assert.Error(t, f.sess.SetTheme("jungle"))
}

func TestCloseFlushesAndRejectsEdits(t *testing.T) {
	f := newFixture(t, 1)
	require.NoError(t, f.sess.SetTitle("Final"))

	require.NoError(t, f.sess.Close(context.Background()))
	assert.Equal(t, 1, f.store.count())
	assert.Zero(t, f.pending())
	assert.ErrorIs(t, f.sess.SetTitle("Later"), ErrSessionClosed)
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	story, err := st.Create(ctx, store.Draft{Title: "Open me"})
	require.NoError(t, err)

	reg := NewRegistry(st, WithRegistryClock(clockwork.NewFakeClock()))

	s1, err := reg.Open(ctx, story.ID)
	require.NoError(t, err)
	s2, err := reg.Open(ctx, story.ID)
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	got, ok := reg.Lookup(story.ID)
	assert.True(t, ok)
	assert.Same(t, s1, got)

	_, err = reg.Open(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s1.SetTitle("Edited"))
	reg.Discard(story.ID)
	assert.Zero(t, reg.Len())
	s1.mu.Lock()
	assert.Nil(t, s1.saveTimer)
	s1.mu.Unlock()
	saved, err := st.Get(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, "Open me", saved.Title, "discard never saves")

	s3, err := reg.Open(ctx, story.ID)
	require.NoError(t, err)
	require.NoError(t, s3.SetTitle("Kept"))
	require.NoError(t, reg.CloseAll(ctx))
	saved, err = st.Get(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kept", saved.Title)
	assert.Zero(t, reg.Len())
}

func TestRegistryClosesIdleSessions(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	stale, err := st.Create(ctx, store.Draft{Title: "Stale"})
	require.NoError(t, err)
	fresh, err := st.Create(ctx, store.Draft{Title: "Fresh"})
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	reg := NewRegistry(st,
		WithRegistryClock(clock),
		WithIdleTimeout(time.Minute),
		WithSessionOptions(WithSaveDelay(time.Hour)),
	)

	old, err := reg.Open(ctx, stale.ID)
	require.NoError(t, err)
	require.NoError(t, old.SetTitle("Unsaved"))

	clock.Advance(2 * time.Minute)
	_, err = reg.Open(ctx, fresh.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, reg.Len())
	_, ok := reg.Lookup(stale.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, old.SetTitle("Later"), ErrSessionClosed)

	saved, err := st.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, "Unsaved", saved.Title, "idle sessions are saved before they are dropped")

	reopened, err := reg.Open(ctx, stale.ID)
	require.NoError(t, err)
	assert.NotSame(t, old, reopened)
}

func TestRegistryLookupKeepsSessionAlive(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	a, err := st.Create(ctx, store.Draft{Title: "A"})
	require.NoError(t, err)
	b, err := st.Create(ctx, store.Draft{Title: "B"})
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	reg := NewRegistry(st, WithRegistryClock(clock), WithIdleTimeout(time.Minute))
	sess, err := reg.Open(ctx, a.ID)
	require.NoError(t, err)

	clock.Advance(50 * time.Second)
	_, ok := reg.Lookup(a.ID)
	require.True(t, ok)
	clock.Advance(50 * time.Second)

	_, err = reg.Open(ctx, b.ID)
	require.NoError(t, err)
	got, ok := reg.Lookup(a.ID)
	assert.True(t, ok)
	assert.Same(t, sess, got)
}
