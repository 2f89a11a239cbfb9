package session_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/cerberus/pkg/adapters/memory"
	"github.com/aretw0/cerberus/pkg/domain"
	"github.com/aretw0/cerberus/pkg/session"
	"github.com/aretw0/cerberus/pkg/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recorder) observe(_ context.Context, e domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func clean(t *testing.T, s *session.Session, v *view.View) {
	t.Helper()
	a := s.Settings().Analysis()
	v.ApplyElaboration(context.Background(), &domain.ElaborationResult{}, v.Key(a), a)
	require.False(t, v.Dirty())
}

func TestActive_EmptySession(t *testing.T) {
	s := session.New()
	_, err := s.Active()
	assert.ErrorIs(t, err, domain.ErrNoActiveView)
}

func TestAdd_ActivatesAndOrders(t *testing.T) {
	ctx := context.Background()
	s := session.New()
	a := view.New("a.c", "")
	b := view.New("b.c", "")
	s.Add(ctx, a)
	s.Add(ctx, b)

	active, err := s.Active()
	require.NoError(t, err)
	assert.Same(t, b, active)
	assert.Equal(t, []*view.View{a, b}, s.Views())

	require.NoError(t, s.Activate(ctx, a.ID()))
	active, _ = s.Active()
	assert.Same(t, a, active)

	assert.ErrorIs(t, s.Activate(ctx, "nope"), domain.ErrViewNotFound)
	_, err = s.Get("nope")
	assert.ErrorIs(t, err, domain.ErrViewNotFound)
}

func TestRemove_MovesActive(t *testing.T) {
	ctx := context.Background()
	s := session.New()
	a := view.New("a.c", "")
	b := view.New("b.c", "")
	s.Add(ctx, a)
	s.Add(ctx, b)

	require.NoError(t, s.Remove(ctx, b.ID()))
	active, err := s.Active()
	require.NoError(t, err)
	assert.Same(t, a, active)

	require.NoError(t, s.Remove(ctx, a.ID()))
	_, err = s.Active()
	assert.ErrorIs(t, err, domain.ErrNoActiveView)
	assert.ErrorIs(t, s.Remove(ctx, a.ID()), domain.ErrViewNotFound)
}

func TestUpdateSettings_AnalysisChangeMarksAllViewsDirty(t *testing.T) {
	ctx := context.Background()
	s := session.New()
	a := view.New("a.c", "")
	b := view.New("b.c", "")
	s.Add(ctx, a)
	s.Add(ctx, b)
	clean(t, s, a)
	clean(t, s, b)

	s.UpdateSettings(ctx, func(st *domain.Settings) { st.Colour = false })
	assert.False(t, a.Dirty())
	assert.False(t, b.Dirty())

	s.UpdateSettings(ctx, func(st *domain.Settings) { st.Model = st.Model.Toggle() })
	assert.True(t, a.Dirty())
	assert.True(t, b.Dirty())
	assert.Equal(t, domain.ModelSymbolic, s.Settings().Model)
}

func TestDisableAutoRefresh(t *testing.T) {
	ctx := context.Background()
	s := session.New()
	rec := &recorder{}
	s.Subscribe(rec.observe)

	assert.True(t, s.DisableAutoRefresh(ctx))
	assert.False(t, s.Settings().AutoRefresh)
	assert.False(t, s.DisableAutoRefresh(ctx))
	assert.Equal(t, []domain.EventType{domain.EventSettings}, rec.types())
}

func TestSubscribe_ForwardsViewEvents(t *testing.T) {
	ctx := context.Background()
	s := session.New()
	rec := &recorder{}
	unsubscribe := s.Subscribe(rec.observe)

	v := view.New("a.c", "x")
	s.Add(ctx, v)
	v.SetSource(ctx, "y")
	require.NoError(t, s.Remove(ctx, v.ID()))
	v.SetSource(ctx, "z")
	unsubscribe()
	s.Add(ctx, view.New("b.c", ""))

	assert.Equal(t, []domain.EventType{
		domain.EventViewAdded, domain.EventViewActivated,
		domain.EventDirty,
		domain.EventViewRemoved,
	}, rec.types())
}

func TestSaveRestore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	s := session.New()

	require.ErrorIs(t, s.Save(ctx, store, "empty"), domain.ErrNoActiveView)

	v := view.New("main.c", "int main(void) { return 0; }")
	s.Add(ctx, v)
	s.UpdateSettings(ctx, func(st *domain.Settings) { st.Rewrite = true })
	require.NoError(t, s.Save(ctx, store, "work"))

	other := session.New()
	restored, err := other.Restore(ctx, store, "work")
	require.NoError(t, err)
	assert.Equal(t, "main.c", restored.Title())
	assert.Equal(t, v.Source(), restored.Source())
	assert.True(t, other.Settings().Rewrite)

	active, err := other.Active()
	require.NoError(t, err)
	assert.Same(t, restored, active)

	_, err = other.Restore(ctx, store, "missing")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestAddSnapshot_RejectsMissingModel(t *testing.T) {
	ctx := context.Background()
	s := session.New()
	before := s.Settings()

	_, err := s.AddSnapshot(ctx, &domain.Snapshot{
		Title:    "a.c",
		Source:   "int x;",
		Settings: &domain.AnalysisSettings{Rewrite: true},
	})
	assert.ErrorIs(t, err, domain.ErrUnknownModel)
	assert.Equal(t, before, s.Settings())
	assert.Empty(t, s.Views())

	v, err := s.AddSnapshot(ctx, &domain.Snapshot{
		Title:    "a.c",
		Source:   "int x;",
		Settings: &domain.AnalysisSettings{Model: "Symbolic", Sequentialise: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "a.c", v.Title())
	assert.Equal(t, domain.ModelSymbolic, s.Settings().Model)
}

func TestLocks_Lifecycle(t *testing.T) {
	locks := session.NewLocks()
	ctx := context.Background()

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = locks.WithLock(ctx, "view", func(context.Context) error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
	assert.Equal(t, 0, locks.Len(), "entries must be released once unused")
}

func TestLocks_CancelledContext(t *testing.T) {
	locks := session.NewLocks()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := locks.WithLock(ctx, "view", func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.Equal(t, 0, locks.Len())
}
