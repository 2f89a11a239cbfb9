package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/cerberus/internal/logging"
	"github.com/aretw0/cerberus/pkg/domain"
	"github.com/aretw0/cerberus/pkg/ports"
	"github.com/aretw0/cerberus/pkg/view"
)

// Session holds the ordered views, the active view id and the shared settings.
type Session struct {
	mu       sync.RWMutex
	views    []*view.View
	unsub    map[string]func()
	active   string
	settings domain.Settings

	obsMu     sync.Mutex
	observers []observerEntry
	nextObs   int

	locks  *Locks
	logger *slog.Logger
}

type observerEntry struct {
	id int
	fn domain.Observer
}

// Option configures the Session.
type Option func(*Session)

// WithSettings sets the initial settings.
func WithSettings(s domain.Settings) Option {
	return func(ss *Session) {
		ss.settings = s
	}
}

// WithLogger configures a logger for the Session.
func WithLogger(logger *slog.Logger) Option {
	return func(ss *Session) {
		ss.logger = logger
	}
}

// New creates an empty session with the default settings.
func New(opts ...Option) *Session {
	s := &Session{
		unsub:    make(map[string]func()),
		settings: domain.DefaultSettings(),
		locks:    NewLocks(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Locks returns the per-view lock set.
func (s *Session) Locks() *Locks { return s.locks }

// Add appends v and makes it the active view.
func (s *Session) Add(ctx context.Context, v *view.View) {
	s.mu.Lock()
	if _, ok := s.unsub[v.ID()]; ok {
		s.mu.Unlock()
		_ = s.Activate(ctx, v.ID())
		return
	}
	s.views = append(s.views, v)
	s.unsub[v.ID()] = v.Subscribe(s.forward)
	s.active = v.ID()
	s.mu.Unlock()

	s.logger.Debug("view added", "view_id", v.ID(), "title", v.Title())
	s.emit(ctx, domain.NewEvent(domain.EventViewAdded, v.ID()))
	s.emit(ctx, domain.NewEvent(domain.EventViewActivated, v.ID()))
}

// Remove destroys a view. If it was active, the previous view in order (or the
// next one) becomes active; with no views left there is no active view.
func (s *Session) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := slices.IndexFunc(s.views, func(v *view.View) bool { return v.ID() == id })
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrViewNotFound, id)
	}
	s.views = slices.Delete(s.views, idx, idx+1)
	if unsub := s.unsub[id]; unsub != nil {
		unsub()
	}
	delete(s.unsub, id)

	activated := ""
	if s.active == id {
		s.active = ""
		if len(s.views) > 0 {
			s.active = s.views[max(idx-1, 0)].ID()
			activated = s.active
		}
	}
	s.mu.Unlock()

	s.emit(ctx, domain.NewEvent(domain.EventViewRemoved, id))
	if activated != "" {
		s.emit(ctx, domain.NewEvent(domain.EventViewActivated, activated))
	}
	return nil
}

// Activate makes id the active view.
func (s *Session) Activate(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.unsub[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrViewNotFound, id)
	}
	s.active = id
	s.mu.Unlock()

	s.emit(ctx, domain.NewEvent(domain.EventViewActivated, id))
	return nil
}

// Active returns the active view or ErrNoActiveView.
func (s *Session) Active() (*view.View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == "" {
		return nil, domain.ErrNoActiveView
	}
	return s.lookup(s.active)
}

// Get returns the view with the given id.
func (s *Session) Get(id string) (*view.View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(id)
}

func (s *Session) lookup(id string) (*view.View, error) {
	for _, v := range s.views {
		if v.ID() == id {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrViewNotFound, id)
}

// Views returns the views in insertion order.
func (s *Session) Views() []*view.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.views)
}

// Settings returns a copy of the current settings.
func (s *Session) Settings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings applies fn to the settings. When an analysis-affecting field
// changes, every view is marked dirty.
func (s *Session) UpdateSettings(ctx context.Context, fn func(*domain.Settings)) domain.Settings {
	s.mu.Lock()
	before := s.settings
	fn(&s.settings)
	after := s.settings
	var stale []*view.View
	if before.Analysis() != after.Analysis() {
		stale = slices.Clone(s.views)
	}
	s.mu.Unlock()

	for _, v := range stale {
		v.MarkDirty(ctx)
	}
	if before != after {
		s.logger.Debug("settings updated",
			"model", after.Model,
			"rewrite", after.Rewrite,
			"sequentialise", after.Sequentialise,
			"auto_refresh", after.AutoRefresh,
		)
		s.emit(ctx, domain.NewEvent(domain.EventSettings, ""))
	}
	return after
}

// DisableAutoRefresh turns periodic refresh off. It reports whether it was on.
func (s *Session) DisableAutoRefresh(ctx context.Context) bool {
	var was bool
	s.UpdateSettings(ctx, func(st *domain.Settings) {
		was = st.AutoRefresh
		st.AutoRefresh = false
	})
	return was
}

// Save stores the active view's snapshot under name.
func (s *Session) Save(ctx context.Context, store ports.SnapshotStore, name string) error {
	v, err := s.Active()
	if err != nil {
		return err
	}
	snap := v.Snapshot(s.Settings().Analysis())
	if err := store.Save(ctx, name, snap); err != nil {
		return fmt.Errorf("failed to save session %q: %w", name, err)
	}
	return nil
}

// Restore loads the snapshot stored under name into a new active view.
// The snapshot's analysis settings, when present, replace the current ones.
func (s *Session) Restore(ctx context.Context, store ports.SnapshotStore, name string) (*view.View, error) {
	snap, err := store.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %q: %w", name, err)
	}
	return s.AddSnapshot(ctx, snap)
}

// AddSnapshot builds a view from snap, applies its settings and activates it.
func (s *Session) AddSnapshot(ctx context.Context, snap *domain.Snapshot) (*view.View, error) {
	var a domain.AnalysisSettings
	if snap.Settings != nil {
		m, err := domain.ParseModel(string(snap.Settings.Model))
		if err != nil {
			return nil, fmt.Errorf("invalid snapshot settings: %w", err)
		}
		a = *snap.Settings
		a.Model = m
	}
	v, err := view.Restore(snap)
	if err != nil {
		return nil, err
	}
	if snap.Settings != nil {
		s.UpdateSettings(ctx, func(st *domain.Settings) { *st = st.WithAnalysis(a) })
	}
	s.Add(ctx, v)
	return v, nil
}

// Subscribe registers an observer for view and session events.
func (s *Session) Subscribe(fn domain.Observer) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.nextObs++
	id := s.nextObs
	s.observers = append(s.observers, observerEntry{id: id, fn: fn})
	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		s.observers = slices.DeleteFunc(s.observers, func(o observerEntry) bool { return o.id == id })
	}
}

func (s *Session) forward(ctx context.Context, ev domain.Event) {
	s.emit(ctx, ev)
}

func (s *Session) emit(ctx context.Context, ev domain.Event) {
	s.obsMu.Lock()
	obs := slices.Clone(s.observers)
	s.obsMu.Unlock()
	for _, o := range obs {
		o.fn(ctx, ev)
	}
}
