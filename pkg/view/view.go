package view

import (
	"context"
	"sync"

	"github.com/aretw0/cerberus/pkg/domain"
	"github.com/aretw0/cerberus/pkg/steptree"
	"github.com/google/uuid"
)

// View owns one editable document and its cached analysis state.
// Safe for concurrent use; observers are called outside the lock.
type View struct {
	id string

	mu            sync.Mutex
	title         string
	source        string
	lastResult    *domain.ElaborationResult
	resultKey     domain.AnalysisKey
	lastExecution *domain.ExecutionResult
	lastStep      *domain.InteractiveState
	dirty         bool
	interactive   *steptree.Tree
	activeTab     domain.Tab
	pending       map[int]bool

	observers []observerEntry
	nextObs   int
}

type observerEntry struct {
	id int
	fn domain.Observer
}

// New creates a view. A new view is dirty: nothing has been computed for it yet.
func New(title, source string) *View {
	return &View{
		id:        uuid.NewString(),
		title:     title,
		source:    source,
		dirty:     true,
		activeTab: domain.TabSource,
		pending:   make(map[int]bool),
	}
}

// ID is unique per view and never changes.
func (v *View) ID() string { return v.id }

func (v *View) Title() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.title
}

// Rename changes the title.
func (v *View) Rename(title string) {
	v.mu.Lock()
	v.title = title
	v.mu.Unlock()
}

func (v *View) Source() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.source
}

// SetSource replaces the text. An actual change marks the view dirty.
func (v *View) SetSource(ctx context.Context, source string) {
	v.mu.Lock()
	if v.source == source {
		v.mu.Unlock()
		return
	}
	v.source = source
	v.dirty = true
	v.mu.Unlock()
	v.emit(ctx, domain.EventDirty)
}

// MarkDirty flags the cached results as stale, e.g. after an analysis setting changed.
func (v *View) MarkDirty(ctx context.Context) {
	v.mu.Lock()
	v.dirty = true
	v.mu.Unlock()
	v.emit(ctx, domain.EventDirty)
}

func (v *View) Dirty() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dirty
}

// Key is the analysis tuple the view would be elaborated with under s.
func (v *View) Key(s domain.AnalysisSettings) domain.AnalysisKey {
	v.mu.Lock()
	defer v.mu.Unlock()
	return domain.AnalysisKey{Source: v.source, Settings: s}
}

// LastResult is the last elaboration result, nil if never computed.
func (v *View) LastResult() *domain.ElaborationResult {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastResult
}

// ResultKey is the tuple LastResult was computed from.
func (v *View) ResultKey() domain.AnalysisKey {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.resultKey
}

func (v *View) LastExecution() *domain.ExecutionResult {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastExecution
}

// LastStepState is the view-level state of the last step response.
func (v *View) LastStepState() *domain.InteractiveState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastStep
}

// ApplyElaboration stores an elaboration result computed from key.
// Dirty is cleared only when key still matches the view at completion time,
// otherwise the result is kept for display but stays stale.
// Elaboration closes any interactive session.
func (v *View) ApplyElaboration(ctx context.Context, res *domain.ElaborationResult, key domain.AnalysisKey, current domain.AnalysisSettings) {
	v.mu.Lock()
	v.lastResult = res
	v.resultKey = key
	if key == (domain.AnalysisKey{Source: v.source, Settings: current}) {
		v.dirty = false
	}
	hadTree := v.interactive != nil
	v.interactive = nil
	clear(v.pending)
	v.mu.Unlock()

	v.emit(ctx, domain.EventUpdate)
	v.emit(ctx, domain.EventHighlight)
	if hadTree {
		v.emit(ctx, domain.EventInteractive)
	}
}

// ApplyExecution stores an execution result. It does not affect dirty.
func (v *View) ApplyExecution(ctx context.Context, res *domain.ExecutionResult) {
	v.mu.Lock()
	v.lastExecution = res
	v.activeTab = domain.TabExecution
	v.mu.Unlock()
	v.emit(ctx, domain.EventUpdateExecution)
}

// ActiveTab is the tab currently shown for this view.
func (v *View) ActiveTab() domain.Tab {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.activeTab
}

func (v *View) SetActiveTab(tab domain.Tab) {
	v.mu.Lock()
	v.activeTab = tab
	v.mu.Unlock()
}

// ClearDisplay asks observers to drop and redraw highlighting.
func (v *View) ClearDisplay(ctx context.Context) {
	v.emit(ctx, domain.EventClear)
	v.emit(ctx, domain.EventHighlight)
}

// Interactive returns the open step tree, nil when the session is closed.
func (v *View) Interactive() *steptree.Tree {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.interactive
}

// OpenInteractive replaces any tree with a fresh one.
func (v *View) OpenInteractive(ctx context.Context, tree *steptree.Tree, state *domain.InteractiveState) {
	v.mu.Lock()
	v.interactive = tree
	v.lastStep = state
	v.activeTab = domain.TabInteractive
	clear(v.pending)
	v.mu.Unlock()
	v.emit(ctx, domain.EventInteractive)
}

// ReplaceInteractive swaps old for next only if old is still the open tree.
func (v *View) ReplaceInteractive(ctx context.Context, old, next *steptree.Tree, state *domain.InteractiveState) error {
	v.mu.Lock()
	if v.interactive == nil || v.interactive != old {
		v.mu.Unlock()
		return domain.ErrStaleTree
	}
	v.interactive = next
	if state != nil {
		v.lastStep = state
	}
	v.mu.Unlock()
	v.emit(ctx, domain.EventInteractiveUpdate)
	return nil
}

// ResetInteractive closes the interactive session.
func (v *View) ResetInteractive(ctx context.Context) {
	v.mu.Lock()
	had := v.interactive != nil
	v.interactive = nil
	clear(v.pending)
	v.mu.Unlock()
	if had {
		v.emit(ctx, domain.EventInteractive)
	}
}

// BeginExpand registers an in-flight expansion of node id.
// It returns false if one is already pending.
func (v *View) BeginExpand(id int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pending[id] {
		return false
	}
	v.pending[id] = true
	return true
}

// EndExpand clears the pending mark for node id.
func (v *View) EndExpand(id int) {
	v.mu.Lock()
	delete(v.pending, id)
	v.mu.Unlock()
}

// Snapshot captures the state a permalink needs.
func (v *View) Snapshot(s domain.AnalysisSettings) *domain.Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	snap := &domain.Snapshot{
		Title:     v.title,
		Source:    v.source,
		Settings:  &s,
		ActiveTab: v.activeTab,
	}
	if v.interactive != nil {
		snap.Interactive = v.interactive.Snapshot()
	}
	return snap
}

// Restore builds a view from a snapshot. The interactive tree is restored when
// present; the view is dirty since nothing has been elaborated yet.
func Restore(snap *domain.Snapshot) (*View, error) {
	v := New(snap.Title, snap.Source)
	if snap.ActiveTab != "" {
		v.activeTab = snap.ActiveTab
	}
	if snap.Interactive != nil {
		tree, err := steptree.FromSnapshot(snap.Interactive)
		if err != nil {
			return nil, err
		}
		v.interactive = tree
		if len(snap.Interactive.TagDefs) > 0 {
			v.lastStep = &domain.InteractiveState{TagDefs: snap.Interactive.TagDefs}
		}
	}
	return v, nil
}

// Subscribe registers an observer and returns a function removing it.
func (v *View) Subscribe(fn domain.Observer) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextObs++
	id := v.nextObs
	v.observers = append(v.observers, observerEntry{id: id, fn: fn})
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		for i, o := range v.observers {
			if o.id == id {
				v.observers = append(v.observers[:i:i], v.observers[i+1:]...)
				return
			}
		}
	}
}

func (v *View) emit(ctx context.Context, t domain.EventType) {
	v.mu.Lock()
	obs := make([]observerEntry, len(v.observers))
	copy(obs, v.observers)
	v.mu.Unlock()

	ev := domain.NewEvent(t, v.id)
	for _, o := range obs {
		o.fn(ctx, ev)
	}
}
