package orchestrator

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/cerberus/pkg/domain"
)

// BusyGuard counts in-flight requests. Observers hear EventBusy when the count leaves
// zero and EventIdle when it returns to zero, so overlapping requests compose.
type BusyGuard struct {
	mu        sync.Mutex
	count     int
	observers []domain.Observer
}

// NewBusyGuard creates an idle guard.
func NewBusyGuard() *BusyGuard {
	return &BusyGuard{}
}

// Acquire marks one request in flight. The returned release is safe to call more
// than once; only the first call counts.
func (b *BusyGuard) Acquire(ctx context.Context) (release func()) {
	b.mu.Lock()
	b.count++
	first := b.count == 1
	obs := slices.Clone(b.observers)
	b.mu.Unlock()

	if first {
		notify(ctx, obs, domain.EventBusy)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.count--
			last := b.count == 0
			obs := slices.Clone(b.observers)
			b.mu.Unlock()

			if last {
				notify(ctx, obs, domain.EventIdle)
			}
		})
	}
}

// Busy reports whether any request is in flight.
func (b *BusyGuard) Busy() bool {
	return b.Count() > 0
}

// Count is the number of requests in flight.
func (b *BusyGuard) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Subscribe registers an observer for busy/idle transitions.
func (b *BusyGuard) Subscribe(fn domain.Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, fn)
}

func notify(ctx context.Context, obs []domain.Observer, t domain.EventType) {
	ev := domain.NewEvent(t, "")
	for _, fn := range obs {
		fn(ctx, ev)
	}
}
