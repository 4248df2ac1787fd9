package inference

import (
	"context"
	"sync"
)

// Handle is an opaque reference to a loaded model's backing resources.
type Handle any

// LoadFunc performs the actual (typically slow) model load.
type LoadFunc func(ctx context.Context, modelID string) (Handle, error)

// Loader memoizes model handles with a single-flight guard: the first caller
// for an id triggers the load, concurrent callers await that same load, and
// later callers get the cached handle. Failed loads are not memoized, so a
// retry after a transient failure starts a fresh load.
type Loader struct {
	load LoadFunc

	mu      sync.Mutex
	entries map[string]*loadEntry
}

type loadEntry struct {
	done   chan struct{}
	handle Handle
	err    error
}

// NewLoader creates a loader around the given load function.
func NewLoader(load LoadFunc) *Loader {
	return &Loader{
		load:    load,
		entries: make(map[string]*loadEntry),
	}
}

// Handle returns the memoized handle for modelID, loading it on first use.
// A caller whose context expires while another caller's load is in flight
// gets the context error; the load itself keeps running for the others.
func (l *Loader) Handle(ctx context.Context, modelID string) (Handle, error) {
	l.mu.Lock()
	e, ok := l.entries[modelID]
	if ok {
		l.mu.Unlock()
		select {
		case <-e.done:
			return e.handle, e.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	e = &loadEntry{done: make(chan struct{})}
	l.entries[modelID] = e
	l.mu.Unlock()

	e.handle, e.err = l.load(ctx, modelID)
	if e.err != nil {
		l.mu.Lock()
		delete(l.entries, modelID)
		l.mu.Unlock()
	}
	close(e.done)
	return e.handle, e.err
}

// Loaded reports whether a handle for modelID is resident (load completed
// successfully).
func (l *Loader) Loaded(modelID string) bool {
	l.mu.Lock()
	e, ok := l.entries[modelID]
	l.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case <-e.done:
		return e.err == nil
	default:
		return false
	}
}
