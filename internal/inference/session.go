package inference

import (
	"errors"
	"sync"
)

// ErrBusy is returned when an inference request arrives while another is
// still in flight. Requests are rejected immediately, never queued; the
// single-slot policy is a deliberate simplicity-over-throughput tradeoff.
var ErrBusy = errors.New("inference busy: another request is in flight")

// Session owns the single in-flight inference slot. The zero value is ready
// to use. It is owned by the caller (the pipeline), not package state.
type Session struct {
	mu   sync.Mutex
	busy bool
}

// TryAcquire claims the in-flight slot or fails with ErrBusy. It never
// blocks.
func (s *Session) TryAcquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}

// Release frees the slot. Releasing an unheld slot is a no-op.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
}

// Busy reports whether a request is currently in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}
