// Package common provides shared utilities including stage timing.
package common

import (
	"fmt"
	"strings"
	"time"
)

// Timer measures one named stage.
type Timer struct {
	name  string
	start time.Time
	dur   time.Duration
}

// NewTimer starts a timer for the given stage name.
func NewTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop stops the timer and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	t.dur = time.Since(t.start)
	return t.dur
}

// Duration returns the recorded duration (only valid after Stop).
func (t *Timer) Duration() time.Duration { return t.dur }

// Name returns the stage name.
func (t *Timer) Name() string { return t.name }

func (t *Timer) String() string {
	return fmt.Sprintf("%s: %v", t.name, t.dur)
}

// StageTimings accumulates per-stage durations for one pipeline run.
type StageTimings struct {
	stages []*Timer
}

// Start begins timing a stage and records it.
func (s *StageTimings) Start(name string) *Timer {
	t := NewTimer(name)
	s.stages = append(s.stages, t)
	return t
}

// Total sums all recorded stage durations.
func (s *StageTimings) Total() time.Duration {
	var total time.Duration
	for _, t := range s.stages {
		total += t.Duration()
	}
	return total
}

// Get returns the duration of a named stage, or zero if absent.
func (s *StageTimings) Get(name string) time.Duration {
	for _, t := range s.stages {
		if t.Name() == name {
			return t.Duration()
		}
	}
	return 0
}

func (s *StageTimings) String() string {
	parts := make([]string, 0, len(s.stages))
	for _, t := range s.stages {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, ", ")
}
