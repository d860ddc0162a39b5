package search

import (
	"sync"
	"time"
)

// Slot is a single-slot scheduler: arming it cancels whatever was armed
// before, so at most one task is ever pending per slot. A task that has
// already fired cannot be cancelled.
type Slot struct {
	mu    sync.Mutex
	timer *time.Timer
}

func (s *Slot) Schedule(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(d, fn)
}

func (s *Slot) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
