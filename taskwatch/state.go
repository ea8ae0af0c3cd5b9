package taskwatch

import "sync"

// tickState keeps poll ticks from overlapping: a tick whose external I/O is
// still in flight when the next tick fires makes the next tick a no-op.
type tickState struct {
	mu      sync.Mutex
	running bool
}

func (s *tickState) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *tickState) End() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}
