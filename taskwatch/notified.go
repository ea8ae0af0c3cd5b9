package taskwatch

import (
	"sync"
	"time"
)

// notifiedSet remembers which tasks were already dispatched during this
// process's lifetime. Entries carry the task's due time so they can be
// dropped once the due window has passed, instead of only being wiped
// wholesale at the size cap (which would let still-pending tasks be
// re-notified).
type notifiedSet struct {
	mu      sync.Mutex
	entries map[string]time.Time
	cap     int
}

func newNotifiedSet(cap int) *notifiedSet {
	if cap <= 0 {
		cap = DefaultNotifiedCap
	}
	return &notifiedSet{
		entries: make(map[string]time.Time),
		cap:     cap,
	}
}

func (s *notifiedSet) Has(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[taskID]
	return ok
}

func (s *notifiedSet) Add(taskID string, dueAt time.Time) {
	s.mu.Lock()
	s.entries[taskID] = dueAt.UTC()
	s.mu.Unlock()
}

// Prune drops entries whose due time has already passed; a task that is due
// again can only be a new task anyway. Returns how many entries were removed.
func (s *notifiedSet) Prune(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for taskID, dueAt := range s.entries {
		if dueAt.Before(now) {
			delete(s.entries, taskID)
			removed++
		}
	}
	return removed
}

// EnforceCap wipes the whole set once it outgrows the cap. Kept as a safety
// valve behind Prune; clearing re-arms every pending notification.
func (s *notifiedSet) EnforceCap() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) <= s.cap {
		return false
	}
	s.entries = make(map[string]time.Time)
	return true
}

func (s *notifiedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
