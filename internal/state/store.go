package state

import (
	"sync"
	"time"

	"lantern/internal/apperr"
	"lantern/internal/haven"
)

// Snapshot represents the latest polled data available to the UI.
type Snapshot struct {
	Stats               haven.LibraryStats
	Queue               haven.QueueStatus
	HasData             bool
	LastUpdated         time.Time
	LastErr             *apperr.Error
	ConsecutiveFailures int
}

// IsOffline returns true when the API has been unreachable for multiple
// polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored snapshot. When err is non-nil the previous data
// is kept but the error is recorded for visibility.
func (s *Store) Update(stats *haven.LibraryStats, queue *haven.QueueStatus, err *apperr.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastErr = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	if stats != nil {
		s.snapshot.Stats = *stats
	}
	if queue != nil {
		s.snapshot.Queue = cloneQueue(*queue)
	}
	s.snapshot.HasData = true
	s.snapshot.LastErr = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Queue = cloneQueue(s.snapshot.Queue)
	return snap
}

func cloneQueue(q haven.QueueStatus) haven.QueueStatus {
	if len(q.Tasks) == 0 {
		q.Tasks = nil
		return q
	}
	tasks := make([]haven.TaskInfo, len(q.Tasks))
	copy(tasks, q.Tasks)
	q.Tasks = tasks
	return q
}
