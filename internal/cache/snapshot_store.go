package cache

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bikenearby/backend-go/internal/models"
	"github.com/rs/zerolog/log"
)

// StaleSnapshotError is returned when a publish would move the store
// backwards or sideways in version order.
type StaleSnapshotError struct {
	Current   uint64
	Published uint64
}

func (e *StaleSnapshotError) Error() string {
	return fmt.Sprintf("snapshot version %d is not newer than current version %d", e.Published, e.Current)
}

// SnapshotStore holds the snapshot readers currently see. Reads are a single
// atomic load; publishes are serialized and always replace the whole
// dataset.
type SnapshotStore struct {
	current   atomic.Pointer[models.Snapshot]
	mu        sync.Mutex
	listeners []func(*models.Snapshot)
	clock     clock
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		clock: systemClock{},
	}
}

// Current returns the published snapshot, or nil before the first publish.
func (s *SnapshotStore) Current() *models.Snapshot {
	return s.current.Load()
}

// Publish swaps in snap for all subsequent readers and then notifies
// listeners in registration order.
func (s *SnapshotStore) Publish(snap *models.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("cannot publish nil snapshot")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev := s.current.Load(); prev != nil && snap.Version() <= prev.Version() {
		return &StaleSnapshotError{Current: prev.Version(), Published: snap.Version()}
	}

	s.current.Store(snap)
	log.Debug().
		Uint64("version", snap.Version()).
		Int("station_count", snap.Len()).
		Msg("Published snapshot")

	for _, fn := range s.listeners {
		fn(snap)
	}
	return nil
}

// OnPublish registers fn to run after every successful publish.
func (s *SnapshotStore) OnPublish(fn func(*models.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Age returns how long ago the current snapshot was created. ok is false
// when nothing has been published yet.
func (s *SnapshotStore) Age() (age time.Duration, ok bool) {
	snap := s.current.Load()
	if snap == nil {
		return 0, false
	}
	return s.clock.Now().Sub(snap.CreatedAt()), true
}
