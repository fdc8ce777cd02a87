package exporter

import (
	"sync/atomic"
	"time"

	"sbmodem-exporter/lib/scrapers/sb8200"
)

// Snapshot is one immutable view of the modem's state plus the metadata
// of the refresh that produced it. Fields from an earlier successful
// refresh survive a failed one; only the attempt metadata moves.
type Snapshot struct {
	Connection  *sb8200.ConnectionStatus
	ProductInfo *sb8200.ProductInfo

	LastSuccessAt   time.Time
	LastAttemptAt   time.Time
	LastFailure     sb8200.FailureKind
	RefreshDuration time.Duration
}

// SnapshotStore hands the latest snapshot from the single writing
// daemon to any number of concurrent readers. Snapshots are swapped
// wholesale and never mutated after Publish, so readers need no
// locking at all.
type SnapshotStore struct {
	current atomic.Pointer[Snapshot]
}

func NewSnapshotStore() *SnapshotStore {
	s := &SnapshotStore{}
	s.current.Store(&Snapshot{LastFailure: sb8200.FailureNone})
	return s
}

func (s *SnapshotStore) Read() *Snapshot {
	return s.current.Load()
}

func (s *SnapshotStore) Publish(snapshot *Snapshot) {
	s.current.Store(snapshot)
}
