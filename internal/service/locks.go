package service

import (
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
)

const lockStripes = 64

// contractLocks serializes work per contract. Contracts hash onto a fixed set
// of stripes, so unrelated contracts may occasionally wait on each other.
// Callers hold at most one stripe at a time.
type contractLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *contractLocks) lock(id uuid.UUID) func() {
	h := fnv.New32a()
	_, _ = h.Write(id[:])
	m := &l.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}
