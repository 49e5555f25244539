package app

import (
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

// keyLocks hands out one mutex per entity ID so operations on the same user
// or payment method serialize without blocking unrelated requests.
type keyLocks struct {
	locks *xsync.MapOf[uuid.UUID, *sync.Mutex]
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: xsync.NewMapOf[uuid.UUID, *sync.Mutex]()}
}

// Acquire locks the mutex for the given ID and returns it for deferred
// unlocking.
func (k *keyLocks) Acquire(id uuid.UUID) *sync.Mutex {
	mu, _ := k.locks.LoadOrStore(id, &sync.Mutex{})
	mu.Lock()
	return mu
}
