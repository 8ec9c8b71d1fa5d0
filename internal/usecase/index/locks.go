package index

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// collectionLocks hands out a reader/writer lock per collection name.
// Names are hashed onto a fixed set of stripes so the table never grows.
type collectionLocks struct {
	stripes [lockStripes]sync.RWMutex
}

func newCollectionLocks() *collectionLocks {
	return &collectionLocks{}
}

func (l *collectionLocks) stripe(name string) *sync.RWMutex {
	h := fnv.New32a()
	h.Write([]byte(name))
	return &l.stripes[h.Sum32()%lockStripes]
}

func (l *collectionLocks) lock(name string) func() {
	mu := l.stripe(name)
	mu.Lock()
	return mu.Unlock
}

func (l *collectionLocks) rlock(name string) func() {
	mu := l.stripe(name)
	mu.RLock()
	return mu.RUnlock
}
