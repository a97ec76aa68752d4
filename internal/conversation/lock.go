package conversation

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 256

// stripedLock serializes work per key with a fixed number of mutexes.
// Distinct keys only contend when they hash to the same stripe.
type stripedLock struct {
	stripes [lockStripes]sync.Mutex
}

func (l *stripedLock) forKey(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &l.stripes[h.Sum32()%lockStripes]
}
