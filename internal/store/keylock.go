package store

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// KeyLock serializes read-modify-write cycles per session key so concurrent
// duplicate deliveries for the same user cannot lose updates. Locks are
// striped, so unrelated keys may share a mutex; that only costs latency.
type KeyLock struct {
	stripes [lockStripes]sync.Mutex
}

func NewKeyLock() *KeyLock {
	return &KeyLock{}
}

// Lock acquires the stripe for (channel, userID) and returns its unlock func.
func (k *KeyLock) Lock(channel, userID string) func() {
	h := fnv.New32a()
	h.Write([]byte(channel))
	h.Write([]byte{0})
	h.Write([]byte(userID))
	m := &k.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}
