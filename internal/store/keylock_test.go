package store

import (
	"sync"
	"testing"
)

func TestKeyLockSerializesSameKey(t *testing.T) {
	kl := NewKeyLock()

	const workers = 16
	var counter int
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				unlock := kl.Lock("telegram", "42")
				counter++
				unlock()
			}
		}()
	}
	wg.Wait()
	if counter != workers*100 {
		t.Fatalf("counter = %d, want %d", counter, workers*100)
	}
}

func TestKeyLockUnlockReleases(t *testing.T) {
	kl := NewKeyLock()
	unlock := kl.Lock("web", "u1")
	unlock()

	done := make(chan struct{})
	go func() {
		unlock := kl.Lock("web", "u1")
		unlock()
		close(done)
	}()
	<-done
}
