package store

import (
	"context"
	"errors"
	"testing"

	"github.com/aerocl/aerobot/internal/funnel"
)

// flakyStore fails a configured number of calls before delegating to Memory.
type flakyStore struct {
	inner    *Memory
	failures int
	calls    int
}

func (f *flakyStore) GetOrCreate(ctx context.Context, channel, userID string) (*funnel.Session, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection refused")
	}
	return f.inner.GetOrCreate(ctx, channel, userID)
}

func (f *flakyStore) Save(ctx context.Context, s *funnel.Session) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("connection refused")
	}
	return f.inner.Save(ctx, s)
}

func TestResilientRetriesOnce(t *testing.T) {
	ctx := context.Background()
	primary := &flakyStore{inner: NewMemory(), failures: 1}
	r := NewResilient(primary)

	s, err := r.GetOrCreate(ctx, "web", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if s.State != funnel.StateStart {
		t.Fatalf("state = %q", s.State)
	}
	if primary.calls != 2 {
		t.Errorf("primary calls = %d, want 2 (one retry)", primary.calls)
	}
}

func TestResilientDegradesToMemory(t *testing.T) {
	ctx := context.Background()
	primary := &flakyStore{inner: NewMemory(), failures: 100}
	r := NewResilient(primary)

	s, err := r.GetOrCreate(ctx, "web", "u1")
	if err != nil {
		t.Fatalf("degraded GetOrCreate must not fail: %v", err)
	}
	s.State = funnel.StateQualify
	if err := r.Save(ctx, s); err != nil {
		t.Fatalf("degraded Save must not fail: %v", err)
	}

	// The fallback keeps the conversation coherent across messages.
	again, err := r.GetOrCreate(ctx, "web", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if again.State != funnel.StateQualify {
		t.Errorf("fallback state = %q, want QUALIFY", again.State)
	}
}
