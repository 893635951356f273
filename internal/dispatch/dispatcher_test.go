package dispatch

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatcherRunsJobs(t *testing.T) {
	d := NewDispatcher(Options{Workers: 2, QueueSize: 8})
	defer d.Close()

	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "web", "send.text", func() error {
		close(done)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never executed")
	}
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	defer d.Close()

	var calls atomic.Int32
	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "whatsapp", "send.text", func() error {
		if calls.Add(1) == 1 {
			return &net.OpError{Op: "dial", Err: errors.New("connection refused")}
		}
		close(done)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
	if d.ErrorCount() != 0 {
		t.Errorf("ErrorCount = %d, want 0", d.ErrorCount())
	}
}

func TestDispatcherCountsPermanentFailures(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})

	var calls atomic.Int32
	if err := d.Enqueue(context.Background(), "instagram", "send.text", func() error {
		calls.Add(1)
		return &StatusError{Code: 400, Body: "invalid recipient"}
	}); err != nil {
		t.Fatal(err)
	}
	d.Close()

	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, non-retryable errors must not be retried", got)
	}
	if d.ErrorCount() != 1 {
		t.Errorf("ErrorCount = %d, want 1", d.ErrorCount())
	}
}

func TestEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	d.Close()
	err := d.Enqueue(context.Background(), "web", "send.text", func() error { return nil })
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v, want ErrQueueClosed", err)
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	cases := []struct {
		in   string
		deny string
	}{
		{"Post https://api.telegram.org/bot123456:AAF-xyz_123/sendMessage: timeout", "123456:AAF"},
		{"request failed: Authorization: Bearer EAABsbCS1234abcd", "EAABsbCS1234abcd"},
		{"GET https://graph.facebook.com/v20.0/me/messages?access_token=EAAB123: 401", "EAAB123"},
	}
	for _, tc := range cases {
		got := SanitizeErrorMessage(errors.New(tc.in))
		if got == "" {
			t.Fatalf("sanitized message empty for %q", tc.in)
		}
		if containsSubstring(got, tc.deny) {
			t.Errorf("credential leaked: %q", got)
		}
	}
}

func containsSubstring(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, "timeout"},
		{&net.OpError{Op: "dial", Err: errors.New("refused")}, "dial"},
		{&StatusError{Code: 503}, "http_5xx"},
		{&StatusError{Code: 404}, "http_4xx"},
		{errors.New("weird"), "unknown"},
	}
	for _, tc := range cases {
		if got := ClassifyError(tc.err); got != tc.want {
			t.Errorf("ClassifyError(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
