package logger

import (
	"errors"
	"io"
	"testing"
)

type brokenSink struct{ err error }

func (b brokenSink) Write(p []byte) (int, error) { return 0, b.err }

func TestAsyncWriterSurfacesSinkError(t *testing.T) {
	sinkErr := errors.New("disk full")
	aw := newAsyncWriter([]io.Writer{brokenSink{err: sinkErr}}, 1024)

	if err := aw.Write([]byte("line\n")); err != nil {
		t.Fatalf("first write: %v", err)
	}

	// Close drains the queue, so the failed fan-out is latched by now.
	if err := aw.Close(); !errors.Is(err, sinkErr) {
		t.Errorf("Close() = %v, want %v", err, sinkErr)
	}
	if err := aw.Write([]byte("after\n")); !errors.Is(err, sinkErr) {
		t.Errorf("write after failure = %v, want %v", err, sinkErr)
	}
}

func TestAsyncWriterSkipsNilOutputs(t *testing.T) {
	aw := newAsyncWriter([]io.Writer{nil}, 0)
	if err := aw.Write([]byte("line\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}
