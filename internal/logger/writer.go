package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// asyncWriter decouples log emission from disk and stdout latency: handlers
// enqueue finished lines and a single goroutine fans them out to every
// output. Each line is flushed through so `tail -f` on the log file stays
// live. Shutdown drains the queue before the process exits.
type asyncWriter struct {
	lines  chan []byte
	flushc chan chan error
	closed chan struct{}
	stop   sync.Once

	outs []*bufio.Writer

	mu      sync.Mutex
	failure error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	outs := make([]*bufio.Writer, 0, len(writers))
	for _, w := range writers {
		if w == nil {
			continue
		}
		outs = append(outs, bufio.NewWriterSize(w, bufSize))
	}
	aw := &asyncWriter{
		lines:  make(chan []byte, 256),
		flushc: make(chan chan error),
		closed: make(chan struct{}),
		outs:   outs,
	}
	go aw.run()
	return aw
}

func (w *asyncWriter) run() {
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.flush()
				close(w.closed)
				return
			}
			if len(line) == 0 {
				continue
			}
			if err := w.fanOut(line); err != nil {
				w.fail(err)
			}
		case ack := <-w.flushc:
			ack <- w.flush()
		}
	}
}

// Write hands one log line to the background goroutine. The payload is
// copied because slog handlers reuse their buffers. When the queue is full
// the write blocks rather than dropping the line.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.firstErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	line := make([]byte, len(p))
	copy(line, p)
	select {
	case w.lines <- line:
	default:
		w.lines <- line
	}
	return nil
}

// Flush blocks until everything queued so far has reached the outputs.
func (w *asyncWriter) Flush() error {
	if err := w.firstErr(); err != nil {
		return err
	}
	ack := make(chan error, 1)
	w.flushc <- ack
	return <-ack
}

// Close drains the queue, flushes the outputs, and reports the first write
// error seen over the writer's lifetime.
func (w *asyncWriter) Close() error {
	w.stop.Do(func() {
		close(w.lines)
	})
	<-w.closed
	return w.firstErr()
}

func (w *asyncWriter) fanOut(line []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, out := range w.outs {
		if out == nil {
			continue
		}
		if _, err := out.Write(line); err != nil {
			return err
		}
		if err := out.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (w *asyncWriter) flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, out := range w.outs {
		if out == nil {
			continue
		}
		if err := out.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) firstErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failure
}

// fail latches the first write error; later writes surface it to callers.
func (w *asyncWriter) fail(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failure == nil {
		w.failure = err
	}
}
