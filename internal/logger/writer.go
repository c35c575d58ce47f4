package logger

import (
	"bufio"
	"io"
	"sync"
)

// syncWriter serializes line writes and fans them out to all sinks.
type syncWriter struct {
	mu    sync.Mutex
	sinks []*bufio.Writer
}

func newSyncWriter(writers []io.Writer) *syncWriter {
	sinks := make([]*bufio.Writer, 0, len(writers))
	for _, w := range writers {
		if w == nil {
			continue
		}
		sinks = append(sinks, bufio.NewWriterSize(w, 16*1024))
	}
	return &syncWriter{sinks: sinks}
}

// Write sends one formatted line to every sink.
func (w *syncWriter) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	var firstErr error
	for _, s := range w.sinks {
		if _, err := s.Write(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	// Log lines should be visible promptly; the bufio layer only absorbs
	// the per-sink syscall fan-out within a single write.
	for _, s := range w.sinks {
		if err := s.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Flush forces buffered output into the underlying sinks.
func (w *syncWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var firstErr error
	for _, s := range w.sinks {
		if err := s.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
