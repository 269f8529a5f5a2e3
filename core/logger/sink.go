package logger

import (
	"errors"
	"io"
	"sync"
)

var errSinkClosed = errors.New("logger: sink closed")

// fanout writes every line to all of its writers under one lock, so lines
// from concurrent handlers never interleave.
type fanout struct {
	mu      sync.Mutex
	writers []io.Writer
	closers []io.Closer
	closed  bool
	err     error
}

func newFanout(writers []io.Writer, closers []io.Closer) *fanout {
	out := &fanout{closers: closers}
	for _, w := range writers {
		if w != nil {
			out.writers = append(out.writers, w)
		}
	}
	return out
}

// WriteLine writes p to every writer. A failing writer does not stop the others.
func (f *fanout) WriteLine(p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errSinkClosed
	}
	var first error
	for _, w := range f.writers {
		if _, err := w.Write(p); err != nil && first == nil {
			first = err
		}
	}
	if first != nil && f.err == nil {
		f.err = first
	}
	return first
}

// Close syncs file-backed writers and closes the owned closers.
// It returns the first write error together with any close errors.
func (f *fanout) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	errs := []error{f.err}
	for _, w := range f.writers {
		if s, ok := w.(interface{ Sync() error }); ok && w != stdout {
			errs = append(errs, s.Sync())
		}
	}
	for _, c := range f.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
