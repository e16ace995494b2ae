// Package mmfile provides platform-specific helpers for memory-mapping files
// that are served by range.
package mmfile

import (
	"errors"
	"io"
	"sync"
)

// ErrClosed is returned by reads on a released mapping.
var ErrClosed = errors.New("mmfile: mapping closed")

// Mapping is a read-only view of a file's bytes. Reads go through ReadAt,
// which copies under a read lock, so Close is safe to call at any time.
type Mapping struct {
	mu      sync.RWMutex
	data    []byte
	release func() error
	closed  bool
}

// Open maps the file at path read-only.
func Open(path string) (*Mapping, error) {
	data, release, err := mapFile(path)
	if err != nil {
		return nil, err
	}
	return &Mapping{data: data, release: release}, nil
}

// Size returns the length of the mapped file.
func (m *Mapping) Size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.data))
}

// ReadAt implements io.ReaderAt over the mapping.
func (m *Mapping) ReadAt(p []byte, off int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, errors.New("mmfile: negative offset")
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close releases the mapping. Calling Close twice is a no-op.
func (m *Mapping) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.data = nil
	if m.release == nil {
		return nil
	}
	return m.release()
}
