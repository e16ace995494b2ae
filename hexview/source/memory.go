package source

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/joshuapare/hexkit/internal/buf"
)

// Memory serves files held in memory. It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	files map[Ref][]byte
}

// NewMemory creates an empty in-memory source.
func NewMemory() *Memory {
	return &Memory{files: make(map[Ref][]byte)}
}

// Put registers data under ref, replacing any previous contents.
func (m *Memory) Put(ref Ref, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[ref] = data
}

// Fetch implements Source.
func (m *Memory) Fetch(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if err := req.Validate(); err != nil {
		return Response{}, err
	}

	m.mu.RLock()
	data, ok := m.files[req.Ref]
	m.mu.RUnlock()
	if !ok {
		return Response{}, fmt.Errorf("%w: %s", ErrNotFound, req.Ref)
	}
	return sliceResponse(data, req)
}

// sliceResponse answers req from a fully addressable byte slice.
func sliceResponse(data []byte, req Request) (Response, error) {
	total := int64(len(data))
	start, end, err := buf.ClampRange(total, req.Offset, req.Length)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	view, ok := buf.Slice(data, start, end-start)
	if !ok {
		return Response{}, fmt.Errorf("%w: [%d,%d) of %d", ErrInvalidRange, start, end, total)
	}
	return Response{Offset: req.Offset, Data: bytes.Clone(view), TotalSize: total}, nil
}
