package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joshuapare/hexkit/internal/buf"
	"github.com/joshuapare/hexkit/internal/mmfile"
)

// StoragePrefix is the public URL prefix under which uploaded files are
// addressed; refs carrying it are resolved inside the source root.
const StoragePrefix = "/storage"

// File serves files from a local directory through read-only memory maps.
// Mappings are opened on first use and kept until Close.
type File struct {
	root string

	mu     sync.Mutex
	maps   map[string]*mmfile.Mapping
	closed bool
}

// NewFile creates a file source rooted at dir. An empty dir resolves refs
// as plain filesystem paths.
func NewFile(dir string) *File {
	return &File{root: dir, maps: make(map[string]*mmfile.Mapping)}
}

// Resolve maps a ref to a filesystem path. With a root configured, refs
// (optionally prefixed by StoragePrefix) must stay inside it.
func (f *File) Resolve(ref Ref) (string, error) {
	p := string(ref)
	if f.root == "" {
		return filepath.Clean(p), nil
	}
	p = strings.TrimPrefix(p, StoragePrefix)
	p = strings.TrimLeft(filepath.ToSlash(p), "/")
	if p == "" || !filepath.IsLocal(p) {
		return "", fmt.Errorf("%w: %s escapes storage root", ErrNotFound, ref)
	}
	return filepath.Join(f.root, filepath.FromSlash(p)), nil
}

// Fetch implements Source.
func (f *File) Fetch(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if err := req.Validate(); err != nil {
		return Response{}, err
	}
	m, err := f.mapping(req.Ref)
	if err != nil {
		return Response{}, err
	}
	total := m.Size()
	start, end, err := buf.ClampRange(total, req.Offset, req.Length)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	// ReadAt copies under the mapping's read lock, so a concurrent Close
	// waits for the copy instead of unmapping beneath it.
	data := make([]byte, end-start)
	n, err := m.ReadAt(data, start)
	switch {
	case errors.Is(err, mmfile.ErrClosed):
		return Response{}, ErrClosed
	case err != nil && !errors.Is(err, io.EOF):
		return Response{}, fmt.Errorf("source: read %s: %w", req.Ref, err)
	}
	return Response{Offset: req.Offset, Data: data[:n], TotalSize: total}, nil
}

// Size returns the size of the referenced file.
func (f *File) Size(ref Ref) (int64, error) {
	m, err := f.mapping(ref)
	if err != nil {
		return 0, err
	}
	return m.Size(), nil
}

func (f *File) mapping(ref Ref) (*mmfile.Mapping, error) {
	path, err := f.Resolve(ref)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}
	if m, ok := f.maps[path]; ok {
		return m, nil
	}
	m, err := mmfile.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("source: open %s: %w", ref, err)
	}
	f.maps[path] = m
	return m, nil
}

// Close releases every mapping.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	var errs []error
	for path, m := range f.maps {
		if err := m.Close(); err != nil {
			errs = append(errs, fmt.Errorf("unmap %s: %w", path, err))
		}
	}
	f.maps = nil
	return errors.Join(errs...)
}

var _ Source = (*File)(nil)
