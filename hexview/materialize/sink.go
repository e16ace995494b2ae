package materialize

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Sink receives finished exports.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// StreamSink is a Sink that can also be filled incrementally, for exports
// too large to hold in memory.
type StreamSink interface {
	Sink
	Write(ctx context.Context, name string, fill func(w io.Writer) error) (string, error)
}

// DirSink writes exports into a directory. Files appear atomically: data is
// written to a temp file in the same directory and renamed into place.
type DirSink struct {
	Dir string
}

// Put implements Sink. It returns the path written.
func (d DirSink) Put(ctx context.Context, name string, data []byte) (string, error) {
	return d.Write(ctx, name, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// Write streams an export produced by fill into name.
func (d DirSink) Write(ctx context.Context, name string, fill func(w io.Writer) error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("materialize: invalid export name %q", name)
	}
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("materialize: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("materialize: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err := fill(tmp); err != nil {
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("materialize: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("materialize: close: %w", err)
	}
	final := filepath.Join(dir, base)
	if err := os.Rename(tmpName, final); err != nil {
		return "", fmt.Errorf("materialize: rename: %w", err)
	}
	committed = true
	return final, nil
}

var _ StreamSink = DirSink{}
