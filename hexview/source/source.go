// Package source defines the byte-range provider consumed by the viewer and
// ships the implementations used by the tools: in-memory, local
// memory-mapped files, and the JSON range endpoint over HTTP.
//
// The contract is deliberately small. Given a file reference, an offset and
// a length, a source returns the bytes it has in that range together with the
// file's total size. Short reads at the end of a file are normal; reads that
// start at or past the end return no data. The same call serves incremental
// paging (small lengths) and full materialization (offset 0, length total).
package source

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Ref identifies a file on a source: a path or an opaque id.
type Ref string

// Name returns the last path element of the reference, used to suggest
// export filenames.
func (r Ref) Name() string {
	s := strings.TrimRight(strings.ReplaceAll(string(r), "\\", "/"), "/")
	if s == "" {
		return "file"
	}
	return path.Base(s)
}

// Request asks for Length bytes at Offset.
type Request struct {
	Ref    Ref
	Offset int64
	Length int64
}

// Response carries the bytes of a range and the file's total size.
type Response struct {
	Offset    int64
	Data      []byte
	TotalSize int64
}

// End returns the address one past the returned data.
func (r Response) End() int64 { return r.Offset + int64(len(r.Data)) }

// Source provides byte ranges of files. Response.Data belongs to the caller,
// which may modify it.
type Source interface {
	Fetch(ctx context.Context, req Request) (Response, error)
}

// Func adapts a function to Source.
type Func func(ctx context.Context, req Request) (Response, error)

// Fetch implements Source.
func (f Func) Fetch(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Validate checks a request before it is sent.
func (r Request) Validate() error {
	if r.Offset < 0 || r.Length < 0 {
		return fmt.Errorf("%w: offset=%d length=%d", ErrInvalidRange, r.Offset, r.Length)
	}
	return nil
}

// Check verifies that resp answers req: it starts at the requested offset,
// returns no more than was asked for, and stays inside the reported size.
func Check(req Request, resp Response) error {
	switch {
	case resp.TotalSize < 0:
		return fmt.Errorf("%w: negative total size %d", ErrBadResponse, resp.TotalSize)
	case resp.Offset != req.Offset && len(resp.Data) > 0:
		return fmt.Errorf("%w: offset %#x, requested %#x", ErrBadResponse, resp.Offset, req.Offset)
	case int64(len(resp.Data)) > req.Length:
		return fmt.Errorf("%w: %d bytes, requested %d", ErrBadResponse, len(resp.Data), req.Length)
	case resp.End() > resp.TotalSize && len(resp.Data) > 0:
		return fmt.Errorf("%w: data ends at %#x past size %#x", ErrBadResponse, resp.End(), resp.TotalSize)
	}
	return nil
}
