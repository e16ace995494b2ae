// Package materialize produces an edited copy of a file without mutating
// the source.
//
// Materialize fetches the complete file in one request, independent of
// whatever the viewer currently has loaded, and applies the pending edits on
// top. Stream does the same in fixed-size chunks for files too large to
// buffer. Neither clears the overlay: saving writes a copy and the original
// stays untouched.
package materialize

import (
	"context"
	"fmt"
	"io"

	"github.com/zeebo/xxh3"

	"github.com/joshuapare/hexkit/hexview/overlay"
	"github.com/joshuapare/hexkit/hexview/source"
)

// NamePrefix is prepended to the original file name of an export.
const NamePrefix = "modified_"

// DefaultChunkSize is the fetch size used by Stream.
const DefaultChunkSize = 1 << 20

// Export is a fully materialized, edited copy.
type Export struct {
	Name     string // suggested file name
	Data     []byte // nil when the export was streamed
	Size     int64  // bytes written
	Applied  int    // edits written into Data
	Ignored  int    // edits past the end of the file
	Checksum uint64 // xxh3-64 of Data
}

// SuggestedName returns the export name for ref.
func SuggestedName(ref source.Ref) string {
	return NamePrefix + ref.Name()
}

// Materialize fetches all totalSize bytes of ref and applies ov.
//
// Edits at or past the end of the fetched file are skipped and counted in
// Export.Ignored.
func Materialize(ctx context.Context, src source.Source, ref source.Ref, totalSize int64, ov *overlay.Overlay) (Export, error) {
	if ov == nil || ov.Count() == 0 {
		return Export{}, ErrNothingToSave
	}
	req := source.Request{Ref: ref, Offset: 0, Length: totalSize}
	resp, err := src.Fetch(ctx, req)
	if err != nil {
		return Export{}, fmt.Errorf("materialize: fetch %s: %w", ref, err)
	}
	if err := source.Check(req, resp); err != nil {
		return Export{}, fmt.Errorf("materialize: %w", err)
	}
	if int64(len(resp.Data)) < resp.TotalSize {
		return Export{}, fmt.Errorf("%w: got %d of %d bytes", ErrIncomplete, len(resp.Data), resp.TotalSize)
	}

	data := resp.Data
	exp := Export{Name: SuggestedName(ref), Data: data, Size: int64(len(data))}
	ov.Each(func(addr int64, value byte) bool {
		if addr < int64(len(data)) {
			data[addr] = value
			exp.Applied++
		} else {
			exp.Ignored++
		}
		return true
	})
	exp.Checksum = xxh3.Hash(data)
	return exp, nil
}

// StreamResult summarizes a streamed export.
type StreamResult struct {
	Written  int64
	Applied  int
	Ignored  int
	Checksum uint64
}

// Stream writes the edited file to w in chunks of chunkSize bytes
// (DefaultChunkSize if <= 0), holding at most one chunk in memory.
func Stream(ctx context.Context, src source.Source, ref source.Ref, totalSize int64, ov *overlay.Overlay, w io.Writer, chunkSize int64) (StreamResult, error) {
	if ov == nil || ov.Count() == 0 {
		return StreamResult{}, ErrNothingToSave
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	var res StreamResult
	h := xxh3.New()
	out := io.MultiWriter(w, h)
	for off := int64(0); off < totalSize; {
		req := source.Request{Ref: ref, Offset: off, Length: min(chunkSize, totalSize-off)}
		resp, err := src.Fetch(ctx, req)
		if err != nil {
			return res, fmt.Errorf("materialize: fetch %s at %#x: %w", ref, off, err)
		}
		if err := source.Check(req, resp); err != nil {
			return res, fmt.Errorf("materialize: %w", err)
		}
		if len(resp.Data) == 0 {
			return res, fmt.Errorf("%w: no data at %#x of %#x", ErrIncomplete, off, totalSize)
		}

		chunk := resp.Data
		for _, e := range ov.Within(off, off+int64(len(chunk))) {
			chunk[e.Addr-off] = e.Value
			res.Applied++
		}
		n, err := out.Write(chunk)
		res.Written += int64(n)
		if err != nil {
			return res, fmt.Errorf("materialize: write: %w", err)
		}
		off += int64(len(chunk))
	}
	res.Ignored = ov.Count() - res.Applied
	res.Checksum = h.Sum64()
	return res, nil
}
