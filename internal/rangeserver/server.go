// Package rangeserver exposes a Source over the JSON range endpoint.
//
//	POST /api/forensic/hex  {"image_path": "...", "offset": 0, "length": 512}
//	  -> {"offset": 0, "data": [..], "total_size": 1234}
//	  -> {"error": "File not found"}            (404)
//
//	GET /api/forensic/hex?path=...&lines=16
//	  -> {"content": "00000000  ..."}            (text dump of the head)
package rangeserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/joshuapare/hexkit/hexview/source"
	"github.com/joshuapare/hexkit/internal/hexfmt"
)

const (
	// DefaultDumpLines is the row count of a GET dump without ?lines.
	DefaultDumpLines = 16

	maxRequestBody = 1 << 20
)

// Options configures a Server.
type Options struct {
	// MaxLength caps the bytes served per request. 0 means unlimited, which
	// full-file export needs.
	MaxLength int64
	Logger    *slog.Logger
}

// Server answers range requests from a Source.
type Server struct {
	src  source.Source
	opts Options
	log  *slog.Logger
	mux  *http.ServeMux
}

// New creates a server over src.
func New(src source.Source, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{src: src, opts: opts, log: log, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST "+source.RangePath, s.handleRange)
	s.mux.HandleFunc("GET "+source.RangePath, s.handleDump)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	var req source.WireRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ImagePath == "" {
		writeError(w, http.StatusBadRequest, "image_path is required")
		return
	}
	if req.Offset < 0 || req.Length < 0 {
		writeError(w, http.StatusBadRequest, "offset and length must be non-negative")
		return
	}
	if s.opts.MaxLength > 0 && req.Length > s.opts.MaxLength {
		writeError(w, http.StatusRequestEntityTooLarge,
			"length "+strconv.FormatInt(req.Length, 10)+" exceeds limit "+strconv.FormatInt(s.opts.MaxLength, 10))
		return
	}

	resp, err := s.src.Fetch(r.Context(), source.Request{
		Ref:    source.Ref(req.ImagePath),
		Offset: req.Offset,
		Length: req.Length,
	})
	if err != nil {
		s.log.Warn("range fetch failed", "path", req.ImagePath, "offset", req.Offset, "length", req.Length, "error", err)
		writeFetchError(w, err)
		return
	}
	s.log.Debug("range served", "path", req.ImagePath, "offset", resp.Offset, "bytes", len(resp.Data), "total", resp.TotalSize)
	writeJSON(w, http.StatusOK, source.WireResponse{
		Offset:    resp.Offset,
		Data:      source.ByteList(resp.Data),
		TotalSize: resp.TotalSize,
	})
}

func (s *Server) handleDump(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	lines := DefaultDumpLines
	if v := r.URL.Query().Get("lines"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "lines must be a positive integer")
			return
		}
		lines = n
	}

	const rowWidth = 16
	resp, err := s.src.Fetch(r.Context(), source.Request{
		Ref:    source.Ref(path),
		Length: int64(lines * rowWidth),
	})
	if err != nil {
		writeFetchError(w, err)
		return
	}
	var out bytes.Buffer
	if err := hexfmt.Dump(&out, 0, resp.Data, hexfmt.DumpOptions{BytesPerRow: rowWidth, Lower: true}); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"content": string(bytes.TrimRight(out.Bytes(), "\n")),
	})
}

func writeFetchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, source.ErrNotFound):
		writeError(w, http.StatusNotFound, "File not found")
	case errors.Is(err, source.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, source.WireResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
