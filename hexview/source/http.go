package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxErrorBody bounds how much of a failed reply is read for its message.
const maxErrorBody = 4 << 10

// HTTP fetches ranges from a remote range endpoint.
type HTTP struct {
	endpoint string
	client   *http.Client
}

// HTTPOption configures an HTTP source.
type HTTPOption func(*HTTP)

// WithHTTPClient overrides the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTP) { h.client = c }
}

// NewHTTP creates a source talking to the server at baseURL
// (e.g. "http://localhost:8080").
func NewHTTP(baseURL string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		endpoint: strings.TrimRight(baseURL, "/") + RangePath,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Endpoint returns the full URL requests are posted to.
func (h *HTTP) Endpoint() string { return h.endpoint }

// Fetch implements Source.
func (h *HTTP) Fetch(ctx context.Context, req Request) (Response, error) {
	if err := req.Validate(); err != nil {
		return Response{}, err
	}
	body, err := json.Marshal(WireRequest{
		ImagePath: string(req.Ref),
		Offset:    req.Offset,
		Length:    req.Length,
	})
	if err != nil {
		return Response{}, fmt.Errorf("source: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("source: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := h.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("source: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return Response{}, statusError(httpResp)
	}
	var wire WireResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&wire); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if wire.Error != "" {
		return Response{}, errors.New("source: " + wire.Error)
	}
	return Response{Offset: wire.Offset, Data: wire.Data, TotalSize: wire.TotalSize}, nil
}

// statusError reads a bounded prefix of a failed reply once and reports the
// server's JSON error message if there is one, else the raw text.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var wire WireResponse
	if json.Unmarshal(raw, &wire) == nil && wire.Error != "" {
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrNotFound, wire.Error)
		}
		return errors.New("source: " + wire.Error)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, resp.Status)
	}
	return fmt.Errorf("source: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
}
