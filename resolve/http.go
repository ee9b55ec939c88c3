package resolve

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HTTPService resolves queries against a remote JSON-over-HTTP endpoint.
// It satisfies both AuthoritativeService and FastApproxEngine, so one
// deployment can point either tier at a different endpoint.
type HTTPService struct {
	endpoint string
	client   *http.Client
	token    string
}

// HTTPOption configures an HTTPService.
type HTTPOption func(*HTTPService)

// WithHTTPClient sets a custom http.Client (timeouts come from the
// resolution context, so the client itself usually carries none).
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPService) {
		s.client = c
	}
}

// WithBearerToken sets a static bearer token sent on every request.
func WithBearerToken(token string) HTTPOption {
	return func(s *HTTPService) {
		s.token = token
	}
}

// NewHTTPService creates a resolver that POSTs {"query": ..., "params": ...}
// to the endpoint and treats the response body as the opaque payload.
func NewHTTPService(endpoint string, opts ...HTTPOption) *HTTPService {
	s := &HTTPService{
		endpoint: endpoint,
		client:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type resolveRequest struct {
	Query  string         `json:"query"`
	Params map[string]any `json:"params,omitempty"`
}

// Resolve performs one resolution round trip.
// 404 and 501 map to ErrTierUnsupported so the service can be wired as a
// fast-approximate engine that declines query shapes it cannot answer.
func (s *HTTPService) Resolve(ctx context.Context, query string, params map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(resolveRequest{Query: query, Params: params})
	if err != nil {
		return nil, fmt.Errorf("resolve: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("resolve: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w: %w", ErrTierUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusNotImplemented:
		return nil, ErrTierUnsupported
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("resolve: endpoint returned %s", resp.Status)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("resolve: read response: %w", err)
	}
	if len(payload) > maxPayloadBytes {
		return nil, fmt.Errorf("resolve: response exceeds %d bytes", maxPayloadBytes)
	}
	return payload, nil
}

// maxPayloadBytes bounds a single resolved payload.
const maxPayloadBytes = 8 << 20

// Ensure HTTPService implements both tier capabilities
var (
	_ AuthoritativeService = (*HTTPService)(nil)
	_ FastApproxEngine     = (*HTTPService)(nil)
)
