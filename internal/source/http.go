package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ginjaninja78/registration-report/internal/types"
)

// HTTPSource talks to the spreadsheet web endpoint.
//
// GET returns the records as a JSON array of objects. POST with body
// {"action":"add","record":{...}} appends one record.
type HTTPSource struct {
	url     string
	client  *http.Client
	retries int
	backoff time.Duration
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.client.Timeout = d
		}
	}
}

// WithRetries sets the number of extra attempts after a failed request.
func WithRetries(n int) HTTPOption {
	return func(s *HTTPSource) {
		if n >= 0 {
			s.retries = n
		}
	}
}

// WithBackoff sets the delay before the first retry; it doubles per attempt.
func WithBackoff(d time.Duration) HTTPOption {
	return func(s *HTTPSource) { s.backoff = d }
}

// NewHTTPSource creates a source for the endpoint at url.
func NewHTTPSource(url string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		url:     url,
		client:  &http.Client{Timeout: 30 * time.Second},
		backoff: time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch downloads all records. A body that is not a JSON array of objects is
// reported as types.ErrMalformedInput.
func (s *HTTPSource) Fetch(ctx context.Context) ([]types.RawRecord, error) {
	body, err := s.do(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}

	var records []types.RawRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("%w: decode records: %v", types.ErrMalformedInput, err)
	}
	for i, rec := range records {
		if rec == nil {
			return nil, fmt.Errorf("%w: record %d is not an object", types.ErrMalformedInput, i+1)
		}
	}
	return records, nil
}

type addRequest struct {
	Action string          `json:"action"`
	Record types.RawRecord `json:"record"`
}

// Append posts one record.
func (s *HTTPSource) Append(ctx context.Context, rec types.RawRecord) error {
	payload, err := json.Marshal(addRequest{Action: "add", Record: rec})
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if _, err := s.do(ctx, http.MethodPost, payload); err != nil {
		return err
	}
	return nil
}

// Close releases idle connections.
func (s *HTTPSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// do performs a request with retries. Transport errors and 5xx responses are
// retried with exponential backoff; other non-2xx responses fail at once.
func (s *HTTPSource) do(ctx context.Context, method string, payload []byte) ([]byte, error) {
	attempts := s.retries + 1

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := s.backoff << uint(attempt-1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, s.url, body)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := s.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("HTTP %d from %s", resp.StatusCode, s.url)
			continue
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, s.url)
		case readErr != nil:
			lastErr = readErr
			continue
		}
		return data, nil
	}
	return nil, fmt.Errorf("%s %s failed after %d attempts: %w", method, s.url, attempts, lastErr)
}
