package lookupcli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eve-telescope/telescope-app/internal/domain/model"
	"github.com/eve-telescope/telescope-app/pkg/logger"
)

// ErrStream is returned when a stream ends without a done event.
var ErrStream = errors.New("stream ended unexpectedly")

// APIError is a non-success answer from the service.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("service returned %d", e.Status)
	}
	return fmt.Sprintf("service returned %d %s: %s", e.Status, e.Code, e.Message)
}

// Response is the outcome of one lookup.
type Response struct {
	LookupID string              `json:"lookup_id"`
	Results  []model.PilotRecord `json:"results"`
}

// Client talks to the telescope HTTP API.
type Client struct {
	client  *http.Client
	baseURL string
	logger  logger.Logger
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.Get().Named("client"),
	}
}

// Health verifies the service answers on /healthz.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	defer c.close(ctx, resp)
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// ClearCache drops every cached entry on the service.
func (c *Client) ClearCache(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/cache", nil)
	if err != nil {
		return err
	}
	c.close(ctx, resp)
	return nil
}

// Lookup runs a buffered lookup.
func (c *Client) Lookup(ctx context.Context, names []string) (Response, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/lookup", names)
	if err != nil {
		return Response{}, err
	}
	defer c.close(ctx, resp)

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}

// LookupStream runs a streamed lookup, calling onProgress for every
// progress event. The result is taken from the done event.
func (c *Client) LookupStream(ctx context.Context, names []string, onProgress func(model.Progress)) (Response, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/lookup/stream", names)
	if err != nil {
		return Response{}, err
	}
	defer c.close(ctx, resp)

	var out Response
	err = readEvents(resp.Body, func(event string, data []byte) (bool, error) {
		switch event {
		case model.EventStarted:
			var s model.Started
			if err := json.Unmarshal(data, &s); err != nil {
				return false, fmt.Errorf("decode %s: %w", event, err)
			}
			out.LookupID = s.LookupID
			c.logger.Debug(ctx, "lookup started", logger.String("lookup_id", s.LookupID), logger.Int("total", s.Total))
		case model.EventProgress:
			var p model.Progress
			if err := json.Unmarshal(data, &p); err != nil {
				return false, fmt.Errorf("decode %s: %w", event, err)
			}
			if onProgress != nil {
				onProgress(p)
			}
		case model.EventDone:
			var d model.Done
			if err := json.Unmarshal(data, &d); err != nil {
				return false, fmt.Errorf("decode %s: %w", event, err)
			}
			out.LookupID = d.LookupID
			out.Results = d.Results
			return true, nil
		case model.EventError:
			var f model.Failure
			if err := json.Unmarshal(data, &f); err != nil {
				return false, fmt.Errorf("decode %s: %w", event, err)
			}
			return false, fmt.Errorf("lookup %s failed: %s", f.LookupID, f.Message)
		}
		return false, nil
	})
	if err != nil {
		return Response{}, err
	}
	return out, nil
}

// readEvents parses a server-sent event stream until fn reports done.
func readEvents(r io.Reader, fn func(event string, data []byte) (bool, error)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)

	var event string
	var data []byte
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimSpace(strings.TrimPrefix(line, "data:"))...)
		case line == "":
			if event == "" {
				continue
			}
			done, err := fn(event, data)
			if err != nil || done {
				return err
			}
			event, data = "", nil
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return ErrStream
}

func (c *Client) do(ctx context.Context, method, path string, names []string) (*http.Response, error) {
	var body io.Reader
	if names != nil {
		raw, err := json.Marshal(map[string][]string{"names": names})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to service: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer c.close(ctx, resp)
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return nil, apiErr
	}
	return resp, nil
}

func (c *Client) close(ctx context.Context, resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		c.logger.Error(ctx, "failed to close response body", logger.Error(err))
	}
}
