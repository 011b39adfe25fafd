// Package pathstore is a client for the pathstore key/value and links
// service, one of the graph backends trees can be saved to.
package pathstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
)

// Client communicates with the pathstore HTTP API. Calls go through a
// circuit breaker that opens after repeated server-side failures.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient returns a client for the service at baseURL.
func NewClient(baseURL, apiKey string, log *slog.Logger) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "pathstore",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.8
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if log != nil {
				log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			}
		},
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return !se.Temporary()
			}
			return err == nil
		},
	})
	return c
}

// StatusError is a response with an unexpected HTTP status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed if retried.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("pathstore unavailable")

// NodeRequest is the body for PUT /kv/{key}.
type NodeRequest struct {
	Value      any     `json:"value"`
	MergeMode  string  `json:"merge_mode,omitempty"`
	MemoryType string  `json:"memory_type,omitempty"`
	Salience   float64 `json:"salience,omitempty"`
	Source     string  `json:"source,omitempty"`
}

// NodeResponse is the response from GET /kv/{key}.
type NodeResponse struct {
	Key   string `json:"key_path"`
	Value any    `json:"value"`
}

// LinkRequest is the body for PUT /links.
type LinkRequest struct {
	From          string  `json:"from_key"`
	To            string  `json:"to_key"`
	Weight        float64 `json:"weight"`
	Summary       string  `json:"summary,omitempty"`
	Bidirectional bool    `json:"bidirectional,omitempty"`
}

// do sends one request through the breaker and returns the status and up
// to 10MB of body. Statuses outside ok are returned as *StatusError.
func (c *Client) do(ctx context.Context, op, method, u string, body any, ok ...int) (int, []byte, error) {
	type result struct {
		status int
		body   []byte
	}
	out, err := c.breaker.Execute(func() (any, error) {
		var rd io.Reader
		if body != nil {
			b, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("marshal %s: %w", op, err)
			}
			rd = bytes.NewReader(b)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, rd)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
		if err != nil {
			return nil, fmt.Errorf("%s: read body: %w", op, err)
		}
		for _, code := range ok {
			if resp.StatusCode == code {
				return result{resp.StatusCode, data}, nil
			}
		}
		if len(data) > 1024 {
			data = data[:1024]
		}
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(data)}
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return 0, nil, fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	if err != nil {
		return 0, nil, err
	}
	r := out.(result)
	return r.status, r.body, nil
}

// PutNode stores or updates a node at the given path.
func (c *Client) PutNode(ctx context.Context, key string, req NodeRequest) error {
	_, _, err := c.do(ctx, "put node "+key, http.MethodPut, c.baseURL+"/kv/"+key, req, http.StatusOK, http.StatusCreated)
	return err
}

// GetNode retrieves a node by key. A missing node is (nil, nil).
func (c *Client) GetNode(ctx context.Context, key string) (*NodeResponse, error) {
	status, body, err := c.do(ctx, "get node "+key, http.MethodGet, c.baseURL+"/kv/"+key, nil, http.StatusOK, http.StatusNotFound)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	var node NodeResponse
	if err := json.Unmarshal(body, &node); err != nil {
		return nil, fmt.Errorf("decode node: %w", err)
	}
	return &node, nil
}

// ListChildrenResponse is a single node from a prefix scan.
type ListChildrenResponse struct {
	Key   string `json:"key_path"`
	Value any    `json:"value"`
}

// ListChildren does a prefix scan under the given key. A limit of zero
// leaves the page size to the server.
func (c *Client) ListChildren(ctx context.Context, key string, limit int) ([]ListChildrenResponse, error) {
	u := c.baseURL + "/kv/" + key + "/*"
	if limit > 0 {
		u += "?limit=" + url.QueryEscape(strconv.Itoa(limit))
	}
	_, body, err := c.do(ctx, "list children "+key, http.MethodGet, u, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var result struct {
		Nodes []ListChildrenResponse `json:"nodes"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode children: %w", err)
	}
	return result.Nodes, nil
}

// PutLink creates or updates an edge between two nodes.
func (c *Client) PutLink(ctx context.Context, req LinkRequest) error {
	_, _, err := c.do(ctx, "put link", http.MethodPut, c.baseURL+"/links", req, http.StatusOK, http.StatusCreated)
	return err
}

// BreakerState reports the circuit breaker state: "closed", "half-open"
// or "open".
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
