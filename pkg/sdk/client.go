package sdk

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

const defaultTimeout = 60 * time.Second

// Caller context headers, matched by the server's header parsing.
const (
	headerRegion = "X-Caller-Region"
	headerPHI    = "X-Phi-Clearance"
	headerPII    = "X-Pii-Clearance"
)

// Client is a groundline HTTP API client.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("groundline: base URL required")
	}

	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.apiKey,
		httpc:   hc,
	}, nil
}

// Ask runs the full pipeline server-side: route, filter, load, synthesize,
// verify.
func (c *Client) Ask(ctx context.Context, query string, caller Caller) (AskResult, error) {
	var out AskResult
	err := c.do(ctx, http.MethodPost, "/v1/ask", &caller, askRequest{Query: query}, &out)
	return out, err
}

// Route returns the ranked candidates for a query without loading or
// synthesis. topK <= 0 uses the server default.
func (c *Client) Route(ctx context.Context, query string, topK int, caller Caller) ([]Candidate, error) {
	var out routeResponse
	err := c.do(ctx, http.MethodPost, "/v1/route", &caller, routeRequest{Query: query, TopK: topK}, &out)
	return out.Candidates, err
}

// PublishCorpus builds a new index snapshot from the records and swaps it
// in atomically.
func (c *Client) PublishCorpus(ctx context.Context, records []SectionRecord) (Snapshot, error) {
	var out Snapshot
	err := c.do(ctx, http.MethodPost, "/v1/corpus", nil, corpusRequest{Records: records}, &out)
	return out, err
}

// Snapshot returns the currently published index snapshot.
func (c *Client) Snapshot(ctx context.Context) (Snapshot, error) {
	var out Snapshot
	err := c.do(ctx, http.MethodGet, "/v1/snapshot", nil, nil, &out)
	return out, err
}

// Health returns the server health report. A degraded server responds
// with 503; the report is still returned alongside the error.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "/health", nil, nil, &out)
	return out, err
}

// do sends one request. On a non-2xx status the response body is decoded
// into out when possible (the health endpoint returns its report with a
// 503), and the error envelope becomes an *APIError.
func (c *Client) do(ctx context.Context, method, path string, caller *Caller, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return fmt.Errorf("groundline: encode request: %w", err)
		}
		reqBody = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("groundline: build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if caller != nil {
		req.Header.Set(headerRegion, caller.Region)
		if caller.PHIClearance {
			req.Header.Set(headerPHI, "true")
		}
		if caller.PIIClearance {
			req.Header.Set(headerPII, "true")
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("groundline: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("groundline: read response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("groundline: decode response: %w", err)
		}
		return nil
	}

	if out != nil {
		_ = json.Unmarshal(data, out)
	}
	return apiError(resp.StatusCode, resp.Status, data)
}

func apiError(statusCode int, status string, data []byte) error {
	var envelope struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Code == "" {
		return &APIError{StatusCode: statusCode, Code: CodeInternal, Message: status}
	}
	return &APIError{StatusCode: statusCode, Code: envelope.Code, Message: envelope.Message}
}
