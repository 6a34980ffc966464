// Package contentunderstanding is a minimal client for the Azure AI Content
// Understanding REST API: analyzer management and binary document analysis.
package contentunderstanding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/cu-eval/internal/model"
)

const (
	// DefaultAPIVersion is the api-version query parameter sent on every call.
	DefaultAPIVersion = "2025-05-01-preview"

	subscriptionKeyHeader   = "Ocp-Apim-Subscription-Key"
	operationLocationHeader = "Operation-Location"
)

// Client defines the Content Understanding operations used by the evaluator.
type Client interface {
	// DeleteAnalyzer removes an analyzer. It reports false without an error
	// when the analyzer does not exist.
	DeleteAnalyzer(ctx context.Context, analyzerID string) (bool, error)
	CreateAnalyzer(ctx context.Context, analyzerID string, def AnalyzerDefinition) error
	// AnalyzeBinary submits a document and returns its Operation-Location.
	AnalyzeBinary(ctx context.Context, analyzerID string, data []byte) (string, error)
	GetOperation(ctx context.Context, location string) (*Operation, error)
}

// Operation is the state of an asynchronous analyze request. Raw holds the
// full response body so a succeeded result can be saved verbatim.
type Operation struct {
	ID     string                `json:"id"`
	Status model.OperationStatus `json:"status"`
	Error  *ServiceError         `json:"error,omitempty"`
	Raw    []byte                `json:"-"`
}

// Done reports whether the operation reached a terminal status.
func (o *Operation) Done() bool {
	return o.Status == model.OperationSucceeded || o.Status == model.OperationFailed
}

// ServiceError is the error object embedded in a failed operation.
type ServiceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError is returned when the service responds with an unexpected status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("contentunderstanding: HTTP %d: %s", e.StatusCode, e.Body)
}

// OperationFailedError is returned when an analyze operation ends in Failed.
type OperationFailedError struct {
	Location string
	Code     string
	Message  string
}

func (e *OperationFailedError) Error() string {
	if e.Code == "" && e.Message == "" {
		return fmt.Sprintf("contentunderstanding: operation %s failed", e.Location)
	}
	return fmt.Sprintf("contentunderstanding: operation %s failed: %s: %s", e.Location, e.Code, e.Message)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithAPIVersion overrides the api-version query parameter.
func WithAPIVersion(v string) Option {
	return func(c *httpClient) {
		c.apiVersion = v
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

// WithRateLimit paces outgoing requests to rps requests per second.
// A non-positive rate disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	endpoint   string
	apiKey     string
	apiVersion string
	http       *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client for the resource at endpoint.
func NewClient(endpoint, apiKey string, opts ...Option) Client {
	c := &httpClient{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		apiVersion: DefaultAPIVersion,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) analyzerURL(analyzerID, suffix string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", c.apiVersion)
	return fmt.Sprintf("%s/contentunderstanding/analyzers/%s%s?%s",
		c.endpoint, url.PathEscape(analyzerID), suffix, query.Encode())
}

func (c *httpClient) DeleteAnalyzer(ctx context.Context, analyzerID string) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodDelete, c.analyzerURL(analyzerID, "", nil), nil, "")
	if err != nil {
		return false, eris.Wrap(err, "contentunderstanding: delete analyzer")
	}

	_, _, err = c.do(req)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "contentunderstanding: delete analyzer %s", analyzerID)
	}
	return true, nil
}

func (c *httpClient) CreateAnalyzer(ctx context.Context, analyzerID string, def AnalyzerDefinition) error {
	buf, err := json.Marshal(def)
	if err != nil {
		return eris.Wrap(err, "contentunderstanding: marshal analyzer definition")
	}

	req, err := c.newRequest(ctx, http.MethodPut, c.analyzerURL(analyzerID, "", nil), buf, "application/json")
	if err != nil {
		return eris.Wrap(err, "contentunderstanding: create analyzer")
	}
	if _, _, err := c.do(req); err != nil {
		return eris.Wrapf(err, "contentunderstanding: create analyzer %s", analyzerID)
	}
	return nil
}

func (c *httpClient) AnalyzeBinary(ctx context.Context, analyzerID string, data []byte) (string, error) {
	q := url.Values{}
	q.Set("_overload", "analyzeBinary")

	req, err := c.newRequest(ctx, http.MethodPost, c.analyzerURL(analyzerID, ":analyze", q), data, "application/octet-stream")
	if err != nil {
		return "", eris.Wrap(err, "contentunderstanding: analyze")
	}

	header, _, err := c.do(req)
	if err != nil {
		return "", eris.Wrapf(err, "contentunderstanding: analyze with %s", analyzerID)
	}

	loc := header.Get(operationLocationHeader)
	if loc == "" {
		return "", eris.Errorf("contentunderstanding: analyze with %s: missing %s header", analyzerID, operationLocationHeader)
	}
	return loc, nil
}

func (c *httpClient) GetOperation(ctx context.Context, location string) (*Operation, error) {
	req, err := c.newRequest(ctx, http.MethodGet, location, nil, "")
	if err != nil {
		return nil, eris.Wrap(err, "contentunderstanding: get operation")
	}

	_, body, err := c.do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "contentunderstanding: get operation %s", location)
	}

	var op Operation
	if err := json.Unmarshal(body, &op); err != nil {
		return nil, eris.Wrapf(err, "contentunderstanding: decode operation %s", location)
	}
	op.Raw = body
	return &op, nil
}

func (c *httpClient) newRequest(ctx context.Context, method, target string, body []byte, contentType string) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, r)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set(subscriptionKeyHeader, c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func (c *httpClient) do(req *http.Request) (http.Header, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, nil, eris.Wrap(err, "rate limit wait")
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	return resp.Header, data, nil
}
