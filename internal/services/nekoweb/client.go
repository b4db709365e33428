package nekoweb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultBaseURL is the root of the public Nekoweb API.
	DefaultBaseURL   = "https://nekoweb.org/api"
	DefaultUserAgent = "gonekoweb"
	// DefaultChunkSize is the read buffer used by big-file uploads. Every
	// non-empty read becomes one append request.
	DefaultChunkSize = 4096
)

// transport is shared by both client states. It is never mutated after
// NewClient returns.
type transport struct {
	baseURL    string
	userAgent  string
	chunkSize  int
	httpClient *http.Client
	logger     *logrus.Logger
}

// Response is a successful (2xx) API response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Text returns the response body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Client is an unauthenticated Nekoweb client. It can only read public
// site information; call Authenticate to get an AuthClient.
type Client struct {
	*transport
}

// AuthClient is a Nekoweb client holding an API key.
type AuthClient struct {
	*transport
	apiKey string
}

var _ API = (*AuthClient)(nil)

// Option customizes a Client during construction.
type Option func(*transport)

// WithBaseURL overrides the API root (useful for tests and the mock server).
func WithBaseURL(baseURL string) Option {
	return func(t *transport) {
		t.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(t *transport) {
		t.userAgent = userAgent
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(t *transport) {
		if httpClient != nil {
			t.httpClient = httpClient
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *logrus.Logger) Option {
	return func(t *transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithChunkSize sets the read buffer size for big-file uploads.
func WithChunkSize(size int) Option {
	return func(t *transport) {
		if size > 0 {
			t.chunkSize = size
		}
	}
}

// NewClient creates a new unauthenticated Nekoweb client
func NewClient(opts ...Option) *Client {
	t := &transport{
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		chunkSize:  DefaultChunkSize,
		httpClient: &http.Client{},
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return &Client{transport: t}
}

// Authenticate returns an AuthClient carrying apiKey. The transport is
// shared, not copied. There is no way back from an AuthClient.
func (c *Client) Authenticate(apiKey string) *AuthClient {
	return &AuthClient{
		transport: c.transport,
		apiKey:    apiKey,
	}
}

// BaseURL returns the API root this client talks to.
func (t *transport) BaseURL() string {
	return t.baseURL
}

// doRequest sends a request to baseURL+path. apiKey is attached verbatim as
// the Authorization header when non-empty. Non-2xx responses are returned as
// *APIError.
func (t *transport) doRequest(ctx context.Context, method, path, apiKey string, body io.Reader, contentType string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", t.userAgent)
	if apiKey != "" {
		req.Header.Set("Authorization", apiKey)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: error reading response: %w", method, path, err)
	}

	t.logger.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
		"status": resp.StatusCode,
		"bytes":  len(data),
	}).Debug("nekoweb request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(data),
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

func (c *Client) get(ctx context.Context, path string) (*Response, error) {
	return c.doRequest(ctx, http.MethodGet, path, "", nil, "")
}

func (c *AuthClient) get(ctx context.Context, path string) (*Response, error) {
	return c.doRequest(ctx, http.MethodGet, path, c.apiKey, nil, "")
}

// postForm sends form as an application/x-www-form-urlencoded body.
func (c *AuthClient) postForm(ctx context.Context, path string, form url.Values) (*Response, error) {
	return c.doRequest(ctx, http.MethodPost, path, c.apiKey,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

// postMultipart builds a multipart/form-data body with fill and posts it.
func (c *AuthClient) postMultipart(ctx context.Context, path string, fill func(w *multipart.Writer) error) (*Response, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := fill(writer); err != nil {
		return nil, fmt.Errorf("error building form for %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	return c.doRequest(ctx, http.MethodPost, path, c.apiKey, &buf, writer.FormDataContentType())
}

func decodeJSON(resp *Response, v any) error {
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}
