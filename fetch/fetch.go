// Package fetch is the single HTTP configuration shared by every rule and by the download engine.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
	// MaxPageSize bounds how much of a document GetPage will read.
	MaxPageSize = 8 << 20
	// errorBodySize bounds how much of a failed response body is kept in StatusError.
	errorBodySize = 4 << 10
)

var (
	ErrNotAPage = errors.New("response is not a text document")
)

// StatusError is returned for any response outside the 2xx range.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsNotFound reports whether err is a StatusError meaning the resource is gone.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusNotFound || statusErr.StatusCode == http.StatusGone
	}
	return false
}

type Client struct {
	http      *http.Client
	userAgent string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client entirely, including its proxy configuration.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.http = c
	}
}

// WithTimeout sets an overall per-request timeout. The default is no timeout.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.http.Timeout = d
	}
}

func WithUserAgent(ua string) Option {
	return func(client *Client) {
		if ua != "" {
			client.userAgent = ua
		}
	}
}

// New creates a Client. Proxies are taken from HTTP_PROXY, HTTPS_PROXY and NO_PROXY.
func New(opts ...Option) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyFromEnvironment
	c := &Client{
		http:      &http.Client{Transport: transport},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HTTPClient exposes the configured client for libraries that bring their own request logic.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Do executes req. Non-2xx responses are closed and returned as a *StatusError.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodySize))
		return nil, &StatusError{
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}
	return resp, nil
}

// Get issues a GET. The caller must close the response body.
func (c *Client) Get(ctx context.Context, url string, opts ...RequestOption) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, url, nil, opts)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

func (c *Client) GetBytes(ctx context.Context, url string, opts ...RequestOption) ([]byte, error) {
	resp, err := c.Get(ctx, url, opts...)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *Client) GetString(ctx context.Context, url string, opts ...RequestOption) (string, error) {
	body, err := c.GetBytes(ctx, url, opts...)
	return string(body), err
}

// GetPage is like GetString, but refuses media responses and reads at most MaxPageSize bytes, so it is safe to
// call on URLs that might turn out to be large binary files.
func (c *Client) GetPage(ctx context.Context, url string, opts ...RequestOption) (string, error) {
	resp, err := c.Get(ctx, url, opts...)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if !isTextual(resp.Header.Get("Content-Type")) {
		return "", fmt.Errorf("%w: %s", ErrNotAPage, resp.Header.Get("Content-Type"))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxPageSize))
	return string(body), err
}

// PostJSON marshals body as JSON, POSTs it and returns the response body.
func (c *Client) PostJSON(ctx context.Context, url string, body any, opts ...RequestOption) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	opts = append([]RequestOption{WithHeader("Content-Type", "application/json")}, opts...)
	req, err := c.newRequest(ctx, http.MethodPost, url, bytes.NewReader(data), opts)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *Client) Delete(ctx context.Context, url string, opts ...RequestOption) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodDelete, url, nil, opts)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *Client) newRequest(ctx context.Context, method string, url string, body io.Reader, opts []RequestOption) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for _, opt := range opts {
		opt(req)
	}
	return req, nil
}

// ContentLength returns the declared body size of resp, or 0 when unknown.
func ContentLength(resp *http.Response) int64 {
	if resp.ContentLength < 0 {
		return 0
	}
	return resp.ContentLength
}

func isTextual(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return true
	}
	switch {
	case strings.HasPrefix(mediaType, "video/"), strings.HasPrefix(mediaType, "audio/"), strings.HasPrefix(mediaType, "image/"):
		return false
	case mediaType == "application/octet-stream":
		return false
	}
	return true
}
