// Package webdriver is a minimal W3C WebDriver client, enough to render a page in a real browser and read back its
// source.
package webdriver

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/alanbriolat/video-fetcher/fetch"
)

var (
	ErrNoSession = errors.New("webdriver did not return a session id")
)

// An Error is a failure reported by the WebDriver itself.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("webdriver: %v", e.Err)
	}
	return fmt.Sprintf("webdriver: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Client struct {
	baseURL string
	http    *fetch.Client
}

// New connects to a WebDriver listening on localhost.
func New(port int, client *fetch.Client) *Client {
	return NewWithBaseURL(fmt.Sprintf("http://localhost:%d", port), client)
}

func NewWithBaseURL(baseURL string, client *fetch.Client) *Client {
	return &Client{baseURL: baseURL, http: client}
}

// NewSession starts a browser session. The caller must Close it.
func (c *Client) NewSession(ctx context.Context) (*Session, error) {
	body, err := c.http.PostJSON(ctx, c.baseURL+"/session", map[string]any{
		"capabilities": map[string]any{},
	})
	if err != nil {
		return nil, wrapError(err)
	}
	result := gjson.ParseBytes(body)
	id := result.Get("value.sessionId").String()
	if id == "" {
		// Pre-W3C drivers put it at the top level
		id = result.Get("sessionId").String()
	}
	if id == "" {
		return nil, ErrNoSession
	}
	return &Session{client: c, id: id}, nil
}

// Run opens a session, calls f with it, and always deletes the session afterwards.
func (c *Client) Run(ctx context.Context, f func(s *Session) error) error {
	s, err := c.NewSession(ctx)
	if err != nil {
		return err
	}
	err = f(s)
	if closeErr := s.Close(context.WithoutCancel(ctx)); err == nil {
		err = closeErr
	}
	return err
}

type Session struct {
	client *Client
	id     string
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) url(path string) string {
	return fmt.Sprintf("%s/session/%s%s", s.client.baseURL, s.id, path)
}

// Navigate loads url in the browser and waits for it to load.
func (s *Session) Navigate(ctx context.Context, url string) error {
	_, err := s.client.http.PostJSON(ctx, s.url("/url"), map[string]any{"url": url})
	return wrapError(err)
}

// Execute runs a synchronous script in the current page and returns its result.
func (s *Session) Execute(ctx context.Context, script string, args ...any) (gjson.Result, error) {
	if args == nil {
		args = []any{}
	}
	body, err := s.client.http.PostJSON(ctx, s.url("/execute/sync"), map[string]any{
		"script": script,
		"args":   args,
	})
	if err != nil {
		return gjson.Result{}, wrapError(err)
	}
	return gjson.GetBytes(body, "value"), nil
}

// Source returns the current DOM serialized as HTML.
func (s *Session) Source(ctx context.Context) (string, error) {
	body, err := s.client.http.GetBytes(ctx, s.url("/source"))
	if err != nil {
		return "", wrapError(err)
	}
	return gjson.GetBytes(body, "value").String(), nil
}

// Close deletes the session, closing the browser window.
func (s *Session) Close(ctx context.Context) error {
	_, err := s.client.http.Delete(ctx, s.url(""))
	return wrapError(err)
}

// wrapError extracts the WebDriver error code and message from a failed response.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var statusErr *fetch.StatusError
	if errors.As(err, &statusErr) {
		value := gjson.GetBytes(statusErr.Body, "value")
		if code := value.Get("error").String(); code != "" {
			return &Error{Code: code, Message: value.Get("message").String(), Err: err}
		}
	}
	return &Error{Err: err}
}
