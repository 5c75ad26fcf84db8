package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
)

func TestClient_Headers(t *testing.T) {
	assert := assert_.New(t)
	var header http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	client := New()
	body, err := client.GetString(context.Background(), server.URL, WithReferer("https://example.com/watch"), WithRange(1234))
	assert.NoError(err)
	assert.Equal("ok", body)
	assert.Equal(DefaultUserAgent, header.Get("User-Agent"))
	assert.Equal("https://example.com/watch", header.Get("Referer"))
	assert.Equal("bytes=1234-", header.Get("Range"))

	_, err = New(WithUserAgent("fetch-video-test")).GetString(context.Background(), server.URL, WithReferer(""))
	assert.NoError(err)
	assert.Equal("fetch-video-test", header.Get("User-Agent"))
	assert.Empty(header.Get("Referer"))
}

func TestClient_StatusError(t *testing.T) {
	assert := assert_.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gone":
			w.WriteHeader(http.StatusGone)
		case "/missing":
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, strings.Repeat("x", 10000))
		}
	}))
	defer server.Close()

	client := New()
	_, err := client.GetString(context.Background(), server.URL+"/missing")
	assert.True(IsNotFound(err))
	_, err = client.GetString(context.Background(), server.URL+"/gone")
	assert.True(IsNotFound(err))

	_, err = client.GetString(context.Background(), server.URL+"/private")
	assert.False(IsNotFound(err))
	var statusErr *StatusError
	if assert.ErrorAs(err, &statusErr) {
		assert.Equal(http.StatusForbidden, statusErr.StatusCode)
		assert.Equal(http.MethodGet, statusErr.Method)
		assert.Len(statusErr.Body, errorBodySize)
		assert.Contains(statusErr.Error(), "HTTP 403 Forbidden")
	}
	assert.False(IsNotFound(nil))
}

func TestClient_GetPage(t *testing.T) {
	assert := assert_.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/video.mp4":
			w.Header().Set("Content-Type", "video/mp4")
		case "/blob":
			w.Header().Set("Content-Type", "application/octet-stream")
		default:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}
		io.WriteString(w, "<html></html>")
	}))
	defer server.Close()

	client := New()
	page, err := client.GetPage(context.Background(), server.URL+"/watch")
	assert.NoError(err)
	assert.Equal("<html></html>", page)
	_, err = client.GetPage(context.Background(), server.URL+"/video.mp4")
	assert.ErrorIs(err, ErrNotAPage)
	_, err = client.GetPage(context.Background(), server.URL+"/blob")
	assert.ErrorIs(err, ErrNotAPage)
}

func TestClient_PostJSONAndDelete(t *testing.T) {
	assert := assert_.New(t)
	var method, contentType, body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		method, contentType, body = r.Method, r.Header.Get("Content-Type"), string(data)
		io.WriteString(w, `{"value":null}`)
	}))
	defer server.Close()

	client := New()
	resp, err := client.PostJSON(context.Background(), server.URL, map[string]string{"url": "https://example.com"})
	assert.NoError(err)
	assert.JSONEq(`{"value":null}`, string(resp))
	assert.Equal(http.MethodPost, method)
	assert.Equal("application/json", contentType)
	assert.JSONEq(`{"url":"https://example.com"}`, body)

	_, err = client.Delete(context.Background(), server.URL)
	assert.NoError(err)
	assert.Equal(http.MethodDelete, method)
}

func TestClient_Timeout(t *testing.T) {
	assert := assert_.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := New(WithTimeout(20 * time.Millisecond))
	_, err := client.GetString(context.Background(), server.URL)
	assert.Error(err)
	assert.Equal(20*time.Millisecond, client.HTTPClient().Timeout)
}

func TestContentLength(t *testing.T) {
	assert := assert_.New(t)
	assert.Equal(int64(0), ContentLength(&http.Response{ContentLength: -1}))
	assert.Equal(int64(42), ContentLength(&http.Response{ContentLength: 42}))
}
