package vidoza

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	assert_ "github.com/stretchr/testify/assert"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/fetch"
)

func TestCanHandleURL(t *testing.T) {
	assert := assert_.New(t)
	rule := New()
	for _, input := range []string{"https://vidoza.net/abc.html", "https://videzz.net/embed-abc.html"} {
		ok, err := rule.CanHandleURL(context.Background(), &video_fetcher.Resolution{URL: input})
		assert.NoError(err)
		assert.True(ok, input)
	}
	ok, _ := rule.CanHandleURL(context.Background(), &video_fetcher.Resolution{URL: "https://vidoza.org/abc.html"})
	assert.False(ok)
}

func TestExtract(t *testing.T) {
	assert := assert_.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/abc.html":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><body><h1> Beach Day </h1><video><source src="https://str.vidoza.net/v.mp4" type="video/mp4"></video></body></html>`))
		case "/embed.html":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><body><video><source src="https://str.vidoza.net/e.mp4"></video></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	rule := New()
	ctx := context.Background()
	res := &video_fetcher.Resolution{URL: server.URL + "/abc.html", Client: fetch.New()}
	exists, err := rule.DoesVideoExist(ctx, res)
	assert.NoError(err)
	assert.True(exists)
	title, err := rule.FindVideoTitle(ctx, res)
	assert.NoError(err)
	assert.Equal("Beach Day", title)
	directURL, err := rule.FindVideoDirectURL(ctx, res)
	assert.NoError(err)
	assert.Equal("https://str.vidoza.net/v.mp4", directURL)

	embed := &video_fetcher.Resolution{URL: server.URL + "/embed.html", Client: fetch.New()}
	title, err = rule.FindVideoTitle(ctx, embed)
	assert.NoError(err)
	assert.Equal("Vidoza", title)

	gone := &video_fetcher.Resolution{URL: server.URL + "/gone.html", Client: fetch.New()}
	exists, err = rule.DoesVideoExist(ctx, gone)
	assert.NoError(err)
	assert.False(exists)
}
