package pr0gramm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	assert_ "github.com/stretchr/testify/assert"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/fetch"
)

func TestExtract(t *testing.T) {
	assert := assert_.New(t)
	var requested string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Cat jumps</title></head><body><video src="//vid.pr0gramm.com/2024/01/cat.mp4"></video></body></html>`))
	}))
	defer server.Close()

	rule := NewWithBaseURL(server.URL + "/")
	ctx := context.Background()
	res := &video_fetcher.Resolution{URL: "https://pr0gramm.com/new/uploads/5551234", Client: fetch.New()}

	ok, err := rule.CanHandleURL(ctx, res)
	assert.NoError(err)
	assert.True(ok)
	exists, err := rule.DoesVideoExist(ctx, res)
	assert.NoError(err)
	assert.True(exists)
	assert.Equal("/static/5551234", requested)

	title, err := rule.FindVideoTitle(ctx, res)
	assert.NoError(err)
	assert.Equal("Cat jumps", title)
	directURL, err := rule.FindVideoDirectURL(ctx, res)
	assert.NoError(err)
	assert.Equal("https://vid.pr0gramm.com/2024/01/cat.mp4", directURL)

	ok, _ = rule.CanHandleURL(ctx, &video_fetcher.Resolution{URL: "https://pr0gramm.com/top"})
	assert.False(ok)
}
