package watchmdh

import (
	"context"
	"testing"

	assert_ "github.com/stretchr/testify/assert"

	"github.com/alanbriolat/video-fetcher"
)

const playerSetup = `<html><head><meta property="og:title" content="Rendered Title"></head><body><script>
var flashvars = {
	video_id: '1234',
	video_url: 'function/0/https://cdn.example/get_file/1/low.mp4/',
	video_alt_url: 'function/0/https://cdn.example/get_file/1/high.mp4/',
	rnd: '1700000000',
};
</script></body></html>`

func TestExtract(t *testing.T) {
	assert := assert_.New(t)
	rule := New()
	ctx := context.Background()

	res := &video_fetcher.Resolution{URL: "https://watchmdh.to/video/1234/clip/"}
	ok, _ := rule.CanHandleURL(ctx, res)
	assert.True(ok)

	res.Page.Document = playerSetup
	title, err := rule.FindVideoTitle(ctx, res)
	assert.NoError(err)
	assert.Equal("Rendered Title", title)
	directURL, err := rule.FindVideoDirectURL(ctx, res)
	assert.NoError(err)
	assert.Equal("https://cdn.example/get_file/1/high.mp4/?rnd=1700000000", directURL)
}

func TestExtractWithoutAltURL(t *testing.T) {
	assert := assert_.New(t)
	res := &video_fetcher.Resolution{URL: "https://watchmdh.to/video/1234/clip/"}
	res.Page.Document = `video_url: 'function/0/https://cdn.example/low.mp4',
rnd: '42'`
	directURL, err := New().FindVideoDirectURL(context.Background(), res)
	assert.NoError(err)
	assert.Equal("https://cdn.example/low.mp4?rnd=42", directURL)
}
