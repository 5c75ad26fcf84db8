package spankbang

import (
	"context"
	"strings"
	"testing"

	assert_ "github.com/stretchr/testify/assert"

	"github.com/alanbriolat/video-fetcher"
)

func TestTitleFromURL(t *testing.T) {
	assert := assert_.New(t)
	title, err := titleFromURL("https://spankbang.com/8abcd/video/some+video+title")
	assert.NoError(err)
	assert.Equal("some_video_title-8abcd", title)

	long := strings.Repeat("x", 200)
	title, err = titleFromURL("https://spankbang.com/8abcd/video/" + long)
	assert.NoError(err)
	assert.Equal(strings.Repeat("x", MaxDescriptionLength)+"...-8abcd", title)

	_, err = titleFromURL("https://spankbang.com/8abcd")
	assert.Error(err)
}

func TestExtract(t *testing.T) {
	assert := assert_.New(t)
	rule := New()
	ctx := context.Background()
	assert.True(rule.RequiresWebDriver())

	res := &video_fetcher.Resolution{URL: "https://spankbang.com/8abcd/video/clip"}
	ok, _ := rule.CanHandleURL(ctx, res)
	assert.True(ok)

	// A page rendered earlier in the resolution is reused without a browser
	res.Page.Document = `<html><body><video><source src="https://cdn.example/480.mp4" type="video/mp4"></video></body></html>`
	directURL, err := rule.FindVideoDirectURL(ctx, res)
	assert.NoError(err)
	assert.Equal("https://cdn.example/480.mp4", directURL)
	title, err := rule.FindVideoTitle(ctx, res)
	assert.NoError(err)
	assert.Equal("clip-8abcd", title)
}
