package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	assert_ "github.com/stretchr/testify/assert"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/fetch"
)

const testPage = `<html>
<head>
<meta property="og:title" content=" Open Graph Title ">
<meta name="application-name" content="Example">
</head>
<body>
<h1>  Heading  </h1>
<video src="https://cdn.example/v.mp4"></video>
<div class="empty" data-name=""></div>
</body>
</html>`

func testDocument(t *testing.T) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(testPage))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestMarkupHelpers(t *testing.T) {
	assert := assert_.New(t)
	doc := testDocument(t)

	title, err := MetaContent(doc, "og:title")
	assert.NoError(err)
	assert.Equal("Open Graph Title", title)
	name, err := MetaContent(doc, "application-name")
	assert.NoError(err)
	assert.Equal("Example", name)

	text, err := Text(doc, "h1")
	assert.NoError(err)
	assert.Equal("Heading", text)
	_, err = Text(doc, "h2")
	assert.ErrorIs(err, ErrMissingNode)
	assert.Equal("fallback", TextOr(doc, "h2", "fallback"))

	src, err := Attr(doc, "video", "src")
	assert.NoError(err)
	assert.Equal("https://cdn.example/v.mp4", src)
	_, err = Attr(doc, "div.empty", "data-name")
	assert.ErrorIs(err, ErrMissingNode)
}

func TestSubmatch(t *testing.T) {
	assert := assert_.New(t)
	re := regexp.MustCompile(`id: '(\d*)'`)
	id, err := Submatch(re, "player({id: '123'})")
	assert.NoError(err)
	assert.Equal("123", id)
	_, err = Submatch(re, "player({id: ''})")
	assert.ErrorIs(err, ErrMissingNode)
	_, err = Submatch(re, "player({})")
	assert.ErrorIs(err, ErrMissingNode)
}

func TestMatchHTTP(t *testing.T) {
	assert := assert_.New(t)
	re := regexp.MustCompile(`example\.com/.+`)
	assert.True(MatchHTTP(re, "https://example.com/video"))
	assert.False(MatchHTTP(re, "https://example.com/"))
	assert.False(MatchHTTP(re, "ftp://example.com/video"))
}

func TestExists(t *testing.T) {
	assert := assert_.New(t)
	ok, err := Exists(nil)
	assert.True(ok)
	assert.NoError(err)

	ok, err = Exists(&fetch.StatusError{StatusCode: http.StatusNotFound})
	assert.False(ok)
	assert.NoError(err)

	failure := errors.New("connection reset")
	ok, err = Exists(failure)
	assert.False(ok)
	assert.ErrorIs(err, failure)
}

func TestBase(t *testing.T) {
	assert := assert_.New(t)
	b := Base{DisplayName: "Example"}
	assert.Equal("Example", b.Name())
	assert.False(b.RequiresWebDriver())
	playlist, _ := b.IsPlaylist(context.Background(), nil)
	assert.False(playlist)
	ext, _ := b.FindVideoFileExtension(context.Background(), nil)
	assert.Equal("mp4", ext)

	b = Base{DisplayName: "Segmented", Playlist: true, Extension: "ts", WebDriver: true}
	assert.True(b.RequiresWebDriver())
	playlist, _ = b.IsPlaylist(context.Background(), nil)
	assert.True(playlist)
	ext, _ = b.FindVideoFileExtension(context.Background(), nil)
	assert.Equal("ts", ext)
}

func TestLoadHTML(t *testing.T) {
	assert := assert_.New(t)
	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		assert.Equal("https://example.com/", r.Header.Get("Referer"))
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(testPage))
	}))
	defer server.Close()

	res := &video_fetcher.Resolution{URL: server.URL, Client: fetch.New()}
	for i := 0; i < 2; i++ {
		doc, err := LoadHTML(context.Background(), res, server.URL, fetch.WithReferer("https://example.com/"))
		assert.NoError(err)
		assert.Equal(1, doc.Find("video").Length())
	}
	assert.Equal(1, fetches)
}

func TestLoadRenderedWithoutWebDriver(t *testing.T) {
	assert := assert_.New(t)
	res := &video_fetcher.Resolution{URL: "https://example.com/", Client: fetch.New()}
	_, err := LoadRendered(context.Background(), res, Render(res.URL, ""))
	assert.ErrorIs(err, ErrNoWebDriver)

	// An already loaded page doesn't need the browser again
	res.Page.Document = testPage
	doc, err := LoadRendered(context.Background(), res, Render(res.URL, ""))
	assert.NoError(err)
	assert.Equal(1, doc.Find("h1").Length())
}
