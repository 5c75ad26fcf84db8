// Package pr0gramm resolves uploads on pr0gramm through its static (no JavaScript) pages.
package pr0gramm

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/provider"
)

const DefaultBaseURL = "https://pr0gramm.com"

var (
	urlRegexp = regexp.MustCompile(`pr0gramm\.com/.+`)
	idRegexp  = regexp.MustCompile(`uploads/(\d+)$`)
)

type Rule struct {
	provider.Base
	baseURL string
}

func New() *Rule {
	return NewWithBaseURL(DefaultBaseURL)
}

// NewWithBaseURL creates a Rule that reads static pages from somewhere other than DefaultBaseURL.
func NewWithBaseURL(baseURL string) *Rule {
	return &Rule{
		Base:    provider.Base{DisplayName: "pr0gramm"},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (r *Rule) CanHandleURL(_ context.Context, res *video_fetcher.Resolution) (bool, error) {
	return provider.MatchHTTP(urlRegexp, res.URL) && idRegexp.MatchString(res.URL), nil
}

func (r *Rule) DoesVideoExist(ctx context.Context, res *video_fetcher.Resolution) (bool, error) {
	_, err := r.load(ctx, res)
	return provider.Exists(err)
}

func (r *Rule) FindVideoTitle(ctx context.Context, res *video_fetcher.Resolution) (string, error) {
	doc, err := r.load(ctx, res)
	if err != nil {
		return "", err
	}
	return provider.TextOr(doc, "title", "pr0gramm"), nil
}

func (r *Rule) FindVideoDirectURL(ctx context.Context, res *video_fetcher.Resolution) (string, error) {
	doc, err := r.load(ctx, res)
	if err != nil {
		return "", err
	}
	src, err := provider.Attr(doc, "video", "src")
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	}
	return src, nil
}

func (r *Rule) load(ctx context.Context, res *video_fetcher.Resolution) (*goquery.Document, error) {
	id, err := provider.Submatch(idRegexp, res.URL)
	if err != nil {
		return nil, err
	}
	return provider.LoadHTML(ctx, res, r.baseURL+"/static/"+id)
}
