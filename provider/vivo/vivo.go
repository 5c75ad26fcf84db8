// Package vivo resolves videos hosted on VIVO, whose stream URLs are obfuscated in the page.
package vivo

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/provider"
)

var (
	urlRegexp    = regexp.MustCompile(`vivo\.sx/.+`)
	sourceRegexp = regexp.MustCompile(`source: '(.+?)',`)
)

type Rule struct {
	provider.Base
}

func New() *Rule {
	return &Rule{Base: provider.Base{DisplayName: "VIVO"}}
}

func (r *Rule) CanHandleURL(_ context.Context, res *video_fetcher.Resolution) (bool, error) {
	return provider.MatchHTTP(urlRegexp, res.URL), nil
}

func (r *Rule) DoesVideoExist(ctx context.Context, res *video_fetcher.Resolution) (bool, error) {
	_, err := provider.LoadHTML(ctx, res, res.URL)
	return provider.Exists(err)
}

func (r *Rule) FindVideoTitle(ctx context.Context, res *video_fetcher.Resolution) (string, error) {
	doc, err := provider.LoadHTML(ctx, res, res.URL)
	if err != nil {
		return "", err
	}
	return provider.Attr(doc, "div.stream-content", "data-name")
}

func (r *Rule) FindVideoDirectURL(ctx context.Context, res *video_fetcher.Resolution) (string, error) {
	if _, err := provider.LoadHTML(ctx, res, res.URL); err != nil {
		return "", err
	}
	source, err := provider.Submatch(sourceRegexp, res.Page.Document)
	if err != nil {
		return "", err
	}
	decoded, err := url.QueryUnescape(source)
	if err != nil {
		return "", fmt.Errorf("invalid source: %w", err)
	}
	return rot47(decoded), nil
}

// rot47 rotates printable ASCII ('!' to '~') by 47 places, leaving everything else alone.
func rot47(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c >= '!' && c <= '~' {
			out[i] = '!' + (c-'!'+47)%94
		}
	}
	return string(out)
}
