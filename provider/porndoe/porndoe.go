// Package porndoe resolves PornDoe videos, which are only rendered after an age gate is dismissed in a browser.
package porndoe

import (
	"context"
	"regexp"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/provider"
)

const ageGateScript = "document.getElementsByClassName('age-btn')[0].click();"

var urlRegexp = regexp.MustCompile(`porndoe\.com/.+`)

type Rule struct {
	provider.Base
}

func New() *Rule {
	return &Rule{Base: provider.Base{DisplayName: "PornDoe", WebDriver: true}}
}

func (r *Rule) CanHandleURL(_ context.Context, res *video_fetcher.Resolution) (bool, error) {
	return provider.MatchHTTP(urlRegexp, res.URL), nil
}

func (r *Rule) DoesVideoExist(ctx context.Context, res *video_fetcher.Resolution) (bool, error) {
	_, err := provider.LoadRendered(ctx, res, provider.Render(res.URL, ageGateScript))
	return provider.Exists(err)
}

func (r *Rule) FindVideoTitle(ctx context.Context, res *video_fetcher.Resolution) (string, error) {
	doc, err := provider.LoadRendered(ctx, res, provider.Render(res.URL, ageGateScript))
	if err != nil {
		return "", err
	}
	return provider.Text(doc, "h1.-heading")
}

func (r *Rule) FindVideoDirectURL(ctx context.Context, res *video_fetcher.Resolution) (string, error) {
	doc, err := provider.LoadRendered(ctx, res, provider.Render(res.URL, ageGateScript))
	if err != nil {
		return "", err
	}
	return provider.Attr(doc, `meta[itemprop="contentUrl"]`, "content")
}
