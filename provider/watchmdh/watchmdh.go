// Package watchmdh resolves WatchMDH videos from the player setup in the rendered page.
package watchmdh

import (
	"context"
	"regexp"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/provider"
)

var (
	urlRegexp      = regexp.MustCompile(`watchmdh\.to/.+`)
	rndRegexp      = regexp.MustCompile(`rnd: '(\d+)'`)
	altVideoRegexp = regexp.MustCompile(`video_alt_url: 'function/0/(.+?)',`)
	videoRegexp    = regexp.MustCompile(`video_url: 'function/0/(.+?)',`)
)

type Rule struct {
	provider.Base
}

func New() *Rule {
	return &Rule{Base: provider.Base{DisplayName: "WatchMDH", WebDriver: true}}
}

func (r *Rule) CanHandleURL(_ context.Context, res *video_fetcher.Resolution) (bool, error) {
	return provider.MatchHTTP(urlRegexp, res.URL), nil
}

func (r *Rule) DoesVideoExist(ctx context.Context, res *video_fetcher.Resolution) (bool, error) {
	_, err := provider.LoadRendered(ctx, res, provider.Render(res.URL, ""))
	return provider.Exists(err)
}

func (r *Rule) FindVideoTitle(ctx context.Context, res *video_fetcher.Resolution) (string, error) {
	doc, err := provider.LoadRendered(ctx, res, provider.Render(res.URL, ""))
	if err != nil {
		return "", err
	}
	return provider.MetaContent(doc, "og:title")
}

// FindVideoDirectURL prefers the alternative (higher quality) stream, and appends the page's cache-buster.
func (r *Rule) FindVideoDirectURL(ctx context.Context, res *video_fetcher.Resolution) (string, error) {
	if _, err := provider.LoadRendered(ctx, res, provider.Render(res.URL, "")); err != nil {
		return "", err
	}
	rnd, err := provider.Submatch(rndRegexp, res.Page.Document)
	if err != nil {
		return "", err
	}
	video, err := provider.Submatch(altVideoRegexp, res.Page.Document)
	if err != nil {
		if video, err = provider.Submatch(videoRegexp, res.Page.Document); err != nil {
			return "", err
		}
	}
	return video + "?rnd=" + rnd, nil
}
