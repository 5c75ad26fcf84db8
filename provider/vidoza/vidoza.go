// Package vidoza resolves videos hosted on Vidoza.
package vidoza

import (
	"context"
	"regexp"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/provider"
)

var urlRegexp = regexp.MustCompile(`vid(?:oza|ezz)\.net/.+`)

type Rule struct {
	provider.Base
}

func New() *Rule {
	return &Rule{Base: provider.Base{DisplayName: "Vidoza"}}
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
	return provider.TextOr(doc, "h1", "Vidoza"), nil
}

func (r *Rule) FindVideoDirectURL(ctx context.Context, res *video_fetcher.Resolution) (string, error) {
	doc, err := provider.LoadHTML(ctx, res, res.URL)
	if err != nil {
		return "", err
	}
	return provider.Attr(doc, "source", "src")
}
