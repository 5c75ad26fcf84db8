// Package voe resolves VOE videos. VOE hides behind many redirector domains, so pages are recognised by their player
// rather than by URL.
package voe

import (
	"context"
	"regexp"
	"strings"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/provider"
	"github.com/alanbriolat/video-fetcher/util"
)

const playerMarker = "VOEPlayer"

var (
	redirectRegexp = regexp.MustCompile(`window\.location\.href = '(.*?)'`)
	sourceRegexp   = regexp.MustCompile(`Node", "([^"]+)`)
)

type Rule struct {
	provider.Base
}

func New() *Rule {
	return &Rule{Base: provider.Base{DisplayName: "VOE", Playlist: true, Extension: "ts"}}
}

// CanHandleURL follows any JavaScript redirect and checks for the VOE player. The player page is kept for the rest
// of the resolution.
func (r *Rule) CanHandleURL(ctx context.Context, res *video_fetcher.Resolution) (bool, error) {
	if !util.IsHTTP(res.URL) {
		return false, nil
	}
	page, err := res.Page.Load(func() (string, error) {
		body, err := res.Client.GetPage(ctx, res.URL)
		if err != nil {
			return "", err
		}
		target := redirectRegexp.FindStringSubmatch(body)
		if target == nil || target[1] == "" {
			return body, nil
		}
		video_fetcher.Logger(ctx).Sugar().Debugf("following redirect to %v", target[1])
		return res.Client.GetPage(ctx, target[1])
	})
	if err != nil {
		return false, err
	}
	return strings.Contains(page, playerMarker), nil
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
	// Embedded players have no title
	return provider.TextOr(doc, "h1.mt-1", "VOE"), nil
}

func (r *Rule) FindVideoDirectURL(ctx context.Context, res *video_fetcher.Resolution) (string, error) {
	if _, err := provider.LoadHTML(ctx, res, res.URL); err != nil {
		return "", err
	}
	return provider.Submatch(sourceRegexp, res.Page.Document)
}
