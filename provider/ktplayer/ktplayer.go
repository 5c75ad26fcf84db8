// Package ktplayer resolves videos from any site that embeds KT player, possibly inside an iframe. Since it can only
// tell by rendering the page, it should be tried last.
package ktplayer

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/provider"
	"github.com/alanbriolat/video-fetcher/util"
	"github.com/alanbriolat/video-fetcher/webdriver"
)

type Rule struct {
	provider.Base
}

func New() *Rule {
	return &Rule{Base: provider.Base{DisplayName: "KT Player", WebDriver: true}}
}

// CanHandleURL renders the page, which is kept for the rest of the resolution.
func (r *Rule) CanHandleURL(ctx context.Context, res *video_fetcher.Resolution) (bool, error) {
	if !util.IsHTTP(res.URL) {
		return false, nil
	}
	doc, err := r.load(ctx, res)
	if err != nil {
		return false, err
	}
	return doc.Find("div#kt_player").Length() > 0, nil
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
	return provider.MetaContent(doc, "og:title")
}

func (r *Rule) FindVideoDirectURL(ctx context.Context, res *video_fetcher.Resolution) (string, error) {
	doc, err := r.load(ctx, res)
	if err != nil {
		return "", err
	}
	return provider.Attr(doc, "video", "src")
}

func (r *Rule) load(ctx context.Context, res *video_fetcher.Resolution) (*goquery.Document, error) {
	return provider.LoadRendered(ctx, res, func(ctx context.Context, s *webdriver.Session) (string, error) {
		source, err := provider.Render(res.URL, "")(ctx, s)
		if err != nil {
			return "", err
		}
		frame, ok := firstFrame(source, res.URL)
		if !ok {
			return source, nil
		}
		video_fetcher.Logger(ctx).Sugar().Debugf("following iframe %v", frame)
		return provider.Render(frame, "")(ctx, s)
	})
}

// firstFrame returns the absolute URL of the first iframe in source, if any.
func firstFrame(source string, pageURL string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		return "", false
	}
	src, ok := doc.Find("iframe[src]").First().Attr("src")
	if !ok || src == "" {
		return "", false
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return src, true
	}
	ref, err := url.Parse(src)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}
