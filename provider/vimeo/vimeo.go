// Package vimeo resolves Vimeo videos from the player config each clip page links to.
package vimeo

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/provider"
)

var (
	urlRegexp       = regexp.MustCompile(`(?:www\.)?vimeo\.com/.+`)
	configURLRegexp = regexp.MustCompile(`"config_url":"(.+?)"`)
)

type Rule struct {
	provider.Base
}

func New() *Rule {
	return &Rule{Base: provider.Base{DisplayName: "Vimeo"}}
}

func (r *Rule) CanHandleURL(_ context.Context, res *video_fetcher.Resolution) (bool, error) {
	return provider.MatchHTTP(urlRegexp, res.URL), nil
}

func (r *Rule) DoesVideoExist(ctx context.Context, res *video_fetcher.Resolution) (bool, error) {
	_, err := r.config(ctx, res)
	return provider.Exists(err)
}

func (r *Rule) FindVideoTitle(ctx context.Context, res *video_fetcher.Resolution) (string, error) {
	config, err := r.config(ctx, res)
	if err != nil {
		return "", err
	}
	if res.Page.Title != "" {
		return res.Page.Title, nil
	}
	return config.Get("video.title").String(), nil
}

func (r *Rule) FindVideoDirectURL(ctx context.Context, res *video_fetcher.Resolution) (string, error) {
	config, err := r.config(ctx, res)
	if err != nil {
		return "", err
	}
	var streams []video_fetcher.Stream
	for _, stream := range config.Get("request.files.progressive").Array() {
		streams = append(streams, video_fetcher.Stream{
			URL:      stream.Get("url").String(),
			MimeType: stream.Get("mime").String(),
			Video:    int(stream.Get("width").Int()),
		})
	}
	best, ok := video_fetcher.SelectStream(streams, false)
	if !ok || best.URL == "" {
		return "", fmt.Errorf("%w: request.files.progressive", provider.ErrMissingNode)
	}
	return best.URL, nil
}

// config fetches the clip page, then the player config JSON it points to. Only the config is kept as the page
// document; the title is picked up from the clip page on the way.
func (r *Rule) config(ctx context.Context, res *video_fetcher.Resolution) (gjson.Result, error) {
	return res.Page.JSON(func() (string, error) {
		page, err := res.Client.GetPage(ctx, res.URL)
		if err != nil {
			return "", err
		}
		configURL, err := provider.Submatch(configURLRegexp, page)
		if err != nil {
			return "", err
		}
		configURL = strings.ReplaceAll(configURL, `\`, "")
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(page)); err == nil {
			res.Page.Title, _ = provider.MetaContent(doc, "og:title")
		}
		return res.Client.GetString(ctx, configURL)
	})
}
