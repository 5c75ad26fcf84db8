// Package spankbang resolves Spankbang videos by rendering them in a browser.
package spankbang

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/provider"
	"github.com/alanbriolat/video-fetcher/util"
)

// MaxDescriptionLength caps the part of the title taken from the URL slug.
const MaxDescriptionLength = 142

var urlRegexp = regexp.MustCompile(`spankbang\.com/.+`)

type Rule struct {
	provider.Base
}

func New() *Rule {
	return &Rule{Base: provider.Base{DisplayName: "Spankbang", WebDriver: true}}
}

func (r *Rule) CanHandleURL(_ context.Context, res *video_fetcher.Resolution) (bool, error) {
	return provider.MatchHTTP(urlRegexp, res.URL), nil
}

func (r *Rule) DoesVideoExist(ctx context.Context, res *video_fetcher.Resolution) (bool, error) {
	_, err := provider.LoadRendered(ctx, res, provider.Render(res.URL, ""))
	return provider.Exists(err)
}

// FindVideoTitle builds the title from the URL, which looks like https://spankbang.com/{id}/video/{description}.
func (r *Rule) FindVideoTitle(_ context.Context, res *video_fetcher.Resolution) (string, error) {
	return titleFromURL(res.URL)
}

func (r *Rule) FindVideoDirectURL(ctx context.Context, res *video_fetcher.Resolution) (string, error) {
	doc, err := provider.LoadRendered(ctx, res, provider.Render(res.URL, ""))
	if err != nil {
		return "", err
	}
	return provider.Attr(doc, `source[type="video/mp4"]`, "src")
}

func titleFromURL(rawURL string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	parts := strings.Split(strings.Trim(parsedURL.Path, "/"), "/")
	if len(parts) < 3 || parts[0] == "" || parts[2] == "" {
		return "", fmt.Errorf("unexpected path %q", parsedURL.Path)
	}
	id, description := parts[0], parts[2]
	title := description + "-" + id
	if len(description) > MaxDescriptionLength {
		title = util.Truncate(description, MaxDescriptionLength) + "...-" + id
	}
	return util.SafeFilename(strings.TrimSpace(title), 0), nil
}
