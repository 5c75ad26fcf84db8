// Package xhamster resolves xHamster videos, recognised by the page itself rather than the URL so that mirror domains
// work too.
package xhamster

import (
	"context"
	"fmt"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/provider"
	"github.com/alanbriolat/video-fetcher/util"
)

const applicationName = "xHamster"

type Rule struct {
	provider.Base
}

func New() *Rule {
	return &Rule{Base: provider.Base{DisplayName: "xHamster", Playlist: true, Extension: "ts"}}
}

// CanHandleURL fetches the page, which is kept for the rest of the resolution.
func (r *Rule) CanHandleURL(ctx context.Context, res *video_fetcher.Resolution) (bool, error) {
	if !util.IsHTTP(res.URL) {
		return false, nil
	}
	doc, err := provider.LoadHTML(ctx, res, res.URL)
	if err != nil {
		return false, err
	}
	name, err := provider.Attr(doc, `meta[name="application-name"]`, "content")
	return err == nil && name == applicationName, nil
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
	return provider.Text(doc, "h1")
}

// FindVideoDirectURL finds the preloaded master playlist, and picks its last (best) entry.
func (r *Rule) FindVideoDirectURL(ctx context.Context, res *video_fetcher.Resolution) (string, error) {
	doc, err := provider.LoadHTML(ctx, res, res.URL)
	if err != nil {
		return "", err
	}
	playlistURL, err := provider.Attr(doc, `link[rel="preload"][as="fetch"]`, "href")
	if err != nil {
		return "", err
	}
	text, err := res.Client.GetString(ctx, playlistURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch playlist: %w", err)
	}
	playlist, err := video_fetcher.ParsePlaylist(text)
	if err != nil {
		return "", err
	}
	var uri string
	if n := len(playlist.Variants); n > 0 {
		uri = playlist.Variants[n-1].URI
	} else {
		uri = playlist.Segments[len(playlist.Segments)-1].URI
	}
	return video_fetcher.ResolvePlaylistURI(playlistURL, uri)
}
