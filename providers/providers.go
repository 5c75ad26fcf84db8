// Package providers assembles the Registry of every built-in rule, in the order they are tried.
package providers

import (
	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/provider/direct"
	"github.com/alanbriolat/video-fetcher/provider/invidious"
	"github.com/alanbriolat/video-fetcher/provider/ktplayer"
	"github.com/alanbriolat/video-fetcher/provider/porndoe"
	"github.com/alanbriolat/video-fetcher/provider/pr0gramm"
	"github.com/alanbriolat/video-fetcher/provider/spankbang"
	"github.com/alanbriolat/video-fetcher/provider/vidoza"
	"github.com/alanbriolat/video-fetcher/provider/vimeo"
	"github.com/alanbriolat/video-fetcher/provider/vivo"
	"github.com/alanbriolat/video-fetcher/provider/voe"
	"github.com/alanbriolat/video-fetcher/provider/watchmdh"
	"github.com/alanbriolat/video-fetcher/provider/xhamster"
	"github.com/alanbriolat/video-fetcher/provider/youtube"
)

type Options struct {
	// InvidiousInstance is the base URL of the Invidious instance to use.
	InvidiousInstance string
	// PreferInvidious sends YouTube URLs to Invidious instead of YouTube itself.
	PreferInvidious bool
}

// New builds the Registry. Rules that claim URLs by pattern come first; rules that have to fetch or render the page
// to decide come last, with KT player (which needs a browser) at the very end.
func New(opts Options) *video_fetcher.Registry {
	r := &video_fetcher.Registry{}
	r.MustAdd(video_fetcher.Provider{Name: "direct", Rule: direct.New()})
	if opts.PreferInvidious {
		r.MustAdd(video_fetcher.Provider{Name: "invidious", Rule: invidious.New(opts.InvidiousInstance)})
		r.MustAdd(video_fetcher.Provider{Name: "youtube", Rule: youtube.New()})
	} else {
		r.MustAdd(video_fetcher.Provider{Name: "youtube", Rule: youtube.New()})
		r.MustAdd(video_fetcher.Provider{Name: "invidious", Rule: invidious.New(opts.InvidiousInstance)})
	}
	r.MustAdd(video_fetcher.Provider{Name: "vimeo", Rule: vimeo.New()})
	r.MustAdd(video_fetcher.Provider{Name: "vidoza", Rule: vidoza.New()})
	r.MustAdd(video_fetcher.Provider{Name: "vivo", Rule: vivo.New()})
	r.MustAdd(video_fetcher.Provider{Name: "pr0gramm", Rule: pr0gramm.New()})
	r.MustAdd(video_fetcher.Provider{Name: "porndoe", Rule: porndoe.New()})
	r.MustAdd(video_fetcher.Provider{Name: "spankbang", Rule: spankbang.New()})
	r.MustAdd(video_fetcher.Provider{Name: "watchmdh", Rule: watchmdh.New()})
	r.MustAdd(video_fetcher.Provider{Name: "xhamster", Rule: xhamster.New()})
	r.MustAdd(video_fetcher.Provider{Name: "voe", Rule: voe.New()})
	r.MustAdd(video_fetcher.Provider{Name: "ktplayer", Rule: ktplayer.New()})
	return r
}
