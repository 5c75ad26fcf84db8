package video_fetcher

import (
	"context"
)

// A Rule knows how to recognise one family of page URLs and extract a downloadable media reference from them.
//
// Every lookup receives the same Resolution, so a rule fetches its page at most once via Resolution.Page.
type Rule interface {
	// Name is the human-readable name of the site or family of sites.
	Name() string
	// RequiresWebDriver is true if the rule needs a running WebDriver to render pages.
	RequiresWebDriver() bool
	// CanHandleURL decides if this rule claims the URL. An error counts as "no".
	CanHandleURL(ctx context.Context, r *Resolution) (bool, error)
	// DoesVideoExist fetches the page (if not already fetched) and checks it describes a video.
	DoesVideoExist(ctx context.Context, r *Resolution) (bool, error)
	// IsPlaylist is true if FindVideoDirectURL returns an HLS playlist rather than a single stream.
	IsPlaylist(ctx context.Context, r *Resolution) (bool, error)
	FindVideoTitle(ctx context.Context, r *Resolution) (string, error)
	FindVideoDirectURL(ctx context.Context, r *Resolution) (string, error)
	FindVideoFileExtension(ctx context.Context, r *Resolution) (string, error)
}
