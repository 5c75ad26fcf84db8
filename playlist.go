package video_fetcher

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/etherlabsio/go-m3u8/m3u8"
)

var (
	ErrMalformedPlaylist = errors.New("malformed playlist")
)

type PlaylistSegment struct {
	URI string
}

type PlaylistVariant struct {
	URI       string
	Bandwidth int
}

// A Playlist is a parsed HLS playlist: either a media playlist with Segments, or a master playlist with Variants.
type Playlist struct {
	Segments []PlaylistSegment
	Variants []PlaylistVariant
}

func (p *Playlist) IsMaster() bool {
	return len(p.Segments) == 0 && len(p.Variants) > 0
}

// BestVariant returns the variant with the highest bandwidth, preferring the later one on ties.
func (p *Playlist) BestVariant() (PlaylistVariant, bool) {
	if len(p.Variants) == 0 {
		return PlaylistVariant{}, false
	}
	best := p.Variants[0]
	for _, v := range p.Variants[1:] {
		if v.Bandwidth >= best.Bandwidth {
			best = v
		}
	}
	return best, true
}

// ParsePlaylist parses an M3U8 document. A document with neither segments nor variants is malformed.
func ParsePlaylist(text string) (*Playlist, error) {
	parsed, err := m3u8.ReadString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlaylist, err)
	}
	playlist := &Playlist{}
	for _, item := range parsed.Items {
		switch item := item.(type) {
		case *m3u8.SegmentItem:
			playlist.Segments = append(playlist.Segments, PlaylistSegment{URI: item.Segment})
		case *m3u8.PlaylistItem:
			playlist.Variants = append(playlist.Variants, PlaylistVariant{URI: item.URI, Bandwidth: item.Bandwidth})
		}
	}
	if len(playlist.Segments) == 0 && len(playlist.Variants) == 0 {
		return nil, fmt.Errorf("%w: no segments or variants", ErrMalformedPlaylist)
	}
	return playlist, nil
}

// ResolvePlaylistURI resolves a segment or variant URI against the playlist URL it came from. Absolute URIs are used
// as-is. Relative URIs replace the last path component of the playlist URL, and inherit the playlist's query string
// if they have none of their own, because signed CDN URLs carry their token there.
func ResolvePlaylistURI(playlistURL string, uri string) (string, error) {
	base, err := url.Parse(playlistURL)
	if err != nil {
		return "", fmt.Errorf("invalid playlist URL: %w", err)
	}
	ref, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("%w: invalid URI %q: %v", ErrMalformedPlaylist, uri, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	// Leading slashes and dot segments stay inside the playlist's directory
	resolved := *base
	resolved.Path = base.Path[:strings.LastIndex(base.Path, "/")+1] + strings.TrimLeft(ref.Path, "/")
	resolved.RawPath = ""
	resolved.Fragment = ""
	if ref.RawQuery != "" {
		resolved.RawQuery = ref.RawQuery
	}
	return resolved.String(), nil
}
