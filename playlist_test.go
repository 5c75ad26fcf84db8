package video_fetcher

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestParsePlaylist(t *testing.T) {
	assert := assert_.New(t)

	playlist, err := ParsePlaylist(testMediaPlaylist)
	assert.NoError(err)
	assert.False(playlist.IsMaster())
	assert.Equal([]PlaylistSegment{{URI: "s0.ts"}, {URI: "s1.ts"}, {URI: "s2.ts"}}, playlist.Segments)

	playlist, err = ParsePlaylist(`#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=100000
a.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=200000
b.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=200000
c.m3u8
`)
	assert.NoError(err)
	assert.True(playlist.IsMaster())
	best, ok := playlist.BestVariant()
	assert.True(ok)
	assert.Equal(PlaylistVariant{URI: "c.m3u8", Bandwidth: 200000}, best)

	_, err = ParsePlaylist("")
	assert.ErrorIs(err, ErrMalformedPlaylist)
	_, err = ParsePlaylist("#EXTM3U\n")
	assert.ErrorIs(err, ErrMalformedPlaylist)
}

func TestResolvePlaylistURI(t *testing.T) {
	assert := assert_.New(t)
	base := "https://cdn.example/a/b/index.m3u8?token=abc"
	cases := []struct {
		uri      string
		expected string
	}{
		{"seg1.ts", "https://cdn.example/a/b/seg1.ts?token=abc"},
		{"../c/seg1.ts", "https://cdn.example/a/b/../c/seg1.ts?token=abc"},
		{"/seg1.ts", "https://cdn.example/a/b/seg1.ts?token=abc"},
		{"720p/seg1.ts", "https://cdn.example/a/b/720p/seg1.ts?token=abc"},
		{"seg1.ts?sig=1", "https://cdn.example/a/b/seg1.ts?sig=1"},
		{"https://other.example/x.ts", "https://other.example/x.ts"},
	}
	for _, c := range cases {
		resolved, err := ResolvePlaylistURI(base, c.uri)
		assert.NoError(err, c.uri)
		assert.Equal(c.expected, resolved, c.uri)
	}
}
