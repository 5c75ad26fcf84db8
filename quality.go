package video_fetcher

import (
	"mime"
	"regexp"
	"strconv"
	"strings"
)

// A Stream is one candidate encoding of a video offered by a site.
type Stream struct {
	URL      string
	MimeType string
	// Video is a comparable video quality rank, usually the frame height. 0 means no video.
	Video int
	// Audio is a comparable audio quality rank, usually from ParseAudioQuality or a bitrate. 0 means unknown.
	Audio int
}

// MediaType is MimeType without parameters.
func (s Stream) MediaType() string {
	mediaType, _, err := mime.ParseMediaType(s.MimeType)
	if err != nil {
		return strings.TrimSpace(strings.SplitN(s.MimeType, ";", 2)[0])
	}
	return mediaType
}

// containerRank orders containers by how widely they play without conversion.
func (s Stream) containerRank() int {
	mediaType := s.MediaType()
	switch {
	case strings.HasSuffix(mediaType, "/mp4"):
		return 2
	case strings.HasSuffix(mediaType, "/webm"):
		return 1
	}
	return 0
}

// SelectStream picks the best of streams. The first stream is the initial choice, and a later stream only replaces
// it if it never makes things worse.
//
// For video, a candidate wins if its video, audio and container are all at least as good, and its video or audio is
// strictly better. For audio only, a candidate wins if its audio is strictly better and its container is at least as
// good; video is ignored.
func SelectStream(streams []Stream, audioOnly bool) (Stream, bool) {
	if len(streams) == 0 {
		return Stream{}, false
	}
	best := streams[0]
	for _, s := range streams[1:] {
		if s.containerRank() < best.containerRank() {
			continue
		}
		if audioOnly {
			if s.Audio > best.Audio {
				best = s
			}
		} else if s.Video >= best.Video && s.Audio >= best.Audio && (s.Video > best.Video || s.Audio > best.Audio) {
			best = s
		}
	}
	return best, true
}

var videoQualityRegexp = regexp.MustCompile(`(\d{3,4})p`)

var namedVideoQualities = map[string]int{
	"tiny":    144,
	"small":   240,
	"medium":  360,
	"large":   480,
	"hd720":   720,
	"hd1080":  1080,
	"hd1440":  1440,
	"hd2160":  2160,
	"highres": 4320,
}

// ParseVideoQuality turns a label like "1080p", "720p60" or "hd720" into a frame height, or 0 if unrecognised.
func ParseVideoQuality(label string) int {
	label = strings.ToLower(strings.TrimSpace(label))
	if m := videoQualityRegexp.FindStringSubmatch(label); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return namedVideoQualities[label]
}

var namedAudioQualities = map[string]int{
	"audio_quality_ultralow": 1,
	"audio_quality_low":      2,
	"audio_quality_medium":   3,
	"audio_quality_high":     4,
	"low":                    2,
	"medium":                 3,
	"high":                   4,
}

// ParseAudioQuality turns a label like "AUDIO_QUALITY_MEDIUM" or "high" into a rank, or 0 if unrecognised.
func ParseAudioQuality(label string) int {
	return namedAudioQualities[strings.ToLower(strings.TrimSpace(label))]
}

// ExtensionForMediaType picks a file extension for a stream's MIME type, defaulting to mp4.
func ExtensionForMediaType(mimeType string) string {
	mediaType := Stream{MimeType: mimeType}.MediaType()
	switch mediaType {
	case "audio/mp4":
		return "m4a"
	case "audio/mpeg":
		return "mp3"
	case "video/webm", "audio/webm":
		return "webm"
	case "video/mp2t":
		return "ts"
	}
	return "mp4"
}
