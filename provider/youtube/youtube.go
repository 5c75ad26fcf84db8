// Package youtube resolves YouTube videos through the YouTube player API.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/provider"
)

type Rule struct {
	provider.Base
}

func New() *Rule {
	return &Rule{Base: provider.Base{DisplayName: "YouTube"}}
}

func (r *Rule) CanHandleURL(_ context.Context, res *video_fetcher.Resolution) (bool, error) {
	parsedURL, err := url.Parse(res.URL)
	if err != nil {
		return false, err
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false, nil
	}
	if _, err := extractVideoID(parsedURL); err != nil {
		return false, nil
	}
	return true, nil
}

func (r *Rule) DoesVideoExist(ctx context.Context, res *video_fetcher.Resolution) (bool, error) {
	_, err := r.video(ctx, res)
	if err == nil {
		return true, nil
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return false, err
	}
	// Anything else is YouTube refusing to play the video
	video_fetcher.Logger(ctx).Sugar().Infof("video unavailable: %v", err)
	return false, nil
}

func (r *Rule) FindVideoTitle(ctx context.Context, res *video_fetcher.Resolution) (string, error) {
	video, err := r.video(ctx, res)
	if err != nil {
		return "", err
	}
	return video.Title, nil
}

func (r *Rule) FindVideoDirectURL(ctx context.Context, res *video_fetcher.Resolution) (string, error) {
	video, err := r.video(ctx, res)
	if err != nil {
		return "", err
	}
	format, err := selectFormat(video.Formats, res.AudioOnly)
	if err != nil {
		return "", err
	}
	streamURL, err := r.client(res).GetStreamURLContext(ctx, video, format)
	if err != nil {
		return "", fmt.Errorf("failed to get stream URL: %w", err)
	}
	res.Page.MediaType = format.MimeType
	return streamURL, nil
}

func (r *Rule) FindVideoFileExtension(_ context.Context, res *video_fetcher.Resolution) (string, error) {
	if res.Page.MediaType == "" {
		return "", video_fetcher.ErrNoExtension
	}
	return video_fetcher.ExtensionForMediaType(res.Page.MediaType), nil
}

func (r *Rule) client(res *video_fetcher.Resolution) *youtube.Client {
	return &youtube.Client{HTTPClient: res.Client.HTTPClient()}
}

// video fetches the video details once per resolution.
func (r *Rule) video(ctx context.Context, res *video_fetcher.Resolution) (*youtube.Video, error) {
	v, err := res.Page.LoadValue(func() (any, error) {
		video, err := r.client(res).GetVideoContext(ctx, res.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to get video info: %w", err)
		}
		res.Page.Title = video.Title
		return video, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*youtube.Video), nil
}

// selectFormat picks the best muxed format, or the best audio-only format.
func selectFormat(formats youtube.FormatList, audioOnly bool) (*youtube.Format, error) {
	var candidates []*youtube.Format
	var streams []video_fetcher.Stream
	for i := range formats {
		format := &formats[i]
		isAudio := strings.HasPrefix(format.MimeType, "audio/")
		if audioOnly != isAudio {
			continue
		}
		if !audioOnly && format.AudioChannels == 0 {
			continue
		}
		video := format.Height
		if video == 0 {
			video = video_fetcher.ParseVideoQuality(format.QualityLabel)
		}
		audio := video_fetcher.ParseAudioQuality(format.AudioQuality)
		if audioOnly && audio == 0 {
			audio = format.Bitrate
		}
		candidates = append(candidates, format)
		streams = append(streams, video_fetcher.Stream{
			URL:      fmt.Sprint(i),
			MimeType: format.MimeType,
			Video:    video,
			Audio:    audio,
		})
	}
	best, ok := video_fetcher.SelectStream(streams, audioOnly)
	if !ok {
		return nil, fmt.Errorf("%w: no suitable format", provider.ErrMissingNode)
	}
	for i, s := range streams {
		if s == best {
			return candidates[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no suitable format", provider.ErrMissingNode)
}

// Extract video ID from YouTube URL.
//
// Allowed URL formats:
//
//	http(s?)://(www|m).youtube.com/(watch|details)?v={VIDEO_ID}
//	http(s?)://(www|m).youtube.com/(v|shorts)/{VIDEO_ID}
//	http(s?)://youtu.be/{VIDEO_ID}
func extractVideoID(url *url.URL) (string, error) {
	var id string
	switch url.Hostname() {
	case "youtube.com", "www.youtube.com", "m.youtube.com":
		if strings.HasPrefix(url.Path, "/v/") || strings.HasPrefix(url.Path, "/shorts/") {
			id = strings.SplitN(url.Path, "/", 4)[2]
		} else if url.Path == "/watch" || url.Path == "/details" {
			if url.Query().Has("v") {
				id = url.Query().Get("v")
			} else {
				return "", fmt.Errorf("missing ?v= query parameter")
			}
		}
	case "youtu.be":
		id = strings.Trim(url.Path, "/")
	default:
		return "", fmt.Errorf("unrecognised hostname")
	}
	if id == "" {
		return "", fmt.Errorf("could not extract video ID")
	}
	return id, nil
}
