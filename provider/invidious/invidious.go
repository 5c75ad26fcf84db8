// Package invidious resolves YouTube videos through an Invidious instance.
package invidious

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/provider"
)

const DefaultInstance = "https://invidious.privacyredirect.com"

var (
	urlRegexp = regexp.MustCompile(`invidious\.|(?:www\.)?youtu(?:be\.com|\.be)/`)
	idRegexp  = regexp.MustCompile(`(?:v=|\.be/|shorts/)([^&?#/]+)`)
)

type Rule struct {
	provider.Base
	instance string
}

// New creates a Rule that fetches watch pages from instance, or DefaultInstance if empty.
func New(instance string) *Rule {
	if instance == "" {
		instance = DefaultInstance
	}
	return &Rule{
		Base:     provider.Base{DisplayName: "Invidious"},
		instance: strings.TrimRight(instance, "/"),
	}
}

func (r *Rule) CanHandleURL(_ context.Context, res *video_fetcher.Resolution) (bool, error) {
	if provider.MatchHTTP(urlRegexp, res.URL) {
		return true, nil
	}
	instance, err := url.Parse(r.instance)
	if err != nil {
		return false, err
	}
	parsedURL, err := url.Parse(res.URL)
	if err != nil {
		return false, err
	}
	return parsedURL.Host == instance.Host && idRegexp.MatchString(res.URL), nil
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
	var videos, audio []video_fetcher.Stream
	doc.Find("source[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		label, _ := s.Attr("label")
		mimeType, _ := s.Attr("type")
		stream := video_fetcher.Stream{
			URL:      r.absolute(src),
			MimeType: mimeType,
		}
		if strings.HasPrefix(mimeType, "audio/") {
			stream.Audio = qualityFromLabel(label)
			audio = append(audio, stream)
		} else {
			stream.Video = video_fetcher.ParseVideoQuality(label)
			videos = append(videos, stream)
		}
	})
	// Without a separate audio stream, the video is downloaded and the audio extracted afterwards
	audioOnly := (res.AudioOnly && len(audio) > 0) || len(videos) == 0
	candidates := videos
	if audioOnly {
		candidates = audio
	}
	best, ok := video_fetcher.SelectStream(candidates, audioOnly)
	if !ok {
		return "", fmt.Errorf("%w: source", provider.ErrMissingNode)
	}
	res.Page.MediaType = best.MimeType
	return best.URL, nil
}

func (r *Rule) FindVideoFileExtension(_ context.Context, res *video_fetcher.Resolution) (string, error) {
	return video_fetcher.ExtensionForMediaType(res.Page.MediaType), nil
}

func (r *Rule) load(ctx context.Context, res *video_fetcher.Resolution) (*goquery.Document, error) {
	m := idRegexp.FindStringSubmatch(res.URL)
	if m == nil {
		return nil, fmt.Errorf("no video id in %v", res.URL)
	}
	return provider.LoadHTML(ctx, res, fmt.Sprintf("%s/watch?v=%s", r.instance, m[1]))
}

func (r *Rule) absolute(src string) string {
	if strings.HasPrefix(src, "/") && !strings.HasPrefix(src, "//") {
		return r.instance + src
	}
	return src
}

// qualityFromLabel ranks audio labels like "audio - 160k" by bitrate, falling back to named qualities.
func qualityFromLabel(label string) int {
	var kbps int
	if i := strings.LastIndex(label, " "); i >= 0 {
		if _, err := fmt.Sscanf(label[i+1:], "%dk", &kbps); err == nil {
			return kbps
		}
	}
	return video_fetcher.ParseAudioQuality(label)
}
