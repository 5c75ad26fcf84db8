// Package direct handles URLs that point straight at a video file.
package direct

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/provider"
	"github.com/alanbriolat/video-fetcher/util"
)

type Config struct {
	Protocols  map[string]bool
	Extensions map[string]bool
}

func NewConfig() Config {
	return Config{
		Protocols: map[string]bool{
			"http":  true,
			"https": true,
		},
		Extensions: map[string]bool{
			"flv":  true,
			"m4v":  true,
			"mkv":  true,
			"mp4":  true,
			"mpg":  true,
			"webm": true,
		},
	}
}

type Rule struct {
	provider.Base
	config Config
}

func New() *Rule {
	return NewWithConfig(NewConfig())
}

func NewWithConfig(config Config) *Rule {
	return &Rule{
		Base:   provider.Base{DisplayName: "(direct file)"},
		config: config,
	}
}

func (r *Rule) CanHandleURL(_ context.Context, res *video_fetcher.Resolution) (bool, error) {
	_, ext, err := r.split(res.URL)
	if errors.Is(err, provider.ErrNotSupported) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return r.config.Extensions[strings.ToLower(ext)], nil
}

func (r *Rule) DoesVideoExist(ctx context.Context, res *video_fetcher.Resolution) (bool, error) {
	resp, err := res.Client.Get(ctx, res.URL)
	if err != nil {
		return provider.Exists(err)
	}
	defer resp.Body.Close()
	res.Page.MediaType = resp.Header.Get("Content-Type")
	return true, nil
}

func (r *Rule) FindVideoTitle(_ context.Context, res *video_fetcher.Resolution) (string, error) {
	stem, _, err := r.split(res.URL)
	return stem, err
}

func (r *Rule) FindVideoDirectURL(_ context.Context, res *video_fetcher.Resolution) (string, error) {
	return res.URL, nil
}

func (r *Rule) FindVideoFileExtension(_ context.Context, res *video_fetcher.Resolution) (string, error) {
	_, ext, err := r.split(res.URL)
	return ext, err
}

func (r *Rule) split(rawURL string) (string, string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", "", err
	}
	if !r.config.Protocols[parsedURL.Scheme] {
		return "", "", provider.ErrNotSupported
	}
	filename, err := util.FilenameFromURL(parsedURL)
	if err != nil {
		return "", "", err
	}
	stem, ext := util.SplitExt(filename)
	return stem, ext, nil
}
