// Package provider holds what extraction rules have in common: static metadata, page loading and markup lookups.
package provider

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/fetch"
	"github.com/alanbriolat/video-fetcher/util"
	"github.com/alanbriolat/video-fetcher/webdriver"
)

var (
	ErrMissingNode  = errors.New("expected element not found")
	ErrNoWebDriver  = errors.New("no webdriver port configured")
	ErrNotSupported = errors.New("url not supported")
)

// Base supplies the parts of video_fetcher.Rule that don't depend on the page.
type Base struct {
	DisplayName string
	WebDriver   bool
	Playlist    bool
	// Extension is returned by FindVideoFileExtension, and defaults to mp4.
	Extension string
}

func (b Base) Name() string {
	return b.DisplayName
}

func (b Base) RequiresWebDriver() bool {
	return b.WebDriver
}

func (b Base) IsPlaylist(context.Context, *video_fetcher.Resolution) (bool, error) {
	return b.Playlist, nil
}

func (b Base) FindVideoFileExtension(context.Context, *video_fetcher.Resolution) (string, error) {
	if b.Extension == "" {
		return "mp4", nil
	}
	return b.Extension, nil
}

// MatchHTTP reports whether rawURL is an http(s) URL matching re.
func MatchHTTP(re *regexp.Regexp, rawURL string) bool {
	return util.IsHTTP(rawURL) && re.MatchString(rawURL)
}

// LoadHTML fetches pageURL into the Resolution's Page, at most once, and parses it.
func LoadHTML(ctx context.Context, r *video_fetcher.Resolution, pageURL string, opts ...fetch.RequestOption) (*goquery.Document, error) {
	return r.Page.HTML(func() (string, error) {
		video_fetcher.Logger(ctx).Sugar().Debugf("fetching %v", pageURL)
		return r.Client.GetPage(ctx, pageURL, opts...)
	})
}

// LoadRendered is LoadHTML for pages that need a real browser. render is called with a fresh WebDriver session and
// returns the page source; the session is deleted afterwards.
func LoadRendered(ctx context.Context, r *video_fetcher.Resolution, render func(ctx context.Context, s *webdriver.Session) (string, error)) (*goquery.Document, error) {
	return r.Page.HTML(func() (string, error) {
		if r.WebDriverPort == 0 {
			return "", ErrNoWebDriver
		}
		var source string
		err := webdriver.New(r.WebDriverPort, r.Client).Run(ctx, func(s *webdriver.Session) error {
			var err error
			source, err = render(ctx, s)
			return err
		})
		return source, err
	})
}

// Render returns a LoadRendered callback that navigates to pageURL, runs script if it isn't empty, and reads the
// page source.
func Render(pageURL string, script string) func(ctx context.Context, s *webdriver.Session) (string, error) {
	return func(ctx context.Context, s *webdriver.Session) (string, error) {
		video_fetcher.Logger(ctx).Sugar().Debugf("rendering %v", pageURL)
		if err := s.Navigate(ctx, pageURL); err != nil {
			return "", err
		}
		if script != "" {
			if _, err := s.Execute(ctx, script); err != nil {
				return "", err
			}
		}
		return s.Source(ctx)
	}
}

// Exists turns the error from loading a page into the result of DoesVideoExist: a missing page is "no", any other
// error is passed on.
func Exists(err error) (bool, error) {
	if err == nil {
		return true, nil
	} else if fetch.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// Attr returns the named attribute of the first element matching selector.
func Attr(doc *goquery.Document, selector string, attr string) (string, error) {
	value, ok := doc.Find(selector).First().Attr(attr)
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w: %v[%v]", ErrMissingNode, selector, attr)
	}
	return strings.TrimSpace(value), nil
}

// Text returns the trimmed text of the first element matching selector.
func Text(doc *goquery.Document, selector string) (string, error) {
	text := strings.TrimSpace(doc.Find(selector).First().Text())
	if text == "" {
		return "", fmt.Errorf("%w: %v", ErrMissingNode, selector)
	}
	return text, nil
}

// TextOr is Text with a fallback for when the element is missing.
func TextOr(doc *goquery.Document, selector string, fallback string) string {
	if text, err := Text(doc, selector); err == nil {
		return text
	}
	return fallback
}

// MetaContent returns the content of a <meta property=...> or <meta name=...> element.
func MetaContent(doc *goquery.Document, name string) (string, error) {
	return Attr(doc, fmt.Sprintf(`meta[property=%q], meta[name=%q]`, name, name), "content")
}

// Submatch returns the first capture group of re in s.
func Submatch(re *regexp.Regexp, s string) (string, error) {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 || m[1] == "" {
		return "", fmt.Errorf("%w: /%v/", ErrMissingNode, re)
	}
	return m[1], nil
}
