package video_fetcher

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/alanbriolat/video-fetcher/fetch"
)

var (
	ErrInvalidJSON = errors.New("document is not valid JSON")
)

// A Page caches what a rule learned about one page URL during a single resolution.
//
// Document is fetched at most once: every loader checks it for emptiness first, so a rule's existence check, title
// lookup and direct URL lookup all share the same fetch.
type Page struct {
	// Document is the raw fetched body, HTML or JSON depending on the rule.
	Document string
	// Title is set by rules that learn the title as a side effect of fetching.
	Title string
	// MediaType is set by rules that learn the stream's MIME type while choosing it.
	MediaType string
	// Value is a rule's decoded form of the page, for rules that fetch through a client library.
	Value any
}

// Load returns Document, calling fetch to fill it only if it is empty.
func (p *Page) Load(fetch func() (string, error)) (string, error) {
	if p.Document == "" {
		doc, err := fetch()
		if err != nil {
			return "", err
		}
		p.Document = doc
	}
	return p.Document, nil
}

// HTML is Load, parsed as an HTML document.
func (p *Page) HTML(fetch func() (string, error)) (*goquery.Document, error) {
	doc, err := p.Load(fetch)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(doc))
}

// JSON is Load, parsed as a JSON document.
func (p *Page) JSON(fetch func() (string, error)) (gjson.Result, error) {
	doc, err := p.Load(fetch)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.Valid(doc) {
		return gjson.Result{}, ErrInvalidJSON
	}
	return gjson.Parse(doc), nil
}

// LoadValue returns Value, calling fetch to fill it only if it is nil.
func (p *Page) LoadValue(fetch func() (any, error)) (any, error) {
	if p.Value == nil {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		p.Value = v
	}
	return p.Value, nil
}

// A Resolution is the state of resolving one page URL with one rule.
type Resolution struct {
	URL           string
	AudioOnly     bool
	WebDriverPort int
	Client        *fetch.Client
	Page          Page
}

func (r *Resolution) String() string {
	return fmt.Sprintf("%s (audio only: %v)", r.URL, r.AudioOnly)
}
