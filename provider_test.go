package video_fetcher

import (
	"context"
	"errors"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestRegistry_Add(t *testing.T) {
	assert := assert_.New(t)
	var r Registry

	assert.ErrorIs(r.Add(Provider{Name: "", Rule: newTestRule("a", "a")}), ErrInvalidProvider)
	assert.ErrorIs(r.Add(Provider{Name: "a"}), ErrInvalidProvider)
	assert.NoError(r.Add(Provider{Name: "a", Rule: newTestRule("a", "a")}))
	assert.NoError(r.Add(Provider{Name: "b", Rule: newTestRule("b", "b")}))
	assert.ErrorIs(r.Add(Provider{Name: "a", Rule: newTestRule("a", "a")}), ErrDuplicateProvider)
	assert.Panics(func() {
		r.MustAdd(Provider{Name: "b", Rule: newTestRule("b", "b")})
	})

	assert.Equal([]string{"a", "b"}, r.List())
	p, err := r.Get("b")
	assert.NoError(err)
	assert.Equal("b", p.Rule.Name())
	_, err = r.Get("c")
	assert.ErrorIs(err, ErrUnknownProvider)
}

func TestRegistry_MatchFirstWins(t *testing.T) {
	assert := assert_.New(t)
	var r Registry
	first := newTestRule("first", `example\.com`)
	second := newTestRule("second", `example\.com`)
	r.MustAdd(Provider{Name: "first", Rule: first})
	r.MustAdd(Provider{Name: "second", Rule: second})

	var resolutions []*Resolution
	newResolution := func() *Resolution {
		res := &Resolution{URL: "https://example.com/video/1"}
		resolutions = append(resolutions, res)
		return res
	}
	match, err := r.Match(context.Background(), newResolution, nil)
	assert.NoError(err)
	assert.Equal("first", match.ProviderName)
	assert.Same(resolutions[0], match.Resolution)
	assert.Equal(int32(0), second.probes.Load())
}

func TestRegistry_MatchAccept(t *testing.T) {
	assert := assert_.New(t)
	var r Registry
	r.MustAdd(Provider{Name: "first", Rule: newTestRule("first", `.`)})
	r.MustAdd(Provider{Name: "second", Rule: newTestRule("second", `.`)})

	newResolution := func() *Resolution { return &Resolution{URL: "https://example.com/"} }
	match, err := r.Match(context.Background(), newResolution, func(m *Match) bool {
		return m.ProviderName != "first"
	})
	assert.NoError(err)
	assert.Equal("second", match.ProviderName)
}

func TestRegistry_MatchErrors(t *testing.T) {
	assert := assert_.New(t)
	var r Registry
	broken := newTestRule("broken", `.`)
	broken.probeErr = errors.New("connection refused")
	r.MustAdd(Provider{Name: "broken", Rule: broken})
	r.MustAdd(Provider{Name: "other", Rule: newTestRule("other", `other\.com`)})

	newResolution := func() *Resolution { return &Resolution{URL: "https://example.com/"} }
	match, err := r.Match(context.Background(), newResolution, nil)
	assert.Nil(match)
	assert.ErrorIs(err, ErrNoMatch)
	assert.Contains(err.Error(), "[broken]")
	assert.Contains(err.Error(), "connection refused")

	// A probe error doesn't stop later rules from matching
	r.MustAdd(Provider{Name: "any", Rule: newTestRule("any", `.`)})
	match, err = r.Match(context.Background(), newResolution, nil)
	assert.NoError(err)
	assert.Equal("any", match.ProviderName)
}

func TestRegistry_MatchWith(t *testing.T) {
	assert := assert_.New(t)
	var r Registry
	r.MustAdd(Provider{Name: "a", Rule: newTestRule("a", `a\.com`)})

	match, err := r.MatchWith(context.Background(), "a", &Resolution{URL: "https://a.com/1"})
	assert.NoError(err)
	assert.Equal("a", match.ProviderName)

	_, err = r.MatchWith(context.Background(), "a", &Resolution{URL: "https://b.com/1"})
	assert.ErrorIs(err, ErrNoMatch)

	_, err = r.MatchWith(context.Background(), "b", &Resolution{URL: "https://a.com/1"})
	assert.ErrorIs(err, ErrUnknownProvider)
}
