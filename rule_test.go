package video_fetcher

import (
	"context"
	"regexp"
	"sync/atomic"
)

// testRule is a Rule with canned answers, for exercising the registry and pipeline without a real site.
type testRule struct {
	name      string
	pattern   *regexp.Regexp
	webDriver bool
	probeErr  error
	missing   bool
	title     string
	directURL string
	ext       string
	playlist  bool
	probes    atomic.Int32
}

func newTestRule(name string, pattern string) *testRule {
	return &testRule{
		name:    name,
		pattern: regexp.MustCompile(pattern),
		title:   name + " video",
		ext:     "mp4",
	}
}

func (r *testRule) Name() string {
	return r.name
}

func (r *testRule) RequiresWebDriver() bool {
	return r.webDriver
}

func (r *testRule) CanHandleURL(_ context.Context, res *Resolution) (bool, error) {
	r.probes.Add(1)
	if r.probeErr != nil {
		return false, r.probeErr
	}
	return r.pattern.MatchString(res.URL), nil
}

func (r *testRule) DoesVideoExist(context.Context, *Resolution) (bool, error) {
	return !r.missing, nil
}

func (r *testRule) IsPlaylist(context.Context, *Resolution) (bool, error) {
	return r.playlist, nil
}

func (r *testRule) FindVideoTitle(context.Context, *Resolution) (string, error) {
	return r.title, nil
}

func (r *testRule) FindVideoDirectURL(context.Context, *Resolution) (string, error) {
	return r.directURL, nil
}

func (r *testRule) FindVideoFileExtension(context.Context, *Resolution) (string, error) {
	return r.ext, nil
}
