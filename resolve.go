package video_fetcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/alanbriolat/video-fetcher/fetch"
)

type Outcome int

const (
	OutcomeNoMatch Outcome = iota
	OutcomeNotFound
	OutcomeDownloaded
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoMatch:
		return "no-match"
	case OutcomeNotFound:
		return "not-found"
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// A Request is everything the user asked for.
type Request struct {
	URL           string
	AudioOnly     bool
	AudioFormat   string
	WebDriverPort int
	// Rule forces a specific provider by name instead of trying each in order.
	Rule string
}

// A Result describes how far a Request got. It is returned alongside any error.
type Result struct {
	Outcome  Outcome
	Provider string
	Title    string
	Media    MediaReference
	// Path is the downloaded file.
	Path string
	// OutputPath is the final file after post-processing, which may be Path.
	OutputPath string
}

// A Dispatcher resolves a page URL to a media reference using a Registry, downloads it, and hands it on for
// post-processing.
type Dispatcher struct {
	Registry      *Registry
	Client        *fetch.Client
	Target        TargetConfig
	PostProcessor PostProcessor
	// Downloads is used to create each Download. If nil, NewDownloadBuilder is used.
	Downloads DownloadBuilder
}

func (d *Dispatcher) newResolution(req Request) *Resolution {
	return &Resolution{
		URL:           req.URL,
		AudioOnly:     req.AudioOnly,
		WebDriverPort: req.WebDriverPort,
		Client:        d.Client,
	}
}

// Match finds the Provider for req without fetching anything beyond what rule probes need. Rules that need a
// WebDriver are skipped (with a warning) when no WebDriver port is set. A nil Match means nothing matched.
func (d *Dispatcher) Match(ctx context.Context, req Request) (*Match, error) {
	logger := Logger(ctx).Sugar()
	if req.Rule != "" {
		return d.Registry.MatchWith(ctx, req.Rule, d.newResolution(req))
	}
	match, err := d.Registry.Match(ctx, func() *Resolution { return d.newResolution(req) }, func(m *Match) bool {
		if m.Rule.RequiresWebDriver() && m.Resolution.WebDriverPort == 0 {
			logger.Warnf("%v requires a WebDriver, set --webdriver to use it", m.Rule.Name())
			return false
		}
		return true
	})
	if errors.Is(err, ErrNoMatch) {
		logger.Debugw("no rule matched", "url", req.URL, "reason", err)
		return nil, nil
	}
	return match, err
}

// Resolve runs the whole pipeline for req. The returned Result is never nil.
func (d *Dispatcher) Resolve(ctx context.Context, req Request) (*Result, error) {
	logger := Logger(ctx).Sugar()
	result := &Result{Outcome: OutcomeNoMatch}

	match, err := d.Match(ctx, req)
	if err != nil {
		result.Outcome = OutcomeFailed
		return result, err
	} else if match == nil {
		return result, nil
	}
	result.Provider = match.ProviderName
	logger.Infof("using rule %v", match.Rule.Name())

	fail := func(err error) (*Result, error) {
		result.Outcome = OutcomeFailed
		return result, err
	}

	rule, res := match.Rule, match.Resolution
	exists, err := rule.DoesVideoExist(ctx, res)
	if err != nil {
		return fail(fmt.Errorf("[%v] failed to check video: %w", match.ProviderName, err))
	} else if !exists {
		result.Outcome = OutcomeNotFound
		return result, nil
	}

	title, err := rule.FindVideoTitle(ctx, res)
	if err != nil || title == "" {
		return fail(extractionError(match.ProviderName, "title", ErrNoTitle, err))
	}
	result.Title = title

	segmented, err := rule.IsPlaylist(ctx, res)
	if err != nil {
		return fail(fmt.Errorf("[%v] failed to check for playlist: %w", match.ProviderName, err))
	}
	directURL, err := rule.FindVideoDirectURL(ctx, res)
	if err != nil || directURL == "" {
		return fail(extractionError(match.ProviderName, "direct url", ErrNoDirectURL, err))
	}
	ext, err := rule.FindVideoFileExtension(ctx, res)
	if err != nil || ext == "" {
		return fail(extractionError(match.ProviderName, "file extension", ErrNoExtension, err))
	}
	result.Media = MediaReference{DirectURL: directURL, Extension: ext, Segmented: segmented}
	logger.Debugw("resolved media", "title", title, "url", directURL, "ext", ext, "segmented", segmented)

	path, err := d.Target.GetTargetPath(TargetFileArgs{Provider: match.ProviderName, Title: title, Ext: ext})
	if err != nil {
		return fail(fmt.Errorf("failed to build target path: %w", err))
	}
	result.Path = path

	builder := d.Downloads
	if builder == nil {
		builder = NewDownloadBuilder()
	}
	download, err := builder.WithContext(ctx).WithClient(d.Client).Build()
	if err != nil {
		return fail(fmt.Errorf("failed to create download: %w", err))
	}
	defer download.Cancel()
	logger.Infof("downloading %q to %v", title, path)
	if err := download.Save(path, result.Media); err != nil {
		return fail(err)
	}
	result.Outcome = OutcomeDownloaded
	result.OutputPath = path

	handoff := Handoff{
		SourcePath:  path,
		SourceExt:   ext,
		Segmented:   segmented,
		AudioOnly:   req.AudioOnly,
		AudioFormat: req.AudioFormat,
	}
	if !handoff.NeedsConversion() {
		return result, nil
	}
	if d.PostProcessor == nil {
		logger.Warnf("%v needs converting to %v but no converter is configured", path, handoff.TargetExt())
		return result, nil
	}
	output, err := d.PostProcessor.Convert(ctx, handoff)
	if err != nil {
		return fail(fmt.Errorf("post-processing failed: %w", err))
	}
	result.OutputPath = output
	return result, nil
}
