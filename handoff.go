package video_fetcher

import (
	"context"
	"strings"
)

// RemuxFormat is the container that segmented downloads are remuxed into.
const RemuxFormat = "mp4"

// A Handoff describes a finished download to whatever converts it afterwards.
type Handoff struct {
	SourcePath  string
	SourceExt   string
	Segmented   bool
	AudioOnly   bool
	AudioFormat string
}

// NeedsConversion is true for raw segment concatenations, and for audio-only downloads not already in AudioFormat.
func (h Handoff) NeedsConversion() bool {
	return h.Segmented || (h.AudioOnly && !strings.EqualFold(h.SourceExt, h.AudioFormat))
}

// TargetExt is the extension of the converted file.
func (h Handoff) TargetExt() string {
	if h.AudioOnly {
		return h.AudioFormat
	}
	return RemuxFormat
}

// TargetPath is SourcePath with its extension replaced by TargetExt. If that would overwrite the source, a suffix
// is added instead.
func (h Handoff) TargetPath() string {
	base := strings.TrimSuffix(h.SourcePath, "."+h.SourceExt)
	target := base + "." + h.TargetExt()
	if target == h.SourcePath {
		target = base + ".converted." + h.TargetExt()
	}
	return target
}

// A PostProcessor turns the downloaded file into its final form, returning the path of the result.
type PostProcessor interface {
	Convert(ctx context.Context, h Handoff) (string, error)
}
