package video_fetcher

import (
	"errors"
	"fmt"
)

var (
	ErrNoTitle     = errors.New("could not find the video title")
	ErrNoDirectURL = errors.New("could not find the video URL")
	ErrNoExtension = errors.New("could not determine the file extension")
)

// An ExtractionError means a rule claimed a URL, and the video exists, but the rule could not pull out something it
// needs to download it. It usually means the site has changed.
type ExtractionError struct {
	Rule string
	Step string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Rule, e.Step, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// extractionError wraps cause (which may be nil) as an ExtractionError that matches sentinel with errors.Is.
func extractionError(rule string, step string, sentinel error, cause error) *ExtractionError {
	err := sentinel
	if cause != nil && !errors.Is(cause, sentinel) {
		err = fmt.Errorf("%w: %w", sentinel, cause)
	} else if cause != nil {
		err = cause
	}
	return &ExtractionError{Rule: rule, Step: step, Err: err}
}
