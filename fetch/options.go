package fetch

import (
	"fmt"
	"net/http"
)

type RequestOption func(*http.Request)

// WithReferer sets the Referer header, which several hosts require to serve media.
func WithReferer(referer string) RequestOption {
	return func(req *http.Request) {
		if referer != "" {
			req.Header.Set("Referer", referer)
		}
	}
}

// WithRange requests the body from offset to the end.
func WithRange(offset int64) RequestOption {
	return func(req *http.Request) {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}
}

func WithHeader(key, value string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set(key, value)
	}
}
