package upstream

import (
	"fmt"
	"unicode/utf8"
)

const (
	maxStatusBodyChars    = 1500
	maxMalformedBodyChars = 500
)

// HTTPError describes a failed exchange with the generation API. Kind is one of the
// domain error kinds and is matched by errors.Is.
type HTTPError struct {
	Kind       error
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *HTTPError) Error() string {
	switch {
	case e.StatusCode > 0:
		return fmt.Sprintf("upstream: %s %s: %v: status %d: %s", e.Method, e.URL, e.Kind, e.StatusCode, e.Body)
	case e.Body != "":
		return fmt.Sprintf("upstream: %s %s: %v: %s", e.Method, e.URL, e.Kind, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("upstream: %s %s: %v: %v", e.Method, e.URL, e.Kind, e.Err)
	default:
		return fmt.Sprintf("upstream: %v", e.Kind)
	}
}

// Is matches the error kind.
func (e *HTTPError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Truncate shortens s to at most max characters.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
