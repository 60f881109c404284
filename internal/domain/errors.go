package domain

import "errors"

// Error kinds raised along the generation chain. Concrete errors carry details and
// match these through errors.Is.
var (
	ErrConfig                = errors.New("config error")
	ErrNetwork               = errors.New("network error")
	ErrUpstreamServer        = errors.New("upstream server error")
	ErrUpstreamClient        = errors.New("upstream client error")
	ErrMalformedResponse     = errors.New("malformed upstream response")
	ErrInvalidUpstreamFormat = errors.New("invalid upstream format")
	ErrMissingImages         = errors.New("missing images")
	ErrMissingResultURL      = errors.New("missing result url")
	ErrEmptyOutput           = errors.New("job completed without outputs")
	ErrUpstreamJobFailed     = errors.New("upstream job failed")
	ErrPollTimeout           = errors.New("timed out waiting for outputs")
)

var kinds = []error{
	ErrConfig,
	ErrNetwork,
	ErrUpstreamServer,
	ErrUpstreamClient,
	ErrMalformedResponse,
	ErrInvalidUpstreamFormat,
	ErrMissingImages,
	ErrMissingResultURL,
	ErrEmptyOutput,
	ErrUpstreamJobFailed,
	ErrPollTimeout,
}

// KindOf returns the first known kind err matches, or nil.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
