package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"imagerelay/internal/domain"
	"imagerelay/internal/infra"
)

const (
	DefaultSubmitTimeout = 180 * time.Second
	DefaultFetchTimeout  = 60 * time.Second
)

// Options configures the generation API client.
type Options struct {
	HTTPClient    *http.Client
	Logger        *infra.Logger
	SubmitTimeout time.Duration
	FetchTimeout  time.Duration
}

// Client performs the submit and fetch calls against the generation API.
type Client struct {
	httpClient    *http.Client
	logger        *infra.Logger
	submitTimeout time.Duration
	fetchTimeout  time.Duration
}

// NewClient constructs a client with defaults for any unset option.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	submitTimeout := opts.SubmitTimeout
	if submitTimeout <= 0 {
		submitTimeout = DefaultSubmitTimeout
	}
	fetchTimeout := opts.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		httpClient:    httpClient,
		logger:        logger,
		submitTimeout: submitTimeout,
		fetchTimeout:  fetchTimeout,
	}
}

// Submit posts a JSON payload to the generation endpoint.
func (c *Client) Submit(ctx context.Context, endpoint, credential string, payload any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("upstream: encode payload: %w", err)
	}
	return c.do(ctx, http.MethodPost, endpoint, credential, body, c.submitTimeout)
}

// Fetch retrieves the current state of a job from its result URL.
func (c *Client) Fetch(ctx context.Context, resultURL, credential string) (*Response, error) {
	return c.do(ctx, http.MethodGet, resultURL, credential, nil, c.fetchTimeout)
}

func (c *Client) do(ctx context.Context, method, rawURL, credential string, body []byte, timeout time.Duration) (*Response, error) {
	target := CleanEndpoint(rawURL)
	if target == "" {
		return nil, &HTTPError{Kind: domain.ErrConfig, Method: method, Body: "url is empty"}
	}
	if !validEndpoint(target) {
		return nil, &HTTPError{Kind: domain.ErrConfig, Method: method, URL: target, Body: "url must start with http:// or https://"}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &HTTPError{Kind: domain.ErrConfig, Method: method, URL: target, Err: err}
	}
	req.Header.Set("Authorization", AuthorizationHeader(credential))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &HTTPError{Kind: domain.ErrNetwork, Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &HTTPError{Kind: domain.ErrNetwork, Method: method, URL: target, Err: err}
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("upstream: call complete")

	switch {
	case resp.StatusCode >= 500:
		return nil, &HTTPError{Kind: domain.ErrUpstreamServer, Method: method, URL: target, StatusCode: resp.StatusCode, Body: Truncate(string(raw), maxStatusBodyChars)}
	case resp.StatusCode >= 400:
		return nil, &HTTPError{Kind: domain.ErrUpstreamClient, Method: method, URL: target, StatusCode: resp.StatusCode, Body: Truncate(string(raw), maxStatusBodyChars)}
	}

	if !json.Valid(raw) {
		return nil, &HTTPError{Kind: domain.ErrMalformedResponse, Method: method, URL: target, StatusCode: resp.StatusCode, Body: Truncate(string(raw), maxMalformedBodyChars)}
	}
	return DecodeResponse(raw), nil
}
