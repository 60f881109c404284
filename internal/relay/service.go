package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"imagerelay/internal/domain"
	"imagerelay/internal/infra"
	"imagerelay/internal/poller"
	"imagerelay/internal/upstream"
)

// DefaultPrompt is sent when no prompt is configured for a feature.
const DefaultPrompt = "Generate a new composite image based on the provided reference images."

const defaultResolution = "1k"

// Mode tells how a result was obtained.
type Mode string

const (
	ModeSync  Mode = "sync"
	ModeAsync Mode = "async"
)

// PromptSource resolves the text prompt of a feature. An empty string means none.
type PromptSource interface {
	Prompt(feature string) string
}

// Submitter sends a generation request upstream.
type Submitter interface {
	Submit(ctx context.Context, endpoint, credential string, payload any) (*upstream.Response, error)
}

// Waiter blocks until an asynchronous job yields outputs.
type Waiter interface {
	WaitForOutputs(ctx context.Context, resultURL, credential string, opts poller.Options) (*upstream.Response, error)
}

// GenerationRequest is the JSON body posted to the generation endpoint.
type GenerationRequest struct {
	Prompt             string   `json:"prompt"`
	Images             []string `json:"images"`
	EnableSyncMode     bool     `json:"enable_sync_mode"`
	EnableBase64Output bool     `json:"enable_base64_output"`
	Resolution         string   `json:"resolution"`
}

// Result is the successful outcome of Run.
type Result struct {
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Mode   Mode            `json:"mode"`
}

// Options wires a Service.
type Options struct {
	Endpoint    string
	Credential  string
	Prompts     PromptSource
	Client      Submitter
	Poller      Waiter
	PollOptions poller.Options
	Logger      *infra.Logger
}

// Service turns a feature and its images into one generated result.
type Service struct {
	endpoint    string
	credential  string
	prompts     PromptSource
	client      Submitter
	poller      Waiter
	pollOptions poller.Options
	logger      *infra.Logger
}

// NewService constructs a Service. A nil logger discards output.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		l := infra.Logger(zerolog.New(io.Discard))
		logger = &l
	}
	return &Service{
		endpoint:    opts.Endpoint,
		credential:  opts.Credential,
		prompts:     opts.Prompts,
		client:      opts.Client,
		poller:      opts.Poller,
		pollOptions: opts.PollOptions,
		logger:      logger,
	}
}

// Run generates an image for feature. Every failure is returned as a *ServiceError.
func (s *Service) Run(ctx context.Context, feature string, images ImageSet) (*Result, error) {
	logger := s.loggerFor(ctx).With().Str("feature", feature).Logger()
	started := time.Now()

	result, err := s.run(ctx, feature, images, &logger)
	if err != nil {
		return nil, s.fail(err, &logger)
	}
	logger.Info().
		Str("mode", string(result.Mode)).
		Dur("elapsed", time.Since(started)).
		Msg("relay: generation succeeded")
	return result, nil
}

func (s *Service) run(ctx context.Context, feature string, images ImageSet, logger *infra.Logger) (*Result, error) {
	prompt := s.prompt(feature)
	refs := NormalizeImages(images)
	if len(refs) == 0 {
		return nil, fmt.Errorf("relay: %w", domain.ErrMissingImages)
	}

	payload := GenerationRequest{
		Prompt:             prompt,
		Images:             refs,
		EnableSyncMode:     true,
		EnableBase64Output: false,
		Resolution:         defaultResolution,
	}
	logger.Debug().Int("images", len(refs)).Msg("relay: submitting generation")

	resp, err := s.client.Submit(ctx, s.endpoint, s.credential, payload)
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("relay: %w: reply has no data object: %s", domain.ErrInvalidUpstreamFormat, upstream.Truncate(string(resp.Raw), 500))
	}
	if resp.Data.HasOutputs() {
		return &Result{Status: "success", Output: resp.Data.FirstOutput(), Mode: ModeSync}, nil
	}

	resultURL := resp.Data.URLs.Get
	if resultURL == "" {
		return nil, fmt.Errorf("relay: %w: %s", domain.ErrMissingResultURL, upstream.Truncate(string(resp.Data.Raw), 500))
	}
	logger.Debug().Str("result_url", resultURL).Msg("relay: waiting for asynchronous job")

	final, err := s.poller.WaitForOutputs(ctx, resultURL, s.credential, s.pollOptions)
	if err != nil {
		return nil, err
	}
	if final.Data == nil || !final.Data.HasOutputs() {
		return nil, fmt.Errorf("relay: %w: job finished without outputs", domain.ErrInvalidUpstreamFormat)
	}
	return &Result{Status: "success", Output: final.Data.FirstOutput(), Mode: ModeAsync}, nil
}

func (s *Service) prompt(feature string) string {
	if s.prompts != nil {
		if p := strings.TrimSpace(s.prompts.Prompt(feature)); p != "" {
			return p
		}
	}
	return DefaultPrompt
}

func (s *Service) fail(err error, logger *infra.Logger) error {
	kind := domain.KindOf(err)
	if errors.Is(err, domain.ErrMissingImages) {
		logger.Warn().Err(err).Msg("relay: request rejected")
		return &ServiceError{
			Fault:   FaultClient,
			Message: "missing images: provide image1..image4 or an images list",
			Err:     err,
		}
	}
	event := logger.Error().Err(err)
	if kind != nil {
		event = event.Str("kind", kind.Error())
	}
	event.Msg("relay: generation failed")
	return &ServiceError{Fault: FaultInternal, Message: "image generation failed", Err: err}
}

// loggerFor prefers the request-scoped logger stored in ctx.
func (s *Service) loggerFor(ctx context.Context) *infra.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return s.logger
}
