package poller

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"imagerelay/internal/domain"
	"imagerelay/internal/infra"
	"imagerelay/internal/upstream"
)

const (
	DefaultTimeout  = 180 * time.Second
	DefaultInterval = time.Second

	maxDetailChars = 1500
)

// Fetcher retrieves the current state of a job.
type Fetcher interface {
	Fetch(ctx context.Context, resultURL, credential string) (*upstream.Response, error)
}

// Options bounds a single wait.
type Options struct {
	Timeout  time.Duration
	Interval time.Duration
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	return o
}

// JobError reports a wait that ended without outputs. Kind is ErrEmptyOutput,
// ErrUpstreamJobFailed or ErrPollTimeout.
type JobError struct {
	Kind    error
	Status  string
	Detail  string
	Elapsed time.Duration
}

func (e *JobError) Error() string {
	switch e.Kind {
	case domain.ErrEmptyOutput:
		return fmt.Sprintf("poller: job %s but outputs are empty: %s", e.Status, e.Detail)
	case domain.ErrUpstreamJobFailed:
		return fmt.Sprintf("poller: job %s: %s", e.Status, e.Detail)
	default:
		return fmt.Sprintf("poller: no outputs after %s, last status %q: %s", e.Elapsed.Round(time.Millisecond), e.Status, e.Detail)
	}
}

func (e *JobError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// Poller repeatedly fetches a job until it yields outputs, fails or runs out of time.
type Poller struct {
	fetcher Fetcher
	logger  *infra.Logger
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// New constructs a Poller. A nil logger discards output.
func New(fetcher Fetcher, logger *infra.Logger) *Poller {
	if logger == nil {
		l := infra.Logger(zerolog.New(io.Discard))
		logger = &l
	}
	return &Poller{
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// WaitForOutputs polls resultURL until the job has outputs and returns the reply
// carrying them. Outputs take precedence over whatever status accompanies them.
func (p *Poller) WaitForOutputs(ctx context.Context, resultURL, credential string, opts Options) (*upstream.Response, error) {
	opts = opts.withDefaults()
	started := p.now()
	for attempt := 1; ; attempt++ {
		resp, err := p.fetcher.Fetch(ctx, resultURL, credential)
		if err != nil {
			return nil, err
		}
		data := resp.JobData()
		status := data.NormalizedStatus()
		if data.HasOutputs() {
			p.logger.Debug().Int("attempt", attempt).Str("status", status).Msg("poller: outputs ready")
			return resp, nil
		}
		switch {
		case upstream.IsTerminalSuccess(status):
			return nil, &JobError{Kind: domain.ErrEmptyOutput, Status: status, Detail: upstream.Truncate(string(data.Raw), maxDetailChars)}
		case upstream.IsTerminalFailure(status):
			return nil, &JobError{Kind: domain.ErrUpstreamJobFailed, Status: status, Detail: upstream.Truncate(data.ErrorDetail(), maxDetailChars)}
		}

		elapsed := p.now().Sub(started)
		if elapsed > opts.Timeout {
			return nil, &JobError{Kind: domain.ErrPollTimeout, Status: status, Detail: upstream.Truncate(string(data.Raw), maxDetailChars), Elapsed: elapsed}
		}
		p.logger.Debug().Int("attempt", attempt).Str("status", status).Dur("elapsed", elapsed).Msg("poller: job pending")
		if err := p.sleep(ctx, opts.Interval); err != nil {
			return nil, fmt.Errorf("poller: wait interrupted: %w", err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
