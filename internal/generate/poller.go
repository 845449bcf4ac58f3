package generate

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"clipforge/internal/infra"
	"clipforge/internal/media"
	"clipforge/internal/providers/aiml"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultPollMaxWait  = 300 * time.Second
)

// Providers still rolling out REST status endpoints answer 404 there; these
// documented conventions are tried in order before giving up on a tick.
var defaultFallbackStatusPaths = []string{
	"/video/generations",
	"/generate/video/google/generation",
}

var (
	inProgressTokens = map[string]bool{
		"waiting":    true,
		"active":     true,
		"queued":     true,
		"generating": true,
		"pending":    true,
		"processing": true,
	}
	failureTokens = map[string]bool{
		"failed": true,
		"error":  true,
	}
	successTokens = map[string]bool{
		"completed": true,
		"succeeded": true,
		"finished":  true,
	}
)

// PollClient performs a single status query.
type PollClient interface {
	Poll(ctx context.Context, jobID, statusPathOverride string) *aiml.Response
}

// Poller drives repeated status queries until a terminal state or deadline.
// The wait blocks its calling goroutine; sleeps honor context cancellation so
// a caller disconnect stops the loop.
type Poller struct {
	Client              PollClient
	Interval            time.Duration
	MaxWait             time.Duration
	FallbackStatusPaths []string
	Logger              *infra.Logger

	// Now and Sleep are injectable for tests.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// PollOutcome is the terminal result of one polling wait.
type PollOutcome struct {
	Status   JobStatus
	Response *aiml.Response
	MediaURL string
}

// Wait polls jobID until completion, provider-reported failure, or the
// deadline. On deadline expiry it returns a timeout outcome carrying the last
// observed response.
func (p *Poller) Wait(ctx context.Context, jobID, statusPath string) PollOutcome {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	maxWait := p.MaxWait
	if maxWait <= 0 {
		maxWait = defaultPollMaxWait
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	logger := p.logger()

	start := now()
	var last *aiml.Response
	for now().Sub(start) < maxWait {
		resp := p.Client.Poll(ctx, jobID, statusPath)
		state := resp.Status()

		// A 404 with no status field usually means this provider serves its
		// status under a different convention; try the documented alternates
		// before treating the tick as "retry later".
		if resp.StatusCode == http.StatusNotFound && state == "" {
			resp, state = p.tryFallbackPaths(ctx, jobID, resp)
			if resp.StatusCode == http.StatusNotFound && state == "" {
				last = resp
				if err := sleep(ctx, interval); err != nil {
					return PollOutcome{Status: JobTimeout, Response: last}
				}
				continue
			}
		}
		last = resp

		if failureTokens[state] {
			logger.Debug().Str("job_id", jobID).Str("state", state).Msg("poll: provider reported failure")
			return PollOutcome{Status: JobFailed, Response: resp}
		}
		if inProgressTokens[state] {
			if err := sleep(ctx, interval); err != nil {
				return PollOutcome{Status: JobTimeout, Response: last}
			}
			continue
		}
		if url, ok := media.ExtractVideoURL(resp.Body); ok {
			return PollOutcome{Status: JobCompleted, Response: resp, MediaURL: url}
		}
		if successTokens[state] {
			// Terminal success token but no extractable media URL; the
			// orchestrator classifies this strictly.
			return PollOutcome{Status: JobCompleted, Response: resp}
		}
		// Unknown state: non-terminal, retry later.
		if err := sleep(ctx, interval); err != nil {
			return PollOutcome{Status: JobTimeout, Response: last}
		}
	}
	logger.Warn().Str("job_id", jobID).Dur("max_wait", maxWait).Msg("poll: deadline expired")
	return PollOutcome{Status: JobTimeout, Response: last}
}

func (p *Poller) tryFallbackPaths(ctx context.Context, jobID string, orig *aiml.Response) (*aiml.Response, string) {
	paths := p.FallbackStatusPaths
	if paths == nil {
		paths = defaultFallbackStatusPaths
	}
	for _, path := range paths {
		alt := p.Client.Poll(ctx, jobID, path)
		if alt.StatusCode > 0 && alt.StatusCode < 400 {
			return alt, alt.Status()
		}
	}
	return orig, orig.Status()
}

func (p *Poller) logger() infra.Logger {
	if p.Logger != nil {
		return *p.Logger
	}
	return zerolog.New(io.Discard)
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
