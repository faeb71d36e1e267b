package stream

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/subctl/internal/shared"
	"golang.org/x/time/rate"
)

// ReconnectPolicy bounds how a [Supervisor] reopens a lost stream.
//
// MaxRetries of zero makes the first loss terminal.
type ReconnectPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// PerMinute caps reconnect attempts; zero or less means unlimited.
	PerMinute float64
}

// PolicyFromConfig builds a policy from the [stream] section of the client config.
func PolicyFromConfig(cfg shared.StreamConfig) ReconnectPolicy {
	return ReconnectPolicy{
		MaxRetries:     max(cfg.MaxRetries, 0),
		InitialBackoff: cfg.InitialBackoffDuration(),
		MaxBackoff:     cfg.MaxBackoffDuration(),
		PerMinute:      cfg.ReconnectsPerMinute,
	}
}

func (p ReconnectPolicy) limiter() *rate.Limiter {
	if p.PerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(p.PerMinute/60), 1)
}

// Backoff returns the delay before retry n (1-based): InitialBackoff doubled per retry, capped at MaxBackoff.
func (p ReconnectPolicy) Backoff(n int) time.Duration {
	d := p.InitialBackoff
	if d <= 0 {
		return 0
	}
	for i := 1; i < n; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// Supervisor keeps a [Client] connected within a [ReconnectPolicy].
type Supervisor struct {
	client  *Client
	policy  ReconnectPolicy
	limiter *rate.Limiter
	logger  *log.Logger
}

func NewSupervisor(client *Client, policy ReconnectPolicy, logger *log.Logger) *Supervisor {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Supervisor{
		client:  client,
		policy:  policy,
		limiter: policy.limiter(),
		logger:  logger,
	}
}

// Run streams into h until retries are exhausted or ctx is cancelled.
//
// Every loss is reported through h.Disconnected; the last one with final set. A connection
// that delivered at least one frame resets the retry count. Cancellation returns ctx.Err()
// without a Disconnected call.
func (s *Supervisor) Run(ctx context.Context, h Handler) error {
	retries := 0
	for {
		frames, err := s.client.run(ctx, h)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if frames > 0 {
			retries = 0
		}

		final := retries >= s.policy.MaxRetries
		h.Disconnected(err, final)
		if final {
			s.logger.Error("giving up on stream", "retries", retries, "err", err)
			return err
		}
		retries++

		delay := s.policy.Backoff(retries)
		s.logger.Warn("stream lost, retrying", "retry", retries, "of", s.policy.MaxRetries, "in", delay, "err", err)
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
