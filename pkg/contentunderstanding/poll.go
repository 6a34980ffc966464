package contentunderstanding

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cu-eval/internal/model"
)

const (
	defaultPollInitial = 3 * time.Second
	defaultPollCap     = 15 * time.Second
	defaultPollTimeout = 10 * time.Minute
)

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	initial  time.Duration
	cap      time.Duration
	timeout  time.Duration
	onStatus func(model.OperationStatus)
}

func defaultPollConfig() pollConfig {
	return pollConfig{
		initial: defaultPollInitial,
		cap:     defaultPollCap,
		timeout: defaultPollTimeout,
	}
}

// WithPollInterval overrides the initial poll interval.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.initial = d
	}
}

// WithPollCap overrides the maximum poll interval.
func WithPollCap(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.cap = d
	}
}

// WithPollTimeout overrides the default timeout (applied only if the parent
// context has no deadline).
func WithPollTimeout(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.timeout = d
	}
}

// WithStatusHook registers fn to observe every non-terminal status.
func WithStatusHook(fn func(model.OperationStatus)) PollOption {
	return func(c *pollConfig) {
		c.onStatus = fn
	}
}

// PollOperation polls location until the operation succeeds, fails, or the
// context expires. The interval doubles after each poll up to the cap:
// 3s -> 6s -> 12s -> 15s.
func PollOperation(ctx context.Context, client Client, location string, opts ...PollOption) (*Operation, error) {
	cfg := defaultPollConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	interval := cfg.initial
	for {
		op, err := client.GetOperation(ctx, location)
		if err != nil {
			return nil, eris.Wrapf(err, "contentunderstanding: poll operation %s", location)
		}

		switch op.Status {
		case model.OperationSucceeded:
			return op, nil
		case model.OperationFailed:
			failed := &OperationFailedError{Location: location}
			if op.Error != nil {
				failed.Code = op.Error.Code
				failed.Message = op.Error.Message
			}
			return nil, failed
		}

		if cfg.onStatus != nil {
			cfg.onStatus(op.Status)
		}

		select {
		case <-ctx.Done():
			return nil, eris.Wrapf(ctx.Err(), "contentunderstanding: poll operation %s timed out", location)
		case <-time.After(interval):
		}

		interval *= 2
		if interval > cfg.cap {
			interval = cfg.cap
		}
	}
}
