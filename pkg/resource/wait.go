package resource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/instill-ai/instill-sdk-go/pkg/client"
	"github.com/juju/clock"
	"github.com/juju/retry"
)

// DefaultInterval is the poll interval used when a WaitPolicy leaves it
// unset.
const DefaultInterval = time.Second

// WaitPolicy bounds a state wait loop.
type WaitPolicy struct {
	// Interval between two polls. Zero means DefaultInterval.
	Interval time.Duration
	// MaxInterval caps the interval when Backoff is set.
	MaxInterval time.Duration
	// Timeout bounds the whole wait. Zero leaves it bounded by the context
	// only.
	Timeout time.Duration
	// Backoff doubles the interval after every pending poll.
	Backoff bool
	// Clock defaults to the wall clock.
	Clock clock.Clock
}

// DefaultWaitPolicy polls every second until the context ends.
func DefaultWaitPolicy() WaitPolicy {
	return WaitPolicy{Interval: DefaultInterval}
}

var errPending = errors.New("state not terminal")

// poll runs check until it reports done or fails. Errors from check end the
// wait and are returned as is; running out of time yields a KindTimeout
// *client.Error.
func (p WaitPolicy) poll(ctx context.Context, service, what string, check func(context.Context) (bool, error)) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.WallClock
	}

	var fatal error
	args := retry.CallArgs{
		Func: func() error {
			done, err := check(ctx)
			if err != nil {
				fatal = err
				return err
			}
			if !done {
				return errPending
			}
			return nil
		},
		IsFatalError: func(err error) bool {
			return !errors.Is(err, errPending)
		},
		Attempts:    -1,
		Delay:       interval,
		MaxDuration: p.Timeout,
		Clock:       clk,
		Stop:        ctx.Done(),
	}
	if p.Backoff {
		args.BackoffFunc = retry.DoubleDelay
		args.MaxDelay = p.MaxInterval
	}

	err := retry.Call(args)
	switch {
	case err == nil:
		return nil
	case fatal != nil:
		return fatal
	case retry.IsDurationExceeded(err):
		return &client.Error{
			Kind: client.KindTimeout, Service: service, Method: what,
			Err: fmt.Errorf("not settled after %s", p.Timeout),
		}
	case retry.IsRetryStopped(err):
		return &client.Error{Kind: client.KindTimeout, Service: service, Method: what, Err: ctx.Err()}
	}
	return &client.Error{Kind: client.KindInternal, Service: service, Method: what, Err: err}
}
