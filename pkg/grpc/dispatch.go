package grpc

import (
	"context"

	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/proto"
)

// Strategy selects how a call is dispatched.
type Strategy int

const (
	// Sync runs the call on the caller's goroutine; the returned Call is
	// already complete.
	Sync Strategy = iota
	// Async runs the call on its own goroutine over the async channel.
	Async
)

func (s Strategy) String() string {
	if s == Async {
		return "async"
	}
	return "sync"
}

// Call is a pending or completed RPC. The request is built once, before
// dispatch, so both strategies send identical messages.
type Call struct {
	// Method is the wire path of the call, when known.
	Method string

	request proto.Message
	reply   proto.Message
	err     error
	done    chan struct{}
}

func newCall(method string, req proto.Message) *Call {
	return &Call{Method: method, request: req, done: make(chan struct{})}
}

func (c *Call) finish(reply proto.Message, err error) {
	c.reply, c.err = reply, err
	close(c.done)
}

// Failed returns a completed call carrying err.
func Failed(method string, req proto.Message, err error) *Call {
	c := newCall(method, req)
	c.finish(nil, err)
	return c
}

// Completed returns a completed call carrying reply.
func Completed(method string, req proto.Message, reply proto.Message) *Call {
	c := newCall(method, req)
	c.finish(reply, nil)
	return c
}

// Dispatch runs fn according to the strategy and returns its Call.
func Dispatch(s Strategy, method string, req proto.Message, fn func() (proto.Message, error)) *Call {
	c := newCall(method, req)
	if s == Async {
		go func() { c.finish(fn()) }()
		return c
	}
	c.finish(fn())
	return c
}

// Done is closed once the call has completed.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the call completes and returns its outcome.
func (c *Call) Wait() (proto.Message, error) {
	<-c.done
	return c.reply, c.err
}

// WaitContext is Wait bounded by ctx. The call itself keeps running when ctx
// ends first.
func (c *Call) WaitContext(ctx context.Context) (proto.Message, error) {
	select {
	case <-c.done:
		return c.reply, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Request returns the message sent (or to be sent) by the call.
func (c *Call) Request() proto.Message {
	return c.request
}

// Gather waits for every call and returns the replies in input order. The
// first error, or ctx ending, is returned.
func Gather(ctx context.Context, calls ...*Call) ([]proto.Message, error) {
	out := make([]proto.Message, len(calls))
	g, ctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			reply, err := call.WaitContext(ctx)
			if err != nil {
				return err
			}
			out[i] = reply
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
