package client

import (
	"os"
	"time"

	sdkgrpc "github.com/instill-ai/instill-sdk-go/pkg/grpc"
	"go.uber.org/zap"
)

type options struct {
	token       *string
	async       bool
	alias       string
	dialOpts    []sdkgrpc.DialOption
	exitOnError bool
	exit        func(int)
	callTimeout time.Duration
	requestIDs  bool
	logger      *zap.Logger
}

// Option configures a service client.
type Option func(*options)

func defaultOptions() options {
	return options{exit: os.Exit}
}

// WithAPIToken overrides the token stored for the selected instance.
func WithAPIToken(token string) Option {
	return func(o *options) { o.token = &token }
}

// WithAsync opens the async channel so calls can use the Async call option.
func WithAsync() Option {
	return func(o *options) { o.async = true }
}

// WithInstance selects a configured alias instead of the default one.
func WithInstance(alias string) Option {
	return func(o *options) { o.alias = alias }
}

// WithDialOptions passes options to grpc.Dial (dialers, interceptors,
// metrics, TLS).
func WithDialOptions(opts ...sdkgrpc.DialOption) Option {
	return func(o *options) { o.dialOpts = append(o.dialOpts, opts...) }
}

// WithExitOnError terminates the process with status 1 after a non-silent
// call fails.
func WithExitOnError() Option {
	return func(o *options) { o.exitOnError = true }
}

// WithExitFunc replaces os.Exit for WithExitOnError.
func WithExitFunc(fn func(int)) Option {
	return func(o *options) {
		if fn != nil {
			o.exit = fn
		}
	}
}

// WithCallTimeout bounds every call, including its readiness check.
func WithCallTimeout(d time.Duration) Option {
	return func(o *options) { o.callTimeout = d }
}

// WithRequestIDs tags each call with a random x-request-id header.
func WithRequestIDs() Option {
	return func(o *options) { o.requestIDs = true }
}

// WithLogger replaces the global zap logger for error reports.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

type callOptions struct {
	silent   bool
	async    bool
	skipGate bool
}

// CallOption tunes a single call.
type CallOption func(*callOptions)

// WithSilent suppresses logging and the exit policy for this call. The
// error is still returned.
func WithSilent() CallOption {
	return func(o *callOptions) { o.silent = true }
}

// Async dispatches the call on its own goroutine over the async channel.
// The client must be built WithAsync.
func Async() CallOption {
	return func(o *callOptions) { o.async = true }
}

// SkipServingCheck bypasses the readiness gate.
func SkipServingCheck() CallOption {
	return func(o *callOptions) { o.skipGate = true }
}

func applyCallOptions(opts []CallOption) callOptions {
	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}
	return co
}
