package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/instill-ai/instill-sdk-go/pkg/client"
	"go.uber.org/zap"
)

// ErrCreationFailed is returned when an entity is absent and creating it
// yields nothing.
var ErrCreationFailed = errors.New("creation failed")

// Option configures a resource handle.
type Option func(*options)

type options struct {
	wait   WaitPolicy
	logger *zap.Logger
}

func applyOptions(opts []Option) options {
	o := options{wait: DefaultWaitPolicy()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) log() *zap.Logger {
	if o.logger != nil {
		return o.logger
	}
	return zap.L()
}

// WithWaitPolicy sets how state transitions are awaited.
func WithWaitPolicy(p WaitPolicy) Option {
	return func(o *options) { o.wait = p }
}

// WithLogger overrides the global zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// getOrCreate looks the entity up and creates it when absent. A NotFound
// status or an empty entity both count as absent.
func getOrCreate[T any](ctx context.Context, name string,
	get, create func(context.Context) (T, error), empty func(T) bool,
) (T, bool, error) {
	var zero T
	got, err := get(ctx)
	switch {
	case err == nil && !empty(got):
		return got, false, nil
	case err != nil && !client.IsNotFound(err):
		return zero, false, err
	}

	created, err := create(ctx)
	if err != nil {
		return zero, false, fmt.Errorf("%s: %w: %w", name, ErrCreationFailed, err)
	}
	if empty(created) {
		return zero, false, fmt.Errorf("%s: %w", name, ErrCreationFailed)
	}
	return created, true, nil
}
