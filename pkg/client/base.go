package client

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/instill-ai/instill-sdk-go/pkg/config"
	sdkgrpc "github.com/instill-ai/instill-sdk-go/pkg/grpc"
	"github.com/instill-ai/instill-sdk-go/pkg/model"
	"go.uber.org/zap"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/proto"
)

// Call is a pending or completed RPC. Wait returns the reply.
type Call = sdkgrpc.Call

// RequestIDHeader carries the per-call id set by WithRequestIDs.
const RequestIDHeader = "x-request-id"

// init configures a default global zap logger for the SDK. Applications may
// replace it with zap.ReplaceGlobals(...) or logging.Install.
func init() {
	c := zap.Config{
		Level:            zap.NewAtomicLevelAt(zap.InfoLevel),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := c.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
}

// base is shared by every service client: it owns the instance connection,
// builds requests and runs the readiness gate.
type base struct {
	service string
	alias   string
	inst    *sdkgrpc.Instance
	reg     *sdkgrpc.Registry
	opts    options
}

func newBase(service string, cfg *config.Config, opts ...Option) (*base, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	reg, err := sdkgrpc.Protocol()
	if err != nil {
		return nil, err
	}
	b := &base{service: service, reg: reg, opts: o}

	alias, inst, err := selectInstance(cfg, o.alias)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		b.logger().Warn("no instill instance configured", zap.String("service", service))
		return b, nil
	}

	token := inst.Token
	if o.token != nil {
		token = *o.token
	}
	conn, err := sdkgrpc.Dial(inst.URL, token, inst.Secure, o.async, o.dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("connect %s for %s: %w", alias, service, err)
	}
	b.alias, b.inst = alias, conn
	return b, nil
}

func selectInstance(cfg *config.Config, alias string) (string, *config.Instance, error) {
	if cfg == nil {
		if alias != "" {
			return "", nil, fmt.Errorf("%w: %q", config.ErrUnknownInstance, alias)
		}
		return "", nil, nil
	}
	if alias != "" {
		inst, ok := cfg.Instance(alias)
		if !ok {
			return "", nil, fmt.Errorf("%w: %q", config.ErrUnknownInstance, alias)
		}
		return alias, &inst, nil
	}
	alias, inst := cfg.Resolve()
	return alias, inst, nil
}

func (b *base) logger() *zap.Logger {
	if b.opts.logger != nil {
		return b.opts.logger
	}
	return zap.L()
}

// Target returns the alias of the selected instance, empty when none.
func (b *base) Target() string {
	return b.alias
}

// Instance exposes the underlying connection; nil when no instance is
// configured.
func (b *base) Instance() *sdkgrpc.Instance {
	return b.inst
}

// Close releases the connection.
func (b *base) Close() error {
	return b.inst.Close()
}

// Liveness probes the backend.
func (b *base) Liveness(ctx context.Context, opts ...CallOption) *Call {
	return b.invoke(ctx, "Liveness", nil, opts)
}

// Readiness reports whether the backend accepts traffic.
func (b *base) Readiness(ctx context.Context, opts ...CallOption) *Call {
	return b.invoke(ctx, "Readiness", nil, opts)
}

// IsServing reports whether Readiness answers SERVING. Every failure,
// including a missing instance, yields false.
func (b *base) IsServing(ctx context.Context) bool {
	reply, err := b.Readiness(ctx, WithSilent()).Wait()
	if err != nil {
		return false
	}
	var h model.HealthCheck
	if err := sdkgrpc.Decode(reply, &h); err != nil {
		return false
	}
	return h.Serving()
}

func isHealthMethod(method string) bool {
	return method == "Liveness" || method == "Readiness"
}

// invoke builds the request for method and dispatches it. The request is
// built before the strategy is chosen so Sync and Async send the same
// message.
func (b *base) invoke(ctx context.Context, method string, fields map[string]any, copts []CallOption) *Call {
	co := applyCallOptions(copts)

	md, err := b.reg.Method(b.service, method)
	if err != nil {
		return sdkgrpc.Failed(method, nil, b.report(co, &Error{Kind: KindInvalid, Service: b.service, Method: method, Err: err}))
	}
	full := sdkgrpc.FullMethod(md)
	req, err := sdkgrpc.NewRequest(md, fields)
	if err != nil {
		return sdkgrpc.Failed(full, nil, b.report(co, &Error{Kind: KindInvalid, Service: b.service, Method: method, Err: err}))
	}
	if b.inst == nil {
		return sdkgrpc.Failed(full, req, b.report(co, &Error{Kind: KindNoInstance, Service: b.service, Method: method}))
	}

	strategy := sdkgrpc.Sync
	if co.async {
		strategy = sdkgrpc.Async
		if !b.inst.AsyncEnabled() {
			return sdkgrpc.Failed(full, req, b.report(co, classify(b.service, method, sdkgrpc.ErrAsyncDisabled)))
		}
	}

	return sdkgrpc.Dispatch(strategy, full, req, func() (proto.Message, error) {
		ctx, cancel := b.callContext(ctx)
		defer cancel()

		if !co.skipGate && !isHealthMethod(method) && !b.serving(ctx, strategy) {
			if err := ctx.Err(); err != nil {
				return nil, b.report(co, classify(b.service, method, err))
			}
			return nil, b.report(co, &Error{Kind: KindNotServing, Service: b.service, Method: method})
		}

		var reply proto.Message
		var err error
		if md.IsStreamingClient() {
			reply, err = b.inst.SendStream(ctx, strategy, md, req)
		} else {
			reply, err = b.inst.Invoke(ctx, strategy, md, req)
		}
		if err != nil {
			return nil, b.report(co, classify(b.service, method, err))
		}
		return reply, nil
	})
}

func (b *base) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.opts.requestIDs {
		ctx = metadata.AppendToOutgoingContext(ctx, RequestIDHeader, uuid.NewString())
	}
	if b.opts.callTimeout > 0 {
		return context.WithTimeout(ctx, b.opts.callTimeout)
	}
	return context.WithCancel(ctx)
}

// serving runs the readiness check on the channel of the pending call.
func (b *base) serving(ctx context.Context, s sdkgrpc.Strategy) bool {
	md, err := b.reg.Method(b.service, "Readiness")
	if err != nil {
		return false
	}
	req, err := sdkgrpc.NewRequest(md, nil)
	if err != nil {
		return false
	}
	reply, err := b.inst.Invoke(ctx, s, md, req)
	if err != nil {
		b.logger().Debug("readiness check failed", zap.String("service", b.service), zap.Error(err))
		return false
	}
	var h model.HealthCheck
	if err := sdkgrpc.Decode(reply, &h); err != nil {
		return false
	}
	return h.Serving()
}

// Decode waits for call and decodes its reply into dst.
func Decode(call *Call, dst any) error {
	reply, err := call.Wait()
	if err != nil {
		return err
	}
	return sdkgrpc.Decode(reply, dst)
}

// ListOptions are the paging and filtering fields shared by list calls. Zero
// values are left unset.
type ListOptions struct {
	PageSize    int32
	PageToken   string
	Page        int32
	Filter      string
	View        model.View
	ShowDeleted bool
}

func (l ListOptions) fields(base map[string]any, supported ...string) map[string]any {
	if base == nil {
		base = map[string]any{}
	}
	for _, name := range supported {
		switch name {
		case "page_size":
			if l.PageSize > 0 {
				base[name] = l.PageSize
			}
		case "page_token":
			if l.PageToken != "" {
				base[name] = l.PageToken
			}
		case "page":
			if l.Page > 0 {
				base[name] = l.Page
			}
		case "filter":
			if l.Filter != "" {
				base[name] = l.Filter
			}
		case "view":
			if l.View != model.ViewUnspecified {
				base[name] = int32(l.View)
			}
		case "show_deleted":
			if l.ShowDeleted {
				base[name] = true
			}
		}
	}
	return base
}
