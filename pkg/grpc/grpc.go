package grpc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"sync"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_zap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/credentials/oauth"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// passthroughPrefix bypasses gRPC DNS resolution so custom dialers receive the
// configured address as-is.
const passthroughPrefix = "passthrough:///"

// ErrAsyncDisabled is returned when an asynchronous dispatch is requested on
// an instance dialed without the async channel.
var ErrAsyncDisabled = errors.New("async dispatch not enabled for this instance")

// Instance is an open connection to one configured platform endpoint. It owns
// the synchronous channel and, when requested at dial time, a second channel
// reserved for asynchronous dispatch.
type Instance struct {
	// URL is the endpoint as configured.
	URL string
	// Address is the resolved host:port.
	Address string
	// Secure reports whether TLS with bearer credentials is used.
	Secure bool

	token     string
	conn      *grpc.ClientConn
	asyncConn *grpc.ClientConn
	closeOnce sync.Once
	closeErr  error
}

type dialOptions struct {
	grpcOpts  []grpc.DialOption
	logger    *zap.Logger
	metrics   *grpc_prometheus.ClientMetrics
	tlsConfig *tls.Config
}

// DialOption customizes Dial.
type DialOption func(*dialOptions)

// WithGRPCOptions appends raw grpc dial options (e.g. a context dialer).
func WithGRPCOptions(opts ...grpc.DialOption) DialOption {
	return func(o *dialOptions) { o.grpcOpts = append(o.grpcOpts, opts...) }
}

// WithLogger logs every RPC issued on the instance channels.
func WithLogger(logger *zap.Logger) DialOption {
	return func(o *dialOptions) { o.logger = logger }
}

// WithMetrics records client-side RPC metrics.
func WithMetrics(m *grpc_prometheus.ClientMetrics) DialOption {
	return func(o *dialOptions) { o.metrics = m }
}

// WithTLSConfig replaces the system TLS configuration for secure instances.
func WithTLSConfig(cfg *tls.Config) DialOption {
	return func(o *dialOptions) { o.tlsConfig = cfg }
}

// ParseAddress turns a configured URL into a dialable host:port and reports
// whether TLS applies. Either an https/grpcs scheme or the secure flag enables
// TLS. A missing port defaults to 443 with TLS and 80 without.
func ParseAddress(raw string, secure bool) (string, bool, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", false, errors.New("empty instance url")
	}
	if !strings.Contains(value, "://") {
		value = "grpc://" + value
	}
	u, err := url.Parse(value)
	if err != nil {
		return "", false, fmt.Errorf("parse instance url %q: %w", raw, err)
	}
	switch u.Scheme {
	case "grpc", "http":
	case "grpcs", "https":
		secure = true
	default:
		return "", false, fmt.Errorf("unsupported scheme %q in instance url", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", false, fmt.Errorf("instance url %q has no host", raw)
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if secure {
			port = "443"
		}
	}
	return net.JoinHostPort(u.Hostname(), port), secure, nil
}

// Dial opens the channel(s) to an instance. With secure set the channel uses
// TLS composed with bearer-token call credentials; otherwise the channel is
// plaintext and the token travels as authorization metadata on each call.
// asyncEnabled opens a second channel used by the Async strategy.
func Dial(rawURL, token string, secure, asyncEnabled bool, opts ...DialOption) (*Instance, error) {
	var o dialOptions
	for _, opt := range opts {
		opt(&o)
	}

	addr, secure, err := ParseAddress(rawURL, secure)
	if err != nil {
		return nil, err
	}

	dialOpts := credentialOptions(secure, token, o.tlsConfig)
	dialOpts = append(dialOpts, interceptorOptions(o)...)
	dialOpts = append(dialOpts, o.grpcOpts...)

	conn, err := grpc.NewClient(passthroughPrefix+addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpc: connect %s: %w", addr, err)
	}

	inst := &Instance{
		URL:     rawURL,
		Address: addr,
		Secure:  secure,
		token:   strings.TrimSpace(token),
		conn:    conn,
	}

	if asyncEnabled {
		inst.asyncConn, err = grpc.NewClient(passthroughPrefix+addr, dialOpts...)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("grpc: connect async %s: %w", addr, err)
		}
	}

	return inst, nil
}

func credentialOptions(secure bool, token string, tlsConfig *tls.Config) []grpc.DialOption {
	if !secure {
		return []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	opts := []grpc.DialOption{grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig))}
	if token = strings.TrimSpace(token); token != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(oauth.TokenSource{
			TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		}))
	}
	return opts
}

func interceptorOptions(o dialOptions) []grpc.DialOption {
	var unary []grpc.UnaryClientInterceptor
	var stream []grpc.StreamClientInterceptor
	if o.metrics != nil {
		unary = append(unary, o.metrics.UnaryClientInterceptor())
		stream = append(stream, o.metrics.StreamClientInterceptor())
	}
	if o.logger != nil {
		unary = append(unary, grpc_zap.UnaryClientInterceptor(o.logger))
		stream = append(stream, grpc_zap.StreamClientInterceptor(o.logger))
	}
	if len(unary) == 0 {
		return nil
	}
	return []grpc.DialOption{
		grpc.WithUnaryInterceptor(grpc_middleware.ChainUnaryClient(unary...)),
		grpc.WithStreamInterceptor(grpc_middleware.ChainStreamClient(stream...)),
	}
}

// AsyncEnabled reports whether the instance carries an async channel.
func (i *Instance) AsyncEnabled() bool {
	return i != nil && i.asyncConn != nil
}

// Conn returns the channel serving the given strategy.
func (i *Instance) Conn(s Strategy) (*grpc.ClientConn, error) {
	if i == nil || i.conn == nil {
		return nil, errors.New("instance is not connected")
	}
	if s == Async {
		if i.asyncConn == nil {
			return nil, ErrAsyncDisabled
		}
		return i.asyncConn, nil
	}
	return i.conn, nil
}

// Invoke performs a unary call and blocks until the reply arrives. The reply
// is a dynamic message of md's output type.
func (i *Instance) Invoke(ctx context.Context, s Strategy, md protoreflect.MethodDescriptor, req proto.Message) (proto.Message, error) {
	conn, err := i.Conn(s)
	if err != nil {
		return nil, err
	}
	out := dynamicpb.NewMessage(md.Output())
	if err := conn.Invoke(i.outgoing(ctx), FullMethod(md), req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendStream calls a client-streaming method with exactly one request message
// and waits for the single reply.
func (i *Instance) SendStream(ctx context.Context, s Strategy, md protoreflect.MethodDescriptor, req proto.Message) (proto.Message, error) {
	if !md.IsStreamingClient() || md.IsStreamingServer() {
		return nil, fmt.Errorf("%s is not a client-streaming method", md.FullName())
	}
	conn, err := i.Conn(s)
	if err != nil {
		return nil, err
	}
	desc := &grpc.StreamDesc{StreamName: string(md.Name()), ClientStreams: true}
	stream, err := conn.NewStream(i.outgoing(ctx), desc, FullMethod(md))
	if err != nil {
		return nil, err
	}
	// io.EOF from SendMsg means the server already ended the stream; its
	// status is returned by RecvMsg.
	if err := stream.SendMsg(req); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	out := dynamicpb.NewMessage(md.Output())
	if err := stream.RecvMsg(out); err != nil {
		return nil, err
	}
	return out, nil
}

// outgoing attaches the bearer token on plaintext channels; secure channels
// carry it through per-RPC credentials.
func (i *Instance) outgoing(ctx context.Context) context.Context {
	if i.Secure || i.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+i.token)
}

// Close shuts down both channels. It is safe to call more than once and on a
// nil receiver.
func (i *Instance) Close() error {
	if i == nil {
		return nil
	}
	i.closeOnce.Do(func() {
		var errs []error
		if i.conn != nil {
			errs = append(errs, i.conn.Close())
		}
		if i.asyncConn != nil {
			errs = append(errs, i.asyncConn.Close())
		}
		i.closeErr = errors.Join(errs...)
	})
	return i.closeErr
}
