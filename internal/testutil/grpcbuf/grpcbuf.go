// Package grpcbuf runs in-memory fakes of the platform services for tests.
// Services are registered straight from the embedded descriptors, so a fake
// only needs handlers for the methods a test exercises.
package grpcbuf

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"io"
	"math/big"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	sdkgrpc "github.com/instill-ai/instill-sdk-go/pkg/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

const bufSize = 1024 * 1024

// Handler answers one method. req is a dynamic message of the method input.
type Handler func(ctx context.Context, req *dynamicpb.Message) (proto.Message, error)

// MetaCapture captures incoming metadata on the server side for later inspection in tests.
type MetaCapture struct {
	last atomic.Value // stores metadata.MD
}

func (m *MetaCapture) record(ctx context.Context) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		m.last.Store(md)
	}
}

// Last returns the most recently captured metadata or nil if none.
func (m *MetaCapture) Last() metadata.MD {
	if v := m.last.Load(); v != nil {
		return v.(metadata.MD)
	}
	return nil
}

// Server is a bufconn-backed fake of one or more platform services.
type Server struct {
	Listener *bufconn.Listener
	Meta     *MetaCapture

	srv      *grpc.Server
	serving  atomic.Bool
	mu       sync.Mutex
	handlers map[string]Handler
	requests map[string][]*dynamicpb.Message
	streamed map[string][]int
	rejects  map[string]error
}

// StartServer spins up a fake serving the given fully-qualified services.
// Readiness and Liveness answer SERVING until SetServing(false). The server
// is stopped when the test ends.
func StartServer(t testing.TB, services ...string) *Server {
	t.Helper()
	return start(t, nil, services)
}

// StartTLSServer is StartServer behind TLS with the given certificate.
func StartTLSServer(t testing.TB, cert tls.Certificate, services ...string) *Server {
	t.Helper()
	creds := credentials.NewTLS(&tls.Config{Certificates: []tls.Certificate{cert}})
	return start(t, []grpc.ServerOption{grpc.Creds(creds)}, services)
}

func start(t testing.TB, opts []grpc.ServerOption, services []string) *Server {
	t.Helper()
	reg, err := sdkgrpc.Protocol()
	if err != nil {
		t.Fatalf("compile protocol: %v", err)
	}

	s := &Server{
		Listener: bufconn.Listen(bufSize),
		Meta:     &MetaCapture{},
		handlers: make(map[string]Handler),
		requests: make(map[string][]*dynamicpb.Message),
		streamed: make(map[string][]int),
		rejects:  make(map[string]error),
	}
	s.serving.Store(true)
	s.srv = grpc.NewServer(opts...)

	for _, name := range services {
		sd, err := reg.Service(name)
		if err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
		s.srv.RegisterService(s.serviceDesc(sd), s)
	}

	go func() { _ = s.srv.Serve(s.Listener) }()
	t.Cleanup(s.Stop)
	return s
}

// Stop shuts the server down.
func (s *Server) Stop() {
	s.srv.Stop()
	_ = s.Listener.Close()
}

// Dialer returns a context dialer bound to the in-memory listener.
func (s *Server) Dialer() func(context.Context, string) (net.Conn, error) {
	return func(ctx context.Context, _ string) (net.Conn, error) {
		return s.Listener.DialContext(ctx)
	}
}

// Route returns a dialer that picks a server by the host part of the dialed
// address, so one client option can reach several fakes.
func Route(servers map[string]*Server) func(context.Context, string) (net.Conn, error) {
	return func(ctx context.Context, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		srv, ok := servers[host]
		if !ok {
			return nil, errors.New("grpcbuf: no fake server for " + addr)
		}
		return srv.Listener.DialContext(ctx)
	}
}

// SetServing flips the health status reported by Readiness and Liveness.
func (s *Server) SetServing(v bool) {
	s.serving.Store(v)
}

// Handle installs h for service/method, replacing any previous handler.
func (s *Server) Handle(service, method string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[key(service, method)] = h
}

// Reply installs a handler that always answers with fields.
func (s *Server) Reply(service, method string, fields map[string]any) {
	s.Handle(service, method, func(ctx context.Context, req *dynamicpb.Message) (proto.Message, error) {
		return ReplyFor(req, fields)
	})
}

// Fail installs a handler that always returns the given status.
func (s *Server) Fail(service, method string, code codes.Code, msg string) {
	s.Handle(service, method, func(context.Context, *dynamicpb.Message) (proto.Message, error) {
		return nil, status.Error(code, msg)
	})
}

// RejectStream makes a client-streaming method fail with the given status
// before reading any message.
func (s *Server) RejectStream(service, method string, code codes.Code, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejects[key(service, method)] = status.Error(code, msg)
}

// Calls reports how many requests service/method received.
func (s *Server) Calls(service, method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests[key(service, method)])
}

// Requests returns the requests service/method received, oldest first.
func (s *Server) Requests(service, method string) []*dynamicpb.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*dynamicpb.Message(nil), s.requests[key(service, method)]...)
}

// StreamLengths returns the number of messages in each client stream received
// by service/method.
func (s *Server) StreamLengths(service, method string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.streamed[key(service, method)]...)
}

// ReplyFor builds the output message of the method that req belongs to.
func ReplyFor(req *dynamicpb.Message, fields map[string]any) (proto.Message, error) {
	md, err := methodOf(req.Descriptor())
	if err != nil {
		return nil, err
	}
	return sdkgrpc.NewReply(md, fields)
}

// Field reads a top-level field of a captured request as a plain value.
func Field(req *dynamicpb.Message, name string) any {
	m, err := sdkgrpc.ToMap(req)
	if err != nil {
		return nil
	}
	return m[name]
}

// SelfSignedCert returns a throwaway ECDSA certificate for localhost.
func SelfSignedCert(t testing.TB) tls.Certificate {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		DNSNames:     []string{"localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv}
}

func key(service, method string) string {
	return "/" + service + "/" + method
}

var inputIndex sync.Map // protoreflect.FullName → protoreflect.MethodDescriptor

func methodOf(input protoreflect.MessageDescriptor) (protoreflect.MethodDescriptor, error) {
	if md, ok := inputIndex.Load(input.FullName()); ok {
		return md.(protoreflect.MethodDescriptor), nil
	}
	return nil, errors.New("grpcbuf: no method takes " + string(input.FullName()))
}

func (s *Server) serviceDesc(sd protoreflect.ServiceDescriptor) *grpc.ServiceDesc {
	desc := &grpc.ServiceDesc{
		ServiceName: string(sd.FullName()),
		HandlerType: (*any)(nil),
		Metadata:    sd.ParentFile().Path(),
	}
	methods := sd.Methods()
	for i := 0; i < methods.Len(); i++ {
		md := methods.Get(i)
		if !strings.HasPrefix(string(md.Name()), "Liveness") && !strings.HasPrefix(string(md.Name()), "Readiness") {
			inputIndex.LoadOrStore(md.Input().FullName(), md)
		}
		if md.IsStreamingClient() {
			desc.Streams = append(desc.Streams, grpc.StreamDesc{
				StreamName:    string(md.Name()),
				Handler:       s.streamHandler(md),
				ClientStreams: true,
			})
			continue
		}
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: string(md.Name()),
			Handler:    s.unaryHandler(md),
		})
	}
	return desc
}

func (s *Server) unaryHandler(md protoreflect.MethodDescriptor) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(_ any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
		in := dynamicpb.NewMessage(md.Input())
		if err := dec(in); err != nil {
			return nil, err
		}
		s.Meta.record(ctx)
		return s.dispatch(ctx, md, in)
	}
}

func (s *Server) streamHandler(md protoreflect.MethodDescriptor) grpc.StreamHandler {
	return func(_ any, stream grpc.ServerStream) error {
		s.Meta.record(stream.Context())
		s.mu.Lock()
		reject := s.rejects[sdkgrpc.FullMethod(md)]
		s.mu.Unlock()
		if reject != nil {
			return reject
		}
		var last *dynamicpb.Message
		count := 0
		for {
			in := dynamicpb.NewMessage(md.Input())
			err := stream.RecvMsg(in)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}
			last = in
			count++
		}
		full := sdkgrpc.FullMethod(md)
		s.mu.Lock()
		s.streamed[full] = append(s.streamed[full], count)
		s.mu.Unlock()
		if last == nil {
			return status.Error(codes.InvalidArgument, "empty stream")
		}
		reply, err := s.dispatch(stream.Context(), md, last)
		if err != nil {
			return err
		}
		return stream.SendMsg(reply)
	}
}

func (s *Server) dispatch(ctx context.Context, md protoreflect.MethodDescriptor, in *dynamicpb.Message) (proto.Message, error) {
	full := sdkgrpc.FullMethod(md)
	s.mu.Lock()
	s.requests[full] = append(s.requests[full], in)
	h := s.handlers[full]
	s.mu.Unlock()

	if h != nil {
		return h(ctx, in)
	}
	switch md.Name() {
	case "Liveness", "Readiness":
		st := 2 // SERVING_STATUS_NOT_SERVING
		if s.serving.Load() {
			st = 1
		}
		return sdkgrpc.NewReply(md, map[string]any{
			"health_check_response": map[string]any{"status": st},
		})
	}
	return nil, statusUnimplemented(full)
}

func statusUnimplemented(full string) error {
	return status.Error(codes.Unimplemented, "grpcbuf: no handler for "+full)
}
