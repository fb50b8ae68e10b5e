package client

import (
	"context"
	"errors"
	"fmt"

	sdkgrpc "github.com/instill-ai/instill-sdk-go/pkg/grpc"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorKind classifies a failed call.
type ErrorKind int

const (
	// KindInternal covers local failures that are not RPC errors.
	KindInternal ErrorKind = iota
	// KindNotServing means the readiness gate reported the backend down.
	KindNotServing
	// KindRPC is a gRPC status returned by the backend.
	KindRPC
	// KindTimeout is a deadline or cancellation, local or remote.
	KindTimeout
	// KindNoInstance means the client has no configured target.
	KindNoInstance
	// KindInvalid is a request that could not be built or dispatched.
	KindInvalid
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotServing:
		return "not serving"
	case KindRPC:
		return "rpc"
	case KindTimeout:
		return "timed out"
	case KindNoInstance:
		return "no instance"
	case KindInvalid:
		return "invalid request"
	}
	return "internal"
}

// Error is returned by every failed call.
type Error struct {
	Kind    ErrorKind
	Service string
	Method  string
	// Code and Details are set for KindRPC and remote timeouts.
	Code    codes.Code
	Details string
	Err     error
}

// Error formats as "service/method: kind" followed by the status or the
// wrapped error when there is one.
func (e *Error) Error() string {
	where := e.Service
	if e.Method != "" {
		where += "/" + e.Method
	}
	switch {
	case e.Kind == KindRPC || (e.Kind == KindTimeout && e.Code != codes.OK):
		return fmt.Sprintf("%s: %s: code = %s desc = %s", where, e.Kind, e.Code, e.Details)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", where, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", where, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// GRPCStatus exposes the remote status so status.Code works on wrapped
// errors. It is nil for local failures.
func (e *Error) GRPCStatus() *status.Status {
	if e.Code == codes.OK {
		return nil
	}
	return status.New(e.Code, e.Details)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsNotFound reports whether err carries a NotFound status.
func IsNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func classify(service, method string, err error) *Error {
	e := &Error{Service: service, Method: method, Err: err}
	if st, ok := status.FromError(err); ok {
		e.Code, e.Details = st.Code(), st.Message()
		switch st.Code() {
		case codes.DeadlineExceeded, codes.Canceled:
			e.Kind = KindTimeout
		default:
			e.Kind = KindRPC
		}
		return e
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		e.Kind = KindTimeout
	case errors.Is(err, sdkgrpc.ErrAsyncDisabled):
		e.Kind = KindInvalid
	default:
		e.Kind = KindInternal
	}
	return e
}

// report logs e unless the call is silent and applies the exit policy.
func (b *base) report(co callOptions, e *Error) *Error {
	if co.silent {
		return e
	}
	logger := b.logger()
	fields := []zap.Field{
		zap.String("service", e.Service),
		zap.String("method", e.Method),
		zap.String("kind", e.Kind.String()),
	}
	if e.Code != codes.OK {
		logger.Error("rpc failed", append(fields,
			zap.String("code", e.Code.String()),
			zap.String("details", e.Details))...)
	} else {
		logger.Error("call failed", append(fields, zap.Error(e.Err))...)
	}
	if b.opts.exitOnError {
		b.opts.exit(1)
	}
	return e
}
