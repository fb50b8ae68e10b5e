package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestDispatch_SyncCompletesInline(t *testing.T) {
	defer goleak.VerifyNone(t)

	req := wrapperspb.String("ping")
	call := Dispatch(Sync, "/svc/M", req, func() (proto.Message, error) {
		return wrapperspb.String("pong"), nil
	})
	select {
	case <-call.Done():
	default:
		t.Fatal("sync call should be complete on return")
	}
	reply, err := call.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if reply.(*wrapperspb.StringValue).GetValue() != "pong" {
		t.Fatalf("unexpected reply %v", reply)
	}
	if call.Request() != req || call.Method != "/svc/M" {
		t.Fatal("call should keep its request and method")
	}
}

func TestDispatch_AsyncRunsOnGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	call := Dispatch(Async, "/svc/M", nil, func() (proto.Message, error) {
		<-release
		return nil, errors.New("boom")
	})
	select {
	case <-call.Done():
		t.Fatal("async call finished before it was released")
	default:
	}
	close(release)
	if _, err := call.Wait(); err == nil || err.Error() != "boom" {
		t.Fatalf("Wait err = %v", err)
	}
}

func TestCall_WaitContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	call := Dispatch(Async, "", nil, func() (proto.Message, error) {
		<-release
		return nil, nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := call.WaitContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("WaitContext err = %v", err)
	}
	close(release)
	if _, err := call.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestFailedAndCompleted(t *testing.T) {
	want := errors.New("bad request")
	if _, err := Failed("m", nil, want).Wait(); !errors.Is(err, want) {
		t.Fatalf("Failed err = %v", err)
	}
	reply, err := Completed("m", nil, &structpb.Struct{}).Wait()
	if err != nil || reply == nil {
		t.Fatalf("Completed = %v, %v", reply, err)
	}
}

func TestGather_PreservesOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls []*Call
	for i, d := range []time.Duration{30, 0, 10} {
		calls = append(calls, Dispatch(Async, "", nil, func() (proto.Message, error) {
			time.Sleep(d * time.Millisecond)
			return wrapperspb.Int32(int32(i)), nil
		}))
	}
	replies, err := Gather(context.Background(), calls...)
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for i, r := range replies {
		if got := r.(*wrapperspb.Int32Value).GetValue(); got != int32(i) {
			t.Fatalf("reply %d = %d", i, got)
		}
	}
}

func TestGather_FirstError(t *testing.T) {
	defer goleak.VerifyNone(t)

	want := errors.New("unavailable")
	ok := Dispatch(Async, "", nil, func() (proto.Message, error) { return wrapperspb.Bool(true), nil })
	bad := Failed("", nil, want)
	if _, err := Gather(context.Background(), ok, bad); !errors.Is(err, want) {
		t.Fatalf("Gather err = %v", err)
	}
	_, _ = ok.Wait()
}
