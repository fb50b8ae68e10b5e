package grpc_test

import (
	"context"
	"crypto/tls"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/instill-ai/instill-sdk-go/internal/testutil/grpcbuf"
	sdkgrpc "github.com/instill-ai/instill-sdk-go/pkg/grpc"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func dialFake(t *testing.T, srv *grpcbuf.Server, token string, async bool) *sdkgrpc.Instance {
	t.Helper()
	inst, err := sdkgrpc.Dial("localhost:7080", token, false, async,
		sdkgrpc.WithGRPCOptions(grpc.WithContextDialer(srv.Dialer())),
		sdkgrpc.WithLogger(zaptest.NewLogger(t)),
	)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = inst.Close() })
	return inst
}

func TestInstance_InvokeSendsBearer(t *testing.T) {
	srv := grpcbuf.StartServer(t, sdkgrpc.ModelService)
	inst := dialFake(t, srv, "instill_sk_abc", false)

	reg, _ := sdkgrpc.Protocol()
	md, err := reg.Method(sdkgrpc.ModelService, "Readiness")
	if err != nil {
		t.Fatalf("Method: %v", err)
	}
	req, _ := sdkgrpc.NewRequest(md, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	reply, err := inst.Invoke(ctx, sdkgrpc.Sync, md, req)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	var out struct {
		Health struct {
			Status int `json:"status"`
		} `json:"health_check_response"`
	}
	if err := sdkgrpc.Decode(reply, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Health.Status != 1 {
		t.Fatalf("status = %d, want SERVING", out.Health.Status)
	}

	got := srv.Meta.Last().Get("authorization")
	if len(got) != 1 || got[0] != "Bearer instill_sk_abc" {
		t.Fatalf("authorization metadata = %v", got)
	}
}

func TestInstance_NoTokenNoHeader(t *testing.T) {
	srv := grpcbuf.StartServer(t, sdkgrpc.ModelService)
	inst := dialFake(t, srv, "  ", false)

	reg, _ := sdkgrpc.Protocol()
	md, _ := reg.Method(sdkgrpc.ModelService, "Liveness")
	req, _ := sdkgrpc.NewRequest(md, nil)
	if _, err := inst.Invoke(context.Background(), sdkgrpc.Sync, md, req); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got := srv.Meta.Last().Get("authorization"); len(got) != 0 {
		t.Fatalf("unexpected authorization metadata %v", got)
	}
}

func TestInstance_AsyncChannel(t *testing.T) {
	srv := grpcbuf.StartServer(t, sdkgrpc.ModelService)
	reg, _ := sdkgrpc.Protocol()
	md, _ := reg.Method(sdkgrpc.ModelService, "Liveness")
	req, _ := sdkgrpc.NewRequest(md, nil)

	syncOnly := dialFake(t, srv, "", false)
	if syncOnly.AsyncEnabled() {
		t.Fatal("async channel should not be open")
	}
	if _, err := syncOnly.Invoke(context.Background(), sdkgrpc.Async, md, req); !errors.Is(err, sdkgrpc.ErrAsyncDisabled) {
		t.Fatalf("Invoke async err = %v", err)
	}

	both := dialFake(t, srv, "", true)
	if !both.AsyncEnabled() {
		t.Fatal("async channel should be open")
	}
	if _, err := both.Invoke(context.Background(), sdkgrpc.Async, md, req); err != nil {
		t.Fatalf("Invoke async: %v", err)
	}
}

func TestInstance_SendStreamSingleMessage(t *testing.T) {
	srv := grpcbuf.StartServer(t, sdkgrpc.ModelService)
	srv.Reply(sdkgrpc.ModelService, "TriggerNamespaceModelBinaryFileUpload", map[string]any{
		"task":         "TASK_CLASSIFICATION",
		"task_outputs": []any{map[string]any{"category": "cat"}},
	})
	inst := dialFake(t, srv, "", false)

	reg, _ := sdkgrpc.Protocol()
	md, _ := reg.Method(sdkgrpc.ModelService, "TriggerNamespaceModelBinaryFileUpload")
	req, err := sdkgrpc.NewRequest(md, map[string]any{"model_id": "cls", "task_input": map[string]any{"image": "b64"}})
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	reply, err := inst.SendStream(context.Background(), sdkgrpc.Sync, md, req)
	if err != nil {
		t.Fatalf("SendStream: %v", err)
	}
	m, _ := sdkgrpc.ToMap(reply)
	if m["task"] != "TASK_CLASSIFICATION" {
		t.Fatalf("unexpected reply %v", m)
	}
	if got := srv.StreamLengths(sdkgrpc.ModelService, "TriggerNamespaceModelBinaryFileUpload"); len(got) != 1 || got[0] != 1 {
		t.Fatalf("stream lengths = %v, want [1]", got)
	}

	unary, _ := reg.Method(sdkgrpc.ModelService, "Liveness")
	if _, err := inst.SendStream(context.Background(), sdkgrpc.Sync, unary, req); err == nil {
		t.Fatal("expected error for non-streaming method")
	}
}

func TestInstance_StatusPropagates(t *testing.T) {
	srv := grpcbuf.StartServer(t, sdkgrpc.ModelService)
	srv.Fail(sdkgrpc.ModelService, "GetNamespaceModel", codes.NotFound, "model not found")
	inst := dialFake(t, srv, "", false)

	reg, _ := sdkgrpc.Protocol()
	md, _ := reg.Method(sdkgrpc.ModelService, "GetNamespaceModel")
	req, _ := sdkgrpc.NewRequest(md, map[string]any{"model_id": "x"})
	_, err := inst.Invoke(context.Background(), sdkgrpc.Sync, md, req)
	if status.Code(err) != codes.NotFound {
		t.Fatalf("code = %v (%v)", status.Code(err), err)
	}
}

func TestInstance_SecureSendsBearer(t *testing.T) {
	srv := grpcbuf.StartTLSServer(t, grpcbuf.SelfSignedCert(t), sdkgrpc.ModelService)
	inst, err := sdkgrpc.Dial("grpcs://localhost:7080", "instill_sk_tls", false, false,
		sdkgrpc.WithGRPCOptions(grpc.WithContextDialer(srv.Dialer())),
		sdkgrpc.WithTLSConfig(&tls.Config{InsecureSkipVerify: true}),
	)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = inst.Close() })
	if !inst.Secure || inst.Address != "localhost:7080" {
		t.Fatalf("instance = %+v, want secure localhost:7080", inst)
	}

	reg, _ := sdkgrpc.Protocol()
	md, _ := reg.Method(sdkgrpc.ModelService, "Liveness")
	req, _ := sdkgrpc.NewRequest(md, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := inst.Invoke(ctx, sdkgrpc.Sync, md, req); err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	got := srv.Meta.Last().Get("authorization")
	if len(got) != 1 || got[0] != "Bearer instill_sk_tls" {
		t.Fatalf("authorization metadata = %v, want exactly one bearer", got)
	}
}

func TestInstance_SendStreamRejectedEarly(t *testing.T) {
	srv := grpcbuf.StartServer(t, sdkgrpc.ModelService)
	srv.RejectStream(sdkgrpc.ModelService, "TriggerNamespaceModelBinaryFileUpload", codes.Unauthenticated, "bad token")
	inst := dialFake(t, srv, "", false)

	reg, _ := sdkgrpc.Protocol()
	md, _ := reg.Method(sdkgrpc.ModelService, "TriggerNamespaceModelBinaryFileUpload")
	req, err := sdkgrpc.NewRequest(md, map[string]any{
		"model_id":   "cls",
		"task_input": map[string]any{"image": strings.Repeat("a", 2<<20)},
	})
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = inst.SendStream(ctx, sdkgrpc.Sync, md, req)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("code = %v (%v), want Unauthenticated", status.Code(err), err)
	}
}

func TestInstance_CloseIdempotent(t *testing.T) {
	srv := grpcbuf.StartServer(t, sdkgrpc.ModelService)
	inst := dialFake(t, srv, "", true)
	if err := inst.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := inst.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	var nilInst *sdkgrpc.Instance
	if err := nilInst.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
}

func TestParseAddress(t *testing.T) {
	cases := []struct {
		raw        string
		secure     bool
		wantAddr   string
		wantSecure bool
		wantErr    bool
	}{
		{raw: "localhost:8080", wantAddr: "localhost:8080"},
		{raw: "api.instill.tech", secure: true, wantAddr: "api.instill.tech:443", wantSecure: true},
		{raw: "api.instill.tech", wantAddr: "api.instill.tech:80"},
		{raw: "https://api.instill.tech", wantAddr: "api.instill.tech:443", wantSecure: true},
		{raw: "grpcs://api.instill.tech:8443", wantAddr: "api.instill.tech:8443", wantSecure: true},
		{raw: "grpc://10.0.0.1:9000", wantAddr: "10.0.0.1:9000"},
		{raw: "  ", wantErr: true},
		{raw: "ftp://host", wantErr: true},
		{raw: "grpc://:9000", wantErr: true},
	}
	for _, tc := range cases {
		addr, secure, err := sdkgrpc.ParseAddress(tc.raw, tc.secure)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseAddress(%q) expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseAddress(%q): %v", tc.raw, err)
		}
		if addr != tc.wantAddr || secure != tc.wantSecure {
			t.Fatalf("ParseAddress(%q) = %s,%v want %s,%v", tc.raw, addr, secure, tc.wantAddr, tc.wantSecure)
		}
	}
}
