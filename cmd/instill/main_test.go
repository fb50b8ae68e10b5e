package main

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/instill-ai/instill-sdk-go/internal/testutil/grpcbuf"
	"github.com/instill-ai/instill-sdk-go/pkg/client"
	"github.com/instill-ai/instill-sdk-go/pkg/config"
	sdkgrpc "github.com/instill-ai/instill-sdk-go/pkg/grpc"
	"github.com/instill-ai/instill-sdk-go/pkg/logging"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func run(t *testing.T, opts []client.Option, args ...string) (string, error) {
	t.Helper()
	root, closeLogs := newRootCmd(opts...)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	closeLogs()
	return out.String(), err
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()

	if _, err := run(t, nil, "--config-dir", dir, "config", "set", "default",
		"--url", "localhost:7080", "--token", "instill_sk_abcdefgh1234"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if _, err := run(t, nil, "--config-dir", dir, "config", "set", "cloud",
		"--url", "grpcs://api.instill.tech"); err != nil {
		t.Fatalf("config set cloud: %v", err)
	}

	out, err := run(t, nil, "--config-dir", dir, "config", "list")
	if err != nil {
		t.Fatalf("config list: %v", err)
	}
	if !strings.Contains(out, "default") || !strings.Contains(out, "cloud") {
		t.Fatalf("list output missing aliases:\n%s", out)
	}
	if strings.Contains(out, "instill_sk_abcdefgh1234") {
		t.Fatalf("list output leaks the token:\n%s", out)
	}

	if _, err := run(t, nil, "--config-dir", dir, "config", "set-token", "cloud", "instill_sk_new"); err != nil {
		t.Fatalf("config set-token: %v", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if inst, _ := cfg.Instance("cloud"); inst.Token != "instill_sk_new" || !inst.Secure {
		t.Fatalf("cloud = %+v", inst)
	}

	if _, err := run(t, nil, "--config-dir", dir, "config", "set-token", "ghost", "x"); !errors.Is(err, config.ErrUnknownInstance) {
		t.Fatalf("set-token unknown alias err = %v", err)
	}

	if _, err := run(t, nil, "--config-dir", dir, "config", "remove", "cloud"); err != nil {
		t.Fatalf("config remove: %v", err)
	}
	cfg, _ = config.Load(dir)
	if got := cfg.Aliases(); len(got) != 1 || got[0] != "default" {
		t.Fatalf("aliases = %v", got)
	}
}

func TestConfigSetRequiresURL(t *testing.T) {
	if _, err := run(t, nil, "--config-dir", t.TempDir(), "config", "set", "default"); err == nil {
		t.Fatal("expected an error without --url")
	}
}

func TestHealth(t *testing.T) {
	srv := grpcbuf.StartServer(t,
		sdkgrpc.MgmtService, sdkgrpc.PipelineService, sdkgrpc.ModelService,
		sdkgrpc.ArtifactService, sdkgrpc.AppService)
	opts := []client.Option{client.WithDialOptions(sdkgrpc.WithGRPCOptions(grpc.WithContextDialer(srv.Dialer())))}
	dir := t.TempDir()
	if _, err := run(t, nil, "--config-dir", dir, "config", "set", "default", "--url", "localhost:7080"); err != nil {
		t.Fatalf("config set: %v", err)
	}

	out, err := run(t, opts, "--config-dir", dir, "health", "--metrics")
	if err != nil {
		t.Fatalf("health: %v\n%s", err, out)
	}
	if strings.Count(out, "NOT_SERVING") != 0 || strings.Count(out, "SERVING") != 5 {
		t.Fatalf("unexpected health output:\n%s", out)
	}
	if !strings.Contains(out, sdkgrpc.ModelService+"/Readiness OK") {
		t.Fatalf("metrics missing readiness calls:\n%s", out)
	}

	srv.SetServing(false)
	out, err = run(t, opts, "--config-dir", dir, "health")
	if err == nil {
		t.Fatalf("expected failure when not serving:\n%s", out)
	}
	if !strings.Contains(out, "NOT_SERVING") {
		t.Fatalf("unexpected health output:\n%s", out)
	}
}

func TestHealthWithoutInstance(t *testing.T) {
	if _, err := run(t, nil, "--config-dir", t.TempDir(), "health"); err == nil {
		t.Fatal("expected an error without configured instances")
	}
}

func TestFailedCommandRestoresLogger(t *testing.T) {
	before := zap.L()
	dir := t.TempDir()
	if _, err := run(t, nil, "--config-dir", dir, "config", "remove", "ghost"); err == nil {
		t.Fatal("expected an error for an unknown alias")
	}
	if zap.L() != before {
		t.Fatal("global logger still replaced after a failed command")
	}
	if info, err := os.Stat(logging.DefaultDir(dir)); err != nil || !info.IsDir() {
		t.Fatalf("log dir not created: %v", err)
	}
}

func TestMaskToken(t *testing.T) {
	cases := map[string]string{
		"":                  "-",
		"short":             "****",
		"instill_sk_abcdef": "inst****cdef",
	}
	for in, want := range cases {
		if got := maskToken(in); got != want {
			t.Fatalf("maskToken(%q) = %q, want %q", in, got, want)
		}
	}
}
