package grpc

import (
	"testing"
)

func TestGetProtoDescriptorsAndMethod(t *testing.T) {
	const protoSrc = `
		syntax = "proto3";
		package demo;
		service Greeter {
			rpc SayHello(HelloRequest) returns (HelloReply) {}
		}
		message HelloRequest { string name = 1; }
		message HelloReply { string message = 1; }
	`

	files := map[string]string{"demo.proto": protoSrc}
	fds, err := getProtoDescriptors(files)
	if err != nil {
		t.Fatalf("getProtoDescriptors returned error: %v", err)
	}
	if len(fds) == 0 {
		t.Fatal("expected non-empty descriptor set")
	}

	reg := &Registry{Files: fds}
	method, err := reg.Method("demo.Greeter", "SayHello")
	if err != nil {
		t.Fatalf("Method returned error: %v", err)
	}
	if string(method.ParentFile().Package()) != "demo" {
		t.Fatalf("unexpected package: %s", method.ParentFile().Package())
	}
	if string(method.Parent().Name()) != "Greeter" {
		t.Fatalf("unexpected service name: %s", method.Parent().Name())
	}
	if got := FullMethod(method); got != "/demo.Greeter/SayHello" {
		t.Fatalf("unexpected full method: %s", got)
	}
}

func TestMethod_NotFound(t *testing.T) {
	files := map[string]string{"foo.proto": `
		syntax = "proto3";
		package foo;
		service S { rpc Ping(Req) returns (Resp) {} }
		message Req {}
		message Resp {}
	`}
	fds, err := getProtoDescriptors(files)
	if err != nil {
		t.Fatalf("getProtoDescriptors returned error: %v", err)
	}

	reg := &Registry{Files: fds}
	if _, err := reg.Method("foo.S", "Unknown"); err == nil {
		t.Fatal("expected error for missing method")
	}
	if _, err := reg.Method("foo.Missing", "Ping"); err == nil {
		t.Fatal("expected error for missing service")
	}
}

func TestGetProtoDescriptors_InvalidSource(t *testing.T) {
	files := map[string]string{"bad.proto": "syntax = \"proto2\"; message X {"}
	if _, err := getProtoDescriptors(files); err == nil {
		t.Fatal("expected compilation error for invalid proto")
	}
}

func TestProtocol_EmbeddedServices(t *testing.T) {
	reg, err := Protocol()
	if err != nil {
		t.Fatalf("Protocol: %v", err)
	}
	again, err := Protocol()
	if err != nil || again != reg {
		t.Fatalf("Protocol should be cached, got %p vs %p (%v)", again, reg, err)
	}

	for _, svc := range []string{MgmtService, PipelineService, ModelService, ArtifactService, AppService} {
		for _, m := range []string{"Liveness", "Readiness"} {
			md, err := reg.Method(svc, m)
			if err != nil {
				t.Fatalf("%s.%s: %v", svc, m, err)
			}
			if got, want := FullMethod(md), "/"+svc+"/"+m; got != want {
				t.Fatalf("full method = %s, want %s", got, want)
			}
		}
	}
}

func TestRegistry_MethodErrors(t *testing.T) {
	reg, err := Protocol()
	if err != nil {
		t.Fatalf("Protocol: %v", err)
	}
	if _, err := reg.Service("nope.Service"); err == nil {
		t.Fatal("expected error for unknown service")
	}
	if _, err := reg.Method(ModelService, "NoSuchMethod"); err == nil {
		t.Fatal("expected error for unknown method")
	}
	md, err := reg.Method(ModelService, "TriggerNamespaceModelBinaryFileUpload")
	if err != nil {
		t.Fatalf("stream method: %v", err)
	}
	if !md.IsStreamingClient() || md.IsStreamingServer() {
		t.Fatal("binary upload should be client-streaming only")
	}
}
