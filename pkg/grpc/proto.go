package grpc

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/bufbuild/protocompile"
	"github.com/bufbuild/protocompile/linker"
	"go.uber.org/zap"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Fully-qualified names of the remote services described by the embedded protos.
const (
	MgmtService     = "core.mgmt.v1beta.MgmtPublicService"
	PipelineService = "vdp.pipeline.v1beta.PipelinePublicService"
	ModelService    = "model.model.v1alpha.ModelPublicService"
	ArtifactService = "artifact.artifact.v1alpha.ArtifactPublicService"
	AppService      = "app.app.v1alpha.AppPublicService"
)

//go:embed protos
var embeddedProtos embed.FS

// Registry holds the compiled descriptors of the platform services.
type Registry struct {
	Files linker.Files
}

var (
	protocolOnce sync.Once
	protocol     *Registry
	protocolErr  error
)

// Protocol returns the process-wide registry compiled from the embedded .proto
// sources. Compilation happens once; later calls return the cached result.
func Protocol() (*Registry, error) {
	protocolOnce.Do(func() {
		sources, err := embeddedSources()
		if err != nil {
			protocolErr = err
			return
		}
		files, err := getProtoDescriptors(sources)
		if err != nil {
			protocolErr = err
			return
		}
		protocol = &Registry{Files: files}
	})
	return protocol, protocolErr
}

// embeddedSources reads every embedded .proto as import path → content.
func embeddedSources() (map[string]string, error) {
	sources := make(map[string]string)
	err := fs.WalkDir(embeddedProtos, "protos", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".proto") {
			return nil
		}
		raw, err := embeddedProtos.ReadFile(path)
		if err != nil {
			return err
		}
		sources[strings.TrimPrefix(path, "protos/")] = string(raw)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read embedded protos: %w", err)
	}
	return sources, nil
}

// getProtoDescriptors compiles the provided proto sources (filename → content)
// into linker.Files using protocompile with the standard imports enabled.
func getProtoDescriptors(protoFiles map[string]string) (linker.Files, error) {
	accessor := protocompile.SourceAccessorFromMap(protoFiles)
	r := protocompile.WithStandardImports(&protocompile.SourceResolver{Accessor: accessor})
	compiler := protocompile.Compiler{
		Resolver:       r,
		SourceInfoMode: protocompile.SourceInfoStandard,
	}
	names := slices.Sorted(maps.Keys(protoFiles))
	fds, err := compiler.Compile(context.Background(), names...)
	if err != nil || fds == nil {
		zap.L().Error("failed to compile proto files", zap.Error(err))
		return nil, fmt.Errorf("failed to compile proto files: %v", err)
	}
	return fds, nil
}

// Service returns the descriptor of a fully-qualified service name.
func (r *Registry) Service(name string) (protoreflect.ServiceDescriptor, error) {
	for _, file := range r.Files {
		services := file.Services()
		for i := 0; i < services.Len(); i++ {
			if sd := services.Get(i); string(sd.FullName()) == name {
				return sd, nil
			}
		}
	}
	return nil, fmt.Errorf("service %s not found", name)
}

// Method resolves a method of a fully-qualified service.
func (r *Registry) Method(service, method string) (protoreflect.MethodDescriptor, error) {
	sd, err := r.Service(service)
	if err != nil {
		return nil, err
	}
	md := sd.Methods().ByName(protoreflect.Name(method))
	if md == nil {
		return nil, fmt.Errorf("method %s not found on %s", method, service)
	}
	return md, nil
}

// FullMethod builds the wire path "/<package>.<Service>/<Method>".
func FullMethod(md protoreflect.MethodDescriptor) string {
	return "/" + string(md.Parent().FullName()) + "/" + string(md.Name())
}
