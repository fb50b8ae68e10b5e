package client

import (
	"context"

	"github.com/instill-ai/instill-sdk-go/pkg/config"
	sdkgrpc "github.com/instill-ai/instill-sdk-go/pkg/grpc"
	"github.com/instill-ai/instill-sdk-go/pkg/model"
)

// ModelClient talks to the model backend.
type ModelClient struct {
	*base
}

// NewModelClient connects to the model backend of the selected instance.
func NewModelClient(cfg *config.Config, opts ...Option) (*ModelClient, error) {
	b, err := newBase(sdkgrpc.ModelService, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &ModelClient{base: b}, nil
}

// ModelSpec holds the creation fields of a model.
type ModelSpec struct {
	// Definition names the model definition, e.g.
	// "model-definitions/container".
	Definition    string
	Description   string
	Task          string
	Visibility    model.Visibility
	Region        string
	Hardware      string
	Configuration map[string]any
}

func (s ModelSpec) fields(id string) map[string]any {
	m := map[string]any{"id": id}
	if s.Definition != "" {
		m["model_definition"] = s.Definition
	}
	if s.Description != "" {
		m["description"] = s.Description
	}
	if s.Task != "" {
		m["task"] = s.Task
	}
	if s.Visibility != model.VisibilityUnspecified {
		m["visibility"] = int32(s.Visibility)
	}
	if s.Region != "" {
		m["region"] = s.Region
	}
	if s.Hardware != "" {
		m["hardware"] = s.Hardware
	}
	if s.Configuration != nil {
		m["configuration"] = s.Configuration
	}
	return m
}

// ListModelDefinitions lists the model families the backend can host.
// PageSize, PageToken and View apply.
func (c *ModelClient) ListModelDefinitions(ctx context.Context, list ListOptions, opts ...CallOption) *Call {
	return c.invoke(ctx, "ListModelDefinitions", list.fields(nil, "page_size", "page_token", "view"), opts)
}

// GetModelDefinition fetches a definition such as "container".
func (c *ModelClient) GetModelDefinition(ctx context.Context, definitionID string, opts ...CallOption) *Call {
	return c.invoke(ctx, "GetModelDefinition", map[string]any{"model_definition_id": definitionID}, opts)
}

// ListModels lists models visible to the caller across namespaces.
func (c *ModelClient) ListModels(ctx context.Context, list ListOptions, opts ...CallOption) *Call {
	return c.invoke(ctx, "ListModels", list.fields(nil, "page_size", "page_token", "view", "filter", "show_deleted"), opts)
}

// CreateModel calls CreateNamespaceModel with spec under namespaceID/id.
func (c *ModelClient) CreateModel(ctx context.Context, namespaceID, id string, spec ModelSpec, opts ...CallOption) *Call {
	return c.invoke(ctx, "CreateNamespaceModel", map[string]any{
		"namespace_id": namespaceID,
		"model":        spec.fields(id),
	}, opts)
}

// GetModel calls GetNamespaceModel.
func (c *ModelClient) GetModel(ctx context.Context, namespaceID, id string, opts ...CallOption) *Call {
	return c.invoke(ctx, "GetNamespaceModel", map[string]any{
		"namespace_id": namespaceID,
		"model_id":     id,
	}, opts)
}

// UpdateModel patches the fields of m named in mask.
func (c *ModelClient) UpdateModel(ctx context.Context, namespaceID, id string, m map[string]any, mask []string, opts ...CallOption) *Call {
	return c.invoke(ctx, "UpdateNamespaceModel", map[string]any{
		"namespace_id": namespaceID,
		"model_id":     id,
		"model":        m,
		"update_mask":  sdkgrpc.FieldMask(mask...),
	}, opts)
}

// DeleteModel calls DeleteNamespaceModel.
func (c *ModelClient) DeleteModel(ctx context.Context, namespaceID, id string, opts ...CallOption) *Call {
	return c.invoke(ctx, "DeleteNamespaceModel", map[string]any{
		"namespace_id": namespaceID,
		"model_id":     id,
	}, opts)
}

// RenameModel changes the id of a model to newID.
func (c *ModelClient) RenameModel(ctx context.Context, namespaceID, id, newID string, opts ...CallOption) *Call {
	return c.invoke(ctx, "RenameNamespaceModel", map[string]any{
		"namespace_id": namespaceID,
		"model_id":     id,
		"new_model_id": newID,
	}, opts)
}

// DeployModel starts deployment; the model reports ONLINE when it is done.
func (c *ModelClient) DeployModel(ctx context.Context, namespaceID, id string, opts ...CallOption) *Call {
	return c.invoke(ctx, "DeployNamespaceModel", map[string]any{
		"namespace_id": namespaceID,
		"model_id":     id,
	}, opts)
}

// UndeployModel stops serving; the model reports OFFLINE when it is done.
func (c *ModelClient) UndeployModel(ctx context.Context, namespaceID, id string, opts ...CallOption) *Call {
	return c.invoke(ctx, "UndeployNamespaceModel", map[string]any{
		"namespace_id": namespaceID,
		"model_id":     id,
	}, opts)
}

// WatchModel returns the current state of a model version. An empty
// version watches the latest one.
func (c *ModelClient) WatchModel(ctx context.Context, namespaceID, id, version string, opts ...CallOption) *Call {
	fields := map[string]any{
		"namespace_id": namespaceID,
		"model_id":     id,
	}
	if version != "" {
		fields["version"] = version
	}
	return c.invoke(ctx, "WatchNamespaceModel", fields, opts)
}

// TriggerModel runs inference with one task input per batch element.
func (c *ModelClient) TriggerModel(ctx context.Context, namespaceID, id, version string, inputs []map[string]any, opts ...CallOption) *Call {
	return c.triggerField(ctx, "TriggerNamespaceModel", "task_inputs", versioned(namespaceID, id, version), inputs, opts)
}

// TriggerAsyncModel starts inference and returns its operation.
func (c *ModelClient) TriggerAsyncModel(ctx context.Context, namespaceID, id, version string, inputs []map[string]any, opts ...CallOption) *Call {
	return c.triggerField(ctx, "TriggerAsyncNamespaceModel", "task_inputs", versioned(namespaceID, id, version), inputs, opts)
}

// GetModelOperation polls an operation returned by TriggerAsyncModel.
// operationID is the name without the "operations/" prefix.
func (c *ModelClient) GetModelOperation(ctx context.Context, operationID string, opts ...CallOption) *Call {
	return c.invoke(ctx, "GetModelOperation", map[string]any{"operation_id": operationID}, opts)
}

// ListModelVersions lists the pushed versions of a model. It pages by
// page number: PageSize and Page apply, PageToken is ignored.
func (c *ModelClient) ListModelVersions(ctx context.Context, namespaceID, id string, list ListOptions, opts ...CallOption) *Call {
	return c.invoke(ctx, "ListNamespaceModelVersions", list.fields(map[string]any{
		"namespace_id": namespaceID,
		"model_id":     id,
	}, "page_size", "page"), opts)
}

// TriggerModelBinaryFileUpload sends a single task input over the
// client-streaming upload method.
func (c *ModelClient) TriggerModelBinaryFileUpload(ctx context.Context, namespaceID, id, version string, input map[string]any, opts ...CallOption) *Call {
	fields := versioned(namespaceID, id, version)
	fields["task_input"] = input
	return c.invoke(ctx, "TriggerNamespaceModelBinaryFileUpload", fields, opts)
}

func versioned(namespaceID, id, version string) map[string]any {
	fields := map[string]any{
		"namespace_id": namespaceID,
		"model_id":     id,
	}
	if version != "" {
		fields["version"] = version
	}
	return fields
}
