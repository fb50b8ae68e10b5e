package client

import (
	"context"

	"github.com/instill-ai/instill-sdk-go/pkg/config"
	sdkgrpc "github.com/instill-ai/instill-sdk-go/pkg/grpc"
)

// PipelineClient talks to the pipeline backend: pipelines, releases,
// connectors and secrets. Every namespaced call takes the owning namespace
// id first.
type PipelineClient struct {
	*base
}

// NewPipelineClient connects to the pipeline backend of the selected instance.
func NewPipelineClient(cfg *config.Config, opts ...Option) (*PipelineClient, error) {
	b, err := newBase(sdkgrpc.PipelineService, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &PipelineClient{base: b}, nil
}

// ListComponentDefinitions lists the components a recipe can use. It pages
// by page number (Page) rather than by token.
func (c *PipelineClient) ListComponentDefinitions(ctx context.Context, list ListOptions, opts ...CallOption) *Call {
	return c.invoke(ctx, "ListComponentDefinitions", list.fields(nil, "page_size", "page", "filter", "view"), opts)
}

// ListPipelines lists pipelines visible to the caller.
func (c *PipelineClient) ListPipelines(ctx context.Context, list ListOptions, opts ...CallOption) *Call {
	return c.invoke(ctx, "ListPipelines", list.fields(nil, "page_size", "page_token", "view", "filter", "show_deleted"), opts)
}

// CreatePipeline creates pipeline id from a recipe.
func (c *PipelineClient) CreatePipeline(ctx context.Context, namespaceID, id, description string, recipe map[string]any, opts ...CallOption) *Call {
	p := map[string]any{"id": id, "recipe": recipe}
	if description != "" {
		p["description"] = description
	}
	return c.invoke(ctx, "CreateNamespacePipeline", map[string]any{
		"namespace_id": namespaceID,
		"pipeline":     p,
	}, opts)
}

// GetPipeline calls GetNamespacePipeline.
func (c *PipelineClient) GetPipeline(ctx context.Context, namespaceID, id string, opts ...CallOption) *Call {
	return c.invoke(ctx, "GetNamespacePipeline", map[string]any{
		"namespace_id": namespaceID,
		"pipeline_id":  id,
	}, opts)
}

// UpdatePipeline patches the fields named in mask.
func (c *PipelineClient) UpdatePipeline(ctx context.Context, namespaceID, id string, pipeline map[string]any, mask []string, opts ...CallOption) *Call {
	return c.invoke(ctx, "UpdateNamespacePipeline", map[string]any{
		"namespace_id": namespaceID,
		"pipeline_id":  id,
		"pipeline":     pipeline,
		"update_mask":  sdkgrpc.FieldMask(mask...),
	}, opts)
}

// DeletePipeline calls DeleteNamespacePipeline.
func (c *PipelineClient) DeletePipeline(ctx context.Context, namespaceID, id string, opts ...CallOption) *Call {
	return c.invoke(ctx, "DeleteNamespacePipeline", map[string]any{
		"namespace_id": namespaceID,
		"pipeline_id":  id,
	}, opts)
}

// ValidatePipeline checks the stored recipe of a pipeline.
func (c *PipelineClient) ValidatePipeline(ctx context.Context, namespaceID, id string, opts ...CallOption) *Call {
	return c.invoke(ctx, "ValidateNamespacePipeline", map[string]any{
		"namespace_id": namespaceID,
		"pipeline_id":  id,
	}, opts)
}

// RenamePipeline changes the id of a pipeline to newID.
func (c *PipelineClient) RenamePipeline(ctx context.Context, namespaceID, id, newID string, opts ...CallOption) *Call {
	return c.invoke(ctx, "RenameNamespacePipeline", map[string]any{
		"namespace_id":    namespaceID,
		"pipeline_id":     id,
		"new_pipeline_id": newID,
	}, opts)
}

// ClonePipeline copies a pipeline into targetNamespace/targetID.
func (c *PipelineClient) ClonePipeline(ctx context.Context, namespaceID, id, targetNamespace, targetID, description string, opts ...CallOption) *Call {
	return c.invoke(ctx, "CloneNamespacePipeline", map[string]any{
		"namespace_id":        namespaceID,
		"pipeline_id":         id,
		"target_namespace_id": targetNamespace,
		"target_pipeline_id":  targetID,
		"description":         description,
	}, opts)
}

// TriggerPipeline runs a pipeline with one input per batch element.
func (c *PipelineClient) TriggerPipeline(ctx context.Context, namespaceID, id string, inputs []map[string]any, opts ...CallOption) *Call {
	return c.trigger(ctx, "TriggerNamespacePipeline", map[string]any{
		"namespace_id": namespaceID,
		"pipeline_id":  id,
	}, inputs, opts)
}

// TriggerAsyncPipeline starts a pipeline run and returns its operation.
func (c *PipelineClient) TriggerAsyncPipeline(ctx context.Context, namespaceID, id string, inputs []map[string]any, opts ...CallOption) *Call {
	return c.trigger(ctx, "TriggerAsyncNamespacePipeline", map[string]any{
		"namespace_id": namespaceID,
		"pipeline_id":  id,
	}, inputs, opts)
}

// GetOperation polls a pipeline operation by id, without the
// "operations/" prefix.
func (c *PipelineClient) GetOperation(ctx context.Context, operationID string, opts ...CallOption) *Call {
	return c.invoke(ctx, "GetOperation", map[string]any{"operation_id": operationID}, opts)
}

// CreatePipelineRelease snapshots the current recipe as releaseID, usually a
// semantic version.
func (c *PipelineClient) CreatePipelineRelease(ctx context.Context, namespaceID, pipelineID, releaseID, description string, opts ...CallOption) *Call {
	return c.invoke(ctx, "CreateNamespacePipelineRelease", map[string]any{
		"namespace_id": namespaceID,
		"pipeline_id":  pipelineID,
		"release":      map[string]any{"id": releaseID, "description": description},
	}, opts)
}

// ListPipelineReleases pages through the releases of a pipeline.
func (c *PipelineClient) ListPipelineReleases(ctx context.Context, namespaceID, pipelineID string, list ListOptions, opts ...CallOption) *Call {
	return c.invoke(ctx, "ListNamespacePipelineReleases", list.fields(map[string]any{
		"namespace_id": namespaceID,
		"pipeline_id":  pipelineID,
	}, "page_size", "page_token", "view", "filter"), opts)
}

// GetPipelineRelease calls GetNamespacePipelineRelease.
func (c *PipelineClient) GetPipelineRelease(ctx context.Context, namespaceID, pipelineID, releaseID string, opts ...CallOption) *Call {
	return c.invoke(ctx, "GetNamespacePipelineRelease", map[string]any{
		"namespace_id": namespaceID,
		"pipeline_id":  pipelineID,
		"release_id":   releaseID,
	}, opts)
}

// DeletePipelineRelease calls DeleteNamespacePipelineRelease.
func (c *PipelineClient) DeletePipelineRelease(ctx context.Context, namespaceID, pipelineID, releaseID string, opts ...CallOption) *Call {
	return c.invoke(ctx, "DeleteNamespacePipelineRelease", map[string]any{
		"namespace_id": namespaceID,
		"pipeline_id":  pipelineID,
		"release_id":   releaseID,
	}, opts)
}

// TriggerPipelineRelease runs a released recipe with one input per batch
// element.
func (c *PipelineClient) TriggerPipelineRelease(ctx context.Context, namespaceID, pipelineID, releaseID string, inputs []map[string]any, opts ...CallOption) *Call {
	return c.trigger(ctx, "TriggerNamespacePipelineRelease", map[string]any{
		"namespace_id": namespaceID,
		"pipeline_id":  pipelineID,
		"release_id":   releaseID,
	}, inputs, opts)
}

// ListConnectorDefinitions lists the connector types available on the
// instance.
func (c *PipelineClient) ListConnectorDefinitions(ctx context.Context, list ListOptions, opts ...CallOption) *Call {
	return c.invoke(ctx, "ListConnectorDefinitions", list.fields(nil, "page_size", "page_token", "view", "filter"), opts)
}

// CreateConnector creates connector id of the given definition
// ("connector-definitions/openai").
func (c *PipelineClient) CreateConnector(ctx context.Context, namespaceID, id, definition string, configuration map[string]any, opts ...CallOption) *Call {
	return c.invoke(ctx, "CreateNamespaceConnector", map[string]any{
		"namespace_id": namespaceID,
		"connector": map[string]any{
			"id":                        id,
			"connector_definition_name": definition,
			"configuration":             configuration,
		},
	}, opts)
}

// GetConnector calls GetNamespaceConnector.
func (c *PipelineClient) GetConnector(ctx context.Context, namespaceID, id string, opts ...CallOption) *Call {
	return c.invoke(ctx, "GetNamespaceConnector", map[string]any{
		"namespace_id": namespaceID,
		"connector_id": id,
	}, opts)
}

// ListConnectors lists the connectors of a namespace.
func (c *PipelineClient) ListConnectors(ctx context.Context, namespaceID string, list ListOptions, opts ...CallOption) *Call {
	return c.invoke(ctx, "ListNamespaceConnectors", list.fields(map[string]any{
		"namespace_id": namespaceID,
	}, "page_size", "page_token", "view", "filter"), opts)
}

// UpdateConnector patches the fields of connector named in mask.
func (c *PipelineClient) UpdateConnector(ctx context.Context, namespaceID, id string, connector map[string]any, mask []string, opts ...CallOption) *Call {
	return c.invoke(ctx, "UpdateNamespaceConnector", map[string]any{
		"namespace_id": namespaceID,
		"connector_id": id,
		"connector":    connector,
		"update_mask":  sdkgrpc.FieldMask(mask...),
	}, opts)
}

// DeleteConnector calls DeleteNamespaceConnector.
func (c *PipelineClient) DeleteConnector(ctx context.Context, namespaceID, id string, opts ...CallOption) *Call {
	return c.invoke(ctx, "DeleteNamespaceConnector", map[string]any{
		"namespace_id": namespaceID,
		"connector_id": id,
	}, opts)
}

// ConnectConnector starts connecting; WatchConnector reports CONNECTED once
// it is done.
func (c *PipelineClient) ConnectConnector(ctx context.Context, namespaceID, id string, opts ...CallOption) *Call {
	return c.invoke(ctx, "ConnectNamespaceConnector", map[string]any{
		"namespace_id": namespaceID,
		"connector_id": id,
	}, opts)
}

// DisconnectConnector starts disconnecting.
func (c *PipelineClient) DisconnectConnector(ctx context.Context, namespaceID, id string, opts ...CallOption) *Call {
	return c.invoke(ctx, "DisconnectNamespaceConnector", map[string]any{
		"namespace_id": namespaceID,
		"connector_id": id,
	}, opts)
}

// WatchConnector returns the current connector state.
func (c *PipelineClient) WatchConnector(ctx context.Context, namespaceID, id string, opts ...CallOption) *Call {
	return c.invoke(ctx, "WatchNamespaceConnector", map[string]any{
		"namespace_id": namespaceID,
		"connector_id": id,
	}, opts)
}

// TestConnector checks the connector configuration against the remote
// service and returns the resulting state.
func (c *PipelineClient) TestConnector(ctx context.Context, namespaceID, id string, opts ...CallOption) *Call {
	return c.invoke(ctx, "TestNamespaceConnector", map[string]any{
		"namespace_id": namespaceID,
		"connector_id": id,
	}, opts)
}

// ExecuteConnector runs task on a connected connector.
func (c *PipelineClient) ExecuteConnector(ctx context.Context, namespaceID, id, task string, inputs []map[string]any, opts ...CallOption) *Call {
	return c.trigger(ctx, "ExecuteNamespaceConnector", map[string]any{
		"namespace_id": namespaceID,
		"connector_id": id,
		"task":         task,
	}, inputs, opts)
}

// CreateSecret stores value under secret id for use in recipes.
func (c *PipelineClient) CreateSecret(ctx context.Context, namespaceID, id, value, description string, opts ...CallOption) *Call {
	return c.invoke(ctx, "CreateNamespaceSecret", map[string]any{
		"namespace_id": namespaceID,
		"secret":       map[string]any{"id": id, "value": value, "description": description},
	}, opts)
}

// ListSecrets lists the secrets of a namespace.
func (c *PipelineClient) ListSecrets(ctx context.Context, namespaceID string, list ListOptions, opts ...CallOption) *Call {
	return c.invoke(ctx, "ListNamespaceSecrets", list.fields(map[string]any{
		"namespace_id": namespaceID,
	}, "page_size", "page_token"), opts)
}

// GetSecret calls GetNamespaceSecret.
func (c *PipelineClient) GetSecret(ctx context.Context, namespaceID, id string, opts ...CallOption) *Call {
	return c.invoke(ctx, "GetNamespaceSecret", map[string]any{
		"namespace_id": namespaceID,
		"secret_id":    id,
	}, opts)
}

// DeleteSecret calls DeleteNamespaceSecret.
func (c *PipelineClient) DeleteSecret(ctx context.Context, namespaceID, id string, opts ...CallOption) *Call {
	return c.invoke(ctx, "DeleteNamespaceSecret", map[string]any{
		"namespace_id": namespaceID,
		"secret_id":    id,
	}, opts)
}

// trigger adds repeated Struct inputs to fields before dispatch.
func (b *base) trigger(ctx context.Context, method string, fields map[string]any, inputs []map[string]any, opts []CallOption) *Call {
	return b.triggerField(ctx, method, "inputs", fields, inputs, opts)
}

func (b *base) triggerField(ctx context.Context, method, field string, fields map[string]any, inputs []map[string]any, opts []CallOption) *Call {
	structs, err := sdkgrpc.StructsFromMaps(inputs)
	if err != nil {
		co := applyCallOptions(opts)
		return sdkgrpc.Failed(method, nil, b.report(co, &Error{Kind: KindInvalid, Service: b.service, Method: method, Err: err}))
	}
	fields[field] = structs
	return b.invoke(ctx, method, fields, opts)
}
