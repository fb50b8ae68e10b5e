package client

import (
	"context"

	"github.com/google/uuid"
	"github.com/instill-ai/instill-sdk-go/pkg/config"
	sdkgrpc "github.com/instill-ai/instill-sdk-go/pkg/grpc"
	"github.com/instill-ai/instill-sdk-go/pkg/model"
)

// AppClient talks to the app backend: apps, conversations and messages.
type AppClient struct {
	*base
}

// NewAppClient connects to the app backend of the selected instance.
func NewAppClient(cfg *config.Config, opts ...Option) (*AppClient, error) {
	b, err := newBase(sdkgrpc.AppService, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &AppClient{base: b}, nil
}

// CreateApp creates an app in a namespace.
func (c *AppClient) CreateApp(ctx context.Context, namespaceID, id, description string, tags []string, opts ...CallOption) *Call {
	return c.invoke(ctx, "CreateApp", map[string]any{
		"namespace_id": namespaceID,
		"id":           id,
		"description":  description,
		"tags":         tags,
	}, opts)
}

// ListApps lists every app of a namespace. There is no Get RPC, so this
// is also how a single app is looked up.
func (c *AppClient) ListApps(ctx context.Context, namespaceID string, opts ...CallOption) *Call {
	return c.invoke(ctx, "ListApps", map[string]any{"namespace_id": namespaceID}, opts)
}

// UpdateApp renames an app and replaces its description and tags.
func (c *AppClient) UpdateApp(ctx context.Context, namespaceID, id, newID, newDescription string, newTags []string, opts ...CallOption) *Call {
	return c.invoke(ctx, "UpdateApp", map[string]any{
		"namespace_id":    namespaceID,
		"app_id":          id,
		"new_app_id":      newID,
		"new_description": newDescription,
		"new_tags":        newTags,
	}, opts)
}

// DeleteApp removes an app.
func (c *AppClient) DeleteApp(ctx context.Context, namespaceID, id string, opts ...CallOption) *Call {
	return c.invoke(ctx, "DeleteApp", map[string]any{
		"namespace_id": namespaceID,
		"app_id":       id,
	}, opts)
}

// CreateConversation opens a conversation. An empty conversationID is
// replaced by a random one.
func (c *AppClient) CreateConversation(ctx context.Context, namespaceID, appID, conversationID string, opts ...CallOption) *Call {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	return c.invoke(ctx, "CreateConversation", map[string]any{
		"namespace_id":    namespaceID,
		"app_id":          appID,
		"conversation_id": conversationID,
	}, opts)
}

// ListConversations pages through the conversations of an app.
func (c *AppClient) ListConversations(ctx context.Context, namespaceID, appID string, list ListOptions, opts ...CallOption) *Call {
	return c.invoke(ctx, "ListConversations", list.fields(map[string]any{
		"namespace_id": namespaceID,
		"app_id":       appID,
	}, "page_size", "page_token"), opts)
}

// UpdateConversation renames a conversation to newID.
func (c *AppClient) UpdateConversation(ctx context.Context, namespaceID, appID, conversationID, newID string, opts ...CallOption) *Call {
	return c.invoke(ctx, "UpdateConversation", map[string]any{
		"namespace_id":        namespaceID,
		"app_id":              appID,
		"conversation_id":     conversationID,
		"new_conversation_id": newID,
	}, opts)
}

// DeleteConversation removes a conversation.
func (c *AppClient) DeleteConversation(ctx context.Context, namespaceID, appID, conversationID string, opts ...CallOption) *Call {
	return c.invoke(ctx, "DeleteConversation", map[string]any{
		"namespace_id":    namespaceID,
		"app_id":          appID,
		"conversation_id": conversationID,
	}, opts)
}

// CreateMessage appends a text message with the given role ("user",
// "assistant").
func (c *AppClient) CreateMessage(ctx context.Context, namespaceID, appID, conversationID, content, role string, opts ...CallOption) *Call {
	return c.invoke(ctx, "CreateMessage", map[string]any{
		"namespace_id":    namespaceID,
		"app_id":          appID,
		"conversation_id": conversationID,
		"content":         content,
		"role":            role,
		"type":            int32(model.MessageTypeText),
	}, opts)
}

// ListMessages lists messages of a conversation; latestK > 0 keeps only the
// most recent ones.
func (c *AppClient) ListMessages(ctx context.Context, namespaceID, appID, conversationID string, latestK int32, list ListOptions, opts ...CallOption) *Call {
	fields := map[string]any{
		"namespace_id":    namespaceID,
		"app_id":          appID,
		"conversation_id": conversationID,
	}
	if latestK > 0 {
		fields["latest_k"] = latestK
	}
	return c.invoke(ctx, "ListMessages", list.fields(fields, "page_size", "page_token"), opts)
}

// UpdateMessage replaces the content of a message.
func (c *AppClient) UpdateMessage(ctx context.Context, namespaceID, appID, conversationID, messageUID, content string, opts ...CallOption) *Call {
	return c.invoke(ctx, "UpdateMessage", map[string]any{
		"namespace_id":    namespaceID,
		"app_id":          appID,
		"conversation_id": conversationID,
		"message_uid":     messageUID,
		"content":         content,
	}, opts)
}

// DeleteMessage removes a message.
func (c *AppClient) DeleteMessage(ctx context.Context, namespaceID, appID, conversationID, messageUID string, opts ...CallOption) *Call {
	return c.invoke(ctx, "DeleteMessage", map[string]any{
		"namespace_id":    namespaceID,
		"app_id":          appID,
		"conversation_id": conversationID,
		"message_uid":     messageUID,
	}, opts)
}

// Chat sends message to an assistant app grounded on catalogID and returns
// the reply messages.
func (c *AppClient) Chat(ctx context.Context, namespaceID, appID, catalogID, conversationUID, message string, topK int32, opts ...CallOption) *Call {
	fields := map[string]any{
		"namespace_id":     namespaceID,
		"app_id":           appID,
		"catalog_id":       catalogID,
		"conversation_uid": conversationUID,
		"message":          message,
	}
	if topK > 0 {
		fields["top_k"] = topK
	}
	return c.invoke(ctx, "Chat", fields, opts)
}
