package client

import (
	"context"

	"github.com/instill-ai/instill-sdk-go/pkg/config"
	sdkgrpc "github.com/instill-ai/instill-sdk-go/pkg/grpc"
	"github.com/instill-ai/instill-sdk-go/pkg/model"
	"github.com/shopspring/decimal"
)

// MgmtClient talks to the management backend: users, organizations, tokens
// and credit.
type MgmtClient struct {
	*base
}

// NewMgmtClient connects to the management backend of the selected instance.
func NewMgmtClient(cfg *config.Config, opts ...Option) (*MgmtClient, error) {
	b, err := newBase(sdkgrpc.MgmtService, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &MgmtClient{base: b}, nil
}

// GetAuthenticatedUser returns the profile of the token owner.
func (c *MgmtClient) GetAuthenticatedUser(ctx context.Context, opts ...CallOption) *Call {
	return c.invoke(ctx, "GetAuthenticatedUser", nil, opts)
}

// PatchAuthenticatedUser updates the given fields of the caller's profile.
func (c *MgmtClient) PatchAuthenticatedUser(ctx context.Context, user map[string]any, mask []string, opts ...CallOption) *Call {
	return c.invoke(ctx, "PatchAuthenticatedUser", map[string]any{
		"user":        user,
		"update_mask": sdkgrpc.FieldMask(mask...),
	}, opts)
}

// ListUsers pages through users. PageSize, PageToken and Filter apply.
func (c *MgmtClient) ListUsers(ctx context.Context, list ListOptions, opts ...CallOption) *Call {
	return c.invoke(ctx, "ListUsers", list.fields(nil, "page_size", "page_token", "filter"), opts)
}

// GetUser fetches a user by id.
func (c *MgmtClient) GetUser(ctx context.Context, userID string, opts ...CallOption) *Call {
	return c.invoke(ctx, "GetUser", map[string]any{"user_id": userID}, opts)
}

// CreateOrganization creates organization orgID owned by the caller.
func (c *MgmtClient) CreateOrganization(ctx context.Context, orgID, displayName string, opts ...CallOption) *Call {
	return c.invoke(ctx, "CreateOrganization", map[string]any{
		"organization": map[string]any{"id": orgID, "display_name": displayName},
	}, opts)
}

// ListOrganizations pages through organizations. PageSize, PageToken and
// Filter apply.
func (c *MgmtClient) ListOrganizations(ctx context.Context, list ListOptions, opts ...CallOption) *Call {
	return c.invoke(ctx, "ListOrganizations", list.fields(nil, "page_size", "page_token", "filter"), opts)
}

// GetOrganization fetches an organization by id.
func (c *MgmtClient) GetOrganization(ctx context.Context, orgID string, opts ...CallOption) *Call {
	return c.invoke(ctx, "GetOrganization", map[string]any{"organization_id": orgID}, opts)
}

// UpdateOrganization patches the fields of org named in mask.
func (c *MgmtClient) UpdateOrganization(ctx context.Context, orgID string, org map[string]any, mask []string, opts ...CallOption) *Call {
	return c.invoke(ctx, "UpdateOrganization", map[string]any{
		"organization_id": orgID,
		"organization":    org,
		"update_mask":     sdkgrpc.FieldMask(mask...),
	}, opts)
}

// DeleteOrganization removes an organization.
func (c *MgmtClient) DeleteOrganization(ctx context.Context, orgID string, opts ...CallOption) *Call {
	return c.invoke(ctx, "DeleteOrganization", map[string]any{"organization_id": orgID}, opts)
}

// CreateToken issues an API token valid for ttl seconds (-1 never expires).
func (c *MgmtClient) CreateToken(ctx context.Context, tokenID string, ttl int32, opts ...CallOption) *Call {
	return c.invoke(ctx, "CreateToken", map[string]any{
		"token": map[string]any{"id": tokenID, "ttl": ttl},
	}, opts)
}

// ListTokens lists the API tokens of the caller. Only PageSize and
// PageToken apply.
func (c *MgmtClient) ListTokens(ctx context.Context, list ListOptions, opts ...CallOption) *Call {
	return c.invoke(ctx, "ListTokens", list.fields(nil, "page_size", "page_token"), opts)
}

// GetToken fetches an API token by id.
func (c *MgmtClient) GetToken(ctx context.Context, tokenID string, opts ...CallOption) *Call {
	return c.invoke(ctx, "GetToken", map[string]any{"token_id": tokenID}, opts)
}

// DeleteToken revokes an API token.
func (c *MgmtClient) DeleteToken(ctx context.Context, tokenID string, opts ...CallOption) *Call {
	return c.invoke(ctx, "DeleteToken", map[string]any{"token_id": tokenID}, opts)
}

// ValidateToken checks the token the client was built with.
func (c *MgmtClient) ValidateToken(ctx context.Context, opts ...CallOption) *Call {
	return c.invoke(ctx, "ValidateToken", nil, opts)
}

// CheckNamespace reports whether id is free or taken by a user or
// organization.
func (c *MgmtClient) CheckNamespace(ctx context.Context, id string, opts ...CallOption) *Call {
	return c.invoke(ctx, "CheckNamespace", map[string]any{"id": id}, opts)
}

// GetRemainingCredit returns the raw credit reply of a namespace. See
// RemainingCredit for a decoded amount.
func (c *MgmtClient) GetRemainingCredit(ctx context.Context, namespaceID string, opts ...CallOption) *Call {
	return c.invoke(ctx, "GetRemainingCredit", map[string]any{"namespace_id": namespaceID}, opts)
}

// RemainingCredit returns the total credit left in a namespace.
func (c *MgmtClient) RemainingCredit(ctx context.Context, namespaceID string, opts ...CallOption) (decimal.Decimal, error) {
	var credit model.Credit
	if err := Decode(c.GetRemainingCredit(ctx, namespaceID, opts...), &credit); err != nil {
		return decimal.Zero, err
	}
	return credit.Total, nil
}

// AuthenticatedUser decodes GetAuthenticatedUser.
func (c *MgmtClient) AuthenticatedUser(ctx context.Context, opts ...CallOption) (*model.User, error) {
	var out struct {
		User model.User `json:"user"`
	}
	if err := Decode(c.GetAuthenticatedUser(ctx, opts...), &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}
