package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/instill-ai/instill-sdk-go/pkg/config"
	sdkgrpc "github.com/instill-ai/instill-sdk-go/pkg/grpc"
	"github.com/instill-ai/instill-sdk-go/pkg/model"
	"go.uber.org/zap"
)

// ArtifactClient talks to the artifact backend: catalogs, their files and
// retrieval over them.
type ArtifactClient struct {
	*base
}

// NewArtifactClient connects to the artifact backend of the selected instance.
func NewArtifactClient(cfg *config.Config, opts ...Option) (*ArtifactClient, error) {
	b, err := newBase(sdkgrpc.ArtifactService, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &ArtifactClient{base: b}, nil
}

// CreateCatalog creates a catalog called name.
func (c *ArtifactClient) CreateCatalog(ctx context.Context, namespaceID, name, description string, tags []string, opts ...CallOption) *Call {
	return c.invoke(ctx, "CreateCatalog", map[string]any{
		"namespace_id": namespaceID,
		"name":         name,
		"description":  description,
		"tags":         tags,
	}, opts)
}

// ListCatalogs lists the catalogs of a namespace.
func (c *ArtifactClient) ListCatalogs(ctx context.Context, namespaceID string, opts ...CallOption) *Call {
	return c.invoke(ctx, "ListCatalogs", map[string]any{"namespace_id": namespaceID}, opts)
}

// UpdateCatalog replaces the description and tags of a catalog.
func (c *ArtifactClient) UpdateCatalog(ctx context.Context, namespaceID, catalogID, description string, tags []string, opts ...CallOption) *Call {
	return c.invoke(ctx, "UpdateCatalog", map[string]any{
		"namespace_id": namespaceID,
		"catalog_id":   catalogID,
		"description":  description,
		"tags":         tags,
	}, opts)
}

// DeleteCatalog removes a catalog and its files.
func (c *ArtifactClient) DeleteCatalog(ctx context.Context, namespaceID, catalogID string, opts ...CallOption) *Call {
	return c.invoke(ctx, "DeleteCatalog", map[string]any{
		"namespace_id": namespaceID,
		"catalog_id":   catalogID,
	}, opts)
}

// UploadCatalogFile uploads a file whose Content is already base64 encoded.
func (c *ArtifactClient) UploadCatalogFile(ctx context.Context, namespaceID, catalogID string, file model.CatalogFile, opts ...CallOption) *Call {
	return c.invoke(ctx, "UploadCatalogFile", map[string]any{
		"namespace_id": namespaceID,
		"catalog_id":   catalogID,
		"file": map[string]any{
			"name":    file.Name,
			"type":    int32(file.Type),
			"content": file.Content,
		},
	}, opts)
}

// UploadCatalogFileFromPath reads a local file, infers its type from the
// extension and uploads it.
func (c *ArtifactClient) UploadCatalogFileFromPath(ctx context.Context, namespaceID, catalogID, path string, opts ...CallOption) *Call {
	raw, err := os.ReadFile(path)
	if err != nil {
		co := applyCallOptions(opts)
		return sdkgrpc.Failed("UploadCatalogFile", nil, c.report(co, &Error{
			Kind: KindInvalid, Service: c.service, Method: "UploadCatalogFile", Err: err,
		}))
	}
	ft := model.FileTypeFromExt(strings.ToLower(filepath.Ext(path)))
	if ft == model.FileTypeUnspecified {
		co := applyCallOptions(opts)
		return sdkgrpc.Failed("UploadCatalogFile", nil, c.report(co, &Error{
			Kind: KindInvalid, Service: c.service, Method: "UploadCatalogFile",
			Err: fmt.Errorf("unsupported file type %q", filepath.Ext(path)),
		}))
	}
	c.logger().Info("uploading catalog file",
		zap.String("catalog", catalogID),
		zap.String("file", filepath.Base(path)),
		zap.String("type", ft.String()),
		zap.String("size", humanize.Bytes(uint64(len(raw)))))
	return c.UploadCatalogFile(ctx, namespaceID, catalogID, model.CatalogFile{
		Name:    filepath.Base(path),
		Type:    ft,
		Content: base64.StdEncoding.EncodeToString(raw),
	}, opts...)
}

// ListCatalogFiles pages through the files of a catalog.
func (c *ArtifactClient) ListCatalogFiles(ctx context.Context, namespaceID, catalogID string, list ListOptions, opts ...CallOption) *Call {
	return c.invoke(ctx, "ListCatalogFiles", list.fields(map[string]any{
		"namespace_id": namespaceID,
		"catalog_id":   catalogID,
	}, "page_size", "page_token"), opts)
}

// DeleteCatalogFile removes a file by uid.
func (c *ArtifactClient) DeleteCatalogFile(ctx context.Context, fileUID string, opts ...CallOption) *Call {
	return c.invoke(ctx, "DeleteCatalogFile", map[string]any{"file_uid": fileUID}, opts)
}

// ProcessCatalogFiles queues uploaded files for conversion, chunking and
// embedding.
func (c *ArtifactClient) ProcessCatalogFiles(ctx context.Context, fileUIDs []string, opts ...CallOption) *Call {
	return c.invoke(ctx, "ProcessCatalogFiles", map[string]any{"file_uids": fileUIDs}, opts)
}

// ListChunks lists the chunks produced for one processed file.
func (c *ArtifactClient) ListChunks(ctx context.Context, namespaceID, catalogID, fileUID string, opts ...CallOption) *Call {
	return c.invoke(ctx, "ListChunks", map[string]any{
		"namespace_id": namespaceID,
		"catalog_id":   catalogID,
		"file_uid":     fileUID,
	}, opts)
}

// GetSourceFile returns the converted text of a file.
func (c *ArtifactClient) GetSourceFile(ctx context.Context, namespaceID, catalogID, fileUID string, opts ...CallOption) *Call {
	return c.invoke(ctx, "GetSourceFile", map[string]any{
		"namespace_id": namespaceID,
		"catalog_id":   catalogID,
		"file_uid":     fileUID,
	}, opts)
}

// SimilarityChunksSearch returns the topK chunks closest to prompt.
func (c *ArtifactClient) SimilarityChunksSearch(ctx context.Context, namespaceID, catalogID, prompt string, topK uint32, opts ...CallOption) *Call {
	return c.invoke(ctx, "SimilarityChunksSearch", map[string]any{
		"namespace_id": namespaceID,
		"catalog_id":   catalogID,
		"text_prompt":  prompt,
		"top_k":        topK,
	}, opts)
}

// QuestionAnswering answers question from the topK most similar chunks of
// the catalog.
func (c *ArtifactClient) QuestionAnswering(ctx context.Context, namespaceID, catalogID, question string, topK int32, opts ...CallOption) *Call {
	return c.invoke(ctx, "QuestionAnswering", map[string]any{
		"namespace_id": namespaceID,
		"catalog_id":   catalogID,
		"question":     question,
		"top_k":        topK,
	}, opts)
}
