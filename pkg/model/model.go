package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a platform account.
type User struct {
	Name        string    `json:"name"`
	UID         string    `json:"uid"`
	ID          string    `json:"id"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	CompanyName string    `json:"company_name,omitempty"`
	CreateTime  time.Time `json:"create_time,omitempty"`
}

// Organization is a namespace shared by several users.
type Organization struct {
	Name        string    `json:"name"`
	UID         string    `json:"uid"`
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name,omitempty"`
	Owner       string    `json:"owner,omitempty"`
	CreateTime  time.Time `json:"create_time,omitempty"`
}

// Token is a personal API token. AccessToken is only populated on
// creation.
type Token struct {
	Name        string    `json:"name"`
	UID         string    `json:"uid"`
	ID          string    `json:"id"`
	AccessToken string    `json:"access_token,omitempty"`
	State       string    `json:"state,omitempty"`
	TTL         int32     `json:"ttl,omitempty"`
	ExpireTime  time.Time `json:"expire_time,omitempty"`
}

// Credit is the remaining credit of a namespace. Amounts are kept as
// decimals so sums do not drift.
type Credit struct {
	Perishable   decimal.Decimal `json:"perishable"`
	Imperishable decimal.Decimal `json:"imperishable"`
	Total        decimal.Decimal `json:"total"`
}

// Model is a model served by the model backend.
type Model struct {
	Name            string         `json:"name"`
	UID             string         `json:"uid"`
	ID              string         `json:"id"`
	Description     string         `json:"description,omitempty"`
	ModelDefinition string         `json:"model_definition,omitempty"`
	Configuration   map[string]any `json:"configuration,omitempty"`
	Task            string         `json:"task,omitempty"`
	State           ModelState     `json:"state"`
	Visibility      Visibility     `json:"visibility,omitempty"`
	Region          string         `json:"region,omitempty"`
	Hardware        string         `json:"hardware,omitempty"`
	OwnerName       string         `json:"owner_name,omitempty"`
	Versions        []string       `json:"versions,omitempty"`
	CreateTime      time.Time      `json:"create_time,omitempty"`
	UpdateTime      time.Time      `json:"update_time,omitempty"`
}

// ModelDefinition describes a kind of model the backend can host.
type ModelDefinition struct {
	Name      string         `json:"name"`
	UID       string         `json:"uid"`
	ID        string         `json:"id"`
	Title     string         `json:"title,omitempty"`
	ModelSpec map[string]any `json:"model_spec,omitempty"`
}

// ModelVersion is one pushed version of a model.
type ModelVersion struct {
	Name       string     `json:"name"`
	Version    string     `json:"version"`
	Digest     string     `json:"digest,omitempty"`
	State      ModelState `json:"state"`
	UpdateTime time.Time  `json:"update_time,omitempty"`
}

// Pipeline is a pipeline recipe owned by a namespace.
type Pipeline struct {
	Name        string         `json:"name"`
	UID         string         `json:"uid"`
	ID          string         `json:"id"`
	Description string         `json:"description,omitempty"`
	Recipe      map[string]any `json:"recipe,omitempty"`
	Visibility  Visibility     `json:"visibility,omitempty"`
	OwnerName   string         `json:"owner_name,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	CreateTime  time.Time      `json:"create_time,omitempty"`
	UpdateTime  time.Time      `json:"update_time,omitempty"`
}

// PipelineRelease is an immutable, versioned snapshot of a pipeline.
type PipelineRelease struct {
	Name        string         `json:"name"`
	UID         string         `json:"uid"`
	ID          string         `json:"id"`
	Description string         `json:"description,omitempty"`
	Recipe      map[string]any `json:"recipe,omitempty"`
	CreateTime  time.Time      `json:"create_time,omitempty"`
}

// ComponentDefinition describes a pipeline component.
type ComponentDefinition struct {
	Name  string `json:"name"`
	UID   string `json:"uid"`
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Type  string `json:"type,omitempty"`
}

// Connector is a configured connection to an external system.
type Connector struct {
	Name                    string         `json:"name"`
	UID                     string         `json:"uid"`
	ID                      string         `json:"id"`
	ConnectorDefinitionName string         `json:"connector_definition_name,omitempty"`
	Description             string         `json:"description,omitempty"`
	Configuration           map[string]any `json:"configuration,omitempty"`
	State                   ConnectorState `json:"state"`
	Tombstone               bool           `json:"tombstone,omitempty"`
	OwnerName               string         `json:"owner_name,omitempty"`
	CreateTime              time.Time      `json:"create_time,omitempty"`
	UpdateTime              time.Time      `json:"update_time,omitempty"`
}

// ConnectorDefinition describes a kind of connector.
type ConnectorDefinition struct {
	Name  string `json:"name"`
	UID   string `json:"uid"`
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Type  string `json:"type,omitempty"`
}

// Secret is a namespace secret. Value is write-only and never returned.
type Secret struct {
	Name        string    `json:"name"`
	UID         string    `json:"uid"`
	ID          string    `json:"id"`
	Value       string    `json:"value,omitempty"`
	Description string    `json:"description,omitempty"`
	CreateTime  time.Time `json:"create_time,omitempty"`
}

// Operation is a long-running job started by an async trigger.
type Operation struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Metadata map[string]any  `json:"metadata,omitempty"`
	Error    *OperationError `json:"error,omitempty"`
	Response map[string]any  `json:"response,omitempty"`
}

// OperationError is the status of a failed operation. Code is a gRPC code.
type OperationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Catalog is a knowledge base of uploaded files.
type Catalog struct {
	CatalogUID  string    `json:"catalog_uid"`
	CatalogID   string    `json:"catalog_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	OwnerName   string    `json:"owner_name,omitempty"`
	TotalFiles  int64     `json:"total_files,omitempty,string"`
	TotalTokens int64     `json:"total_tokens,omitempty,string"`
	CreateTime  time.Time `json:"create_time,omitempty"`
	UpdateTime  time.Time `json:"update_time,omitempty"`
}

// CatalogFile is a document held by a catalog. Content is base64 encoded.
type CatalogFile struct {
	FileUID       string            `json:"file_uid,omitempty"`
	Name          string            `json:"name"`
	Type          FileType          `json:"type"`
	ProcessStatus FileProcessStatus `json:"process_status,omitempty"`
	Content       string            `json:"content,omitempty"`
	Size          int64             `json:"size,omitempty,string"`
	TotalChunks   int64             `json:"total_chunks,omitempty,string"`
	CreateTime    time.Time         `json:"create_time,omitempty"`
}

// Chunk is a piece of a processed file.
type Chunk struct {
	ChunkUID    string `json:"chunk_uid"`
	Retrievable bool   `json:"retrievable"`
	StartPos    int32  `json:"start_pos"`
	EndPos      int32  `json:"end_pos"`
	Tokens      int32  `json:"tokens"`
	Content     string `json:"content,omitempty"`
}

// SimilarityChunk is a chunk returned by a similarity search.
type SimilarityChunk struct {
	ChunkUID        string  `json:"chunk_uid"`
	SimilarityScore float32 `json:"similarity_score"`
	TextContent     string  `json:"text_content"`
	SourceFile      string  `json:"source_file"`
}

// App is an application, such as an AI assistant bound to a catalog.
type App struct {
	AppID                 string    `json:"app_id"`
	Description           string    `json:"description,omitempty"`
	Tags                  []string  `json:"tags,omitempty"`
	AppUID                string    `json:"app_uid"`
	OwnerUID              string    `json:"owner_uid,omitempty"`
	AIAssistantAppCatalog string    `json:"ai_assistant_app_catalog,omitempty"`
	AIAssistantAppTopK    string    `json:"ai_assistant_app_top_k,omitempty"`
	CreateTime            time.Time `json:"create_time,omitempty"`
	UpdateTime            time.Time `json:"update_time,omitempty"`
}

// Conversation is a chat thread of an app.
type Conversation struct {
	UID         string    `json:"uid"`
	NamespaceID string    `json:"namespace_id"`
	AppID       string    `json:"app_id"`
	ID          string    `json:"id"`
	CreateTime  time.Time `json:"create_time,omitempty"`
	UpdateTime  time.Time `json:"update_time,omitempty"`
}

// Message is one entry of a conversation.
type Message struct {
	UID             string      `json:"uid"`
	AppUID          string      `json:"app_uid,omitempty"`
	ConversationUID string      `json:"conversation_uid,omitempty"`
	Content         string      `json:"content"`
	Role            string      `json:"role"`
	Type            MessageType `json:"type,omitempty"`
	CreateTime      time.Time   `json:"create_time,omitempty"`
}

// Page carries the paging fields common to list responses.
type Page struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	TotalSize     int32  `json:"total_size,omitempty"`
}
