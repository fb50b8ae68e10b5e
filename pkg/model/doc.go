// Package model defines the Go representation of the entities returned by
// the Instill platform services.
//
// Replies arrive as dynamic protobuf messages; grpc.Decode turns them into
// these structs. Field tags follow the proto field names, so a decoded reply
// reads naturally:
//
//	var out struct {
//		Model model.Model `json:"model"`
//	}
//	if err := grpc.Decode(reply, &out); err != nil {
//		return err
//	}
//	if out.Model.State == model.ModelStateOnline {
//		// ready to trigger
//	}
//
// # Entities
//
//   - User, Organization, Token and Credit from the management backend
//   - Model, ModelDefinition and ModelVersion from the model backend
//   - Pipeline, PipelineRelease, ComponentDefinition, Connector,
//     ConnectorDefinition, Secret and Operation from the pipeline backend
//   - Catalog, CatalogFile, Chunk and SimilarityChunk from the artifact backend
//   - App, Conversation and Message from the app backend
//
// # States
//
// Enumerations decode from their wire numbers. ModelState and
// ConnectorState drive the wait loops of package resource:
//
//	ModelState:     UNSPECIFIED(0) OFFLINE(1) ONLINE(2) ERROR(3)
//	ConnectorState: UNSPECIFIED(0) DISCONNECTED(1) CONNECTED(2) ERROR(3)
//
// UNSPECIFIED is reported while a transition is in progress.
//
// 64-bit integers travel as JSON strings and are tagged accordingly.
// Credit amounts use shopspring/decimal.
package model
