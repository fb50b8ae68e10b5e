// Package grpc provides the dynamic gRPC layer of the Instill SDK.
//
// The platform service definitions (mgmt, pipeline, model, artifact and app)
// are embedded as .proto sources and compiled at runtime with protocompile, so
// no generated stubs are needed. Requests and replies are dynamicpb messages
// built from and decoded into plain Go values.
//
// # Registry
//
// Protocol compiles the embedded sources once per process:
//
//	reg, err := grpc.Protocol()
//	md, err := reg.Method(grpc.ModelService, "GetNamespaceModel")
//
// # Instances
//
// Dial opens the channel to one configured instance:
//
//	inst, err := grpc.Dial("api.instill.tech", token, true, false)
//	defer inst.Close()
//
// Transport is determined by the secure flag and the URL scheme:
//
//	"grpcs://host" or "https://host"  → TLS + per-RPC bearer credentials
//	"grpc://host", "http://host", "host:port" → plaintext, token sent as
//	                                    "authorization: Bearer <token>"
//
// A missing port defaults to 443 for TLS and 80 otherwise. When dialed with
// asyncEnabled, the instance carries a second channel used only by the Async
// strategy.
//
// # Building messages
//
//	req, err := grpc.NewRequest(md, map[string]any{
//		"namespace_id": "admin",
//		"model_id":     "yolov7",
//	})
//
// Keys are proto field names. FieldMask renders update masks and
// StructsFromMaps checks repeated google.protobuf.Struct inputs.
//
// Replies decode into structs with json tags matching proto names:
//
//	var out struct {
//		Model model.Model `json:"model"`
//	}
//	err := grpc.Decode(reply, &out)
//
// # Dispatch
//
// Dispatch runs a call either inline (Sync) or on a goroutine (Async) and
// returns a *Call future. Gather waits for several calls:
//
//	a := grpc.Dispatch(grpc.Async, method, req, fnA)
//	b := grpc.Dispatch(grpc.Async, method, req, fnB)
//	replies, err := grpc.Gather(ctx, a, b)
//
// The request of a Call is fixed before dispatch, so a Sync and an Async call
// built from the same arguments send the same message.
//
// # Thread Safety
//
// Instances and the registry are safe for concurrent use.
package grpc
