// Package client provides the per-backend clients of the Instill platform.
//
// A client is built from an explicitly loaded configuration; nothing is read
// at import time:
//
//	cfg, err := config.Load("")
//	if err != nil {
//		return err
//	}
//	c, err := client.New(cfg)
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
// # Instance Selection
//
// WithInstance names the alias to use. Otherwise the "default" alias is
// used, or the only configured alias. With nothing configured the client
// still builds: Target is empty, IsServing reports false and every call
// fails with KindNoInstance.
//
// # Calls
//
// Every RPC returns a *Call. Synchronous calls complete before the method
// returns; Wait hands back the reply:
//
//	reply, err := c.Model.GetModel(ctx, "admin", "yolov7").Wait()
//
// Decode waits and decodes in one step:
//
//	var out struct {
//		Model model.Model `json:"model"`
//	}
//	err := client.Decode(c.Model.GetModel(ctx, "admin", "yolov7"), &out)
//
// Clients built WithAsync accept the Async call option, which runs the call
// on its own goroutine over a dedicated channel. grpc.Gather waits for a
// batch:
//
//	a := c.Model.TriggerModel(ctx, "admin", "m1", "", inputs, client.Async())
//	b := c.Model.TriggerModel(ctx, "admin", "m2", "", inputs, client.Async())
//	replies, err := grpc.Gather(ctx, a, b)
//
// Both strategies build the request the same way before dispatch.
//
// # Readiness Gate
//
// Every call other than Liveness and Readiness first checks Readiness on
// the same channel. A backend that is not serving fails the call with
// KindNotServing without sending it. SkipServingCheck bypasses the gate.
//
// # Errors
//
// Failures are *Error values carrying a Kind, the service and method, and
// for RPC failures the gRPC code and details:
//
//	if client.IsKind(err, client.KindTimeout) { ... }
//	if client.IsNotFound(err) { ... }
//
// Errors are logged through zap unless the call passes WithSilent. Clients
// built WithExitOnError terminate the process with status 1 after logging
// a failure; silent calls never terminate.
package client
