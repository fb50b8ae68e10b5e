// Package resource wraps platform entities in handles with a lifecycle.
//
// Constructors look the entity up and create it only when it is absent:
//
//	m, err := resource.NewModel(ctx, c.Model, "admin", "yolov7", client.ModelSpec{
//		Definition: "model-definitions/container",
//		Visibility: model.VisibilityPublic,
//		Region:     "REGION_GCP_EUROPE_WEST4",
//		Hardware:   "CPU",
//	})
//	if errors.Is(err, resource.ErrCreationFailed) { ... }
//
// Two constructors racing on the same id may both create; the backend
// rejects the second.
//
// # Waiting
//
// Deploy, Undeploy, Connect and Disconnect issue the transition and then
// poll the state until it reaches one of the states that end the
// transition:
//
//	Model.Deploy          ONLINE or ERROR
//	Model.Undeploy        OFFLINE or ERROR
//	Connector.Connect     CONNECTED or ERROR
//	Connector.Disconnect  DISCONNECTED or ERROR
//
// Polling follows a WaitPolicy, one second by default. A policy Timeout or a
// context deadline ends the wait with a client.KindTimeout error:
//
//	state, err := m.Deploy(ctx)
//	if client.IsKind(err, client.KindTimeout) { ... }
package resource
