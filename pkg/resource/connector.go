package resource

import (
	"context"
	"sync"

	"github.com/instill-ai/instill-sdk-go/pkg/client"
	sdkgrpc "github.com/instill-ai/instill-sdk-go/pkg/grpc"
	"github.com/instill-ai/instill-sdk-go/pkg/model"
	"go.uber.org/zap"
)

// Connector is a handle on a pipeline connector.
type Connector struct {
	client    *client.PipelineClient
	namespace string
	id        string
	opts      options

	mu       sync.RWMutex
	resource model.Connector
}

// NewConnector returns a handle on namespace/id, creating the connector from
// definition and configuration if it does not exist.
func NewConnector(ctx context.Context, c *client.PipelineClient, namespace, id, definition string, configuration map[string]any, opts ...Option) (*Connector, error) {
	cn := &Connector{client: c, namespace: namespace, id: id, opts: applyOptions(opts)}
	res, created, err := getOrCreate(ctx, "connector "+id, cn.get,
		func(ctx context.Context) (model.Connector, error) {
			var out struct {
				Connector model.Connector `json:"connector"`
			}
			err := client.Decode(c.CreateConnector(ctx, namespace, id, definition, configuration), &out)
			return out.Connector, err
		},
		func(v model.Connector) bool { return v.ID == "" && v.UID == "" },
	)
	if err != nil {
		return nil, err
	}
	if created {
		cn.opts.log().Info("connector created", zap.String("namespace", namespace), zap.String("id", id))
	}
	cn.resource = res
	return cn, nil
}

func (c *Connector) get(ctx context.Context) (model.Connector, error) {
	var out struct {
		Connector model.Connector `json:"connector"`
	}
	err := client.Decode(c.client.GetConnector(ctx, c.namespace, c.id, client.WithSilent()), &out)
	return out.Connector, err
}

// Resource returns the last fetched connector.
func (c *Connector) Resource() model.Connector {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resource
}

// Refresh reloads the connector from the backend.
func (c *Connector) Refresh(ctx context.Context) error {
	res, err := c.get(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.resource = res
	c.mu.Unlock()
	return nil
}

// State watches the current connection state.
func (c *Connector) State(ctx context.Context) (model.ConnectorState, error) {
	var out struct {
		State model.ConnectorState `json:"state"`
	}
	if err := client.Decode(c.client.WatchConnector(ctx, c.namespace, c.id), &out); err != nil {
		return model.ConnectorStateUnspecified, err
	}
	return out.State, nil
}

// Connect connects the connector and waits until it is connected or failed.
func (c *Connector) Connect(ctx context.Context) (model.ConnectorState, error) {
	if _, err := c.client.ConnectConnector(ctx, c.namespace, c.id).Wait(); err != nil {
		return model.ConnectorStateUnspecified, err
	}
	return c.waitFor(ctx, "ConnectNamespaceConnector", model.ConnectorStateConnected, model.ConnectorStateError)
}

// Disconnect disconnects the connector and waits until it is disconnected or
// failed.
func (c *Connector) Disconnect(ctx context.Context) (model.ConnectorState, error) {
	if _, err := c.client.DisconnectConnector(ctx, c.namespace, c.id).Wait(); err != nil {
		return model.ConnectorStateUnspecified, err
	}
	return c.waitFor(ctx, "DisconnectNamespaceConnector", model.ConnectorStateDisconnected, model.ConnectorStateError)
}

func (c *Connector) waitFor(ctx context.Context, what string, terminal ...model.ConnectorState) (model.ConnectorState, error) {
	var last model.ConnectorState
	err := c.opts.wait.poll(ctx, sdkgrpc.PipelineService, what, func(ctx context.Context) (bool, error) {
		s, err := c.State(ctx)
		if err != nil {
			return false, err
		}
		last = s
		return s.Terminal(terminal...), nil
	})
	if err != nil {
		return last, err
	}
	c.mu.Lock()
	c.resource.State = last
	c.mu.Unlock()
	return last, nil
}

// Test checks the connector configuration against its target and returns
// the resulting state.
func (c *Connector) Test(ctx context.Context) (model.ConnectorState, error) {
	var out struct {
		State model.ConnectorState `json:"state"`
	}
	if err := client.Decode(c.client.TestConnector(ctx, c.namespace, c.id), &out); err != nil {
		return model.ConnectorStateUnspecified, err
	}
	return out.State, nil
}

// Execute runs task on the connector and returns the outputs, nil when the
// backend returned none.
func (c *Connector) Execute(ctx context.Context, task string, inputs []map[string]any) ([]map[string]any, error) {
	var out struct {
		Outputs []map[string]any `json:"outputs"`
	}
	if err := client.Decode(c.client.ExecuteConnector(ctx, c.namespace, c.id, task, inputs), &out); err != nil {
		return nil, err
	}
	if len(out.Outputs) == 0 {
		return nil, nil
	}
	return out.Outputs, nil
}

// Delete removes the connector from the backend.
func (c *Connector) Delete(ctx context.Context) error {
	_, err := c.client.DeleteConnector(ctx, c.namespace, c.id).Wait()
	return err
}
