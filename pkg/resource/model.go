package resource

import (
	"context"
	"sync"

	"github.com/instill-ai/instill-sdk-go/pkg/client"
	sdkgrpc "github.com/instill-ai/instill-sdk-go/pkg/grpc"
	"github.com/instill-ai/instill-sdk-go/pkg/model"
	"go.uber.org/zap"
)

// Model is a handle on a hosted model.
type Model struct {
	client    *client.ModelClient
	namespace string
	id        string
	version   string
	opts      options

	mu       sync.RWMutex
	resource model.Model
}

// NewModel returns a handle on namespace/id, creating the model from spec if
// it does not exist.
func NewModel(ctx context.Context, c *client.ModelClient, namespace, id string, spec client.ModelSpec, opts ...Option) (*Model, error) {
	m := &Model{client: c, namespace: namespace, id: id, opts: applyOptions(opts)}
	res, created, err := getOrCreate(ctx, "model "+id, m.get,
		func(ctx context.Context) (model.Model, error) {
			var out struct {
				Model model.Model `json:"model"`
			}
			err := client.Decode(c.CreateModel(ctx, namespace, id, spec), &out)
			return out.Model, err
		},
		func(v model.Model) bool { return v.ID == "" && v.UID == "" },
	)
	if err != nil {
		return nil, err
	}
	if created {
		m.opts.log().Info("model created", zap.String("namespace", namespace), zap.String("id", id))
	}
	m.resource = res
	return m, nil
}

// WithVersion returns a copy of the handle bound to one model version for
// watching and triggering.
func (m *Model) WithVersion(version string) *Model {
	return &Model{
		client: m.client, namespace: m.namespace, id: m.id, version: version,
		opts: m.opts, resource: m.Resource(),
	}
}

func (m *Model) get(ctx context.Context) (model.Model, error) {
	var out struct {
		Model model.Model `json:"model"`
	}
	err := client.Decode(m.client.GetModel(ctx, m.namespace, m.id, client.WithSilent()), &out)
	return out.Model, err
}

// Resource returns the last fetched state of the model.
func (m *Model) Resource() model.Model {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resource
}

// Refresh refetches the model.
func (m *Model) Refresh(ctx context.Context) error {
	res, err := m.get(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.resource = res
	m.mu.Unlock()
	return nil
}

// State watches the current deployment state.
func (m *Model) State(ctx context.Context) (model.ModelState, error) {
	var out struct {
		State   model.ModelState `json:"state"`
		Message string           `json:"message"`
	}
	if err := client.Decode(m.client.WatchModel(ctx, m.namespace, m.id, m.version), &out); err != nil {
		return model.ModelStateUnspecified, err
	}
	return out.State, nil
}

// Deploy deploys the model and waits until it is online or failed.
func (m *Model) Deploy(ctx context.Context) (model.ModelState, error) {
	if _, err := m.client.DeployModel(ctx, m.namespace, m.id).Wait(); err != nil {
		return model.ModelStateUnspecified, err
	}
	return m.waitFor(ctx, "DeployNamespaceModel", model.ModelStateOnline, model.ModelStateError)
}

// Undeploy undeploys the model and waits until it is offline or failed.
func (m *Model) Undeploy(ctx context.Context) (model.ModelState, error) {
	if _, err := m.client.UndeployModel(ctx, m.namespace, m.id).Wait(); err != nil {
		return model.ModelStateUnspecified, err
	}
	return m.waitFor(ctx, "UndeployNamespaceModel", model.ModelStateOffline, model.ModelStateError)
}

func (m *Model) waitFor(ctx context.Context, what string, terminal ...model.ModelState) (model.ModelState, error) {
	var last model.ModelState
	err := m.opts.wait.poll(ctx, sdkgrpc.ModelService, what, func(ctx context.Context) (bool, error) {
		s, err := m.State(ctx)
		if err != nil {
			return false, err
		}
		last = s
		return s.Terminal(terminal...), nil
	})
	if err != nil {
		return last, err
	}
	m.mu.Lock()
	m.resource.State = last
	m.mu.Unlock()
	return last, nil
}

// Trigger runs inference and returns the task outputs, nil when the backend
// returned none.
func (m *Model) Trigger(ctx context.Context, inputs []map[string]any) ([]map[string]any, error) {
	var out struct {
		Task    string           `json:"task"`
		Outputs []map[string]any `json:"task_outputs"`
	}
	if err := client.Decode(m.client.TriggerModel(ctx, m.namespace, m.id, m.version, inputs), &out); err != nil {
		return nil, err
	}
	if len(out.Outputs) == 0 {
		return nil, nil
	}
	return out.Outputs, nil
}

// TriggerAsync starts inference and returns the long-running operation.
func (m *Model) TriggerAsync(ctx context.Context, inputs []map[string]any) (model.Operation, error) {
	var out struct {
		Operation model.Operation `json:"operation"`
	}
	err := client.Decode(m.client.TriggerAsyncModel(ctx, m.namespace, m.id, m.version, inputs), &out)
	return out.Operation, err
}

// Delete removes the model from the backend.
func (m *Model) Delete(ctx context.Context) error {
	_, err := m.client.DeleteModel(ctx, m.namespace, m.id).Wait()
	return err
}
