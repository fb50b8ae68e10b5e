package resource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/instill-ai/instill-sdk-go/pkg/client"
	sdkgrpc "github.com/instill-ai/instill-sdk-go/pkg/grpc"
	"github.com/instill-ai/instill-sdk-go/pkg/model"
	"go.uber.org/zap"
)

// ErrInvalidRecipe is returned by Validate when the backend rejects the
// recipe.
var ErrInvalidRecipe = errors.New("invalid pipeline recipe")

// Pipeline is a handle on a pipeline.
type Pipeline struct {
	client    *client.PipelineClient
	namespace string
	id        string
	opts      options

	mu       sync.RWMutex
	resource model.Pipeline
}

// NewPipeline returns a handle on namespace/id, creating the pipeline from
// recipe if it does not exist.
func NewPipeline(ctx context.Context, c *client.PipelineClient, namespace, id, description string, recipe map[string]any, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{client: c, namespace: namespace, id: id, opts: applyOptions(opts)}
	res, created, err := getOrCreate(ctx, "pipeline "+id, p.get,
		func(ctx context.Context) (model.Pipeline, error) {
			var out struct {
				Pipeline model.Pipeline `json:"pipeline"`
			}
			err := client.Decode(c.CreatePipeline(ctx, namespace, id, description, recipe), &out)
			return out.Pipeline, err
		},
		func(v model.Pipeline) bool { return v.ID == "" && v.UID == "" },
	)
	if err != nil {
		return nil, err
	}
	if created {
		p.opts.log().Info("pipeline created", zap.String("namespace", namespace), zap.String("id", id))
	}
	p.resource = res
	return p, nil
}

func (p *Pipeline) get(ctx context.Context) (model.Pipeline, error) {
	var out struct {
		Pipeline model.Pipeline `json:"pipeline"`
	}
	err := client.Decode(p.client.GetPipeline(ctx, p.namespace, p.id, client.WithSilent()), &out)
	return out.Pipeline, err
}

// Resource returns the last fetched pipeline.
func (p *Pipeline) Resource() model.Pipeline {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.resource
}

// Refresh reloads the pipeline from the backend.
func (p *Pipeline) Refresh(ctx context.Context) error {
	res, err := p.get(ctx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.resource = res
	p.mu.Unlock()
	return nil
}

// Validate asks the backend to check the recipe. Rejections wrap
// ErrInvalidRecipe and list the reported problems.
func (p *Pipeline) Validate(ctx context.Context) error {
	var out struct {
		Success bool     `json:"success"`
		Errors  []string `json:"errors"`
	}
	if err := client.Decode(p.client.ValidatePipeline(ctx, p.namespace, p.id), &out); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("%w: %s", ErrInvalidRecipe, strings.Join(out.Errors, "; "))
	}
	return nil
}

// Trigger runs the pipeline and returns its outputs, nil when the backend
// returned none.
func (p *Pipeline) Trigger(ctx context.Context, inputs []map[string]any) ([]map[string]any, error) {
	var out struct {
		Outputs []map[string]any `json:"outputs"`
	}
	if err := client.Decode(p.client.TriggerPipeline(ctx, p.namespace, p.id, inputs), &out); err != nil {
		return nil, err
	}
	if len(out.Outputs) == 0 {
		return nil, nil
	}
	return out.Outputs, nil
}

// TriggerAsync starts the pipeline and returns the long-running operation.
func (p *Pipeline) TriggerAsync(ctx context.Context, inputs []map[string]any) (model.Operation, error) {
	var out struct {
		Operation model.Operation `json:"operation"`
	}
	err := client.Decode(p.client.TriggerAsyncPipeline(ctx, p.namespace, p.id, inputs), &out)
	return out.Operation, err
}

// WaitOperation polls an operation started by TriggerAsync until it is
// done.
func (p *Pipeline) WaitOperation(ctx context.Context, op model.Operation) (model.Operation, error) {
	id := strings.TrimPrefix(op.Name, "operations/")
	last := op
	err := p.opts.wait.poll(ctx, sdkgrpc.PipelineService, "GetOperation", func(ctx context.Context) (bool, error) {
		var out struct {
			Operation model.Operation `json:"operation"`
		}
		if err := client.Decode(p.client.GetOperation(ctx, id), &out); err != nil {
			return false, err
		}
		last = out.Operation
		return last.Done, nil
	})
	return last, err
}

// Delete removes the pipeline from the backend.
func (p *Pipeline) Delete(ctx context.Context) error {
	_, err := p.client.DeletePipeline(ctx, p.namespace, p.id).Wait()
	return err
}
