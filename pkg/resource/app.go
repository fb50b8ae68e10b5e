package resource

import (
	"context"
	"strconv"
	"sync"

	"github.com/instill-ai/instill-sdk-go/pkg/client"
	"github.com/instill-ai/instill-sdk-go/pkg/model"
	"go.uber.org/zap"
)

// App is a handle on an assistant app.
type App struct {
	client    *client.AppClient
	namespace string
	id        string
	opts      options

	mu       sync.RWMutex
	resource model.App
}

// NewApp returns a handle on namespace/id, creating the app if no app with
// that id is listed.
func NewApp(ctx context.Context, c *client.AppClient, namespace, id, description string, tags []string, opts ...Option) (*App, error) {
	a := &App{client: c, namespace: namespace, id: id, opts: applyOptions(opts)}
	res, created, err := getOrCreate(ctx, "app "+id, a.get,
		func(ctx context.Context) (model.App, error) {
			var out struct {
				App model.App `json:"app"`
			}
			err := client.Decode(c.CreateApp(ctx, namespace, id, description, tags), &out)
			return out.App, err
		},
		func(v model.App) bool { return v.AppID == "" && v.AppUID == "" },
	)
	if err != nil {
		return nil, err
	}
	if created {
		a.opts.log().Info("app created", zap.String("namespace", namespace), zap.String("id", id))
	}
	a.resource = res
	return a, nil
}

// get scans the namespace listing; the backend has no single-app lookup.
func (a *App) get(ctx context.Context) (model.App, error) {
	var out struct {
		Apps []model.App `json:"apps"`
	}
	if err := client.Decode(a.client.ListApps(ctx, a.namespace, client.WithSilent()), &out); err != nil {
		return model.App{}, err
	}
	for _, app := range out.Apps {
		if app.AppID == a.id {
			return app, nil
		}
	}
	return model.App{}, nil
}

// Resource returns the last fetched app.
func (a *App) Resource() model.App {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.resource
}

// Refresh reloads the app from ListApps.
func (a *App) Refresh(ctx context.Context) error {
	res, err := a.get(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.resource = res
	a.mu.Unlock()
	return nil
}

// NewConversation opens a conversation on the app. An empty id is replaced
// by a random one.
func (a *App) NewConversation(ctx context.Context, id string) (model.Conversation, error) {
	var out struct {
		Conversation model.Conversation `json:"conversation"`
	}
	err := client.Decode(a.client.CreateConversation(ctx, a.namespace, a.id, id), &out)
	return out.Conversation, err
}

// Chat sends message within conversation and returns the reply messages.
// The app's assistant catalog and top-k are used for retrieval.
func (a *App) Chat(ctx context.Context, conversation model.Conversation, message string) ([]model.Message, error) {
	res := a.Resource()
	topK, _ := strconv.ParseInt(res.AIAssistantAppTopK, 10, 32)
	var out struct {
		Messages []model.Message `json:"messages"`
	}
	call := a.client.Chat(ctx, a.namespace, a.id, res.AIAssistantAppCatalog, conversation.UID, message, int32(topK))
	if err := client.Decode(call, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// Delete removes the app from the backend.
func (a *App) Delete(ctx context.Context) error {
	_, err := a.client.DeleteApp(ctx, a.namespace, a.id).Wait()
	return err
}
