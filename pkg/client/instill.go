package client

import (
	"context"
	"errors"

	"github.com/instill-ai/instill-sdk-go/pkg/config"
	"golang.org/x/sync/errgroup"
)

// InstillClient bundles one client per platform backend, all targeting the
// same instance.
type InstillClient struct {
	Mgmt     *MgmtClient
	Pipeline *PipelineClient
	Model    *ModelClient
	Artifact *ArtifactClient
	App      *AppClient
}

// New connects every backend client using cfg. Options apply to all of
// them.
func New(cfg *config.Config, opts ...Option) (*InstillClient, error) {
	c := &InstillClient{}
	var err error
	if c.Mgmt, err = NewMgmtClient(cfg, opts...); err != nil {
		return nil, err
	}
	if c.Pipeline, err = NewPipelineClient(cfg, opts...); err != nil {
		_ = c.Close()
		return nil, err
	}
	if c.Model, err = NewModelClient(cfg, opts...); err != nil {
		_ = c.Close()
		return nil, err
	}
	if c.Artifact, err = NewArtifactClient(cfg, opts...); err != nil {
		_ = c.Close()
		return nil, err
	}
	if c.App, err = NewAppClient(cfg, opts...); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Target returns the alias every backend client uses.
func (c *InstillClient) Target() string {
	return c.Mgmt.Target()
}

// ServingStatus is the readiness of each backend.
type ServingStatus struct {
	Mgmt     bool
	Pipeline bool
	Model    bool
	Artifact bool
	App      bool
}

// All reports whether every backend is serving.
func (s ServingStatus) All() bool {
	return s.Mgmt && s.Pipeline && s.Model && s.Artifact && s.App
}

// IsServing probes all backends concurrently.
func (c *InstillClient) IsServing(ctx context.Context) ServingStatus {
	var s ServingStatus
	var g errgroup.Group
	g.Go(func() error { s.Mgmt = c.Mgmt.IsServing(ctx); return nil })
	g.Go(func() error { s.Pipeline = c.Pipeline.IsServing(ctx); return nil })
	g.Go(func() error { s.Model = c.Model.IsServing(ctx); return nil })
	g.Go(func() error { s.Artifact = c.Artifact.IsServing(ctx); return nil })
	g.Go(func() error { s.App = c.App.IsServing(ctx); return nil })
	_ = g.Wait()
	return s
}

// Close closes every backend client.
func (c *InstillClient) Close() error {
	var errs []error
	if c.Mgmt != nil {
		errs = append(errs, c.Mgmt.Close())
	}
	if c.Pipeline != nil {
		errs = append(errs, c.Pipeline.Close())
	}
	if c.Model != nil {
		errs = append(errs, c.Model.Close())
	}
	if c.Artifact != nil {
		errs = append(errs, c.Artifact.Close())
	}
	if c.App != nil {
		errs = append(errs, c.App.Close())
	}
	return errors.Join(errs...)
}
