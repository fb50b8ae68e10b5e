package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gosuri/uitable"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/instill-ai/instill-sdk-go/pkg/client"
	sdkgrpc "github.com/instill-ai/instill-sdk-go/pkg/grpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type healthFlags struct {
	instance string
	timeout  time.Duration
	metrics  bool
}

func newHealthCmd(g *globalFlags) *cobra.Command {
	var f healthFlags
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Report the readiness of every backend of an instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth(cmd, g, f)
		},
	}
	cmd.Flags().StringVar(&f.instance, "instance", "", "Instance alias (default: the default or only instance)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 10*time.Second, "Deadline for the probes")
	cmd.Flags().BoolVar(&f.metrics, "metrics", false, "Print per-method call counts")
	return cmd
}

func runHealth(cmd *cobra.Command, g *globalFlags, f healthFlags) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics := grpc_prometheus.NewClientMetrics()
	if err := reg.Register(metrics); err != nil {
		return err
	}

	opts := append([]client.Option{
		client.WithDialOptions(sdkgrpc.WithMetrics(metrics)),
	}, g.clientOpts...)
	if f.instance != "" {
		opts = append(opts, client.WithInstance(f.instance))
	}
	c, err := client.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer c.Close()

	if c.Target() == "" {
		return fmt.Errorf("no instance configured in %s", cfg.Path())
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
	defer cancel()
	s := c.IsServing(ctx)

	out := cmd.OutOrStdout()
	table := uitable.New()
	table.AddRow("SERVICE", "STATUS")
	for _, row := range []struct {
		name string
		ok   bool
	}{
		{"mgmt", s.Mgmt},
		{"pipeline", s.Pipeline},
		{"model", s.Model},
		{"artifact", s.Artifact},
		{"app", s.App},
	} {
		table.AddRow(row.name, servingLabel(row.ok))
	}
	fmt.Fprintf(out, "Instance %q\n", c.Target())
	fmt.Fprintln(out, table)

	if f.metrics {
		if err := printCallCounts(cmd, reg); err != nil {
			return err
		}
	}
	if !s.All() {
		return fmt.Errorf("instance %q is not fully serving", c.Target())
	}
	return nil
}

func servingLabel(ok bool) string {
	if ok {
		return "SERVING"
	}
	return "NOT_SERVING"
}

func printCallCounts(cmd *cobra.Command, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "grpc_client_handled_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			var service, method, code string
			for _, l := range m.GetLabel() {
				switch l.GetName() {
				case "grpc_service":
					service = l.GetValue()
				case "grpc_method":
					method = l.GetValue()
				case "grpc_code":
					code = l.GetValue()
				}
			}
			counts[service+"/"+method+" "+code] += m.GetCounter().GetValue()
		}
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := uitable.New()
	table.AddRow("CALL", "COUNT")
	for _, k := range keys {
		table.AddRow(k, fmt.Sprintf("%.0f", counts[k]))
	}
	fmt.Fprintln(cmd.OutOrStdout(), table)
	return nil
}
