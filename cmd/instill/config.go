package main

import (
	"fmt"
	"strconv"

	"github.com/gosuri/uitable"
	"github.com/instill-ai/instill-sdk-go/pkg/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit configured instances",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List configured instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			table := uitable.New()
			table.MaxColWidth = 60
			table.AddRow("ALIAS", "URL", "SECURE", "TOKEN")
			for _, alias := range cfg.Aliases() {
				inst, _ := cfg.Instance(alias)
				table.AddRow(alias, inst.URL, strconv.FormatBool(inst.Secure), maskToken(inst.Token))
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	var inst config.Instance
	setCmd := &cobra.Command{
		Use:   "set <alias>",
		Short: "Add or replace an instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if err := cfg.SetInstance(args[0], inst); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Instance %q saved to %s\n", args[0], cfg.Path())
			return nil
		},
	}
	setCmd.Flags().StringVar(&inst.URL, "url", "", "Instance endpoint, e.g. api.instill.tech:443")
	setCmd.Flags().BoolVar(&inst.Secure, "secure", false, "Use TLS")
	setCmd.Flags().StringVar(&inst.Token, "token", "", "API token")
	_ = setCmd.MarkFlagRequired("url")

	setTokenCmd := &cobra.Command{
		Use:   "set-token <alias> <token>",
		Short: "Replace the API token of an instance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if err := cfg.SetToken(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token of %q updated\n", args[0])
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <alias>",
		Short: "Remove an instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if err := cfg.RemoveInstance(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Instance %q removed\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(listCmd, setCmd, setTokenCmd, removeCmd)
	return cmd
}

func maskToken(token string) string {
	switch {
	case token == "":
		return "-"
	case len(token) <= 8:
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}
