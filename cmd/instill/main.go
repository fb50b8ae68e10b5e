// Command instill manages configured Instill instances and probes their
// health.
package main

import (
	"fmt"
	"os"

	"github.com/instill-ai/instill-sdk-go/pkg/client"
	"github.com/instill-ai/instill-sdk-go/pkg/config"
	"github.com/instill-ai/instill-sdk-go/pkg/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

type globalFlags struct {
	configDir string
	verbose   bool
	restore   func()

	clientOpts []client.Option
}

func (g *globalFlags) dir() string {
	if g.configDir != "" {
		return g.configDir
	}
	return config.DefaultDir()
}

func (g *globalFlags) load() (*config.Config, error) {
	return config.Load(g.dir())
}

// newRootCmd builds the command tree. The returned func flushes and removes
// the logger installed for the run; call it once Execute returns, whatever
// the outcome.
func newRootCmd(opts ...client.Option) (*cobra.Command, func()) {
	g := &globalFlags{clientOpts: opts}
	root := &cobra.Command{
		Use:           "instill",
		Short:         "Manage Instill instances",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := zapcore.InfoLevel
			if g.verbose {
				level = zapcore.DebugLevel
			}
			restore, err := logging.Install(logging.Options{
				Dir:     logging.DefaultDir(g.dir()),
				Level:   level,
				Console: true,
			})
			if err != nil {
				return err
			}
			g.restore = restore
			return nil
		},
	}
	root.PersistentFlags().StringVar(&g.configDir, "config-dir", "", "Configuration directory (default $INSTILL_SYSTEM_CONFIG_PATH or ~/.config/instill)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log debug output")

	root.AddCommand(newConfigCmd(g), newHealthCmd(g))
	return root, g.closeLogs
}

func (g *globalFlags) closeLogs() {
	if g.restore != nil {
		g.restore()
		g.restore = nil
	}
}

func main() {
	root, closeLogs := newRootCmd()
	err := root.Execute()
	closeLogs()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
