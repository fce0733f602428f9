// Command toolcore inspects the tool catalogs of the built-in domains and
// replays benchmark tasks against them.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"toolcore/internal/config"
	"toolcore/internal/core"
	"toolcore/internal/dependency"
	"toolcore/plugins"
)

const version = "0.3.0"

var exitFunc = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	exitFunc(code)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "toolcore",
		Short:         "Tool registry and task runner for agent benchmark domains",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (default $"+config.EnvConfig+")")

	root.AddCommand(newCatalogCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newRunsCmd(opts))
	return root
}

// newService installs the built-in plugins into a service with no storage
// attached; catalog inspection needs nothing else.
func newService() (*core.Service, error) {
	svc := core.NewService()
	if _, err := plugins.Install(svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func openContainer(opts *rootOptions, stderr io.Writer, overrides ...func(*config.Config)) (*dependency.Container, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(&cfg)
	}
	return dependency.New(&cfg, stderr)
}
