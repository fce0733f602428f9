package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"toolcore/internal/config"
	"toolcore/internal/dataset"
	"toolcore/internal/runner"
)

type runOptions struct {
	domain      string
	iface       string
	tasks       string
	template    string
	metricsFile string
}

// apply routes dispatch metrics to Prometheus when a metrics file is requested.
func (o runOptions) apply(cfg *config.Config) {
	if o.metricsFile == "" {
		return
	}
	cfg.Metrics = config.MetricsPrometheus
	cfg.MetricsFile = o.metricsFile
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replay a task file against a domain dataset and report rewards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			c, err := openContainer(root, cmd.ErrOrStderr(), opts.apply)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := c.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()
			ctx := cmd.Context()

			specs, err := c.Service().Collections(opts.domain)
			if err != nil {
				return err
			}
			snap, err := dataset.Load(ctx, c.Blob(), opts.domain, specs)
			if err != nil {
				return err
			}
			tasks, err := runner.LoadTaskFile(opts.tasks)
			if err != nil {
				return err
			}
			env := runner.Environment{Domain: opts.domain, Interface: opts.iface, Dataset: snap}
			c.Logger().Info("running tasks", "domain", opts.domain, "interface", opts.iface, "tasks", len(tasks))
			transcripts, err := c.Runner().RunAll(ctx, env, tasks)
			if err != nil {
				return err
			}
			if err := c.WriteMetrics(); err != nil {
				return err
			}

			tmpl := ""
			if opts.template != "" {
				raw, err := os.ReadFile(opts.template)
				if err != nil {
					return fmt.Errorf("read report template: %w", err)
				}
				tmpl = string(raw)
			}
			return runner.RenderReport(cmd.OutOrStdout(), tmpl, transcripts)
		},
	}
	cmd.Flags().StringVar(&opts.domain, "domain", "", "domain to run against")
	cmd.Flags().StringVar(&opts.iface, "interface", "interface_1", "tool interface exposed to the tasks")
	cmd.Flags().StringVar(&opts.tasks, "tasks", "", "task file (JSON or YAML)")
	cmd.Flags().StringVar(&opts.template, "report-template", "", "mustache template for the report")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus dispatch metrics to this file after the run")
	_ = cmd.MarkFlagRequired("domain")
	_ = cmd.MarkFlagRequired("tasks")
	return cmd
}
