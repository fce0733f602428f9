package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"toolcore/pkg/domain"
)

func newRunsCmd(root *rootOptions) *cobra.Command {
	var filter domain.RunFilter
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			c, err := openContainer(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() {
				if cerr := c.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()
			recs, err := c.Ledger().List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, rec := range recs {
				fmt.Fprintf(out, "%s %s/%s reward=%.2f steps=%d failures=%d %s\n",
					rec.RunID, rec.Domain, rec.Interface, rec.Reward, rec.Steps, rec.Failures,
					rec.RecordedAt.Format(domain.TimestampLayout))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Domain, "domain", "", "only runs of this domain")
	cmd.Flags().StringVar(&filter.Interface, "interface", "", "only runs of this interface")
	cmd.AddCommand(newRunsShowCmd(root))
	return cmd
}

func newRunsShowCmd(root *rootOptions) *cobra.Command {
	var domainName, iface string
	cmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Print a stored transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			c, err := openContainer(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() {
				if cerr := c.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()
			t, err := c.Exporter().Get(cmd.Context(), domainName, iface, args[0])
			if err != nil {
				return fmt.Errorf("transcript %s: %w", args[0], err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(t)
		},
	}
	cmd.Flags().StringVar(&domainName, "domain", "", "domain of the run")
	cmd.Flags().StringVar(&iface, "interface", "interface_1", "interface of the run")
	_ = cmd.MarkFlagRequired("domain")
	return cmd
}
