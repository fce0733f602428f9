package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"toolcore/internal/catalog"
)

func newCatalogCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "catalog [domain interface]",
		Short: "List tool groups, or print the catalog of one interface",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected no arguments or a domain and an interface, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, key := range svc.Registry().Groups() {
					n := len(svc.Registry().Tools(key.Domain, key.Interface))
					fmt.Fprintf(out, "%-22s %-12s %2d tools\n", key.Domain, key.Interface, n)
				}
				return nil
			}
			tools := svc.Registry().Tools(args[0], args[1])
			if len(tools) == 0 {
				return fmt.Errorf("no tools registered for %s/%s", args[0], args[1])
			}
			exported, err := catalog.Export(catalog.Format(format), svc.Registry().Catalog(args[0], args[1]))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(exported)
		},
	}
	cmd.Flags().StringVar(&format, "format", string(catalog.FormatNative), "catalog encoding: native, openai or anthropic")
	return cmd
}
