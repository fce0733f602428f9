package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"toolcore/internal/catalog"
	"toolcore/internal/core"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the consistency of every installed domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			problems := checkRegistry(svc)
			if len(problems) > 0 {
				for _, p := range problems {
					fmt.Fprintln(cmd.ErrOrStderr(), " -", p)
				}
				return errors.New("registry check failed")
			}
			tools := 0
			groups := svc.Registry().Groups()
			for _, key := range groups {
				tools += len(svc.Registry().Tools(key.Domain, key.Interface))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry check passed: %d domains, %d interfaces, %d tools.\n",
				len(svc.RegisteredPlugins()), len(groups), tools)
			return nil
		},
	}
}

// checkRegistry returns one line per inconsistency found in svc.
func checkRegistry(svc *core.Service) []string {
	var problems []string
	for _, meta := range svc.RegisteredPlugins() {
		for _, m := range svc.StateMachines(meta.Name) {
			problems = append(problems, checkStateMachine(meta.Name, m)...)
		}
	}
	for _, key := range svc.Registry().Groups() {
		tools := svc.Registry().Tools(key.Domain, key.Interface)
		if len(tools) == 0 {
			problems = append(problems, fmt.Sprintf("%s: no tools", key))
		}
		var identity []string
		for _, d := range tools {
			if d.IdentityCheck {
				identity = append(identity, d.Name)
			}
			props := d.Parameters.Properties
			for _, name := range d.Required() {
				if _, ok := props[name]; !ok {
					problems = append(problems, fmt.Sprintf("%s %s: required %q is not a property", key, d.Name, name))
				}
			}
		}
		if len(identity) > 1 {
			problems = append(problems, fmt.Sprintf("%s: several identity checks (%s)", key, strings.Join(identity, ", ")))
		}
		defs := svc.Registry().Catalog(key.Domain, key.Interface)
		for _, format := range catalog.Formats() {
			if _, err := catalog.Export(format, defs); err != nil {
				problems = append(problems, fmt.Sprintf("%s: %s export: %v", key, format, err))
			}
		}
	}
	return problems
}

func checkStateMachine(domainName string, m core.StateMachine) []string {
	var problems []string
	label := fmt.Sprintf("%s %s lifecycle", domainName, m.Collection)
	unknown := func(role, state string) {
		if !m.Valid(state) {
			problems = append(problems, fmt.Sprintf("%s: %s state %q is not declared", label, role, state))
		}
	}
	for _, s := range m.Order {
		unknown("ordered", s)
	}
	for _, s := range m.Terminal {
		unknown("terminal", s)
	}
	for from, targets := range m.Transitions {
		unknown("source", from)
		for _, to := range targets {
			unknown("target", to)
		}
		if len(targets) > 0 && slices.Contains(m.Terminal, from) {
			problems = append(problems, fmt.Sprintf("%s: terminal state %q has transitions", label, from))
		}
	}
	slices.Sort(problems)
	return problems
}
