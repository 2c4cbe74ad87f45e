//go:build unix

// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	"github.com/bassosimone/handoff"
	"github.com/spf13/cobra"
)

func newInspectCommand(opts *globalOptions) *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "inspect [VALUE]",
		Short: "Report the descriptors listed in a collection string",
		Long: `Inspect parses a collection string, VALUE or the content of the variable
named by --env, and reports for each entry whether its descriptor is open
in this process and matches the resource. Descriptors are left untouched.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := os.Getenv(env)
			if len(args) > 0 {
				value = args[0]
			}
			logger := opts.newLogger(cmd)
			cfg := handoff.NewConfig()
			entries, err := handoff.ParseCollection(handoff.NewDefaultRegistry(cfg), value)
			if err != nil {
				return err
			}
			sockets := handoff.NewSockets(cfg, logger)
			out := cmd.OutOrStdout()
			for _, entry := range entries {
				spec := handoff.EncodeResourceSpec(entry.Resource)
				addr, err := sockets.Probe(entry.Resource, entry.Value)
				if err != nil {
					fmt.Fprintf(out, "%s\t%s\tunusable: %v\n", entry.Value, spec, err)
					continue
				}
				fmt.Fprintf(out, "%s\t%s\tbound to %s\n", entry.Value, spec, addr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&env, "env", defaultEnv, "environment variable holding the collection")
	return cmd
}
