//go:build unix

// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"log/slog"
	"os"

	"github.com/bassosimone/handoff"
	"github.com/spf13/cobra"
)

// defaultEnv is the environment variable carrying the collection.
const defaultEnv = "HANDOFF_RESOURCES"

// globalOptions contains the flags shared by all commands.
type globalOptions struct {
	verbose bool
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:           "handoffctl",
		Short:         "Hand bound sockets over to the next process generation",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "emit structured JSON logs on stderr")
	cmd.AddCommand(
		newSpecCommand(),
		newResolveCommand(opts),
		newInspectCommand(opts),
		newExecCommand(opts),
	)
	return cmd
}

// newLogger returns the logger for cmd. Every record carries the span ID
// of this process so that the events of one generation can be grouped.
func (o *globalOptions) newLogger(cmd *cobra.Command) handoff.SLogger {
	if !o.verbose {
		return handoff.DefaultSLogger()
	}
	handler := slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler).With(
		slog.String("spanID", handoff.NewSpanID()),
		slog.Int("pid", os.Getpid()),
	)
}
