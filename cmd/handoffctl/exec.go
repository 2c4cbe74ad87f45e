//go:build unix

// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/bassosimone/handoff"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

// execOptions contains the flags of the exec command.
type execOptions struct {
	config    string
	env       string
	resources []string
	reuse     bool
}

func newExecCommand(opts *globalOptions) *cobra.Command {
	eo := &execOptions{}
	cmd := &cobra.Command{
		Use:   "exec [flags] -- COMMAND [ARG...]",
		Short: "Bind or inherit sockets, then replace this process with COMMAND",
		Long: `Exec restores the collection found in the variable named by --env,
creating the sockets that could not be inherited, binds the resources given
with --listen or in the configuration file, stores the resulting collection
in the same variable and replaces itself with COMMAND.

When COMMAND later runs exec again, the next generation inherits the same
sockets: pending connections are never refused.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := eo.load(cmd)
			if err != nil {
				return err
			}
			logger := opts.newLogger(cmd)
			hcfg := handoff.NewConfig()
			codec := handoff.NewCollectionCodec(handoff.NewDefaultRegistry(hcfg), handoff.NewSockets(hcfg, logger))
			value, err := prepareHandoff(codec, cfg, os.Getenv(cfg.Env))
			if err != nil {
				return err
			}
			path, err := exec.LookPath(args[0])
			if err != nil {
				return err
			}
			return os.NewSyscallError("execve", unix.Exec(path, args, setEnv(os.Environ(), cfg.Env, value)))
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&eo.config, "config", "", "TOML configuration file")
	flags.StringVar(&eo.env, "env", defaultEnv, "environment variable carrying the collection")
	flags.StringArrayVarP(&eo.resources, "listen", "l", nil, "resource spec to bind, e.g. tcp,,8080 (repeatable)")
	flags.BoolVar(&eo.reuse, "reuse", false, "set SO_REUSEPORT on the sockets created by this generation")
	return cmd
}

// load merges the configuration file, if any, with the flags. Flags
// given on the command line win; --listen adds to the file resources.
func (eo *execOptions) load(cmd *cobra.Command) (execConfig, error) {
	cfg := defaultExecConfig()
	if eo.config != "" {
		var err error
		if cfg, err = loadExecConfig(eo.config); err != nil {
			return execConfig{}, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("env") {
		if err := validateEnvName(eo.env); err != nil {
			return execConfig{}, err
		}
		cfg.Env = eo.env
	}
	if flags.Changed("reuse") {
		cfg.Reuse = eo.reuse
	}
	cfg.Resources = append(cfg.Resources, normalizeResources(eo.resources)...)
	return cfg, nil
}

// prepareHandoff restores the inherited collection, binds the configured
// resources that are missing and returns the collection string for the
// next generation.
//
// Inherited resources that are no longer configured are handed over as
// well. The handles of this process are closed before returning: only the
// inheritable duplicates named in the returned string stay open.
func prepareHandoff(codec *handoff.CollectionCodec, cfg execConfig, inherited string) (string, error) {
	col, err := codec.Decode(inherited)
	if err != nil {
		return "", fmt.Errorf("restore %s: %w", cfg.Env, err)
	}
	defer codec.Sockets.DestroyCollection(col)
	for _, spec := range cfg.Resources {
		res, err := codec.Registry.DecodeResourceSpec(spec)
		if err != nil {
			return "", err
		}
		if _, found := col.Get(res); found {
			continue
		}
		handle, err := codec.Sockets.Create(res, cfg.Reuse)
		if err != nil {
			return "", fmt.Errorf("bind %s: %w", spec, err)
		}
		col.Add(res, handle)
	}
	return codec.Encode(col)
}

// setEnv returns environ with name set to value.
func setEnv(environ []string, name, value string) []string {
	entry := name + "=" + value
	prefix := name + "="
	out := slices.DeleteFunc(slices.Clone(environ), func(kv string) bool {
		return strings.HasPrefix(kv, prefix)
	})
	return append(out, entry)
}
