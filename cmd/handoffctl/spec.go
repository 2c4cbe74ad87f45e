//go:build unix

// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"net/netip"
	"strconv"

	"github.com/bassosimone/handoff"
	"github.com/spf13/cobra"
)

func newSpecCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "spec SPEC...",
		Short: "Decode resource specs and print them in canonical form",
		Long: `Spec decodes each resource spec (e.g., "tcp,,8080") as the next generation
would, printing the spec of the resulting resource, whose family and
dual-stack setting are decided for this system.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := handoff.NewDefaultRegistry(handoff.NewConfig())
			for _, value := range args {
				res, err := reg.DecodeResourceSpec(value)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), handoff.EncodeResourceSpec(res))
			}
			return nil
		},
	}
}

// resolveOptions contains the flags of the resolve command.
type resolveOptions struct {
	dnsServer string
	dual      bool
	single    bool
}

// newConfig returns the handoff configuration honoring --dns-server.
func (ro *resolveOptions) newConfig(logger handoff.SLogger) (*handoff.Config, error) {
	cfg := handoff.NewConfig()
	if ro.dnsServer != "" {
		server, err := netip.ParseAddrPort(ro.dnsServer)
		if err != nil {
			return nil, fmt.Errorf("invalid DNS server %q: %w", ro.dnsServer, err)
		}
		cfg.Resolver = handoff.NewDNSResolver(cfg, server, logger)
	}
	return cfg, nil
}

func newResolveCommand(opts *globalOptions) *cobra.Command {
	ro := &resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve tcp|udp HOST PORT",
		Short: "Print the resource spec for a host, resolving names",
		Long: `Resolve builds the resource for HOST and PORT and prints its spec. HOST
may be empty (wildcard), an IP address or a name, which is resolved
preferring IPv6 addresses.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ro.newConfig(opts.newLogger(cmd))
			if err != nil {
				return err
			}
			port, err := strconv.ParseUint(args[2], 10, 16)
			if err != nil {
				return fmt.Errorf("invalid port %q: %w", args[2], err)
			}
			res, err := newResource(cmd.Context(), cfg, args[0], args[1], uint16(port), ro.request())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), handoff.EncodeResourceSpec(res))
			return nil
		},
	}
	cmd.Flags().StringVar(&ro.dnsServer, "dns-server", "",
		"resolve HOST by querying this DNS server (ip:port) instead of the system resolver")
	cmd.Flags().BoolVar(&ro.dual, "dual", false, "request a dual-stack socket")
	cmd.Flags().BoolVar(&ro.single, "single", false, "request a single-stack socket")
	cmd.MarkFlagsMutuallyExclusive("dual", "single")
	return cmd
}

// request returns the requested stack mode.
func (ro *resolveOptions) request() handoff.StackMode {
	switch {
	case ro.dual:
		return handoff.StackDual
	case ro.single:
		return handoff.StackSingle
	default:
		return handoff.StackDefault
	}
}

// newResource builds the resource of the given protocol.
func newResource(ctx context.Context, cfg *handoff.Config, proto, host string,
	port uint16, request handoff.StackMode) (handoff.Resource, error) {
	switch proto {
	case "tcp":
		res, err := handoff.NewTCPResource(ctx, cfg, host, port, request)
		if err != nil {
			return nil, err
		}
		return res, nil
	case "udp":
		res, err := handoff.NewUDPResource(ctx, cfg, host, port, request)
		if err != nil {
			return nil, err
		}
		return res, nil
	default:
		return nil, fmt.Errorf("unknown protocol %q: want tcp or udp", proto)
	}
}
