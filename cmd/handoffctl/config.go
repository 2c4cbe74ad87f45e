//go:build unix

// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// fileConfig is the TOML configuration read by the exec command.
type fileConfig struct {
	Env       string   `toml:"env"`
	Reuse     bool     `toml:"reuse"`
	Resources []string `toml:"resources"`
}

// execConfig is the effective configuration of the exec command.
type execConfig struct {
	// Env names the environment variable carrying the collection.
	Env string

	// Reuse sets SO_REUSEPORT on the sockets created by this generation.
	Reuse bool

	// Resources are the specs of the resources to bind.
	Resources []string
}

func defaultExecConfig() execConfig {
	return execConfig{Env: defaultEnv}
}

func loadExecConfig(path string) (execConfig, error) {
	cfg := defaultExecConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return execConfig{}, fmt.Errorf("load handoffctl config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return execConfig{}, fmt.Errorf("load handoffctl config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("env") {
		env := strings.TrimSpace(raw.Env)
		if err := validateEnvName(env); err != nil {
			return execConfig{}, err
		}
		cfg.Env = env
	}

	if meta.IsDefined("reuse") {
		cfg.Reuse = raw.Reuse
	}

	if meta.IsDefined("resources") {
		cfg.Resources = normalizeResources(raw.Resources)
	}

	return cfg, nil
}

func validateEnvName(env string) error {
	if env == "" || strings.ContainsAny(env, "=\x00") {
		return fmt.Errorf("invalid environment variable name %q", env)
	}
	return nil
}

func normalizeResources(in []string) []string {
	out := make([]string, 0, len(in))
	for _, spec := range in {
		v := strings.TrimSpace(spec)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
