// Package sync implements the Skills Sync Compiler (spec.md C10): it
// reads resources out of the C4/C5 registries and compiles them into
// client-native skill packages, tracking drift via a per-client
// manifest.
package sync

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Override is a per-client output-directory override.
type Override struct {
	OutputDir struct {
		User    string `yaml:"user,omitempty"`
		Project string `yaml:"project,omitempty"`
	} `yaml:"outputDir,omitempty"`
}

// Config is the parsed sync-compiler configuration file (spec.md §6).
type Config struct {
	ExportAll  bool
	ExportKeys []string
	Overrides  map[string]Override
}

// rawConfig mirrors the YAML shape before exports' union type (either the
// literal "all" or a list of qualified-key strings) is resolved.
type rawConfig struct {
	Exports   yaml.Node           `yaml:"exports"`
	Overrides map[string]Override `yaml:"overrides,omitempty"`
}

// LoadConfig parses a sync configuration file. A missing file yields a
// Config with ExportAll set and no overrides, so Allows admits every key.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{ExportAll: true}, nil
		}
		return nil, fmt.Errorf("read sync config %s: %w", path, err)
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse sync config %s: %w", path, err)
	}

	cfg := &Config{Overrides: raw.Overrides}

	switch raw.Exports.Kind {
	case yaml.ScalarNode:
		var literal string
		if err := raw.Exports.Decode(&literal); err != nil {
			return nil, fmt.Errorf("parse sync config %s: exports: %w", path, err)
		}
		if literal != "all" {
			return nil, fmt.Errorf("parse sync config %s: exports: expected \"all\" or a list, got %q", path, literal)
		}
		cfg.ExportAll = true
	case yaml.SequenceNode:
		var keys []string
		if err := raw.Exports.Decode(&keys); err != nil {
			return nil, fmt.Errorf("parse sync config %s: exports: %w", path, err)
		}
		cfg.ExportKeys = keys
	default:
		cfg.ExportAll = true
	}

	return cfg, nil
}

// OutputDirFor resolves the effective output directory for a client,
// honoring a configured override before falling back to the client's
// built-in default.
func (c *Config) OutputDirFor(client Client, scope Scope) string {
	if c != nil {
		if ov, ok := c.Overrides[client.ID]; ok {
			if scope == ScopeUser && ov.OutputDir.User != "" {
				return ov.OutputDir.User
			}
			if scope == ScopeProject && ov.OutputDir.Project != "" {
				return ov.OutputDir.Project
			}
		}
	}
	if scope == ScopeUser {
		return client.DefaultOutputDirUser
	}
	return client.DefaultOutputDirProject
}

// Allows reports whether key passes the export allow-list.
func (c *Config) Allows(key string) bool {
	if c == nil || c.ExportAll {
		return true
	}
	for _, k := range c.ExportKeys {
		if k == key {
			return true
		}
	}
	return false
}
