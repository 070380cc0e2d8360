// Package config loads the workspace configuration file, gitws.yaml, found
// at the workspace root.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/NicabarNimble/go-gitws/internal/errors"
	"github.com/NicabarNimble/go-gitws/internal/git"
	"github.com/NicabarNimble/go-gitws/internal/identity"
	"github.com/NicabarNimble/go-gitws/internal/launcher"
	"github.com/NicabarNimble/go-gitws/internal/platform"
	"github.com/NicabarNimble/go-gitws/internal/profile"
	"github.com/NicabarNimble/go-gitws/internal/reference"
	"github.com/NicabarNimble/go-gitws/internal/rule"
	"github.com/NicabarNimble/go-gitws/internal/workspace"
)

// Defaults complete partial references and pick the default application.
type Defaults struct {
	Host     string `yaml:"host,omitempty"`
	Owner    string `yaml:"owner,omitempty"`
	Protocol string `yaml:"protocol,omitempty"`
	Open     string `yaml:"open,omitempty"`
}

// StrategyConfig selects implementations of git operations.
type StrategyConfig struct {
	Clone string `yaml:"clone,omitempty"`
}

// GitConfig groups git related settings.
type GitConfig struct {
	Strategy StrategyConfig `yaml:"strategy"`
}

// Config is the decoded gitws.yaml.
type Config struct {
	Layout       string                       `yaml:"layout,omitempty"`
	Defaults     Defaults                     `yaml:"defaults"`
	Patterns     []reference.Pattern          `yaml:"patterns,omitempty"`
	Rules        rule.Rules                   `yaml:"rules,omitempty"`
	Profiles     Ordered[profile.Settings]    `yaml:"profiles,omitempty"`
	Platforms    Ordered[platform.Descriptor] `yaml:"platforms,omitempty"`
	Applications Ordered[launcher.App]        `yaml:"applications,omitempty"`
	Git          GitConfig                    `yaml:"git"`
}

// DefaultConfig provides default configuration values
func DefaultConfig() *Config {
	return &Config{
		Layout: workspace.DefaultLayout,
		Defaults: Defaults{
			Host:     reference.DefaultHost,
			Protocol: identity.ProtocolHTTPS,
		},
		Git: GitConfig{Strategy: StrategyConfig{Clone: git.StrategyCLI}},
	}
}

// Path returns the configuration file location for a workspace root.
func Path(root string) string {
	return filepath.Join(root, workspace.MarkerFile)
}

// Load reads <root>/gitws.yaml. A missing file yields the defaults.
func Load(root string) (*Config, error) {
	return LoadFile(Path(root))
}

// LoadFile loads configuration from a file
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.E(errors.ErrInvalidConfig, "load config", fmt.Errorf("failed to read config file: %w", err))
	}

	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.E(errors.ErrInvalidConfig, "load config", fmt.Errorf("%s: %w", path, err))
	}
	return cfg, nil
}

// Parse decodes, completes and validates a configuration document. Unknown
// keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.MergeDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MergeDefaults merges default values for unset fields
func (c *Config) MergeDefaults() {
	d := DefaultConfig()
	if c.Layout == "" {
		c.Layout = d.Layout
	}
	if c.Defaults.Host == "" {
		c.Defaults.Host = d.Defaults.Host
	}
	if c.Defaults.Protocol == "" {
		c.Defaults.Protocol = d.Defaults.Protocol
	}
	if c.Git.Strategy.Clone == "" {
		c.Git.Strategy.Clone = d.Git.Strategy.Clone
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := workspace.ValidateLayout(c.Layout); err != nil {
		return errors.E(errors.ErrInvalidConfig, "layout", err)
	}

	if !identity.IsProtocol(c.Defaults.Protocol) {
		return errors.Ef(errors.ErrInvalidConfig, "defaults", "unsupported protocol %q", c.Defaults.Protocol)
	}

	for i, p := range c.Patterns {
		if err := p.Validate(); err != nil {
			return errors.Ef(errors.ErrInvalidConfig, "patterns", "pattern #%d: %w", i+1, err)
		}
	}

	if err := c.Rules.Validate(); err != nil {
		return errors.E(errors.ErrInvalidConfig, "rules", err)
	}
	for i, r := range c.Rules {
		if _, ok := c.Profiles.Get(r.Profile); !ok {
			return errors.Ef(errors.ErrInvalidConfig, "rules", "rule #%d: unknown profile %q (declared: %s)",
				i+1, r.Profile, strings.Join(c.Profiles.Names(), ", "))
		}
	}

	if err := c.ProfileRegistry().Validate(); err != nil {
		return errors.E(errors.ErrInvalidConfig, "profiles", err)
	}

	for _, d := range c.PlatformDescriptors() {
		if err := d.Validate(); err != nil {
			return err
		}
	}

	for _, app := range c.Applications {
		if app.Value.Cmd == "" {
			return errors.Ef(errors.ErrInvalidConfig, "applications", "%s: cmd is required", app.Name)
		}
	}

	if _, err := git.NewStrategy(c.Git.Strategy.Clone); err != nil {
		return err
	}
	return nil
}

// Resolver builds the reference resolver for the configured patterns.
func (c *Config) Resolver() (*reference.Resolver, error) {
	return reference.NewResolver(c.Patterns, reference.Defaults{
		Host:     c.Defaults.Host,
		Owner:    c.Defaults.Owner,
		Protocol: c.Defaults.Protocol,
	})
}

// Root pairs the workspace directory with the configured layout.
func (c *Config) Root(path string) workspace.Root {
	return workspace.Root{Path: path, Layout: c.Layout}
}

// ProfileRegistry returns the declared profiles in order.
func (c *Config) ProfileRegistry() *profile.Registry {
	profiles := make([]profile.Profile, 0, len(c.Profiles))
	for _, e := range c.Profiles {
		profiles = append(profiles, profile.Profile{Name: e.Name, Settings: e.Value})
	}
	return profile.NewRegistry(profiles...)
}

// PlatformDescriptors returns the declared platforms named after their keys.
func (c *Config) PlatformDescriptors() []platform.Descriptor {
	out := make([]platform.Descriptor, 0, len(c.Platforms))
	for _, e := range c.Platforms {
		d := e.Value
		d.Name = e.Name
		out = append(out, d)
	}
	return out
}

// Apps returns the application launcher for the configured applications.
func (c *Config) Apps() *launcher.Apps {
	apps := make(map[string]launcher.App, len(c.Applications))
	for _, e := range c.Applications {
		apps[e.Name] = e.Value
	}
	return launcher.NewApps(apps)
}
