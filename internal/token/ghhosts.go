package token

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// GHHosts reads tokens stored by the gh CLI in hosts.yml.
type GHHosts struct {
	// Path overrides the hosts file location.
	Path string
}

type ghHost struct {
	OAuthToken string `yaml:"oauth_token"`
	User       string `yaml:"user"`
}

// DefaultGHHostsPath honors GH_CONFIG_DIR, then the XDG config directory.
func DefaultGHHostsPath() string {
	if dir, ok := lookupEnv("GH_CONFIG_DIR"); ok && dir != "" {
		return filepath.Join(dir, "hosts.yml")
	}
	return filepath.Join(xdg.ConfigHome, "gh", "hosts.yml")
}

// Lookup implements Source.
func (g GHHosts) Lookup(_ context.Context, host string) (Token, error) {
	path := g.Path
	if path == "" {
		path = DefaultGHHostsPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Token{}, ErrTokenNotFound
		}
		return Token{}, fmt.Errorf("failed to read gh hosts file: %w", err)
	}

	var hosts map[string]ghHost
	if err := yaml.Unmarshal(data, &hosts); err != nil {
		return Token{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	h, ok := hosts[host]
	if !ok || h.OAuthToken == "" {
		return Token{}, ErrTokenNotFound
	}
	return Token{Value: h.OAuthToken, Source: path}, nil
}
