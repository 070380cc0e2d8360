// Package app wires the resolution components, platforms, clone strategy and
// launchers into the operations the gitws commands expose.
package app

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"sync"

	"github.com/NicabarNimble/go-gitws/internal/config"
	"github.com/NicabarNimble/go-gitws/internal/git"
	"github.com/NicabarNimble/go-gitws/internal/launcher"
	"github.com/NicabarNimble/go-gitws/internal/platform"
	"github.com/NicabarNimble/go-gitws/internal/profile"
	"github.com/NicabarNimble/go-gitws/internal/reference"
	"github.com/NicabarNimble/go-gitws/internal/token"
	"github.com/NicabarNimble/go-gitws/internal/workspace"
)

// Launcher opens a local path with a named application.
type Launcher interface {
	Open(ctx context.Context, name, path string) (string, error)
}

// URLOpener hands a URL to the browser.
type URLOpener interface {
	OpenURL(u *url.URL) error
}

// Options configures New. Only Config and Root are required.
type Options struct {
	Config *config.Config
	Root   string

	// Strategy overrides the clone strategy named in Config.
	Strategy git.Strategy
	// Platforms overrides the registry built from Config.
	Platforms *platform.Registry
	// Credentials overrides the token lookup used for authenticated clones.
	Credentials func(platform.Descriptor) token.Source

	Launcher Launcher
	Browser  URLOpener
	Logger   *slog.Logger
}

// App holds everything one invocation needs. It is built once and shared
// read-only by concurrent clone tasks.
type App struct {
	cfg         *config.Config
	resolver    *reference.Resolver
	root        workspace.Root
	profiles    *profile.Registry
	platforms   *platform.Registry
	strategy    git.Strategy
	credentials func(platform.Descriptor) token.Source
	// tokens remembers credentials found during one invocation, keyed by
	// host. tokenMu serializes lookups so concurrent clones share one.
	tokens   *token.MemoryStorage
	tokenMu  sync.Mutex
	launcher Launcher
	browser  URLOpener
	logger   *slog.Logger
}

// New builds an App from validated configuration.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	resolver, err := cfg.Resolver()
	if err != nil {
		return nil, err
	}

	strategy := opts.Strategy
	if strategy == nil {
		if strategy, err = git.NewStrategy(cfg.Git.Strategy.Clone); err != nil {
			return nil, err
		}
	}

	platforms := opts.Platforms
	if platforms == nil {
		if platforms, err = platform.NewRegistry(cfg.PlatformDescriptors()); err != nil {
			return nil, err
		}
	}

	a := &App{
		cfg:         cfg,
		resolver:    resolver,
		root:        cfg.Root(opts.Root),
		profiles:    cfg.ProfileRegistry(),
		platforms:   platforms,
		strategy:    strategy,
		credentials: opts.Credentials,
		tokens:      token.NewMemoryStorage(),
		launcher:    opts.Launcher,
		browser:     opts.Browser,
		logger:      opts.Logger,
	}
	if a.credentials == nil {
		a.credentials = platform.Credentials
	}
	if a.launcher == nil {
		a.launcher = cfg.Apps()
	}
	if a.browser == nil {
		a.browser = launcher.Browser{}
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return a, nil
}

// Root returns the workspace root directory.
func (a *App) Root() string { return a.root.Path }

// Platforms returns the platform registry.
func (a *App) Platforms() *platform.Registry { return a.platforms }

// defaultApp returns name, or the configured default application when name
// is empty.
func (a *App) defaultApp(name string) string {
	if name != "" {
		return name
	}
	return a.cfg.Defaults.Open
}
