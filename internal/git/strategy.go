package git

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/NicabarNimble/go-gitws/internal/errors"
	"github.com/NicabarNimble/go-gitws/internal/profile"
	"github.com/NicabarNimble/go-gitws/internal/progress"
	"github.com/NicabarNimble/go-gitws/internal/token"
)

// Strategy names accepted by NewStrategy.
const (
	StrategyCLI      = "cli"
	StrategyEmbedded = "embedded"
)

// CloneOptions contains configuration for repository cloning
type CloneOptions struct {
	// Recursive also clones submodules.
	Recursive bool
	// Progress receives clone phases; nil discards them.
	Progress progress.Tracker
	// Auth is used for HTTPS remotes by strategies that authenticate
	// themselves. The zero Token means anonymous.
	Auth token.Token
}

// Strategy clones a remote into a local directory.
type Strategy interface {
	Clone(ctx context.Context, remote, path string, opts CloneOptions) (*Repository, error)
}

// NewStrategy returns the strategy registered under name. The empty name
// selects the CLI strategy.
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case "", StrategyCLI:
		return &CLIStrategy{}, nil
	case StrategyEmbedded:
		return &EmbeddedStrategy{}, nil
	default:
		return nil, errors.Ef(errors.ErrInvalidConfig, "clone strategy", "unknown strategy %q (want %s or %s)", name, StrategyCLI, StrategyEmbedded)
	}
}

// Repository is a freshly cloned working tree.
type Repository struct {
	workdir string
	config  profile.ConfigStore
}

// NewRepository pairs a working tree with its configuration store.
func NewRepository(workdir string, config profile.ConfigStore) *Repository {
	return &Repository{workdir: workdir, config: config}
}

// Workdir returns the root of the working tree.
func (r *Repository) Workdir() string { return r.workdir }

// Config returns the repository-local configuration.
func (r *Repository) Config() profile.ConfigStore { return r.config }

func cloneError(remote string, err error) error {
	return errors.E(errors.ErrClone, fmt.Sprintf("clone %s", remote), err)
}

// target tracks what a clone is allowed to remove on failure.
type target struct {
	path    string
	existed bool
	// parents are the ancestors prepareTarget created, deepest first.
	parents []string
}

// prepareTarget makes sure path can receive a clone: its parent exists and
// path is absent or an empty directory.
func prepareTarget(path string) (*target, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if !info.IsDir() {
			return nil, fmt.Errorf("%s: %w", path, errors.ErrTargetExists)
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read target directory: %w", err)
		}
		if len(entries) > 0 {
			return nil, fmt.Errorf("%s: %w", path, errors.ErrTargetExists)
		}
		return &target{path: path, existed: true}, nil
	case errors.Is(err, fs.ErrNotExist):
		parents := missingAncestors(path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create parent directory: %w", err)
		}
		return &target{path: path, parents: parents}, nil
	default:
		return nil, fmt.Errorf("failed to inspect target: %w", err)
	}
}

// missingAncestors lists the directories above path that do not exist yet,
// deepest first.
func missingAncestors(path string) []string {
	var missing []string
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		if _, err := os.Stat(dir); !errors.Is(err, fs.ErrNotExist) {
			return missing
		}
		missing = append(missing, dir)
		if filepath.Dir(dir) == dir {
			return missing
		}
	}
}

// cleanup removes what a failed clone left behind. A directory that existed
// before the clone is emptied but kept. Parents created for the clone are
// removed while they are empty; another clone may have populated them since.
func (t *target) cleanup() error {
	if !t.existed {
		if err := os.RemoveAll(t.path); err != nil {
			return err
		}
		for _, dir := range t.parents {
			if os.Remove(dir) != nil {
				break
			}
		}
		return nil
	}
	entries, err := os.ReadDir(t.path)
	if err != nil {
		return err
	}
	var errs []error
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(t.path, e.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func trackerOrDiscard(t progress.Tracker) progress.Tracker {
	if t == nil {
		return progress.Discard()
	}
	return t
}
