// Package workspace locates the workspace root and maps identities to
// directories beneath it.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/NicabarNimble/go-gitws/internal/errors"
	"github.com/NicabarNimble/go-gitws/internal/identity"
)

const (
	// MarkerFile marks a directory as a workspace root and holds its configuration.
	MarkerFile = "gitws.yaml"

	// DefaultDirName is created in the home directory when no root is found.
	DefaultDirName = ".gitws"

	// DefaultLayout places repositories at <root>/<host>/<owner>/<repo>.
	DefaultLayout = "{host}/{owner}/{repo}"
)

// Root is the workspace root directory together with its path layout.
type Root struct {
	Path   string
	Layout string
}

// Resolve returns the directory for id. It performs no I/O. Segments that
// would leave the root fail with ErrInvalidIdentitySegment.
func (r Root) Resolve(id identity.Identity) (string, error) {
	for _, seg := range []string{id.Host, id.Owner, id.Repo} {
		if err := identity.ValidateSegment(seg); err != nil {
			return "", errors.Ef(errors.ErrInvalidIdentitySegment, "path", "%s: segment %q: %v", id, seg, err)
		}
	}

	layout := r.Layout
	if layout == "" {
		layout = DefaultLayout
	}
	rel := strings.NewReplacer(
		"{host}", id.Host,
		"{owner}", id.Owner,
		"{repo}", id.Repo,
	).Replace(layout)
	rel = filepath.FromSlash(rel)

	if !filepath.IsLocal(rel) {
		return "", errors.Ef(errors.ErrInvalidIdentitySegment, "path", "%s: %q escapes the workspace root", id, rel)
	}
	return filepath.Join(r.Path, rel), nil
}

// ValidateLayout checks that each placeholder appears exactly once and fills
// a whole path segment. Segments cannot contain a separator, so distinct
// identities then map to distinct paths.
func ValidateLayout(layout string) error {
	if layout == "" {
		return nil
	}
	for _, ph := range []string{"{host}", "{owner}", "{repo}"} {
		if strings.Count(layout, ph) != 1 {
			return fmt.Errorf("layout %q must contain %s exactly once", layout, ph)
		}
	}
	for _, seg := range strings.Split(layout, "/") {
		if strings.Contains(seg, "{") && seg != "{host}" && seg != "{owner}" && seg != "{repo}" {
			return fmt.Errorf("layout %q: segment %q must be a single placeholder", layout, seg)
		}
	}
	if filepath.IsAbs(layout) {
		return fmt.Errorf("layout %q must be relative", layout)
	}
	return nil
}

// FindOptions controls root discovery.
type FindOptions struct {
	// Override is an explicit root (--root flag or GITWS_ROOT).
	Override string
	// WorkingDir is where the upward marker search starts.
	WorkingDir string
	// HomeDir hosts the fallback root.
	HomeDir string
}

// For testing purposes
var (
	getwd       = os.Getwd
	userHomeDir = os.UserHomeDir
)

// Find discovers the workspace root: an explicit override, then the nearest
// directory holding MarkerFile, then ~/.gitws (created when missing).
func Find(opts FindOptions) (string, error) {
	if opts.Override != "" {
		abs, err := filepath.Abs(opts.Override)
		if err != nil {
			return "", fmt.Errorf("failed to resolve root %q: %w", opts.Override, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("workspace root %q: %w", abs, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("workspace root %q is not a directory", abs)
		}
		return abs, nil
	}

	wd := opts.WorkingDir
	if wd == "" {
		var err error
		if wd, err = getwd(); err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
	}
	if dir, ok := findMarker(wd); ok {
		return dir, nil
	}

	home := opts.HomeDir
	if home == "" {
		var err error
		if home, err = userHomeDir(); err != nil {
			return "", fmt.Errorf("no workspace marker found and home directory is unknown: %w", err)
		}
	}
	dir := filepath.Join(home, DefaultDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create workspace root: %w", err)
	}
	return dir, nil
}

func findMarker(start string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, MarkerFile)); err == nil && !info.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
