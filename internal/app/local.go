package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/NicabarNimble/go-gitws/internal/errors"
	"github.com/NicabarNimble/go-gitws/internal/reference"
)

// Path returns the local directory of the referenced repository, cloned or
// not.
func (a *App) Path(raw string) (string, error) {
	task, err := a.Plan(raw, CloneOptions{})
	if err != nil {
		return "", err
	}
	return task.Path, nil
}

// Open opens an existing clone with app, or with the configured default
// application when app is empty, and returns the application used.
func (a *App) Open(ctx context.Context, raw, app string) (string, error) {
	path, err := a.Path(raw)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Ef(errors.ErrNotCloned, "open "+raw, "%s is not cloned (expected at %s)", raw, path)
		}
		return "", errors.New("open "+raw, err)
	}
	if !info.IsDir() {
		return "", errors.Ef(errors.ErrNotCloned, "open "+raw, "%s is not a directory", path)
	}

	opened, err := a.launcher.Open(ctx, a.defaultApp(app), path)
	if err != nil {
		return opened, errors.New("open "+raw, err)
	}
	a.logger.Debug("opened", slog.String("path", path), slog.String("app", opened))
	return opened, nil
}

// Resolution is everything gitws derives from a reference without I/O.
type Resolution struct {
	Raw       string
	Reference reference.Reference
	Path      string
	Profile   string
	// Platform is the descriptor name serving the host, empty when none does.
	Platform string
	Err      error
}

// Resolve explains each reference: identity, path, profile and platform.
// Failures are reported per reference.
func (a *App) Resolve(raws []string) []Resolution {
	out := make([]Resolution, 0, len(raws))
	for _, raw := range raws {
		res := Resolution{Raw: raw}
		task, err := a.Plan(raw, CloneOptions{})
		if err != nil {
			res.Err = err
			out = append(out, res)
			continue
		}
		res.Reference = task.Reference
		res.Path = task.Path
		res.Profile = task.Profile
		if d, ok := a.platforms.Find(task.Reference.Identity); ok {
			res.Platform = d.Name
		}
		out = append(out, res)
	}
	return out
}
