package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/NicabarNimble/go-gitws/internal/errors"
	"github.com/NicabarNimble/go-gitws/internal/git"
	"github.com/NicabarNimble/go-gitws/internal/identity"
	"github.com/NicabarNimble/go-gitws/internal/orchestrate"
	"github.com/NicabarNimble/go-gitws/internal/profile"
	"github.com/NicabarNimble/go-gitws/internal/progress"
	"github.com/NicabarNimble/go-gitws/internal/reference"
	"github.com/NicabarNimble/go-gitws/internal/token"
)

// CloneTask is one requested repository, fully resolved before any I/O.
type CloneTask struct {
	Raw       string
	Reference reference.Reference
	Path      string
	// Profile is the profile selected by the rules, empty when none matched.
	Profile string
	// Open is the application to open the clone with, empty for none.
	Open string
}

// CloneOptions are shared by every task of one clone invocation.
type CloneOptions struct {
	Recursive bool
	// Open requests opening each clone once it is ready.
	Open bool
	// App names the application; empty selects the configured default.
	App string
}

// Outcome is the reported result of one task.
type Outcome struct {
	Raw     string
	Path    string
	Profile string
	Opened  string
	Err     error
}

// PartialFailureError reports that some clone tasks failed.
type PartialFailureError struct {
	Failed int
	Total  int
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%d of %d clone(s) failed", e.Failed, e.Total)
}

// Plan resolves raw into a clone task: identity, target path and profile.
// It performs no I/O.
func (a *App) Plan(raw string, opts CloneOptions) (CloneTask, error) {
	ref, err := a.resolver.Resolve(raw)
	if err != nil {
		return CloneTask{}, err
	}
	path, err := a.root.Resolve(ref.Identity)
	if err != nil {
		return CloneTask{}, err
	}

	task := CloneTask{Raw: raw, Reference: ref, Path: path}
	if r, ok := a.cfg.Rules.Resolve(ref.Identity); ok {
		task.Profile = r.Profile
	}
	if opts.Open {
		task.Open = a.defaultApp(opts.App)
	}
	return task, nil
}

// Clone materializes one task: clone, then apply its profile. Opening is
// left to CloneAll, which does it once every clone has finished.
func (a *App) Clone(ctx context.Context, task CloneTask, opts CloneOptions, tracker progress.Tracker) (Outcome, error) {
	out := Outcome{Raw: task.Raw, Path: task.Path}
	logger := a.logger.With(slog.String("reference", task.Raw), slog.String("path", task.Path))

	remote := task.Reference.RemoteURL()
	logger.Debug("cloning", slog.String("remote", remote))
	repo, err := a.strategy.Clone(ctx, remote, task.Path, git.CloneOptions{
		Recursive: opts.Recursive,
		Progress:  tracker,
		Auth:      a.cloneAuth(ctx, task.Reference),
	})
	if err != nil {
		return out, err
	}

	if task.Profile != "" {
		p, ok := a.profiles.Resolve(task.Profile)
		if !ok {
			return out, errors.Ef(errors.ErrProfileApply, "clone "+task.Raw, "profile %q is not declared", task.Profile)
		}
		tracker.Start("Applying profile " + p.Name)
		if err := profile.Apply(p, repo.Config()); err != nil {
			return out, err
		}
		out.Profile = p.Name
		logger.Debug("applied profile", slog.String("profile", p.Name))
	}
	out.Path = repo.Workdir()
	return out, nil
}

// cloneAuth looks up a token for authenticated clones of https remotes. A
// missing token is not an error: the clone proceeds anonymously.
func (a *App) cloneAuth(ctx context.Context, ref reference.Reference) token.Token {
	if ref.Protocol != identity.ProtocolHTTPS {
		return token.Token{}
	}
	d, ok := a.platforms.Find(ref.Identity)
	if !ok {
		return token.Token{}
	}
	a.tokenMu.Lock()
	defer a.tokenMu.Unlock()
	if tok, err := a.tokens.Lookup(ctx, d.Host); err == nil {
		return tok
	}
	tok, err := a.credentials(d).Lookup(ctx, d.Host)
	if err != nil {
		a.logger.Debug("cloning without credentials", slog.String("host", d.Host), slog.Any("err", err))
		return token.Token{}
	}
	_ = a.tokens.Store(d.Host, tok)
	return tok
}

// CloneAll plans every reference, then clones the runnable tasks
// concurrently. Outcomes are returned in input order. A reference whose
// target path repeats an earlier one is rejected with ErrDuplicateTarget.
//
// When opening is requested, successful clones are opened one at a time in
// input order after all clones have finished. Applications attached to the
// terminal then never run beside the progress board or each other.
//
// With a single reference a planning error is returned as is. Otherwise
// every task is reported and a PartialFailureError counts the failures.
func (a *App) CloneAll(ctx context.Context, raws []string, opts CloneOptions, board *progress.Board) ([]Outcome, error) {
	outcomes := make([]Outcome, len(raws))
	owners := make(map[string]string, len(raws))

	var tasks []orchestrate.Task[Outcome]
	var slots []int
	apps := make(map[int]string)
	for i, raw := range raws {
		outcomes[i] = Outcome{Raw: raw}

		task, err := a.Plan(raw, opts)
		if err != nil {
			if len(raws) == 1 {
				return nil, err
			}
			outcomes[i].Err = err
			continue
		}
		outcomes[i].Path = task.Path

		if earlier, dup := owners[task.Path]; dup {
			outcomes[i].Err = errors.Ef(errors.ErrDuplicateTarget, "clone "+raw, "%s is already the target of %q", task.Path, earlier)
			continue
		}
		owners[task.Path] = raw

		tasks = append(tasks, orchestrate.Task[Outcome]{
			Name: task.Reference.Identity.String(),
			Run: func(ctx context.Context, tracker progress.Tracker) (Outcome, error) {
				return a.Clone(ctx, task, opts, tracker)
			},
		})
		slots = append(slots, i)
		if task.Open != "" {
			apps[i] = task.Open
		}
	}

	a.logger.Debug("dispatching", slog.Int("tasks", len(tasks)), slog.Int("requested", len(raws)))
	results := orchestrate.RunAll(ctx, board, tasks)
	for j, res := range results {
		i := slots[j]
		if res.State == orchestrate.Succeeded {
			outcomes[i] = res.Value
			continue
		}
		outcomes[i].Err = res.Err
	}

	if len(apps) > 0 && board != nil {
		board.Stop()
	}
	for i := range outcomes {
		name, ok := apps[i]
		if !ok || outcomes[i].Err != nil {
			continue
		}
		opened, err := a.launcher.Open(ctx, name, outcomes[i].Path)
		if err != nil {
			outcomes[i].Err = errors.New("open "+outcomes[i].Raw, err)
			continue
		}
		outcomes[i].Opened = opened
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			a.logger.Debug("clone failed", slog.String("reference", o.Raw), slog.Any("err", o.Err))
		}
	}
	if failed > 0 {
		return outcomes, &PartialFailureError{Failed: failed, Total: len(raws)}
	}
	return outcomes, nil
}
