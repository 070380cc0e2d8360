// Package git clones repositories into the workspace.
//
// Two strategies implement Strategy:
//
// CLIStrategy runs the system git binary. It honors the user's credential
// helpers, SSH agent and git configuration, and retries a clone when the
// remote reports rate limiting.
//
// EmbeddedStrategy clones in-process with go-git. It needs no git binary and
// authenticates HTTPS remotes with the platform token when one is given.
//
// Both strategies create missing parent directories, refuse to clone into a
// non-empty target, and remove whatever they created when a clone fails.
// The returned Repository exposes its local configuration as a
// profile.ConfigStore so that profiles can be applied after the clone.
//
// Example Usage:
//
//	strategy, err := git.NewStrategy("cli")
//	if err != nil {
//	    return err
//	}
//	repo, err := strategy.Clone(ctx, "https://github.com/org/repo.git", "/ws/github.com/org/repo",
//	    git.CloneOptions{Recursive: true, Progress: tracker})
//	if err != nil {
//	    return err
//	}
//	err = profile.Apply(p, repo.Config())
package git
