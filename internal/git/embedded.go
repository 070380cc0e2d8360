package git

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/format/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/NicabarNimble/go-gitws/internal/errors"
	"github.com/NicabarNimble/go-gitws/internal/profile"
	"github.com/NicabarNimble/go-gitws/internal/token"
)

// tokenUser is the user name sent with token basic auth. GitHub and GitLab
// accept any non-empty name alongside a token.
const tokenUser = "x-access-token"

// EmbeddedStrategy clones with go-git, without a git executable.
type EmbeddedStrategy struct{}

// Clone implements Strategy.
func (s *EmbeddedStrategy) Clone(ctx context.Context, remote, path string, opts CloneOptions) (*Repository, error) {
	t, err := prepareTarget(path)
	if err != nil {
		return nil, cloneError(remote, err)
	}

	pw := newProgressWriter(opts.Progress)
	cloneOpts := &gogit.CloneOptions{
		URL:      remote,
		Progress: pw,
		Auth:     authFor(remote, opts.Auth),
	}
	if opts.Recursive {
		cloneOpts.RecurseSubmodules = gogit.DefaultSubmoduleRecursionDepth
	}

	repo, err := gogit.PlainCloneContext(ctx, path, false, cloneOpts)
	pw.Flush()
	if err != nil {
		if cerr := t.cleanup(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to remove partial clone: %w", cerr))
		}
		return nil, cloneError(remote, err)
	}

	return NewRepository(path, NewRepoConfig(repo)), nil
}

func authFor(remote string, tok token.Token) transport.AuthMethod {
	if tok.Value == "" {
		return nil
	}
	if !strings.HasPrefix(remote, "https://") && !strings.HasPrefix(remote, "http://") {
		return nil
	}
	return &http.BasicAuth{Username: tokenUser, Password: tok.Value}
}

// RepoConfig edits a repository's local configuration through go-git.
type RepoConfig struct {
	repo *gogit.Repository
}

// NewRepoConfig wraps repo's configuration.
func NewRepoConfig(repo *gogit.Repository) *RepoConfig {
	return &RepoConfig{repo: repo}
}

// Set implements profile.ConfigStore. The raw option is written first and
// the typed view is rebuilt from it, so keys go-git models itself (such as
// user.name) are not overwritten by stale typed values on save.
func (c *RepoConfig) Set(key, value string) error {
	k, err := profile.ParseKey(key)
	if err != nil {
		return err
	}

	cfg, err := c.repo.Config()
	if err != nil {
		return fmt.Errorf("failed to read repository config: %w", err)
	}
	cfg.Raw.SetOption(k.Section, k.Subsection, k.Name, value)

	var buf bytes.Buffer
	if err := config.NewEncoder(&buf).Encode(cfg.Raw); err != nil {
		return fmt.Errorf("failed to encode repository config: %w", err)
	}
	fresh := gitconfig.NewConfig()
	if err := fresh.Unmarshal(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to reload repository config: %w", err)
	}

	if err := c.repo.SetConfig(fresh); err != nil {
		return fmt.Errorf("failed to write repository config: %w", err)
	}
	return nil
}

// Get returns the raw value of key, empty when unset.
func (c *RepoConfig) Get(key string) (string, error) {
	k, err := profile.ParseKey(key)
	if err != nil {
		return "", err
	}
	cfg, err := c.repo.Config()
	if err != nil {
		return "", fmt.Errorf("failed to read repository config: %w", err)
	}
	section := cfg.Raw.Section(k.Section)
	if k.Subsection != "" {
		return section.Subsection(k.Subsection).Option(k.Name), nil
	}
	return section.Option(k.Name), nil
}
