package platform

import (
	"context"
	"fmt"
	"net/url"

	"github.com/NicabarNimble/go-gitws/internal/errors"
	"github.com/NicabarNimble/go-gitws/internal/github"
	"github.com/NicabarNimble/go-gitws/internal/identity"
	"github.com/NicabarNimble/go-gitws/internal/token"
)

// GitHub serves github.com and GitHub Enterprise hosts.
type GitHub struct {
	name   string
	client *github.Client
}

func openGitHub(_ context.Context, d Descriptor, tok token.Token) (Platform, error) {
	api := d.API
	if api == "" {
		api = github.APIBaseURL(d.Host)
	}
	client, err := github.NewClient(tok, github.WithBaseURL(api))
	if err != nil {
		return nil, err
	}
	return &GitHub{name: d.Name, client: client}, nil
}

func (g *GitHub) Name() string { return g.name }

// BrowsableURL asks the API for the repository's html_url, which follows
// renames and transfers. When the API is temporarily unavailable the
// conventional /owner/repo page is used instead.
func (g *GitHub) BrowsableURL(ctx context.Context, id identity.Identity) (*url.URL, error) {
	r, err := g.client.GetRepository(ctx, id.Owner, id.Repo)
	switch {
	case errors.IsRetryable(err):
		return FallbackURL(id), nil
	case errors.IsNotFound(err):
		return nil, fmt.Errorf("%s does not exist on %s or the token cannot see it: %w", id.FullName(), g.name, err)
	case err != nil:
		return nil, fmt.Errorf("look up %s on %s: %w", id.FullName(), g.name, err)
	}
	u, err := url.Parse(r.HTMLURL)
	if err != nil || u.Host == "" {
		return nil, errors.NewAPIError("get repository", fmt.Sprintf("invalid html_url %q", r.HTMLURL), err)
	}
	return u, nil
}

func (g *GitHub) Fork(ctx context.Context, id identity.Identity, owner string) (string, error) {
	fork, err := g.client.CreateFork(ctx, id.Owner, id.Repo, owner)
	if err != nil {
		return "", fmt.Errorf("fork %s on %s: %w", id.FullName(), g.name, err)
	}
	return fork.HTMLURL, nil
}
