package platform

import (
	"context"
	"fmt"
	"net/url"

	"github.com/NicabarNimble/go-gitws/internal/errors"
	"github.com/NicabarNimble/go-gitws/internal/gitlab"
	"github.com/NicabarNimble/go-gitws/internal/identity"
	"github.com/NicabarNimble/go-gitws/internal/token"
)

// GitLab serves gitlab.com and self-managed GitLab hosts.
type GitLab struct {
	name   string
	client *gitlab.Client
}

func openGitLab(_ context.Context, d Descriptor, tok token.Token) (Platform, error) {
	api := d.API
	if api == "" {
		api = gitlab.APIBaseURL(d.Host)
	}
	client, err := gitlab.NewClient(tok, gitlab.WithBaseURL(api))
	if err != nil {
		return nil, err
	}
	return &GitLab{name: d.Name, client: client}, nil
}

func (g *GitLab) Name() string { return g.name }

// BrowsableURL asks the API for the project's web_url, which carries the
// canonical namespace path.
func (g *GitLab) BrowsableURL(ctx context.Context, id identity.Identity) (*url.URL, error) {
	p, err := g.client.GetProject(ctx, id.Owner, id.Repo)
	if err != nil {
		return nil, fmt.Errorf("look up %s on %s: %w", id.FullName(), g.name, err)
	}
	u, err := url.Parse(p.WebURL)
	if err != nil || u.Host == "" {
		return nil, errors.NewAPIError("get project", fmt.Sprintf("invalid web_url %q", p.WebURL), err)
	}
	return u, nil
}

func (g *GitLab) Fork(ctx context.Context, id identity.Identity, owner string) (string, error) {
	fork, err := g.client.Fork(ctx, id.Owner, id.Repo, owner)
	if err != nil {
		return "", fmt.Errorf("fork %s on %s: %w", id.FullName(), g.name, err)
	}
	return fork.WebURL, nil
}
