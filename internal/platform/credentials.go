package platform

import (
	"context"

	"github.com/NicabarNimble/go-gitws/internal/github"
	"github.com/NicabarNimble/go-gitws/internal/gitlab"
	"github.com/NicabarNimble/go-gitws/internal/token"
)

// Credentials builds the token lookup chain for a descriptor: its token_env
// variable, the conventional variables of its type, GIT_TOKEN_<TYPE>, and
// for GitHub hosts the gh CLI hosts file.
func Credentials(d Descriptor) token.Source {
	names := []string{d.TokenEnv}
	switch d.Type {
	case TypeGitHub:
		names = append(names, "GH_TOKEN", "GITHUB_TOKEN")
	case TypeGitLab:
		names = append(names, "GITLAB_TOKEN")
	}

	chain := token.Chain{
		token.EnvVars{Names: names},
		token.NewEnvStorage(string(d.Type)),
	}
	if d.Type == TypeGitHub {
		chain = append(chain, hostSource{host: d.Host, src: token.GHHosts{}})
	}
	return chain
}

// hostSource pins the lookup host to the descriptor's host.
type hostSource struct {
	host string
	src  token.Source
}

func (h hostSource) Lookup(ctx context.Context, _ string) (token.Token, error) {
	return h.src.Lookup(ctx, h.host)
}

// NewValidator returns the credential validator for d, or nil when its
// platform has no API to check against.
func NewValidator(d Descriptor) token.Validator {
	switch d.Type {
	case TypeGitHub:
		api := d.API
		if api == "" {
			api = github.APIBaseURL(d.Host)
		}
		return github.NewTokenValidator(api)
	case TypeGitLab:
		api := d.API
		if api == "" {
			api = gitlab.APIBaseURL(d.Host)
		}
		return gitlab.NewTokenValidator(api)
	default:
		return nil
	}
}
