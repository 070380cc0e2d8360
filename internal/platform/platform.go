// Package platform maps repository hosts to hosting platforms and exposes
// what each platform can do for a repository: browse and fork.
//
// Descriptors are plain configuration. A Platform is the live counterpart,
// created lazily by Registry.Open the first time a command needs it.
package platform

import (
	"context"
	"fmt"
	"net/url"

	"github.com/NicabarNimble/go-gitws/internal/errors"
	"github.com/NicabarNimble/go-gitws/internal/identity"
)

// Type selects the platform implementation for a descriptor.
type Type string

const (
	TypeGitHub  Type = "github"
	TypeGitLab  Type = "gitlab"
	TypeGeneric Type = "generic"
)

// Capability names used in CapabilityError.
const (
	CapabilityBrowse = "browse"
	CapabilityFork   = "fork"
)

// Platform is a live connection to a hosting service.
type Platform interface {
	// Name returns the descriptor name the platform was opened from.
	Name() string
	// BrowsableURL returns the web page of the repository.
	BrowsableURL(ctx context.Context, id identity.Identity) (*url.URL, error)
	// Fork forks the repository, into owner when non-empty, and returns the
	// web URL of the fork.
	Fork(ctx context.Context, id identity.Identity, owner string) (string, error)
}

// Descriptor declares one platform instance in the workspace configuration.
type Descriptor struct {
	Name     string `yaml:"-"`
	Type     Type   `yaml:"type"`
	Host     string `yaml:"host"`
	API      string `yaml:"api,omitempty"`
	TokenEnv string `yaml:"token_env,omitempty"`
}

// Validate checks the descriptor type and host.
func (d Descriptor) Validate() error {
	switch d.Type {
	case TypeGitHub, TypeGitLab, TypeGeneric:
	default:
		return errors.Ef(errors.ErrInvalidConfig, "platform "+d.Name, "unknown type %q", d.Type)
	}
	if d.Host == "" {
		return errors.Ef(errors.ErrInvalidConfig, "platform "+d.Name, "host is required")
	}
	if d.API != "" {
		u, err := url.Parse(d.API)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.Ef(errors.ErrInvalidConfig, "platform "+d.Name, "api %q is not an absolute URL", d.API)
		}
	}
	return nil
}

// DefaultDescriptors is used when the configuration declares no platforms.
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{Name: "github", Type: TypeGitHub, Host: "github.com"},
		{Name: "gitlab", Type: TypeGitLab, Host: "gitlab.com"},
	}
}

// FallbackURL is the conventional https://host/owner/repo page. Browse uses
// it for hosts no descriptor matches.
func FallbackURL(id identity.Identity) *url.URL {
	return &url.URL{
		Scheme: "https",
		Host:   id.Host,
		Path:   fmt.Sprintf("/%s/%s", id.Owner, id.Repo),
	}
}

// Generic serves hosts without a known API. It can browse but not fork.
type Generic struct {
	name string
}

// NewGeneric returns a generic platform named name.
func NewGeneric(name string) *Generic {
	return &Generic{name: name}
}

func (g *Generic) Name() string { return g.name }

func (g *Generic) BrowsableURL(_ context.Context, id identity.Identity) (*url.URL, error) {
	return FallbackURL(id), nil
}

func (g *Generic) Fork(context.Context, identity.Identity, string) (string, error) {
	return "", &errors.CapabilityError{Platform: g.name, Capability: CapabilityFork}
}
