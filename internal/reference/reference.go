// Package reference turns free-form repository references into canonical
// identities.
//
// A reference can be a full URL, an scp-like locator, host/owner/repo,
// owner/repo, a bare repository name or any shape described by a user pattern:
//
//	https://github.com/owner/repo.git
//	git@github.com:owner/repo.git
//	gitlab.com/group/project
//	owner/repo
//	repo
//
// User patterns are tried first, in configuration order, followed by the
// built-in patterns above. The first pattern that yields a complete identity
// wins.
package reference

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/NicabarNimble/go-gitws/internal/errors"
	"github.com/NicabarNimble/go-gitws/internal/identity"
)

// DefaultHost is used when neither the reference nor the pattern names a host.
const DefaultHost = "github.com"

// Pattern maps a reference shape to an identity. Regex may capture the named
// groups host, owner, repo and protocol; Host, Owner and Protocol fill in
// whatever the regex leaves out.
type Pattern struct {
	Regex    string `yaml:"regex"`
	Host     string `yaml:"host,omitempty"`
	Owner    string `yaml:"owner,omitempty"`
	Protocol string `yaml:"protocol,omitempty"`
}

// Defaults completes references that do not carry every field.
type Defaults struct {
	Host     string
	Owner    string
	Protocol string
}

// Reference is a resolved identity plus the transport it should be cloned over.
type Reference struct {
	identity.Identity
	Protocol string
}

// RemoteURL returns the git locator for the reference.
func (r Reference) RemoteURL() string {
	return r.Identity.RemoteURL(r.Protocol)
}

type compiledPattern struct {
	Pattern
	re *regexp.Regexp
}

// builtinPatterns are appended after user patterns.
var builtinPatterns = []Pattern{
	{Regex: `^(?P<protocol>https?|ssh|git)://(?:[^@/]+@)?(?P<host>[^/@]+)/(?P<owner>[^/]+)/(?P<repo>[^/]+?)(?:\.git)?/?$`},
	{Regex: `^(?:[\w.-]+@)?(?P<host>[\w-]+(?:\.[\w-]+)+):(?P<owner>[^/]+)/(?P<repo>[^/]+?)(?:\.git)?$`, Protocol: identity.ProtocolSSH},
	{Regex: `^(?P<host>[\w-]+(?:\.[\w-]+)+(?::\d+)?)/(?P<owner>[^/]+)/(?P<repo>[^/]+?)(?:\.git)?$`},
	{Regex: `^(?P<owner>[^/:@\s]+)/(?P<repo>[^/:@\s]+?)(?:\.git)?$`},
	{Regex: `^(?P<repo>[^/:@\s]+?)(?:\.git)?$`},
}

// Resolver resolves references against an immutable pattern list.
type Resolver struct {
	patterns []compiledPattern
	defaults Defaults
}

// NewResolver compiles the user patterns. An invalid regex is a configuration
// error.
func NewResolver(patterns []Pattern, defaults Defaults) (*Resolver, error) {
	if defaults.Host == "" {
		defaults.Host = DefaultHost
	}
	if defaults.Protocol == "" {
		defaults.Protocol = identity.ProtocolHTTPS
	}

	r := &Resolver{defaults: defaults}
	for i, p := range append(append([]Pattern{}, patterns...), builtinPatterns...) {
		cp, err := compile(p)
		if err != nil {
			return nil, errors.Ef(errors.ErrInvalidConfig, "patterns", "pattern #%d: %v", i+1, err)
		}
		r.patterns = append(r.patterns, cp)
	}
	return r, nil
}

// Validate checks that the pattern compiles and can produce a repository name.
func (p Pattern) Validate() error {
	_, err := compile(p)
	return err
}

func compile(p Pattern) (compiledPattern, error) {
	re, err := regexp.Compile(p.Regex)
	if err != nil {
		return compiledPattern{}, fmt.Errorf("invalid regex %q: %w", p.Regex, err)
	}
	if re.SubexpIndex("repo") < 0 {
		return compiledPattern{}, fmt.Errorf("regex %q has no (?P<repo>...) group", p.Regex)
	}
	return compiledPattern{Pattern: p, re: re}, nil
}

// Resolve parses raw into a Reference. It never touches the network or the
// filesystem.
func (r *Resolver) Resolve(raw string) (Reference, error) {
	input := strings.TrimSpace(raw)
	if input == "" {
		return Reference{}, errors.Ef(errors.ErrUnresolvedReference, "resolve", "empty reference")
	}

	for _, p := range r.patterns {
		m := p.re.FindStringSubmatch(input)
		if m == nil {
			continue
		}

		repo := strings.TrimSuffix(group(p.re, m, "repo"), ".git")
		if repo == "" {
			return Reference{}, errors.Ef(errors.ErrUnresolvedReference, "resolve", "%q has no repository name", Sanitize(input))
		}

		owner := firstNonEmpty(group(p.re, m, "owner"), p.Owner, r.defaults.Owner)
		if owner == "" {
			// A bare name without a default owner cannot be completed here.
			continue
		}
		host := firstNonEmpty(group(p.re, m, "host"), p.Host, r.defaults.Host)
		protocol := normalizeProtocol(firstNonEmpty(group(p.re, m, "protocol"), p.Protocol, r.defaults.Protocol))

		id, err := identity.New(identity.StripDefaultPort(identity.NormalizeHost(host), protocol), owner, repo)
		if err != nil {
			return Reference{}, errors.E(errors.ErrInvalidIdentitySegment, "resolve", fmt.Errorf("%q: %w", Sanitize(input), err))
		}
		return Reference{Identity: id, Protocol: protocol}, nil
	}

	return Reference{}, errors.Ef(errors.ErrUnresolvedReference, "resolve", "no pattern matched %q", Sanitize(input))
}

func group(re *regexp.Regexp, m []string, name string) string {
	if i := re.SubexpIndex(name); i >= 0 && i < len(m) {
		return m[i]
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// normalizeProtocol lowercases p. Unknown schemes become https.
func normalizeProtocol(p string) string {
	p = strings.ToLower(p)
	if identity.IsProtocol(p) {
		return p
	}
	return identity.ProtocolHTTPS
}

// Sanitize removes credentials from URL-shaped references so they can be
// logged and shown in errors.
func Sanitize(raw string) string {
	if !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = nil
	return u.String()
}
