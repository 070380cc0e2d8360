// Package rule selects a profile for an identity from an ordered rule list.
package rule

import (
	"fmt"
	"path"
	"strings"

	"github.com/NicabarNimble/go-gitws/internal/identity"
)

// Rule matches identities by glob on host, owner and repo. An empty matcher
// matches anything.
type Rule struct {
	Host    string `yaml:"host,omitempty"`
	Owner   string `yaml:"owner,omitempty"`
	Repo    string `yaml:"repo,omitempty"`
	Profile string `yaml:"profile"`
}

// Matches reports whether every non-empty matcher accepts the identity.
// A malformed glob never matches.
func (r Rule) Matches(id identity.Identity) bool {
	return match(strings.ToLower(r.Host), id.Host) &&
		match(r.Owner, id.Owner) &&
		match(r.Repo, id.Repo)
}

// Validate rejects rules without a profile and malformed globs.
func (r Rule) Validate() error {
	if r.Profile == "" {
		return fmt.Errorf("rule has no profile")
	}
	for _, p := range []string{r.Host, r.Owner, r.Repo} {
		if _, err := path.Match(p, ""); err != nil {
			return fmt.Errorf("invalid glob %q: %w", p, err)
		}
	}
	return nil
}

func match(pattern, value string) bool {
	if pattern == "" {
		return true
	}
	ok, err := path.Match(pattern, value)
	return err == nil && ok
}

// Rules are evaluated in declaration order.
type Rules []Rule

// Resolve returns the first matching rule. No match is a valid outcome.
func (rs Rules) Resolve(id identity.Identity) (Rule, bool) {
	for _, r := range rs {
		if r.Matches(id) {
			return r, true
		}
	}
	return Rule{}, false
}

// Validate checks every rule and reports the first invalid one.
func (rs Rules) Validate() error {
	for i, r := range rs {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("rule #%d: %w", i+1, err)
		}
	}
	return nil
}
