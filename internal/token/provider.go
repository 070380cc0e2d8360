package token

import "strings"

// Provider names the platform type that issued a token. Its values match
// the platform type names used in gitws.yaml.
type Provider string

const (
	ProviderGitHub Provider = "github"
	ProviderGitLab Provider = "gitlab"
)

// knownPrefixes maps the documented token prefixes to their issuer.
var knownPrefixes = []struct {
	prefix   string
	provider Provider
}{
	{"github_pat_", ProviderGitHub}, // fine-grained personal access token
	{"ghp_", ProviderGitHub},        // classic personal access token
	{"gho_", ProviderGitHub},        // OAuth
	{"ghu_", ProviderGitHub},        // GitHub App user-to-server
	{"ghs_", ProviderGitHub},        // GitHub App installation
	{"glpat-", ProviderGitLab},      // personal, project or group access token
	{"gloas-", ProviderGitLab},      // OAuth application secret
	{"gldt-", ProviderGitLab},       // deploy token
}

// DetectProvider guesses the issuer of a token from its prefix. It returns
// the empty Provider for formats it does not know, such as legacy 40-char
// hex tokens.
func DetectProvider(value string) Provider {
	for _, k := range knownPrefixes {
		if strings.HasPrefix(value, k.prefix) {
			return k.provider
		}
	}
	return ""
}

// Matches reports whether a token detected as p may belong to a platform of
// type platformType. Undetected tokens match everything.
func (p Provider) Matches(platformType string) bool {
	return p == "" || string(p) == platformType
}
