// Package identity defines the canonical {host, owner, repo} triple that every
// other gitws component operates on.
package identity

import (
	"fmt"
	"strings"

	"github.com/NicabarNimble/go-gitws/internal/errors"
)

// Protocols understood by RemoteURL.
const (
	ProtocolHTTPS = "https"
	ProtocolHTTP  = "http"
	ProtocolSSH   = "ssh"
	ProtocolGit   = "git"
)

// defaultPorts maps each protocol to the port its URLs imply.
var defaultPorts = map[string]string{
	ProtocolHTTPS: "443",
	ProtocolHTTP:  "80",
	ProtocolSSH:   "22",
	ProtocolGit:   "9418",
}

// IsProtocol reports whether p is one of the supported protocols.
func IsProtocol(p string) bool {
	_, ok := defaultPorts[p]
	return ok
}

// Identity identifies a remote repository independent of how it was referenced.
// Host is lowercase; Owner and Repo keep the casing they were given in.
type Identity struct {
	Host  string
	Owner string
	Repo  string
}

// New normalizes host and validates the triple.
func New(host, owner, repo string) (Identity, error) {
	id := Identity{
		Host:  NormalizeHost(host),
		Owner: owner,
		Repo:  strings.TrimSuffix(repo, ".git"),
	}
	if err := id.Validate(); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// NormalizeHost lowercases a host name and drops a trailing dot. A port is
// kept as given; see StripDefaultPort.
func NormalizeHost(host string) string {
	name, port := SplitPort(strings.ToLower(strings.TrimSpace(host)))
	name = strings.TrimSuffix(name, ".")
	if port == "" {
		return name
	}
	return name + ":" + port
}

// SplitPort separates a numeric port suffix from host.
func SplitPort(host string) (name, port string) {
	i := strings.LastIndexByte(host, ':')
	if i < 0 || i == len(host)-1 {
		return host, ""
	}
	for _, r := range host[i+1:] {
		if r < '0' || r > '9' {
			return host, ""
		}
	}
	return host[:i], host[i+1:]
}

// StripDefaultPort drops the port from host when it is the one protocol
// implies, so https://h:443 and https://h name the same host.
func StripDefaultPort(host, protocol string) string {
	name, port := SplitPort(host)
	if port != "" && port == defaultPorts[protocol] {
		return name
	}
	return host
}

// Validate checks that all three fields are usable as single path segments.
func (id Identity) Validate() error {
	for _, seg := range []struct{ name, value string }{
		{"host", id.Host},
		{"owner", id.Owner},
		{"repo", id.Repo},
	} {
		if err := ValidateSegment(seg.value); err != nil {
			return errors.Ef(errors.ErrInvalidIdentitySegment, "identity", "%s %q: %v", seg.name, seg.value, err)
		}
	}
	return nil
}

// ValidateSegment rejects values that cannot stand for exactly one directory.
func ValidateSegment(s string) error {
	switch {
	case s == "":
		return fmt.Errorf("empty segment")
	case s == "." || s == "..":
		return fmt.Errorf("relative segment")
	case strings.ContainsAny(s, "/\\\x00"):
		return fmt.Errorf("contains a path separator or NUL")
	}
	return nil
}

// String renders host/owner/repo.
func (id Identity) String() string {
	return id.Host + "/" + id.Owner + "/" + id.Repo
}

// FullName renders owner/repo, the form most hosting APIs take.
func (id Identity) FullName() string {
	return id.Owner + "/" + id.Repo
}

// RemoteURL builds the git remote locator for the identity. SSH remotes use
// the scp form unless the host carries a port, which that form cannot
// express. Unknown protocols fall back to https.
func (id Identity) RemoteURL(protocol string) string {
	switch protocol {
	case ProtocolSSH:
		if _, port := SplitPort(id.Host); port != "" {
			return fmt.Sprintf("ssh://git@%s/%s/%s.git", id.Host, id.Owner, id.Repo)
		}
		return fmt.Sprintf("git@%s:%s/%s.git", id.Host, id.Owner, id.Repo)
	case ProtocolHTTP, ProtocolGit:
		return fmt.Sprintf("%s://%s/%s/%s.git", protocol, id.Host, id.Owner, id.Repo)
	default:
		return fmt.Sprintf("https://%s/%s/%s.git", id.Host, id.Owner, id.Repo)
	}
}
