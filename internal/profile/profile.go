// Package profile holds named batches of git configuration applied to a
// repository right after it is cloned.
package profile

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/NicabarNimble/go-gitws/internal/errors"
)

// Setting is one git configuration key and its value.
type Setting struct {
	Key   string
	Value string
}

// Settings keep the order they were declared in.
type Settings []Setting

// UnmarshalYAML reads a mapping in document order. Nested mappings are
// flattened with dots, so `user: {name: x}` and `user.name: x` are equivalent.
func (s *Settings) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: profile must be a mapping", node.Line)
	}
	var out Settings
	if err := flatten(node, "", &out); err != nil {
		return err
	}
	*s = out
	return nil
}

func flatten(node *yaml.Node, prefix string, out *Settings) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if prefix != "" {
			key = prefix + "." + key
		}
		val := node.Content[i+1]
		switch val.Kind {
		case yaml.MappingNode:
			if err := flatten(val, key, out); err != nil {
				return err
			}
		case yaml.ScalarNode:
			*out = append(*out, Setting{Key: key, Value: val.Value})
		default:
			return fmt.Errorf("line %d: %s: value must be a scalar", val.Line, key)
		}
	}
	return nil
}

// Profile is a named set of settings.
type Profile struct {
	Name     string
	Settings Settings
}

// ConfigStore is a mutable repository configuration.
type ConfigStore interface {
	Set(key, value string) error
}

// ApplyError reports the setting a store rejected and how many were
// written before it.
type ApplyError struct {
	Profile string
	Key     string
	Applied int
	Err     error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("profile %s: key %q rejected after %d applied setting(s): %v", e.Profile, e.Key, e.Applied, e.Err)
}

func (e *ApplyError) Unwrap() []error {
	return []error{errors.ErrProfileApply, e.Err}
}

// Apply writes every setting of p to target in declaration order. It stops at
// the first rejected key; earlier settings stay written.
func Apply(p Profile, target ConfigStore) error {
	for i, s := range p.Settings {
		if err := ValidateKey(s.Key); err != nil {
			return &ApplyError{Profile: p.Name, Key: s.Key, Applied: i, Err: err}
		}
		if err := target.Set(s.Key, s.Value); err != nil {
			return &ApplyError{Profile: p.Name, Key: s.Key, Applied: i, Err: err}
		}
	}
	return nil
}

var (
	sectionRe = regexp.MustCompile(`^[A-Za-z0-9.-]+$`)
	nameRe    = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)
)

// Key is a parsed git configuration key.
type Key struct {
	Section    string
	Subsection string
	Name       string
}

// ParseKey splits section[.subsection].name the way git does: the subsection
// is everything between the first and the last dot.
func ParseKey(key string) (Key, error) {
	first := strings.Index(key, ".")
	last := strings.LastIndex(key, ".")
	if first <= 0 || last == len(key)-1 {
		return Key{}, fmt.Errorf("key %q does not contain a section and a name", key)
	}
	k := Key{Section: key[:first], Name: key[last+1:]}
	if last > first {
		k.Subsection = key[first+1 : last]
	}
	if !sectionRe.MatchString(k.Section) {
		return Key{}, fmt.Errorf("key %q has an invalid section", key)
	}
	if !nameRe.MatchString(k.Name) {
		return Key{}, fmt.Errorf("key %q has an invalid name", key)
	}
	if strings.ContainsAny(k.Subsection, "\n\x00") {
		return Key{}, fmt.Errorf("key %q has an invalid subsection", key)
	}
	return k, nil
}

// ValidateKey reports whether key is valid git configuration syntax.
func ValidateKey(key string) error {
	_, err := ParseKey(key)
	return err
}

// Registry resolves profile names.
type Registry struct {
	byName map[string]Profile
	names  []string
}

// NewRegistry indexes profiles; later duplicates replace earlier ones.
func NewRegistry(profiles ...Profile) *Registry {
	r := &Registry{byName: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		if _, ok := r.byName[p.Name]; !ok {
			r.names = append(r.names, p.Name)
		}
		r.byName[p.Name] = p
	}
	return r
}

// Resolve looks a profile up by name.
func (r *Registry) Resolve(name string) (Profile, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Validate checks every key of every profile.
func (r *Registry) Validate() error {
	for _, name := range r.names {
		for _, s := range r.byName[name].Settings {
			if err := ValidateKey(s.Key); err != nil {
				return fmt.Errorf("profile %s: %w", name, err)
			}
		}
	}
	return nil
}
