package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/patrickmn/go-cache"

	"github.com/NicabarNimble/go-gitws/internal/errors"
	"github.com/NicabarNimble/go-gitws/internal/identity"
	"github.com/NicabarNimble/go-gitws/internal/token"
)

// Opener creates a platform from its descriptor and credential.
type Opener func(ctx context.Context, d Descriptor, tok token.Token) (Platform, error)

// Registry resolves descriptors by host and opens platforms on demand.
type Registry struct {
	descriptors []Descriptor
	openers     map[Type]Opener
	credentials func(Descriptor) token.Source

	mu        sync.Mutex
	instances *cache.Cache
}

// Option configures a Registry.
type Option func(*Registry)

// WithOpener replaces the opener for a platform type.
func WithOpener(t Type, fn Opener) Option {
	return func(r *Registry) { r.openers[t] = fn }
}

// WithCredentials replaces the credential lookup used by Open.
func WithCredentials(fn func(Descriptor) token.Source) Option {
	return func(r *Registry) { r.credentials = fn }
}

// NewRegistry validates descriptors and keeps their order. With no
// descriptors the defaults for github.com and gitlab.com are used.
func NewRegistry(descriptors []Descriptor, opts ...Option) (*Registry, error) {
	if len(descriptors) == 0 {
		descriptors = DefaultDescriptors()
	}

	seen := make(map[string]bool, len(descriptors))
	normalized := make([]Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if seen[d.Name] {
			return nil, errors.Ef(errors.ErrInvalidConfig, "platform "+d.Name, "declared twice")
		}
		seen[d.Name] = true
		d.Host = identity.NormalizeHost(d.Host)
		normalized = append(normalized, d)
	}

	r := &Registry{
		descriptors: normalized,
		openers: map[Type]Opener{
			TypeGitHub: openGitHub,
			TypeGitLab: openGitLab,
		},
		credentials: Credentials,
		instances:   cache.New(cache.NoExpiration, 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Descriptors returns the registered descriptors in order.
func (r *Registry) Descriptors() []Descriptor {
	return append([]Descriptor(nil), r.descriptors...)
}

// Find returns the first descriptor serving the identity's host.
func (r *Registry) Find(id identity.Identity) (Descriptor, bool) {
	return r.FindHost(id.Host)
}

// FindHost is Find for a bare host name.
func (r *Registry) FindHost(host string) (Descriptor, bool) {
	host = identity.NormalizeHost(host)
	for _, d := range r.descriptors {
		if d.Host == host {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	for _, d := range r.descriptors {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

type instance struct {
	platform Platform
	err      error
}

// Open returns the platform for d, creating it on first use. The outcome,
// failure included, is remembered for the lifetime of the registry.
func (r *Registry) Open(ctx context.Context, d Descriptor) (Platform, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.instances.Get(d.Name); ok {
		inst := v.(instance)
		return inst.platform, inst.err
	}

	p, err := r.open(ctx, d)
	r.instances.Set(d.Name, instance{platform: p, err: err}, cache.NoExpiration)
	return p, err
}

func (r *Registry) open(ctx context.Context, d Descriptor) (Platform, error) {
	op := fmt.Sprintf("open platform %s", d.Name)
	if d.Type == TypeGeneric {
		return NewGeneric(d.Name), nil
	}

	opener, ok := r.openers[d.Type]
	if !ok {
		return nil, errors.Ef(errors.ErrPlatformInit, op, "no implementation for type %q", d.Type)
	}

	tok, err := r.credentials(d).Lookup(ctx, d.Host)
	if err != nil {
		return nil, errors.Ef(errors.ErrPlatformInit, op, "no usable token for %s: %w", d.Host, err)
	}

	p, err := opener(ctx, d, tok)
	if err != nil {
		return nil, errors.E(errors.ErrPlatformInit, op, err)
	}
	return p, nil
}
