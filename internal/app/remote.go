package app

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/NicabarNimble/go-gitws/internal/errors"
	"github.com/NicabarNimble/go-gitws/internal/platform"
	"github.com/NicabarNimble/go-gitws/internal/token"
)

// BrowseURL returns the web page of the referenced repository. Hosts no
// platform serves get the conventional https://host/owner/repo page.
func (a *App) BrowseURL(ctx context.Context, raw string) (*url.URL, error) {
	ref, err := a.resolver.Resolve(raw)
	if err != nil {
		return nil, err
	}

	d, ok := a.platforms.Find(ref.Identity)
	if !ok {
		a.logger.Debug("no platform for host, using fallback URL", slog.String("host", ref.Host))
		return platform.FallbackURL(ref.Identity), nil
	}
	p, err := a.platforms.Open(ctx, d)
	if err != nil {
		return nil, err
	}
	return p.BrowsableURL(ctx, ref.Identity)
}

// Browse opens the web page of the referenced repository and returns it.
func (a *App) Browse(ctx context.Context, raw string) (*url.URL, error) {
	u, err := a.BrowseURL(ctx, raw)
	if err != nil {
		return nil, err
	}
	if err := a.browser.OpenURL(u); err != nil {
		return u, err
	}
	return u, nil
}

// Fork forks the referenced repository into owner, or into the
// authenticated account when owner is empty, and returns the fork's URL.
// Unlike browsing there is no fallback: a host without a platform fails
// with ErrNoMatchingPlatform.
func (a *App) Fork(ctx context.Context, raw, owner string) (string, error) {
	ref, err := a.resolver.Resolve(raw)
	if err != nil {
		return "", err
	}

	d, ok := a.platforms.Find(ref.Identity)
	if !ok {
		return "", errors.Ef(errors.ErrNoMatchingPlatform, "fork "+raw, "no platform is configured for %s", ref.Host)
	}
	p, err := a.platforms.Open(ctx, d)
	if err != nil {
		return "", err
	}

	forked, err := p.Fork(ctx, ref.Identity, owner)
	if err != nil {
		return "", err
	}
	a.logger.Info("forked repository",
		slog.String("source", ref.Identity.String()),
		slog.String("fork", forked),
		slog.String("platform", p.Name()))
	return forked, nil
}

// AuthStatus describes a validated credential.
type AuthStatus struct {
	Platform string
	Host     string
	Source   string
	// Detected is the provider the token's format suggests, if any.
	Detected  token.Provider
	Scope     string
	ExpiresAt time.Time
}

// CheckAuth finds the credential for host, or for the default host when
// host is empty, and validates it against the platform API.
func (a *App) CheckAuth(ctx context.Context, host string) (AuthStatus, error) {
	if host == "" {
		host = a.cfg.Defaults.Host
	}
	op := "auth check " + host

	d, ok := a.platforms.FindHost(host)
	if !ok {
		return AuthStatus{}, errors.Ef(errors.ErrNoMatchingPlatform, op, "no platform is configured for %s", host)
	}
	status := AuthStatus{Platform: d.Name, Host: d.Host}

	validator := platform.NewValidator(d)
	if validator == nil {
		return status, &errors.CapabilityError{Platform: d.Name, Capability: "credential validation"}
	}

	tok, err := a.credentials(d).Lookup(ctx, d.Host)
	if err != nil {
		return status, errors.E(errors.ErrPlatformInit, op, err)
	}
	status.Source = tok.Source
	status.Detected = token.DetectProvider(tok.Value)
	if !status.Detected.Matches(string(d.Type)) {
		a.logger.Warn("token format does not match platform",
			slog.String("platform", d.Name),
			slog.String("token_provider", string(status.Detected)))
	}

	if err := validator.Validate(ctx, &tok); err != nil {
		switch {
		case errors.IsUnauthorized(err):
			return status, errors.Ef(errors.ErrPlatformAPI, op, "token from %s was rejected: %w", tok.Source, err)
		case errors.IsRateLimitExceeded(err):
			return status, errors.Ef(errors.ErrPlatformAPI, op, "rate limited by %s, try again later: %w", d.Host, err)
		}
		return status, errors.New(op, err)
	}
	status.Scope = tok.Scope
	status.ExpiresAt = tok.ExpiresAt
	return status, nil
}
