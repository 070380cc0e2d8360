package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/NicabarNimble/go-gitws/internal/errors"
	"github.com/NicabarNimble/go-gitws/internal/token"
)

// Scopes a classic token needs for forking.
const (
	ScopeRepo       = "repo"
	ScopePublicRepo = "public_repo"
)

// TokenValidator implements token.Validator for GitHub tokens
type TokenValidator struct {
	baseURL    string
	httpClient *http.Client
}

// NewTokenValidator creates a validator for the API at baseURL. An empty
// baseURL means api.github.com.
func NewTokenValidator(baseURL string) *TokenValidator {
	if baseURL == "" {
		baseURL = apiBaseURL
	}
	return &TokenValidator{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Validate checks that the token is accepted by GitHub and, for classic
// tokens, that it carries a repository scope. Scope and ExpiresAt are
// filled in from the response headers.
func (v *TokenValidator) Validate(ctx context.Context, t *token.Token) error {
	if t.Value == "" {
		return token.ErrTokenInvalid
	}

	if token.IsExpired(*t) {
		return token.ErrTokenExpired
	}

	if err := v.verifyToken(ctx, t); err != nil {
		return fmt.Errorf("token verification failed: %w", err)
	}

	// Fine-grained tokens report no OAuth scopes.
	if t.Scope == "" {
		return nil
	}
	if err := validateScopes(t.Scope); err != nil {
		return fmt.Errorf("invalid token scope: %w", err)
	}
	return nil
}

// validateScopes accepts either repo or public_repo.
func validateScopes(scope string) error {
	for _, s := range strings.Split(scope, ",") {
		switch strings.TrimSpace(s) {
		case ScopeRepo, ScopePublicRepo:
			return nil
		}
	}
	return &token.ScopeError{
		Missing: []string{ScopeRepo},
		Status:  map[string]bool{ScopeRepo: false},
	}
}

// verifyToken makes a test API call to verify the token and get its scopes
func (v *TokenValidator) verifyToken(ctx context.Context, t *token.Token) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/user", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	setHeaders(req, t.Value)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.NewAPIHTTPError("verify token", resp.StatusCode, remoteMessage(resp))
	}

	t.Scope = resp.Header.Get("X-OAuth-Scopes")

	if expStr := resp.Header.Get("GitHub-Authentication-Token-Expiration"); expStr != "" {
		// GitHub returns time in format "2025-03-04 02:13:04 UTC"
		expTime, err := time.Parse("2006-01-02 15:04:05 MST", expStr)
		if err != nil {
			return fmt.Errorf("failed to parse token expiration: %w", err)
		}
		t.ExpiresAt = expTime
	}

	return nil
}
