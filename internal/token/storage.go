// Package token looks up the bearer credentials platform clients need.
//
// # Lookup Strategy
//
// Credentials are read, never written. A Chain tries its sources in order and
// returns the first token found for a host:
//
//  1. Environment variables named by the caller (GH_TOKEN, GITLAB_TOKEN, or a
//     per-platform token_env from the workspace configuration)
//  2. GIT_TOKEN_<PROVIDER> variables (EnvStorage), either a plain token or the
//     JSON form {"Value":"...","Scope":"..."}
//  3. The gh CLI hosts file ($XDG_CONFIG_HOME/gh/hosts.yml)
//
// MemoryStorage serves tests and callers that already hold a token.
package token

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Common errors that may be returned by token operations
var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenInvalid  = errors.New("token is invalid")
	ErrTokenExpired  = errors.New("token has expired")
)

// ScopeError reports a token that lacks scopes an operation requires.
type ScopeError struct {
	Missing []string        // List of missing required scopes
	Status  map[string]bool // Status of all required scopes (present/missing)
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("missing required scopes: %s", strings.Join(e.Missing, ", "))
}

// Token represents an authentication token with metadata
type Token struct {
	// Value is the actual token string
	Value string `json:"Value"`

	// ExpiresAt indicates when the token will expire
	// Zero value means the token does not expire
	ExpiresAt time.Time `json:"ExpiresAt"`

	// Scope defines the permissions granted to this token
	Scope string `json:"Scope"`

	// Source names where the token was found, for diagnostics
	Source string `json:"-"`
}

// NewToken creates a new token with validation
func NewToken(value string, expiresAt time.Time, scope string) (*Token, error) {
	t := &Token{
		Value:     value,
		ExpiresAt: expiresAt,
		Scope:     scope,
	}
	if !IsValid(*t) {
		return nil, ErrTokenInvalid
	}
	return t, nil
}

// Source looks up a token for a host. It returns ErrTokenNotFound when it has
// none.
type Source interface {
	Lookup(ctx context.Context, host string) (Token, error)
}

// Validator provides methods to validate tokens
type Validator interface {
	// Validate checks if a token is valid
	// Returns nil if the token is valid, otherwise returns an error
	// explaining why the token is invalid
	Validate(ctx context.Context, token *Token) error
}

// IsExpired checks if a token has expired
func IsExpired(token Token) bool {
	if token.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(token.ExpiresAt)
}

// IsValid performs basic validation of a token
func IsValid(token Token) bool {
	return token.Value != ""
}

// Chain tries each source in order.
type Chain []Source

// Lookup returns the first usable token. Expired tokens are skipped; if every
// candidate was expired, ErrTokenExpired is returned.
func (c Chain) Lookup(ctx context.Context, host string) (Token, error) {
	expired := false
	for _, src := range c {
		t, err := src.Lookup(ctx, host)
		switch {
		case err == nil:
			return t, nil
		case errors.Is(err, ErrTokenNotFound):
			continue
		case errors.Is(err, ErrTokenExpired):
			expired = true
			continue
		default:
			return Token{}, err
		}
	}
	if expired {
		return Token{}, ErrTokenExpired
	}
	return Token{}, ErrTokenNotFound
}
