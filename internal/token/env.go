package token

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	// EnvPrefix is the prefix used for all token environment variables
	EnvPrefix = "GIT_TOKEN_"
)

// For testing purposes
var lookupEnv = os.LookupEnv

// EnvVars reads a plain token from the first set variable in Names. The host
// argument is ignored; callers build one EnvVars per platform.
type EnvVars struct {
	Names []string
}

// Lookup implements Source.
func (e EnvVars) Lookup(_ context.Context, _ string) (Token, error) {
	for _, name := range e.Names {
		if name == "" {
			continue
		}
		if v, ok := lookupEnv(name); ok && strings.TrimSpace(v) != "" {
			return Token{Value: strings.TrimSpace(v), Source: "$" + name}, nil
		}
	}
	return Token{}, ErrTokenNotFound
}

// EnvStorage reads GIT_TOKEN_<KEY> variables. A variable holds either the raw
// token or its JSON encoding with metadata:
//
//	export GIT_TOKEN_GITHUB='ghp_abc...'
//	export GIT_TOKEN_GITLAB='{"Value":"glpat-xyz...","Scope":"api"}'
type EnvStorage struct {
	Key string
}

// NewEnvStorage creates a reader for GIT_TOKEN_<key>.
func NewEnvStorage(key string) *EnvStorage {
	return &EnvStorage{Key: key}
}

// Lookup implements Source.
func (e *EnvStorage) Lookup(_ context.Context, _ string) (Token, error) {
	envKey := FormatEnvKey(e.Key)
	data, ok := lookupEnv(envKey)
	data = strings.TrimSpace(data)
	if !ok || data == "" {
		return Token{}, ErrTokenNotFound
	}

	token := Token{Value: data}
	if strings.HasPrefix(data, "{") {
		token = Token{}
		if err := json.Unmarshal([]byte(data), &token); err != nil {
			return Token{}, fmt.Errorf("failed to unmarshal %s: %w", envKey, err)
		}
	}
	token.Source = "$" + envKey

	if !IsValid(token) {
		return Token{}, ErrTokenInvalid
	}
	if IsExpired(token) {
		return Token{}, ErrTokenExpired
	}
	return token, nil
}

// FormatEnvKey converts a token key into an environment variable name
func FormatEnvKey(key string) string {
	sanitized := strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, strings.ToUpper(key))

	return EnvPrefix + sanitized
}
