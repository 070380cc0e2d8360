package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/NicabarNimble/go-gitws/internal/errors"
	"github.com/NicabarNimble/go-gitws/internal/token"
)

// TokenValidator implements token.Validator for GitLab tokens
type TokenValidator struct {
	baseURL    string
	httpClient *http.Client
}

// NewTokenValidator creates a validator for the API at baseURL. An empty
// baseURL means gitlab.com.
func NewTokenValidator(baseURL string) *TokenValidator {
	if baseURL == "" {
		baseURL = apiBaseURL
	}
	return &TokenValidator{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Validate checks if a token is valid for GitLab operations
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
	return nil
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

	scopes := resp.Header.Get("X-Gitlab-Scopes")
	if scopes == "" {
		scopes = "api" // Default scope for personal access tokens
	}

	// Comma separated in the header, space separated on the token
	scopesList := strings.Split(scopes, ",")
	for i, s := range scopesList {
		scopesList[i] = strings.TrimSpace(s)
	}
	t.Scope = strings.Join(scopesList, " ")

	return nil
}
