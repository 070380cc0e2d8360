// Package github is a small client for the parts of the GitHub REST API that
// gitws needs: repository lookup, forking and credential checks. It works
// against github.com and GitHub Enterprise Server.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/NicabarNimble/go-gitws/internal/errors"
	"github.com/NicabarNimble/go-gitws/internal/token"
)

const (
	// DefaultHost is the public GitHub host.
	DefaultHost = "github.com"

	apiBaseURL = "https://api.github.com"
	userAgent  = "go-gitws/1.0"
)

// APIBaseURL returns the REST endpoint for a GitHub host. Enterprise Server
// instances serve the API under /api/v3.
func APIBaseURL(host string) string {
	if host == "" || strings.EqualFold(host, DefaultHost) {
		return apiBaseURL
	}
	return "https://" + host + "/api/v3"
}

// Repository is the subset of the repository resource gitws reads.
type Repository struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	HTMLURL       string `json:"html_url"`
	CloneURL      string `json:"clone_url"`
	SSHURL        string `json:"ssh_url"`
	DefaultBranch string `json:"default_branch"`
	Fork          bool   `json:"fork"`
	Owner         struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// Client handles GitHub API operations
type Client struct {
	httpClient *http.Client
	token      string
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a GitHub API client. It does not contact the API; use
// TokenValidator to check the credential up front.
func NewClient(t token.Token, opts ...Option) (*Client, error) {
	if !token.IsValid(t) {
		return nil, token.ErrTokenInvalid
	}
	if token.IsExpired(t) {
		return nil, token.ErrTokenExpired
	}

	client := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      t.Value,
		baseURL:    apiBaseURL,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// GetRepository fetches owner/repo.
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*Repository, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/repos/%s/%s", owner, repo), nil)
	if err != nil {
		return nil, err
	}

	var r Repository
	if err := c.do(req, "get repository", &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateFork forks owner/repo. The fork lands in the authenticated user's
// account unless organization is set. GitHub creates forks asynchronously;
// the returned resource is available for browsing right away.
func (c *Client) CreateFork(ctx context.Context, owner, repo, organization string) (*Repository, error) {
	var body io.Reader
	if organization != "" {
		payload, err := json.Marshal(map[string]string{"organization": organization})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/repos/%s/%s/forks", owner, repo), body)
	if err != nil {
		return nil, err
	}

	var fork Repository
	if err := c.do(req, "create fork", &fork); err != nil {
		return nil, err
	}
	if fork.HTMLURL == "" {
		return nil, errors.NewAPIError("create fork", "response has no html_url", nil)
	}
	return &fork, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do sends req and decodes a successful JSON response into out.
func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.sendRequest(req, op)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewAPIError(op, "failed to decode response", err)
	}
	return nil
}

// sendRequest sends an HTTP request with the necessary headers
func (c *Client) sendRequest(req *http.Request, op string) (*http.Response, error) {
	setHeaders(req, c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewAPIError(op, "request failed", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, errors.NewAPIHTTPError(op, resp.StatusCode, remoteMessage(resp))
	}

	return resp, nil
}

func setHeaders(req *http.Request, tok string) {
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)
}

// remoteMessage extracts the "message" field GitHub puts in error bodies.
func remoteMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var errorResp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Message != "" {
		return errorResp.Message
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return http.StatusText(resp.StatusCode)
}
