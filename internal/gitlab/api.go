// Package gitlab talks to the GitLab REST API (v4) for project lookup,
// forking and credential checks.
package gitlab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NicabarNimble/go-gitws/internal/errors"
	"github.com/NicabarNimble/go-gitws/internal/token"
)

const (
	// DefaultHost is the public GitLab host.
	DefaultHost = "gitlab.com"

	apiBaseURL = "https://gitlab.com/api/v4"
	userAgent  = "go-gitws"
)

// APIBaseURL returns the v4 endpoint for a GitLab host.
func APIBaseURL(host string) string {
	if host == "" {
		return apiBaseURL
	}
	return "https://" + host + "/api/v4"
}

// Project is the subset of the project resource gitws reads.
type Project struct {
	ID                int    `json:"id"`
	Path              string `json:"path"`
	PathWithNamespace string `json:"path_with_namespace"`
	WebURL            string `json:"web_url"`
	HTTPURLToRepo     string `json:"http_url_to_repo"`
	SSHURLToRepo      string `json:"ssh_url_to_repo"`
}

// Client handles GitLab API operations
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

// NewClient creates a GitLab API client without contacting the server.
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

// ProjectID encodes a namespace path as a URL-safe project id.
func ProjectID(owner, repo string) string {
	return url.PathEscape(owner + "/" + repo)
}

// GetProject fetches the project at owner/repo. GitLab answers with the
// canonical path and web URL, which may differ from the requested casing.
func (c *Client) GetProject(ctx context.Context, owner, repo string) (*Project, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/projects/"+ProjectID(owner, repo), nil)
	if err != nil {
		return nil, err
	}

	var p Project
	if err := c.do(req, "get project", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Fork forks owner/repo into namespace, or into the token owner's
// namespace when namespace is empty.
func (c *Client) Fork(ctx context.Context, owner, repo, namespace string) (*Project, error) {
	var body io.Reader
	if namespace != "" {
		payload, err := json.Marshal(map[string]string{"namespace_path": namespace})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/projects/"+ProjectID(owner, repo)+"/fork", body)
	if err != nil {
		return nil, err
	}

	var fork Project
	if err := c.do(req, "fork project", &fork); err != nil {
		return nil, err
	}
	if fork.WebURL == "" {
		return nil, errors.NewAPIError("fork project", "response has no web_url", nil)
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

func (c *Client) do(req *http.Request, op string, out any) error {
	setHeaders(req, c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewAPIError(op, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errors.NewAPIHTTPError(op, resp.StatusCode, remoteMessage(resp))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewAPIError(op, "failed to decode response", err)
	}
	return nil
}

func setHeaders(req *http.Request, tok string) {
	req.Header.Set("PRIVATE-TOKEN", tok)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
}

// remoteMessage reads GitLab's error body. Depending on the endpoint the
// text is under "message" (string or object) or "error".
func remoteMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var errorResp struct {
		Message any    `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &errorResp); err == nil {
		switch m := errorResp.Message.(type) {
		case string:
			if m != "" {
				return m
			}
		case nil:
		default:
			if b, err := json.Marshal(m); err == nil {
				return string(b)
			}
		}
		if errorResp.Error != "" {
			return errorResp.Error
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return http.StatusText(resp.StatusCode)
}
