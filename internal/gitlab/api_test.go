package gitlab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NicabarNimble/go-gitws/internal/errors"
	"github.com/NicabarNimble/go-gitws/internal/token"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(token.Token{Value: "glpat-test"}, WithBaseURL(server.URL))
	require.NoError(t, err)
	return client
}

func TestAPIBaseURL(t *testing.T) {
	assert.Equal(t, "https://gitlab.com/api/v4", APIBaseURL(""))
	assert.Equal(t, "https://gitlab.example.com/api/v4", APIBaseURL("gitlab.example.com"))
}

func TestProjectID(t *testing.T) {
	assert.Equal(t, "group%2Fproject", ProjectID("group", "project"))
	assert.Equal(t, "group%2Fsub%2Fproject", ProjectID("group/sub", "project"))
}

func TestGetProject(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "glpat-test", r.Header.Get("PRIVATE-TOKEN"))
		if r.URL.EscapedPath() != "/projects/Group%2FProject" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"404 Project Not Found"}`))
			return
		}
		w.Write([]byte(`{"id": 42, "path_with_namespace": "group/project", "web_url": "https://gitlab.com/group/project"}`))
	})

	p, err := client.GetProject(context.Background(), "Group", "Project")
	require.NoError(t, err)
	assert.Equal(t, 42, p.ID)
	assert.Equal(t, "https://gitlab.com/group/project", p.WebURL)

	_, err = client.GetProject(context.Background(), "nobody", "nothing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "404 Project Not Found")
}

func TestFork(t *testing.T) {
	tests := []struct {
		name          string
		namespace     string
		status        int
		response      string
		wantNamespace string
		wantURL       string
		errContains   string
	}{
		{
			name:     "fork into own namespace",
			status:   http.StatusCreated,
			response: `{"id": 7, "web_url": "https://gitlab.com/me/project"}`,
			wantURL:  "https://gitlab.com/me/project",
		},
		{
			name:          "fork into group",
			namespace:     "team",
			status:        http.StatusCreated,
			response:      `{"id": 8, "web_url": "https://gitlab.com/team/project"}`,
			wantNamespace: "team",
			wantURL:       "https://gitlab.com/team/project",
		},
		{
			name:        "conflict with structured message",
			status:      http.StatusConflict,
			response:    `{"message": {"name": ["has already been taken"]}}`,
			errContains: "has already been taken",
		},
		{
			name:        "forbidden with error field",
			status:      http.StatusForbidden,
			response:    `{"error": "insufficient_scope"}`,
			errContains: "insufficient_scope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/projects/group%2Fproject/fork", r.URL.EscapedPath())

				var body map[string]string
				if r.ContentLength > 0 {
					assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				}
				assert.Equal(t, tt.wantNamespace, body["namespace_path"])

				w.WriteHeader(tt.status)
				w.Write([]byte(tt.response))
			})

			fork, err := client.Fork(context.Background(), "group", "project", tt.namespace)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.ErrorIs(t, err, errors.ErrPlatformAPI)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, fork.WebURL)
		})
	}
}
