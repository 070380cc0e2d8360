package token

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hostsYAML = `github.com:
    user: octocat
    oauth_token: gho_from_gh
    git_protocol: https
git.example.com:
    user: alice
`

func TestGHHosts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.yml")
	require.NoError(t, os.WriteFile(path, []byte(hostsYAML), 0o600))
	src := GHHosts{Path: path}
	ctx := context.Background()

	got, err := src.Lookup(ctx, "github.com")
	require.NoError(t, err)
	assert.Equal(t, "gho_from_gh", got.Value)
	assert.Equal(t, path, got.Source)

	_, err = src.Lookup(ctx, "git.example.com")
	assert.ErrorIs(t, err, ErrTokenNotFound, "host without oauth_token")

	_, err = src.Lookup(ctx, "gitlab.com")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestGHHostsMissingFile(t *testing.T) {
	_, err := GHHosts{Path: filepath.Join(t.TempDir(), "nope.yml")}.Lookup(context.Background(), "github.com")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestGHHostsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.yml")
	require.NoError(t, os.WriteFile(path, []byte("github.com: [unclosed\n"), 0o600))

	_, err := GHHosts{Path: path}.Lookup(context.Background(), "github.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenNotFound)
}

func TestDefaultGHHostsPathHonorsConfigDir(t *testing.T) {
	fakeEnv(t, map[string]string{"GH_CONFIG_DIR": "/custom/gh"})
	assert.Equal(t, filepath.Join("/custom/gh", "hosts.yml"), DefaultGHHostsPath())
}
