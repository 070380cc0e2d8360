package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NicabarNimble/go-gitws/internal/profile"
)

// runCommand executes a command in the specified directory
func runCommand(t *testing.T, dir string, command string, args ...string) string {
	t.Helper()
	cmd := exec.Command(command, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test",
		"GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test",
		"GIT_COMMITTER_EMAIL=test@example.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "%s %v: %s", command, args, out)
	return strings.TrimSpace(string(out))
}

// setupSourceRepo creates a repository with one commit to clone from.
func setupSourceRepo(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	// Ignore the developer's global and system configuration.
	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")

	dir := filepath.Join(t.TempDir(), "source")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	runCommand(t, dir, "git", "init", "--initial-branch=main")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# source\n"), 0o644))
	runCommand(t, dir, "git", "add", "README.md")
	runCommand(t, dir, "git", "commit", "-m", "Initial commit")
	return dir
}

func TestIntegrationClone(t *testing.T) {
	work := profile.Profile{
		Name: "work",
		Settings: profile.Settings{
			{Key: "user.email", Value: "alice@corp.example"},
			{Key: "user.name", Value: "Alice"},
		},
	}

	strategies := []struct {
		name     string
		strategy Strategy
	}{
		{name: "cli", strategy: &CLIStrategy{}},
		{name: "embedded", strategy: &EmbeddedStrategy{}},
	}

	for _, tt := range strategies {
		t.Run(tt.name, func(t *testing.T) {
			source := setupSourceRepo(t)
			target := filepath.Join(t.TempDir(), "github.com", "alice", "source")

			repo, err := tt.strategy.Clone(context.Background(), source, target, CloneOptions{})
			require.NoError(t, err)
			assert.Equal(t, target, repo.Workdir())
			assert.FileExists(t, filepath.Join(target, "README.md"))

			require.NoError(t, profile.Apply(work, repo.Config()))
			require.NoError(t, profile.Apply(work, repo.Config()))

			assert.Equal(t, "alice@corp.example", runCommand(t, target, "git", "config", "--local", "--get", "user.email"))
			assert.Equal(t, "Alice", runCommand(t, target, "git", "config", "--local", "--get", "user.name"))
			assert.Equal(t, "alice@corp.example", runCommand(t, target, "git", "config", "--local", "--get-all", "user.email"))
		})
	}
}
