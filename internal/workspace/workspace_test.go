package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/NicabarNimble/go-gitws/internal/errors"
	"github.com/NicabarNimble/go-gitws/internal/identity"
)

func TestResolve(t *testing.T) {
	root := Root{Path: filepath.FromSlash("/ws")}

	tests := []struct {
		name    string
		layout  string
		id      identity.Identity
		want    string
		wantErr bool
	}{
		{
			name: "default layout",
			id:   identity.Identity{Host: "github.com", Owner: "Octo", Repo: "hello"},
			want: filepath.FromSlash("/ws/github.com/Octo/hello"),
		},
		{
			name:   "custom layout",
			layout: "src/{host}/{owner}-{repo}",
			id:     identity.Identity{Host: "gitlab.com", Owner: "g", Repo: "p"},
			want:   filepath.FromSlash("/ws/src/gitlab.com/g-p"),
		},
		{
			name:    "dot-dot owner",
			id:      identity.Identity{Host: "github.com", Owner: "..", Repo: "x"},
			wantErr: true,
		},
		{
			name:    "separator in repo",
			id:      identity.Identity{Host: "github.com", Owner: "a", Repo: "../../etc"},
			wantErr: true,
		},
		{
			name:    "empty host",
			id:      identity.Identity{Owner: "a", Repo: "b"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := root
			r.Layout = tt.layout
			got, err := r.Resolve(tt.id)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrInvalidIdentitySegment))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveIsInjective(t *testing.T) {
	root := Root{Path: "/ws"}
	segment := rapid.StringMatching(`[A-Za-z0-9][A-Za-z0-9._-]{0,10}`)

	rapid.Check(t, func(t *rapid.T) {
		a := identity.Identity{Host: segment.Draw(t, "host1"), Owner: segment.Draw(t, "owner1"), Repo: segment.Draw(t, "repo1")}
		b := identity.Identity{Host: segment.Draw(t, "host2"), Owner: segment.Draw(t, "owner2"), Repo: segment.Draw(t, "repo2")}

		pa, errA := root.Resolve(a)
		pb, errB := root.Resolve(b)
		if errA != nil || errB != nil {
			t.Fatalf("unexpected error: %v / %v", errA, errB)
		}
		if a != b && pa == pb {
			t.Fatalf("%v and %v both map to %s", a, b, pa)
		}
	})
}

func TestValidateLayout(t *testing.T) {
	assert.NoError(t, ValidateLayout(""))
	assert.NoError(t, ValidateLayout(DefaultLayout))
	assert.Error(t, ValidateLayout("{owner}/{repo}"))
	assert.Error(t, ValidateLayout("{host}/{owner}/{repo}/{repo}"))
	assert.Error(t, ValidateLayout("/abs/{host}/{owner}/{repo}"))
	assert.NoError(t, ValidateLayout("src/{host}/{owner}/{repo}"))

	// a-b/c and a/b-c would share {host}/a-b-c.
	assert.Error(t, ValidateLayout("{host}/{owner}-{repo}"))
	assert.Error(t, ValidateLayout("{host}/{owner}/{repo}.git"))
	assert.Error(t, ValidateLayout("{host}{owner}/{repo}"))
}

func TestFind(t *testing.T) {
	t.Run("override wins", func(t *testing.T) {
		dir := t.TempDir()
		got, err := Find(FindOptions{Override: dir, WorkingDir: t.TempDir()})
		require.NoError(t, err)
		assert.Equal(t, dir, got)
	})

	t.Run("override must exist", func(t *testing.T) {
		_, err := Find(FindOptions{Override: filepath.Join(t.TempDir(), "missing")})
		assert.Error(t, err)
	})

	t.Run("nearest marker", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, MarkerFile), []byte("{}\n"), 0o644))
		nested := filepath.Join(root, "github.com", "a", "b")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		got, err := Find(FindOptions{WorkingDir: nested, HomeDir: t.TempDir()})
		require.NoError(t, err)
		assert.Equal(t, root, got)
	})

	t.Run("home fallback is created", func(t *testing.T) {
		home := t.TempDir()
		got, err := Find(FindOptions{WorkingDir: t.TempDir(), HomeDir: home})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, DefaultDirName), got)
		assert.DirExists(t, got)
	})
}
