package profile

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"

	"github.com/NicabarNimble/go-gitws/internal/errors"
)

// mapStore records writes in order and rejects configured keys.
type mapStore struct {
	values map[string]string
	writes []string
	reject map[string]bool
}

func newMapStore() *mapStore {
	return &mapStore{values: map[string]string{}, reject: map[string]bool{}}
}

func (m *mapStore) Set(key, value string) error {
	if m.reject[key] {
		return fmt.Errorf("store refused %s", key)
	}
	m.values[key] = value
	m.writes = append(m.writes, key)
	return nil
}

func TestSettingsUnmarshalKeepsOrder(t *testing.T) {
	doc := `
user.name: Alice
user:
  email: alice@example.com
  signingkey: ABC
commit.gpgsign: true
url.git@github.com:.insteadOf: https://github.com/
`
	var s Settings
	require.NoError(t, yaml.Unmarshal([]byte(doc), &s))

	want := Settings{
		{Key: "user.name", Value: "Alice"},
		{Key: "user.email", Value: "alice@example.com"},
		{Key: "user.signingkey", Value: "ABC"},
		{Key: "commit.gpgsign", Value: "true"},
		{Key: "url.git@github.com:.insteadOf", Value: "https://github.com/"},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestSettingsUnmarshalRejectsSequences(t *testing.T) {
	var s Settings
	err := yaml.Unmarshal([]byte("user.name: [a, b]\n"), &s)
	assert.ErrorContains(t, err, "user.name: value must be a scalar")

	err = yaml.Unmarshal([]byte("- a\n"), &s)
	assert.ErrorContains(t, err, "profile must be a mapping")
}

func TestApplyWritesInOrder(t *testing.T) {
	store := newMapStore()
	p := Profile{Name: "work", Settings: Settings{
		{Key: "user.name", Value: "A"},
		{Key: "user.email", Value: "a@x"},
		{Key: "user.name", Value: "B"},
	}}

	require.NoError(t, Apply(p, store))
	assert.Equal(t, []string{"user.name", "user.email", "user.name"}, store.writes)
	assert.Equal(t, "B", store.values["user.name"])
}

func TestApplyStopsAtRejectedKey(t *testing.T) {
	tests := []struct {
		name   string
		reject string
		bad    string
	}{
		{name: "invalid syntax", bad: "nodot"},
		{name: "store refuses", reject: "core.hooksPath"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMapStore()
			failing := "core.hooksPath"
			if tt.bad != "" {
				failing = tt.bad
			}
			if tt.reject != "" {
				store.reject[tt.reject] = true
			}
			p := Profile{Name: "work", Settings: Settings{
				{Key: "user.name", Value: "A"},
				{Key: failing, Value: "x"},
				{Key: "user.email", Value: "a@x"},
			}}

			err := Apply(p, store)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrProfileApply))

			var applyErr *ApplyError
			require.True(t, errors.As(err, &applyErr))
			assert.Equal(t, "work", applyErr.Profile)
			assert.Equal(t, failing, applyErr.Key)
			assert.Equal(t, 1, applyErr.Applied)
			assert.Equal(t, map[string]string{"user.name": "A"}, store.values)
		})
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		key     string
		want    Key
		wantErr bool
	}{
		{key: "user.name", want: Key{Section: "user", Name: "name"}},
		{key: "remote.origin.url", want: Key{Section: "remote", Subsection: "origin", Name: "url"}},
		{key: "url.git@github.com:.insteadOf", want: Key{Section: "url", Subsection: "git@github.com:", Name: "insteadOf"}},
		{key: "user", wantErr: true},
		{key: ".name", wantErr: true},
		{key: "user.", wantErr: true},
		{key: "us er.name", wantErr: true},
		{key: "user.1name", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := ParseKey(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(
		Profile{Name: "work", Settings: Settings{{Key: "user.name", Value: "W"}}},
		Profile{Name: "personal"},
		Profile{Name: "work", Settings: Settings{{Key: "user.name", Value: "W2"}}},
	)

	p, ok := r.Resolve("work")
	require.True(t, ok)
	assert.Equal(t, "W2", p.Settings[0].Value)
	assert.Equal(t, []string{"work", "personal"}, r.names)

	_, ok = r.Resolve("missing")
	assert.False(t, ok)

	assert.NoError(t, r.Validate())
	bad := NewRegistry(Profile{Name: "bad", Settings: Settings{{Key: "nodot"}}})
	assert.ErrorContains(t, bad.Validate(), "profile bad")
}

func TestApplyIsIdempotent(t *testing.T) {
	key := rapid.SampledFrom([]string{"user.name", "user.email", "core.autocrlf", "commit.gpgsign", "remote.origin.prune"})

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(t, "n")
		var settings Settings
		for i := 0; i < n; i++ {
			settings = append(settings, Setting{
				Key:   key.Draw(t, "key"),
				Value: rapid.StringMatching(`[a-z0-9@.]{0,6}`).Draw(t, "value"),
			})
		}
		p := Profile{Name: "p", Settings: settings}

		once := newMapStore()
		twice := newMapStore()
		if err := Apply(p, once); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 2; i++ {
			if err := Apply(p, twice); err != nil {
				t.Fatal(err)
			}
		}
		if diff := cmp.Diff(once.values, twice.values); diff != "" {
			t.Fatalf("state differs (-once +twice):\n%s", diff)
		}
	})
}
