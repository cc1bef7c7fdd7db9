package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repos.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ValidSource(t *testing.T) {
	path := writeRegistry(t, `[
		{"name": "dotfiles", "path": "/home/user/dotfiles"},
		{"name": "webapp", "path": "/home/user/src/webapp"}
	]`)

	r := Load(path)

	assert.Equal(t, 2, r.Len())

	loc, ok := r.Lookup("dotfiles")
	assert.True(t, ok)
	assert.Equal(t, "/home/user/dotfiles", loc)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestLoad_MissingSourceIsEmpty(t *testing.T) {
	r := Load(filepath.Join(t.TempDir(), "nope.json"))

	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.List())
}

func TestLoad_MalformedSourceIsEmpty(t *testing.T) {
	path := writeRegistry(t, `{"not": "an array"`)

	r := Load(path)

	assert.Equal(t, 0, r.Len())
}

func TestLoad_DuplicateNamesLastWriteWins(t *testing.T) {
	path := writeRegistry(t, `[
		{"name": "proj", "path": "/old/location"},
		{"name": "proj", "path": "/new/location"}
	]`)

	r := Load(path)

	require.Equal(t, 1, r.Len())
	loc, ok := r.Lookup("proj")
	assert.True(t, ok)
	assert.Equal(t, "/new/location", loc)
}

func TestLoad_SkipsNamelessEntries(t *testing.T) {
	path := writeRegistry(t, `[
		{"name": "", "path": "/somewhere"},
		{"name": "real", "path": "/real"}
	]`)

	r := Load(path)

	assert.Equal(t, 1, r.Len())
}

func TestList_SortedByName(t *testing.T) {
	path := writeRegistry(t, `[
		{"name": "zeta", "path": "/z"},
		{"name": "alpha", "path": "/a"},
		{"name": "mid", "path": "/m"}
	]`)

	r := Load(path)

	entries := r.List()
	require.Len(t, entries, 3)
	assert.Equal(t, "alpha", entries[0].Name)
	assert.Equal(t, "mid", entries[1].Name)
	assert.Equal(t, "zeta", entries[2].Name)

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.Names())
}

func TestLookup_ExactMatchOnly(t *testing.T) {
	path := writeRegistry(t, `[{"name": "dotfiles", "path": "/home/user/dotfiles"}]`)

	r := Load(path)

	for _, id := range []string{"dot", "Dotfiles", "dotfiles ", "dotfiles2"} {
		_, ok := r.Lookup(id)
		assert.False(t, ok, "expected no match for %q", id)
	}
}
