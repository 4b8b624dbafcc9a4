package writeback

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPageSortsKeys(t *testing.T) {
	tree := map[string]any{
		"zeta":  int64(1),
		"alpha": []any{"a", true, nil},
	}
	got := string(FormatPage(tree))
	assert.Less(t, strings.Index(got, `"alpha"`), strings.Index(got, `"zeta"`))
	assert.Contains(t, got, "\n  \"alpha\"")
	assert.True(t, strings.HasSuffix(got, "}\n"))
	assert.Equal(t, got, string(FormatPage(tree)), "output is deterministic")

	back, err := ParsePage([]byte(got), "tree.json")
	require.NoError(t, err)
	assert.Equal(t, tree, back)
}

func TestWriteThenReadPage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pages")
	tree := map[string]any{
		"hero":  map[string]any{"title": "Welcome", "cta": "Explore"},
		"items": []any{int64(1), int64(2)},
	}

	path, err := WritePage(dir, "home", tree)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "home.json"), path)

	name, got, err := ReadPage(path)
	require.NoError(t, err)
	assert.Equal(t, "home", name)
	assert.Equal(t, tree, got)
}

func TestWritePageReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	_, err := WritePage(dir, "about", map[string]any{"v": int64(1)})
	require.NoError(t, err)
	path, err := WritePage(dir, "about", map[string]any{"v": int64(2)})
	require.NoError(t, err)

	_, got, err := ReadPage(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"v": int64(2)}, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWritePageRejectsBadNames(t *testing.T) {
	for _, name := range []string{"", "../etc", "Home", "a/b", "-x"} {
		_, err := WritePage(t.TempDir(), name, nil)
		assert.ErrorIs(t, err, ErrPageName, name)
	}
}

func TestParsePageAcceptsJSONC(t *testing.T) {
	got, err := ParsePage([]byte(`{
		// hero block
		"hero": {"title": "Hi",},
	}`), "home.json")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"hero": map[string]any{"title": "Hi"}}, got)
}

func TestParsePageInvalid(t *testing.T) {
	_, err := ParsePage([]byte(`{"hero": `), "home.json")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "home.json", verr.FilePath)
	assert.Contains(t, err.Error(), "home.json")
}

func TestReadPageMissing(t *testing.T) {
	_, _, err := ReadPage(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
