package filestorage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	ls, err := NewLocalStorage(filepath.Join(dir, "reports"), "/reports/")
	require.NoError(t, err)

	info, err := ls.SaveFile("runs", "abc.json", strings.NewReader(`{"ok":true}`))
	require.NoError(t, err)
	assert.Equal(t, "/reports/runs/abc.json", info.URL)
	assert.Equal(t, int64(11), info.FileSize)
	assert.Equal(t, info.Path, ls.GetFullPath(info.URL))

	data, err := os.ReadFile(info.Path)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))

	// Overwrites in place.
	_, err = ls.SaveFile("runs", "abc.json", strings.NewReader(`{}`))
	require.NoError(t, err)
	data, err = os.ReadFile(info.Path)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))

	entries, err := os.ReadDir(filepath.Dir(info.Path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, ls.DeleteFile(info.URL))
	assert.NoFileExists(t, info.Path)
	assert.NoError(t, ls.DeleteFile(info.URL))
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	_, err = ls.SaveFile("", "../x.json", strings.NewReader("x"))
	assert.Error(t, err)
	_, err = ls.SaveFile("../up", "x.json", strings.NewReader("x"))
	assert.Error(t, err)

	info, err := ls.SaveFile("", "x.json", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "x.json", info.URL)
}
