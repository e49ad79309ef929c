package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringToIntOr(t *testing.T) {
	assert.Equal(t, 12, StringToIntOr(" 12 ", 1))
	assert.Equal(t, 1, StringToIntOr("abc", 1))
	assert.Equal(t, 7, StringToIntOr("", 7))
}

func TestReadCookie(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cookie.txt")
	require.NoError(t, os.WriteFile(path, []byte("# comment\ncna=abc;\n\n  __ysuid=1  \n"), 0644))

	assert.Equal(t, "cna=abc; __ysuid=1;", ReadCookie(path))
	assert.Empty(t, ReadCookie(filepath.Join(dir, "missing.txt")))
	assert.Empty(t, ReadCookie(""))
}

func TestFileExistsAndEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	assert.False(t, FileExists(dir))
	require.NoError(t, EnsureDir(dir))
	assert.True(t, FileExists(dir))
}
