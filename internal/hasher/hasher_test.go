package hasher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestHashTree_KeysAndDigests(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "save.dat", "hello")
	writeFile(t, dir, "profiles/slot1/world.sav", "world")

	files, err := HashTree(dir)
	require.NoError(t, err)

	assert.Len(t, files, 2)
	// md5("hello"), md5("world")
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", files["/save.dat"])
	assert.Equal(t, "7d793037a0760186574b0282f2f435e7", files["/profiles/slot1/world.sav"])
}

func TestHashTree_Deterministic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "aaa")
	writeFile(t, dir, "b/c.txt", "ccc")

	first, err := HashTree(dir)
	require.NoError(t, err)

	second, err := HashTree(dir)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestHashTree_EmptyDir(t *testing.T) {
	files, err := HashTree(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestHashTree_MissingDir(t *testing.T) {
	_, err := HashTree(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestHashTree_FileNotDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "plain.txt", "x")

	_, err := HashTree(filepath.Join(dir, "plain.txt"))
	assert.Error(t, err)
}

func TestHashTree_IgnoresDirsAsEntries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "nested/deep/file.bin", "data")

	files, err := HashTree(dir)
	require.NoError(t, err)

	assert.Len(t, files, 1)
	_, ok := files["/nested/deep/file.bin"]
	assert.True(t, ok)
}
