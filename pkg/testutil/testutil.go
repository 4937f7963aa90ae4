package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// CreateFile writes content to dir/name, creating parents, and returns the
// full path.
func CreateFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755), "parents of %s", path)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "write %s", path)
	return path
}

// CreateDir creates parent/name with any missing parents.
func CreateDir(t *testing.T, parent, name string) string {
	t.Helper()

	path := filepath.Join(parent, name)
	require.NoError(t, os.MkdirAll(path, 0755), "mkdir %s", path)
	return path
}

// CreateSymlink creates link -> target. target is stored as given, so
// relative targets stay relative.
func CreateSymlink(t *testing.T, target, link string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(link), 0755), "parents of %s", link)
	require.NoError(t, os.Symlink(target, link), "symlink %s -> %s", link, target)
}

// Exists reports whether anything, including a dangling symlink, is at path.
func Exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Lstat(path)
	return err == nil
}

// FileExists reports whether path resolves to something other than a
// directory.
func FileExists(t *testing.T, path string) bool {
	t.Helper()
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// RealDirExists reports whether path is a directory and not a symlink to one.
func RealDirExists(t *testing.T, path string) bool {
	t.Helper()
	info, err := os.Lstat(path)
	return err == nil && info.IsDir()
}

// ReadSymlink returns the literal target of a symlink, or "" if path is not
// one.
func ReadSymlink(t *testing.T, path string) string {
	t.Helper()
	target, err := os.Readlink(path)
	if err != nil {
		return ""
	}
	return target
}

// ReadFile returns the content of path.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err, "read %s", path)
	return string(content)
}

// ListDir returns the sorted entry names of dir.
func ListDir(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err, "read dir %s", dir)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}
