package security

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustTempDir(t *testing.T) string {
	t.Helper()
	d := t.TempDir()
	// macOS maps /var to /private/var.
	real, err := filepath.EvalSymlinks(d)
	require.NoError(t, err)
	return real
}

func TestNewManager_Restricted(t *testing.T) {
	dir := mustTempDir(t)
	m, err := NewManager([]string{dir, "  "}, nil)
	require.NoError(t, err)
	require.True(t, m.Restricted())
	require.Equal(t, []string{dir}, m.AllowedDirectories())

	open, err := NewManager(nil, nil)
	require.NoError(t, err)
	require.False(t, open.Restricted())
}

func TestNewManager_InvalidInput(t *testing.T) {
	_, err := NewManager(nil, []string{"csv"})
	require.Error(t, err)

	f := filepath.Join(mustTempDir(t), "file.csv")
	require.NoError(t, os.WriteFile(f, []byte("a"), 0o644))
	_, err = NewManager([]string{f}, nil)
	require.Error(t, err)
}

func TestValidateOpenPath_AllowsWithinRoot(t *testing.T) {
	root := mustTempDir(t)
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	for _, name := range []string{"ok.csv", "ok.TSV", "ok.txt", "ok.xlsx"} {
		require.NoError(t, os.WriteFile(filepath.Join(sub, name), []byte("a,b\n"), 0o644))
	}

	m, err := NewManager([]string{root}, nil)
	require.NoError(t, err)
	for _, name := range []string{"ok.csv", "ok.TSV", "ok.txt", "ok.xlsx"} {
		got, err := m.ValidateOpenPath(filepath.Join(sub, name))
		require.NoError(t, err, name)
		require.True(t, filepath.IsAbs(got))
	}
}

func TestValidateOpenPath_DeniesOutsideRoot(t *testing.T) {
	root := mustTempDir(t)
	outside := filepath.Join(mustTempDir(t), "escape.csv")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	m, err := NewManager([]string{root}, nil)
	require.NoError(t, err)
	_, err = m.ValidateOpenPath(outside)
	require.ErrorIs(t, err, ErrNotAllowed)

	_, err = m.ValidateOpenPath(filepath.Join(root, "..", filepath.Base(filepath.Dir(outside)), "escape.csv"))
	require.Error(t, err)
}

func TestValidateOpenPath_SiblingPrefixDenied(t *testing.T) {
	parent := mustTempDir(t)
	root := filepath.Join(parent, "data")
	sibling := filepath.Join(parent, "data-other")
	require.NoError(t, os.Mkdir(root, 0o755))
	require.NoError(t, os.Mkdir(sibling, 0o755))
	target := filepath.Join(sibling, "x.csv")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	m, err := NewManager([]string{root}, nil)
	require.NoError(t, err)
	_, err = m.ValidateOpenPath(target)
	require.ErrorIs(t, err, ErrNotAllowed)
}

func TestValidateOpenPath_SymlinkEscapeDenied(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test skipped on Windows")
	}
	root := mustTempDir(t)
	target := filepath.Join(mustTempDir(t), "target.csv")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	link := filepath.Join(root, "link.csv")
	require.NoError(t, os.Symlink(target, link))

	m, err := NewManager([]string{root}, nil)
	require.NoError(t, err)
	_, err = m.ValidateOpenPath(link)
	require.ErrorIs(t, err, ErrNotAllowed)
}

func TestValidateOpenPath_UnsupportedExtAndMissing(t *testing.T) {
	root := mustTempDir(t)
	fp := filepath.Join(root, "bad.exe")
	require.NoError(t, os.WriteFile(fp, []byte("x"), 0o644))

	m, err := NewManager([]string{root}, nil)
	require.NoError(t, err)
	_, err = m.ValidateOpenPath(fp)
	require.ErrorIs(t, err, ErrUnsupportedExtension)

	_, err = m.ValidateOpenPath(filepath.Join(root, "missing.csv"))
	require.ErrorIs(t, err, ErrNotFound)
}
