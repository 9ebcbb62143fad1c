package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureParentDir_CreatesDirectory(t *testing.T) {
	tmp := t.TempDir()
	want := filepath.Join(tmp, "data", "nested")

	require.NoError(t, EnsureParentDir(filepath.Join(want, "regkeeper.db")))

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}
}

func TestEnsureParentDir_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "rk.log")

	require.NoError(t, EnsureParentDir(path))
	require.NoError(t, EnsureParentDir(path))
}

func TestEnsureParentDir_BareName(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	require.NoError(t, EnsureParentDir("regkeeper.db"))

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestEnsureParentDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "data")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	err := EnsureParentDir(filepath.Join(blocker, "regkeeper.db"))
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestSQLitePath(t *testing.T) {
	tests := map[string]string{
		"regkeeper.db":                          "regkeeper.db",
		"/var/lib/rk/regkeeper.db":              "/var/lib/rk/regkeeper.db",
		"data/rk.db?_pragma=busy_timeout(5000)": "data/rk.db",
		":memory:":                              "",
		"file::memory:?cache=shared":            "",
		"":                                      "",
	}
	for dsn, want := range tests {
		require.Equal(t, want, SQLitePath(dsn), dsn)
	}
}
