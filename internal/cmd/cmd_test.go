package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// execute runs cmd with args and returns what it wrote to stdout and stderr.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// buildTree creates
//
//	root/      rwx------
//	root/a     rw-r--r--
//	root/b/    rwxr-xr-x
//	root/b/c   rw-------
//
// and returns the canonical root.
func buildTree(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b", "c"), nil, 0o600))

	// umask may have narrowed the modes above
	require.NoError(t, os.Chmod(root, 0o700))
	require.NoError(t, os.Chmod(filepath.Join(root, "a"), 0o644))
	require.NoError(t, os.Chmod(filepath.Join(root, "b"), 0o755))
	require.NoError(t, os.Chmod(filepath.Join(root, "b", "c"), 0o600))

	resolved, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	return resolved
}

// writeConfig writes a config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// isolateHome points the pfind home at a fresh directory.
func isolateHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("PFIND_HOME", home)
	return home
}
