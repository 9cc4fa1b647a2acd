package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe to read while a command writes to it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchCommand_InitialMatchesThenChanges(t *testing.T) {
	root := buildTree(t)

	stdout := &syncBuffer{}
	cmd := NewFindCommand()
	cmd.SetOut(stdout)
	stderr := &syncBuffer{}
	cmd.SetErr(stderr)
	cmd.SetArgs([]string{"watch", "-d", root, "-p", "rw-r--r--", "--log-level", "info"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(stderr.String(), "watching "+root+" for rw-r--r-- (1 matching)")
	}, 5*time.Second, 10*time.Millisecond, "stderr: %q", stderr.String())
	assert.Equal(t, root+"/a\n", stdout.String())

	path := filepath.Join(root, "b", "new")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	require.NoError(t, os.Chmod(path, 0o644))

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), path+"\n")
	}, 5*time.Second, 10*time.Millisecond, "output: %q", stdout.String())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop on cancel")
	}
	assert.Equal(t, root+"/a\n"+path+"\n", stdout.String())
}

func TestWatchCommand_ValidatesArguments(t *testing.T) {
	_, _, err := execute(NewFindCommand(), "watch", "-p", "rw-r--r--")

	require.Error(t, err)
	assert.Equal(t, "Required argument -d <directory> not found.", err.Error())
}

func TestWatchCommand_ErrorsWithoutUsage(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	stdout, stderr, err := execute(NewWatchCommand(), "-d", missing, "-p", "rw-r--r--")

	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Cannot stat '"), err.Error())
	assert.NotContains(t, stdout, "Usage:")
	assert.NotContains(t, stderr, "Usage:")
}
