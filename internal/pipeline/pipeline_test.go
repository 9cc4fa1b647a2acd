package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harrison/pfind/internal/perm"
	"github.com/harrison/pfind/internal/walker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSource struct {
	lines []string
	err   error
}

func (s failingSource) Run(ctx context.Context, w io.Writer) error {
	if err := LinesSource(s.lines).Run(ctx, w); err != nil {
		return err
	}
	return s.err
}

type failingSorter struct{ err error }

func (s failingSorter) Sort(ctx context.Context, r io.Reader, w io.Writer) error {
	return s.err
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func TestRun_SortsAndCounts(t *testing.T) {
	var out bytes.Buffer
	summary, err := Run(context.Background(), LinesSource{"/t/c", "/t/a", "/t/b"}, MemorySorter{}, &out)

	require.NoError(t, err)
	assert.Equal(t, "/t/a\n/t/b\n/t/c\nTotal matches: 3\n", out.String())
	assert.Equal(t, 3, summary.Lines)
	assert.False(t, summary.Usage)
}

func TestRun_NoMatches(t *testing.T) {
	var out bytes.Buffer
	summary, err := Run(context.Background(), LinesSource{}, MemorySorter{}, &out)

	require.NoError(t, err)
	assert.Equal(t, "Total matches: 0\n", out.String())
	assert.Equal(t, 0, summary.Lines)
}

func TestRun_UsageBannerSuppressesTotal(t *testing.T) {
	var out bytes.Buffer
	summary, err := Run(context.Background(), LinesSource{"Usage: pfind -d <directory> -p <permissions string> [-h]"}, MemorySorter{}, &out)

	require.NoError(t, err)
	assert.True(t, summary.Usage)
	assert.Equal(t, "Usage: pfind -d <directory> -p <permissions string> [-h]\n", out.String())
	assert.NotContains(t, out.String(), "Total matches")
}

func TestRun_SourceFailureWritesNothing(t *testing.T) {
	boom := errors.New("Cannot open directory '/t/private'. Permission denied.")

	var out bytes.Buffer
	_, err := Run(context.Background(), failingSource{lines: []string{"/t/a"}, err: boom}, MemorySorter{}, &out)

	require.Error(t, err)
	assert.Same(t, boom, err, "source errors are reported unwrapped")
	assert.Empty(t, out.String())
}

func TestRun_SorterFailure(t *testing.T) {
	boom := errors.New("sorter crashed")

	var out bytes.Buffer
	lines := make(LinesSource, 10000)
	for i := range lines {
		lines[i] = "/t/entry"
	}
	_, err := Run(context.Background(), lines, failingSorter{err: boom}, &out)

	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.True(t, strings.HasPrefix(err.Error(), "sort: "), err.Error())
	assert.Empty(t, out.String())
}

func TestRun_OutputFailure(t *testing.T) {
	_, err := Run(context.Background(), LinesSource{"/t/a"}, MemorySorter{}, failingWriter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRun_WalkSource(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		path := filepath.Join(root, name)
		require.NoError(t, os.WriteFile(path, nil, 0o600))
		require.NoError(t, os.Chmod(path, 0o644))
	}
	require.NoError(t, os.Chmod(root, 0o700))

	var recorded []string
	src := &WalkSource{
		Walker: walker.New(walker.Options{}),
		Root:   root,
		Spec:   perm.MustParse("rw-r--r--"),
		Emit:   walker.Collect(&recorded, nil),
	}

	var out bytes.Buffer
	summary, err := Run(context.Background(), src, MemorySorter{}, &out)
	require.NoError(t, err)

	want := root + "/alpha\n" + root + "/mid\n" + root + "/zeta\nTotal matches: 3\n"
	assert.Equal(t, want, out.String())
	assert.Equal(t, 3, summary.Lines)
	assert.Len(t, recorded, 3)
	require.NotNil(t, src.Result)
	assert.Equal(t, 4, src.Result.Visited)
}

func TestRun_WalkSourceFailure(t *testing.T) {
	src := &WalkSource{
		Walker: walker.New(walker.Options{}),
		Root:   filepath.Join(t.TempDir(), "missing"),
		Spec:   perm.MustParse("rw-r--r--"),
	}

	var out bytes.Buffer
	_, err := Run(context.Background(), src, MemorySorter{}, &out)

	var perr *walker.PathError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, walker.OpStat, perr.Op)
	assert.Empty(t, out.String())
}

func TestCommandSorter(t *testing.T) {
	if _, err := exec.LookPath("sort"); err != nil {
		t.Skip("sort not available")
	}
	t.Setenv("LC_ALL", "C")

	var out bytes.Buffer
	summary, err := Run(context.Background(), LinesSource{"/b", "/c", "/a"}, &CommandSorter{}, &out)

	require.NoError(t, err)
	assert.Equal(t, "/a\n/b\n/c\nTotal matches: 3\n", out.String())
	assert.Equal(t, 3, summary.Lines)
}

func TestCommandSorter_MissingProgram(t *testing.T) {
	var out bytes.Buffer
	_, err := Run(context.Background(), LinesSource{"/a"}, &CommandSorter{Path: filepath.Join(t.TempDir(), "no-such-sort")}, &out)

	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "sort: "), err.Error())
	assert.Empty(t, out.String())
}

func TestCommandSource(t *testing.T) {
	if _, err := exec.LookPath("printf"); err != nil {
		t.Skip("printf not available")
	}

	var out bytes.Buffer
	_, err := Run(context.Background(), &CommandSource{Path: "printf", Args: []string{"/y\n/x\n"}}, MemorySorter{}, &out)

	require.NoError(t, err)
	assert.Equal(t, "/x\n/y\nTotal matches: 2\n", out.String())
}

func TestCommandSource_NonZeroExit(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}

	var out bytes.Buffer
	_, err := Run(context.Background(), &CommandSource{Path: "false"}, MemorySorter{}, &out)

	require.Error(t, err)
	var exitErr *exec.ExitError
	assert.True(t, errors.As(err, &exitErr))
	assert.Empty(t, out.String())
}

func TestMemorySorter_ByteOrder(t *testing.T) {
	var out bytes.Buffer
	err := MemorySorter{}.Sort(context.Background(), strings.NewReader("b\nB\na\n_\n"), &out)

	require.NoError(t, err)
	assert.Equal(t, "B\n_\na\nb\n", out.String())
}

func TestMemorySorter_UnterminatedLastLine(t *testing.T) {
	var out bytes.Buffer
	err := MemorySorter{}.Sort(context.Background(), strings.NewReader("z\ny"), &out)

	require.NoError(t, err)
	assert.Equal(t, "y\nz\n", out.String())
}

func TestMemorySorter_WriteFailure(t *testing.T) {
	// More than one bufio buffer, so the failure surfaces while writing
	// lines and not only at the final flush.
	input := strings.Repeat("/t/some/longer/entry/name\n", 1000)

	err := MemorySorter{}.Sort(context.Background(), strings.NewReader(input), failingWriter{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
