package archive

import (
	"archive/tar"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeFile(t *testing.T, p, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

// testTree creates a file and a nested directory and returns both inputs.
func testTree(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	file := filepath.Join(root, "notes.txt")
	writeFile(t, file, "notes")

	dir := filepath.Join(root, "photos")
	writeFile(t, filepath.Join(dir, "b.jpg"), "b")
	writeFile(t, filepath.Join(dir, "a.jpg"), "a")
	writeFile(t, filepath.Join(dir, "2024", "summer", "beach.jpg"), "beach")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o755))
	return file, dir
}

func testBuild(t *testing.T, inputs ...string) (string, []Entry) {
	t.Helper()
	dest := filepath.Join(t.TempDir(), "out.tar")
	entries, err := NewBuilder(zaptest.NewLogger(t)).Build(t.Context(), dest, inputs, nil)
	require.NoError(t, err)
	return dest, entries
}

func TestCollect(t *testing.T) {
	file, dir := testTree(t)

	entries, err := Collect([]string{file, dir})
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{
		"notes.txt",
		"photos/2024/summer/beach.jpg",
		"photos/a.jpg",
		"photos/b.jpg",
	}, names)
}

func TestCollectMissing(t *testing.T) {
	_, err := Collect([]string{filepath.Join(t.TempDir(), "nope")})
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "stat", ioErr.Op)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestCollectSymlinkedDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "real", "a.txt"), "a")
	writeFile(t, filepath.Join(root, "real", "b.txt"), "b")
	link := filepath.Join(root, "docs")
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), link))

	entries, err := Collect([]string{link})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "docs/a.txt", entries[0].Name)
	assert.Equal(t, "docs/b.txt", entries[1].Name)

	dest, built := testBuild(t, link)
	assert.Len(t, built, 2)
	names, err := List(t.Context(), dest)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/a.txt", "docs/b.txt"}, names)
}

func TestCollectDuplicateNames(t *testing.T) {
	root := t.TempDir()
	x := filepath.Join(root, "x", "notes.txt")
	y := filepath.Join(root, "y", "notes.txt")
	writeFile(t, x, "x")
	writeFile(t, y, "y")

	_, err := Collect([]string{x, y})
	require.ErrorIs(t, err, ErrDuplicateEntry)
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, y, ioErr.Path)

	dest := filepath.Join(t.TempDir(), "out.tar")
	_, err = NewBuilder(zaptest.NewLogger(t)).Build(t.Context(), dest, []string{x, y}, nil)
	require.ErrorIs(t, err, ErrDuplicateEntry)
	assert.NoFileExists(t, dest)
}

func TestCollectFilesystemRoot(t *testing.T) {
	_, err := Collect([]string{string(filepath.Separator)})
	require.ErrorIs(t, err, ErrRootInput)
}

func TestBuildEntryCount(t *testing.T) {
	file, dir := testTree(t)
	dest, entries := testBuild(t, file, dir)

	names, err := List(t.Context(), dest)
	require.NoError(t, err)
	assert.Len(t, names, 4)
	assert.Len(t, entries, 4)
	assert.Equal(t, "notes.txt", names[0])
}

func TestBuildDeterministic(t *testing.T) {
	file, dir := testTree(t)
	first, _ := testBuild(t, file, dir)
	second, _ := testBuild(t, file, dir)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildProgress(t *testing.T) {
	file, dir := testTree(t)
	dest := filepath.Join(t.TempDir(), "out.tar")

	var calls [][2]int
	_, err := NewBuilder(zaptest.NewLogger(t)).Build(t.Context(), dest, []string{file, dir}, func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 4}, {2, 4}, {3, 4}, {4, 4}}, calls)
}

func TestBuildMissingInputRemovesDest(t *testing.T) {
	file, _ := testTree(t)
	dest := filepath.Join(t.TempDir(), "out.tar")

	_, err := NewBuilder(zaptest.NewLogger(t)).Build(t.Context(), dest, []string{file, filepath.Join(t.TempDir(), "missing")}, nil)
	require.Error(t, err)
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.NoFileExists(t, dest)
}

func TestBuildCanceled(t *testing.T) {
	file, dir := testTree(t)
	dest := filepath.Join(t.TempDir(), "out.tar")

	ctx, cancel := context.WithCancel(t.Context())
	_, err := NewBuilder(zaptest.NewLogger(t)).Build(ctx, dest, []string{file, dir}, func(done, total int) {
		if done == 2 {
			cancel()
		}
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, dest)
}

func TestExtract(t *testing.T) {
	file, dir := testTree(t)
	src, _ := testBuild(t, file, dir)
	dest := filepath.Join(t.TempDir(), "restore")

	var last int64
	written, err := NewExtractor(zaptest.NewLogger(t)).Extract(t.Context(), src, dest, func(processed, total int64) {
		assert.GreaterOrEqual(t, processed, last)
		assert.LessOrEqual(t, processed, total)
		last = processed
	})
	require.NoError(t, err)
	assert.Len(t, written, 4)

	info, err := os.Stat(src)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), last)

	data, err := os.ReadFile(filepath.Join(dest, "photos", "2024", "summer", "beach.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "beach", string(data))
	data, err = os.ReadFile(filepath.Join(dest, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "notes", string(data))
}

func TestExtractConflictPolicies(t *testing.T) {
	file, _ := testTree(t)
	src, _ := testBuild(t, file)

	tests := []struct {
		policy  ConflictPolicy
		content string
		renamed bool
	}{
		{policy: ConflictOverwrite, content: "notes"},
		{policy: ConflictSkip, content: "local"},
		{policy: ConflictRename, content: "local", renamed: true},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			dest := t.TempDir()
			writeFile(t, filepath.Join(dest, "notes.txt"), "local")

			written, err := NewExtractor(zaptest.NewLogger(t), ExtractorWithConflictPolicy(tt.policy)).Extract(t.Context(), src, dest, nil)
			require.NoError(t, err)

			data, err := os.ReadFile(filepath.Join(dest, "notes.txt"))
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(data))

			if tt.renamed {
				require.Len(t, written, 1)
				assert.Equal(t, filepath.Join(dest, "notes (1).txt"), written[0])
				data, err := os.ReadFile(written[0])
				require.NoError(t, err)
				assert.Equal(t, "notes", string(data))
			}
		})
	}
}

func TestExtractRejectsUnsafePath(t *testing.T) {
	src := filepath.Join(t.TempDir(), "evil.tar")
	f, err := os.Create(src)
	require.NoError(t, err)
	tw := tar.NewWriter(f)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "../escape.txt", Mode: 0o644, Size: 1, Typeflag: tar.TypeReg}))
	_, err = tw.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, f.Close())

	dest := t.TempDir()
	_, err = NewExtractor(zaptest.NewLogger(t)).Extract(t.Context(), src, dest, nil)
	require.ErrorIs(t, err, ErrUnsafePath)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dest), "escape.txt"))
}

func TestParseConflictPolicy(t *testing.T) {
	p, err := ParseConflictPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ConflictRename, p)

	p, err = ParseConflictPolicy("Overwrite")
	require.NoError(t, err)
	assert.Equal(t, ConflictOverwrite, p)

	_, err = ParseConflictPolicy("merge")
	require.Error(t, err)
}
