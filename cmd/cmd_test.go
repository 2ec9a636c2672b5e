package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/foomo/discstorage/pkg/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetContext(t.Context())
	err := cmd.Execute()
	return out.String(), err
}

func TestStoreRecordsRetrieve(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DISCSTORAGE_CONFIG", filepath.Join(dir, "missing.yaml"))
	recordsDir := filepath.Join(dir, "records")
	workDir := filepath.Join(dir, "work")

	input := filepath.Join(dir, "notes")
	require.NoError(t, os.MkdirAll(input, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(input, "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(input, "b.txt"), []byte("beta"), 0o644))
	artifact := filepath.Join(dir, "notes.tar.zst")

	out, err := run(t, "store", "notes", artifact, input,
		"--kind", "fast", "--level", "2", "-q", "--work-dir", workDir, "--records-dir", recordsDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, `stored "notes": 2 files`)
	assert.FileExists(t, artifact)

	out, err = run(t, "records", "list", "--records-dir", recordsDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "notes")
	assert.Contains(t, out, "fast")

	out, err = run(t, "records", "show", "notes", "--records-dir", recordsDir)
	require.NoError(t, err, out)
	var rec records.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, 2, rec.Entries)

	dest := filepath.Join(dir, "restore")
	out, err = run(t, "retrieve", "--record", "notes", dest, "-q", "--work-dir", workDir, "--records-dir", recordsDir)
	require.NoError(t, err, out)
	data, err := os.ReadFile(filepath.Join(dest, "notes", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "beta", string(data))

	// a second retrieve keeps the existing files
	_, err = run(t, "retrieve", artifact, dest, "-q", "--work-dir", workDir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dest, "notes", "b (1).txt"))

	out, err = run(t, "records", "delete", "notes", "--delete-artifact", "--records-dir", recordsDir)
	require.NoError(t, err, out)
	assert.NoFileExists(t, artifact)

	_, err = run(t, "records", "show", "notes", "--records-dir", recordsDir)
	assert.ErrorIs(t, err, records.ErrNotFound)
}

func TestStoreRejectsInvalidLevel(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DISCSTORAGE_CONFIG", filepath.Join(dir, "missing.yaml"))
	input := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(input, []byte("alpha"), 0o644))
	artifact := filepath.Join(dir, "a.tar.xz")

	_, err := run(t, "store", "a", artifact, input, "--level", "12", "-q",
		"--work-dir", filepath.Join(dir, "work"), "--records-dir", filepath.Join(dir, "records"))
	require.Error(t, err)
	assert.NoFileExists(t, artifact)
}

func TestConfigInit(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("DISCSTORAGE_CONFIG", p)

	out, err := run(t, "config", "init")
	require.NoError(t, err, out)
	assert.FileExists(t, p)

	_, err = run(t, "config", "init")
	require.Error(t, err)

	_, err = run(t, "config", "init", "--force")
	require.NoError(t, err)

	out, err = run(t, "config", "show")
	require.NoError(t, err, out)
	assert.Contains(t, out, "highratio")
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "1.0 KiB", formatSize(1024))
	assert.Equal(t, "1.5 MiB", formatSize(1536*1024))
}
