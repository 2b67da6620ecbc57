package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteOpenDelete(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	path, err := fs.Write(strings.NewReader("proof"), "proofs/task_1", "my report.pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "proofs/task_1/"))
	assert.True(t, strings.HasSuffix(path, "_my_report.pdf"))

	f, err := fs.Open(path)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	f.Close()
	require.NoError(t, err)
	assert.Equal(t, "proof", string(data))

	require.NoError(t, fs.Delete(path))
	_, err = fs.Open(path)
	assert.Error(t, err)
}

func TestWriteGeneratesUniqueNames(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	a, err := fs.Write(strings.NewReader("a"), "x", "same.txt")
	require.NoError(t, err)
	b, err := fs.Write(strings.NewReader("b"), "x", "same.txt")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestRejectsTraversal(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	_, err = fs.Write(strings.NewReader("x"), "../outside", "a.txt")
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = fs.Open("../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidPath)

	path, err := fs.Write(strings.NewReader("x"), "ok", "../../evil.sh")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_evil.sh"))
}
