package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("reports/a.csv", []byte("id,name\n"))
	require.NoError(t, err)
	assert.Equal(t, "reports/a.csv", name)

	f, err := store.Open(name)
	require.NoError(t, err)
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "id,name\n", string(body))

	require.NoError(t, store.Delete(name))
	require.NoError(t, store.Delete(name))
	_, err = store.Open(name)
	assert.Error(t, err)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../escape.txt", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, err = store.Open("/etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestLocalStorageSaveStreamLimit(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	n, err := store.SaveStream("movs/s1/ok.txt", strings.NewReader("hello"), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	_, err = store.SaveStream("movs/s1/big.txt", strings.NewReader("hello world"), 5)
	assert.ErrorIs(t, err, ErrTooLarge)
	_, statErr := os.Stat(filepath.Join(dir, "movs", "s1", "big.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("reports/old.csv", []byte("old"))
	require.NoError(t, err)
	_, err = store.Save("reports/new.csv", []byte("new"))
	require.NoError(t, err)
	_, err = store.Save("movs/keep.pdf", []byte("mov"))
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "reports", "old.csv"), past, past))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "movs", "keep.pdf"), past, past))

	deleted, err := store.CleanupOlderThan("reports", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"reports/old.csv"}, deleted)

	deleted, err = store.CleanupOlderThan("missing", time.Hour)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "lesson_plan.pdf", SanitizeFilename("../../lesson plan.pdf"))
	assert.Equal(t, "evidence.png", SanitizeFilename(`C:\Users\x\evidence.png`))
	assert.Equal(t, "file", SanitizeFilename("..."))
}
