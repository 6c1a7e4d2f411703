package patchfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lyzr/dbpatcher/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakePatchDir(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2024, 3, 7, 14, 5, 9, 0, time.UTC)

	dir, err := MakePatchDir(root, "shop", now)
	require.NoError(t, err)
	assert.Equal(t, "shop_build_2024-03-07_14-05-09", filepath.Base(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = MakePatchDir(root, "shop", now)
	assert.Error(t, err, "second directory with the same timestamp must fail")
}

func TestWritePatchList(t *testing.T) {
	dir := t.TempDir()
	list := models.NewPatchList(
		models.NewElement(models.TypeTable, "public", "users", nil),
		models.NewElement(models.TypeFunction, "public", "f", []string{"a"}),
	)

	path, err := WritePatchList(dir, list)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, PatchListName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "public users table\npublic f function ( a )\n", string(data))
}

func TestWritePatchList_ExistingFileUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, PatchListName)
	require.NoError(t, os.WriteFile(path, []byte("keep me\n"), 0o644))

	_, err := WritePatchList(dir, models.NewPatchList(models.NewElement(models.TypeTable, "s", "t", nil)))
	assert.ErrorIs(t, err, ErrWriteConflict)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep me\n", string(data))
}

func TestWritePatchList_EncodeErrorLeavesNoFile(t *testing.T) {
	dir := t.TempDir()

	_, err := WritePatchList(dir, models.NewPatchList(models.NewElement(models.TypeTable, "s", "bad name", nil)))
	assert.ErrorIs(t, err, ErrEncode)

	_, statErr := os.Stat(filepath.Join(dir, PatchListName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteDependencyList_ReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DependencyListName)
	require.NoError(t, os.WriteFile(path, []byte("old old table\n"), 0o644))

	deps := models.NewPatchList(
		models.NewElement(models.TypeTable, "public", "users", nil),
		models.NewElement(models.TypeFunction, "public", "calc", []string{"x"}),
	)

	got, err := WriteDependencyList(dir, deps)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "public users table\npublic calc function\n", string(data))
	assertNoTempFiles(t, dir)
}

func TestWriteDependencyList_NoExistingTarget(t *testing.T) {
	dir := t.TempDir()

	_, err := WriteDependencyList(dir, models.NewPatchList(models.NewElement(models.TypeView, "s", "v", nil)))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, DependencyListName))
	require.NoError(t, err)
	assert.Equal(t, "s v view\n", string(data))
}

func TestWriteDependencyList_RemoveFailureKeepsTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DependencyListName)
	require.NoError(t, os.WriteFile(path, []byte("old old table\n"), 0o644))

	removeFile = func(string) error { return errors.New("permission denied") }
	t.Cleanup(func() { removeFile = os.Remove })

	_, err := WriteDependencyList(dir, models.NewPatchList(models.NewElement(models.TypeTable, "new", "new", nil)))
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old old table\n", string(data))
	assertNoTempFiles(t, dir)
}

func TestReadObjectList(t *testing.T) {
	dir := t.TempDir()
	content := "public users table\nscript /tmp/seed.sql\npublic f function ( a b )\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ObjectListName), []byte(content), 0o644))

	list, err := ReadObjectList(dir)
	require.NoError(t, err)
	require.Equal(t, 3, list.Count())
	assert.Equal(t, models.TypeScript, list.At(1).Type())
	assert.Equal(t, []string{"a", "b"}, list.At(2).Parameters())
}

func TestReadObjectList_Missing(t *testing.T) {
	_, err := ReadObjectList(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadDependencyList_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DependencyListName), []byte("s t table\nscript /tmp/a.sql\n"), 0o644))

	list, err := ReadDependencyList(dir)
	assert.ErrorIs(t, err, ErrParse)
	assert.Nil(t, list)
}

func TestRemovePatchList(t *testing.T) {
	dir := t.TempDir()
	_, err := WritePatchList(dir, models.NewPatchList(models.NewElement(models.TypeTable, "s", "t", nil)))
	require.NoError(t, err)

	require.NoError(t, RemovePatchList(dir))
	require.NoError(t, RemovePatchList(dir), "removing twice is fine")

	_, err = os.Stat(filepath.Join(dir, PatchListName))
	assert.True(t, os.IsNotExist(err))
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
