package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat, err := New(&Config{
		Type:   DatabaseTypeSQLite,
		SQLite: SQLiteConfig{Path: t.TempDir() + "/catalog.db"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.Close() })
	return cat
}

func TestMigratedSchemaHasExpectedTables(t *testing.T) {
	cat := newTestCatalog(t)
	for _, table := range []string{"storages", "keys", "files", "blocks"} {
		assert.True(t, cat.DB().Migrator().HasTable(table), "missing table %q", table)
	}
}

func TestAddAndGetStorage(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	s, err := cat.AddStorage(ctx, "tok-1", "yandex-disk")
	require.NoError(t, err)
	assert.NotZero(t, s.ID)

	got, err := cat.GetStorageByToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "yandex-disk", got.Type)

	_, err = cat.AddStorage(ctx, "tok-1", "yandex-disk")
	assert.ErrorIs(t, err, ErrStorageAlreadyExists)

	_, err = cat.GetStorageByToken(ctx, "missing")
	assert.ErrorIs(t, err, ErrUnknownStorage)
}

func TestAddFileResumesIncompleteUpload(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	file := &File{Filename: "a.bin", Size: 100, TotalBlocks: 4, BlockSize: 25, DuplicateCount: 2}
	got, resumed, err := cat.AddFile(ctx, file)
	require.NoError(t, err)
	assert.False(t, resumed)
	assert.NotZero(t, got.ID)

	// Same filename, still incomplete -> resume.
	again, resumed, err := cat.AddFile(ctx, &File{Filename: "a.bin", Size: 100, TotalBlocks: 4})
	require.NoError(t, err)
	assert.True(t, resumed)
	assert.Equal(t, got.ID, again.ID)

	require.NoError(t, cat.IncrementUploadedBlocks(ctx, got.ID, 4))

	_, _, err = cat.AddFile(ctx, &File{Filename: "a.bin", Size: 100, TotalBlocks: 4})
	assert.ErrorIs(t, err, ErrFileAlreadyExists)
}

func TestBlocksGroupedByNumber(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	storage, err := cat.AddStorage(ctx, "tok-1", "yandex-disk")
	require.NoError(t, err)

	file, _, err := cat.AddFile(ctx, &File{Filename: "b.bin", Size: 10, TotalBlocks: 2, DuplicateCount: 2})
	require.NoError(t, err)

	require.NoError(t, cat.AddBlocks(ctx, []Block{
		{Number: 0, DuplicateNumber: 0, Name: "n0-0", Size: 5, StorageID: storage.ID, FileID: file.ID},
		{Number: 0, DuplicateNumber: 1, Name: "n0-1", Size: 5, StorageID: storage.ID, FileID: file.ID},
		{Number: 1, DuplicateNumber: 0, Name: "n1-0", Size: 5, StorageID: storage.ID, FileID: file.ID},
	}))

	grouped, err := cat.GetBlocksGroupedByNumber(ctx, file.ID)
	require.NoError(t, err)
	assert.Len(t, grouped[0], 2)
	assert.Len(t, grouped[1], 1)

	uploaded, err := cat.UploadedBlockNumbers(ctx, file.ID)
	require.NoError(t, err)
	assert.True(t, uploaded[0])
	assert.True(t, uploaded[1])
	assert.False(t, uploaded[2])
}

func TestDeleteFileCascadesBlocks(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	storage, err := cat.AddStorage(ctx, "tok-1", "yandex-disk")
	require.NoError(t, err)
	file, _, err := cat.AddFile(ctx, &File{Filename: "c.bin", Size: 5, TotalBlocks: 1, DuplicateCount: 1})
	require.NoError(t, err)
	require.NoError(t, cat.AddBlocks(ctx, []Block{
		{Number: 0, DuplicateNumber: 0, Name: "n", Size: 5, StorageID: storage.ID, FileID: file.ID},
	}))

	_, err = cat.DeleteFile(ctx, "c.bin")
	require.NoError(t, err)

	blocks, err := cat.GetBlocksByFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Empty(t, blocks)

	_, err = cat.GetFileByFilename(ctx, "c.bin")
	assert.ErrorIs(t, err, ErrUnknownFile)
}
