package gtfsdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"marguerite.stanford.edu/internal/appconf"
)

// getTestFixturePath returns the absolute path to a fixture file in the testdata directory
func getTestFixturePath(t *testing.T, fixturePath string) string {
	t.Helper()

	absPath, err := filepath.Abs(filepath.Join("..", "testdata", fixturePath))
	require.NoError(t, err, "Failed to get absolute path to testdata/%s", fixturePath)
	return absPath
}

// createTestData returns the fixture feed and a copy whose content hash differs
func createTestData(t *testing.T) ([]byte, []byte) {
	t.Helper()

	originalData, err := os.ReadFile(getTestFixturePath(t, "marguerite.zip"))
	require.NoError(t, err, "Failed to read original test data")

	// Trailing bytes after the central directory are tolerated by zip readers.
	modifiedData := append([]byte{}, originalData...)
	modifiedData = append(modifiedData, 0x00)

	return originalData, modifiedData
}

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(Config{DBPath: ":memory:", Env: appconf.Test})
	require.NoError(t, err, "Failed to create client")
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestConditionalImport_InitialImport(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	originalData, _ := createTestData(t)

	err := client.processAndStoreGTFSDataWithSource(ctx, originalData, "test-source")
	require.NoError(t, err, "Initial import should succeed")

	metadata, err := client.Queries.GetImportMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, hashGTFSData(originalData), metadata.FileHash)
	assert.Equal(t, "test-source", metadata.FileSource)
	assert.Greater(t, metadata.ImportTime, int64(0))

	agencies, err := client.Queries.ListAgencies(ctx)
	require.NoError(t, err)
	require.Len(t, agencies, 1)
	assert.Equal(t, "MARGUERITE", agencies[0].ID)
	assert.Equal(t, "America/Los_Angeles", agencies[0].Timezone)
}

func TestConditionalImport_SkipUnchangedData(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	originalData, _ := createTestData(t)

	require.NoError(t, client.processAndStoreGTFSDataWithSource(ctx, originalData, "first-source"))
	initialMetadata, err := client.Queries.GetImportMetadata(ctx)
	require.NoError(t, err)

	require.NoError(t, client.processAndStoreGTFSDataWithSource(ctx, originalData, "second-source"))
	finalMetadata, err := client.Queries.GetImportMetadata(ctx)
	require.NoError(t, err)

	assert.Equal(t, initialMetadata, finalMetadata, "Unchanged data must not be re-imported")
}

func TestConditionalImport_ReplacesChangedData(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	originalData, modifiedData := createTestData(t)

	require.NoError(t, client.processAndStoreGTFSDataWithSource(ctx, originalData, "test-source"))
	countsBefore, err := client.TableCounts(ctx)
	require.NoError(t, err)

	require.NoError(t, client.processAndStoreGTFSDataWithSource(ctx, modifiedData, "updated-source"))

	metadata, err := client.Queries.GetImportMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, hashGTFSData(modifiedData), metadata.FileHash)
	assert.Equal(t, "updated-source", metadata.FileSource)

	countsAfter, err := client.TableCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, countsBefore, countsAfter, "Replacing a feed must not duplicate rows")
}

func TestImportFromFile(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.ImportFromFile(ctx, getTestFixturePath(t, "marguerite.zip")))

	counts, err := client.TableCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["agencies"])
	assert.Equal(t, 6, counts["routes"])
	assert.Equal(t, 5, counts["stops"])
	assert.Equal(t, 7, counts["trips"])
	assert.Equal(t, 15, counts["stop_times"])
	assert.Equal(t, 5, counts["shapes"])
	assert.Equal(t, 1, counts["import_metadata"])

	err = client.ImportFromFile(ctx, getTestFixturePath(t, "missing.zip"))
	assert.Error(t, err)
}

func TestImportBytes_InvalidZip(t *testing.T) {
	client := newTestClient(t)

	err := client.ImportBytes(context.Background(), []byte("not a zip"), "garbage")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error parsing GTFS data")
}
