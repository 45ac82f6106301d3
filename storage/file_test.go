package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filatag/spool-scanner/interfaces"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEntry(code, tray string) interfaces.ScanEntry {
	return interfaces.ScanEntry{
		Code:       code,
		TrayUID:    tray,
		RecordedAt: time.Now().UTC(),
	}
}

func TestFileStoreAppendAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan-log.json")
	store, err := NewFileStore(path, testLogger())
	require.NoError(t, err)

	recorded, err := store.Append(context.Background(), testEntry("10100", "AAAA"))
	require.NoError(t, err)
	assert.True(t, recorded)

	recorded, err = store.Append(context.Background(), testEntry("10101", "BBBB"))
	require.NoError(t, err)
	assert.True(t, recorded)

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "10100", entries[0].Code)
	assert.Equal(t, "10101", entries[1].Code)
}

func TestFileStoreDeduplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan-log.json")
	store, err := NewFileStore(path, testLogger())
	require.NoError(t, err)

	recorded, err := store.Append(context.Background(), testEntry("10100", "AAAA"))
	require.NoError(t, err)
	require.True(t, recorded)

	recorded, err = store.Append(context.Background(), testEntry("10100", "AAAA"))
	require.NoError(t, err)
	assert.False(t, recorded, "same code and tray must be a duplicate")

	recorded, err = store.Append(context.Background(), testEntry("10100", "BBBB"))
	require.NoError(t, err)
	assert.True(t, recorded, "same code on another tray is a new spool")

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan-log.json")

	store, err := NewFileStore(path, testLogger())
	require.NoError(t, err)
	_, err = store.Append(context.Background(), testEntry("10100", "AAAA"))
	require.NoError(t, err)

	reopened, err := NewFileStore(path, testLogger())
	require.NoError(t, err)

	entries, err := reopened.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "10100", entries[0].Code)

	// The dedupe index is rebuilt from disk.
	recorded, err := reopened.Append(context.Background(), testEntry("10100", "AAAA"))
	require.NoError(t, err)
	assert.False(t, recorded)
}

func TestFileStoreRejectsCorruptLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan-log.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	_, err := NewFileStore(path, testLogger())
	assert.Error(t, err)
}

func TestFileStoreListReturnsCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan-log.json")
	store, err := NewFileStore(path, testLogger())
	require.NoError(t, err)
	_, err = store.Append(context.Background(), testEntry("10100", "AAAA"))
	require.NoError(t, err)

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	entries[0].Code = "mutated"

	again, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10100", again[0].Code)
}

func TestFileStoreIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan-log.json")
	store, err := NewFileStore(path, testLogger())
	require.NoError(t, err)

	assert.Equal(t, "file-scan-log.json", store.Name())
	assert.Equal(t, "file://"+path, store.LocationURI())
}
