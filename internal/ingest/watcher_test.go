package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docufield/extractor/constants"
)

func TestAllowed(t *testing.T) {
	exts := constants.AllowedExtensions
	assert.True(t, allowed("/inbox/label.png", exts))
	assert.True(t, allowed("/inbox/scan.PDF", exts))
	assert.True(t, allowed("/inbox/photo.HEIC", exts))
	assert.False(t, allowed("/inbox/notes.txt", exts))
	assert.False(t, allowed("/inbox/noext", exts))
}

func TestStartWatcher_RequiresRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, testLogger())
	assert.Error(t, err)
}

func TestStartWatcher_InitialScanEmitsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "label.png")
	require.NoError(t, os.WriteFile(keep, []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{dir}, InitialScan: true}, testLogger())
	require.NoError(t, err)

	select {
	case path := <-events:
		assert.Equal(t, keep, path)
	case <-time.After(2 * time.Second):
		t.Fatal("initial scan emitted nothing")
	}
}

func TestStartWatcher_PicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{dir}, Debounce: 10 * time.Millisecond}, testLogger())
	require.NoError(t, err)

	created := filepath.Join(dir, "incoming.jpg")
	require.NoError(t, os.WriteFile(created, []byte("jpg"), 0o644))

	select {
	case path := <-events:
		assert.Equal(t, created, path)
	case <-time.After(3 * time.Second):
		t.Fatal("new file never emitted")
	}
}
