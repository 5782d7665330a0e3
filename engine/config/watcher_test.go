package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherPublishesReloadedConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prism.toml")
	require.NoError(t, os.WriteFile(path, []byte("[app]\nname = \"Before\"\n"), 0o644))

	watcher, err := NewWatcher(path)
	require.NoError(t, err)
	defer watcher.Close()

	updates := watcher.Subscribe()

	require.NoError(t, os.WriteFile(path, []byte("[app]\nname = \"After\"\n"), 0o644))

	select {
	case cfg := <-updates:
		require.NotNil(t, cfg)
		assert.Equal(t, "After", cfg.App.Name)
	case <-time.After(5 * time.Second):
		t.Fatal("no config update received")
	}
}

func TestWatcherIgnoresInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prism.toml")
	require.NoError(t, os.WriteFile(path, []byte("[app]\nname = \"Valid\"\n"), 0o644))

	watcher, err := NewWatcher(path)
	require.NoError(t, err)
	defer watcher.Close()

	updates := watcher.Subscribe()

	require.NoError(t, os.WriteFile(path, []byte("[app\nbroken"), 0o644))

	select {
	case cfg := <-updates:
		t.Fatalf("unexpected update for broken config: %+v", cfg)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherCloseUnblocksSubscribers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prism.toml")
	require.NoError(t, os.WriteFile(path, []byte("[app]\n"), 0o644))

	watcher, err := NewWatcher(path)
	require.NoError(t, err)

	updates := watcher.Subscribe()
	require.NoError(t, watcher.Close())
	// Closing twice is harmless.
	require.NoError(t, watcher.Close())

	select {
	case _, open := <-updates:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("subscriber channel was not closed")
	}
}
