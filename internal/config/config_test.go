package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, StorageDB, cfg.Storage)
	assert.Equal(t, "auth", cfg.AuthPath)
	assert.Equal(t, "/keplergl", cfg.UploadFolder)
	assert.Equal(t, 2*time.Second, cfg.WatchDebounce)
	assert.Equal(t, filepath.Join(dir, "mapshare.db"), cfg.DBPath)
	assert.Empty(t, cfg.Dropbox.ClientID)
}

func TestLoadFrom_File(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
port: 9090
storage: keyring
db_path: /var/lib/mapshare/state.db
upload_folder: /maps
watch_debounce: 500ms
dropbox:
  client_id: dbx-key
gdrive:
  client_id: gd-key
  folder_id: 1AbCdEf
`), 0o644))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, StorageKeyring, cfg.Storage)
	assert.Equal(t, "/var/lib/mapshare/state.db", cfg.DBPath)
	assert.Equal(t, "/maps", cfg.UploadFolder)
	assert.Equal(t, 500*time.Millisecond, cfg.WatchDebounce)
	assert.Equal(t, "dbx-key", cfg.Dropbox.ClientID)
	assert.Equal(t, "gd-key", cfg.GDrive.ClientID)
	assert.Equal(t, "1AbCdEf", cfg.GDrive.FolderID)
}

func TestLoadFrom_Env(t *testing.T) {
	t.Setenv("MAPSHARE_PORT", "7070")
	t.Setenv("MAPSHARE_DROPBOX_CLIENT_ID", "from-env")

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "from-env", cfg.Dropbox.ClientID)
}

func TestLoadFrom_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("storage: s3\n"), 0o644))

	_, err := LoadFrom(dir)
	assert.ErrorContains(t, err, "unknown storage backend")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("port: 70000\n"), 0o644))

	_, err = LoadFrom(dir)
	assert.ErrorContains(t, err, "invalid port")
}

func TestLoadFrom_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("port: [\n"), 0o644))

	_, err := LoadFrom(dir)
	assert.ErrorContains(t, err, "failed to read config file")
}
