package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileIsError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err, "a misspelled config path must not fall back to defaults")
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "pcsc", cfg.Reader.Type)
	assert.Equal(t, 10*time.Second, cfg.Submit.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scanner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
reader:
  type: sim
submit:
  endpoint: http://localhost:8080/api/v1/scans
  timeout: 3s
materials_file: /etc/spoolscan/materials.json
poll_interval: 100ms
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sim", cfg.Reader.Type)
	assert.Equal(t, "http://localhost:8080/api/v1/scans", cfg.Submit.Endpoint)
	assert.Equal(t, 3*time.Second, cfg.Submit.Timeout)
	assert.Equal(t, "/etc/spoolscan/materials.json", cfg.MaterialsFile)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
}

func TestLoadPartialFileKeepsRemainingDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scanner.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reader:\n  type: sim\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sim", cfg.Reader.Type)
	assert.Equal(t, 10*time.Second, cfg.Submit.Timeout, "unset fields keep their defaults")
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scanner.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reader: [broken"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
