package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidConfig(t *testing.T) {
	lat, lon := 25.01, 55.06
	cfg := &Config{
		APIBaseURL:      "https://api.example.com",
		GeocoderURL:     "https://nominatim.openstreetmap.org",
		TokenPath:       "/home/user/.inspector/token",
		CachePath:       "/home/user/.inspector/cache.db",
		CacheTTLMinutes: 5,
		Latitude:        &lat,
		Longitude:       &lon,
	}

	err := Validate(cfg)
	assert.NoError(t, err)
}

func TestValidate_MinimalConfig(t *testing.T) {
	cfg := &Config{
		APIBaseURL:  "https://api.example.com",
		GeocoderURL: "https://nominatim.openstreetmap.org",
		TokenPath:   "token",
	}

	err := Validate(cfg)
	assert.NoError(t, err)
}

func TestValidate_MissingRequiredField(t *testing.T) {
	cfg := &Config{
		GeocoderURL: "https://nominatim.openstreetmap.org",
		TokenPath:   "token",
		// Missing APIBaseURL
	}

	err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidate_BadCoordinates(t *testing.T) {
	lat := 123.0
	cfg := &Config{
		APIBaseURL:  "https://api.example.com",
		GeocoderURL: "https://nominatim.openstreetmap.org",
		TokenPath:   "token",
		Latitude:    &lat,
	}

	err := Validate(cfg)
	assert.Error(t, err)
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inspector_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
apiBaseURL: https://api.example.com
tokenPath: /tmp/token
`), 0644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	// Defaults are applied before validation
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.GeocoderURL)
	assert.NotEmpty(t, cfg.CachePath)
	assert.Equal(t, "@every 5m", cfg.WatchSchedule)
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apiBaseURL: [nope"), 0644))

	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestLoadFromPath_Missing(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConfigFileName(t *testing.T) {
	assert.Equal(t, "inspector_config.yaml", configFileName(""))
	assert.Equal(t, "inspector_config.test.yaml", configFileName("test"))
}
