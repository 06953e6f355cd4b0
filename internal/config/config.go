package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// APIBaseURL is the marketplace backend root
	APIBaseURL string `yaml:"apiBaseURL" validate:"required,url"`
	// GeocoderURL is the Nominatim-style reverse geocoding endpoint
	GeocoderURL string `yaml:"geocoderURL" validate:"required,url"`
	// TokenPath points at the stored session token file
	TokenPath string `yaml:"tokenPath" validate:"required"`
	// CachePath is the sqlite cache database location
	CachePath string `yaml:"cachePath,omitempty"`
	// CacheTTLMinutes overrides the 5-minute collection staleness window
	CacheTTLMinutes int `yaml:"cacheTTLMinutes,omitempty" validate:"omitempty,min=1"`

	// Device defaults for the CLI: coordinates and photo locations stand in
	// for the sensors a phone would provide
	Latitude    *float64 `yaml:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude   *float64 `yaml:"longitude,omitempty" validate:"omitempty,longitude"`
	CameraPath  string   `yaml:"cameraPath,omitempty"`
	GalleryPath string   `yaml:"galleryPath,omitempty"`

	// WatchSchedule is the cron spec for the watch command's polling
	// refresh of the job collections
	WatchSchedule string `yaml:"watchSchedule,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// configFileName returns the per-environment config file name
func configFileName(env string) string {
	if env == "" {
		return "inspector_config.yaml"
	}
	return fmt.Sprintf("inspector_config.%s.yaml", env)
}

// Load loads and validates the configuration for the default environment
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads and validates the configuration for a named
// environment. It looks for the config file in the current directory first,
// then in the user's home directory.
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(configFileName(env))
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}
	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.GeocoderURL == "" {
		cfg.GeocoderURL = "https://nominatim.openstreetmap.org"
	}
	if cfg.CachePath == "" {
		cfg.CachePath = defaultCachePath()
	}
	if cfg.WatchSchedule == "" {
		cfg.WatchSchedule = "@every 5m"
	}
}

func defaultCachePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "inspector_cache.db"
	}
	return filepath.Join(homeDir, ".inspector", "cache.db")
}

// findConfigFile searches for the config file in the current directory and
// the home directory
func findConfigFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("config file %s not found in current directory or home directory", name)
}
