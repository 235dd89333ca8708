package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".ecoaudit"

var (
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidConfigFile is returned when the configuration file cannot be parsed.
	ErrInvalidConfigFile = errors.New("invalid configuration file")
)

// LoadConfigFile loads the YAML configuration file at path.
// If the file does not exist, it returns ErrConfigNotFound; callers decide
// whether that matters depending on whether the path was given explicitly.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfigFile, path, err)
	}

	if cf.Sites == nil {
		cf.Sites = make(map[string]SiteConfig)
	}
	if cf.Video.ProbeTimeout < 0 {
		return nil, fmt.Errorf("%w: %s: video.probeTimeout must be positive", ErrInvalidConfigFile, path)
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .ecoaudit in the current directory
// 3. Look for .ecoaudit in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// ApplyFile stores f in the config and copies its video and proxy settings into
// fields the user did not set on the command line. changed reports whether
// a flag was set explicitly.
func (c *Config) ApplyFile(f *File, changed func(flag string) bool) {
	c.File = f
	if f == nil {
		return
	}
	if f.Video.FFProbe != "" && !changed("ffprobe") {
		c.FFProbePath = f.Video.FFProbe
	}
	if f.Video.ProbeTimeout > 0 && !changed("probe-timeout") {
		c.ProbeTimeout = f.Video.ProbeTimeout
	}
	if f.Video.Skip && !changed("skip-video") {
		c.SkipVideo = true
	}
	if f.Proxy != "" && !changed("proxy") {
		c.ProxyAddress = f.Proxy
	}
}
