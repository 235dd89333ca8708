package config

import (
	"maps"
	"time"
)

// SiteConfig holds request settings for a single host.
type SiteConfig struct {
	// Cookie is an HTTP cookie to send, e.g. to get past a consent wall.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this host.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// VideoConfig holds settings of the video-codec audit.
type VideoConfig struct {
	// FFProbe is the path of the ffprobe binary.
	FFProbe string `yaml:"ffprobe,omitempty"`

	// ProbeTimeout bounds a single probe, e.g. "30s".
	ProbeTimeout time.Duration `yaml:"probeTimeout,omitempty"`

	// Skip disables the video-codec audit.
	Skip bool `yaml:"skip,omitempty"`
}

// CategoryConfig holds overrides of the category weights.
type CategoryConfig struct {
	// Weights maps audit IDs to their weight in the category score.
	Weights map[string]float64 `yaml:"weights,omitempty"`
}

// File represents the structure of the .ecoaudit configuration file.
type File struct {
	// Sites maps host names (e.g. "www.example.com") to request settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains request settings applied to every host unless
	// overridden in Sites.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Video configures the video-codec audit.
	Video VideoConfig `yaml:"video,omitempty"`

	// Category overrides category weights.
	Category CategoryConfig `yaml:"category,omitempty"`

	// Proxy is a SOCKS5 proxy address (host:port) used for every request.
	Proxy string `yaml:"proxy,omitempty"`
}

// GetSiteConfig returns the request settings for host.
// Site settings override the defaults; headers are merged.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := SiteConfig{
		Cookie:  cf.Defaults.Cookie,
		Headers: maps.Clone(cf.Defaults.Headers),
	}

	siteConfig, ok := cf.Sites[host]
	if !ok {
		return result
	}
	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(siteConfig.Headers))
		}
		maps.Copy(result.Headers, siteConfig.Headers)
	}
	return result
}
