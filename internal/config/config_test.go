package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestNewConfig documents the default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Timeout is 2 minutes", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 2*time.Minute {
			t.Errorf("expected Timeout to be 2m, got %v", cfg.Timeout)
		}
	})

	t.Run("default BatchSize is 4", func(t *testing.T) {
		t.Parallel()
		if cfg.BatchSize != 4 {
			t.Errorf("expected BatchSize to be 4, got %d", cfg.BatchSize)
		}
	})

	t.Run("default ffprobe settings", func(t *testing.T) {
		t.Parallel()
		if cfg.FFProbePath != "ffprobe" {
			t.Errorf("expected FFProbePath to be 'ffprobe', got %q", cfg.FFProbePath)
		}
		if cfg.ProbeTimeout != 30*time.Second {
			t.Errorf("expected ProbeTimeout to be 30s, got %v", cfg.ProbeTimeout)
		}
		if cfg.SkipVideo {
			t.Error("expected SkipVideo to be false")
		}
	})

	t.Run("history is saved to the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB to be true")
		}
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir %q, got %q", XDGDataDir(), cfg.DBDir)
		}
	})

	t.Run("default report format is text", func(t *testing.T) {
		t.Parallel()
		if cfg.JSONReport || cfg.MarkdownReport {
			t.Error("expected text report by default")
		}
	})
}

// TestConfigValidate tests one validation rule per case.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []string{"https://example.com/"}
		return cfg
	}

	testCases := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"valid config", func(*Config) {}, nil},
		{"multiple targets", func(c *Config) { c.Targets = append(c.Targets, "https://example.org/") }, nil},
		{"offline run", func(c *Config) {
			c.Targets = nil
			c.HTMLFile = "index.html"
			c.CSSFiles = []string{"site.css"}
			c.FinalURL = "https://example.com/"
		}, nil},
		{"no target", func(c *Config) { c.Targets = nil }, ErrNoTarget},
		{"URL and html file", func(c *Config) { c.HTMLFile = "index.html" }, ErrConflictingTargets},
		{"css without html", func(c *Config) { c.CSSFiles = []string{"site.css"} }, ErrFileOptionsWithoutHTML},
		{"final URL without html", func(c *Config) { c.FinalURL = "https://example.com/" }, ErrFileOptionsWithoutHTML},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, ErrInvalidTimeout},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"json and markdown", func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, ErrConflictingReportFormats},
		{"json only", func(c *Config) { c.JSONReport = true }, nil},
		{"markdown only", func(c *Config) { c.MarkdownReport = true }, nil},
		{"negative body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"negative stylesheet limit", func(c *Config) { c.MaxStylesheets = -1 }, ErrInvalidMaxStylesheets},
		{"zero probe timeout", func(c *Config) { c.ProbeTimeout = 0 }, ErrInvalidProbeTimeout},
		{"zero probe timeout with video skipped", func(c *Config) {
			c.ProbeTimeout = 0
			c.SkipVideo = true
		}, nil},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.modify(cfg)

			err := cfg.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

// TestFileGetSiteConfig tests merging of defaults and site settings.
func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	file := &File{
		Defaults: SiteConfig{
			Cookie:  "consent=yes",
			Headers: map[string]string{"Accept-Language": "en", "X-Env": "default"},
		},
		Sites: map[string]SiteConfig{
			"www.example.com": {
				Cookie:  "session=abc",
				Headers: map[string]string{"X-Env": "site"},
			},
		},
	}

	t.Run("returns defaults when site not found", func(t *testing.T) {
		t.Parallel()
		got := file.GetSiteConfig("other.example.com")
		if got.Cookie != "consent=yes" || got.Headers["X-Env"] != "default" {
			t.Errorf("unexpected config %+v", got)
		}
	})

	t.Run("site overrides defaults and merges headers", func(t *testing.T) {
		t.Parallel()
		got := file.GetSiteConfig("www.example.com")
		if got.Cookie != "session=abc" {
			t.Errorf("expected site cookie, got %q", got.Cookie)
		}
		if got.Headers["X-Env"] != "site" || got.Headers["Accept-Language"] != "en" {
			t.Errorf("unexpected headers %v", got.Headers)
		}
	})

	t.Run("defaults are not modified", func(t *testing.T) {
		t.Parallel()
		_ = file.GetSiteConfig("www.example.com")
		if file.Defaults.Headers["X-Env"] != "default" {
			t.Error("defaults were modified by a site lookup")
		}
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `defaults:
  headers:
    Accept-Language: en
sites:
  www.example.com:
    cookie: "session=abc"
video:
  ffprobe: /opt/ffmpeg/bin/ffprobe
  probeTimeout: 45s
category:
  weights:
    video-codec: 5
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Sites["www.example.com"].Cookie != "session=abc" {
			t.Errorf("unexpected sites %+v", cf.Sites)
		}
		if cf.Video.FFProbe != "/opt/ffmpeg/bin/ffprobe" || cf.Video.ProbeTimeout != 45*time.Second {
			t.Errorf("unexpected video config %+v", cf.Video)
		}
		if cf.Category.Weights["video-codec"] != 5 {
			t.Errorf("unexpected weights %v", cf.Category.Weights)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("sites: [unclosed"), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := LoadConfigFile(path)
		if !errors.Is(err, ErrInvalidConfigFile) {
			t.Errorf("expected ErrInvalidConfigFile, got %v", err)
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("defaults:\n  cookie: a=b\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Sites == nil {
			t.Error("expected Sites to be initialized")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("got %q, expected %q", got, path)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()
		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); got != "" {
			t.Errorf("expected empty path, got %q", got)
		}
	})
}

func TestApplyFile(t *testing.T) {
	t.Parallel()

	file := &File{
		Video: VideoConfig{FFProbe: "/usr/local/bin/ffprobe", ProbeTimeout: time.Minute, Skip: true},
		Proxy: "127.0.0.1:1080",
	}

	t.Run("fills unset flags", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.ApplyFile(file, func(string) bool { return false })

		if cfg.File != file {
			t.Error("expected file to be stored")
		}
		if cfg.FFProbePath != "/usr/local/bin/ffprobe" || cfg.ProbeTimeout != time.Minute || !cfg.SkipVideo {
			t.Errorf("file settings not applied: %+v", cfg)
		}
		if cfg.ProxyAddress != "127.0.0.1:1080" {
			t.Errorf("ProxyAddress = %q, want 127.0.0.1:1080", cfg.ProxyAddress)
		}
	})

	t.Run("explicit flags win", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.FFProbePath = "ffprobe-6"
		cfg.ApplyFile(file, func(name string) bool { return name == "ffprobe" || name == "proxy" })

		if cfg.FFProbePath != "ffprobe-6" {
			t.Errorf("explicit flag was overridden: %q", cfg.FFProbePath)
		}
		if cfg.ProxyAddress != "" {
			t.Errorf("explicit empty --proxy was overridden: %q", cfg.ProxyAddress)
		}
	})

	t.Run("nil file", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.ApplyFile(nil, func(string) bool { return false })
		if cfg.FFProbePath != DefaultFFProbePath {
			t.Errorf("unexpected ffprobe path %q", cfg.FFProbePath)
		}
	})
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{"data": XDGDataDir(), "config": XDGConfigDir()} {
		if !strings.HasSuffix(dir, AppName) {
			t.Errorf("%s dir %q does not end with %q", name, dir, AppName)
		}
	}
}
