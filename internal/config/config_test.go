package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig pins the default values so that a change to a default is a
// deliberate, test-visible decision.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Concurrency is 5", func(t *testing.T) {
		t.Parallel()
		if cfg.Concurrency != 5 {
			t.Errorf("expected Concurrency to be 5, got %d", cfg.Concurrency)
		}
	})

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default MaxDepth is 100", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxDepth != 100 {
			t.Errorf("expected MaxDepth to be 100, got %d", cfg.MaxDepth)
		}
	})

	t.Run("default Limit is unlimited", func(t *testing.T) {
		t.Parallel()
		if cfg.Limit != 0 {
			t.Errorf("expected Limit to be 0, got %d", cfg.Limit)
		}
	})

	t.Run("default RestrictToDomain is false", func(t *testing.T) {
		t.Parallel()
		if cfg.RestrictToDomain {
			t.Error("expected RestrictToDomain to be false")
		}
	})

	t.Run("default LogFormat is text", func(t *testing.T) {
		t.Parallel()
		if cfg.LogFormat != LogFormatText {
			t.Errorf("expected LogFormat to be %q, got %q", LogFormatText, cfg.LogFormat)
		}
	})

	t.Run("SiteConfigs is initialized", func(t *testing.T) {
		t.Parallel()
		if cfg.SiteConfigs == nil || cfg.SiteConfigs.Sites == nil {
			t.Error("expected SiteConfigs to be initialized")
		}
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Seed = "example.com"
		return cfg
	}

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()
		if err := validConfig().Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{name: "empty seed", modify: func(c *Config) { c.Seed = "" }, want: ErrNoSeed},
		{name: "negative limit", modify: func(c *Config) { c.Limit = -1 }, want: ErrInvalidLimit},
		{name: "zero concurrency", modify: func(c *Config) { c.Concurrency = 0 }, want: ErrInvalidConcurrency},
		{name: "negative concurrency", modify: func(c *Config) { c.Concurrency = -3 }, want: ErrInvalidConcurrency},
		{name: "zero timeout", modify: func(c *Config) { c.Timeout = 0 }, want: ErrInvalidTimeout},
		{name: "negative depth", modify: func(c *Config) { c.MaxDepth = -1 }, want: ErrInvalidMaxDepth},
		{name: "negative delay", modify: func(c *Config) { c.CrawlDelay = -time.Second }, want: ErrInvalidCrawlDelay},
		{name: "negative body size", modify: func(c *Config) { c.MaxBodySize = -1 }, want: ErrInvalidMaxBodySize},
		{
			name: "json and markdown together",
			modify: func(c *Config) {
				c.JSONReport = true
				c.MarkdownReport = true
			},
			want: ErrConflictingReportFormats,
		},
		{name: "unknown log format", modify: func(c *Config) { c.LogFormat = "xml" }, want: ErrInvalidLogFormat},
		{name: "proxy without port", modify: func(c *Config) { c.ProxyAddress = "127.0.0.1" }, want: ErrInvalidProxyAddress},
		{name: "proxy with port out of range", modify: func(c *Config) { c.ProxyAddress = "127.0.0.1:70000" }, want: ErrInvalidProxyAddress},
		{name: "proxy without host", modify: func(c *Config) { c.ProxyAddress = ":9050" }, want: ErrInvalidProxyAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	t.Run("zero limit means unlimited and is valid", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Limit = 0
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("valid proxy address", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.ProxyAddress = "127.0.0.1:9050"
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("pretty log format is valid", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.LogFormat = LogFormatPretty
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

func TestConfigWritesStructuredReport(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if cfg.WritesStructuredReport() {
		t.Error("expected no structured report by default")
	}
	cfg.MarkdownReport = true
	if !cfg.WritesStructuredReport() {
		t.Error("expected structured report with MarkdownReport set")
	}
}

func TestFileSiteConfig(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: SiteConfig{
			Depth:          5,
			Headers:        map[string]string{"Accept-Language": "en"},
			IgnorePatterns: []string{"*.pdf"},
		},
		Sites: map[string]SiteConfig{
			"www.Example.com": {
				Cookie:  "session=abc",
				Headers: map[string]string{"X-Token": "t"},
			},
			"docs.example.com": {
				Depth:          2,
				FollowPatterns: []string{"/guide/*"},
				IgnorePatterns: []string{"/private/*"},
			},
		},
	}

	t.Run("unknown host gets defaults", func(t *testing.T) {
		t.Parallel()
		sc := cf.SiteConfig("other.org")
		if sc.Depth != 5 {
			t.Errorf("expected depth 5, got %d", sc.Depth)
		}
		if sc.Cookie != "" {
			t.Errorf("expected no cookie, got %q", sc.Cookie)
		}
		if len(sc.IgnorePatterns) != 1 || sc.IgnorePatterns[0] != "*.pdf" {
			t.Errorf("expected default ignore patterns, got %v", sc.IgnorePatterns)
		}
	})

	t.Run("www prefix and case are ignored", func(t *testing.T) {
		t.Parallel()
		sc := cf.SiteConfig("example.com")
		if sc.Cookie != "session=abc" {
			t.Errorf("expected cookie from site entry, got %q", sc.Cookie)
		}
		if sc.Headers["X-Token"] != "t" || sc.Headers["Accept-Language"] != "en" {
			t.Errorf("expected merged headers, got %v", sc.Headers)
		}
	})

	t.Run("site values override defaults", func(t *testing.T) {
		t.Parallel()
		sc := cf.SiteConfig("docs.example.com")
		if sc.Depth != 2 {
			t.Errorf("expected depth 2, got %d", sc.Depth)
		}
		if len(sc.IgnorePatterns) != 1 || sc.IgnorePatterns[0] != "/private/*" {
			t.Errorf("expected site ignore patterns, got %v", sc.IgnorePatterns)
		}
		if len(sc.FollowPatterns) != 1 {
			t.Errorf("expected 1 follow pattern, got %d", len(sc.FollowPatterns))
		}
	})

	t.Run("merging does not mutate defaults", func(t *testing.T) {
		t.Parallel()
		_ = cf.SiteConfig("www.example.com")
		if _, ok := cf.Defaults.Headers["X-Token"]; ok {
			t.Error("expected default headers to stay untouched")
		}
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.linkscan")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), ".linkscan")

		content := `defaults:
  depth: 50
sites:
  example.com:
    cookie: "session=xyz"
    headers:
      Authorization: "Bearer token"
    ignorePatterns:
      - "/logout*"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Defaults.Depth != 50 {
			t.Errorf("expected default depth 50, got %d", cfg.Defaults.Depth)
		}
		site, ok := cfg.Sites["example.com"]
		if !ok {
			t.Fatal("expected example.com in sites")
		}
		if site.Headers["Authorization"] != "Bearer token" {
			t.Errorf("expected Authorization header, got %v", site.Headers)
		}
		if len(site.IgnorePatterns) != 1 {
			t.Errorf("expected 1 ignore pattern, got %d", len(site.IgnorePatterns))
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), ".linkscan")

		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), ".linkscan")

		if err := os.WriteFile(configPath, []byte("defaults:\n  depth: 25\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if got := FindConfigFile(configPath); got != configPath {
			t.Errorf("expected %q, got %q", configPath, got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()
		if got := FindConfigFile("/nonexistent/path/config.yaml"); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

func TestXDGConfigFile(t *testing.T) {
	t.Parallel()

	if XDGConfigDir() == "" {
		t.Error("expected non-empty XDG config dir")
	}
	if filepath.Base(XDGConfigFile()) != "config.yaml" {
		t.Errorf("expected config.yaml, got %q", XDGConfigFile())
	}
	if filepath.Base(XDGConfigDir()) != AppName {
		t.Errorf("expected directory named %q, got %q", AppName, XDGConfigDir())
	}
}
