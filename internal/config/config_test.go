package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"framecut/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.Prefetch.Window != 2 {
		t.Fatalf("prefetch.window = %d, want 2", cfg.Prefetch.Window)
	}
	if cfg.Generate.CRF != 18 {
		t.Fatalf("generate.crf = %d, want 18", cfg.Generate.CRF)
	}
	if cfg.AutoSplit.Algorithm != "histogram" {
		t.Fatalf("auto_split.algorithm = %q, want histogram", cfg.AutoSplit.Algorithm)
	}
	if !filepath.IsAbs(cfg.Paths.ScratchDir) {
		t.Fatalf("scratch dir not expanded: %q", cfg.Paths.ScratchDir)
	}
}

func TestLoadOverridesAndNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[paths]
log_dir = "~/framecut-logs"

[prefetch]
window = 4

[auto_split]
algorithm = "SSIM"

[unattended]
on_success = "DELETE"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Prefetch.Window != 4 {
		t.Fatalf("prefetch.window = %d, want 4", cfg.Prefetch.Window)
	}
	if cfg.AutoSplit.Algorithm != "ssim" {
		t.Fatalf("algorithm not lowercased: %q", cfg.AutoSplit.Algorithm)
	}
	if cfg.Unattended.OnSuccess != "delete" {
		t.Fatalf("on_success not lowercased: %q", cfg.Unattended.OnSuccess)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("home dir: %v", err)
	}
	if cfg.Paths.LogDir != filepath.Join(home, "framecut-logs") {
		t.Fatalf("log dir not expanded: %q", cfg.Paths.LogDir)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"empty ffmpeg", func(c *config.Config) { c.Tools.FFmpeg = "" }, "tools.ffmpeg"},
		{"threshold above one", func(c *config.Config) { c.AutoSplit.Threshold = 1.5 }, "auto_split.threshold"},
		{"unknown algorithm", func(c *config.Config) { c.AutoSplit.Algorithm = "perceptual" }, "auto_split.algorithm"},
		{"crf out of range", func(c *config.Config) { c.Generate.CRF = 99 }, "generate.crf"},
		{"unknown disposition", func(c *config.Config) { c.Unattended.OnSuccess = "archive" }, "unattended.on_success"},
		{"unknown log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.want)
			}
		})
	}
}

func TestLoadRejectsMalformedToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[paths\nlog_dir = "), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	defaults := config.Default()
	if cfg.Generate.CRF != defaults.Generate.CRF {
		t.Fatalf("sample crf = %d, want default %d", cfg.Generate.CRF, defaults.Generate.CRF)
	}
	if cfg.AutoSplit.Threshold != defaults.AutoSplit.Threshold {
		t.Fatalf("sample threshold = %g, want default %g", cfg.AutoSplit.Threshold, defaults.AutoSplit.Threshold)
	}
}
