package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/devclean/internal/executor"
	"github.com/fenilsonani/devclean/internal/gitsafe"
)

// =============================================================================
// Default Tests
// =============================================================================

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if cfg == nil {
		t.Fatal("Default returned nil")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate, got: %v", err)
	}

	if cfg.DeleteMethod != "trash" {
		t.Errorf("expected default delete_method trash, got %q", cfg.DeleteMethod)
	}
	if cfg.ProtectionLevel != "warn" {
		t.Errorf("expected default protection_level warn, got %q", cfg.ProtectionLevel)
	}
	if !cfg.SkipHidden {
		t.Error("expected skip_hidden enabled by default")
	}
	if len(cfg.DefaultPaths) == 0 {
		t.Error("expected default scan paths")
	}
}

func TestDefaultYAMLMatchesDefault(t *testing.T) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(defaultYAML), &cfg); err != nil {
		t.Fatalf("default template does not parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default template does not validate: %v", err)
	}
	if want := Default(); !reflect.DeepEqual(&cfg, want) {
		t.Errorf("template drifted from Default():\n got %+v\nwant %+v", cfg, *want)
	}
}

// =============================================================================
// Validate Tests
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "default is valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "no scan paths",
			mutate:  func(c *Config) { c.DefaultPaths = nil },
			wantErr: "default_paths",
		},
		{
			name:    "zero max depth",
			mutate:  func(c *Config) { c.MaxDepth = 0 },
			wantErr: "max_depth",
		},
		{
			name:    "negative max depth",
			mutate:  func(c *Config) { c.MaxDepth = -1 },
			wantErr: "max_depth",
		},
		{
			name:    "unparseable min size",
			mutate:  func(c *Config) { c.MinSize = "lots" },
			wantErr: "min_size",
		},
		{
			name:    "unknown delete method",
			mutate:  func(c *Config) { c.DeleteMethod = "shred" },
			wantErr: "delete method",
		},
		{
			name:    "unknown protection level",
			mutate:  func(c *Config) { c.ProtectionLevel = "extreme" },
			wantErr: "protection level",
		},
		{
			name:    "bad exclude pattern",
			mutate:  func(c *Config) { c.ExcludePatterns = []string{"[unclosed"} },
			wantErr: "exclude pattern",
		},
		{
			name:    "negative xcode window",
			mutate:  func(c *Config) { c.XcodeRecencyDays = -1 },
			wantErr: "xcode_recency_days",
		},
		{
			name:    "bad analysis size",
			mutate:  func(c *Config) { c.Analysis.StaleMinSize = "huge" },
			wantErr: "stale_min_size",
		},
		{
			name:    "ratio above one",
			mutate:  func(c *Config) { c.Analysis.VenvOverlapRatio = 1.5 },
			wantErr: "venv_overlap_ratio",
		},
		{
			name:    "negative count",
			mutate:  func(c *Config) { c.Analysis.StaleDays = -10 },
			wantErr: "stale_days",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error mentioning %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

// =============================================================================
// Load Tests
// =============================================================================

func TestLoadWithoutConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.MaxDepth != Default().MaxDepth {
		t.Errorf("MaxDepth = %d, want default %d", cfg.MaxDepth, Default().MaxDepth)
	}
	if cfg.DeleteMethod != "trash" {
		t.Errorf("DeleteMethod = %q, want trash", cfg.DeleteMethod)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "max_depth: 4\nprotection_level: block\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.MaxDepth != 4 {
		t.Errorf("MaxDepth = %d, want 4", cfg.MaxDepth)
	}
	if cfg.Protection() != gitsafe.ProtectionBlock {
		t.Errorf("Protection = %v, want block", cfg.Protection())
	}
	// Untouched keys keep their defaults.
	if !cfg.SkipHidden {
		t.Error("SkipHidden should remain the default true")
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for an explicit config path that does not exist")
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("max_depth: 0\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(viper.New(), path); err == nil {
		t.Error("expected validation error for max_depth 0")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DEVCLEAN_MAX_DEPTH", "3")
	t.Setenv("DEVCLEAN_ANALYSIS_STALE_DAYS", "90")

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.MaxDepth != 3 {
		t.Errorf("MaxDepth = %d, want 3 from environment", cfg.MaxDepth)
	}
	if cfg.Analysis.StaleDays != 90 {
		t.Errorf("StaleDays = %d, want 90 from environment", cfg.Analysis.StaleDays)
	}
}

// =============================================================================
// Accessor Tests
// =============================================================================

func TestResolvedAccessors(t *testing.T) {
	cfg := Default()
	cfg.DeleteMethod = "dry-run"
	cfg.ProtectionLevel = "paranoid"
	cfg.MinSize = "2KB"

	if cfg.Mode() != executor.ModeDryRun {
		t.Errorf("Mode = %v, want dry-run", cfg.Mode())
	}
	if cfg.Protection() != gitsafe.ProtectionParanoid {
		t.Errorf("Protection = %v, want paranoid", cfg.Protection())
	}
	if cfg.MinSizeBytes() != 2000 {
		t.Errorf("MinSizeBytes = %d, want 2000", cfg.MinSizeBytes())
	}
	if cfg.XcodeRecency() != 7*24*time.Hour {
		t.Errorf("XcodeRecency = %v, want 7 days", cfg.XcodeRecency())
	}
}

func TestAnalysisOptions(t *testing.T) {
	cfg := Default()
	cfg.Analysis.StaleDays = 90
	cfg.Analysis.StaleMinSize = "10MB"

	opts := cfg.AnalysisOptions()
	if opts.StaleAfter != 90*24*time.Hour {
		t.Errorf("StaleAfter = %v, want 90 days", opts.StaleAfter)
	}
	if opts.StaleMinSize != 10*1000*1000 {
		t.Errorf("StaleMinSize = %d, want 10MB", opts.StaleMinSize)
	}
	if opts.GitMaxLoose != 1000 {
		t.Errorf("GitMaxLoose = %d, want 1000", opts.GitMaxLoose)
	}
	if opts.RustSharedRatio != 0.35 {
		t.Errorf("RustSharedRatio = %v, want 0.35", opts.RustSharedRatio)
	}
}

// =============================================================================
// Path Helper Tests
// =============================================================================

func TestExpandPaths(t *testing.T) {
	home := "/home/dev"
	tests := []struct {
		in   string
		want string
	}{
		{"~", "/home/dev"},
		{"~/Projects", "/home/dev/Projects"},
		{"/var/tmp", "/var/tmp"},
		{"/a/../b", "/b"},
	}
	for _, tt := range tests {
		got := ExpandPaths([]string{tt.in}, home)
		if len(got) != 1 || got[0] != tt.want {
			t.Errorf("ExpandPaths(%q) = %v, want [%q]", tt.in, got, tt.want)
		}
	}
}

func TestExistingDirs(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	got := ExistingDirs([]string{dir, file, filepath.Join(dir, "missing")})
	if len(got) != 1 || got[0] != dir {
		t.Errorf("ExistingDirs = %v, want [%q]", got, dir)
	}
}

// =============================================================================
// WriteDefault Tests
// =============================================================================

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}
	if !strings.HasPrefix(string(data), "# devclean configuration") {
		t.Error("written config should start with the comment header")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config does not parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("written config does not validate: %v", err)
	}

	if err := WriteDefault(path); err == nil {
		t.Error("expected error when the config file already exists")
	}
}
