// Package config owns the resolved configuration consumed by the core
// packages. Values merge in viper from defaults, the config file
// (~/.config/devclean/config.yaml), DEVCLEAN_* environment variables, and
// bound flags, in that order. Validation errors are the one fatal error
// class: nothing useful can run on a broken configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/devclean/internal/analysis"
	"github.com/fenilsonani/devclean/internal/executor"
	"github.com/fenilsonani/devclean/internal/gitsafe"
	"github.com/fenilsonani/devclean/pkg/utils"
)

// Config is the resolved application configuration
type Config struct {
	// DefaultPaths are the scan roots used when the command line names none.
	DefaultPaths []string `yaml:"default_paths" mapstructure:"default_paths"`
	// MaxDepth bounds scan recursion in directory levels from each root.
	MaxDepth int `yaml:"max_depth" mapstructure:"max_depth"`
	// SkipHidden stops descent into dot-directories that are not markers.
	SkipHidden bool `yaml:"skip_hidden" mapstructure:"skip_hidden"`
	// MinSize hides items smaller than this from reports, e.g. "10MB".
	MinSize string `yaml:"min_size" mapstructure:"min_size"`
	// DeleteMethod is trash, permanent, or dry-run.
	DeleteMethod string `yaml:"delete_method" mapstructure:"delete_method"`
	// ProtectionLevel is none, warn, block, or paranoid.
	ProtectionLevel string `yaml:"protection_level" mapstructure:"protection_level"`
	// ExcludePatterns are doublestar globs dropped during the walk.
	ExcludePatterns []string `yaml:"exclude_patterns" mapstructure:"exclude_patterns"`
	// Verbose lowers the log level to debug.
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
	// XcodeRecencyDays is the window in which DerivedData counts as recent.
	XcodeRecencyDays int `yaml:"xcode_recency_days" mapstructure:"xcode_recency_days"`

	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
}

// AnalysisConfig tunes the advisory engine thresholds. Sizes are humanized
// strings, ratios are fractions of the inspected bytes.
type AnalysisConfig struct {
	GitMinRepoSize   string  `yaml:"git_min_repo_size" mapstructure:"git_min_repo_size"`
	GitMaxLoose      int     `yaml:"git_max_loose" mapstructure:"git_max_loose"`
	GitSavingsRatio  float64 `yaml:"git_savings_ratio" mapstructure:"git_savings_ratio"`
	StaleDays        int     `yaml:"stale_days" mapstructure:"stale_days"`
	StaleMinSize     string  `yaml:"stale_min_size" mapstructure:"stale_min_size"`
	VenvMinCount     int     `yaml:"venv_min_count" mapstructure:"venv_min_count"`
	VenvMinTotal     string  `yaml:"venv_min_total" mapstructure:"venv_min_total"`
	VenvOverlapRatio float64 `yaml:"venv_overlap_ratio" mapstructure:"venv_overlap_ratio"`
	RustMinCount     int     `yaml:"rust_min_count" mapstructure:"rust_min_count"`
	RustSharedRatio  float64 `yaml:"rust_shared_ratio" mapstructure:"rust_shared_ratio"`
}

// Load resolves configuration through v. cfgFile, when non-empty, names an
// explicit config file that must exist; otherwise the default location is
// searched and a missing file just means defaults.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := DefaultDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix("DEVCLEAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so env vars and Unmarshal see the full
// schema even without a config file
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("default_paths", d.DefaultPaths)
	v.SetDefault("max_depth", d.MaxDepth)
	v.SetDefault("skip_hidden", d.SkipHidden)
	v.SetDefault("min_size", d.MinSize)
	v.SetDefault("delete_method", d.DeleteMethod)
	v.SetDefault("protection_level", d.ProtectionLevel)
	v.SetDefault("exclude_patterns", d.ExcludePatterns)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("xcode_recency_days", d.XcodeRecencyDays)
	v.SetDefault("analysis.git_min_repo_size", d.Analysis.GitMinRepoSize)
	v.SetDefault("analysis.git_max_loose", d.Analysis.GitMaxLoose)
	v.SetDefault("analysis.git_savings_ratio", d.Analysis.GitSavingsRatio)
	v.SetDefault("analysis.stale_days", d.Analysis.StaleDays)
	v.SetDefault("analysis.stale_min_size", d.Analysis.StaleMinSize)
	v.SetDefault("analysis.venv_min_count", d.Analysis.VenvMinCount)
	v.SetDefault("analysis.venv_min_total", d.Analysis.VenvMinTotal)
	v.SetDefault("analysis.venv_overlap_ratio", d.Analysis.VenvOverlapRatio)
	v.SetDefault("analysis.rust_min_count", d.Analysis.RustMinCount)
	v.SetDefault("analysis.rust_shared_ratio", d.Analysis.RustSharedRatio)
}

// Validate rejects configurations the core cannot run on. A nil return
// guarantees every accessor below resolves without error.
func (c *Config) Validate() error {
	if len(c.DefaultPaths) == 0 {
		return fmt.Errorf("default_paths must list at least one scan root")
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be at least 1, got %d", c.MaxDepth)
	}
	if c.MinSize != "" {
		if _, err := utils.ParseSize(c.MinSize); err != nil {
			return fmt.Errorf("invalid min_size %q: %w", c.MinSize, err)
		}
	}
	if _, err := executor.ParseMode(c.DeleteMethod); err != nil {
		return err
	}
	if _, err := gitsafe.ParseProtectionLevel(c.ProtectionLevel); err != nil {
		return err
	}
	for _, pattern := range c.ExcludePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	if c.XcodeRecencyDays < 0 {
		return fmt.Errorf("xcode_recency_days must be >= 0, got %d", c.XcodeRecencyDays)
	}
	return c.Analysis.validate()
}

func (a *AnalysisConfig) validate() error {
	for _, size := range []struct {
		key   string
		value string
	}{
		{"analysis.git_min_repo_size", a.GitMinRepoSize},
		{"analysis.stale_min_size", a.StaleMinSize},
		{"analysis.venv_min_total", a.VenvMinTotal},
	} {
		if size.value == "" {
			continue
		}
		if _, err := utils.ParseSize(size.value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", size.key, size.value, err)
		}
	}
	for _, ratio := range []struct {
		key   string
		value float64
	}{
		{"analysis.git_savings_ratio", a.GitSavingsRatio},
		{"analysis.venv_overlap_ratio", a.VenvOverlapRatio},
		{"analysis.rust_shared_ratio", a.RustSharedRatio},
	} {
		if ratio.value < 0 || ratio.value > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", ratio.key, ratio.value)
		}
	}
	for _, count := range []struct {
		key   string
		value int
	}{
		{"analysis.git_max_loose", a.GitMaxLoose},
		{"analysis.stale_days", a.StaleDays},
		{"analysis.venv_min_count", a.VenvMinCount},
		{"analysis.rust_min_count", a.RustMinCount},
	} {
		if count.value < 0 {
			return fmt.Errorf("%s must be >= 0, got %d", count.key, count.value)
		}
	}
	return nil
}

// Mode returns the configured delete method. Call after Validate.
func (c *Config) Mode() executor.Mode {
	mode, err := executor.ParseMode(c.DeleteMethod)
	if err != nil {
		return executor.ModeTrash
	}
	return mode
}

// Protection returns the configured protection level. Call after Validate.
func (c *Config) Protection() gitsafe.ProtectionLevel {
	level, err := gitsafe.ParseProtectionLevel(c.ProtectionLevel)
	if err != nil {
		return gitsafe.ProtectionWarn
	}
	return level
}

// MinSizeBytes returns the report floor in bytes. Call after Validate.
func (c *Config) MinSizeBytes() int64 {
	if c.MinSize == "" {
		return 0
	}
	bytes, err := utils.ParseSize(c.MinSize)
	if err != nil {
		return 0
	}
	return bytes
}

// XcodeRecency returns the DerivedData recency window.
func (c *Config) XcodeRecency() time.Duration {
	return time.Duration(c.XcodeRecencyDays) * 24 * time.Hour
}

// AnalysisOptions maps the configured thresholds onto engine options,
// leaving engine defaults in place for anything unset.
func (c *Config) AnalysisOptions() analysis.Options {
	opts := analysis.Options{
		GitMaxLoose:      c.Analysis.GitMaxLoose,
		GitSavingsRatio:  c.Analysis.GitSavingsRatio,
		VenvMinCount:     c.Analysis.VenvMinCount,
		VenvOverlapRatio: c.Analysis.VenvOverlapRatio,
		RustMinCount:     c.Analysis.RustMinCount,
		RustSharedRatio:  c.Analysis.RustSharedRatio,
	}
	if c.Analysis.StaleDays > 0 {
		opts.StaleAfter = time.Duration(c.Analysis.StaleDays) * 24 * time.Hour
	}
	if bytes, err := utils.ParseSize(c.Analysis.GitMinRepoSize); err == nil {
		opts.GitMinRepoSize = bytes
	}
	if bytes, err := utils.ParseSize(c.Analysis.StaleMinSize); err == nil {
		opts.StaleMinSize = bytes
	}
	if bytes, err := utils.ParseSize(c.Analysis.VenvMinTotal); err == nil {
		opts.VenvMinTotal = bytes
	}
	return opts
}

// YAML renders the resolved configuration, for `config show`.
func (c *Config) YAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}
	return string(data), nil
}

// DefaultDir returns the configuration directory, ~/.config/devclean.
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "devclean"), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ExpandPaths resolves ~ and ~/ prefixes against home and cleans the result.
func ExpandPaths(paths []string, home string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		switch {
		case p == "~":
			p = home
		case strings.HasPrefix(p, "~/"):
			p = filepath.Join(home, p[2:])
		}
		out = append(out, filepath.Clean(p))
	}
	return out
}

// ExistingDirs filters paths down to the ones that exist as directories.
func ExistingDirs(paths []string) []string {
	var out []string
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			out = append(out, p)
		}
	}
	return out
}
