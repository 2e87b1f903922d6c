package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Default returns the default configuration
func Default() *Config {
	return &Config{
		DefaultPaths: []string{
			"~/Projects",
			"~/Developer",
			"~/Code",
			"~/src",
			"~/work",
			"~/repos",
		},
		MaxDepth:         10,
		SkipHidden:       true,
		MinSize:          "1MB",
		DeleteMethod:     "trash",
		ProtectionLevel:  "warn",
		ExcludePatterns:  []string{},
		Verbose:          false,
		XcodeRecencyDays: 7,
		Analysis: AnalysisConfig{
			GitMinRepoSize:   "100MB",
			GitMaxLoose:      1000,
			GitSavingsRatio:  0.6,
			StaleDays:        180,
			StaleMinSize:     "50MB",
			VenvMinCount:     3,
			VenvMinTotal:     "500MB",
			VenvOverlapRatio: 0.4,
			RustMinCount:     2,
			RustSharedRatio:  0.35,
		},
	}
}

// defaultYAML is the commented config file written by `devclean config init`.
// It must parse back to exactly Default(); a test enforces that.
const defaultYAML = `# devclean configuration
# Location: ~/.config/devclean/config.yaml
# Every key can be overridden with a DEVCLEAN_* environment variable,
# e.g. DEVCLEAN_MAX_DEPTH=4 or DEVCLEAN_ANALYSIS_STALE_DAYS=90.

# Directories scanned when the command line names none.
# Paths starting with ~ are resolved against your home directory;
# entries that do not exist are silently skipped.
default_paths:
  - "~/Projects"
  - "~/Developer"
  - "~/Code"
  - "~/src"
  - "~/work"
  - "~/repos"

# How many directory levels to descend below each scan root.
max_depth: 10

# Do not descend into dot-directories (markers like .venv are still found).
skip_hidden: true

# Hide items smaller than this from reports.
min_size: "1MB"

# What a clean does with selected items: trash, permanent, or dry-run.
delete_method: trash

# How dirty git repositories gate deletion:
#   none      never checked
#   warn      proceed with a warning on uncommitted changes
#   block     skip items inside repositories with uncommitted changes
#   paranoid  every single item requires confirmation
protection_level: warn

# Glob patterns excluded from scanning, e.g. "**/examples/**".
exclude_patterns: []

# Show debug logging.
verbose: false

# DerivedData built within this many days is marked "safe with cost"
# instead of safe.
xcode_recency_days: 7

# Advisory engine thresholds (devclean analyze). Savings ratios are
# heuristics, not promises.
analysis:
  git_min_repo_size: "100MB"
  git_max_loose: 1000
  git_savings_ratio: 0.6
  stale_days: 180
  stale_min_size: "50MB"
  venv_min_count: 3
  venv_min_total: "500MB"
  venv_overlap_ratio: 0.4
  rust_min_count: 2
  rust_shared_ratio: 0.35
`

// WriteDefault writes the commented default config to path. It refuses to
// overwrite an existing file so a customized config cannot be lost.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultYAML), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
