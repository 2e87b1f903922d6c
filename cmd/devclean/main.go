// Command devclean finds the disk space development tools quietly consume
// and reclaims it. Scans classify what they find, deletions go to the
// recoverable trash by default, and git protection keeps build artifacts
// inside dirty repositories from disappearing with in-flight work.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fenilsonani/devclean/internal/config"
	"github.com/fenilsonani/devclean/internal/platform"
	"github.com/fenilsonani/devclean/internal/progress"
	"github.com/fenilsonani/devclean/internal/reporter"
	"github.com/fenilsonani/devclean/internal/scanner"
	"github.com/fenilsonani/devclean/internal/ui"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Global flags plus the scan-tuning flags shared by several commands. Each
// command registers the subset it supports; shared values reach the core
// through the config layer.
var (
	cfgFile       string
	verbose       bool
	outputFmt     string
	noInteractive bool

	minSize         string
	maxDepth        int
	excludePatterns []string
	protectionLevel string
	assumeYes       bool
)

func main() {
	os.Exit(run())
}

// run executes the root command and maps the outcome to an exit code: 0 for
// success including nothing-to-clean and per-item failures, 1 for fatal
// errors, 130 when the user interrupted.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	interrupted := ctx.Err() != nil
	stop()

	switch {
	case interrupted:
		fmt.Fprintln(os.Stderr, "interrupted")
		return 130
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

var rootCmd = &cobra.Command{
	Use:   "devclean",
	Short: "Reclaim disk space from development caches and build artifacts",
	Long: `devclean finds the build artifacts and tool caches development leaves
behind (node_modules, target, DerivedData, package manager caches, Docker
leftovers) and cleans them safely: items move to the recoverable trash by
default, and nothing inside a git repository with uncommitted changes is
touched without warning.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logrus.SetOutput(os.Stderr)
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		} else {
			logrus.SetLevel(logrus.WarnLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/devclean/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "show debug logging")
	rootCmd.PersistentFlags().StringVar(&outputFmt, "format", "table", "output format (table, json, yaml, summary)")
	rootCmd.PersistentFlags().BoolVar(&noInteractive, "no-interactive", false, "never start the interactive interface")
}

// flagBindings maps config keys to the flag names that override them.
// A binding only takes effect on commands that register the flag.
var flagBindings = map[string]string{
	"max_depth":           "max-depth",
	"min_size":            "min-size",
	"protection_level":    "protection",
	"exclude_patterns":    "exclude",
	"verbose":             "verbose",
	"analysis.stale_days": "stale-days",
}

func newViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	for key, name := range flagBindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}
	return v, nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v, err := newViper(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, err
	}
	if cfg.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	return cfg, nil
}

// resolveRoots expands the requested scan roots and keeps the ones that
// exist as directories. Explicit arguments take priority over the configured
// defaults; no surviving root is fatal.
func resolveRoots(args []string, cfg *config.Config) ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}

	requested := args
	if len(requested) == 0 {
		requested = cfg.DefaultPaths
	}
	expanded := config.ExpandPaths(requested, home)
	roots := config.ExistingDirs(expanded)
	if len(roots) == 0 {
		return nil, fmt.Errorf("no valid scan roots: checked %s", strings.Join(expanded, ", "))
	}
	return roots, nil
}

func scanOptions(cfg *config.Config, roots []string) scanner.Options {
	return scanner.Options{
		Roots:          roots,
		MaxDepth:       cfg.MaxDepth,
		SkipHidden:     cfg.SkipHidden,
		IgnorePatterns: cfg.ExcludePatterns,
		MinSize:        cfg.MinSizeBytes(),
		XcodeRecency:   cfg.XcodeRecency(),
	}
}

func isTTY(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// attachLive mirrors progress onto stderr while a long phase runs. The
// returned detach func blocks until the line is cleared; it is a no-op when
// stderr is not a terminal.
func attachLive(prog *progress.Reporter) func() {
	if !isTTY(os.Stderr) {
		return func() {}
	}
	return ui.NewLivePrinter(os.Stderr).Attach(prog)
}

// newReporter builds the output reporter, with a disk footer probed from
// root when the probe succeeds.
func newReporter(format reporter.Format, root string) *reporter.Reporter {
	r := reporter.New(os.Stdout, format)
	if du, err := platform.GetDiskUsage(root); err == nil {
		r.WithDisk(du)
	}
	return r
}

// promptYesNo asks a single y/N question on the terminal. Anything but an
// explicit yes declines.
func promptYesNo(question string) bool {
	fmt.Printf("%s (y/N): ", question)
	var response string
	fmt.Scanln(&response)
	return strings.EqualFold(response, "y") || strings.EqualFold(response, "yes")
}

// promptConfirm asks about one item during execution, satisfying
// executor.ConfirmFunc for terminal runs.
func promptConfirm(item *scanner.CleanableItem, reason string) bool {
	return promptYesNo(fmt.Sprintf("%s (%s), delete?", item.Path, reason))
}
