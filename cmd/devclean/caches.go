package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fenilsonani/devclean/internal/executor"
	"github.com/fenilsonani/devclean/internal/gitsafe"
	"github.com/fenilsonani/devclean/internal/platform"
	"github.com/fenilsonani/devclean/internal/progress"
	"github.com/fenilsonani/devclean/internal/reporter"
	"github.com/fenilsonani/devclean/internal/scanner"
	"github.com/fenilsonani/devclean/internal/toolexec"
	"github.com/fenilsonani/devclean/internal/trash"
)

var (
	cachesClean bool
	official    bool
)

var cachesCmd = &cobra.Command{
	Use:   "caches",
	Short: "List the global caches development tools maintain",
	Long: `Caches lists the cache locations tools maintain outside your projects
(package manager caches, Xcode build state, Docker resources) together with
the official command that cleans each one.

With --clean the safe entries are cleaned, preferring each tool's official
clean command; --official=false forces filesystem deletion instead.`,
	RunE: runCaches,
}

func runCaches(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if dryRun {
		cfg.DeleteMethod = executor.ModeDryRun.String()
	}
	format, err := reporter.ParseFormat(outputFmt)
	if err != nil {
		return err
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to resolve home directory: %w", err)
	}

	ctx := cmd.Context()
	prog := progress.NewReporter()
	scnr := scanner.New(scanner.Options{
		MinSize:      cfg.MinSizeBytes(),
		XcodeRecency: cfg.XcodeRecency(),
	}, nil, prog)
	runner := toolexec.NewRunner()

	result := scnr.ScanCaches(ctx, home)
	mergeResults(result, scnr.ScanSystem(ctx, home))
	if scanner.NewDockerScanner(runner).Available(ctx) {
		if docker, err := scnr.ScanDocker(ctx, runner); err == nil {
			mergeResults(result, docker)
		}
	}

	if !cachesClean {
		return newReporter(format, home).CachesReport(result)
	}

	items := selectForClean(result)
	if len(items) == 0 {
		fmt.Println("✨ Nothing to clean.")
		return nil
	}

	mode := cfg.Mode()
	if !assumeYes && mode != executor.ModeDryRun {
		if !isTTY(os.Stdin) {
			return fmt.Errorf("caches --clean without a terminal requires --yes")
		}
		var total int64
		for _, it := range items {
			total += it.SizeBytes
		}
		if !promptYesNo(fmt.Sprintf("Clean %d caches (%s)?", len(items), humanize.IBytes(uint64(total)))) {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	info, err := platform.GetInfo()
	if err != nil {
		return err
	}
	var backend *trash.Backend
	if mode == executor.ModeTrash {
		backend, err = trash.NewBackend(info)
		if err != nil {
			return err
		}
	}

	opts := executor.Options{
		Mode:             mode,
		OfficialCommands: official,
		AssumeYes:        assumeYes,
		Force:            force,
	}
	if isTTY(os.Stdin) {
		opts.Confirm = promptConfirm
	}
	exec, err := executor.New(opts, executor.Deps{
		Checker:  gitsafe.NewChecker(cfg.Protection()),
		Trash:    backend,
		Runner:   runner,
		Detector: scnr.Detector(),
		Platform: info,
		Reporter: prog,
	})
	if err != nil {
		return err
	}

	detach := attachLive(prog)
	summary := exec.Execute(ctx, items)
	detach()

	return newReporter(format, home).CleanReport(summary)
}

// mergeResults folds src into dst. The sequential cache scans report one
// combined result.
func mergeResults(dst, src *scanner.ScanResult) {
	dst.Items = append(dst.Items, src.Items...)
	dst.TotalSize += src.TotalSize
	dst.Errors = append(dst.Errors, src.Errors...)
	dst.SkippedPaths += src.SkippedPaths
	dst.Partial = dst.Partial || src.Partial
	dst.Duration += src.Duration
}

func init() {
	cachesCmd.Flags().BoolVar(&cachesClean, "clean", false, "clean the listed caches")
	cachesCmd.Flags().BoolVar(&official, "official", true, "prefer each tool's official clean command")
	cachesCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and report without deleting anything")
	cachesCmd.Flags().BoolVar(&includeDangerous, "include-dangerous", false, "include dangerous entries such as Docker images")
	cachesCmd.Flags().StringVar(&minSize, "min-size", "", "hide caches smaller than this, e.g. 10MB")
	cachesCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "proceed without asking for confirmation")
	cachesCmd.Flags().BoolVar(&force, "force", false, "with --yes, also approve items that require per-item confirmation")
	rootCmd.AddCommand(cachesCmd)
}
