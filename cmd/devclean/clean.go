package main

import (
	"context"
	"fmt"
	"os"
	"sort"

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
	"github.com/fenilsonani/devclean/internal/ui"
	"github.com/fenilsonani/devclean/internal/ui/models"
)

var (
	dryRun           bool
	permanent        bool
	includeDangerous bool
	force            bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean [paths...]",
	Short: "Scan and clean development artifacts",
	Long: `Clean scans the given paths (or the configured defaults) and removes the
selected artifacts. On a terminal this opens an interactive session to
review and pick items; otherwise the default-safe selection is cleaned,
which requires --yes.

Items move to the platform trash unless --permanent is set. --dry-run runs
the full pipeline, including validation, without touching anything.`,
	RunE: runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	switch {
	case dryRun:
		cfg.DeleteMethod = executor.ModeDryRun.String()
	case permanent:
		cfg.DeleteMethod = executor.ModePermanent.String()
	}
	mode := cfg.Mode()

	format, err := reporter.ParseFormat(outputFmt)
	if err != nil {
		return err
	}
	roots, err := resolveRoots(args, cfg)
	if err != nil {
		return err
	}

	// Asking for a machine format implies no interactive session.
	interactive := !noInteractive && !cmd.Flags().Changed("format") &&
		isTTY(os.Stdin) && isTTY(os.Stdout)
	if !interactive && !assumeYes && mode != executor.ModeDryRun {
		return fmt.Errorf("clean without an interactive terminal requires --yes")
	}

	info, err := platform.GetInfo()
	if err != nil {
		return err
	}

	checker := gitsafe.NewChecker(cfg.Protection())
	prog := progress.NewReporter()
	scnr := scanner.New(scanOptions(cfg, roots), checker.State, prog)

	var backend *trash.Backend
	if mode == executor.ModeTrash {
		backend, err = trash.NewBackend(info)
		if err != nil {
			return err
		}
	}

	opts := executor.Options{
		Mode:      mode,
		AssumeYes: assumeYes,
		Force:     force,
	}
	switch {
	case interactive:
		// The confirm screen approves the whole selection; asking again per
		// item inside the session would double-prompt.
		opts.Confirm = func(*scanner.CleanableItem, string) bool { return true }
	case isTTY(os.Stdin):
		opts.Confirm = promptConfirm
	}

	exec, err := executor.New(opts, executor.Deps{
		Checker:  checker,
		Trash:    backend,
		Runner:   toolexec.NewRunner(),
		Detector: scnr.Detector(),
		Platform: info,
		Reporter: prog,
	})
	if err != nil {
		return err
	}

	if interactive {
		return ui.RunInteractive(models.Deps{
			Scan:     scnr.Scan,
			Clean:    exec.Execute,
			Progress: prog,
			Disk: func() *platform.DiskUsage {
				du, err := platform.GetDiskUsage(roots[0])
				if err != nil {
					return nil
				}
				return du
			},
			Mode: mode,
		})
	}
	return cleanHeadless(cmd.Context(), format, roots, scnr, exec, prog)
}

// cleanHeadless runs scan, select and execute without the interactive
// interface. The selection is the default-safe set, optionally widened to
// dangerous items.
func cleanHeadless(ctx context.Context, format reporter.Format, roots []string, scnr *scanner.Scanner, exec *executor.Executor, prog *progress.Reporter) error {
	detach := attachLive(prog)
	result := scnr.Scan(ctx)
	detach()

	items := selectForClean(result)
	if len(items) == 0 {
		fmt.Println("✨ Nothing to clean.")
		return nil
	}

	var total int64
	for _, it := range items {
		total += it.SizeBytes
	}
	fmt.Printf("Cleaning %d items (%s)...\n", len(items), humanize.IBytes(uint64(total)))

	detach = attachLive(prog)
	summary := exec.Execute(ctx, items)
	detach()

	return newReporter(format, roots[0]).CleanReport(summary)
}

// selectForClean picks the non-interactive action set: everything selectable
// by default, widened to dangerous items when asked. In-use items never
// qualify.
func selectForClean(result *scanner.ScanResult) []*scanner.CleanableItem {
	var items []*scanner.CleanableItem
	for i := range result.Items {
		it := &result.Items[i]
		switch {
		case it.DefaultSelectable():
			items = append(items, it)
		case includeDangerous && it.Safety == scanner.Dangerous && !it.InUse:
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SizeBytes > items[j].SizeBytes })
	return items
}

func init() {
	cleanCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and report without deleting anything")
	cleanCmd.Flags().BoolVar(&permanent, "permanent", false, "delete directly instead of moving to the trash")
	cleanCmd.Flags().StringVar(&protectionLevel, "protection", "", "git protection level (none, warn, block, paranoid)")
	cleanCmd.Flags().BoolVar(&includeDangerous, "include-dangerous", false, "include dangerous items in the non-interactive selection")
	cleanCmd.Flags().StringVar(&minSize, "min-size", "", "skip items smaller than this, e.g. 10MB")
	cleanCmd.Flags().IntVar(&maxDepth, "max-depth", 0, "directory levels to descend below each root")
	cleanCmd.Flags().StringSliceVar(&excludePatterns, "exclude", nil, "glob patterns to skip, repeatable")
	cleanCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "proceed without asking for confirmation")
	cleanCmd.Flags().BoolVar(&force, "force", false, "with --yes, also approve items that require per-item confirmation")
	cleanCmd.MarkFlagsMutuallyExclusive("dry-run", "permanent")
	rootCmd.AddCommand(cleanCmd)
}
