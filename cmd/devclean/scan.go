package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/devclean/internal/gitsafe"
	"github.com/fenilsonani/devclean/internal/progress"
	"github.com/fenilsonani/devclean/internal/reporter"
	"github.com/fenilsonani/devclean/internal/scanner"
)

var withSystem bool

var scanCmd = &cobra.Command{
	Use:   "scan [paths...]",
	Short: "Scan for cleanable artifacts and report what could be freed",
	Long: `Scan walks the given paths (or the configured defaults) and reports every
regenerable artifact it finds: dependency trees, build output, virtual
environments, tool caches. Nothing is modified.

Items inside a git repository are annotated with the repository's
working-tree state so you can see what a clean would warn about.

With --system the report also covers the fixed locations outside your
projects that IDEs and OS tooling fill up (Xcode DerivedData, simulator
caches, editor caches); those are never part of the tree walk.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		format, err := reporter.ParseFormat(outputFmt)
		if err != nil {
			return err
		}
		roots, err := resolveRoots(args, cfg)
		if err != nil {
			return err
		}

		checker := gitsafe.NewChecker(cfg.Protection())
		prog := progress.NewReporter()
		scnr := scanner.New(scanOptions(cfg, roots), checker.State, prog)

		detach := attachLive(prog)
		result := scnr.Scan(cmd.Context())
		detach()

		if withSystem {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to resolve home directory: %w", err)
			}
			mergeResults(result, scnr.ScanSystem(cmd.Context(), home))
		}

		return newReporter(format, roots[0]).ScanReport(result)
	},
}

func init() {
	scanCmd.Flags().StringVar(&minSize, "min-size", "", "hide items smaller than this, e.g. 10MB")
	scanCmd.Flags().IntVar(&maxDepth, "max-depth", 0, "directory levels to descend below each root")
	scanCmd.Flags().StringSliceVar(&excludePatterns, "exclude", nil, "glob patterns to skip, repeatable")
	scanCmd.Flags().BoolVar(&withSystem, "system", false, "include fixed system and IDE cache locations in the report")
	rootCmd.AddCommand(scanCmd)
}
