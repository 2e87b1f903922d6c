package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/devclean/internal/analysis"
	"github.com/fenilsonani/devclean/internal/gitsafe"
	"github.com/fenilsonani/devclean/internal/progress"
	"github.com/fenilsonani/devclean/internal/reporter"
	"github.com/fenilsonani/devclean/internal/scanner"
	"github.com/fenilsonani/devclean/internal/toolexec"
)

var (
	analyzeGit   bool
	analyzeStale bool
	analyzeDupes bool
	fixGit       bool
	staleDays    int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [paths...]",
	Short: "Recommend space you could reclaim beyond artifact deletion",
	Long: `Analyze inspects the given paths (or the configured defaults) and reports
repositories that would shrink under git gc, projects with no recent
activity, and dependency trees duplicated across projects.

Findings are advisory and savings estimates are heuristic; nothing is
modified unless --fix-git is given, which runs git gc on every flagged
repository.`,
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	runGit, runStale, runDupes := analyzeGit, analyzeStale, analyzeDupes
	if !runGit && !runStale && !runDupes {
		runGit, runStale, runDupes = true, true, true
	}

	opts := cfg.AnalysisOptions()
	if cmd.Flags().Changed("min-size") {
		opts.StaleMinSize = cfg.MinSizeBytes()
	}

	catalog := scanner.NewCatalog()
	detector := scanner.NewDetector(catalog, cfg.XcodeRecency())
	eng := analysis.NewEngine(opts, detector, scanner.NewSizer(0, 0), toolexec.NewRunner())

	ctx := cmd.Context()
	start := time.Now()
	var recs []analysis.Recommendation

	if runGit {
		found, err := eng.AnalyzeGit(ctx, roots)
		if err != nil {
			return err
		}
		recs = append(recs, found...)
	}
	if runStale {
		found, err := eng.AnalyzeStale(ctx, roots)
		if err != nil {
			return err
		}
		recs = append(recs, found...)
	}
	if runDupes {
		checker := gitsafe.NewChecker(cfg.Protection())
		prog := progress.NewReporter()
		scnr := scanner.New(scanOptions(cfg, roots), checker.State, prog)

		detach := attachLive(prog)
		result := scnr.Scan(ctx)
		detach()

		found, err := eng.AnalyzeDuplicates(ctx, result.Items)
		if err != nil {
			return err
		}
		recs = append(recs, found...)
	}

	report := analysis.NewReport(recs, time.Since(start))
	if err := newReporter(format, roots[0]).AnalysisReport(report); err != nil {
		return err
	}

	if fixGit {
		return runFixGit(ctx, eng, recs)
	}
	return nil
}

// runFixGit executes git gc on every repository the advisor flagged. Each
// repository reports its own outcome; a failure does not stop the rest.
func runFixGit(ctx context.Context, eng *analysis.Engine, recs []analysis.Recommendation) error {
	var flagged int
	for _, rec := range recs {
		if rec.Kind != analysis.KindGitGC {
			continue
		}
		flagged++
		fmt.Printf("Running git gc in %s...\n", rec.Path)
		if err := eng.FixGit(ctx, rec.Path); err != nil {
			fmt.Printf("  failed: %v\n", err)
			continue
		}
		fmt.Println("  done")
	}
	if flagged == 0 {
		fmt.Println("No repositories flagged for gc.")
	}
	return nil
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeGit, "git", false, "analyze git repositories for gc opportunities")
	analyzeCmd.Flags().BoolVar(&analyzeStale, "stale", false, "find projects with no recent activity")
	analyzeCmd.Flags().BoolVar(&analyzeDupes, "dupes", false, "find duplicated dependency trees")
	analyzeCmd.Flags().BoolVar(&fixGit, "fix-git", false, "run git gc on every flagged repository")
	analyzeCmd.Flags().IntVar(&staleDays, "stale-days", 0, "days without activity before a project counts as stale")
	analyzeCmd.Flags().StringVar(&minSize, "min-size", "", "floor for stale projects and scanned items, e.g. 50MB")
	rootCmd.AddCommand(analyzeCmd)
}
