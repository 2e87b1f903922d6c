package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/fenilsonani/devclean/internal/scanner"
	"github.com/fenilsonani/devclean/internal/toolexec"
)

// repoStats summarizes one .git directory's object store layout. Only the
// directory layout is inspected, never git's object format.
type repoStats struct {
	gitDir     string
	totalBytes int64
	looseCount int
	looseBytes int64
	packCount  int
}

// AnalyzeGit finds every .git directory under the roots and flags
// repositories where a gc would reclaim meaningful space
func (e *Engine) AnalyzeGit(ctx context.Context, roots []string) ([]Recommendation, error) {
	walker := scanner.NewWalker(scanner.WalkOptions{SkipHidden: true}, func(path string) bool {
		return e.catalog.IsArtifactName(filepath.Base(path))
	})

	var mu sync.Mutex
	var recs []Recommendation

	walkErrs := walker.Walk(ctx, roots, func(entry scanner.WalkEntry) {
		if entry.Name != ".git" || entry.Pruned {
			return
		}
		rec, ok := e.analyzeRepo(ctx, entry.Path)
		if !ok {
			return
		}
		mu.Lock()
		recs = append(recs, rec)
		mu.Unlock()
	})

	if len(roots) > 0 && len(walkErrs) == len(roots) {
		return nil, fmt.Errorf("no scan root could be read")
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].Savings > recs[j].Savings })
	return recs, ctx.Err()
}

// analyzeRepo inspects one .git directory and decides whether gc is worth
// recommending
func (e *Engine) analyzeRepo(ctx context.Context, gitDir string) (Recommendation, bool) {
	info, err := os.Lstat(gitDir)
	if err != nil || !info.IsDir() {
		// A .git file marks a linked worktree; its object store lives
		// elsewhere and is analyzed through its own repository.
		return Recommendation{}, false
	}

	stats := repoStats{gitDir: gitDir}
	stats.totalBytes, _, err = e.sizer.Size(ctx, gitDir)
	if err != nil {
		return Recommendation{}, false
	}
	countObjects(gitDir, &stats)

	needsGC := stats.totalBytes >= e.opts.GitMinRepoSize || stats.looseCount > e.opts.GitMaxLoose
	if !needsGC {
		return Recommendation{}, false
	}

	repoRoot := filepath.Dir(gitDir)
	savings := int64(float64(stats.looseBytes) * e.opts.GitSavingsRatio)

	e.log.WithField("repo", repoRoot).WithField("loose", stats.looseCount).Debug("Repository flagged for gc")

	return Recommendation{
		Kind:  KindGitGC,
		Title: "git gc recommended: " + filepath.Base(repoRoot),
		Detail: fmt.Sprintf("%s in .git, %d loose objects (%s), %d pack(s); roughly %s reclaimable by compaction (heuristic)",
			humanize.IBytes(uint64(stats.totalBytes)), stats.looseCount,
			humanize.IBytes(uint64(stats.looseBytes)), stats.packCount,
			humanize.IBytes(uint64(savings))),
		Path:       repoRoot,
		Savings:    savings,
		FixCommand: "git gc --aggressive --prune=now",
		Risk:       scanner.SafeWithCost,
	}, true
}

// countObjects tallies loose objects and packs from the objects/ layout
func countObjects(gitDir string, stats *repoStats) {
	objectsDir := filepath.Join(gitDir, "objects")
	entries, err := os.ReadDir(objectsDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == "pack" {
			packs, err := os.ReadDir(filepath.Join(objectsDir, name))
			if err != nil {
				continue
			}
			for _, p := range packs {
				if strings.HasSuffix(p.Name(), ".pack") {
					stats.packCount++
				}
			}
			continue
		}
		if !isHexFanout(name) {
			continue
		}
		loose, err := os.ReadDir(filepath.Join(objectsDir, name))
		if err != nil {
			continue
		}
		for _, obj := range loose {
			if obj.IsDir() {
				continue
			}
			stats.looseCount++
			if fi, err := obj.Info(); err == nil {
				stats.looseBytes += fi.Size()
			}
		}
	}
}

// isHexFanout matches the two-hex-character fanout directories of the loose
// object store
func isHexFanout(name string) bool {
	if len(name) != 2 {
		return false
	}
	for _, c := range name {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// FixGit runs git gc on one flagged repository through the runner and maps
// the exit code straight to success or failure
func (e *Engine) FixGit(ctx context.Context, repoRoot string) error {
	if e.runner == nil || !e.runner.LookPath("git") {
		return fmt.Errorf("git command not available")
	}

	res, err := e.runner.Run(ctx, "git", "-C", repoRoot, "gc", "--aggressive", "--prune=now")
	if err != nil {
		return fmt.Errorf("git gc failed for %s: %w", repoRoot, err)
	}
	if res.ExitCode != 0 {
		return &toolexec.ToolError{Tool: "git", ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return nil
}
