package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/fenilsonani/devclean/internal/gitsafe"
	"github.com/fenilsonani/devclean/internal/scanner"
)

// AnalyzeStale reports project roots with no recent activity whose size
// makes them worth attention. Activity is the git last-commit time when the
// project is a repository, otherwise the directory mtime.
func (e *Engine) AnalyzeStale(ctx context.Context, roots []string) ([]Recommendation, error) {
	projectRoots, err := e.findProjectRoots(ctx, roots)
	if err != nil {
		return nil, err
	}

	cutoff := e.now().Add(-e.opts.StaleAfter)
	var recs []Recommendation
	for _, root := range projectRoots {
		if ctx.Err() != nil {
			break
		}
		if rec, ok := e.analyzeProject(ctx, root, cutoff); ok {
			recs = append(recs, rec)
		}
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].Savings > recs[j].Savings })
	return recs, ctx.Err()
}

// findProjectRoots walks the roots collecting directories that carry a
// project marker. Roots nested inside another root are dropped so a
// workspace is reported once, not once per sub-package.
func (e *Engine) findProjectRoots(ctx context.Context, roots []string) ([]string, error) {
	walker := scanner.NewWalker(scanner.WalkOptions{SkipHidden: true}, func(path string) bool {
		return e.catalog.IsArtifactName(filepath.Base(path))
	})

	var mu sync.Mutex
	var found []string

	walkErrs := walker.Walk(ctx, roots, func(entry scanner.WalkEntry) {
		if entry.Pruned {
			return
		}
		if e.hasProjectMarker(entry.Path) {
			mu.Lock()
			found = append(found, entry.Path)
			mu.Unlock()
		}
	})

	if len(roots) > 0 && len(walkErrs) == len(roots) {
		return nil, fmt.Errorf("no scan root could be read")
	}

	return dropNestedRoots(found), nil
}

func (e *Engine) hasProjectMarker(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() && e.catalog.IsProjectMarker(entry.Name()) {
			return true
		}
	}
	return false
}

// analyzeProject decides whether one project root is stale and worth
// reporting
func (e *Engine) analyzeProject(ctx context.Context, root string, cutoff time.Time) (Recommendation, bool) {
	lastActivity := e.lastActivity(root)
	if lastActivity.IsZero() || lastActivity.After(cutoff) {
		return Recommendation{}, false
	}

	totalSize, _, err := e.sizer.Size(ctx, root)
	if err != nil || totalSize < e.opts.StaleMinSize {
		return Recommendation{}, false
	}

	cleanable := e.cleanableArtifactBytes(ctx, root)

	return Recommendation{
		Kind:  KindStaleProject,
		Title: "stale project: " + filepath.Base(root),
		Detail: fmt.Sprintf("last active %s, %s total, %s in regenerable build artifacts",
			humanize.Time(lastActivity), humanize.IBytes(uint64(totalSize)),
			humanize.IBytes(uint64(cleanable))),
		Path:       root,
		Savings:    cleanable,
		FixCommand: "devclean clean " + root,
		Risk:       scanner.Safe,
	}, true
}

// lastActivity prefers the git last-commit time, falling back to directory
// mtime for projects that are not repositories
func (e *Engine) lastActivity(root string) time.Time {
	if _, err := os.Lstat(filepath.Join(root, ".git")); err == nil {
		if when, err := gitsafe.LastCommitTime(root); err == nil {
			return when
		}
	}
	info, err := os.Lstat(root)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// cleanableArtifactBytes sums the detector-classified artifact directories
// directly under the project root
func (e *Engine) cleanableArtifactBytes(ctx context.Context, root string) int64 {
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0
	}

	var total int64
	for _, entry := range entries {
		if !entry.IsDir() || !e.catalog.IsArtifactName(entry.Name()) {
			continue
		}
		item, ok := e.detector.Detect(scanner.WalkEntry{
			Path:   filepath.Join(root, entry.Name()),
			Name:   entry.Name(),
			Pruned: true,
		})
		if !ok || item.Category != scanner.CategoryProjectArtifact {
			continue
		}
		if bytes, _, err := e.sizer.Size(ctx, item.Path); err == nil {
			total += bytes
		}
	}
	return total
}

// dropNestedRoots removes any root that sits inside another root in the set
func dropNestedRoots(roots []string) []string {
	if len(roots) < 2 {
		return roots
	}
	sort.Strings(roots)

	out := roots[:0]
	for _, root := range roots {
		nested := false
		for _, kept := range out {
			if strings.HasPrefix(root, kept+string(filepath.Separator)) {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, root)
		}
	}
	return out
}
