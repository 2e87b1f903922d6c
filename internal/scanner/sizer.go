package scanner

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/semaphore"
)

const maxSizeWorkers = 16

// Sizer computes recursive apparent sizes. A shared weighted semaphore
// bounds how many items are summed at once so concurrent sizing cannot
// exhaust descriptor limits on wide trees.
type Sizer struct {
	sem *semaphore.Weighted
	// maxDepth bounds the summation depth below the item. Zero means
	// unbounded.
	maxDepth int
}

// NewSizer builds a sizer allowing limit concurrent summations. limit <= 0
// selects a default derived from the CPU count.
func NewSizer(limit int64, maxDepth int) *Sizer {
	if limit <= 0 {
		limit = int64(runtime.NumCPU())
		if limit > maxSizeWorkers {
			limit = maxSizeWorkers
		}
	}
	return &Sizer{sem: semaphore.NewWeighted(limit), maxDepth: maxDepth}
}

// Size returns the apparent size in bytes and the count of regular files
// under path. Sizes are file lengths, not disk blocks. Entries that vanish
// or cannot be read mid-walk contribute zero; the result is never negative.
// This is the only place pruned artifact directories are descended into, and
// only to sum them.
//
// Blocks until a semaphore slot is free; a cancelled context returns
// immediately with zero totals.
func (s *Sizer) Size(ctx context.Context, path string) (int64, int64, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return 0, 0, err
	}
	defer s.sem.Release(1)

	var bytes, files int64
	root := filepath.Clean(path)
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable or vanished subtree: contributes nothing.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if s.maxDepth > 0 && relDepth(root, p) > s.maxDepth {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if sz := info.Size(); sz > 0 {
			bytes += sz
		}
		files++
		return nil
	})
	return bytes, files, nil
}

func relDepth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
