package scanner

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fenilsonani/devclean/internal/progress"
	"github.com/fenilsonani/devclean/internal/toolexec"
)

// Options configures one scan invocation. Callers resolve it from config and
// flags; the scanner only consumes the resolved values.
type Options struct {
	Roots          []string
	MaxDepth       int
	SkipHidden     bool
	IgnorePatterns []string
	// MinSize drops items smaller than this many bytes.
	MinSize int64
	// Workers bounds walker concurrency and SizeWorkers bounds concurrent
	// size computations. Zero selects defaults.
	Workers     int
	SizeWorkers int64
	// XcodeRecency is the window within which Xcode build products count as
	// recently used.
	XcodeRecency time.Duration
}

// GitStateFunc annotates an item path with its repository state at scan
// time. The annotation is informational; protection re-evaluates state
// immediately before acting.
type GitStateFunc func(path string) GitState

// Scanner wires the walker, the detector and the sizer into the
// scan-classify-size pipeline. Items stream from the walker, classification
// is synchronous, and sizing fans out under the shared semaphore; results
// are appended under one mutex.
type Scanner struct {
	opts     Options
	catalog  *Catalog
	detector *Detector
	sizer    *Sizer
	gitState GitStateFunc
	reporter *progress.Reporter
	log      *logrus.Entry
}

// New creates a scanner. gitState and reporter may be nil.
func New(opts Options, gitState GitStateFunc, reporter *progress.Reporter) *Scanner {
	catalog := NewCatalog()
	return &Scanner{
		opts:     opts,
		catalog:  catalog,
		detector: NewDetector(catalog, opts.XcodeRecency),
		sizer:    NewSizer(opts.SizeWorkers, 0),
		gitState: gitState,
		reporter: reporter,
		log:      logrus.WithField("component", "scanner"),
	}
}

// Detector exposes the detector so the executor can revalidate items before
// acting on them.
func (s *Scanner) Detector() *Detector { return s.detector }

// Catalog exposes the shared lookup table.
func (s *Scanner) Catalog() *Catalog { return s.catalog }

// Scan walks the configured roots and returns every classified item found.
// The result is complete when ctx stays live and partial when cancelled;
// either way it is valid and immutable once returned.
func (s *Scanner) Scan(ctx context.Context) *ScanResult {
	start := time.Now()
	result := &ScanResult{}

	var (
		mu         sync.Mutex
		dirs       atomic.Int64
		itemsFound atomic.Int64
		bytesFound atomic.Int64
	)
	publish := func(phase progress.Phase, current string) {
		if s.reporter == nil {
			return
		}
		s.reporter.UpdateScan(&progress.ScanProgress{
			Phase:       phase,
			CurrentPath: current,
			DirsWalked:  dirs.Load(),
			ItemsFound:  itemsFound.Load(),
			BytesFound:  bytesFound.Load(),
			StartTime:   start,
		})
	}

	walker := NewWalker(WalkOptions{
		MaxDepth:       s.opts.MaxDepth,
		SkipHidden:     s.opts.SkipHidden,
		IgnorePatterns: s.opts.IgnorePatterns,
		Workers:        s.opts.Workers,
	}, func(path string) bool {
		return s.catalog.IsArtifactName(filepath.Base(path))
	})

	g, gctx := errgroup.WithContext(ctx)

	emit := func(entry WalkEntry) {
		if n := dirs.Add(1); n%64 == 0 {
			publish(progress.PhaseWalking, entry.Path)
		}
		item, ok := s.detector.Detect(entry)
		if !ok {
			return
		}
		g.Go(func() error {
			bytes, files, err := s.sizer.Size(gctx, item.Path)
			if err != nil {
				// Cancelled before sizing; the item is dropped from the
				// partial result rather than reported with a zero size.
				return nil
			}
			item.SizeBytes = bytes
			item.FileCount = files
			if s.opts.MinSize > 0 && bytes < s.opts.MinSize {
				return nil
			}
			if s.gitState != nil {
				item.Git = s.gitState(item.Path)
			}
			mu.Lock()
			result.Items = append(result.Items, item)
			result.TotalSize += bytes
			mu.Unlock()
			itemsFound.Add(1)
			bytesFound.Add(bytes)
			publish(progress.PhaseSizing, item.Path)
			return nil
		})
	}

	walkErrs := walker.Walk(ctx, s.opts.Roots, emit)
	_ = g.Wait()

	result.Errors = walkErrs
	failedRoots := make(map[string]struct{})
	for _, e := range walkErrs {
		if e.Recoverable {
			result.SkippedPaths++
		} else {
			failedRoots[e.Path] = struct{}{}
		}
	}
	for _, root := range s.opts.Roots {
		if _, failed := failedRoots[root]; !failed {
			result.Roots = append(result.Roots, root)
		}
	}
	result.Partial = ctx.Err() != nil
	result.Duration = time.Since(start)
	publish(progress.PhaseComplete, "")
	s.log.WithFields(logrus.Fields{
		"items":    len(result.Items),
		"skipped":  result.SkippedPaths,
		"duration": result.Duration,
	}).Debug("scan finished")
	return result
}

// ScanCaches stats and sizes the global cache locations under home. Run only
// by its dedicated command, never as part of a project scan.
func (s *Scanner) ScanCaches(ctx context.Context, home string) *ScanResult {
	return s.sizeItems(ctx, s.detector.DetectCaches(home))
}

// ScanSystem stats and sizes the system tool paths under home.
func (s *Scanner) ScanSystem(ctx context.Context, home string) *ScanResult {
	return s.sizeItems(ctx, s.detector.DetectSystem(home))
}

// ScanDocker lists cleanable Docker resources through the injected runner.
// Docker items arrive pre-sized by the daemon.
func (s *Scanner) ScanDocker(ctx context.Context, runner toolexec.Runner) (*ScanResult, error) {
	start := time.Now()
	items, err := NewDockerScanner(runner).Scan(ctx)
	if err != nil {
		return nil, err
	}
	result := &ScanResult{Items: items, Duration: time.Since(start)}
	for _, it := range items {
		result.TotalSize += it.SizeBytes
	}
	return result, nil
}

func (s *Scanner) sizeItems(ctx context.Context, items []CleanableItem) *ScanResult {
	start := time.Now()
	result := &ScanResult{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, item := range items {
		g.Go(func() error {
			bytes, files, err := s.sizer.Size(gctx, item.Path)
			if err != nil {
				return nil
			}
			item.SizeBytes = bytes
			item.FileCount = files
			if s.opts.MinSize > 0 && bytes < s.opts.MinSize {
				return nil
			}
			mu.Lock()
			result.Items = append(result.Items, item)
			result.TotalSize += bytes
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	result.Partial = ctx.Err() != nil
	result.Duration = time.Since(start)
	return result
}
