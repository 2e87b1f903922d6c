package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	minWalkWorkers = 4
	maxWalkWorkers = 32
)

// PrunePredicate reports whether a directory should be reported as one
// atomic item instead of being descended into.
type PrunePredicate func(path string) bool

// WalkEntry is one directory observed during traversal. Entries are emitted
// for every directory encountered, including hidden directories that are not
// descended into, so consumers can notice markers like .git without the
// walker expanding them.
type WalkEntry struct {
	Path string
	Name string
	// Depth counts directory levels from the walk root; the root is 0.
	Depth int
	// Root is the resolved walk root this entry was found under.
	Root string
	// Pruned means the prune predicate matched and the subtree was reported
	// as one atomic item.
	Pruned bool
}

// WalkOptions control traversal behavior.
type WalkOptions struct {
	// MaxDepth bounds recursion in directory levels from each root. Zero or
	// negative means unbounded.
	MaxDepth int
	// SkipHidden stops descent into dot-directories unless the prune
	// predicate matches them. Never applies to the roots themselves.
	SkipHidden bool
	// IgnorePatterns are doublestar globs matched against the slash-separated
	// path relative to the walk root and against the base name. Matches are
	// dropped entirely.
	IgnorePatterns []string
	// Workers bounds concurrent directory reads. Defaults to twice the CPU
	// count clamped to [4, 32].
	Workers int
}

// Walker performs parallel traversal with early pruning. Pending directories
// flow through an explicit work queue consumed by a fixed worker pool, which
// bounds both goroutine count and recursion depth and gives cancellation a
// natural checkpoint between queue pops.
type Walker struct {
	opts  WalkOptions
	prune PrunePredicate
	log   *logrus.Entry
}

// NewWalker builds a walker. prune may be nil, in which case nothing is
// pruned.
func NewWalker(opts WalkOptions, prune PrunePredicate) *Walker {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU() * 2
		if opts.Workers < minWalkWorkers {
			opts.Workers = minWalkWorkers
		}
		if opts.Workers > maxWalkWorkers {
			opts.Workers = maxWalkWorkers
		}
	}
	return &Walker{
		opts:  opts,
		prune: prune,
		log:   logrus.WithField("component", "walker"),
	}
}

// Walk traverses roots and invokes emit for every directory observed. emit
// is called concurrently from multiple workers and must be safe for that.
// Ordering across entries is not guaranteed.
//
// Recoverable I/O errors never stop the walk; they are recorded and returned
// after the stream ends. A root that does not exist or is not a directory is
// recorded as a non-recoverable error and only that root is skipped. When ctx
// is cancelled no new directories are scheduled, in-flight reads finish, and
// the entries emitted so far remain valid.
func (w *Walker) Walk(ctx context.Context, roots []string, emit func(WalkEntry)) []*ScanError {
	var (
		errMu sync.Mutex
		errs  []*ScanError
	)
	record := func(path string, err error, recoverable bool) {
		w.log.WithField("path", path).WithError(err).Debug("skipping path")
		errMu.Lock()
		errs = append(errs, &ScanError{Path: path, Err: err, Recoverable: recoverable})
		errMu.Unlock()
	}

	queue := newDirQueue()
	for _, root := range w.resolveRoots(roots, record) {
		queue.add(1)
		queue.push(walkItem{path: root, root: root})
	}

	stop := context.AfterFunc(ctx, queue.cancel)
	defer stop()

	g := new(errgroup.Group)
	for i := 0; i < w.opts.Workers; i++ {
		g.Go(func() error {
			for {
				item, ok := queue.pop()
				if !ok {
					return nil
				}
				w.process(ctx, item, queue, emit, record)
				queue.done()
			}
		})
	}
	_ = g.Wait()
	return errs
}

// resolveRoots validates roots, resolves symlinked roots to their targets,
// and drops duplicates and roots nested inside other roots.
func (w *Walker) resolveRoots(roots []string, record func(string, error, bool)) []string {
	var resolved []string
	seen := make(map[string]struct{}, len(roots))
	for _, root := range roots {
		target, err := filepath.EvalSymlinks(root)
		if err != nil {
			record(root, err, false)
			continue
		}
		info, err := os.Lstat(target)
		if err != nil {
			record(root, err, false)
			continue
		}
		if !info.IsDir() {
			record(root, fmt.Errorf("not a directory"), false)
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		resolved = append(resolved, target)
	}

	// A root inside another root would produce overlapping items.
	var out []string
	for i, root := range resolved {
		nested := false
		for j, other := range resolved {
			if i != j && strings.HasPrefix(root, other+string(filepath.Separator)) {
				nested = true
				break
			}
		}
		if nested {
			w.log.WithField("path", root).Debug("root nested inside another root, skipping")
			continue
		}
		out = append(out, root)
	}
	return out
}

func (w *Walker) process(ctx context.Context, item walkItem, queue *dirQueue, emit func(WalkEntry), record func(string, error, bool)) {
	name := filepath.Base(item.path)
	if item.depth > 0 && w.ignored(item, name) {
		return
	}

	pruned := w.prune != nil && w.prune(item.path)
	emit(WalkEntry{
		Path:   item.path,
		Name:   name,
		Depth:  item.depth,
		Root:   item.root,
		Pruned: pruned,
	})
	if pruned {
		return
	}
	if item.depth > 0 && w.opts.SkipHidden && strings.HasPrefix(name, ".") {
		return
	}
	if w.opts.MaxDepth > 0 && item.depth >= w.opts.MaxDepth {
		return
	}
	if ctx.Err() != nil {
		return
	}

	entries, err := os.ReadDir(item.path)
	if err != nil {
		record(item.path, err, true)
		return
	}

	children := make([]walkItem, 0, len(entries))
	for _, e := range entries {
		// Type() reports ModeSymlink for symlinks, so links to directories
		// are never followed.
		if !e.Type().IsDir() {
			continue
		}
		children = append(children, walkItem{
			path:  filepath.Join(item.path, e.Name()),
			root:  item.root,
			depth: item.depth + 1,
		})
	}
	if len(children) == 0 {
		return
	}
	queue.add(len(children))
	for _, c := range children {
		queue.push(c)
	}
}

func (w *Walker) ignored(item walkItem, name string) bool {
	if len(w.opts.IgnorePatterns) == 0 {
		return false
	}
	rel, err := filepath.Rel(item.root, item.path)
	if err != nil {
		rel = item.path
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.opts.IgnorePatterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

type walkItem struct {
	path  string
	root  string
	depth int
}

// dirQueue is an unbounded queue of pending directories. pending counts
// items that are queued or still being processed; when it reaches zero all
// poppers are released.
type dirQueue struct {
	mu        sync.Mutex
	cond      *sync.Cond
	items     []walkItem
	pending   int
	cancelled bool
}

func newDirQueue() *dirQueue {
	q := &dirQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// add reserves n pending slots. Must be called before the corresponding
// pushes so the queue cannot drain early.
func (q *dirQueue) add(n int) {
	q.mu.Lock()
	q.pending += n
	q.mu.Unlock()
}

func (q *dirQueue) push(it walkItem) {
	q.mu.Lock()
	q.items = append(q.items, it)
	q.mu.Unlock()
	q.cond.Signal()
}

// done marks one popped item fully processed.
func (q *dirQueue) done() {
	q.mu.Lock()
	q.pending--
	release := q.pending == 0
	q.mu.Unlock()
	if release {
		q.cond.Broadcast()
	}
}

// cancel stops further pops. Queued items are abandoned; items already
// popped by workers are allowed to finish.
func (q *dirQueue) cancel() {
	q.mu.Lock()
	q.cancelled = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// pop blocks until an item is available, all work is finished, or the queue
// is cancelled. ok is false when there is nothing left to do.
func (q *dirQueue) pop() (walkItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for !q.cancelled && len(q.items) == 0 && q.pending > 0 {
		q.cond.Wait()
	}
	if q.cancelled || len(q.items) == 0 {
		return walkItem{}, false
	}
	it := q.items[len(q.items)-1]
	q.items = q.items[:len(q.items)-1]
	return it, true
}
