// Package gitsafe gates deletion of project artifacts on the state of the
// enclosing git working tree. A clean repo can regenerate its build
// directories; a dirty one may be the only copy of in-flight work.
package gitsafe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/sirupsen/logrus"

	"github.com/fenilsonani/devclean/internal/scanner"
)

// ProtectionLevel controls how working-tree dirtiness gates deletion
type ProtectionLevel int

const (
	// ProtectionNone performs no git checks; everything is allowed
	ProtectionNone ProtectionLevel = iota
	// ProtectionWarn allows dirty-repo items but surfaces a warning
	ProtectionWarn
	// ProtectionBlock excludes dirty-repo items from the action set
	ProtectionBlock
	// ProtectionParanoid requires per-item confirmation regardless of state
	ProtectionParanoid
)

var protectionNames = map[ProtectionLevel]string{
	ProtectionNone:     "none",
	ProtectionWarn:     "warn",
	ProtectionBlock:    "block",
	ProtectionParanoid: "paranoid",
}

func (l ProtectionLevel) String() string {
	if name, ok := protectionNames[l]; ok {
		return name
	}
	return "unknown"
}

// ParseProtectionLevel converts a config or flag value to a ProtectionLevel
func ParseProtectionLevel(s string) (ProtectionLevel, error) {
	for level, name := range protectionNames {
		if strings.EqualFold(s, name) {
			return level, nil
		}
	}
	return ProtectionNone, fmt.Errorf("unknown protection level: %q", s)
}

// Verdict is the outcome of applying a protection level to an item
type Verdict int

const (
	// Allowed means the item may be acted on without caveats
	Allowed Verdict = iota
	// Warned means the item may be acted on but a warning is surfaced
	Warned
	// Blocked means the item is excluded and reported as skipped
	Blocked
	// NeedsConfirm means the item requires explicit per-item confirmation
	NeedsConfirm
)

var verdictNames = map[Verdict]string{
	Allowed:      "allowed",
	Warned:       "warned",
	Blocked:      "blocked",
	NeedsConfirm: "needs-confirm",
}

func (v Verdict) String() string {
	if name, ok := verdictNames[v]; ok {
		return name
	}
	return "unknown"
}

// Decision records a protection verdict and the repository state it was
// computed from
type Decision struct {
	Verdict  Verdict
	State    scanner.GitState
	RepoRoot string // empty when the path is not inside a repository
	Reason   string // human-readable explanation for Warned/Blocked/NeedsConfirm
}

// Checker evaluates protection policy for item paths. Repository status is
// memoized per repository root, so annotating many items inside one repo
// costs a single status computation. The executor must use CheckFresh, which
// bypasses the memo.
type Checker struct {
	level ProtectionLevel

	mu    sync.Mutex
	cache map[string]repoState

	log *logrus.Entry
}

type repoState struct {
	state         scanner.GitState
	untrackedOnly bool
}

// NewChecker creates a Checker applying the given protection level
func NewChecker(level ProtectionLevel) *Checker {
	return &Checker{
		level: level,
		cache: make(map[string]repoState),
		log:   logrus.WithField("component", "gitsafe"),
	}
}

// Level returns the configured protection level
func (c *Checker) Level() ProtectionLevel {
	return c.level
}

// State returns the repository state for the nearest enclosing repo of path,
// memoized per repo root. Suitable for scan-time annotation; satisfies
// scanner.GitStateFunc.
func (c *Checker) State(path string) scanner.GitState {
	root, found := FindRepoRoot(path)
	if !found {
		return scanner.GitNotARepo
	}

	c.mu.Lock()
	cached, ok := c.cache[root]
	c.mu.Unlock()
	if ok {
		return cached.state
	}

	st := readWorktree(root)
	c.mu.Lock()
	c.cache[root] = st
	c.mu.Unlock()
	return st.state
}

// Check applies the protection policy to path using the memoized state.
// Use at plan time; the executor re-checks with CheckFresh.
func (c *Checker) Check(path string) Decision {
	return c.decide(path, false)
}

// CheckFresh applies the protection policy to path, re-reading repository
// state from disk. The window between selection and action is long enough
// for a repo to become dirty, so the executor never trusts scan-time state.
func (c *Checker) CheckFresh(path string) Decision {
	return c.decide(path, true)
}

func (c *Checker) decide(path string, fresh bool) Decision {
	if c.level == ProtectionNone {
		return Decision{Verdict: Allowed, State: scanner.GitUnknown}
	}

	root, found := FindRepoRoot(path)
	var st repoState
	if found {
		if fresh {
			st = readWorktree(root)
		} else {
			st = c.cachedState(root)
		}
	} else {
		st = repoState{state: scanner.GitNotARepo}
	}

	d := Decision{State: st.state, RepoRoot: root}

	if c.level == ProtectionParanoid {
		d.Verdict = NeedsConfirm
		d.Reason = "paranoid protection requires confirmation for every item"
		return d
	}

	switch st.state {
	case scanner.GitNotARepo, scanner.GitClean:
		d.Verdict = Allowed
	case scanner.GitUncommitted:
		d.Reason = "repository has uncommitted changes"
		if st.untrackedOnly {
			d.Reason = "repository has untracked files"
		}
		if c.level == ProtectionBlock {
			d.Verdict = Blocked
		} else {
			d.Verdict = Warned
		}
	default:
		// Unreadable repository state gates the same way dirty does.
		d.Reason = "repository state could not be read"
		if c.level == ProtectionBlock {
			d.Verdict = Blocked
		} else {
			d.Verdict = Warned
		}
	}

	return d
}

func (c *Checker) cachedState(root string) repoState {
	c.mu.Lock()
	cached, ok := c.cache[root]
	c.mu.Unlock()
	if ok {
		return cached
	}

	st := readWorktree(root)
	c.mu.Lock()
	c.cache[root] = st
	c.mu.Unlock()
	return st
}

// InvalidateCache drops all memoized repository states
func (c *Checker) InvalidateCache() {
	c.mu.Lock()
	c.cache = make(map[string]repoState)
	c.mu.Unlock()
}

// FindRepoRoot walks up from path to the nearest directory containing a
// .git entry. A .git file (linked worktree or submodule) counts.
func FindRepoRoot(path string) (string, bool) {
	dir := filepath.Clean(path)

	// Start from the containing directory if path is a file.
	if info, err := os.Lstat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		if _, err := os.Lstat(filepath.Join(dir, ".git")); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// readWorktree opens the repository at root and inspects worktree status
func readWorktree(root string) repoState {
	repo, err := git.PlainOpen(root)
	if err != nil {
		return repoState{state: scanner.GitUnknown}
	}

	wt, err := repo.Worktree()
	if err != nil {
		return repoState{state: scanner.GitUnknown}
	}

	status, err := wt.Status()
	if err != nil {
		return repoState{state: scanner.GitUnknown}
	}

	if status.IsClean() {
		return repoState{state: scanner.GitClean}
	}

	untrackedOnly := true
	for _, fs := range status {
		if fs.Worktree != git.Untracked || fs.Staging != git.Untracked {
			untrackedOnly = false
			break
		}
	}
	return repoState{state: scanner.GitUncommitted, untrackedOnly: untrackedOnly}
}

// LastCommitTime returns the committer timestamp of HEAD for the repository
// at root. Used by the stale-project finder; falls back to the zero time
// with an error when the repo has no commits or cannot be read.
func LastCommitTime(root string) (time.Time, error) {
	repo, err := git.PlainOpen(root)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to open repository %s: %w", root, err)
	}

	head, err := repo.Head()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to resolve HEAD for %s: %w", root, err)
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read HEAD commit for %s: %w", root, err)
	}

	return commit.Committer.When, nil
}
