// Package executor acts on a selected set of cleanable items. Every item
// runs through a small state machine: Pending → Validating → {Skipped |
// Deleting} → {Succeeded | Failed}. Validation re-checks the filesystem and
// git state immediately before any action, so stale scan results cannot
// cause a deletion the user would not have approved.
//
// Directory removal is atomic from the caller's perspective: if the
// underlying remove fails partway, the item reports Failed with zero bytes
// credited and the item path still exists, though already-removed children
// may be gone.
package executor

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fenilsonani/devclean/internal/gitsafe"
	"github.com/fenilsonani/devclean/internal/platform"
	"github.com/fenilsonani/devclean/internal/progress"
	"github.com/fenilsonani/devclean/internal/scanner"
	"github.com/fenilsonani/devclean/internal/toolexec"
	"github.com/fenilsonani/devclean/internal/trash"
)

// Mode selects how items leave the filesystem
type Mode int

const (
	// ModeTrash moves items to the platform trash (default)
	ModeTrash Mode = iota
	// ModePermanent removes items directly
	ModePermanent
	// ModeDryRun validates and reports but never mutates the filesystem
	ModeDryRun
)

var modeNames = map[Mode]string{
	ModeTrash:     "trash",
	ModePermanent: "permanent",
	ModeDryRun:    "dry-run",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseMode converts a config or flag value to a Mode
func ParseMode(s string) (Mode, error) {
	for mode, name := range modeNames {
		if strings.EqualFold(s, name) {
			return mode, nil
		}
	}
	return ModeTrash, fmt.Errorf("unknown delete method: %q", s)
}

// State tracks an item through the execution state machine
type State int

const (
	StatePending State = iota
	StateValidating
	StateSkipped
	StateDeleting
	StateSucceeded
	StateFailed
)

var stateNames = map[State]string{
	StatePending:    "pending",
	StateValidating: "validating",
	StateSkipped:    "skipped",
	StateDeleting:   "deleting",
	StateSucceeded:  "succeeded",
	StateFailed:     "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Skip reasons surfaced in results. Protection blocks are outcomes, not
// errors.
const (
	SkipReasonMissing      = "item no longer exists"
	SkipReasonReclassified = "item no longer matches its recorded category"
	SkipReasonProtected    = "path is protected"
	SkipReasonInUse        = "resource is in use"
	SkipReasonDeclined     = "declined by user"
	SkipReasonConfirm      = "confirmation required"
	SkipReasonInterrupted  = "interrupted"
	SkipReasonNoDocker     = "docker command unavailable"
)

// ActionResult is the per-item outcome of an attempted deletion
type ActionResult struct {
	Item       *scanner.CleanableItem
	State      State
	BytesFreed int64
	Reason     string // populated for Skipped
	Err        *DeletionError
	Warning    string // protection warning carried through a Warned verdict
	TrashID    string // trash record ID when mode is trash
	Duration   time.Duration
}

// Summary aggregates a session's results
type Summary struct {
	Mode       Mode
	Results    []*ActionResult
	BytesFreed int64
	Succeeded  int
	Skipped    int
	Failed     int
	Duration   time.Duration
}

func (s *Summary) add(r *ActionResult) {
	s.Results = append(s.Results, r)
	switch r.State {
	case StateSucceeded:
		s.Succeeded++
		s.BytesFreed += r.BytesFreed
	case StateSkipped:
		s.Skipped++
	case StateFailed:
		s.Failed++
	}
}

// Failures returns the deletion errors collected this session
func (s *Summary) Failures() []*DeletionError {
	var errs []*DeletionError
	for _, r := range s.Results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}

// ConfirmFunc asks the user to confirm one item. Returning false skips it.
type ConfirmFunc func(item *scanner.CleanableItem, reason string) bool

// Options configures an execution session
type Options struct {
	Mode Mode
	// OfficialCommands prefers an item's official clean command over
	// filesystem deletion for global caches
	OfficialCommands bool
	// AssumeYes and Force together let confirmation-required items proceed
	// without an interactive prompt
	AssumeYes bool
	Force     bool
	// Confirm handles per-item confirmation; nil means non-interactive
	Confirm ConfirmFunc
}

// Deps carries the executor's collaborators
type Deps struct {
	Checker  *gitsafe.Checker
	Trash    *trash.Backend
	Runner   toolexec.Runner
	Detector *scanner.Detector
	Platform *platform.Info
	Reporter *progress.Reporter
}

// Executor drives the per-item state machine over a selection
type Executor struct {
	opts Options
	deps Deps
	log  *logrus.Entry
}

// New creates an Executor. Trash mode requires a trash backend.
func New(opts Options, deps Deps) (*Executor, error) {
	if opts.Mode == ModeTrash && deps.Trash == nil {
		return nil, fmt.Errorf("trash mode requires a trash backend")
	}
	if deps.Detector == nil {
		return nil, fmt.Errorf("executor requires a detector for revalidation")
	}
	return &Executor{
		opts: opts,
		deps: deps,
		log:  logrus.WithField("component", "executor"),
	}, nil
}

// Execute runs the state machine over every item and returns the session
// summary. Item failures are isolated; one failure never aborts the rest.
// Cancellation marks unprocessed items Skipped and returns a valid partial
// summary.
func (e *Executor) Execute(ctx context.Context, items []*scanner.CleanableItem) *Summary {
	start := time.Now()
	summary := &Summary{Mode: e.opts.Mode}

	var total int64
	for _, item := range items {
		total += item.SizeBytes
	}

	for i, item := range items {
		if ctx.Err() != nil {
			for _, rest := range items[i:] {
				summary.add(&ActionResult{
					Item:   rest,
					State:  StateSkipped,
					Reason: SkipReasonInterrupted,
				})
			}
			break
		}

		e.reportProgress(progress.PhaseCleaning, item.Path, summary, len(items), start)
		result := e.executeOne(ctx, item)
		summary.add(result)

		e.log.WithFields(logrus.Fields{
			"path":  item.Path,
			"state": result.State.String(),
			"bytes": result.BytesFreed,
		}).Debug("Item resolved")
	}

	summary.Duration = time.Since(start)
	e.reportProgress(progress.PhaseComplete, "", summary, len(items), start)
	return summary
}

// executeOne takes a single item through Validating and, if it survives,
// the configured action
func (e *Executor) executeOne(ctx context.Context, item *scanner.CleanableItem) *ActionResult {
	start := time.Now()
	result := &ActionResult{Item: item, State: StateValidating}

	if skip := e.validate(item, result); skip {
		result.Duration = time.Since(start)
		return result
	}

	if e.opts.Mode == ModeDryRun {
		// Synthetic success with the same report shape as a real run.
		result.State = StateSucceeded
		result.BytesFreed = item.SizeBytes
		result.Duration = time.Since(start)
		return result
	}

	result.State = StateDeleting
	e.perform(ctx, item, result)
	result.Duration = time.Since(start)
	return result
}

// validate re-checks everything the scan knew about the item. Returns true
// when the item resolved to a terminal state during validation.
func (e *Executor) validate(item *scanner.CleanableItem, result *ActionResult) bool {
	if item.InUse {
		result.State = StateSkipped
		result.Reason = SkipReasonInUse
		return true
	}

	// Docker items address engine objects, not paths. Filesystem checks
	// do not apply; the command dispatch is the whole action.
	if item.Category == scanner.CategoryDocker {
		if e.deps.Runner == nil || !e.deps.Runner.LookPath("docker") {
			result.State = StateSkipped
			result.Reason = SkipReasonNoDocker
			return true
		}
		return e.checkProtection(item, result)
	}

	info, err := os.Lstat(item.Path)
	if err != nil {
		result.State = StateSkipped
		result.Reason = SkipReasonMissing
		return true
	}

	// A path that turned into a symlink since the scan is not the item
	// that was selected.
	if info.Mode()&os.ModeSymlink != 0 {
		result.State = StateFailed
		result.Err = &DeletionError{
			Path:     item.Path,
			Reason:   ReasonInvalidPath,
			Original: fmt.Errorf("path changed to a symlink"),
		}
		return true
	}

	if !e.deps.Detector.Revalidate(item) {
		result.State = StateSkipped
		result.Reason = SkipReasonReclassified
		return true
	}

	if e.deps.Platform != nil {
		if e.deps.Platform.IsProtected(item.Path) || e.deps.Platform.ContainsProtected(item.Path) {
			result.State = StateSkipped
			result.Reason = SkipReasonProtected
			return true
		}
	}

	return e.checkProtection(item, result)
}

// checkProtection applies the git protection policy with fresh state.
// Returns true when the item resolved to Skipped.
func (e *Executor) checkProtection(item *scanner.CleanableItem, result *ActionResult) bool {
	if e.deps.Checker == nil {
		return false
	}

	decision := e.deps.Checker.CheckFresh(item.Path)
	item.Git = decision.State

	switch decision.Verdict {
	case gitsafe.Allowed:
		return false
	case gitsafe.Warned:
		result.Warning = decision.Reason
		return false
	case gitsafe.Blocked:
		result.State = StateSkipped
		result.Reason = decision.Reason
		return true
	case gitsafe.NeedsConfirm:
		return !e.confirm(item, decision.Reason, result)
	}
	return false
}

// confirm resolves a NeedsConfirm verdict. Returns true when the item may
// proceed.
func (e *Executor) confirm(item *scanner.CleanableItem, reason string, result *ActionResult) bool {
	if e.opts.Confirm != nil {
		if e.opts.Confirm(item, reason) {
			return true
		}
		result.State = StateSkipped
		result.Reason = SkipReasonDeclined
		return false
	}

	if e.opts.AssumeYes && e.opts.Force {
		return true
	}
	result.State = StateSkipped
	result.Reason = SkipReasonConfirm
	return false
}

// perform runs the configured action for a validated item
func (e *Executor) perform(ctx context.Context, item *scanner.CleanableItem, result *ActionResult) {
	if e.useOfficialCommand(item) {
		e.runOfficial(ctx, item, result)
		return
	}

	switch e.opts.Mode {
	case ModeTrash:
		record, err := e.deps.Trash.Trash(item)
		if err != nil {
			result.State = StateFailed
			result.Err = CategorizeError(item.Path, err)
			return
		}
		result.State = StateSucceeded
		result.BytesFreed = item.SizeBytes
		result.TrashID = record.ID
	case ModePermanent:
		if err := e.removeWithRetry(item.Path); err != nil {
			result.State = StateFailed
			result.Err = err
			return
		}
		result.State = StateSucceeded
		result.BytesFreed = item.SizeBytes
	}
}

// useOfficialCommand decides whether the item is cleaned through its tool's
// own command instead of filesystem deletion. Docker items always are;
// their Path is an engine reference, never a deletable path.
func (e *Executor) useOfficialCommand(item *scanner.CleanableItem) bool {
	if item.Category == scanner.CategoryDocker {
		return true
	}
	if !e.opts.OfficialCommands || item.ActionHint == "" {
		return false
	}
	switch item.Category {
	case scanner.CategoryProjectArtifact, scanner.CategoryUnclassified:
		// Artifact hints are restore instructions, not clean commands.
		return false
	}
	return true
}

// runOfficial dispatches the item's official clean command through the
// runner. Success and failure map from the exit code alone.
func (e *Executor) runOfficial(ctx context.Context, item *scanner.CleanableItem, result *ActionResult) {
	name, args := toolexec.SplitCommand(item.ActionHint)
	if name == "" {
		result.State = StateFailed
		result.Err = &DeletionError{
			Path:     item.Path,
			Reason:   ReasonExternalTool,
			Original: fmt.Errorf("item has no usable clean command"),
		}
		return
	}

	res, err := e.deps.Runner.Run(ctx, name, args...)
	if err != nil {
		result.State = StateFailed
		result.Err = &DeletionError{Path: item.Path, Reason: ReasonExternalTool, Original: err}
		return
	}
	if res.ExitCode != 0 {
		result.State = StateFailed
		result.Err = &DeletionError{
			Path:   item.Path,
			Reason: ReasonExternalTool,
			Original: &toolexec.ToolError{
				Tool:     name,
				ExitCode: res.ExitCode,
				Stderr:   res.Stderr,
			},
		}
		return
	}

	result.State = StateSucceeded
	result.BytesFreed = item.SizeBytes
}

// removeWithRetry deletes a path, retrying transient in-use errors
func (e *Executor) removeWithRetry(path string) *DeletionError {
	retryDelays := []time.Duration{
		100 * time.Millisecond,
		500 * time.Millisecond,
		2 * time.Second,
	}

	var lastErr *DeletionError
	for attempt := 0; ; attempt++ {
		lastErr = e.removeOnce(path)
		if lastErr == nil {
			return nil
		}
		if !lastErr.Retryable || attempt >= len(retryDelays) {
			return lastErr
		}
		time.Sleep(retryDelays[attempt])
	}
}

func (e *Executor) removeOnce(path string) *DeletionError {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return CategorizeError(path, err)
	}

	if info.IsDir() {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil {
		return CategorizeError(path, err)
	}
	return nil
}

func (e *Executor) reportProgress(phase progress.Phase, current string, summary *Summary, total int, start time.Time) {
	if e.deps.Reporter == nil {
		return
	}
	e.deps.Reporter.UpdateClean(&progress.CleanProgress{
		Phase:       phase,
		CurrentPath: current,
		ItemsDone:   len(summary.Results),
		ItemsTotal:  total,
		BytesFreed:  summary.BytesFreed,
		Skipped:     summary.Skipped,
		Failed:      summary.Failed,
		StartTime:   start,
	})
}
