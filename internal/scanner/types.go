package scanner

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Category identifies what kind of cleanable resource an item is. The set is
// closed: detection dispatches over these tags rather than over an open
// interface, so a missing case is a compile-time problem, not a silent gap.
type Category int

const (
	// CategoryUnclassified marks directories that look like artifacts but lack
	// the sibling marker that would prove it (e.g. node_modules with no
	// package.json next to it). Never included in default clean sets.
	CategoryUnclassified Category = iota
	CategoryProjectArtifact
	CategoryGlobalCache
	CategoryXcode
	CategoryDocker
	CategoryAndroid
	CategoryML
	CategoryIDE
	CategoryHomebrew
	CategoryIOSDeps
	CategoryElectron
	CategoryGameDev
	CategoryCloudCLI
	CategoryMacOSSystem
)

var categoryNames = map[Category]string{
	CategoryUnclassified:    "unclassified",
	CategoryProjectArtifact: "project-artifact",
	CategoryGlobalCache:     "global-cache",
	CategoryXcode:           "xcode",
	CategoryDocker:          "docker",
	CategoryAndroid:         "android",
	CategoryML:              "ml",
	CategoryIDE:             "ide",
	CategoryHomebrew:        "homebrew",
	CategoryIOSDeps:         "ios-deps",
	CategoryElectron:        "electron",
	CategoryGameDev:         "gamedev",
	CategoryCloudCLI:        "cloud-cli",
	CategoryMacOSSystem:     "macos-system",
}

// String returns the stable lowercase name used in reports and config.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ParseCategory resolves a category name from config or flags.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, name := range categoryNames {
		if name == s {
			return c, nil
		}
	}
	return CategoryUnclassified, fmt.Errorf("unknown category %q", s)
}

// SafetyLevel is the ordered risk classification assigned at detection time.
// The executor may treat an item more conservatively than its level, never
// less.
type SafetyLevel int

const (
	// Safe items are fully regenerable with no meaningful cost.
	Safe SafetyLevel = iota
	// SafeWithCost items are regenerable but rebuilding costs time or bandwidth.
	SafeWithCost
	// Caution items may carry data loss and need explicit confirmation.
	Caution
	// Dangerous items are excluded by default and need an explicit opt-in flag.
	Dangerous
)

func (s SafetyLevel) String() string {
	switch s {
	case Safe:
		return "safe"
	case SafeWithCost:
		return "safe-with-cost"
	case Caution:
		return "caution"
	case Dangerous:
		return "dangerous"
	default:
		return fmt.Sprintf("safety(%d)", int(s))
	}
}

// ParseSafetyLevel resolves a safety level name from config or flags.
func ParseSafetyLevel(s string) (SafetyLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "safe":
		return Safe, nil
	case "safe-with-cost", "safewithcost":
		return SafeWithCost, nil
	case "caution":
		return Caution, nil
	case "dangerous":
		return Dangerous, nil
	default:
		return Safe, fmt.Errorf("unknown safety level %q", s)
	}
}

// GitState summarizes the working-tree condition of the repository an item
// lives in, if any.
type GitState int

const (
	// GitUnknown means the check has not run for this item.
	GitUnknown GitState = iota
	// GitNotARepo means no enclosing git working tree was found.
	GitNotARepo
	// GitClean means the enclosing working tree has no local modifications.
	GitClean
	// GitUncommitted means the enclosing working tree has modified, staged or
	// untracked files.
	GitUncommitted
)

func (g GitState) String() string {
	switch g {
	case GitNotARepo:
		return "not-a-repo"
	case GitClean:
		return "clean"
	case GitUncommitted:
		return "uncommitted"
	default:
		return "unknown"
	}
}

// CleanableItem is one discovered deletion candidate. Items are created by
// detection during a scan pass and are immutable afterwards; nothing is
// persisted across invocations.
type CleanableItem struct {
	// Path is the absolute location of the directory or file.
	Path string `json:"path"`
	// Category tags which detector produced the item.
	Category Category `json:"category"`
	// Label is the human-readable description, e.g. "node_modules".
	Label string `json:"label"`
	// SizeBytes is the recursive apparent size, computed once per scan.
	SizeBytes int64 `json:"size_bytes"`
	// FileCount is the number of regular files under Path.
	FileCount int64 `json:"file_count"`
	// Safety is assigned at classification time and never loosened later.
	Safety SafetyLevel `json:"safety"`
	// LastActivity is the most recent known activity (mtime or git commit);
	// zero when unknown.
	LastActivity time.Time `json:"last_activity,omitempty"`
	// Git is the working-tree state observed at scan time. The executor
	// re-checks immediately before acting; this field is informational.
	Git GitState `json:"git_status,omitempty"`
	// ActionHint is an optional remediation command: the official clean
	// command for a global cache, or the command that regenerates a deleted
	// project artifact. Official commands are only executed for cache
	// categories; artifact hints are informational.
	ActionHint string `json:"action_hint,omitempty"`
	// InUse marks resources that must not be deleted right now, such as a
	// Docker image backing a running container. Always paired with Dangerous.
	InUse bool `json:"in_use,omitempty"`
}

// Name returns the base name of the item path for display.
func (it *CleanableItem) Name() string {
	if idx := strings.LastIndexByte(it.Path, '/'); idx >= 0 && idx < len(it.Path)-1 {
		return it.Path[idx+1:]
	}
	return it.Path
}

// DefaultSelectable reports whether the item belongs in a default clean set:
// classified, not dangerous, not in use.
func (it *CleanableItem) DefaultSelectable() bool {
	return it.Category != CategoryUnclassified && it.Safety < Caution && !it.InUse
}

// ScanError records a path that could not be traversed or sized. Recoverable
// errors never abort a scan; they are counted and reported at the end.
type ScanError struct {
	Path        string
	Err         error
	Recoverable bool
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// ScanResult aggregates everything one scan invocation found. It is built up
// under the scanner's lock while workers run and must be treated as immutable
// once Scan returns. A cancelled scan returns a valid partial result.
type ScanResult struct {
	Items     []CleanableItem
	TotalSize int64
	Errors    []*ScanError
	// SkippedPaths counts subtrees dropped due to recoverable I/O errors.
	SkippedPaths int
	// Roots are the roots actually walked (missing roots are dropped and
	// recorded in Errors).
	Roots []string
	// Partial is true when the scan was cancelled before completing.
	Partial  bool
	Duration time.Duration
}

// ItemCount returns the number of discovered items.
func (r *ScanResult) ItemCount() int { return len(r.Items) }

// ByCategory partitions the items for display. The partition preserves no
// particular order; callers sort for presentation.
func (r *ScanResult) ByCategory() map[Category][]CleanableItem {
	grouped := make(map[Category][]CleanableItem)
	for _, it := range r.Items {
		grouped[it.Category] = append(grouped[it.Category], it)
	}
	return grouped
}

// SortedBySize returns the items ordered largest first. The receiver is not
// modified.
func (r *ScanResult) SortedBySize() []CleanableItem {
	items := make([]CleanableItem, len(r.Items))
	copy(items, r.Items)
	sort.Slice(items, func(i, j int) bool { return items[i].SizeBytes > items[j].SizeBytes })
	return items
}

// Selectable returns the items eligible for a default clean action.
func (r *ScanResult) Selectable() []CleanableItem {
	var out []CleanableItem
	for _, it := range r.Items {
		if it.DefaultSelectable() {
			out = append(out, it)
		}
	}
	return out
}
