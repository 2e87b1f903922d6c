package scanner

import (
	"os"
	"path/filepath"
	"time"
)

// Default recency window below which Xcode build products are considered
// still in active use.
const DefaultXcodeRecency = 7 * 24 * time.Hour

// Detector turns walked entries and fixed-path lookups into classified
// items. The category set is closed: each variant group has exactly one
// dispatch path here, and Revalidate enumerates every category so a new one
// cannot be added without deciding its re-validation rule.
type Detector struct {
	catalog      *Catalog
	xcodeRecency time.Duration
	now          func() time.Time
}

// NewDetector builds a detector over the shared catalog. xcodeRecency <= 0
// selects the default window.
func NewDetector(catalog *Catalog, xcodeRecency time.Duration) *Detector {
	if xcodeRecency <= 0 {
		xcodeRecency = DefaultXcodeRecency
	}
	return &Detector{
		catalog:      catalog,
		xcodeRecency: xcodeRecency,
		now:          time.Now,
	}
}

// Catalog exposes the lookup table the detector dispatches over.
func (d *Detector) Catalog() *Catalog { return d.catalog }

// Detect classifies one walked entry. It is a pure function of the entry,
// the catalog, and sibling marker stats in the parent directory; it performs
// no traversal of its own. Size is filled in later by the sizer.
//
// Pruned entries whose marker is missing are still reported, as
// Unclassified, so the user can see them under a show-all listing; they
// never join a default clean set.
func (d *Detector) Detect(entry WalkEntry) (CleanableItem, bool) {
	if !entry.Pruned {
		return CleanableItem{}, false
	}
	rule, ok := d.matchArtifact(entry.Path, entry.Name)
	if !ok {
		return CleanableItem{
			Path:         entry.Path,
			Category:     CategoryUnclassified,
			Label:        "unrecognized " + entry.Name + " directory",
			Safety:       Caution,
			LastActivity: d.mtime(entry.Path),
		}, true
	}
	return CleanableItem{
		Path:         entry.Path,
		Category:     CategoryProjectArtifact,
		Label:        rule.Label,
		Safety:       rule.Safety,
		LastActivity: d.mtime(entry.Path),
		ActionHint:   rule.RestoreHint,
	}, true
}

// Revalidate re-runs the category's membership check for an already
// classified item. The executor calls this immediately before acting so a
// path that vanished or changed shape since the scan is skipped rather than
// deleted. Dispatch is exhaustive over the category set.
func (d *Detector) Revalidate(item *CleanableItem) bool {
	switch item.Category {
	case CategoryProjectArtifact:
		_, ok := d.matchArtifact(item.Path, filepath.Base(item.Path))
		return ok
	case CategoryUnclassified:
		return isDir(item.Path) && d.catalog.IsArtifactName(filepath.Base(item.Path))
	case CategoryGlobalCache, CategoryXcode, CategoryAndroid, CategoryML,
		CategoryIDE, CategoryHomebrew, CategoryIOSDeps, CategoryElectron,
		CategoryGameDev, CategoryCloudCLI, CategoryMacOSSystem:
		return isDir(item.Path)
	case CategoryDocker:
		// Docker resources have no filesystem path to re-check; the daemon
		// is consulted at execution time through its official commands.
		return true
	}
	return false
}

func (d *Detector) mtime(path string) time.Time {
	info, err := os.Lstat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

func isDir(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.IsDir()
}
