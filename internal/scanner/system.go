package scanner

import (
	"os"
	"path/filepath"
)

// DetectSystem stats the system-scan definitions (Xcode, IDE, game engine,
// cloud CLI and OS paths) under home. Xcode DerivedData is expanded into one
// item per project build directory so recency can be judged per project.
func (d *Detector) DetectSystem(home string) []CleanableItem {
	var items []CleanableItem
	for _, def := range d.catalog.SystemPaths() {
		path, ok := firstExistingDir(home, def.RelPaths)
		if !ok {
			continue
		}
		if def.ID == "xcode-derived" {
			items = append(items, d.expandDerivedData(path, def)...)
			continue
		}
		items = append(items, CleanableItem{
			Path:         path,
			Category:     def.Category,
			Label:        def.Name,
			Safety:       def.Safety,
			LastActivity: d.mtime(path),
			ActionHint:   def.CleanCommand,
		})
	}
	return items
}

// expandDerivedData lists per-project build directories under DerivedData.
// A project built within the recency window is downgraded from Safe to
// SafeWithCost: the products are regenerable but a rebuild is imminent and
// costly. Anything else under DerivedData (ModuleCache.noindex and friends)
// is left to the per-project entries' siblings and not reported separately.
func (d *Detector) expandDerivedData(root string, def CacheDef) []CleanableItem {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	cutoff := d.now().Add(-d.xcodeRecency)
	var items []CleanableItem
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(root, e.Name())
		info, err := e.Info()
		if err != nil {
			continue
		}
		safety := Safe
		if info.ModTime().After(cutoff) {
			safety = SafeWithCost
		}
		items = append(items, CleanableItem{
			Path:         path,
			Category:     def.Category,
			Label:        def.Name + ": " + projectName(e.Name()),
			Safety:       safety,
			LastActivity: info.ModTime(),
		})
	}
	return items
}

// projectName strips the build-hash suffix Xcode appends to DerivedData
// directories ("MyApp-abcdefgh…" → "MyApp").
func projectName(dirName string) string {
	for i := len(dirName) - 1; i > 0; i-- {
		if dirName[i] == '-' {
			return dirName[:i]
		}
	}
	return dirName
}
