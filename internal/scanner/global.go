package scanner

import (
	"os"
	"path/filepath"
)

// DetectCaches stats the fixed-path cache definitions under home and returns
// an item for each cache present. Sizes are not computed here. These
// detectors never consult walked trees and run only under their dedicated
// commands.
func (d *Detector) DetectCaches(home string) []CleanableItem {
	return d.detectFixed(home, d.catalog.Caches())
}

func (d *Detector) detectFixed(home string, defs []CacheDef) []CleanableItem {
	var items []CleanableItem
	for _, def := range defs {
		path, ok := firstExistingDir(home, def.RelPaths)
		if !ok {
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

// firstExistingDir resolves the first candidate that exists and is a
// directory.
func firstExistingDir(home string, relPaths []string) (string, bool) {
	for _, rel := range relPaths {
		path := filepath.Join(home, rel)
		info, err := os.Lstat(path)
		if err == nil && info.IsDir() {
			return path, true
		}
	}
	return "", false
}
