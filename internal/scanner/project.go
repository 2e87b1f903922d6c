package scanner

import (
	"os"
	"path/filepath"
)

// matchArtifact resolves the artifact rule for a directory, checking sibling
// markers in the parent. Rules are consulted in table order; the first whose
// marker is present wins, so "target" resolves to Rust next to Cargo.toml
// and to Maven next to pom.xml.
func (d *Detector) matchArtifact(path, name string) (ArtifactRule, bool) {
	rules := d.catalog.RulesFor(name)
	if len(rules) == 0 {
		return ArtifactRule{}, false
	}
	parent := filepath.Dir(path)
	var siblings []string
	siblingsLoaded := false

	for _, rule := range rules {
		if len(rule.Markers) == 0 {
			return rule, true
		}
		for _, marker := range rule.Markers {
			if isLiteral(marker) {
				if fileExists(filepath.Join(parent, marker)) {
					return rule, true
				}
				continue
			}
			if !siblingsLoaded {
				siblings = readNames(parent)
				siblingsLoaded = true
			}
			for _, s := range siblings {
				if matchMarker(marker, s) {
					return rule, true
				}
			}
		}
	}
	return ArtifactRule{}, false
}

// DetectProjectRoot reports whether dir contains a project marker file and
// returns the first marker found. Used by staleness analysis to group
// artifacts under their project.
func (d *Detector) DetectProjectRoot(dir string) (string, bool) {
	for _, marker := range d.catalog.ProjectMarkers() {
		if fileExists(filepath.Join(dir, marker)) {
			return marker, true
		}
	}
	return "", false
}

func isLiteral(pattern string) bool {
	for _, r := range pattern {
		if r == '*' || r == '?' || r == '[' {
			return false
		}
	}
	return true
}

func fileExists(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode().IsRegular()
}

func readNames(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}
