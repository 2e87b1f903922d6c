package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/fenilsonani/devclean/internal/scanner"
	"github.com/fenilsonani/devclean/pkg/utils"
)

// pkgCopy is one installed copy of an npm package
type pkgCopy struct {
	Name        string
	Version     string
	Fingerprint uint64
	Path        string
	SizeBytes   int64
}

// AnalyzeDuplicates inspects the scan's artifact items for dependency trees
// installed more than once. All savings figures are heuristic.
func (e *Engine) AnalyzeDuplicates(ctx context.Context, items []scanner.CleanableItem) ([]Recommendation, error) {
	var recs []Recommendation

	if rec, ok := e.analyzeNodeDuplicates(ctx, items); ok {
		recs = append(recs, rec)
	}
	if rec, ok := e.analyzeVenvs(items); ok {
		recs = append(recs, rec)
	}
	if rec, ok := e.analyzeRustTargets(items); ok {
		recs = append(recs, rec)
	}

	return recs, ctx.Err()
}

// analyzeNodeDuplicates groups installed packages across every scanned
// node_modules by name. Exact copies (same version and manifest
// fingerprint) count their all-but-one size as savings; differing versions
// are reported but not counted.
func (e *Engine) analyzeNodeDuplicates(ctx context.Context, items []scanner.CleanableItem) (Recommendation, bool) {
	byName := make(map[string][]pkgCopy)
	trees := 0

	for i := range items {
		item := &items[i]
		if item.Category != scanner.CategoryProjectArtifact || filepath.Base(item.Path) != "node_modules" {
			continue
		}
		trees++
		for _, pc := range e.readInstalledPackages(ctx, item.Path) {
			byName[pc.Name] = append(byName[pc.Name], pc)
		}
	}
	if trees < 2 {
		return Recommendation{}, false
	}

	type dupGroup struct {
		name    string
		copies  int
		exact   int
		savings int64
	}
	var groups []dupGroup
	var totalSavings int64

	for name, copies := range byName {
		if len(copies) < 2 {
			continue
		}
		g := dupGroup{name: name, copies: len(copies)}

		// Same version and fingerprint means byte-identical manifests;
		// only those copies are safely deduplicable.
		byExact := make(map[string][]pkgCopy)
		for _, c := range copies {
			key := c.Version + "/" + utils.FingerprintString(c.Fingerprint)
			byExact[key] = append(byExact[key], c)
		}
		for _, exact := range byExact {
			if len(exact) < 2 {
				continue
			}
			var sum, max int64
			for _, c := range exact {
				sum += c.SizeBytes
				if c.SizeBytes > max {
					max = c.SizeBytes
				}
			}
			g.exact += len(exact) - 1
			g.savings += sum - max
		}

		groups = append(groups, g)
		totalSavings += g.savings
	}
	if len(groups) == 0 {
		return Recommendation{}, false
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].savings > groups[j].savings })

	top := make([]string, 0, 5)
	for i, g := range groups {
		if i == 5 {
			break
		}
		top = append(top, fmt.Sprintf("%s ×%d (%s duplicated)",
			g.name, g.copies, humanize.IBytes(uint64(g.savings))))
	}

	return Recommendation{
		Kind:  KindDuplicateDeps,
		Title: fmt.Sprintf("duplicate npm packages across %d projects", trees),
		Detail: fmt.Sprintf("%d packages installed more than once; largest: %s; savings are a heuristic for identical copies only",
			len(groups), strings.Join(top, ", ")),
		Savings: totalSavings,
		Risk:    scanner.Caution,
	}, true
}

// readInstalledPackages lists the direct packages of one node_modules tree.
// Scoped (@org) directories hold nested packages, not manifests, and are
// skipped.
func (e *Engine) readInstalledPackages(ctx context.Context, nodeModules string) []pkgCopy {
	entries, err := os.ReadDir(nodeModules)
	if err != nil {
		return nil
	}

	var copies []pkgCopy
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") || strings.HasPrefix(entry.Name(), "@") {
			continue
		}
		pkgDir := filepath.Join(nodeModules, entry.Name())
		manifest := filepath.Join(pkgDir, "package.json")

		data, err := os.ReadFile(manifest)
		if err != nil {
			continue
		}
		var meta struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		}
		if err := json.Unmarshal(data, &meta); err != nil || meta.Name == "" {
			continue
		}

		fp, err := utils.Fingerprint(manifest)
		if err != nil {
			continue
		}
		size, _, err := e.sizer.Size(ctx, pkgDir)
		if err != nil {
			continue
		}

		copies = append(copies, pkgCopy{
			Name:        meta.Name,
			Version:     meta.Version,
			Fingerprint: fp,
			Path:        pkgDir,
			SizeBytes:   size,
		})
	}
	return copies
}

// analyzeVenvs applies the documented overlap heuristic to Python virtual
// environments
func (e *Engine) analyzeVenvs(items []scanner.CleanableItem) (Recommendation, bool) {
	var count int
	var total int64
	for i := range items {
		if isVenv(&items[i]) {
			count++
			total += items[i].SizeBytes
		}
	}
	if count < e.opts.VenvMinCount || total < e.opts.VenvMinTotal {
		return Recommendation{}, false
	}

	savings := int64(float64(total) * e.opts.VenvOverlapRatio)
	return Recommendation{
		Kind:  KindDuplicateDeps,
		Title: fmt.Sprintf("%d Python virtual environments", count),
		Detail: fmt.Sprintf("%s across %d venvs; assuming ~%.0f%% package overlap (heuristic), shared tooling like uv or a central venv could reclaim %s",
			humanize.IBytes(uint64(total)), count, e.opts.VenvOverlapRatio*100,
			humanize.IBytes(uint64(savings))),
		Savings: savings,
		Risk:    scanner.Caution,
	}, true
}

func isVenv(item *scanner.CleanableItem) bool {
	base := filepath.Base(item.Path)
	if base == ".venv" || base == "venv" {
		return true
	}
	_, err := os.Lstat(filepath.Join(item.Path, "pyvenv.cfg"))
	return err == nil
}

// analyzeRustTargets applies the shared-compilation heuristic to Cargo
// target directories
func (e *Engine) analyzeRustTargets(items []scanner.CleanableItem) (Recommendation, bool) {
	var count int
	var total int64
	for i := range items {
		item := &items[i]
		if item.Category != scanner.CategoryProjectArtifact || filepath.Base(item.Path) != "target" {
			continue
		}
		count++
		total += item.SizeBytes
	}
	if count < e.opts.RustMinCount || total == 0 {
		return Recommendation{}, false
	}

	savings := int64(float64(total) * e.opts.RustSharedRatio)
	return Recommendation{
		Kind:  KindDuplicateDeps,
		Title: fmt.Sprintf("%d Cargo target directories", count),
		Detail: fmt.Sprintf("%s of build output; a shared target dir (CARGO_TARGET_DIR) or sccache typically saves ~%.0f%% (heuristic), about %s",
			humanize.IBytes(uint64(total)), e.opts.RustSharedRatio*100,
			humanize.IBytes(uint64(savings))),
		Savings: savings,
		Risk:    scanner.Safe,
	}, true
}
