package scanner

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/fenilsonani/devclean/internal/testutil"
)

// =============================================================================
// Traversal Tests
// =============================================================================

// walkAll runs one walk to completion and returns the entries keyed by their
// slash-separated path relative to the walk root, "." for the root itself.
func walkAll(t *testing.T, w *Walker, roots []string) (map[string]WalkEntry, []*ScanError) {
	t.Helper()

	var mu sync.Mutex
	entries := make(map[string]WalkEntry)
	errs := w.Walk(context.Background(), roots, func(e WalkEntry) {
		rel, err := filepath.Rel(e.Root, e.Path)
		if err != nil {
			t.Errorf("entry %q outside its root %q: %v", e.Path, e.Root, err)
			return
		}
		mu.Lock()
		entries[filepath.ToSlash(rel)] = e
		mu.Unlock()
	})
	return entries, errs
}

func TestWalkerEmitsEveryDirectory(t *testing.T) {
	fix := testutil.NewFixture(t)
	fix.CreateDir("a/b")
	fix.CreateDir("c")
	fix.CreateFile("a/file.txt", []byte("x"))

	entries, errs := walkAll(t, NewWalker(WalkOptions{}, nil), []string{fix.RootDir})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	for _, rel := range []string{".", "a", "a/b", "c"} {
		if _, ok := entries[rel]; !ok {
			t.Errorf("missing entry for %q", rel)
		}
	}
	if len(entries) != 4 {
		t.Errorf("entry count = %d, want 4", len(entries))
	}
	if e := entries["a/b"]; e.Depth != 2 || e.Name != "b" {
		t.Errorf("a/b entry = depth %d name %q, want depth 2 name \"b\"", e.Depth, e.Name)
	}
	if e := entries["."]; e.Depth != 0 {
		t.Errorf("root depth = %d, want 0", e.Depth)
	}
}

func TestWalkerPrunesMatchedSubtrees(t *testing.T) {
	fix := testutil.NewFixture(t)
	fix.CreateFileOfSize("web/node_modules/lodash/lodash.js", 10)
	fix.CreateDir("web/src")

	w := NewWalker(WalkOptions{}, func(path string) bool {
		return filepath.Base(path) == "node_modules"
	})
	entries, _ := walkAll(t, w, []string{fix.RootDir})

	e, ok := entries["web/node_modules"]
	if !ok {
		t.Fatal("pruned directory was not emitted")
	}
	if !e.Pruned {
		t.Error("entry not marked pruned")
	}
	if _, ok := entries["web/node_modules/lodash"]; ok {
		t.Error("walker descended into a pruned subtree")
	}
	if _, ok := entries["web/src"]; !ok {
		t.Error("sibling of the pruned directory missing")
	}
}

func TestWalkerSkipHidden(t *testing.T) {
	fix := testutil.NewFixture(t)
	fix.CreateDir(".git/objects")
	fix.CreateDir("src")
	fix.CreateFileOfSize(".mypy_cache/data.json", 10)

	w := NewWalker(WalkOptions{SkipHidden: true}, func(path string) bool {
		return filepath.Base(path) == ".mypy_cache"
	})
	entries, _ := walkAll(t, w, []string{fix.RootDir})

	if _, ok := entries[".git"]; !ok {
		t.Error("hidden directory itself should still be emitted")
	}
	if _, ok := entries[".git/objects"]; ok {
		t.Error("walker descended into a hidden directory")
	}
	if e, ok := entries[".mypy_cache"]; !ok || !e.Pruned {
		t.Error("prune should still match hidden directories")
	}
	if _, ok := entries["src"]; !ok {
		t.Error("regular sibling missing")
	}
}

func TestWalkerHiddenRootIsWalked(t *testing.T) {
	fix := testutil.NewFixture(t)
	root := fix.CreateDir(".workspace")
	fix.CreateDir(".workspace/sub")

	entries, _ := walkAll(t, NewWalker(WalkOptions{SkipHidden: true}, nil), []string{root})
	if _, ok := entries["sub"]; !ok {
		t.Error("children of a hidden root should be walked")
	}
}

func TestWalkerMaxDepth(t *testing.T) {
	fix := testutil.NewFixture(t)
	fix.CreateDir("d1/d2/d3/d4")

	entries, _ := walkAll(t, NewWalker(WalkOptions{MaxDepth: 2}, nil), []string{fix.RootDir})

	for _, rel := range []string{".", "d1", "d1/d2"} {
		if _, ok := entries[rel]; !ok {
			t.Errorf("missing entry for %q", rel)
		}
	}
	if _, ok := entries["d1/d2/d3"]; ok {
		t.Error("walker descended past MaxDepth")
	}
}

func TestWalkerIgnorePatterns(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		want     []string
		absent   []string
	}{
		{
			name:     "base name",
			patterns: []string{"skip"},
			want:     []string{".", "keep", "nested", "nested/dist"},
			absent:   []string{"skip", "skip/child"},
		},
		{
			name:     "doublestar",
			patterns: []string{"**/dist"},
			want:     []string{".", "keep", "skip", "skip/child", "nested"},
			absent:   []string{"nested/dist"},
		},
		{
			name:     "relative glob",
			patterns: []string{"skip/*"},
			want:     []string{".", "keep", "skip", "nested", "nested/dist"},
			absent:   []string{"skip/child"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fix := testutil.NewFixture(t)
			fix.CreateDir("keep")
			fix.CreateDir("skip/child")
			fix.CreateDir("nested/dist")

			w := NewWalker(WalkOptions{IgnorePatterns: tt.patterns}, nil)
			entries, _ := walkAll(t, w, []string{fix.RootDir})

			for _, rel := range tt.want {
				if _, ok := entries[rel]; !ok {
					t.Errorf("missing entry for %q", rel)
				}
			}
			for _, rel := range tt.absent {
				if _, ok := entries[rel]; ok {
					t.Errorf("entry %q should have been ignored", rel)
				}
			}
		})
	}
}

func TestWalkerIgnoreNeverAppliesToRoot(t *testing.T) {
	fix := testutil.NewFixture(t)
	root := fix.CreateDir("workroot")
	fix.CreateDir("workroot/inner")

	w := NewWalker(WalkOptions{IgnorePatterns: []string{"workroot"}}, nil)
	entries, _ := walkAll(t, w, []string{root})

	if _, ok := entries["."]; !ok {
		t.Error("root dropped by an ignore pattern matching its own name")
	}
	if _, ok := entries["inner"]; !ok {
		t.Error("root contents not walked")
	}
}

func TestWalkerRootResolution(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		fix := testutil.NewFixture(t)
		entries, errs := walkAll(t, NewWalker(WalkOptions{}, nil), []string{fix.Path("nope")})
		if len(entries) != 0 {
			t.Errorf("entries = %d, want 0", len(entries))
		}
		if len(errs) != 1 || errs[0].Recoverable {
			t.Fatalf("want one non-recoverable error, got %v", errs)
		}
	})

	t.Run("file root", func(t *testing.T) {
		fix := testutil.NewFixture(t)
		file := fix.CreateFile("afile", []byte("x"))
		_, errs := walkAll(t, NewWalker(WalkOptions{}, nil), []string{file})
		if len(errs) != 1 || errs[0].Recoverable {
			t.Fatalf("want one non-recoverable error, got %v", errs)
		}
	})

	t.Run("duplicate roots collapse", func(t *testing.T) {
		fix := testutil.NewFixture(t)
		fix.CreateDir("sub")

		var mu sync.Mutex
		rootEmits := 0
		NewWalker(WalkOptions{}, nil).Walk(context.Background(),
			[]string{fix.RootDir, fix.RootDir}, func(e WalkEntry) {
				if e.Depth == 0 {
					mu.Lock()
					rootEmits++
					mu.Unlock()
				}
			})
		if rootEmits != 1 {
			t.Errorf("root emitted %d times, want 1", rootEmits)
		}
	})

	t.Run("nested root dropped", func(t *testing.T) {
		fix := testutil.NewFixture(t)
		sub := fix.CreateDir("sub")

		var mu sync.Mutex
		var roots []string
		NewWalker(WalkOptions{}, nil).Walk(context.Background(),
			[]string{fix.RootDir, sub}, func(e WalkEntry) {
				mu.Lock()
				roots = append(roots, e.Root)
				mu.Unlock()
			})

		want, err := filepath.EvalSymlinks(fix.RootDir)
		if err != nil {
			t.Fatal(err)
		}
		for _, r := range roots {
			if r != want {
				t.Errorf("entry walked under root %q, want %q", r, want)
			}
		}
		if len(roots) != 2 {
			t.Errorf("entries = %d, want 2 (root and sub, each once)", len(roots))
		}
	})

	t.Run("symlinked root resolves to target", func(t *testing.T) {
		fix := testutil.NewFixture(t)
		real := fix.CreateDir("real")
		fix.CreateDir("real/inner")
		link := fix.CreateSymlink(real, "link")

		entries, _ := walkAll(t, NewWalker(WalkOptions{}, nil), []string{link})

		want, err := filepath.EvalSymlinks(real)
		if err != nil {
			t.Fatal(err)
		}
		e, ok := entries["."]
		if !ok {
			t.Fatal("root entry missing")
		}
		if e.Root != want {
			t.Errorf("root = %q, want resolved target %q", e.Root, want)
		}
		if _, ok := entries["inner"]; !ok {
			t.Error("target contents not walked")
		}
	})
}

func TestWalkerDoesNotFollowDirSymlinks(t *testing.T) {
	fix := testutil.NewFixture(t)
	real := fix.CreateDir("real")
	fix.CreateDir("real/inner")
	fix.CreateSymlink(real, "alias")

	entries, _ := walkAll(t, NewWalker(WalkOptions{}, nil), []string{fix.RootDir})

	if _, ok := entries["alias"]; ok {
		t.Error("symlinked directory was emitted")
	}
	if _, ok := entries["real/inner"]; !ok {
		t.Error("real directory missing")
	}
	if len(entries) != 3 {
		t.Errorf("entry count = %d, want 3 (root, real, real/inner)", len(entries))
	}
}

func TestWalkerUnreadableDirIsRecoverable(t *testing.T) {
	testutil.SkipIfRoot(t)

	fix := testutil.NewFixture(t)
	fix.CreateDir("locked/secret")
	fix.CreateDir("open")
	fix.MakeUnreadable(fix.Path("locked"))

	entries, errs := walkAll(t, NewWalker(WalkOptions{}, nil), []string{fix.RootDir})

	if _, ok := entries["locked"]; !ok {
		t.Error("unreadable directory itself should be emitted")
	}
	if _, ok := entries["locked/secret"]; ok {
		t.Error("walker descended into an unreadable directory")
	}
	if _, ok := entries["open"]; !ok {
		t.Error("sibling of the unreadable directory missing")
	}
	if len(errs) != 1 || !errs[0].Recoverable {
		t.Fatalf("want one recoverable error, got %v", errs)
	}
}

func TestWalkerCancelStopsDescent(t *testing.T) {
	fix := testutil.NewFixture(t)
	fix.CreateDir("a/b/c")
	fix.CreateDir("d/e")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A single worker makes the schedule deterministic: the root is popped
	// and emitted, cancel lands inside emit, and no children are queued.
	var mu sync.Mutex
	var seen []string
	NewWalker(WalkOptions{Workers: 1}, nil).Walk(ctx, []string{fix.RootDir}, func(e WalkEntry) {
		mu.Lock()
		seen = append(seen, e.Path)
		mu.Unlock()
		cancel()
	})

	if len(seen) != 1 {
		t.Fatalf("entries after cancel = %d, want 1 (the root)", len(seen))
	}
}
