package analysis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/fenilsonani/devclean/internal/scanner"
	"github.com/fenilsonani/devclean/internal/testutil"
	"github.com/fenilsonani/devclean/internal/toolexec"
)

func newTestEngine(t *testing.T, opts Options, runner toolexec.Runner) *Engine {
	t.Helper()
	detector := scanner.NewDetector(scanner.NewCatalog(), 0)
	return NewEngine(opts, detector, scanner.NewSizer(4, 0), runner)
}

// seedLooseObjects fabricates the fanout layout of a loose object store
func seedLooseObjects(f *testutil.TestFixture, gitRel string, count, size int) {
	for i := 0; i < count; i++ {
		fanout := fmt.Sprintf("%02x", i%256)
		object := fmt.Sprintf("%038x", i)
		f.CreateFileOfSize(filepath.Join(gitRel, "objects", fanout, object), size)
	}
}

func TestAnalyzeGitFlagsLooseObjects(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("proj/.git/HEAD", []byte("ref: refs/heads/main\n"))
	seedLooseObjects(f, "proj/.git", 10, 1000)
	f.CreateFileOfSize("proj/.git/objects/pack/pack-abc.pack", 5000)
	f.CreateFileOfSize("proj/.git/objects/pack/pack-abc.idx", 500)

	e := newTestEngine(t, Options{
		GitMinRepoSize:  1 << 40,
		GitMaxLoose:     5,
		GitSavingsRatio: 0.5,
	}, nil)

	recs, err := e.AnalyzeGit(context.Background(), []string{f.RootDir})
	if err != nil {
		t.Fatalf("AnalyzeGit returned error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}

	rec := recs[0]
	if rec.Kind != KindGitGC {
		t.Errorf("Kind = %s, want %s", rec.Kind, KindGitGC)
	}
	if filepath.Base(rec.Path) != "proj" {
		t.Errorf("Path = %q, want repository root, not .git", rec.Path)
	}
	if want := int64(10 * 1000 / 2); rec.Savings != want {
		t.Errorf("Savings = %d, want %d (half of loose bytes)", rec.Savings, want)
	}
	if rec.FixCommand != "git gc --aggressive --prune=now" {
		t.Errorf("FixCommand = %q", rec.FixCommand)
	}
	if rec.Risk != scanner.SafeWithCost {
		t.Errorf("Risk = %v, want SafeWithCost", rec.Risk)
	}
}

func TestAnalyzeGitHonorsSizeThreshold(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("big/.git/HEAD", []byte("ref: refs/heads/main\n"))
	seedLooseObjects(f, "big/.git", 2, 1000)

	e := newTestEngine(t, Options{
		GitMinRepoSize:  1, // any repository qualifies by size
		GitMaxLoose:     1 << 30,
		GitSavingsRatio: 0.5,
	}, nil)

	recs, err := e.AnalyzeGit(context.Background(), []string{f.RootDir})
	if err != nil {
		t.Fatalf("AnalyzeGit returned error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	if want := int64(2 * 1000 / 2); recs[0].Savings != want {
		t.Errorf("Savings = %d, want %d", recs[0].Savings, want)
	}
}

func TestAnalyzeGitIgnoresHealthyRepo(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("tidy/.git/HEAD", []byte("ref: refs/heads/main\n"))
	seedLooseObjects(f, "tidy/.git", 3, 100)

	e := newTestEngine(t, Options{
		GitMinRepoSize: 1 << 40,
		GitMaxLoose:    1 << 30,
	}, nil)

	recs, err := e.AnalyzeGit(context.Background(), []string{f.RootDir})
	if err != nil {
		t.Fatalf("AnalyzeGit returned error: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no recommendations, got %d: %+v", len(recs), recs)
	}
}

func TestAnalyzeGitSortsBySavings(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("small/.git/HEAD", []byte("ref: refs/heads/main\n"))
	seedLooseObjects(f, "small/.git", 6, 100)
	f.CreateFile("large/.git/HEAD", []byte("ref: refs/heads/main\n"))
	seedLooseObjects(f, "large/.git", 6, 10000)

	e := newTestEngine(t, Options{
		GitMinRepoSize: 1 << 40,
		GitMaxLoose:    5,
	}, nil)

	recs, err := e.AnalyzeGit(context.Background(), []string{f.RootDir})
	if err != nil {
		t.Fatalf("AnalyzeGit returned error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(recs))
	}
	if recs[0].Savings < recs[1].Savings {
		t.Errorf("recommendations not sorted by savings: %d before %d",
			recs[0].Savings, recs[1].Savings)
	}
	if filepath.Base(recs[0].Path) != "large" {
		t.Errorf("largest repository should sort first, got %q", recs[0].Path)
	}
}

func TestAnalyzeRepoSkipsLinkedWorktree(t *testing.T) {
	f := testutil.NewFixture(t)
	// A .git file marks a linked worktree; its object store lives in the
	// main repository.
	gitFile := f.CreateFile("wt/.git", []byte("gitdir: /elsewhere/.git/worktrees/wt\n"))

	e := newTestEngine(t, Options{GitMinRepoSize: 1}, nil)

	if _, ok := e.analyzeRepo(context.Background(), gitFile); ok {
		t.Error("analyzeRepo should skip a .git file")
	}
	if _, ok := e.analyzeRepo(context.Background(), f.Path("missing/.git")); ok {
		t.Error("analyzeRepo should skip a missing path")
	}
}

func TestCountObjects(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFileOfSize(".git/objects/aa/"+testutil.RandomString(38), 100)
	f.CreateFileOfSize(".git/objects/aa/"+testutil.RandomString(38), 200)
	f.CreateFileOfSize(".git/objects/ff/"+testutil.RandomString(38), 300)
	f.CreateFileOfSize(".git/objects/pack/pack-1.pack", 1000)
	f.CreateFileOfSize(".git/objects/pack/pack-1.idx", 50)
	f.CreateFileOfSize(".git/objects/info/commit-graph", 10)

	var stats repoStats
	countObjects(f.Path(".git"), &stats)

	if stats.looseCount != 3 {
		t.Errorf("looseCount = %d, want 3", stats.looseCount)
	}
	if stats.looseBytes != 600 {
		t.Errorf("looseBytes = %d, want 600", stats.looseBytes)
	}
	if stats.packCount != 1 {
		t.Errorf("packCount = %d, want 1", stats.packCount)
	}
}

func TestIsHexFanout(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"aa", true},
		{"09", true},
		{"ff", true},
		{"f0", true},
		{"fg", false},
		{"AA", false}, // git writes lowercase fanout dirs
		{"a", false},
		{"abc", false},
		{"pack", false},
		{"info", false},
	}
	for _, tt := range tests {
		if got := isHexFanout(tt.name); got != tt.want {
			t.Errorf("isHexFanout(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFixGit(t *testing.T) {
	repoRoot := "/home/dev/proj"
	gcLine := "git -C " + repoRoot + " gc --aggressive --prune=now"

	t.Run("runs gc through the runner", func(t *testing.T) {
		fake := toolexec.NewFakeRunner()
		fake.Script(gcLine, toolexec.FakeResponse{ExitCode: 0})
		e := newTestEngine(t, Options{}, fake)

		if err := e.FixGit(context.Background(), repoRoot); err != nil {
			t.Fatalf("FixGit returned error: %v", err)
		}
		calls := fake.Calls()
		if len(calls) != 1 || calls[0] != gcLine {
			t.Errorf("calls = %v, want [%q]", calls, gcLine)
		}
	})

	t.Run("reports gc failure with exit code", func(t *testing.T) {
		fake := toolexec.NewFakeRunner()
		fake.Script(gcLine, toolexec.FakeResponse{ExitCode: 128, Stderr: "fatal: bad object"})
		e := newTestEngine(t, Options{}, fake)

		err := e.FixGit(context.Background(), repoRoot)
		if err == nil {
			t.Fatal("expected error for nonzero exit")
		}
		var toolErr *toolexec.ToolError
		if !errors.As(err, &toolErr) {
			t.Fatalf("expected ToolError, got %T: %v", err, err)
		}
		if toolErr.ExitCode != 128 {
			t.Errorf("ExitCode = %d, want 128", toolErr.ExitCode)
		}
	})

	t.Run("requires git on PATH", func(t *testing.T) {
		fake := toolexec.NewFakeRunner()
		fake.Missing["git"] = true
		e := newTestEngine(t, Options{}, fake)

		if err := e.FixGit(context.Background(), repoRoot); err == nil {
			t.Error("expected error when git is unavailable")
		}
	})

	t.Run("requires a runner", func(t *testing.T) {
		e := newTestEngine(t, Options{}, nil)
		if err := e.FixGit(context.Background(), repoRoot); err == nil {
			t.Error("expected error with nil runner")
		}
	})
}
