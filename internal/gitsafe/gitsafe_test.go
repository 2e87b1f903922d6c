package gitsafe

import (
	"testing"
	"time"

	"github.com/fenilsonani/devclean/internal/scanner"
	"github.com/fenilsonani/devclean/internal/testutil"
)

func TestParseProtectionLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    ProtectionLevel
		wantErr bool
	}{
		{"none", ProtectionNone, false},
		{"warn", ProtectionWarn, false},
		{"block", ProtectionBlock, false},
		{"paranoid", ProtectionParanoid, false},
		{"BLOCK", ProtectionBlock, false},
		{"Warn", ProtectionWarn, false},
		{"strict", ProtectionNone, true},
		{"", ProtectionNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseProtectionLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseProtectionLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseProtectionLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestProtectionLevelString(t *testing.T) {
	if got := ProtectionBlock.String(); got != "block" {
		t.Errorf("String() = %q, want %q", got, "block")
	}
	if got := ProtectionLevel(99).String(); got != "unknown" {
		t.Errorf("String() = %q, want %q", got, "unknown")
	}
}

func TestFindRepoRoot(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateNodeProject("code/proj", 1024)
	f.InitRepo("code/proj")
	f.CreateDir("code/plain")

	t.Run("item inside repo", func(t *testing.T) {
		root, found := FindRepoRoot(f.Path("code/proj/node_modules/lodash"))
		if !found {
			t.Fatal("expected to find repo root")
		}
		if root != f.Path("code/proj") {
			t.Errorf("root = %s, want %s", root, f.Path("code/proj"))
		}
	})

	t.Run("repo root itself", func(t *testing.T) {
		root, found := FindRepoRoot(f.Path("code/proj"))
		if !found || root != f.Path("code/proj") {
			t.Errorf("root = %s found = %v", root, found)
		}
	})

	t.Run("file path starts from parent dir", func(t *testing.T) {
		root, found := FindRepoRoot(f.Path("code/proj/package.json"))
		if !found || root != f.Path("code/proj") {
			t.Errorf("root = %s found = %v", root, found)
		}
	})

	t.Run("outside any repo", func(t *testing.T) {
		if _, found := FindRepoRoot(f.Path("code/plain")); found {
			t.Error("expected no repo root outside a repository")
		}
	})
}

func TestCheckerState(t *testing.T) {
	f := testutil.NewFixture(t)

	f.CreateNodeProject("clean", 512)
	f.InitRepo("clean")

	f.CreateNodeProject("dirty", 512)
	f.InitRepo("dirty")
	f.CreateFile("dirty/scratch.txt", []byte("not committed"))

	f.CreateDir("norepo/node_modules")

	tests := []struct {
		name string
		path string
		want scanner.GitState
	}{
		{"clean repo", "clean/node_modules", scanner.GitClean},
		{"untracked file makes repo dirty", "dirty/node_modules", scanner.GitUncommitted},
		{"not a repository", "norepo/node_modules", scanner.GitNotARepo},
	}

	checker := NewChecker(ProtectionBlock)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.State(f.Path(tt.path)); got != tt.want {
				t.Errorf("State() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckerStateModifiedTracked(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateNodeProject("proj", 512)
	f.InitRepo("proj")
	f.CreateFile("proj/index.js", []byte("module.exports = { changed: true }\n"))

	checker := NewChecker(ProtectionBlock)
	if got := checker.State(f.Path("proj/node_modules")); got != scanner.GitUncommitted {
		t.Errorf("State() = %v, want %v", got, scanner.GitUncommitted)
	}
}

func TestCheckPolicy(t *testing.T) {
	f := testutil.NewFixture(t)

	f.CreateNodeProject("clean", 512)
	f.InitRepo("clean")

	f.CreateNodeProject("dirty", 512)
	f.InitRepo("dirty")
	f.CreateFile("dirty/wip.txt", []byte("work in progress"))

	f.CreateDir("norepo/node_modules")

	tests := []struct {
		name  string
		level ProtectionLevel
		path  string
		want  Verdict
	}{
		{"none allows clean", ProtectionNone, "clean/node_modules", Allowed},
		{"none allows dirty", ProtectionNone, "dirty/node_modules", Allowed},
		{"none allows non-repo", ProtectionNone, "norepo/node_modules", Allowed},
		{"warn allows clean", ProtectionWarn, "clean/node_modules", Allowed},
		{"warn warns dirty", ProtectionWarn, "dirty/node_modules", Warned},
		{"warn allows non-repo", ProtectionWarn, "norepo/node_modules", Allowed},
		{"block allows clean", ProtectionBlock, "clean/node_modules", Allowed},
		{"block blocks dirty", ProtectionBlock, "dirty/node_modules", Blocked},
		{"block allows non-repo", ProtectionBlock, "norepo/node_modules", Allowed},
		{"paranoid confirms clean", ProtectionParanoid, "clean/node_modules", NeedsConfirm},
		{"paranoid confirms dirty", ProtectionParanoid, "dirty/node_modules", NeedsConfirm},
		{"paranoid confirms non-repo", ProtectionParanoid, "norepo/node_modules", NeedsConfirm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker(tt.level)
			d := checker.Check(f.Path(tt.path))
			if d.Verdict != tt.want {
				t.Errorf("Check() verdict = %v, want %v (state %v)", d.Verdict, tt.want, d.State)
			}
			if tt.want == Warned || tt.want == Blocked || tt.want == NeedsConfirm {
				if d.Reason == "" {
					t.Error("expected a reason for non-allowed verdict")
				}
			}
		})
	}
}

func TestCheckUntrackedOnlyReason(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateNodeProject("proj", 512)
	f.InitRepo("proj")
	f.CreateFile("proj/notes.txt", []byte("untracked"))

	checker := NewChecker(ProtectionWarn)
	d := checker.Check(f.Path("proj/node_modules"))
	if d.Verdict != Warned {
		t.Fatalf("verdict = %v, want %v", d.Verdict, Warned)
	}
	if d.Reason != "repository has untracked files" {
		t.Errorf("reason = %q, want untracked-specific reason", d.Reason)
	}
}

func TestCheckFreshBypassesCache(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateNodeProject("proj", 512)
	f.InitRepo("proj")

	checker := NewChecker(ProtectionBlock)
	target := f.Path("proj/node_modules")

	if d := checker.Check(target); d.Verdict != Allowed {
		t.Fatalf("initial verdict = %v, want %v", d.Verdict, Allowed)
	}

	// Repo becomes dirty between scan and action.
	f.CreateFile("proj/late-edit.txt", []byte("edited after scan"))

	if d := checker.Check(target); d.Verdict != Allowed {
		t.Errorf("memoized verdict = %v, want %v", d.Verdict, Allowed)
	}
	if d := checker.CheckFresh(target); d.Verdict != Blocked {
		t.Errorf("fresh verdict = %v, want %v", d.Verdict, Blocked)
	}

	checker.InvalidateCache()
	if d := checker.Check(target); d.Verdict != Blocked {
		t.Errorf("post-invalidation verdict = %v, want %v", d.Verdict, Blocked)
	}
}

func TestLastCommitTime(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateNodeProject("proj", 512)
	f.InitRepo("proj")

	got, err := LastCommitTime(f.Path("proj"))
	if err != nil {
		t.Fatalf("LastCommitTime() error = %v", err)
	}
	if since := time.Since(got); since < 0 || since > time.Minute {
		t.Errorf("commit time %v not recent (delta %v)", got, since)
	}

	f.CreateDir("norepo")
	if _, err := LastCommitTime(f.Path("norepo")); err == nil {
		t.Error("expected error for non-repository path")
	}
}

func TestCheckerSatisfiesGitStateFunc(t *testing.T) {
	checker := NewChecker(ProtectionWarn)
	var fn scanner.GitStateFunc = checker.State
	f := testutil.NewFixture(t)
	f.CreateDir("plain")
	if got := fn(f.Path("plain")); got != scanner.GitNotARepo {
		t.Errorf("GitStateFunc = %v, want %v", got, scanner.GitNotARepo)
	}
}
