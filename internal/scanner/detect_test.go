package scanner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fenilsonani/devclean/internal/testutil"
)

// =============================================================================
// Artifact Classification Tests
// =============================================================================

func prunedEntry(path string) WalkEntry {
	return WalkEntry{Path: path, Name: filepath.Base(path), Pruned: true}
}

func TestDetectClassifiesArtifacts(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(f *testutil.TestFixture) string
		wantCat    Category
		wantLabel  string
		wantSafety SafetyLevel
		wantHint   string
	}{
		{
			name: "node_modules next to package.json",
			setup: func(f *testutil.TestFixture) string {
				f.CreatePackageJSON("web/package.json", "web", "1.0.0")
				f.CreateDir("web/node_modules")
				return "web/node_modules"
			},
			wantCat: CategoryProjectArtifact, wantLabel: "Node.js dependencies",
			wantSafety: SafeWithCost, wantHint: "npm install",
		},
		{
			name: "node_modules without marker",
			setup: func(f *testutil.TestFixture) string {
				f.CreateDir("stray/node_modules")
				return "stray/node_modules"
			},
			wantCat: CategoryUnclassified, wantLabel: "unrecognized node_modules directory",
			wantSafety: Caution,
		},
		{
			name: "target next to Cargo.toml",
			setup: func(f *testutil.TestFixture) string {
				f.CreateFile("svc/Cargo.toml", []byte("[package]\n"))
				f.CreateDir("svc/target")
				return "svc/target"
			},
			wantCat: CategoryProjectArtifact, wantLabel: "Rust build artifacts",
			wantSafety: SafeWithCost, wantHint: "cargo build",
		},
		{
			name: "target next to pom.xml",
			setup: func(f *testutil.TestFixture) string {
				f.CreateFile("svc/pom.xml", []byte("<project/>"))
				f.CreateDir("svc/target")
				return "svc/target"
			},
			wantCat: CategoryProjectArtifact, wantLabel: "Maven build output",
			wantSafety: SafeWithCost, wantHint: "mvn package",
		},
		{
			name: "markerless rule",
			setup: func(f *testutil.TestFixture) string {
				f.CreateDir("lib/__pycache__")
				return "lib/__pycache__"
			},
			wantCat: CategoryProjectArtifact, wantLabel: "Python bytecode cache",
			wantSafety: Safe,
		},
		{
			name: "glob marker",
			setup: func(f *testutil.TestFixture) string {
				f.CreateFile("app/App.csproj", []byte("<Project/>"))
				f.CreateDir("app/bin")
				return "app/bin"
			},
			wantCat: CategoryProjectArtifact, wantLabel: ".NET build output",
			wantSafety: Safe, wantHint: "dotnet build",
		},
		{
			name: "glob marker ignores directories",
			setup: func(f *testutil.TestFixture) string {
				f.CreateDir("app/App.csproj")
				f.CreateDir("app/bin")
				return "app/bin"
			},
			wantCat: CategoryUnclassified, wantLabel: "unrecognized bin directory",
			wantSafety: Caution,
		},
		{
			name: "literal marker must be a regular file",
			setup: func(f *testutil.TestFixture) string {
				f.CreateDir("web/package.json")
				f.CreateDir("web/node_modules")
				return "web/node_modules"
			},
			wantCat: CategoryUnclassified, wantLabel: "unrecognized node_modules directory",
			wantSafety: Caution,
		},
		{
			name: "vendor prefers go.mod over composer.json",
			setup: func(f *testutil.TestFixture) string {
				f.CreateFile("mix/go.mod", []byte("module mix\n"))
				f.CreateFile("mix/composer.json", []byte("{}"))
				f.CreateDir("mix/vendor")
				return "mix/vendor"
			},
			wantCat: CategoryProjectArtifact, wantLabel: "Go vendored dependencies",
			wantSafety: SafeWithCost, wantHint: "go mod vendor",
		},
		{
			name: "build prefers package.json over CMakeLists",
			setup: func(f *testutil.TestFixture) string {
				f.CreatePackageJSON("hybrid/package.json", "hybrid", "1.0.0")
				f.CreateFile("hybrid/CMakeLists.txt", []byte("project(hybrid)\n"))
				f.CreateDir("hybrid/build")
				return "hybrid/build"
			},
			wantCat: CategoryProjectArtifact, wantLabel: "JavaScript build output",
			wantSafety: Safe,
		},
		{
			name: "venv with requirements.txt",
			setup: func(f *testutil.TestFixture) string {
				f.CreateFile("api/requirements.txt", []byte("flask\n"))
				f.CreateDir("api/.venv")
				return "api/.venv"
			},
			wantCat: CategoryProjectArtifact, wantLabel: "Python virtual environment",
			wantSafety: Caution, wantHint: "python -m venv .venv",
		},
		{
			name: "unknown directory name",
			setup: func(f *testutil.TestFixture) string {
				f.CreateDir("proj/scratch")
				return "proj/scratch"
			},
			wantCat: CategoryUnclassified, wantLabel: "unrecognized scratch directory",
			wantSafety: Caution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fix := testutil.NewFixture(t)
			rel := tt.setup(fix)
			d := NewDetector(NewCatalog(), 0)

			item, ok := d.Detect(prunedEntry(fix.Path(rel)))
			if !ok {
				t.Fatal("pruned entry was not classified")
			}
			if item.Category != tt.wantCat {
				t.Errorf("category = %s, want %s", item.Category, tt.wantCat)
			}
			if item.Label != tt.wantLabel {
				t.Errorf("label = %q, want %q", item.Label, tt.wantLabel)
			}
			if item.Safety != tt.wantSafety {
				t.Errorf("safety = %s, want %s", item.Safety, tt.wantSafety)
			}
			if item.ActionHint != tt.wantHint {
				t.Errorf("action hint = %q, want %q", item.ActionHint, tt.wantHint)
			}
			if item.LastActivity.IsZero() {
				t.Error("last activity not recorded")
			}
		})
	}
}

func TestDetectIgnoresUnprunedEntries(t *testing.T) {
	fix := testutil.NewFixture(t)
	path := fix.CreateDir("web/node_modules")

	d := NewDetector(NewCatalog(), 0)
	if _, ok := d.Detect(WalkEntry{Path: path, Name: "node_modules"}); ok {
		t.Error("unpruned entry should not produce an item")
	}
}

// =============================================================================
// Revalidation Tests
// =============================================================================

func TestDetectorRevalidate(t *testing.T) {
	d := NewDetector(NewCatalog(), 0)

	t.Run("artifact marker still present", func(t *testing.T) {
		fix := testutil.NewFixture(t)
		fix.CreatePackageJSON("web/package.json", "web", "1.0.0")
		path := fix.CreateDir("web/node_modules")

		item := &CleanableItem{Path: path, Category: CategoryProjectArtifact}
		if !d.Revalidate(item) {
			t.Error("item with a live marker should revalidate")
		}
	})

	t.Run("artifact marker removed", func(t *testing.T) {
		fix := testutil.NewFixture(t)
		marker := fix.CreatePackageJSON("web/package.json", "web", "1.0.0")
		path := fix.CreateDir("web/node_modules")
		if err := os.Remove(marker); err != nil {
			t.Fatal(err)
		}

		item := &CleanableItem{Path: path, Category: CategoryProjectArtifact}
		if d.Revalidate(item) {
			t.Error("item without its marker should fail revalidation")
		}
	})

	t.Run("unclassified artifact name", func(t *testing.T) {
		fix := testutil.NewFixture(t)
		path := fix.CreateDir("stray/node_modules")

		item := &CleanableItem{Path: path, Category: CategoryUnclassified}
		if !d.Revalidate(item) {
			t.Error("unclassified directory with an artifact name should revalidate")
		}
	})

	t.Run("unclassified arbitrary name", func(t *testing.T) {
		fix := testutil.NewFixture(t)
		path := fix.CreateDir("stray/stuff")

		item := &CleanableItem{Path: path, Category: CategoryUnclassified}
		if d.Revalidate(item) {
			t.Error("arbitrary directory should not revalidate as unclassified")
		}
	})

	t.Run("fixed path removed", func(t *testing.T) {
		fix := testutil.NewFixture(t)
		path := fix.CreateDir(".cache/pip")

		item := &CleanableItem{Path: path, Category: CategoryGlobalCache}
		if !d.Revalidate(item) {
			t.Error("existing cache directory should revalidate")
		}
		if err := os.RemoveAll(path); err != nil {
			t.Fatal(err)
		}
		if d.Revalidate(item) {
			t.Error("vanished cache directory should fail revalidation")
		}
	})

	t.Run("docker has no path to check", func(t *testing.T) {
		item := &CleanableItem{Path: "nginx:latest", Category: CategoryDocker}
		if !d.Revalidate(item) {
			t.Error("docker items revalidate through the daemon, not the filesystem")
		}
	})
}

// =============================================================================
// Fixed-Path Detection Tests
// =============================================================================

func TestDetectCaches(t *testing.T) {
	fix := testutil.NewFixture(t)
	fix.CreateDir(".npm/_cacache")
	fix.CreateDir(".cache/yarn")
	fix.CreateDir("Library/Caches/Yarn")
	fix.CreateDir("Library/Logs")
	fix.CreateFile(".pub-cache", nil)

	d := NewDetector(NewCatalog(), 0)
	items := d.DetectCaches(fix.RootDir)

	byLabel := make(map[string]CleanableItem, len(items))
	for _, it := range items {
		byLabel[it.Label] = it
	}

	npm, ok := byLabel["npm cache"]
	if !ok {
		t.Fatal("npm cache not detected")
	}
	if npm.Path != fix.Path(".npm/_cacache") {
		t.Errorf("npm path = %q", npm.Path)
	}
	if npm.ActionHint != "npm cache clean --force" {
		t.Errorf("npm action hint = %q", npm.ActionHint)
	}
	if npm.Category != CategoryGlobalCache || npm.Safety != Safe {
		t.Errorf("npm classified as %s/%s", npm.Category, npm.Safety)
	}

	yarn, ok := byLabel["Yarn cache"]
	if !ok {
		t.Fatal("yarn cache not detected")
	}
	if yarn.Path != fix.Path(".cache/yarn") {
		t.Errorf("yarn path = %q, want the first existing candidate", yarn.Path)
	}

	if _, ok := byLabel["user logs"]; ok {
		t.Error("system path surfaced by the cache listing")
	}
	if _, ok := byLabel["Dart pub cache"]; ok {
		t.Error("regular file detected as a cache directory")
	}
	if len(items) != 2 {
		t.Errorf("item count = %d, want 2", len(items))
	}
}

func TestDetectSystem(t *testing.T) {
	fix := testutil.NewFixture(t)
	fix.CreateDir("Library/Logs")
	derived := "Library/Developer/Xcode/DerivedData"
	fix.CreateFileOfSize(derived+"/MyApp-abcdefgh/Build/app.o", 10)
	oldBuild := fix.CreateDir(derived + "/Archive-Tool-ffee99")
	fix.Touch(oldBuild, 30*24*time.Hour)
	fix.CreateFile(derived+"/.DS_Store", nil)

	d := NewDetector(NewCatalog(), 0)
	items := d.DetectSystem(fix.RootDir)

	byLabel := make(map[string]CleanableItem, len(items))
	for _, it := range items {
		byLabel[it.Label] = it
	}

	if _, ok := byLabel["user logs"]; !ok {
		t.Error("Library/Logs not detected")
	}

	fresh, ok := byLabel["Xcode DerivedData: MyApp"]
	if !ok {
		t.Fatal("fresh DerivedData project missing")
	}
	if fresh.Safety != SafeWithCost {
		t.Errorf("recently built project safety = %s, want %s", fresh.Safety, SafeWithCost)
	}
	if fresh.Category != CategoryXcode {
		t.Errorf("category = %s, want %s", fresh.Category, CategoryXcode)
	}

	stale, ok := byLabel["Xcode DerivedData: Archive-Tool"]
	if !ok {
		t.Fatal("old DerivedData project missing")
	}
	if stale.Safety != Safe {
		t.Errorf("old build safety = %s, want %s", stale.Safety, Safe)
	}

	if _, ok := byLabel["Xcode DerivedData"]; ok {
		t.Error("DerivedData reported as one aggregate item")
	}
	if len(items) != 3 {
		t.Errorf("item count = %d, want 3", len(items))
	}
}

func TestDetectSystemRecencyWindow(t *testing.T) {
	fix := testutil.NewFixture(t)
	build := fix.CreateDir("Library/Developer/Xcode/DerivedData/App-aa11")
	fix.Touch(build, 2*time.Hour)

	d := NewDetector(NewCatalog(), time.Hour)
	items := d.DetectSystem(fix.RootDir)

	if len(items) != 1 {
		t.Fatalf("item count = %d, want 1", len(items))
	}
	if items[0].Safety != Safe {
		t.Errorf("build outside the recency window = %s, want %s", items[0].Safety, Safe)
	}
}

func TestDetectProjectRoot(t *testing.T) {
	fix := testutil.NewFixture(t)
	fix.CreateFile("go-svc/go.mod", []byte("module svc\n"))
	fix.CreatePackageJSON("both/package.json", "both", "1.0.0")
	fix.CreateFile("both/go.mod", []byte("module both\n"))
	fix.CreateDir("empty")

	d := NewDetector(NewCatalog(), 0)

	if marker, ok := d.DetectProjectRoot(fix.Path("go-svc")); !ok || marker != "go.mod" {
		t.Errorf("go-svc = (%q, %v), want (go.mod, true)", marker, ok)
	}
	if marker, _ := d.DetectProjectRoot(fix.Path("both")); marker != "package.json" {
		t.Errorf("marker priority = %q, want package.json", marker)
	}
	if _, ok := d.DetectProjectRoot(fix.Path("empty")); ok {
		t.Error("empty directory reported as a project root")
	}
}

func TestProjectName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"MyApp-abcdefgh", "MyApp"},
		{"App-Name-hash123", "App-Name"},
		{"NoHash", "NoHash"},
		{"-odd", "-odd"},
	}
	for _, tt := range tests {
		if got := projectName(tt.in); got != tt.want {
			t.Errorf("projectName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
