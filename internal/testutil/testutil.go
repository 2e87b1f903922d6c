// Package testutil provides test helpers and fixtures for devclean tests.
// All file operations use t.TempDir() for safe, isolated testing.
package testutil

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// TestFixture holds the root of an isolated directory tree for one test
type TestFixture struct {
	T       *testing.T
	RootDir string // Root temp directory (auto-cleaned)
}

// NewFixture creates an empty fixture rooted in t.TempDir()
func NewFixture(t *testing.T) *TestFixture {
	t.Helper()
	return &TestFixture{
		T:       t,
		RootDir: t.TempDir(),
	}
}

// =============================================================================
// File Creation Helpers
// =============================================================================

// CreateFile creates a file with specified content and returns its path
func (f *TestFixture) CreateFile(relPath string, content []byte) string {
	f.T.Helper()

	fullPath := filepath.Join(f.RootDir, relPath)
	dir := filepath.Dir(fullPath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		f.T.Fatalf("failed to create file %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateFileOfSize creates a file containing size zero bytes
func (f *TestFixture) CreateFileOfSize(relPath string, size int) string {
	f.T.Helper()
	return f.CreateFile(relPath, make([]byte, size))
}

// CreateFileWithAge creates a file and sets its modification time to the past
func (f *TestFixture) CreateFileWithAge(relPath string, content []byte, age time.Duration) string {
	f.T.Helper()

	fullPath := f.CreateFile(relPath, content)
	oldTime := time.Now().Add(-age)

	if err := os.Chtimes(fullPath, oldTime, oldTime); err != nil {
		f.T.Fatalf("failed to set file time for %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateRandomFile creates a file with random content
func (f *TestFixture) CreateRandomFile(relPath string, size int) string {
	f.T.Helper()
	content := make([]byte, size)
	rand.Read(content)
	return f.CreateFile(relPath, content)
}

// =============================================================================
// Directory Helpers
// =============================================================================

// CreateDir creates a directory and returns its path
func (f *TestFixture) CreateDir(relPath string) string {
	f.T.Helper()

	fullPath := filepath.Join(f.RootDir, relPath)
	if err := os.MkdirAll(fullPath, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateDirWithAge creates a directory with a specific modification time
func (f *TestFixture) CreateDirWithAge(relPath string, age time.Duration) string {
	f.T.Helper()

	fullPath := f.CreateDir(relPath)
	oldTime := time.Now().Add(-age)

	if err := os.Chtimes(fullPath, oldTime, oldTime); err != nil {
		f.T.Fatalf("failed to set dir time for %s: %v", fullPath, err)
	}

	return fullPath
}

// Touch sets the modification time of an existing path
func (f *TestFixture) Touch(path string, age time.Duration) {
	f.T.Helper()
	oldTime := time.Now().Add(-age)
	if err := os.Chtimes(path, oldTime, oldTime); err != nil {
		f.T.Fatalf("failed to set time for %s: %v", path, err)
	}
}

// CreateSymlink creates a symbolic link
func (f *TestFixture) CreateSymlink(target, linkPath string) string {
	f.T.Helper()

	fullLinkPath := filepath.Join(f.RootDir, linkPath)
	dir := filepath.Dir(fullLinkPath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.Symlink(target, fullLinkPath); err != nil {
		f.T.Fatalf("failed to create symlink %s -> %s: %v", fullLinkPath, target, err)
	}

	return fullLinkPath
}

// CreateReadOnlyDir creates a read-only directory (files inside can't be
// deleted). Permissions are restored on cleanup so TempDir removal works.
func (f *TestFixture) CreateReadOnlyDir(relPath string) string {
	f.T.Helper()

	dirPath := f.CreateDir(relPath)
	f.CreateFile(filepath.Join(relPath, "trapped.txt"), []byte("trapped"))
	if err := os.Chmod(dirPath, 0555); err != nil {
		f.T.Fatalf("failed to chmod directory %s: %v", dirPath, err)
	}

	f.T.Cleanup(func() {
		os.Chmod(dirPath, 0755)
	})

	return dirPath
}

// MakeUnreadable removes all permissions from a directory and restores them
// on cleanup
func (f *TestFixture) MakeUnreadable(path string) {
	f.T.Helper()
	if err := os.Chmod(path, 0000); err != nil {
		f.T.Fatalf("failed to chmod %s: %v", path, err)
	}
	f.T.Cleanup(func() {
		os.Chmod(path, 0755)
	})
}

// =============================================================================
// Project Tree Helpers
// =============================================================================

// CreateNodeProject creates a project directory with package.json and a
// node_modules tree holding artifactSize bytes. Returns the project path.
func (f *TestFixture) CreateNodeProject(relPath string, artifactSize int) string {
	f.T.Helper()

	project := f.CreateDir(relPath)
	f.CreateFile(filepath.Join(relPath, "package.json"),
		[]byte(`{"name": "`+filepath.Base(relPath)+`", "version": "1.0.0"}`))
	f.CreateFile(filepath.Join(relPath, "index.js"), []byte("module.exports = {}\n"))
	f.CreateFileOfSize(filepath.Join(relPath, "node_modules", "lodash", "lodash.js"), artifactSize)
	return project
}

// CreateRustProject creates a project with Cargo.toml and a target directory
func (f *TestFixture) CreateRustProject(relPath string, artifactSize int) string {
	f.T.Helper()

	project := f.CreateDir(relPath)
	f.CreateFile(filepath.Join(relPath, "Cargo.toml"),
		[]byte("[package]\nname = \""+filepath.Base(relPath)+"\"\nversion = \"0.1.0\"\n"))
	f.CreateFile(filepath.Join(relPath, "src", "main.rs"), []byte("fn main() {}\n"))
	f.CreateFileOfSize(filepath.Join(relPath, "target", "debug", "binary"), artifactSize)
	return project
}

// CreateBareArtifact creates an artifact-named directory with NO sibling
// marker, so detection must report it unclassified.
func (f *TestFixture) CreateBareArtifact(relPath string, size int) string {
	f.T.Helper()
	f.CreateFileOfSize(filepath.Join(relPath, "data.bin"), size)
	return f.Path(relPath)
}

// CreatePackageJSON writes a package.json declaring name and version
func (f *TestFixture) CreatePackageJSON(relPath, name, version string) string {
	f.T.Helper()
	return f.CreateFile(relPath,
		[]byte(`{"name": "`+name+`", "version": "`+version+`"}`))
}

// =============================================================================
// Git Repository Helpers
// =============================================================================

// InitRepo initializes a git repository at relPath and commits everything
// currently in it. The repository is built with go-git, so no git binary is
// required.
func (f *TestFixture) InitRepo(relPath string) *git.Repository {
	f.T.Helper()

	path := f.Path(relPath)
	repo, err := git.PlainInit(path, false)
	if err != nil {
		f.T.Fatalf("failed to init repo at %s: %v", path, err)
	}
	f.CommitAll(repo, "initial commit")
	return repo
}

// CommitAll stages every change in the worktree and commits it
func (f *TestFixture) CommitAll(repo *git.Repository, message string) {
	f.T.Helper()

	wt, err := repo.Worktree()
	if err != nil {
		f.T.Fatalf("failed to get worktree: %v", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		f.T.Fatalf("failed to stage changes: %v", err)
	}
	_, err = wt.Commit(message, &git.CommitOptions{
		AllowEmptyCommits: true,
		Author: &object.Signature{
			Name:  "test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		f.T.Fatalf("failed to commit: %v", err)
	}
}

// =============================================================================
// Path and Assertion Helpers
// =============================================================================

// Path returns the full path for a relative path within the fixture
func (f *TestFixture) Path(relPath string) string {
	return filepath.Join(f.RootDir, relPath)
}

// FileExists checks if a path exists
func (f *TestFixture) FileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// AssertFileExists fails the test if the path doesn't exist
func (f *TestFixture) AssertFileExists(path string) {
	f.T.Helper()
	if !f.FileExists(path) {
		f.T.Errorf("expected path to exist: %s", path)
	}
}

// AssertFileNotExists fails the test if the path exists
func (f *TestFixture) AssertFileNotExists(path string) {
	f.T.Helper()
	if f.FileExists(path) {
		f.T.Errorf("expected path to not exist: %s", path)
	}
}

// =============================================================================
// Utility Functions
// =============================================================================

// GetDirSize returns the total size of all files in a directory
func GetDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// CountFiles returns the number of files in a directory (recursive)
func CountFiles(path string) (int, error) {
	var count int
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			count++
		}
		return nil
	})
	return count, err
}

// SnapshotTree returns every path under root with its size, for before/after
// comparisons around dry runs
func SnapshotTree(root string) (map[string]int64, error) {
	snapshot := make(map[string]int64)
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			snapshot[path] = -1
			return nil
		}
		snapshot[path] = info.Size()
		return nil
	})
	return snapshot, err
}

// IsRoot returns true if running as root
func IsRoot() bool {
	return os.Geteuid() == 0
}

// SkipIfRoot skips the test if running as root (permission failures cannot
// be simulated)
func SkipIfRoot(t *testing.T) {
	t.Helper()
	if IsRoot() {
		t.Skip("skipping test when running as root")
	}
}

// SkipOnCI skips the test when running in CI environment
func SkipOnCI(t *testing.T) {
	t.Helper()
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		t.Skip("skipping test in CI environment")
	}
}

// IsMacOS returns true if running on macOS
func IsMacOS() bool {
	return runtime.GOOS == "darwin"
}

// IsLinux returns true if running on Linux
func IsLinux() bool {
	return runtime.GOOS == "linux"
}

// RandomString generates a random hex string of the requested length
func RandomString(length int) string {
	b := make([]byte, (length+1)/2)
	rand.Read(b)
	return fmt.Sprintf("%x", b)[:length]
}
