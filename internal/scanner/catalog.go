package scanner

import (
	"path/filepath"
	"strings"
)

// ArtifactRule describes one artifact directory name and the sibling marker
// files that license classifying it. A directory matches a rule when its base
// name equals Dir and at least one marker exists in the parent directory.
// Rules with no markers classify on name alone.
type ArtifactRule struct {
	// Dir is the literal directory base name to match.
	Dir string
	// Markers are sibling file names checked in the parent. Entries may be
	// glob patterns ("*.csproj"). Empty means the name alone is sufficient.
	Markers []string
	// Label describes the artifact for display.
	Label string
	// Safety is the category default assigned at classification time.
	Safety SafetyLevel
	// RestoreHint is the command that regenerates the artifact after deletion.
	RestoreHint string
}

// CacheDef describes one fixed-path cache rooted in the home directory.
// These are consulted directly by their dedicated commands and never matched
// against walked trees.
type CacheDef struct {
	// ID is the stable identifier used in config and reports.
	ID string
	// Name is the display name.
	Name string
	// RelPaths are candidate locations relative to the home directory. The
	// first that exists wins.
	RelPaths []string
	// CleanCommand is the official cleanup invocation, empty when the only
	// mechanism is direct deletion.
	CleanCommand string
	Category     Category
	Safety       SafetyLevel
	// System marks entries surfaced by system scans rather than the cache
	// listing (IDE, Xcode, OS and tool-chain paths).
	System      bool
	Description string
}

// artifactRules is the project-artifact table. Directory names repeat when
// the same name belongs to different toolchains; the first rule whose marker
// matches wins.
var artifactRules = []ArtifactRule{
	// Node.js
	{Dir: "node_modules", Markers: []string{"package.json"}, Label: "Node.js dependencies", Safety: SafeWithCost, RestoreHint: "npm install"},
	{Dir: ".next", Markers: []string{"package.json"}, Label: "Next.js build output", Safety: Safe, RestoreHint: "next build"},
	{Dir: ".nuxt", Markers: []string{"package.json"}, Label: "Nuxt build output", Safety: Safe, RestoreHint: "nuxt build"},
	{Dir: "dist", Markers: []string{"package.json"}, Label: "JavaScript build output", Safety: Safe},
	{Dir: "build", Markers: []string{"package.json"}, Label: "JavaScript build output", Safety: Safe},
	{Dir: "out", Markers: []string{"package.json"}, Label: "JavaScript build output", Safety: Safe},
	{Dir: "coverage", Markers: []string{"package.json"}, Label: "test coverage output", Safety: Safe},
	{Dir: ".nyc_output", Markers: []string{"package.json"}, Label: "nyc coverage data", Safety: Safe},
	{Dir: "storybook-static", Markers: []string{"package.json"}, Label: "Storybook build output", Safety: Safe},
	{Dir: ".svelte-kit", Markers: []string{"package.json"}, Label: "SvelteKit build output", Safety: Safe},
	{Dir: ".turbo", Markers: []string{"package.json"}, Label: "Turborepo cache", Safety: Safe},
	{Dir: ".parcel-cache", Markers: []string{"package.json"}, Label: "Parcel cache", Safety: Safe},
	{Dir: ".cache", Markers: []string{"package.json"}, Label: "JavaScript tool cache", Safety: Safe},

	// Rust
	{Dir: "target", Markers: []string{"Cargo.toml"}, Label: "Rust build artifacts", Safety: SafeWithCost, RestoreHint: "cargo build"},

	// Python
	{Dir: "__pycache__", Label: "Python bytecode cache", Safety: Safe},
	{Dir: ".pytest_cache", Label: "pytest cache", Safety: Safe},
	{Dir: ".mypy_cache", Label: "mypy cache", Safety: Safe},
	{Dir: ".ruff_cache", Label: "ruff cache", Safety: Safe},
	{Dir: ".venv", Markers: []string{"pyproject.toml", "setup.py", "requirements.txt", "Pipfile"}, Label: "Python virtual environment", Safety: Caution, RestoreHint: "python -m venv .venv"},
	{Dir: "venv", Markers: []string{"pyproject.toml", "setup.py", "requirements.txt", "Pipfile"}, Label: "Python virtual environment", Safety: Caution, RestoreHint: "python -m venv venv"},
	{Dir: ".tox", Markers: []string{"tox.ini", "pyproject.toml"}, Label: "tox environments", Safety: SafeWithCost, RestoreHint: "tox"},
	{Dir: ".eggs", Markers: []string{"setup.py", "pyproject.toml"}, Label: "setuptools eggs", Safety: Safe},

	// Go
	{Dir: "vendor", Markers: []string{"go.mod"}, Label: "Go vendored dependencies", Safety: SafeWithCost, RestoreHint: "go mod vendor"},

	// JVM
	{Dir: ".gradle", Markers: []string{"build.gradle", "build.gradle.kts", "settings.gradle", "settings.gradle.kts"}, Label: "Gradle project cache", Safety: Safe, RestoreHint: "gradle build"},
	{Dir: "build", Markers: []string{"build.gradle", "build.gradle.kts"}, Label: "Gradle build output", Safety: Safe, RestoreHint: "gradle build"},
	{Dir: "target", Markers: []string{"pom.xml"}, Label: "Maven build output", Safety: SafeWithCost, RestoreHint: "mvn package"},

	// Swift / iOS
	{Dir: ".build", Markers: []string{"Package.swift"}, Label: "Swift build artifacts", Safety: SafeWithCost, RestoreHint: "swift build"},
	{Dir: "Pods", Markers: []string{"Podfile"}, Label: "CocoaPods dependencies", Safety: SafeWithCost, RestoreHint: "pod install"},
	{Dir: "Carthage", Markers: []string{"Cartfile"}, Label: "Carthage dependencies", Safety: SafeWithCost, RestoreHint: "carthage bootstrap"},

	// .NET
	{Dir: "bin", Markers: []string{"*.csproj", "*.fsproj", "*.sln"}, Label: ".NET build output", Safety: Safe, RestoreHint: "dotnet build"},
	{Dir: "obj", Markers: []string{"*.csproj", "*.fsproj", "*.sln"}, Label: ".NET build intermediates", Safety: Safe, RestoreHint: "dotnet build"},

	// PHP
	{Dir: "vendor", Markers: []string{"composer.json"}, Label: "Composer dependencies", Safety: SafeWithCost, RestoreHint: "composer install"},

	// Elixir
	{Dir: "_build", Markers: []string{"mix.exs"}, Label: "Mix build output", Safety: Safe, RestoreHint: "mix compile"},
	{Dir: "deps", Markers: []string{"mix.exs"}, Label: "Mix dependencies", Safety: SafeWithCost, RestoreHint: "mix deps.get"},

	// Zig
	{Dir: "zig-cache", Markers: []string{"build.zig"}, Label: "Zig cache", Safety: Safe, RestoreHint: "zig build"},
	{Dir: "zig-out", Markers: []string{"build.zig"}, Label: "Zig build output", Safety: Safe, RestoreHint: "zig build"},

	// CMake
	{Dir: "build", Markers: []string{"CMakeLists.txt"}, Label: "CMake build output", Safety: Safe, RestoreHint: "cmake --build build"},
}

// projectMarkers are the files whose presence identifies a directory as a
// project root. Used by staleness analysis and project grouping, not by
// artifact matching.
var projectMarkers = []string{
	"package.json",
	"Cargo.toml",
	"pyproject.toml",
	"setup.py",
	"requirements.txt",
	"go.mod",
	"pom.xml",
	"build.gradle",
	"build.gradle.kts",
	"Package.swift",
	"Gemfile",
	"mix.exs",
	"composer.json",
}

// cacheDefs is the fixed-path table. Paths are relative to the home
// directory; entries whose paths do not exist on the current OS simply never
// match.
var cacheDefs = []CacheDef{
	// Package-manager caches
	{ID: "npm", Name: "npm cache", RelPaths: []string{".npm/_cacache"}, CleanCommand: "npm cache clean --force", Category: CategoryGlobalCache, Safety: Safe, Description: "npm package download cache"},
	{ID: "yarn", Name: "Yarn cache", RelPaths: []string{".cache/yarn", "Library/Caches/Yarn"}, CleanCommand: "yarn cache clean", Category: CategoryGlobalCache, Safety: Safe, Description: "Yarn package download cache"},
	{ID: "pnpm", Name: "pnpm store", RelPaths: []string{".local/share/pnpm/store", "Library/pnpm/store"}, CleanCommand: "pnpm store prune", Category: CategoryGlobalCache, Safety: Safe, Description: "pnpm content-addressable store"},
	{ID: "bun", Name: "Bun cache", RelPaths: []string{".bun/install/cache"}, CleanCommand: "bun pm cache rm", Category: CategoryGlobalCache, Safety: Safe, Description: "Bun package download cache"},
	{ID: "deno", Name: "Deno cache", RelPaths: []string{".cache/deno", "Library/Caches/deno"}, Category: CategoryGlobalCache, Safety: Safe, Description: "Deno module cache"},
	{ID: "pip", Name: "pip cache", RelPaths: []string{".cache/pip", "Library/Caches/pip"}, CleanCommand: "pip cache purge", Category: CategoryGlobalCache, Safety: Safe, Description: "pip wheel and download cache"},
	{ID: "uv", Name: "uv cache", RelPaths: []string{".cache/uv", "Library/Caches/uv"}, CleanCommand: "uv cache clean", Category: CategoryGlobalCache, Safety: Safe, Description: "uv package cache"},
	{ID: "poetry", Name: "Poetry cache", RelPaths: []string{".cache/pypoetry", "Library/Caches/pypoetry"}, Category: CategoryGlobalCache, Safety: Safe, Description: "Poetry artifact and wheel cache"},
	{ID: "conda", Name: "conda packages", RelPaths: []string{".conda/pkgs", "miniconda3/pkgs", "anaconda3/pkgs"}, CleanCommand: "conda clean --all --yes", Category: CategoryGlobalCache, Safety: SafeWithCost, Description: "conda package tarballs"},
	{ID: "cargo-registry", Name: "Cargo registry", RelPaths: []string{".cargo/registry"}, Category: CategoryGlobalCache, Safety: SafeWithCost, Description: "crates.io source and download cache"},
	{ID: "cargo-git", Name: "Cargo git checkouts", RelPaths: []string{".cargo/git"}, Category: CategoryGlobalCache, Safety: SafeWithCost, Description: "Cargo git dependency checkouts"},
	{ID: "go-mod", Name: "Go module cache", RelPaths: []string{"go/pkg/mod"}, CleanCommand: "go clean -modcache", Category: CategoryGlobalCache, Safety: SafeWithCost, Description: "downloaded Go modules"},
	{ID: "go-build", Name: "Go build cache", RelPaths: []string{".cache/go-build", "Library/Caches/go-build"}, CleanCommand: "go clean -cache", Category: CategoryGlobalCache, Safety: Safe, Description: "Go compiler object cache"},
	{ID: "gradle", Name: "Gradle caches", RelPaths: []string{".gradle/caches"}, Category: CategoryGlobalCache, Safety: SafeWithCost, Description: "Gradle dependency and build caches"},
	{ID: "maven", Name: "Maven repository", RelPaths: []string{".m2/repository"}, Category: CategoryGlobalCache, Safety: SafeWithCost, Description: "local Maven artifact repository"},
	{ID: "sbt", Name: "sbt/Ivy cache", RelPaths: []string{".ivy2/cache"}, Category: CategoryGlobalCache, Safety: SafeWithCost, Description: "sbt Ivy dependency cache"},
	{ID: "nuget", Name: "NuGet packages", RelPaths: []string{".nuget/packages"}, CleanCommand: "dotnet nuget locals all --clear", Category: CategoryGlobalCache, Safety: SafeWithCost, Description: "NuGet global package folder"},
	{ID: "gem", Name: "RubyGems cache", RelPaths: []string{".gem"}, CleanCommand: "gem cleanup", Category: CategoryGlobalCache, Safety: Safe, Description: "installed gem cache"},
	{ID: "bundler", Name: "Bundler cache", RelPaths: []string{".bundle/cache"}, Category: CategoryGlobalCache, Safety: Safe, Description: "Bundler download cache"},
	{ID: "composer", Name: "Composer cache", RelPaths: []string{".cache/composer", ".composer/cache"}, CleanCommand: "composer clear-cache", Category: CategoryGlobalCache, Safety: Safe, Description: "Composer package cache"},
	{ID: "pub", Name: "Dart pub cache", RelPaths: []string{".pub-cache"}, CleanCommand: "dart pub cache clean", Category: CategoryGlobalCache, Safety: SafeWithCost, Description: "Dart/Flutter package cache"},

	// Test tooling and app frameworks
	{ID: "cypress", Name: "Cypress binaries", RelPaths: []string{".cache/Cypress", "Library/Caches/Cypress"}, Category: CategoryGlobalCache, Safety: SafeWithCost, Description: "downloaded Cypress browser binaries"},
	{ID: "playwright", Name: "Playwright browsers", RelPaths: []string{".cache/ms-playwright", "Library/Caches/ms-playwright"}, Category: CategoryGlobalCache, Safety: SafeWithCost, Description: "downloaded Playwright browsers"},
	{ID: "electron", Name: "Electron cache", RelPaths: []string{".cache/electron", "Library/Caches/electron"}, Category: CategoryElectron, Safety: Safe, Description: "Electron binary download cache"},
	{ID: "electron-builder", Name: "electron-builder cache", RelPaths: []string{".cache/electron-builder", "Library/Caches/electron-builder"}, Category: CategoryElectron, Safety: Safe, Description: "electron-builder artifact cache"},

	// Platform tooling
	{ID: "homebrew", Name: "Homebrew cache", RelPaths: []string{"Library/Caches/Homebrew", ".cache/Homebrew"}, CleanCommand: "brew cleanup -s", Category: CategoryHomebrew, Safety: Safe, Description: "Homebrew bottle and source downloads"},
	{ID: "cocoapods", Name: "CocoaPods cache", RelPaths: []string{"Library/Caches/CocoaPods", ".cocoapods/repos"}, CleanCommand: "pod cache clean --all", Category: CategoryIOSDeps, Safety: SafeWithCost, Description: "CocoaPods spec and pod cache"},
	{ID: "android-cache", Name: "Android build cache", RelPaths: []string{".android/cache", ".android/build-cache"}, Category: CategoryAndroid, Safety: Safe, Description: "Android SDK build cache"},
	{ID: "android-avd", Name: "Android emulator images", RelPaths: []string{".android/avd"}, Category: CategoryAndroid, Safety: Caution, Description: "Android virtual device images"},

	// ML model hubs
	{ID: "huggingface", Name: "Hugging Face hub", RelPaths: []string{".cache/huggingface"}, Category: CategoryML, Safety: SafeWithCost, Description: "downloaded Hugging Face models and datasets"},
	{ID: "torch", Name: "PyTorch hub", RelPaths: []string{".cache/torch"}, Category: CategoryML, Safety: SafeWithCost, Description: "PyTorch model hub cache"},
	{ID: "keras", Name: "Keras datasets", RelPaths: []string{".keras"}, Category: CategoryML, Safety: SafeWithCost, Description: "Keras datasets and models"},

	// System scans (IDE, Xcode, OS paths)
	{ID: "xcode-derived", Name: "Xcode DerivedData", RelPaths: []string{"Library/Developer/Xcode/DerivedData"}, Category: CategoryXcode, Safety: Safe, System: true, Description: "Xcode intermediate build products"},
	{ID: "xcode-archives", Name: "Xcode Archives", RelPaths: []string{"Library/Developer/Xcode/Archives"}, Category: CategoryXcode, Safety: Caution, System: true, Description: "archived app builds with debug symbols"},
	{ID: "xcode-device-support", Name: "iOS DeviceSupport", RelPaths: []string{"Library/Developer/Xcode/iOS DeviceSupport"}, Category: CategoryXcode, Safety: Safe, System: true, Description: "per-OS device debugging symbols"},
	{ID: "xcode-simulator-caches", Name: "Simulator caches", RelPaths: []string{"Library/Developer/CoreSimulator/Caches"}, Category: CategoryXcode, Safety: Safe, System: true, Description: "CoreSimulator runtime caches"},
	{ID: "jetbrains", Name: "JetBrains caches", RelPaths: []string{".cache/JetBrains", "Library/Caches/JetBrains"}, Category: CategoryIDE, Safety: Safe, System: true, Description: "JetBrains IDE index caches"},
	{ID: "vscode-cache", Name: "VS Code caches", RelPaths: []string{".config/Code/Cache", "Library/Application Support/Code/Cache"}, Category: CategoryIDE, Safety: Safe, System: true, Description: "VS Code renderer caches"},
	{ID: "vscode-cached-data", Name: "VS Code cached data", RelPaths: []string{".config/Code/CachedData", "Library/Application Support/Code/CachedData"}, Category: CategoryIDE, Safety: Safe, System: true, Description: "VS Code extension host caches"},
	{ID: "unity", Name: "Unity caches", RelPaths: []string{"Library/Caches/com.unity3d.UnityEditor", ".cache/unity3d"}, Category: CategoryGameDev, Safety: Safe, System: true, Description: "Unity editor GI and asset caches"},
	{ID: "unreal-ddc", Name: "Unreal DerivedDataCache", RelPaths: []string{"Library/Application Support/Epic/UnrealEngine/Common/DerivedDataCache", ".local/share/UnrealEngine/Common/DerivedDataCache"}, Category: CategoryGameDev, Safety: SafeWithCost, System: true, Description: "Unreal derived data cache"},
	{ID: "aws-cli", Name: "AWS CLI cache", RelPaths: []string{".aws/cli/cache"}, Category: CategoryCloudCLI, Safety: Safe, System: true, Description: "AWS CLI credential and response cache"},
	{ID: "gcloud-logs", Name: "gcloud logs", RelPaths: []string{".config/gcloud/logs"}, Category: CategoryCloudCLI, Safety: Safe, System: true, Description: "gcloud invocation logs"},
	{ID: "azure-logs", Name: "Azure CLI logs", RelPaths: []string{".azure/logs"}, Category: CategoryCloudCLI, Safety: Safe, System: true, Description: "Azure CLI telemetry and logs"},
	{ID: "kube-cache", Name: "kubectl cache", RelPaths: []string{".kube/cache"}, Category: CategoryCloudCLI, Safety: Safe, System: true, Description: "kubectl discovery and HTTP cache"},
	{ID: "terraform-plugins", Name: "Terraform plugin cache", RelPaths: []string{".terraform.d/plugin-cache"}, Category: CategoryCloudCLI, Safety: SafeWithCost, System: true, Description: "shared Terraform provider binaries"},
	{ID: "macos-logs", Name: "user logs", RelPaths: []string{"Library/Logs"}, Category: CategoryMacOSSystem, Safety: Safe, System: true, Description: "per-user application logs"},
	{ID: "macos-caches", Name: "user caches", RelPaths: []string{"Library/Caches"}, Category: CategoryMacOSSystem, Safety: Caution, System: true, Description: "entire per-user cache directory"},
}

// Catalog is the immutable lookup table driving detection. Built once at
// startup and shared by reference; nothing mutates it afterwards.
type Catalog struct {
	rules   map[string][]ArtifactRule
	caches  []CacheDef
	markers map[string]struct{}
}

// NewCatalog builds the catalog from the package tables.
func NewCatalog() *Catalog {
	c := &Catalog{
		rules:   make(map[string][]ArtifactRule, len(artifactRules)),
		caches:  cacheDefs,
		markers: make(map[string]struct{}, len(projectMarkers)),
	}
	for _, r := range artifactRules {
		c.rules[r.Dir] = append(c.rules[r.Dir], r)
	}
	for _, m := range projectMarkers {
		c.markers[m] = struct{}{}
	}
	return c
}

// IsArtifactName reports whether name matches any artifact rule. The walker
// uses this as its prune predicate: matching directories are reported as one
// atomic item and never descended into.
func (c *Catalog) IsArtifactName(name string) bool {
	_, ok := c.rules[name]
	return ok
}

// RulesFor returns the rules registered for a directory base name, in table
// order. Callers must not modify the returned slice.
func (c *Catalog) RulesFor(name string) []ArtifactRule {
	return c.rules[name]
}

// IsProjectMarker reports whether name identifies a project root.
func (c *Catalog) IsProjectMarker(name string) bool {
	_, ok := c.markers[name]
	return ok
}

// ProjectMarkers returns the project marker file names.
func (c *Catalog) ProjectMarkers() []string {
	return projectMarkers
}

// Caches returns the fixed-path definitions, excluding system entries.
func (c *Catalog) Caches() []CacheDef {
	return c.filterCaches(false)
}

// SystemPaths returns the fixed-path definitions surfaced by system scans.
func (c *Catalog) SystemPaths() []CacheDef {
	return c.filterCaches(true)
}

func (c *Catalog) filterCaches(system bool) []CacheDef {
	out := make([]CacheDef, 0, len(c.caches))
	for _, d := range c.caches {
		if d.System == system {
			out = append(out, d)
		}
	}
	return out
}

// CacheByID looks up one fixed-path definition.
func (c *Catalog) CacheByID(id string) (CacheDef, bool) {
	for _, d := range c.caches {
		if d.ID == id {
			return d, true
		}
	}
	return CacheDef{}, false
}

// matchMarker reports whether the marker pattern matches a file name.
// Patterns without glob metacharacters compare literally.
func matchMarker(pattern, name string) bool {
	if !strings.ContainsAny(pattern, "*?[") {
		return pattern == name
	}
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}
