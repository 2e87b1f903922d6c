package scanner

import (
	"context"
	"errors"
	"testing"

	"github.com/fenilsonani/devclean/internal/toolexec"
)

// =============================================================================
// Docker Scanner Tests
// =============================================================================

const (
	dockerVersionCmd    = "docker version --format {{.Server.Version}}"
	dockerImagesCmd     = "docker images --all --format {{.ID}}\t{{.Repository}}\t{{.Tag}}\t{{.Size}}"
	dockerRunningCmd    = "docker ps --format {{.Image}}"
	dockerContainersCmd = "docker ps --all --size --filter status=exited --format {{.ID}}\t{{.Names}}\t{{.Size}}"
	dockerUsageCmd      = "docker system df --format {{.Type}}\t{{.Reclaimable}}"
)

func TestDockerAvailable(t *testing.T) {
	t.Run("binary missing", func(t *testing.T) {
		runner := toolexec.NewFakeRunner()
		runner.Missing["docker"] = true

		ds := NewDockerScanner(runner)
		if ds.Available(context.Background()) {
			t.Error("reported available without a docker binary")
		}
		if calls := runner.Calls(); len(calls) != 0 {
			t.Errorf("daemon consulted despite missing binary: %v", calls)
		}
	})

	t.Run("daemon down", func(t *testing.T) {
		runner := toolexec.NewFakeRunner()
		runner.Script(dockerVersionCmd, toolexec.FakeResponse{
			ExitCode: 1,
			Stderr:   "Cannot connect to the Docker daemon",
		})

		if NewDockerScanner(runner).Available(context.Background()) {
			t.Error("reported available with the daemon down")
		}
	})

	t.Run("daemon up", func(t *testing.T) {
		runner := toolexec.NewFakeRunner()
		runner.Script(dockerVersionCmd, toolexec.FakeResponse{Stdout: "27.1.0"})

		if !NewDockerScanner(runner).Available(context.Background()) {
			t.Error("reported unavailable with the daemon up")
		}
	})
}

func TestDockerScanImages(t *testing.T) {
	runner := toolexec.NewFakeRunner()
	runner.Script(dockerVersionCmd, toolexec.FakeResponse{Stdout: "27.1.0"})
	runner.Script(dockerImagesCmd, toolexec.FakeResponse{Stdout: "" +
		"abc123def456\tnginx\tlatest\t150MB\n" +
		"0123456789ab\t<none>\t<none>\t80MB\n" +
		"deadbeef1234\tredis\t7\t42MB\n" +
		"fedcba987654\tinternal/job\tv2\t99MB\n" +
		"not a valid line\n"})
	runner.Script(dockerRunningCmd, toolexec.FakeResponse{Stdout: "redis:7\nfedcba987654abcdef0099\n"})

	items, err := NewDockerScanner(runner).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	byPath := make(map[string]CleanableItem, len(items))
	for _, it := range items {
		byPath[it.Path] = it
	}

	tagged := byPath["nginx:latest"]
	if tagged.Safety != Caution || tagged.InUse {
		t.Errorf("idle tagged image = %s in use %v, want caution idle", tagged.Safety, tagged.InUse)
	}
	if tagged.ActionHint != "docker rmi abc123def456" {
		t.Errorf("tagged image hint = %q", tagged.ActionHint)
	}
	if tagged.SizeBytes != 150_000_000 {
		t.Errorf("tagged image size = %d, want 150000000", tagged.SizeBytes)
	}

	dangling := byPath["0123456789ab"]
	if dangling.Safety != Safe || dangling.Label != "dangling Docker image" {
		t.Errorf("dangling image = %s %q", dangling.Safety, dangling.Label)
	}

	running := byPath["redis:7"]
	if !running.InUse || running.Safety != Dangerous {
		t.Errorf("image behind a running container = %s in use %v", running.Safety, running.InUse)
	}

	byID := byPath["internal/job:v2"]
	if !byID.InUse {
		t.Error("short image id of a running container not recognized")
	}

	if len(items) != 4 {
		t.Errorf("item count = %d, want 4", len(items))
	}
	for _, it := range items {
		if it.Category != CategoryDocker {
			t.Errorf("item %q category = %s", it.Path, it.Category)
		}
	}
}

func TestDockerScanContainersAndUsage(t *testing.T) {
	runner := toolexec.NewFakeRunner()
	runner.Script(dockerVersionCmd, toolexec.FakeResponse{Stdout: "27.1.0"})
	runner.Script(dockerContainersCmd, toolexec.FakeResponse{
		Stdout: "c0ffee123456\told-api\t12MB (virtual 140MB)\n",
	})
	runner.Script(dockerUsageCmd, toolexec.FakeResponse{Stdout: "" +
		"Images\t10.5GB (60%)\n" +
		"Containers\t0B (0%)\n" +
		"Local Volumes\t2GB (100%)\n" +
		"Build Cache\t1.2GB\n"})

	items, err := NewDockerScanner(runner).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	byLabel := make(map[string]CleanableItem, len(items))
	for _, it := range items {
		byLabel[it.Label] = it
	}

	ctr := byLabel["stopped Docker container"]
	if ctr.Path != "old-api" || ctr.ActionHint != "docker rm c0ffee123456" {
		t.Errorf("container item = %q hint %q", ctr.Path, ctr.ActionHint)
	}
	if ctr.SizeBytes != 12_000_000 {
		t.Errorf("container size = %d, want 12000000", ctr.SizeBytes)
	}

	cache := byLabel["Docker build cache"]
	if cache.SizeBytes != 1_200_000_000 || cache.Safety != SafeWithCost {
		t.Errorf("build cache = %d bytes %s", cache.SizeBytes, cache.Safety)
	}
	if cache.ActionHint != "docker builder prune --force" {
		t.Errorf("build cache hint = %q", cache.ActionHint)
	}

	vols := byLabel["unused Docker volumes"]
	if vols.SizeBytes != 2_000_000_000 || vols.Safety != Caution {
		t.Errorf("volumes = %d bytes %s", vols.SizeBytes, vols.Safety)
	}

	// Image rows and zero-byte rows of the usage table produce no items.
	if len(items) != 3 {
		t.Errorf("item count = %d, want 3", len(items))
	}
}

func TestDockerScanUnavailable(t *testing.T) {
	runner := toolexec.NewFakeRunner()
	runner.Missing["docker"] = true

	_, err := NewDockerScanner(runner).Scan(context.Background())
	if err == nil {
		t.Fatal("want error when the daemon is unreachable")
	}
	var toolErr *toolexec.ToolError
	if !errors.As(err, &toolErr) {
		t.Errorf("error type = %T, want *toolexec.ToolError", err)
	}
}

func TestParseHumanSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"150MB (2%)", 150_000_000},
		{"1.21GB (55%)", 1_210_000_000},
		{"0B (virtual 125MB)", 0},
		{"12MiB", 12_582_912},
		{"", 0},
		{"garbage", 0},
	}
	for _, tt := range tests {
		if got := parseHumanSize(tt.in); got != tt.want {
			t.Errorf("parseHumanSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSplitLines(t *testing.T) {
	got := splitLines("a\n  b  \n\n\nc\n")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("lines = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}
