package scanner

import (
	"context"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/fenilsonani/devclean/internal/toolexec"
)

// DockerScanner discovers cleanable Docker resources through the docker CLI.
// All daemon interaction goes through the injected runner; output parsing is
// limited to formats this scanner chooses itself with --format.
type DockerScanner struct {
	runner toolexec.Runner
	log    *logrus.Entry
}

// NewDockerScanner builds a scanner over the given runner.
func NewDockerScanner(runner toolexec.Runner) *DockerScanner {
	return &DockerScanner{
		runner: runner,
		log:    logrus.WithField("component", "docker"),
	}
}

// Available reports whether the docker CLI exists and the daemon responds.
func (ds *DockerScanner) Available(ctx context.Context) bool {
	if !ds.runner.LookPath("docker") {
		return false
	}
	res, err := ds.runner.Run(ctx, "docker", "version", "--format", "{{.Server.Version}}")
	return err == nil && res.ExitCode == 0
}

// Scan lists images, stopped containers, dangling volumes and the build
// cache. Images backing a running container are marked in use and Dangerous
// regardless of anything else. Every returned item carries the official
// docker command that removes it; nothing here is ever deleted through the
// filesystem.
func (ds *DockerScanner) Scan(ctx context.Context) ([]CleanableItem, error) {
	if !ds.Available(ctx) {
		return nil, &toolexec.ToolError{Tool: "docker", ExitCode: -1, Stderr: "docker daemon unavailable"}
	}

	var items []CleanableItem
	items = append(items, ds.scanImages(ctx)...)
	items = append(items, ds.scanContainers(ctx)...)
	items = append(items, ds.scanSystemUsage(ctx)...)
	return items, nil
}

func (ds *DockerScanner) scanImages(ctx context.Context) []CleanableItem {
	res, err := ds.runner.Run(ctx, "docker", "images", "--all",
		"--format", "{{.ID}}\t{{.Repository}}\t{{.Tag}}\t{{.Size}}")
	if err != nil || res.ExitCode != 0 {
		ds.log.WithError(err).Debug("docker images failed")
		return nil
	}
	inUse := ds.runningImageRefs(ctx)

	var items []CleanableItem
	for _, line := range splitLines(res.Stdout) {
		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			continue
		}
		id, repo, tag, size := fields[0], fields[1], fields[2], fields[3]
		dangling := repo == "<none>" || tag == "<none>"
		ref := repo + ":" + tag
		if dangling {
			ref = id
		}

		item := CleanableItem{
			Path:       ref,
			Category:   CategoryDocker,
			SizeBytes:  parseHumanSize(size),
			ActionHint: "docker rmi " + id,
		}
		switch {
		case inUse[id] || inUse[ref]:
			item.Label = "Docker image (in use by a running container)"
			item.Safety = Dangerous
			item.InUse = true
		case dangling:
			item.Label = "dangling Docker image"
			item.Safety = Safe
		default:
			item.Label = "Docker image"
			item.Safety = Caution
		}
		items = append(items, item)
	}
	return items
}

// runningImageRefs returns the image references of running containers, both
// as given to docker run and truncated to the short ID docker prints.
func (ds *DockerScanner) runningImageRefs(ctx context.Context) map[string]bool {
	res, err := ds.runner.Run(ctx, "docker", "ps", "--format", "{{.Image}}")
	if err != nil || res.ExitCode != 0 {
		return nil
	}
	refs := make(map[string]bool)
	for _, line := range splitLines(res.Stdout) {
		refs[line] = true
		if !strings.Contains(line, ":") && len(line) > 12 {
			refs[line[:12]] = true
		}
	}
	return refs
}

func (ds *DockerScanner) scanContainers(ctx context.Context) []CleanableItem {
	res, err := ds.runner.Run(ctx, "docker", "ps", "--all", "--size",
		"--filter", "status=exited",
		"--format", "{{.ID}}\t{{.Names}}\t{{.Size}}")
	if err != nil || res.ExitCode != 0 {
		ds.log.WithError(err).Debug("docker ps failed")
		return nil
	}
	var items []CleanableItem
	for _, line := range splitLines(res.Stdout) {
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			continue
		}
		id, name, size := fields[0], fields[1], fields[2]
		items = append(items, CleanableItem{
			Path:       name,
			Category:   CategoryDocker,
			Label:      "stopped Docker container",
			SizeBytes:  parseHumanSize(size),
			Safety:     Caution,
			ActionHint: "docker rm " + id,
		})
	}
	return items
}

// scanSystemUsage reports the build cache and dangling volumes as aggregate
// items sized by their reclaimable bytes.
func (ds *DockerScanner) scanSystemUsage(ctx context.Context) []CleanableItem {
	res, err := ds.runner.Run(ctx, "docker", "system", "df",
		"--format", "{{.Type}}\t{{.Reclaimable}}")
	if err != nil || res.ExitCode != 0 {
		ds.log.WithError(err).Debug("docker system df failed")
		return nil
	}
	var items []CleanableItem
	for _, line := range splitLines(res.Stdout) {
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		size := parseHumanSize(fields[1])
		if size == 0 {
			continue
		}
		switch fields[0] {
		case "Build Cache":
			items = append(items, CleanableItem{
				Path:       "docker build cache",
				Category:   CategoryDocker,
				Label:      "Docker build cache",
				SizeBytes:  size,
				Safety:     SafeWithCost,
				ActionHint: "docker builder prune --force",
			})
		case "Local Volumes":
			items = append(items, CleanableItem{
				Path:       "docker dangling volumes",
				Category:   CategoryDocker,
				Label:      "unused Docker volumes",
				SizeBytes:  size,
				Safety:     Caution,
				ActionHint: "docker volume prune --force",
			})
		}
	}
	return items
}

// parseHumanSize reads the leading size token of strings like
// "1.21GB (55%)" or "0B (virtual 125MB)".
func parseHumanSize(s string) int64 {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	v, err := humanize.ParseBytes(fields[0])
	if err != nil {
		return 0
	}
	return int64(v)
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
