// Package reporter renders scan results, clean sessions, and analysis
// reports as a table, JSON, YAML, or a one-screen summary.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/devclean/internal/analysis"
	"github.com/fenilsonani/devclean/internal/executor"
	"github.com/fenilsonani/devclean/internal/platform"
	"github.com/fenilsonani/devclean/internal/scanner"
)

// Format selects how results are rendered
type Format string

const (
	FormatTable   Format = "table"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatSummary Format = "summary"
)

// ParseFormat resolves a --format flag value
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	case FormatSummary:
		return FormatSummary, nil
	default:
		return FormatTable, fmt.Errorf("unsupported format: %q", s)
	}
}

// Reporter renders results to one writer in one format
type Reporter struct {
	w      io.Writer
	format Format
	disk   *platform.DiskUsage
}

// New creates a Reporter writing to w
func New(w io.Writer, format Format) *Reporter {
	return &Reporter{w: w, format: format}
}

// WithDisk attaches a disk-usage probe shown in table and summary footers
func (r *Reporter) WithDisk(usage *platform.DiskUsage) *Reporter {
	r.disk = usage
	return r
}

// =============================================================================
// View models (shared by JSON and YAML so both stay field-stable)
// =============================================================================

type itemRow struct {
	Path         string `json:"path" yaml:"path"`
	Category     string `json:"category" yaml:"category"`
	Label        string `json:"label,omitempty" yaml:"label,omitempty"`
	SizeBytes    int64  `json:"size_bytes" yaml:"size_bytes"`
	Size         string `json:"size" yaml:"size"`
	FileCount    int64  `json:"file_count,omitempty" yaml:"file_count,omitempty"`
	Safety       string `json:"safety" yaml:"safety"`
	Git          string `json:"git,omitempty" yaml:"git,omitempty"`
	LastActivity string `json:"last_activity,omitempty" yaml:"last_activity,omitempty"`
	ActionHint   string `json:"action_hint,omitempty" yaml:"action_hint,omitempty"`
	InUse        bool   `json:"in_use,omitempty" yaml:"in_use,omitempty"`
}

type scanReport struct {
	Timestamp    string    `json:"timestamp" yaml:"timestamp"`
	Roots        []string  `json:"roots" yaml:"roots"`
	Items        []itemRow `json:"items" yaml:"items"`
	TotalSize    int64     `json:"total_size_bytes" yaml:"total_size_bytes"`
	TotalHuman   string    `json:"total_size" yaml:"total_size"`
	SkippedPaths int       `json:"skipped_paths" yaml:"skipped_paths"`
	Errors       int       `json:"errors" yaml:"errors"`
	Partial      bool      `json:"partial,omitempty" yaml:"partial,omitempty"`
	Duration     string    `json:"duration" yaml:"duration"`
}

type actionRow struct {
	Path       string `json:"path" yaml:"path"`
	State      string `json:"state" yaml:"state"`
	BytesFreed int64  `json:"bytes_freed,omitempty" yaml:"bytes_freed,omitempty"`
	Reason     string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
	Warning    string `json:"warning,omitempty" yaml:"warning,omitempty"`
	TrashID    string `json:"trash_id,omitempty" yaml:"trash_id,omitempty"`
}

type cleanReport struct {
	Timestamp  string      `json:"timestamp" yaml:"timestamp"`
	Mode       string      `json:"mode" yaml:"mode"`
	Succeeded  int         `json:"succeeded" yaml:"succeeded"`
	Skipped    int         `json:"skipped" yaml:"skipped"`
	Failed     int         `json:"failed" yaml:"failed"`
	BytesFreed int64       `json:"bytes_freed" yaml:"bytes_freed"`
	FreedHuman string      `json:"freed" yaml:"freed"`
	Duration   string      `json:"duration" yaml:"duration"`
	Results    []actionRow `json:"results" yaml:"results"`
}

type recommendationRow struct {
	Kind       string `json:"kind" yaml:"kind"`
	Title      string `json:"title" yaml:"title"`
	Detail     string `json:"detail" yaml:"detail"`
	Path       string `json:"path,omitempty" yaml:"path,omitempty"`
	Savings    int64  `json:"savings_bytes" yaml:"savings_bytes"`
	SavingsStr string `json:"savings" yaml:"savings"`
	FixCommand string `json:"fix_command,omitempty" yaml:"fix_command,omitempty"`
	Risk       string `json:"risk" yaml:"risk"`
}

type analysisView struct {
	Timestamp       string              `json:"timestamp" yaml:"timestamp"`
	Recommendations []recommendationRow `json:"recommendations" yaml:"recommendations"`
	TotalSavings    int64               `json:"total_savings_bytes" yaml:"total_savings_bytes"`
	SavingsHuman    string              `json:"total_savings" yaml:"total_savings"`
}

// =============================================================================
// Scan reports
// =============================================================================

// ScanReport renders a scan result in the configured format
func (r *Reporter) ScanReport(result *scanner.ScanResult) error {
	switch r.format {
	case FormatTable:
		return r.scanTable(result)
	case FormatJSON:
		return r.encodeJSON(newScanReport(result))
	case FormatYAML:
		return r.encodeYAML(newScanReport(result))
	case FormatSummary:
		return r.scanSummary(result)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

func newScanReport(result *scanner.ScanResult) *scanReport {
	report := &scanReport{
		Timestamp:    time.Now().Format(time.RFC3339),
		Roots:        result.Roots,
		Items:        make([]itemRow, 0, len(result.Items)),
		TotalSize:    result.TotalSize,
		TotalHuman:   humanize.IBytes(uint64(result.TotalSize)),
		SkippedPaths: result.SkippedPaths,
		Errors:       len(result.Errors),
		Partial:      result.Partial,
		Duration:     result.Duration.Round(time.Millisecond).String(),
	}
	for _, item := range result.SortedBySize() {
		row := itemRow{
			Path:       item.Path,
			Category:   item.Category.String(),
			Label:      item.Label,
			SizeBytes:  item.SizeBytes,
			Size:       humanize.IBytes(uint64(item.SizeBytes)),
			FileCount:  item.FileCount,
			Safety:     item.Safety.String(),
			ActionHint: item.ActionHint,
			InUse:      item.InUse,
		}
		if item.Git != scanner.GitUnknown {
			row.Git = item.Git.String()
		}
		if !item.LastActivity.IsZero() {
			row.LastActivity = item.LastActivity.Format(time.RFC3339)
		}
		report.Items = append(report.Items, row)
	}
	return report
}

func (r *Reporter) scanTable(result *scanner.ScanResult) error {
	fmt.Fprintf(r.w, "%-10s  %-18s  %-14s  %-12s  %s\n",
		"SIZE", "CATEGORY", "SAFETY", "GIT", "PATH")
	fmt.Fprintln(r.w, strings.Repeat("-", 88))

	for _, item := range result.SortedBySize() {
		git := ""
		if item.Git != scanner.GitUnknown {
			git = item.Git.String()
		}
		fmt.Fprintf(r.w, "%-10s  %-18s  %-14s  %-12s  %s\n",
			humanize.IBytes(uint64(item.SizeBytes)),
			item.Category.String(),
			item.Safety.String(),
			git,
			item.Path)
	}

	fmt.Fprintln(r.w, strings.Repeat("-", 88))
	fmt.Fprintf(r.w, "%d items, %s total", len(result.Items),
		humanize.IBytes(uint64(result.TotalSize)))
	if result.SkippedPaths > 0 {
		fmt.Fprintf(r.w, ", %d paths skipped", result.SkippedPaths)
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(r.w, ", %d errors", len(result.Errors))
	}
	if result.Partial {
		fmt.Fprint(r.w, " (partial)")
	}
	fmt.Fprintln(r.w)
	r.diskLine()
	return nil
}

func (r *Reporter) scanSummary(result *scanner.ScanResult) error {
	fmt.Fprintf(r.w, "scanned %s in %s\n", strings.Join(result.Roots, ", "),
		result.Duration.Round(time.Millisecond))
	fmt.Fprintf(r.w, "  items: %d (%s)\n", len(result.Items),
		humanize.IBytes(uint64(result.TotalSize)))
	if result.SkippedPaths > 0 {
		fmt.Fprintf(r.w, "  skipped paths: %d\n", result.SkippedPaths)
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(r.w, "  errors: %d\n", len(result.Errors))
	}
	if result.Partial {
		fmt.Fprintln(r.w, "  partial: scan was interrupted")
	}

	type catLine struct {
		name  string
		count int
		bytes int64
	}
	var lines []catLine
	for category, items := range result.ByCategory() {
		line := catLine{name: category.String(), count: len(items)}
		for _, it := range items {
			line.bytes += it.SizeBytes
		}
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].bytes > lines[j].bytes })

	if len(lines) > 0 {
		fmt.Fprintln(r.w, "by category:")
		for _, line := range lines {
			fmt.Fprintf(r.w, "  %-18s %d items, %s\n", line.name, line.count,
				humanize.IBytes(uint64(line.bytes)))
		}
	}
	r.diskLine()
	return nil
}

// CachesReport renders a global-cache listing. The structured formats are
// identical to ScanReport; the table trades the git column for each cache's
// official clean command.
func (r *Reporter) CachesReport(result *scanner.ScanResult) error {
	if r.format != FormatTable {
		return r.ScanReport(result)
	}

	fmt.Fprintf(r.w, "%-10s  %-24s  %-14s  %s\n",
		"SIZE", "NAME", "SAFETY", "CLEAN COMMAND")
	fmt.Fprintln(r.w, strings.Repeat("-", 88))

	for _, item := range result.SortedBySize() {
		name := item.Label
		if name == "" {
			name = item.Name()
		}
		hint := item.ActionHint
		if hint == "" {
			hint = "-"
		}
		fmt.Fprintf(r.w, "%-10s  %-24s  %-14s  %s\n",
			humanize.IBytes(uint64(item.SizeBytes)),
			name,
			item.Safety.String(),
			hint)
	}

	fmt.Fprintln(r.w, strings.Repeat("-", 88))
	fmt.Fprintf(r.w, "%d caches, %s total\n", len(result.Items),
		humanize.IBytes(uint64(result.TotalSize)))
	r.diskLine()
	return nil
}

// =============================================================================
// Clean reports
// =============================================================================

// CleanReport renders an executor session in the configured format
func (r *Reporter) CleanReport(summary *executor.Summary) error {
	switch r.format {
	case FormatTable:
		return r.cleanTable(summary)
	case FormatJSON:
		return r.encodeJSON(newCleanReport(summary))
	case FormatYAML:
		return r.encodeYAML(newCleanReport(summary))
	case FormatSummary:
		return r.cleanSummary(summary)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

func newCleanReport(summary *executor.Summary) *cleanReport {
	report := &cleanReport{
		Timestamp:  time.Now().Format(time.RFC3339),
		Mode:       summary.Mode.String(),
		Succeeded:  summary.Succeeded,
		Skipped:    summary.Skipped,
		Failed:     summary.Failed,
		BytesFreed: summary.BytesFreed,
		FreedHuman: humanize.IBytes(uint64(summary.BytesFreed)),
		Duration:   summary.Duration.Round(time.Millisecond).String(),
		Results:    make([]actionRow, 0, len(summary.Results)),
	}
	for _, res := range summary.Results {
		row := actionRow{
			Path:       res.Item.Path,
			State:      res.State.String(),
			BytesFreed: res.BytesFreed,
			Reason:     res.Reason,
			Warning:    res.Warning,
			TrashID:    res.TrashID,
		}
		if res.Err != nil {
			row.Error = res.Err.UserMessage()
		}
		report.Results = append(report.Results, row)
	}
	return report
}

func (r *Reporter) cleanTable(summary *executor.Summary) error {
	fmt.Fprintf(r.w, "%-10s  %-10s  %s\n", "STATE", "FREED", "PATH")
	fmt.Fprintln(r.w, strings.Repeat("-", 72))

	for _, res := range summary.Results {
		freed := "-"
		if res.BytesFreed > 0 {
			freed = humanize.IBytes(uint64(res.BytesFreed))
		}
		fmt.Fprintf(r.w, "%-10s  %-10s  %s\n", res.State, freed, res.Item.Path)
		if res.Reason != "" {
			fmt.Fprintf(r.w, "%-24s%s\n", "", res.Reason)
		}
		if res.Warning != "" {
			fmt.Fprintf(r.w, "%-24swarning: %s\n", "", res.Warning)
		}
		if res.Err != nil {
			fmt.Fprintf(r.w, "%-24serror: %s\n", "", res.Err.UserMessage())
		}
	}

	fmt.Fprintln(r.w, strings.Repeat("-", 72))
	return r.cleanSummary(summary)
}

func (r *Reporter) cleanSummary(summary *executor.Summary) error {
	verb := "freed"
	if summary.Mode == executor.ModeDryRun {
		verb = "would free"
	}
	fmt.Fprintf(r.w, "%s %s: %d succeeded, %d skipped, %d failed (%s, %s)\n",
		verb, humanize.IBytes(uint64(summary.BytesFreed)),
		summary.Succeeded, summary.Skipped, summary.Failed,
		summary.Mode, summary.Duration.Round(time.Millisecond))
	r.diskLine()
	return nil
}

// =============================================================================
// Analysis reports
// =============================================================================

// AnalysisReport renders advisory findings in the configured format
func (r *Reporter) AnalysisReport(report *analysis.Report) error {
	switch r.format {
	case FormatTable:
		return r.analysisTable(report)
	case FormatJSON:
		return r.encodeJSON(newAnalysisView(report))
	case FormatYAML:
		return r.encodeYAML(newAnalysisView(report))
	case FormatSummary:
		return r.analysisSummary(report)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

func newAnalysisView(report *analysis.Report) *analysisView {
	view := &analysisView{
		Timestamp:       time.Now().Format(time.RFC3339),
		Recommendations: make([]recommendationRow, 0, len(report.Recommendations)),
		TotalSavings:    report.TotalSavings,
		SavingsHuman:    humanize.IBytes(uint64(report.TotalSavings)),
	}
	for _, rec := range report.Recommendations {
		view.Recommendations = append(view.Recommendations, recommendationRow{
			Kind:       rec.Kind.String(),
			Title:      rec.Title,
			Detail:     rec.Detail,
			Path:       rec.Path,
			Savings:    rec.Savings,
			SavingsStr: humanize.IBytes(uint64(rec.Savings)),
			FixCommand: rec.FixCommand,
			Risk:       rec.Risk.String(),
		})
	}
	return view
}

func (r *Reporter) analysisTable(report *analysis.Report) error {
	if len(report.Recommendations) == 0 {
		fmt.Fprintln(r.w, "nothing to recommend")
		return nil
	}

	for _, rec := range report.Recommendations {
		fmt.Fprintf(r.w, "%-10s  %-14s  %s\n",
			humanize.IBytes(uint64(rec.Savings)), rec.Kind, rec.Title)
		fmt.Fprintf(r.w, "%-12s%s\n", "", rec.Detail)
		if rec.FixCommand != "" {
			fmt.Fprintf(r.w, "%-12sfix: %s\n", "", rec.FixCommand)
		}
	}

	fmt.Fprintln(r.w, strings.Repeat("-", 72))
	return r.analysisSummary(report)
}

func (r *Reporter) analysisSummary(report *analysis.Report) error {
	fmt.Fprintf(r.w, "%d recommendations, up to %s reclaimable (estimates are heuristic)\n",
		len(report.Recommendations), humanize.IBytes(uint64(report.TotalSavings)))
	return nil
}

// =============================================================================
// Encoding and footers
// =============================================================================

func (r *Reporter) encodeJSON(v any) error {
	encoder := json.NewEncoder(r.w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (r *Reporter) encodeYAML(v any) error {
	encoder := yaml.NewEncoder(r.w)
	defer encoder.Close()
	return encoder.Encode(v)
}

func (r *Reporter) diskLine() {
	if r.disk == nil {
		return
	}
	fmt.Fprintf(r.w, "disk: %s free of %s (%.1f%% used)\n",
		humanize.IBytes(r.disk.Free), humanize.IBytes(r.disk.Total),
		r.disk.UsedPercent)
}
