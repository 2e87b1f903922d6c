// Package analysis holds the read-only advisory engines: the git repository
// analyzer, the stale-project finder, and the duplicate-dependency finder.
// Engines never delete anything; they produce recommendations with savings
// estimates that are explicitly heuristic.
package analysis

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fenilsonani/devclean/internal/scanner"
	"github.com/fenilsonani/devclean/internal/toolexec"
)

// Kind identifies which engine produced a recommendation
type Kind int

const (
	KindGitGC Kind = iota
	KindStaleProject
	KindDuplicateDeps
)

var kindNames = map[Kind]string{
	KindGitGC:         "git-gc",
	KindStaleProject:  "stale-project",
	KindDuplicateDeps: "duplicate-deps",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Recommendation is one advisory finding. Savings is a heuristic estimate,
// never a promise.
type Recommendation struct {
	Kind       Kind                `json:"kind"`
	Title      string              `json:"title"`
	Detail     string              `json:"detail"`
	Path       string              `json:"path,omitempty"`
	Savings    int64               `json:"savings_bytes"`
	FixCommand string              `json:"fix_command,omitempty"`
	Risk       scanner.SafetyLevel `json:"risk"`
}

// Report bundles a full analysis run
type Report struct {
	Recommendations []Recommendation `json:"recommendations"`
	TotalSavings    int64            `json:"total_savings_bytes"`
	Duration        time.Duration    `json:"duration"`
}

// NewReport assembles a report and its savings total
func NewReport(recs []Recommendation, duration time.Duration) *Report {
	r := &Report{Recommendations: recs, Duration: duration}
	for _, rec := range recs {
		r.TotalSavings += rec.Savings
	}
	return r
}

// Options tunes engine thresholds. Zero values select the defaults, which
// mirror the documented heuristics.
type Options struct {
	// GitMinRepoSize flags a repository for gc by total .git size.
	GitMinRepoSize int64
	// GitMaxLoose flags a repository for gc by loose object count.
	GitMaxLoose int
	// GitSavingsRatio estimates the fraction of loose-object bytes gc frees.
	GitSavingsRatio float64

	// StaleAfter is how long without activity marks a project stale.
	StaleAfter time.Duration
	// StaleMinSize keeps trivially small projects out of the stale report.
	StaleMinSize int64

	// VenvMinCount and VenvMinTotal gate the shared-venv recommendation;
	// VenvOverlapRatio estimates the duplicated fraction.
	VenvMinCount     int
	VenvMinTotal     int64
	VenvOverlapRatio float64

	// RustMinCount gates the shared-target recommendation;
	// RustSharedRatio estimates the duplicated compilation fraction.
	RustMinCount    int
	RustSharedRatio float64
}

// DefaultOptions returns the documented default thresholds
func DefaultOptions() Options {
	return Options{
		GitMinRepoSize:   100 * 1024 * 1024,
		GitMaxLoose:      1000,
		GitSavingsRatio:  0.60,
		StaleAfter:       180 * 24 * time.Hour,
		StaleMinSize:     50 * 1024 * 1024,
		VenvMinCount:     3,
		VenvMinTotal:     500 * 1024 * 1024,
		VenvOverlapRatio: 0.40,
		RustMinCount:     2,
		RustSharedRatio:  0.35,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.GitMinRepoSize <= 0 {
		o.GitMinRepoSize = d.GitMinRepoSize
	}
	if o.GitMaxLoose <= 0 {
		o.GitMaxLoose = d.GitMaxLoose
	}
	if o.GitSavingsRatio <= 0 {
		o.GitSavingsRatio = d.GitSavingsRatio
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = d.StaleAfter
	}
	if o.StaleMinSize <= 0 {
		o.StaleMinSize = d.StaleMinSize
	}
	if o.VenvMinCount <= 0 {
		o.VenvMinCount = d.VenvMinCount
	}
	if o.VenvMinTotal <= 0 {
		o.VenvMinTotal = d.VenvMinTotal
	}
	if o.VenvOverlapRatio <= 0 {
		o.VenvOverlapRatio = d.VenvOverlapRatio
	}
	if o.RustMinCount <= 0 {
		o.RustMinCount = d.RustMinCount
	}
	if o.RustSharedRatio <= 0 {
		o.RustSharedRatio = d.RustSharedRatio
	}
	return o
}

// Engine runs the analyzers over scan roots and scan output
type Engine struct {
	opts     Options
	detector *scanner.Detector
	catalog  *scanner.Catalog
	sizer    *scanner.Sizer
	runner   toolexec.Runner
	now      func() time.Time
	log      *logrus.Entry
}

// NewEngine builds an analysis engine sharing the scan pipeline's detector
// and sizer. runner is only used by FixGit.
func NewEngine(opts Options, detector *scanner.Detector, sizer *scanner.Sizer, runner toolexec.Runner) *Engine {
	return &Engine{
		opts:     opts.withDefaults(),
		detector: detector,
		catalog:  detector.Catalog(),
		sizer:    sizer,
		runner:   runner,
		now:      time.Now,
		log:      logrus.WithField("component", "analysis"),
	}
}
