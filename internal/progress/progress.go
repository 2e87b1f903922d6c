package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Phase represents the current phase of operation
type Phase string

const (
	PhaseWalking  Phase = "walking"
	PhaseSizing   Phase = "sizing"
	PhaseCleaning Phase = "cleaning"
	PhaseComplete Phase = "complete"
	PhaseError    Phase = "error"
)

// ScanProgress represents progress during a scan
type ScanProgress struct {
	Phase       Phase
	CurrentPath string
	DirsWalked  int64
	ItemsFound  int64
	BytesFound  int64
	StartTime   time.Time
	Error       error
}

// CleanProgress represents progress during cleanup
type CleanProgress struct {
	Phase       Phase
	CurrentPath string
	ItemsDone   int
	ItemsTotal  int
	BytesFreed  int64
	Skipped     int
	Failed      int
	StartTime   time.Time
	Error       error
}

// Reporter provides thread-safe progress reporting. Listeners receive
// updates over buffered channels; slow listeners miss intermediate updates
// rather than blocking the pipeline.
type Reporter struct {
	scanProgress  *ScanProgress
	cleanProgress *CleanProgress
	mu            sync.RWMutex
	listeners     []chan interface{}
}

// NewReporter creates a new progress reporter
func NewReporter() *Reporter {
	return &Reporter{
		listeners: make([]chan interface{}, 0),
	}
}

// Subscribe returns a channel that receives progress updates
func (pr *Reporter) Subscribe() <-chan interface{} {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	ch := make(chan interface{}, 10)
	pr.listeners = append(pr.listeners, ch)
	return ch
}

// Unsubscribe closes and removes a listener channel
func (pr *Reporter) Unsubscribe(ch <-chan interface{}) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	for i, listener := range pr.listeners {
		if listener == ch {
			close(listener)
			pr.listeners = append(pr.listeners[:i], pr.listeners[i+1:]...)
			return
		}
	}
}

// UpdateScan publishes scan progress to all listeners
func (pr *Reporter) UpdateScan(update *ScanProgress) {
	pr.mu.Lock()
	pr.scanProgress = update
	listeners := make([]chan interface{}, len(pr.listeners))
	copy(listeners, pr.listeners)
	pr.mu.Unlock()

	for _, listener := range listeners {
		select {
		case listener <- update:
		default:
			// Listener is behind; it will catch up on the next update.
		}
	}
}

// UpdateClean publishes clean progress to all listeners
func (pr *Reporter) UpdateClean(update *CleanProgress) {
	pr.mu.Lock()
	pr.cleanProgress = update
	listeners := make([]chan interface{}, len(pr.listeners))
	copy(listeners, pr.listeners)
	pr.mu.Unlock()

	for _, listener := range listeners {
		select {
		case listener <- update:
		default:
		}
	}
}

// GetScan returns the last published scan progress
func (pr *Reporter) GetScan() *ScanProgress {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	return pr.scanProgress
}

// GetClean returns the last published clean progress
func (pr *Reporter) GetClean() *CleanProgress {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	return pr.cleanProgress
}

// FormatScan returns a human-readable scan progress line
func FormatScan(p *ScanProgress) string {
	if p == nil {
		return "Initializing..."
	}

	elapsed := time.Since(p.StartTime)

	switch p.Phase {
	case PhaseWalking, PhaseSizing:
		return fmt.Sprintf("Scanning... %d dirs, %d items (%s) [%s]",
			p.DirsWalked,
			p.ItemsFound,
			humanize.IBytes(uint64(p.BytesFound)),
			FormatDuration(elapsed))
	case PhaseComplete:
		return fmt.Sprintf("Scan complete: %d items (%s) in %s",
			p.ItemsFound,
			humanize.IBytes(uint64(p.BytesFound)),
			FormatDuration(elapsed))
	case PhaseError:
		return fmt.Sprintf("Scan error: %v", p.Error)
	default:
		return "Scanning..."
	}
}

// FormatClean returns a human-readable clean progress line
func FormatClean(p *CleanProgress) string {
	if p == nil {
		return "Preparing..."
	}

	elapsed := time.Since(p.StartTime)

	switch p.Phase {
	case PhaseCleaning:
		percentage := 0
		if p.ItemsTotal > 0 {
			percentage = (p.ItemsDone * 100) / p.ItemsTotal
		}

		eta := ""
		if p.ItemsDone > 0 && p.ItemsTotal > p.ItemsDone {
			avgTime := elapsed / time.Duration(p.ItemsDone)
			remaining := time.Duration(p.ItemsTotal-p.ItemsDone) * avgTime
			eta = fmt.Sprintf(" ETA: %s", FormatDuration(remaining))
		}

		return fmt.Sprintf("Cleaning... %d/%d items (%d%%) - %s freed%s",
			p.ItemsDone,
			p.ItemsTotal,
			percentage,
			humanize.IBytes(uint64(p.BytesFreed)),
			eta)
	case PhaseComplete:
		return fmt.Sprintf("Cleanup complete: %d items (%s freed) in %s",
			p.ItemsDone,
			humanize.IBytes(uint64(p.BytesFreed)),
			FormatDuration(elapsed))
	case PhaseError:
		return fmt.Sprintf("Cleanup error: %v", p.Error)
	default:
		return "Preparing cleanup..."
	}
}

// FormatDuration formats a duration as compact h/m/s
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
