package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/fenilsonani/devclean/internal/progress"
)

// LivePrinter writes one self-overwriting status line while a scan or clean
// runs outside the full-screen flow. The line clears on detach so reports
// start on a clean row.
type LivePrinter struct {
	w        io.Writer
	mu       sync.Mutex
	width    int
	lastLen  int
	lastDraw time.Time
}

// NewLivePrinter creates a printer sized to the writer's terminal, falling
// back to 80 columns when the width cannot be determined.
func NewLivePrinter(w io.Writer) *LivePrinter {
	width := 80
	if f, ok := w.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			width = tw
		}
	}
	return &LivePrinter{w: w, width: width}
}

// Attach subscribes to reporter updates and returns a detach function. The
// detach function blocks until the listener drains, then clears the line.
func (lp *LivePrinter) Attach(reporter *progress.Reporter) func() {
	ch := reporter.Subscribe()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range ch {
			switch u := update.(type) {
			case *progress.ScanProgress:
				lp.print(progress.FormatScan(u))
			case *progress.CleanProgress:
				lp.print(progress.FormatClean(u))
			}
		}
	}()

	return func() {
		reporter.Unsubscribe(ch)
		<-done
		lp.clear()
	}
}

// print redraws the status line, throttled so fast walkers do not flood the
// terminal.
func (lp *LivePrinter) print(line string) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	now := time.Now()
	if now.Sub(lp.lastDraw) < 100*time.Millisecond {
		return
	}
	lp.lastDraw = now

	if lp.width > 4 && len(line) > lp.width-1 {
		line = line[:lp.width-4] + "..."
	}
	pad := lp.lastLen - len(line)
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(lp.w, "\r%s%s", line, strings.Repeat(" ", pad))
	lp.lastLen = len(line)
}

// clear erases the status line
func (lp *LivePrinter) clear() {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if lp.lastLen == 0 {
		return
	}
	fmt.Fprintf(lp.w, "\r%s\r", strings.Repeat(" ", lp.lastLen))
	lp.lastLen = 0
}
