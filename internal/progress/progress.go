// Package progress reports tile-stage progress to the terminal without
// coupling the core pipeline stages (tile.Engine, blob.Sizer, flood.Stage)
// to any particular output. Callers depend only on the Reporter interface;
// library and test callers use Noop.
package progress

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Reporter tracks progress of a single named stage (e.g. "tile stats",
// "blob sizing", "flood fill"). Increment is safe for concurrent use by
// worker goroutines; Finish must be called exactly once when the stage
// completes.
type Reporter interface {
	Increment()
	Finish()
}

// Noop discards all progress reporting.
type Noop struct{}

func (Noop) Increment() {}
func (Noop) Finish()    {}

// Bar renders an in-place terminal progress bar for one pipeline stage. It
// refreshes at a fixed interval and supports concurrent Increment calls
// from multiple tile workers.
type Bar struct {
	total     int64
	processed atomic.Int64
	label     string
	barWidth  int
	start     time.Time
	done      chan struct{}
	mu        sync.Mutex
}

// NewBar starts a terminal progress bar for label (e.g. "tile stats")
// tracking total units of work (typically the tile count).
func NewBar(label string, total int64) *Bar {
	b := &Bar{
		total:    total,
		label:    label,
		barWidth: 30,
		start:    time.Now(),
		done:     make(chan struct{}),
	}
	go b.run()
	return b
}

// Increment marks one more tile as processed.
func (b *Bar) Increment() {
	b.processed.Add(1)
}

// Finish stops the refresh loop and prints the final bar state with a newline.
func (b *Bar) Finish() {
	close(b.done)
	b.draw()
	fmt.Fprint(os.Stderr, "\n")
}

func (b *Bar) run() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.draw()
		}
	}
}

func (b *Bar) draw() {
	b.mu.Lock()
	defer b.mu.Unlock()

	processed := b.processed.Load()
	total := b.total

	var frac float64
	if total > 0 {
		frac = float64(processed) / float64(total)
	}
	if frac > 1 {
		frac = 1
	}

	filled := int(float64(b.barWidth) * frac)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", b.barWidth-filled)

	elapsed := time.Since(b.start)
	rate := float64(0)
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(processed) / secs
	}

	fmt.Fprintf(os.Stderr, "\r%s [%s] %3.0f%%  %d/%d tiles  %.0f/s  %s\033[K",
		b.label, bar, frac*100, processed, total, rate, formatDuration(elapsed))
}

// formatDuration formats a duration concisely (e.g. "1m23s", "45s", "0s").
func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) - m*60
	return fmt.Sprintf("%dm%02ds", m, s)
}
