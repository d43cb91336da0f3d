// Package display renders user-facing progress and status output for
// finddoc commands.
package display

import (
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// defaultEstimate seeds the bar when no scan history exists yet.
const defaultEstimate = 10000

// ScanProgress renders a progress bar for cache updates. The total starts
// from the scan-history estimate and grows whenever the real count exceeds
// it, so a bar never sits at 100% while a scan is still running.
type ScanProgress struct {
	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	total int64
	count int64
}

// NewScanProgress creates a progress bar writing to w with the given
// estimated total. A non-positive estimate falls back to a default.
func NewScanProgress(w io.Writer, estimate int64) *ScanProgress {
	if estimate <= 0 {
		estimate = defaultEstimate
	}
	bar := progressbar.NewOptions64(estimate,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("scanning"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &ScanProgress{bar: bar, total: estimate}
}

// Add reports n more scanned files.
func (p *ScanProgress) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.count += int64(n)
	if p.count > p.total {
		p.total = p.count
		p.bar.ChangeMax64(p.total)
	}
	p.bar.Add(n)
}

// Count returns the number of files reported so far.
func (p *ScanProgress) Count() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// Finish completes and clears the bar.
func (p *ScanProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bar.Finish()
}
