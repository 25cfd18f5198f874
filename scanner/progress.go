package scanner

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"ichprep/logging"
	"ichprep/types"

	"github.com/schollz/progressbar/v2"
)

// NewProgressTracker initializes the progress tracker for totalRows rows
func NewProgressTracker(totalRows int, description string, w io.Writer) *ProgressTracker {
	if w == nil {
		w = os.Stderr
	}
	return &ProgressTracker{
		byReason:  make(map[string]int),
		totalRows: totalRows,
		bar: progressbar.NewOptions(totalRows,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(description),
			progressbar.OptionThrottle(100*time.Millisecond),
		),
	}
}

// Record updates the tracker with one checked slice
func (p *ProgressTracker) Record(info types.SliceInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed++
	p.byReason[info.Reason]++
	if !info.Usable {
		p.bad++
	}
	if err := p.bar.Add(1); err != nil {
		logging.DebugLog("progress bar: %v", err)
	}
}

// RecordLedgerError counts a slice that could not be written to the ledger
func (p *ProgressTracker) RecordLedgerError() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ledgerErrs++
}

// Stop finishes the progress bar
func (p *ProgressTracker) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.totalRows > 0 {
		p.bar.Finish()
	}
}

// Counts returns processed rows, flagged rows and a copy of the per-reason counts
func (p *ProgressTracker) Counts() (int, int, map[string]int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	byReason := make(map[string]int, len(p.byReason))
	for k, v := range p.byReason {
		byReason[k] = v
	}
	return p.processed, p.bad, byReason
}

// PrintStartupInfo displays information about the scan before starting
func PrintStartupInfo(totalRows int, options ScanOptions) {
	fmt.Printf("Flagging %s manifest: %s\n", options.Run.Mode, options.Run.Manifest)
	fmt.Printf("Rows to check: %d (expecting %dx%d slices under %s)\n",
		totalRows, options.ExpectedRows, options.ExpectedCols, options.Run.ImageDir)

	if options.DebugMode {
		logging.DebugLog("Scanning %d rows of %s against %s", totalRows, options.Run.Manifest, options.Run.ImageDir)
	}
}

// PrintCompletionStats displays statistics after scan completion
func PrintCompletionStats(tracker *ProgressTracker, startTime time.Time, options ScanOptions) {
	elapsed := time.Since(startTime)
	processed, bad, byReason := tracker.Counts()

	if options.DebugMode {
		logging.DebugLog("Scan of %s completed in %v. Processed: %d, Flagged: %d, By reason: %v",
			options.Run.Manifest, elapsed, processed, bad, byReason)
	}

	fmt.Println("\nFlagging complete.")
	fmt.Printf("Checked %d slices in %v.\n", processed, elapsed.Round(time.Second))
	fmt.Printf("Wrote %s\n", options.Run.Output)

	if bad > 0 {
		fmt.Printf("Flagged %d unusable slices:\n", bad)
		reasons := make([]string, 0, len(byReason))
		for reason := range byReason {
			if reason != types.ReasonOK {
				reasons = append(reasons, reason)
			}
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Printf("- %s: %d\n", reason, byReason[reason])
		}
	}

	tracker.mu.Lock()
	ledgerErrs := tracker.ledgerErrs
	tracker.mu.Unlock()

	if ledgerErrs > 0 {
		fmt.Printf("Encountered %d ledger write errors.\n", ledgerErrs)
		fmt.Println("Check the log file for details.")
	}
}
