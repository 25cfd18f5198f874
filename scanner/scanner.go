package scanner

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ichprep/config"
	"ichprep/database"
	"ichprep/dicomcheck"
	"ichprep/logging"
	"ichprep/table"
	"ichprep/types"

	"github.com/google/uuid"
)

// ScanManifest checks the slice behind every manifest row and writes the
// manifest with a bad_actors column to the run's output path. Rows keep their
// order and columns. When ledger is non-nil every outcome is also recorded
// there under a fresh run id.
func ScanManifest(ledger *sql.DB, options ScanOptions) (*types.ScanSummary, error) {
	manifest, err := table.Read(options.Run.Manifest)
	if err != nil {
		return nil, fmt.Errorf("load %s manifest: %w", options.Run.Mode, err)
	}

	filenameIdx, err := filenameColumn(manifest, options.FilenameColumn)
	if err != nil {
		return nil, fmt.Errorf("%s manifest %s: %w", options.Run.Mode, options.Run.Manifest, err)
	}

	runID := uuid.NewString()
	checker := dicomcheck.NewChecker(options.ExpectedRows, options.ExpectedCols)
	options.ExpectedRows, options.ExpectedCols = checker.ExpectedRows, checker.ExpectedCols

	PrintStartupInfo(manifest.Len(), options)
	tracker := NewProgressTracker(manifest.Len(), string(options.Run.Mode), options.Progress)

	startTime := time.Now()
	flags := make([]string, manifest.Len())
	for i, row := range manifest.Rows {
		info := checkRow(checker, i, row[filenameIdx], options.Run)
		flags[i] = FormatFlag(!info.Usable)
		tracker.Record(info)

		if ledger != nil {
			if err := database.StoreSliceInfo(ledger, runID, info); err != nil {
				logging.LogError("ledger: %v", err)
				tracker.RecordLedgerError()
			}
		}
	}
	tracker.Stop()

	if err := manifest.SetColumn(FlagColumn, flags); err != nil {
		return nil, err
	}
	if err := table.Write(options.Run.Output, manifest); err != nil {
		return nil, fmt.Errorf("write flagged %s manifest: %w", options.Run.Mode, err)
	}

	PrintCompletionStats(tracker, startTime, options)

	processed, bad, byReason := tracker.Counts()
	return &types.ScanSummary{
		RunID:    runID,
		Mode:     string(options.Run.Mode),
		Output:   options.Run.Output,
		Total:    processed,
		Bad:      bad,
		ByReason: byReason,
	}, nil
}

// ScanRuns flags every run in order, stopping at the first structural failure
func ScanRuns(ledger *sql.DB, cfg *config.Config, runs []config.ScanRun, debugMode bool) ([]*types.ScanSummary, error) {
	summaries := make([]*types.ScanSummary, 0, len(runs))
	for _, run := range runs {
		summary, err := ScanManifest(ledger, ScanOptions{
			Run:            run,
			FilenameColumn: cfg.Scan.FilenameColumn,
			ExpectedRows:   cfg.Scan.ExpectedRows,
			ExpectedCols:   cfg.Scan.ExpectedCols,
			DebugMode:      debugMode,
		})
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// checkRow classifies the slice one manifest row refers to
func checkRow(checker *dicomcheck.Checker, row int, filename string, run config.ScanRun) types.SliceInfo {
	info := checker.Check(ResolveSlicePath(run.ImageDir, filename))
	info.Row = row
	info.Mode = string(run.Mode)
	return info
}

// filenameColumn locates the manifest column naming each slice
func filenameColumn(t *table.Table, column string) (int, error) {
	if column == "" {
		if len(t.Header) == 0 {
			return -1, errors.New("manifest has no columns")
		}
		return 0, nil
	}
	return t.MustIndex(column)
}
