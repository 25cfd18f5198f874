package database

import (
	"database/sql"
	"fmt"
	"time"

	"ichprep/logging"
	"ichprep/types"

	_ "github.com/mattn/go-sqlite3"
)

// InitDatabase initializes and returns a ledger connection
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS slices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		row_index INTEGER NOT NULL,
		mode TEXT NOT NULL,
		path TEXT NOT NULL,
		usable INTEGER NOT NULL,
		slice_rows INTEGER,
		slice_cols INTEGER,
		size INTEGER,
		modified_at TEXT,
		checked_at TEXT,
		UNIQUE(run_id, row_index)
	);
	CREATE INDEX IF NOT EXISTS idx_run ON slices(run_id);
	CREATE INDEX IF NOT EXISTS idx_path ON slices(path);`

	if _, err = db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, err
	}

	// Ledgers created before failure reasons were recorded lack the column
	var hasReasonColumn bool
	err = db.QueryRow("SELECT COUNT(*) FROM pragma_table_info('slices') WHERE name='reason'").Scan(&hasReasonColumn)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error checking for reason column: %w", err)
	}

	if !hasReasonColumn {
		if _, err = db.Exec("ALTER TABLE slices ADD COLUMN reason TEXT;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("error adding reason column: %w", err)
		}
		logging.DebugLog("Added 'reason' column to ledger schema")
	}

	return db, nil
}

// StoreSliceInfo records one checked manifest row under runID. A manifest
// listing a path twice gets two ledger rows.
func StoreSliceInfo(db *sql.DB, runID string, info types.SliceInfo) error {
	now := time.Now().Format(time.RFC3339)

	stmt, err := db.Prepare(`
		INSERT OR REPLACE INTO slices (
			run_id, row_index, mode, path, usable, reason, slice_rows, slice_cols, size, modified_at, checked_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("cannot prepare statement for %s: %w", info.Path, err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		runID,
		info.Row,
		info.Mode,
		info.Path,
		info.Usable,
		info.Reason,
		info.Rows,
		info.Cols,
		info.Size,
		info.ModifiedAt,
		now,
	)
	if err != nil {
		return fmt.Errorf("cannot insert data for %s: %w", info.Path, err)
	}

	return nil
}

// ScanStats contains ledger totals for one run
type ScanStats struct {
	TotalSlices int
	BadSlices   int
	ByReason    map[string]int
}

// GetScanStats retrieves statistics about the slices recorded for runID
func GetScanStats(db *sql.DB, runID string) (*ScanStats, error) {
	stats := ScanStats{ByReason: make(map[string]int)}

	err := db.QueryRow("SELECT COUNT(*) FROM slices WHERE run_id = ?", runID).Scan(&stats.TotalSlices)
	if err != nil {
		return nil, fmt.Errorf("failed to get total slices: %w", err)
	}

	err = db.QueryRow("SELECT COUNT(*) FROM slices WHERE run_id = ? AND usable = 0", runID).Scan(&stats.BadSlices)
	if err != nil {
		return nil, fmt.Errorf("failed to get flagged slices: %w", err)
	}

	rows, err := db.Query("SELECT COALESCE(reason, ''), COUNT(*) FROM slices WHERE run_id = ? GROUP BY reason", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to group reasons: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var reason string
		var count int
		if err := rows.Scan(&reason, &count); err != nil {
			return nil, fmt.Errorf("failed to scan reason row: %w", err)
		}
		stats.ByReason[reason] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &stats, nil
}
