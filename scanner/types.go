package scanner

import (
	"io"
	"sync"

	"ichprep/config"

	"github.com/schollz/progressbar/v2"
)

// ScanOptions defines the options for flagging one manifest
type ScanOptions struct {
	Run            config.ScanRun
	FilenameColumn string // Empty selects the first column
	ExpectedRows   int
	ExpectedCols   int
	DebugMode      bool
	Progress       io.Writer // Defaults to os.Stderr
}

// FlagColumn is the column appended to every scanned manifest
const FlagColumn = "bad_actors"

// ProgressTracker tracks progress of a manifest scan
type ProgressTracker struct {
	processed  int
	bad        int
	byReason   map[string]int
	totalRows  int
	ledgerErrs int
	bar        *progressbar.ProgressBar
	mu         sync.Mutex
}
