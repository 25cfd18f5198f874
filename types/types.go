package types

// Reasons recorded for a checked slice
const (
	ReasonOK        = "ok"
	ReasonDecode    = "decode"
	ReasonPixelData = "pixel_data"
	ReasonShape     = "shape"
)

// SliceInfo holds the outcome of checking one manifest row
type SliceInfo struct {
	Row        int    `json:"row"`
	Path       string `json:"path"`
	Mode       string `json:"mode"`
	Usable     bool   `json:"usable"`
	Reason     string `json:"reason"`
	Rows       int    `json:"rows"`
	Cols       int    `json:"cols"`
	Size       int64  `json:"size"`
	ModifiedAt string `json:"modified_at"`
}

// ScanSummary holds the totals of one manifest scan
type ScanSummary struct {
	RunID    string
	Mode     string
	Output   string
	Total    int
	Bad      int
	ByReason map[string]int
}
