package dicomcheck

import (
	"errors"
	"fmt"
	"os"
	"time"

	"ichprep/logging"
	"ichprep/types"
)

// Default slice geometry of the hemorrhage dataset
const (
	DefaultRows = 512
	DefaultCols = 512
)

// Checker decides whether a slice is usable for training
type Checker struct {
	Registry     *LoaderRegistry
	ExpectedRows int
	ExpectedCols int
}

// NewChecker creates a checker expecting rows×cols slices
func NewChecker(rows, cols int) *Checker {
	if rows <= 0 {
		rows = DefaultRows
	}
	if cols <= 0 {
		cols = DefaultCols
	}
	return &Checker{
		Registry:     NewLoaderRegistry(),
		ExpectedRows: rows,
		ExpectedCols: cols,
	}
}

// Verify loads the slice at path and returns the decoded shape. The error
// wraps ErrDecode, ErrPixelData or ErrUnexpectedShape.
func (c *Checker) Verify(path string) (*Slice, error) {
	slice, err := c.Registry.LoadSlice(path)
	if err != nil {
		return nil, err
	}
	if slice.Frames != 1 || slice.Rows != c.ExpectedRows || slice.Cols != c.ExpectedCols {
		return slice, fmt.Errorf("%w: %s is %dx%d with %d frame(s), want %dx%d",
			ErrUnexpectedShape, path, slice.Rows, slice.Cols, slice.Frames, c.ExpectedRows, c.ExpectedCols)
	}
	return slice, nil
}

// Check classifies the slice at path. Failures are logged and reported through
// Usable and Reason, never returned.
func (c *Checker) Check(path string) types.SliceInfo {
	info := types.SliceInfo{Path: path}

	if fileInfo, err := os.Stat(path); err == nil {
		info.Size = fileInfo.Size()
		info.ModifiedAt = fileInfo.ModTime().Format(time.RFC3339)
	}

	slice, err := c.Verify(path)
	if slice != nil {
		info.Rows = slice.Rows
		info.Cols = slice.Cols
	}

	switch {
	case err == nil:
		info.Usable = true
		info.Reason = types.ReasonOK
	case errors.Is(err, ErrUnexpectedShape):
		info.Reason = types.ReasonShape
		logging.LogWarning("wrong slice geometry: %v", err)
	case errors.Is(err, ErrPixelData):
		info.Reason = types.ReasonPixelData
		logging.LogWarning("corrupt pixel data: %v", err)
	default:
		info.Reason = types.ReasonDecode
		logging.LogWarning("corrupt on open: %v", err)
	}

	logging.LogSliceChecked(path, info.Usable, info.Reason)
	return info
}

// Usable reports whether the slice at path decodes to the expected shape
func (c *Checker) Usable(path string) bool {
	return c.Check(path).Usable
}
