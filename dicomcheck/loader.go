// Package dicomcheck classifies whether a CT slice on disk can be decoded into
// a pixel array of the expected shape.
package dicomcheck

import (
	"fmt"
	"path/filepath"
	"runtime/debug"
	"strings"

	"ichprep/logging"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Slice is the decoded shape of a single slice
type Slice struct {
	Rows   int
	Cols   int
	Frames int
}

// SliceLoader loads a slice and reports its decoded shape
type SliceLoader interface {
	// CanLoad checks if the loader can handle the given file
	CanLoad(path string) bool

	// LoadSlice decodes the container and its pixel data
	LoadSlice(path string) (*Slice, error)
}

// DicomLoader decodes DICOM files with github.com/suyashkumar/dicom
type DicomLoader struct{}

// NewDicomLoader creates a DICOM slice loader
func NewDicomLoader() *DicomLoader {
	return &DicomLoader{}
}

// CanLoad accepts .dcm/.dicom files and extensionless files
func (l *DicomLoader) CanLoad(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dcm", ".dicom", "":
		return true
	default:
		return false
	}
}

// LoadSlice parses the file and materializes the first frame of its pixel data.
// Container failures wrap ErrDecode, pixel failures wrap ErrPixelData.
func (l *DicomLoader) LoadSlice(path string) (slice *Slice, err error) {
	stage := ErrDecode

	// The parser and frame decoders panic on some malformed buffers.
	defer func() {
		if r := recover(); r != nil {
			logging.DebugLog("Panic while decoding %s: %v\n%s", path, r, string(debug.Stack()))
			slice = nil
			err = fmt.Errorf("%w: %s: panic: %v", stage, path, r)
		}
	}()

	// PixelData lengths that disagree with Rows/Columns surface as ParseErr below
	ds, err := dicom.ParseFile(path, nil, dicom.AllowMismatchPixelDataLength())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	stage = ErrPixelData

	pixelElem, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPixelData, path, err)
	}

	info := dicom.MustGetPixelDataInfo(pixelElem.Value)
	if info.ParseErr != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPixelData, path, info.ParseErr)
	}
	if len(info.Frames) == 0 {
		return nil, fmt.Errorf("%w: %s: no frames", ErrPixelData, path)
	}

	img, err := info.Frames[0].GetImage()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPixelData, path, err)
	}

	bounds := img.Bounds()
	return &Slice{
		Rows:   bounds.Dy(),
		Cols:   bounds.Dx(),
		Frames: len(info.Frames),
	}, nil
}
