package dicomcheck

import "errors"

var (
	// ErrDecode is returned when the file cannot be opened or parsed as DICOM
	ErrDecode = errors.New("dicom decode failed")

	// ErrPixelData is returned when the container parses but its pixel data cannot be materialized
	ErrPixelData = errors.New("pixel data extraction failed")

	// ErrUnexpectedShape is returned when the decoded slice is not the expected size
	ErrUnexpectedShape = errors.New("unexpected slice shape")

	// ErrNoLoader is returned when no loader is registered for a file
	ErrNoLoader = errors.New("no suitable loader")
)
