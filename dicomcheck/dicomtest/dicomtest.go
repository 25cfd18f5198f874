// Package dicomtest writes minimal explicit VR little endian DICOM files for tests.
package dicomtest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

const (
	transferSyntaxExplicitLE = "1.2.840.10008.1.2.1"
	ctImageStorage           = "1.2.840.10008.5.1.4.1.1.2"
)

// Encode returns a single-frame 16-bit MONOCHROME2 slice of rows×cols
func Encode(rows, cols int) []byte {
	return encode(rows, cols, rows*cols)
}

// EncodeMismatched returns a complete rows×cols slice whose PixelData element
// holds only half the pixels its Rows and Columns call for
func EncodeMismatched(rows, cols int) []byte {
	return encode(rows, cols, rows*cols/2)
}

func encode(rows, cols, pixelCount int) []byte {
	var meta bytes.Buffer
	writeElement(&meta, 0x0002, 0x0001, "OB", []byte{0x00, 0x01})
	writeElement(&meta, 0x0002, 0x0002, "UI", uid(ctImageStorage))
	writeElement(&meta, 0x0002, 0x0003, "UI", uid("1.2.826.0.1.3680043.8.498.1"))
	writeElement(&meta, 0x0002, 0x0010, "UI", uid(transferSyntaxExplicitLE))

	var out bytes.Buffer
	out.Write(make([]byte, 128))
	out.WriteString("DICM")
	writeElement(&out, 0x0002, 0x0000, "UL", u32(uint32(meta.Len())))
	out.Write(meta.Bytes())

	writeElement(&out, 0x0028, 0x0002, "US", u16(1))
	writeElement(&out, 0x0028, 0x0004, "CS", []byte("MONOCHROME2 "))
	writeElement(&out, 0x0028, 0x0010, "US", u16(uint16(rows)))
	writeElement(&out, 0x0028, 0x0011, "US", u16(uint16(cols)))
	writeElement(&out, 0x0028, 0x0100, "US", u16(16))
	writeElement(&out, 0x0028, 0x0101, "US", u16(16))
	writeElement(&out, 0x0028, 0x0102, "US", u16(15))
	writeElement(&out, 0x0028, 0x0103, "US", u16(0))

	pixels := make([]byte, pixelCount*2)
	for i := 0; i < pixelCount; i++ {
		binary.LittleEndian.PutUint16(pixels[i*2:], uint16(i%4096))
	}
	writeElement(&out, 0x7FE0, 0x0010, "OW", pixels)

	return out.Bytes()
}

// WriteSlice writes a well-formed rows×cols slice to path
func WriteSlice(path string, rows, cols int) error {
	return os.WriteFile(path, Encode(rows, cols), 0o644)
}

// WriteTruncated writes a rows×cols slice whose pixel data stops halfway
func WriteTruncated(path string, rows, cols int) error {
	data := Encode(rows, cols)
	cut := len(data) - rows*cols
	if cut <= 0 {
		return fmt.Errorf("slice %dx%d too small to truncate", rows, cols)
	}
	return os.WriteFile(path, data[:cut], 0o644)
}

// WriteMismatched writes a rows×cols slice with a short PixelData element
func WriteMismatched(path string, rows, cols int) error {
	return os.WriteFile(path, EncodeMismatched(rows, cols), 0o644)
}

// WriteGarbage writes bytes that are not a DICOM container
func WriteGarbage(path string) error {
	return os.WriteFile(path, []byte("this is not a dicom file\n"), 0o644)
}

func writeElement(buf *bytes.Buffer, group, element uint16, vr string, value []byte) {
	if len(value)%2 != 0 {
		value = append(value, 0x00)
	}
	binary.Write(buf, binary.LittleEndian, group)
	binary.Write(buf, binary.LittleEndian, element)
	buf.WriteString(vr)
	switch vr {
	case "OB", "OW", "OF", "SQ", "UT", "UN":
		buf.Write([]byte{0x00, 0x00})
		binary.Write(buf, binary.LittleEndian, uint32(len(value)))
	default:
		binary.Write(buf, binary.LittleEndian, uint16(len(value)))
	}
	buf.Write(value)
}

func uid(s string) []byte {
	b := []byte(s)
	if len(b)%2 != 0 {
		b = append(b, 0x00)
	}
	return b
}

func u16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}
