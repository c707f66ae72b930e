// Package encoding provides text encoding utilities for names stored in map files.
package encoding

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Supported name encodings.
const (
	UTF8        = "utf-8"
	Windows1252 = "windows-1252"
	ISO88591    = "iso-8859-1"
)

// Windows1252ToUTF8 converts Windows-1252 encoded bytes to a UTF-8 string.
// Returns the original bytes as a string if conversion fails.
func Windows1252ToUTF8(data []byte) string {
	result, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// ToUTF8 decodes data using the named encoding.
// Names are matched case-insensitively; an empty name means UTF-8.
func ToUTF8(encoding string, data []byte) (string, error) {
	switch strings.ToLower(encoding) {
	case "", UTF8, "utf8":
		return string(data), nil
	case Windows1252, "cp1252":
		return Windows1252ToUTF8(data), nil
	case ISO88591, "latin1":
		result, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), data)
		if err != nil {
			return "", err
		}
		return string(result), nil
	default:
		return "", fmt.Errorf("unsupported name encoding: %q", encoding)
	}
}

// NormalizeMaterialPath normalizes a texture/material path for case-insensitive lookup.
func NormalizeMaterialPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.ToLower(path)
}

// TrimNullBytes removes trailing null bytes from a byte slice.
func TrimNullBytes(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}

// TrimNullString removes trailing null bytes and converts to string.
func TrimNullString(data []byte) string {
	return string(TrimNullBytes(data))
}

// CString returns the bytes of the null-terminated string starting at offset.
// ok is false when offset is out of range or no terminator follows it.
func CString(data []byte, offset int) (s []byte, ok bool) {
	if offset < 0 || offset >= len(data) {
		return nil, false
	}
	end := bytes.IndexByte(data[offset:], 0)
	if end < 0 {
		return nil, false
	}
	return data[offset : offset+end], true
}
