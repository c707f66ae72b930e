// Package mapfile opens map files from disk, transparently decompressing
// gzip and zstd inputs.
package mapfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/spaolacci/murmur3"
)

// ErrInputTooLarge is returned when a compressed map decodes to more than the
// configured limit.
var ErrInputTooLarge = errors.New("decompressed map exceeds size limit")

// Compression identifies how a map file is stored on disk.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
)

// String returns the compression name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Detect reports the compression of a file from its leading bytes.
func Detect(head []byte) Compression {
	switch {
	case bytes.HasPrefix(head, zstdMagic):
		return CompressionZstd
	case bytes.HasPrefix(head, gzipMagic):
		return CompressionGzip
	default:
		return CompressionNone
	}
}

// File is an opened map. Reads and seeks address the decoded bytes.
type File struct {
	io.ReadSeeker

	file        *os.File
	path        string
	size        int64
	compression Compression
}

// Open opens path for reading. Compressed files are decoded into memory; a
// maxBytes of zero or less disables the size limit. Callers must Close the
// returned File.
func Open(path string, maxBytes int64) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	f, err := open(file, path, maxBytes)
	if err != nil {
		file.Close()
		return nil, err
	}
	return f, nil
}

func open(file *os.File, path string, maxBytes int64) (*File, error) {
	head := make([]byte, len(zstdMagic))
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("reading file signature: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding file: %w", err)
	}

	f := &File{file: file, path: path, compression: Detect(head[:n])}
	switch f.compression {
	case CompressionGzip:
		zr, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer zr.Close()
		if err := f.decode(zr, maxBytes); err != nil {
			return nil, err
		}
	case CompressionZstd:
		zr, err := zstd.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		defer zr.Close()
		if err := f.decode(zr, maxBytes); err != nil {
			return nil, err
		}
	default:
		info, err := file.Stat()
		if err != nil {
			return nil, fmt.Errorf("stat: %w", err)
		}
		f.ReadSeeker = file
		f.size = info.Size()
	}

	return f, nil
}

// decode reads the whole decompressed stream into memory.
func (f *File) decode(r io.Reader, maxBytes int64) error {
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("decompressing %s map: %w", f.compression, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return fmt.Errorf("%w: %s is over %d bytes", ErrInputTooLarge, f.path, maxBytes)
	}
	f.ReadSeeker = bytes.NewReader(data)
	f.size = int64(len(data))
	return nil
}

// Close closes the underlying file.
func (f *File) Close() error {
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}

// Path returns the path the file was opened from.
func (f *File) Path() string {
	return f.path
}

// Size returns the decoded size in bytes.
func (f *File) Size() int64 {
	return f.size
}

// Compression returns the on-disk compression.
func (f *File) Compression() Compression {
	return f.compression
}

// Checksum returns the murmur3-128 hash of the decoded bytes as 32 hex
// digits. The read position is reset to the start afterwards.
func (f *File) Checksum() (string, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewinding: %w", err)
	}
	h := murmur3.New128()
	if _, err := io.Copy(h, f.ReadSeeker); err != nil {
		return "", fmt.Errorf("hashing: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewinding: %w", err)
	}
	h1, h2 := h.Sum128()
	return fmt.Sprintf("%016x%016x", h1, h2), nil
}
