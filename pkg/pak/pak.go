// Package pak provides read access to the zip archive embedded in a map's
// pakfile lump.
package pak

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/compress/zip"

	"github.com/romain-durban/bsploader/pkg/encoding"
)

// DefaultMaxFileSize bounds the bytes Read returns for a single entry.
const DefaultMaxFileSize = 256 << 20

var (
	// ErrPakFileNotFound is returned when a path is not present in the archive.
	ErrPakFileNotFound = errors.New("file not found in pakfile")

	// ErrPakFileTooLarge is returned when an entry exceeds the archive's size limit.
	ErrPakFileTooLarge = errors.New("pakfile entry too large")
)

// Archive represents an opened pakfile.
type Archive struct {
	fileList    map[string]*zip.File
	maxFileSize int64
}

// Option configures an Archive.
type Option func(*Archive)

// WithMaxFileSize sets the largest entry Read accepts.
func WithMaxFileSize(n int64) Option {
	return func(a *Archive) {
		a.maxFileSize = n
	}
}

func newArchive(n int, opts []Option) *Archive {
	a := &Archive{
		fileList:    make(map[string]*zip.File, n),
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Entry describes one file in the archive.
type Entry struct {
	Name             string
	CompressedSize   uint64
	UncompressedSize uint64
	Method           uint16 // 0 = stored, 8 = deflate
}

// Open opens a pakfile held in memory. An empty lump yields an empty archive.
func Open(data []byte, opts ...Option) (*Archive, error) {
	if len(data) == 0 {
		return newArchive(0, opts), nil
	}
	return OpenReader(bytes.NewReader(data), int64(len(data)), opts...)
}

// OpenReader opens a pakfile of the given size from r.
func OpenReader(r io.ReaderAt, size int64, opts ...Option) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("reading pakfile directory: %w", err)
	}

	archive := newArchive(len(zr.File), opts)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		archive.fileList[encoding.NormalizeMaterialPath(f.Name)] = f
	}

	return archive, nil
}

// Len returns the number of files in the archive.
func (a *Archive) Len() int {
	return len(a.fileList)
}

// List returns all file paths in the archive, sorted.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.fileList))
	for path := range a.fileList {
		result = append(result, path)
	}
	sort.Strings(result)
	return result
}

// Contains checks if a file exists.
func (a *Archive) Contains(path string) bool {
	_, ok := a.fileList[encoding.NormalizeMaterialPath(path)]
	return ok
}

// Stat returns the directory entry for path.
func (a *Archive) Stat(path string) (Entry, error) {
	f, ok := a.fileList[encoding.NormalizeMaterialPath(path)]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrPakFileNotFound, path)
	}
	return Entry{
		Name:             encoding.NormalizeMaterialPath(f.Name),
		CompressedSize:   f.CompressedSize64,
		UncompressedSize: f.UncompressedSize64,
		Method:           f.Method,
	}, nil
}

// Read reads a file from the archive. Entries larger than the archive's
// size limit fail with ErrPakFileTooLarge, whatever their header declares.
func (a *Archive) Read(path string) ([]byte, error) {
	f, ok := a.fileList[encoding.NormalizeMaterialPath(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPakFileNotFound, path)
	}

	if f.UncompressedSize64 > uint64(a.maxFileSize) {
		return nil, fmt.Errorf("%w: %s declares %d bytes, limit %d",
			ErrPakFileTooLarge, path, f.UncompressedSize64, a.maxFileSize)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer rc.Close()

	result, err := io.ReadAll(io.LimitReader(rc, a.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if int64(len(result)) > a.maxFileSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrPakFileTooLarge, path, a.maxFileSize)
	}
	return result, nil
}
