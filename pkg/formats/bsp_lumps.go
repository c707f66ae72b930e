package formats

import (
	"errors"
	"fmt"
	"io"
)

// ReadBSPLump reads the raw payload of a lump.
func ReadBSPLump(src io.ReadSeeker, header *BSPHeader, kind BSPLumpKind) ([]byte, error) {
	if kind < 0 || kind >= BSPLumpCount {
		return nil, fmt.Errorf("%w: lump kind %d", ErrInvalidBSPLump, int(kind))
	}
	return readBSPLumpData(src, header.Lumps[kind], kind)
}

// readBSPLumpData seeks to the lump and reads exactly lump.Length bytes.
// The lump must lie inside src before anything is allocated for it.
func readBSPLumpData(src io.ReadSeeker, lump BSPLump, kind BSPLumpKind) ([]byte, error) {
	if lump.Offset < 0 || lump.Length < 0 {
		return nil, fmt.Errorf("%w: %s lump has offset %d, length %d",
			ErrInvalidBSPLump, kind, lump.Offset, lump.Length)
	}
	if lump.Length == 0 {
		return []byte{}, nil
	}

	size, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("sizing source for %s lump: %w", kind, err)
	}
	if lump.End() > size {
		return nil, fmt.Errorf("%w: %s lump spans bytes %d to %d of %d",
			ErrTruncatedBSPData, kind, lump.Offset, lump.End(), size)
	}

	data := make([]byte, lump.Length)

	if _, err := src.Seek(int64(lump.Offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking to %s lump: %w", kind, err)
	}
	if _, err := io.ReadFull(src, data); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %s lump spans bytes %d to %d",
				ErrTruncatedBSPData, kind, lump.Offset, lump.End())
		}
		return nil, fmt.Errorf("reading %s lump: %w", kind, err)
	}

	return data, nil
}

// bspRecordCount returns Length/size, or ErrMisalignedBSPLump on a remainder.
func bspRecordCount(lump BSPLump, kind BSPLumpKind, size int) (int, error) {
	if lump.Length < 0 {
		return 0, fmt.Errorf("%w: %s lump has length %d", ErrInvalidBSPLump, kind, lump.Length)
	}
	if int(lump.Length)%size != 0 {
		return 0, fmt.Errorf("%w: %s lump is %d bytes, record size %d",
			ErrMisalignedBSPLump, kind, lump.Length, size)
	}
	return int(lump.Length) / size, nil
}

// loadBSPLump decodes every fixed-size record of a lump.
func loadBSPLump[T any](src io.ReadSeeker, header *BSPHeader, kind BSPLumpKind, size int, decode func(*binReader) T) ([]T, error) {
	lump := header.Lumps[kind]
	count, err := bspRecordCount(lump, kind, size)
	if err != nil {
		return nil, err
	}

	data, err := readBSPLumpData(src, lump, kind)
	if err != nil {
		return nil, err
	}

	r := newBinReader(data)
	records := make([]T, count)
	for i := range records {
		records[i] = decode(r)
	}
	if r.err != nil {
		return nil, fmt.Errorf("decoding %s lump: %w", kind, r.err)
	}

	return records, nil
}

// loadBSPScalars decodes a lump that is a flat array of one scalar type.
func loadBSPScalars[T wireScalar](src io.ReadSeeker, header *BSPHeader, kind BSPLumpKind, size int) ([]T, error) {
	lump := header.Lumps[kind]
	count, err := bspRecordCount(lump, kind, size)
	if err != nil {
		return nil, err
	}

	data, err := readBSPLumpData(src, lump, kind)
	if err != nil {
		return nil, err
	}

	r := newBinReader(data)
	values := readScalars[T](r, count)
	if r.err != nil {
		return nil, fmt.Errorf("decoding %s lump: %w", kind, r.err)
	}

	return values, nil
}
