package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	stdmath "math"

	"golang.org/x/exp/constraints"

	"github.com/romain-durban/bsploader/pkg/math"
)

// wireScalar lists the fixed-width numeric types that can appear in a lump.
type wireScalar interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | constraints.Float
}

// binReader is a little-endian cursor over a byte slice.
//
// The first read that runs past the end of the data records a truncation
// error; every read after that returns a zero value, so record decoders can
// read all their fields and check err once.
type binReader struct {
	data []byte
	pos  int
	err  error
}

func newBinReader(data []byte) *binReader {
	return &binReader{data: data}
}

// remaining returns the number of unread bytes.
func (r *binReader) remaining() int {
	return len(r.data) - r.pos
}

// next returns the next n bytes and advances the cursor.
func (r *binReader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n > r.remaining() {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrTruncatedBSPData, n, r.pos, r.remaining())
		r.pos = len(r.data)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *binReader) byte() uint8 {
	b := r.next(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *binReader) uint16() uint16 {
	b := r.next(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *binReader) int16() int16 {
	return int16(r.uint16())
}

func (r *binReader) uint32() uint32 {
	b := r.next(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *binReader) int32() int32 {
	return int32(r.uint32())
}

func (r *binReader) float32() float32 {
	return stdmath.Float32frombits(r.uint32())
}

// bytes copies the next n bytes so the result does not alias the source.
func (r *binReader) bytes(n int) []byte {
	b := r.next(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

func (r *binReader) fourCC() [4]byte {
	var cc [4]byte
	copy(cc[:], r.next(4))
	return cc
}

func (r *binReader) vec3() math.Vec3 {
	return math.Vec3{X: r.float32(), Y: r.float32(), Z: r.float32()}
}

func (r *binReader) shorts3() [3]int16 {
	return [3]int16{r.int16(), r.int16(), r.int16()}
}

// readScalars decodes n consecutive little-endian values of type T.
func readScalars[T wireScalar](r *binReader, n int) []T {
	out := make([]T, n)
	if n == 0 {
		return out
	}
	size := binary.Size(out)
	if size < 0 {
		r.err = fmt.Errorf("unsupported scalar type %T", out)
		return nil
	}
	b := r.next(size)
	if b == nil {
		return nil
	}
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, out); err != nil {
		r.err = fmt.Errorf("%w: %v", ErrTruncatedBSPData, err)
		return nil
	}
	return out
}
