// Package vlq implements [Variable-length quantity] encoding as used in MIDI or
// BER. A VLQ is essentially a base-128 representation of an unsigned integer
// with the addition of the eighth bit to mark continuation of bytes. VLQ is
// identical to [LEB128] except in endianness.
//
// BER uses VLQs for high tag numbers and for the arcs of object identifiers.
// Both must be minimally encoded, so this package only reads minimal VLQs.
//
// [Variable-length quantity]: https://en.wikipedia.org/wiki/Variable-length_quantity
// [LEB128]: https://en.wikipedia.org/wiki/LEB128
package vlq

import (
	"errors"
	"io"
	"math/bits"
	"unsafe"

	"golang.org/x/exp/constraints"
)

var (
	ErrNotMinimal = errors.New("vlq is not minimally encoded")
	ErrOverflow   = errors.New("vlq too large for target type")
)

// ReadMinimal parses a minimally encoded VLQ from r. A leading 0x80 byte is an
// error. The maximum allowed value is limited by the size of T.
//
// ReadMinimal only consumes bytes belonging to the VLQ. If r returns io.EOF on
// the first read, the returned error is io.EOF as well. A VLQ cut short results
// in io.ErrUnexpectedEOF.
func ReadMinimal[T constraints.Unsigned](r io.ByteReader) (v T, err error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if b == 0x80 {
		return 0, ErrNotMinimal
	}
	size := int(unsafe.Sizeof(v) * 8)
	v = T(b & 0x7f)
	n := bits.Len8(b & 0x7f)
	for b&0x80 != 0 {
		if b, err = r.ReadByte(); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return 0, err
		}
		if n += 7; n > size {
			return 0, ErrOverflow
		}
		v = v<<7 | T(b&0x7f)
	}
	return v, nil
}

// Length returns the number of bytes needed to encode n as a VLQ.
func Length[T constraints.Unsigned](n T) int {
	l := 1
	for n >>= 7; n > 0; n >>= 7 {
		l++
	}
	return l
}

// Append appends the minimal VLQ encoding of n to dst and returns the extended
// slice.
func Append[T constraints.Unsigned](dst []byte, n T) []byte {
	for j := Length(n) - 1; j >= 0; j-- {
		b := byte(n>>(j*7)) & 0x7f
		if j > 0 {
			b |= 0x80
		}
		dst = append(dst, b)
	}
	return dst
}
