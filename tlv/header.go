// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlv

import (
	"errors"
	"io"
	"math"
	"math/bits"

	"golang.org/x/crypto/cryptobyte"

	"codello.dev/asn1map"
	"codello.dev/asn1map/internal/vlq"
)

var (
	errLowTagNumber        = errors.New("high tag number form used for low tag number")
	errTagTooLarge         = errors.New("tag number too large")
	errLengthLarge         = errors.New("length too large")
	errIndefinitePrimitive = errors.New("indefinite length for primitive encoding")
)

// stringReader adapts a [cryptobyte.String] to the [io.ByteReader] interface.
type stringReader struct {
	s *cryptobyte.String
}

func (r stringReader) ReadByte() (byte, error) {
	var b uint8
	if !r.s.ReadUint8(&b) {
		return 0, io.EOF
	}
	return b, nil
}

// input returns the portion of buf starting at offset. If offset is out of
// range, the result is empty.
func input(buf []byte, offset int) cryptobyte.String {
	if offset < 0 || offset > len(buf) {
		return nil
	}
	return cryptobyte.String(buf[offset:])
}

// DecodeTag decodes the identifier octets starting at buf[offset]. The
// returned [Header] only has its Tag and Constructed fields set. The second
// return value is the number of identifier octets.
//
// Tag numbers of 31 and above are decoded from the high tag number form. The
// high tag number form must be minimally encoded and must not be used for tag
// numbers below 31.
func DecodeTag(buf []byte, offset int) (h Header, n int, err error) {
	s := input(buf, offset)
	total := len(s)
	var b uint8
	if !s.ReadUint8(&b) {
		return Header{}, 0, ErrTruncated
	}
	h = Header{
		Tag:         asn1map.Tag{Class: asn1map.Class(b >> 6), Number: uint(b & 0x1f)},
		Constructed: b&0x20 == 0x20,
	}

	// If the bottom five bits are set, then the tag number is actually VLQ-encoded
	if b&0x1f == 0x1f {
		num, err := vlq.ReadMinimal[uint](stringReader{&s})
		switch {
		case err == io.EOF || err == io.ErrUnexpectedEOF:
			return h, 0, ErrTruncated
		case errors.Is(err, vlq.ErrOverflow):
			return h, 0, malformed(errTagTooLarge)
		case err != nil:
			return h, 0, malformed(err)
		case num < 0x1f:
			return h, 0, malformed(errLowTagNumber)
		}
		h.Tag.Number = num
	}
	return h, total - len(s), nil
}

// DecodeLength decodes the length octets starting at buf[offset]. The second
// return value is the number of length octets. The initial octet 0x80 decodes
// to [LengthIndefinite]. The reserved initial octet 0xFF results in
// [ErrReservedLength].
func DecodeLength(buf []byte, offset int) (length int, n int, err error) {
	s := input(buf, offset)
	var b uint8
	if !s.ReadUint8(&b) {
		return 0, 0, ErrTruncated
	}
	switch {
	case b&0x80 == 0:
		// The length is encoded in the bottom 7 bits.
		return int(b), 1, nil
	case b == 0x80:
		return LengthIndefinite, 1, nil
	case b == 0xff:
		return 0, 0, ErrReservedLength
	}

	// Bottom 7 bits give the number of length bytes to follow.
	var octets []byte
	if !s.ReadBytes(&octets, int(b&0x7f)) {
		return 0, 0, ErrTruncated
	}
	for _, o := range octets {
		if length > math.MaxInt>>8 {
			// We can't shift length up without overflowing.
			return 0, 0, malformed(errLengthLarge)
		}
		length = length<<8 | int(o)
	}
	return length, 1 + len(octets), nil
}

// DecodeHeader decodes a complete TLV header starting at buf[offset] and
// returns it together with its size in bytes.
func DecodeHeader(buf []byte, offset int) (h Header, n int, err error) {
	h, n, err = DecodeTag(buf, offset)
	if err != nil {
		return h, 0, err
	}
	length, m, err := DecodeLength(buf, offset+n)
	if err != nil {
		return h, 0, err
	}
	h.Length = length
	if length == LengthIndefinite && !h.Constructed {
		return h, 0, malformed(errIndefinitePrimitive)
	}
	return h, n + m, nil
}

// AppendTag appends the identifier octets for tag to dst and returns the
// extended buffer.
func AppendTag(dst []byte, tag asn1map.Tag, constructed bool) []byte {
	b := byte(tag.Class) << 6
	if constructed {
		b |= 0x20
	}
	if tag.Number < 0x1f {
		return append(dst, b|byte(tag.Number))
	}
	return vlq.Append(append(dst, b|0x1f), tag.Number)
}

// AppendLength appends the minimal length octets for length to dst and returns
// the extended buffer. A length of [LengthIndefinite] produces the single
// octet 0x80.
func AppendLength(dst []byte, length int) []byte {
	switch {
	case length == LengthIndefinite:
		return append(dst, 0x80)
	case length < 0x80:
		return append(dst, byte(length))
	}
	n := lengthOctets(length)
	dst = append(dst, 0x80|byte(n))
	for ; n > 0; n-- {
		dst = append(dst, byte(length>>((n-1)*8)))
	}
	return dst
}

// AppendHeader appends the encoding of h to dst and returns the extended
// buffer.
func AppendHeader(dst []byte, h Header) []byte {
	return AppendLength(AppendTag(dst, h.Tag, h.Constructed), h.Length)
}

// EncodedLen returns the number of bytes [AppendHeader] produces for h.
func (h Header) EncodedLen() int {
	n := 1
	if h.Tag.Number >= 0x1f {
		n += vlq.Length(h.Tag.Number)
	}
	n++
	if h.Length >= 0x80 {
		n += lengthOctets(h.Length)
	}
	return n
}

// lengthOctets returns the number of octets of the long form of length.
func lengthOctets(length int) int {
	return (bits.Len(uint(length)) + 7) / 8
}
