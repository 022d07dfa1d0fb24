// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"slices"
	"time"

	"golang.org/x/crypto/cryptobyte"

	"codello.dev/asn1map"
	"codello.dev/asn1map/internal/vlq"
	"codello.dev/asn1map/schema"
	"codello.dev/asn1map/tlv"
)

// decodePrimitive converts the data value n into a value of the primitive
// type s. The tag of n has been checked by the caller. Nested levels of
// constructed strings are accounted for in g.
func decodePrimitive(s *schema.Schema, n *tlv.Node, g *tlv.Guard) (Value, error) {
	if n.Constructed && !flattenable(s.Type) {
		return nil, errConstructed
	}
	switch s.Type {
	case asn1map.TagBoolean:
		return decodeBoolean(n.Content)
	case asn1map.TagInteger, asn1map.TagEnumerated:
		i, err := decodeInteger(n.Content)
		if err != nil {
			return nil, err
		}
		v := Integer{Int: i}
		if i.IsInt64() {
			v.Name, _ = s.NameOf(i.Int64())
		}
		return v, nil
	case asn1map.TagBitString:
		bs, err := decodeBitString(n, g)
		if err != nil {
			return nil, err
		}
		return BitString{bs, bitNames(s, bs)}, nil
	case asn1map.TagNull:
		if len(n.Content) != 0 {
			return nil, errors.New("NULL with non-empty contents")
		}
		return Null{}, nil
	case asn1map.TagOID:
		oid, err := decodeOID(n.Content)
		if err != nil {
			return nil, err
		}
		return OID(oid), nil
	}

	b, err := flatten(n, asn1map.Universal(s.Type), g)
	if err != nil {
		return nil, err
	}
	switch s.Type {
	case asn1map.TagOctetString:
		return OctetString(slices.Clone(b)), nil
	case asn1map.TagUTCTime:
		t, err := decodeUTCTime(string(b))
		return Time{t}, err
	case asn1map.TagGeneralizedTime:
		t, err := decodeGeneralizedTime(string(b))
		return Time{t}, err
	}
	if s.IsString() {
		str, err := decodeString(s.Type, b)
		return String(str), err
	}
	return nil, fmt.Errorf("unsupported type %s", asn1map.TypeName(s.Type))
}

// flattenable reports whether the type with the given tag number may use the
// constructed encoding.
func flattenable(number uint) bool {
	switch number {
	case asn1map.TagBitString, asn1map.TagOctetString, asn1map.TagUTCTime, asn1map.TagGeneralizedTime:
		return true
	}
	return (&schema.Schema{Kind: schema.KindPrimitive, Type: number}).IsString()
}

// encodePrimitive returns the contents octets of v as the primitive type s.
func encodePrimitive(v Value, s *schema.Schema) ([]byte, error) {
	switch v := v.(type) {
	case Boolean:
		if s.Type == asn1map.TagBoolean {
			if v {
				return []byte{0xFF}, nil
			}
			return []byte{0x00}, nil
		}
	case Integer:
		if s.Type == asn1map.TagInteger || s.Type == asn1map.TagEnumerated {
			i, err := integerOf(v, s)
			if err != nil {
				return nil, err
			}
			return appendInteger(nil, i), nil
		}
	case BitString:
		if s.Type == asn1map.TagBitString {
			bs := v.BitString
			if !bs.IsValid() {
				return nil, errInvalidValue
			}
			if s.Names != nil {
				bs = bs.TrimRight()
			}
			return appendBitString(nil, bs), nil
		}
	case OctetString:
		if s.Type == asn1map.TagOctetString {
			return v, nil
		}
	case Null:
		if s.Type == asn1map.TagNull {
			return []byte{}, nil
		}
	case OID:
		if s.Type == asn1map.TagOID {
			return appendOID(nil, asn1map.ObjectIdentifier(v))
		}
	case Time:
		switch s.Type {
		case asn1map.TagUTCTime:
			t := asn1map.UTCTime(v.UTC())
			if !t.IsValid() {
				return nil, errors.New("cannot represent time as UTCTime")
			}
			return []byte(t.String()), nil
		case asn1map.TagGeneralizedTime:
			t := asn1map.GeneralizedTime(v.UTC())
			if !t.IsValid() {
				return nil, errors.New("cannot represent time as GeneralizedTime")
			}
			return []byte(t.String()), nil
		}
	case String:
		if s.IsString() {
			return encodeString(s.Type, string(v))
		}
	}
	return nil, fmt.Errorf("%w: cannot encode %T as %s", ErrSchemaMismatch, v, asn1map.TypeName(s.Type))
}

//region [UNIVERSAL 1] BOOLEAN

func decodeBoolean(b []byte) (Boolean, error) {
	if len(b) != 1 {
		return false, errors.New("invalid BOOLEAN length")
	}
	return b[0] != 0x00, nil
}

//endregion

//region [UNIVERSAL 2] INTEGER and [UNIVERSAL 10] ENUMERATED

var bigOne = big.NewInt(1)

// decodeInteger parses the two's complement contents octets of an INTEGER.
// The encoding must be minimal.
func decodeInteger(b []byte) (*big.Int, error) {
	if len(b) == 0 {
		return nil, errors.New("empty integer")
	}
	if len(b) > 1 && ((b[0] == 0x00 && b[1]&0x80 == 0) || (b[0] == 0xFF && b[1]&0x80 == 0x80)) {
		return nil, errors.New("integer not minimally-encoded")
	}
	ret := new(big.Int)
	if b[0]&0x80 == 0 {
		return ret.SetBytes(b), nil
	}
	// Negative numbers are stored in two's complement.
	notBytes := make([]byte, len(b))
	for i := range notBytes {
		notBytes[i] = ^b[i]
	}
	ret.SetBytes(notBytes)
	ret.Add(ret, bigOne)
	return ret.Neg(ret), nil
}

// appendInteger appends the minimal two's complement encoding of i to dst.
func appendInteger(dst []byte, i *big.Int) []byte {
	switch i.Sign() {
	case 0:
		return append(dst, 0x00)
	case 1:
		bs := i.Bytes()
		if bs[0]&0x80 != 0 {
			dst = append(dst, 0x00)
		}
		return append(dst, bs...)
	}
	// -i-1 has the inverted bits of the encoding of i.
	nMinus1 := new(big.Int).Neg(i)
	nMinus1.Sub(nMinus1, bigOne)
	bs := nMinus1.Bytes()
	for j := range bs {
		bs[j] ^= 0xFF
	}
	if len(bs) == 0 || bs[0]&0x80 == 0 {
		dst = append(dst, 0xFF)
	}
	return append(dst, bs...)
}

// integerOf returns the numeric value of v. A value without a number is
// resolved by its name.
func integerOf(v Integer, s *schema.Schema) (*big.Int, error) {
	if v.Int != nil {
		return v.Int, nil
	}
	if v.Name == "" {
		return nil, errInvalidValue
	}
	i, ok := s.ValueOf(v.Name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown name %q", errInvalidValue, v.Name)
	}
	return big.NewInt(i), nil
}

//endregion

//region [UNIVERSAL 3] BIT STRING

// decodeBitString concatenates the segments of a BIT STRING encoding. Only the
// last segment may use padding bits. Padding bits are set to zero.
func decodeBitString(n *tlv.Node, g *tlv.Guard) (asn1map.BitString, error) {
	var buf []byte
	padding := byte(0)
	for seg, err := range segments(n, asn1map.Universal(asn1map.TagBitString), g) {
		if err != nil {
			return asn1map.BitString{}, err
		}
		if padding != 0 {
			return asn1map.BitString{}, errors.New("non-zero padding in constructed BIT STRING")
		}
		if len(seg.Content) == 0 {
			return asn1map.BitString{}, errors.New("zero length BIT STRING")
		}
		padding = seg.Content[0]
		if padding > 7 || len(seg.Content) == 1 && padding > 0 {
			return asn1map.BitString{}, errors.New("invalid padding bits in BIT STRING")
		}
		buf = append(buf, seg.Content[1:]...)
	}
	if len(buf) > 0 {
		buf[len(buf)-1] &= ^byte(1<<padding - 1)
	}
	return asn1map.BitString{Bytes: buf, BitLength: len(buf)*8 - int(padding)}, nil
}

// appendBitString appends the primitive contents octets of bs to dst. Padding
// bits are written as zero.
func appendBitString(dst []byte, bs asn1map.BitString) []byte {
	n := (bs.BitLength + 7) / 8
	padding := byte((8 - bs.BitLength%8) % 8)
	dst = append(dst, padding)
	if n == 0 {
		return dst
	}
	dst = append(dst, bs.Bytes[:n-1]...)
	return append(dst, bs.Bytes[n-1]&^byte(1<<padding-1))
}

// bitNames returns the names of the bits set in bs.
func bitNames(s *schema.Schema, bs asn1map.BitString) []string {
	if s.Names == nil {
		return nil
	}
	var names []string
	for i := 0; i < bs.BitLength; i++ {
		if bs.At(i) == 0 {
			continue
		}
		if name, ok := s.NameOf(int64(i)); ok {
			names = append(names, name)
		}
	}
	return names
}

//endregion

//region [UNIVERSAL 6] OBJECT IDENTIFIER

// decodeOID parses the contents octets of an OBJECT IDENTIFIER. The first
// subidentifier is 40*value1 + value2 where value1 is 0, 1 or 2. When value1
// is 0 or 1, value2 is at most 39.
func decodeOID(b []byte) (asn1map.ObjectIdentifier, error) {
	if len(b) == 0 {
		return nil, errors.New("zero length OBJECT IDENTIFIER")
	}
	in := cryptobyte.String(b)
	r := byteReader{&in}
	v, err := vlq.ReadMinimal[uint](r)
	if err != nil {
		return nil, err
	}
	// In the worst case every subidentifier is a single byte long.
	oid := make(asn1map.ObjectIdentifier, 2, len(b)+1)
	if v < 80 {
		oid[0], oid[1] = v/40, v%40
	} else {
		oid[0], oid[1] = 2, v-80
	}
	for !in.Empty() {
		if v, err = vlq.ReadMinimal[uint](r); err != nil {
			return nil, err
		}
		oid = append(oid, v)
	}
	return oid, nil
}

// appendOID appends the contents octets of oid to dst.
func appendOID(dst []byte, oid asn1map.ObjectIdentifier) ([]byte, error) {
	if !oid.IsValid() {
		return nil, fmt.Errorf("%w: invalid OBJECT IDENTIFIER %s", errInvalidValue, oid)
	}
	dst = vlq.Append(dst, oid[0]*40+oid[1])
	for _, arc := range oid[2:] {
		dst = vlq.Append(dst, arc)
	}
	return dst, nil
}

// byteReader reads single bytes from a cryptobyte.String.
type byteReader struct {
	s *cryptobyte.String
}

func (r byteReader) ReadByte() (byte, error) {
	var b uint8
	if !r.s.ReadUint8(&b) {
		return 0, io.EOF
	}
	return b, nil
}

//endregion

//region [UNIVERSAL 23] UTCTime

var errUTCTime = errors.New("invalid UTCTime")

// decodeUTCTime parses a UTCTime. Seconds are optional and the zone may be
// given as Z or as an offset. Two-digit years up to 49 refer to 20xx.
func decodeUTCTime(s string) (time.Time, error) {
	if len(s) < 11 || len(s) > 17 {
		return time.Time{}, errUTCTime
	}
	year := atoiN[int](s, 2)
	month := atoiN[time.Month](s[2:], 2)
	day := atoiN[int](s[4:], 2)
	hour := atoiN[int](s[6:], 2)
	minute := atoiN[int](s[8:], 2)
	s = s[10:]
	second := atoiN[int](s, 2)
	if second >= 0 {
		s = s[2:]
	} else {
		second = 0
	}
	loc := parseLocation(s)
	if loc == nil || year < 0 {
		return time.Time{}, errUTCTime
	}
	if year <= 49 {
		year += 2000
	} else {
		year += 1900
	}
	ret := time.Date(year, month, day, hour, minute, second, 0, loc)
	if ret.Year() != year || ret.Month() != month || ret.Day() != day || ret.Hour() != hour || ret.Minute() != minute || ret.Second() != second {
		return time.Time{}, errUTCTime
	}
	return ret, nil
}

// parseLocation parses a zone designator Z or ±hhmm.
func parseLocation(s string) *time.Location {
	if s == "Z" {
		return time.UTC
	}
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') {
		return nil
	}
	mul := 44 - int(s[0]) // '+' is 43, '-' is 45
	locHour := atoiN[int](s[1:], 2)
	locMinute := atoiN[int](s[3:], 2)
	if locHour < 0 || locMinute < 0 {
		return nil
	}
	return time.FixedZone("", mul*(locHour*3600+locMinute*60))
}

// atoiN parses exactly n decimal digits at the start of s. It returns -1 if s
// does not start with n digits.
func atoiN[T ~int | ~int64](s string, n int) (i T) {
	if len(s) < n {
		return -1
	}
	for j := 0; j < n; j++ {
		if s[j] < '0' || '9' < s[j] {
			return -1
		}
		i = i*10 + T(s[j]-'0')
	}
	return i
}

//endregion

//region [UNIVERSAL 24] GeneralizedTime

var errGeneralizedTime = errors.New("invalid GeneralizedTime")

// decodeGeneralizedTime parses a GeneralizedTime. Minutes, seconds and a
// fraction of the last unit are optional. A time without a zone designator is
// interpreted as UTC.
func decodeGeneralizedTime(s string) (time.Time, error) {
	if len(s) < 10 {
		return time.Time{}, errGeneralizedTime
	}
	year := atoiN[int](s, 4)
	month := atoiN[time.Month](s[4:], 2)
	day := atoiN[int](s[6:], 2)
	hour := atoiN[time.Duration](s[8:], 2)
	if year < 0 || hour < 0 || 23 < hour {
		return time.Time{}, errGeneralizedTime
	}
	s = s[10:]
	dur := hour * time.Hour
	unit := time.Hour // unit of the fraction
	for _, next := range []time.Duration{time.Minute, time.Second} {
		if len(s) < 2 || s[0] < '0' || '9' < s[0] {
			break
		}
		v := atoiN[time.Duration](s, 2)
		if v < 0 || 59 < v {
			return time.Time{}, errGeneralizedTime
		}
		dur += v * next
		unit = next
		s = s[2:]
	}
	if len(s) > 0 && (s[0] == '.' || s[0] == ',') {
		i := 1
		for ; i < len(s) && '0' <= s[i] && s[i] <= '9'; i++ {
			unit /= 10
			dur += time.Duration(s[i]-'0') * unit
		}
		if i == 1 {
			return time.Time{}, errGeneralizedTime
		}
		s = s[i:]
	}
	loc := time.UTC
	if len(s) > 0 {
		if loc = parseLocation(s); loc == nil {
			return time.Time{}, errGeneralizedTime
		}
	}
	ret := time.Date(year, month, day, 0, 0, 0, 0, loc).Add(dur)
	if ret.Year() != year || ret.Month() != month || ret.Day() != day {
		return time.Time{}, errGeneralizedTime
	}
	return ret, nil
}

//endregion
