// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asn1map

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
	"unsafe"
)

//region [UNIVERSAL 3] BIT STRING

// BitString implements the ASN.1 BIT STRING type. A bit string is padded up to
// the nearest byte in memory and the number of valid bits is recorded. Padding
// bits will be encoded and decoded as zero bits.
//
// See also section 22 of Rec. ITU-T X.680.
type BitString struct {
	Bytes     []byte // bits packed into bytes.
	BitLength int    // length in bits.
}

// IsValid reports whether there are enough bytes in s for the indicated
// BitLength.
func (s BitString) IsValid() bool {
	return s.BitLength >= 0 && len(s.Bytes) >= (s.BitLength+8-1)/8
}

// Len returns the number of bits in s.
func (s BitString) Len() int {
	return s.BitLength
}

// At returns the bit at the given index. If the index is out of range At panics.
func (s BitString) At(i int) int {
	if i < 0 || i >= s.BitLength {
		panic("index out of range")
	}
	x := i / 8
	y := 7 - uint(i%8)
	return int(s.Bytes[x]>>y) & 1
}

// SetBit returns a copy of s with bit i set to 1. The bit string grows as
// needed.
func (s BitString) SetBit(i int) BitString {
	n := max(s.BitLength, i+1)
	b := make([]byte, (n+7)/8)
	copy(b, s.Bytes)
	b[i/8] |= 0x80 >> uint(i%8)
	return BitString{b, n}
}

// TrimRight returns s without trailing zero bits. This is the canonical form of
// bit strings with named bits.
func (s BitString) TrimRight() BitString {
	n := s.BitLength
	for n > 0 && s.At(n-1) == 0 {
		n--
	}
	return BitString{s.Bytes[:(n+7)/8], n}
}

// Equal reports whether s and other contain the same bits. Padding bits are
// ignored.
func (s BitString) Equal(other BitString) bool {
	if s.BitLength != other.BitLength {
		return false
	}
	for i := 0; i < s.BitLength; i++ {
		if s.At(i) != other.At(i) {
			return false
		}
	}
	return true
}

// RightAlign returns a slice where the padding bits are at the beginning. The
// slice may share memory with the BitString.
func (s BitString) RightAlign() []byte {
	shift := uint(8 - (s.BitLength % 8))
	if shift == 8 || len(s.Bytes) == 0 {
		return s.Bytes
	}

	a := make([]byte, len(s.Bytes))
	a[0] = s.Bytes[0] >> shift
	for i := 1; i < len(s.Bytes); i++ {
		a[i] = s.Bytes[i-1] << (8 - shift)
		a[i] |= s.Bytes[i] >> shift
	}

	return a
}

// String formats s into a readable binary representation. Bits will be grouped
// into bytes. The last group may have fewer than 8 characters.
func (s BitString) String() string {
	var sb strings.Builder
	sb.Grow(s.BitLength + s.BitLength/8)
	for i := 0; i < s.BitLength; i++ {
		if i > 0 && i%8 == 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte('0' + byte(s.At(i)))
	}
	return sb.String()
}

//endregion

//region [UNIVERSAL 6] OBJECT IDENTIFIER

// An ObjectIdentifier represents an ASN.1 OBJECT IDENTIFIER. The semantics of
// an object identifier are specified in [Rec. ITU-T X.660].
//
// See also section 32 of Rec. ITU-T X.680.
//
// [Rec. ITU-T X.660]: https://www.itu.int/rec/T-REC-X.660
type ObjectIdentifier []uint

var errInvalidOID = errors.New("invalid object identifier")

// ParseObjectIdentifier parses the dot-separated notation of an object
// identifier, e.g. "1.2.840.113549.1.1.1".
func ParseObjectIdentifier(s string) (ObjectIdentifier, error) {
	parts := strings.Split(s, ".")
	oid := make(ObjectIdentifier, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, strconv.IntSize)
		if err != nil {
			return nil, errInvalidOID
		}
		oid[i] = uint(v)
	}
	if !oid.IsValid() {
		return nil, errInvalidOID
	}
	return oid, nil
}

// IsValid reports whether oid can be encoded. An object identifier has at least
// two arcs, the first arc is 0, 1 or 2, and the second arc is less than 40
// unless the first arc is 2.
func (oid ObjectIdentifier) IsValid() bool {
	if len(oid) < 2 || oid[0] > 2 {
		return false
	}
	return oid[0] == 2 || oid[1] < 40
}

// Equal reports whether oid and other represent the same identifier.
func (oid ObjectIdentifier) Equal(other ObjectIdentifier) bool {
	return slices.Equal(oid, other)
}

// String returns the dot-separated notation of oid.
func (oid ObjectIdentifier) String() string {
	var s strings.Builder
	s.Grow(32)

	buf := make([]byte, 0, 19)
	for i, v := range oid {
		if i > 0 {
			s.WriteByte('.')
		}
		s.Write(strconv.AppendUint(buf, uint64(v), 10))
	}

	return s.String()
}

//endregion

//region Restricted character strings

// ValidString reports whether s is a valid value of the restricted character
// string type with the given universal tag number. Types without alphabet
// constraints on their Go representation accept any valid UTF-8.
func ValidString(number uint, s string) bool {
	switch number {
	case TagNumericString:
		return NumericString(s).IsValid()
	case TagPrintableString:
		return PrintableString(s).IsValid()
	case TagIA5String:
		return IA5String(s).IsValid()
	case TagVisibleString:
		return VisibleString(s).IsValid()
	case TagBMPString:
		return BMPString(s).IsValid()
	case TagTeletexString, TagVideotexString, TagGraphicString, TagGeneralString:
		for _, r := range s {
			if r > 0xFF {
				return false
			}
		}
		return utf8.ValidString(s)
	default:
		return utf8.ValidString(s)
	}
}

// NumericString corresponds to the ASN.1 NumericString type. A NumericString
// can only consist of the digits 0-9 and space.
//
// See also section 41 of Rec. ITU-T X.680.
type NumericString string

// IsValid reports whether s consists only of allowed numeric characters.
func (s NumericString) IsValid() bool {
	for i := 0; i < len(s); i++ {
		if !isNumeric(s[i]) {
			return false
		}
	}
	return true
}

// isNumeric reports whether b can appear in an ASN.1 NumericString.
func isNumeric(b byte) bool {
	return '0' <= b && b <= '9' || b == ' '
}

// PrintableString represents the ASN.1 type PrintableString. A printable string
// can only contain the following ASCII characters:
//
//	A-Z	// upper case letters
//	a-z	// lower case letters
//	0-9	// digits
//	 	// space
//	'	// apostrophe
//	()	// Parenthesis
//	+-/	// plus, hyphen, solidus
//	.,:	// fill stop, comma, colon
//	=	// equals sign
//	?	// question mark
//
// See also section 41 of Rec. ITU-T X.680.
type PrintableString string

// IsValid reports whether s consists only of printable characters.
func (s PrintableString) IsValid() bool {
	for i := 0; i < len(s); i++ {
		if !isPrintable(s[i]) {
			return false
		}
	}
	return true
}

// isPrintable reports whether the given b is in the ASN.1 PrintableString set.
func isPrintable(b byte) bool {
	return 'a' <= b && b <= 'z' ||
		'A' <= b && b <= 'Z' ||
		'0' <= b && b <= '9' ||
		'\'' <= b && b <= ')' ||
		'+' <= b && b <= '/' ||
		b == ' ' ||
		b == ':' ||
		b == '=' ||
		b == '?'
}

// IA5String represents the ASN.1 type IA5String. An IA5String must consist of
// ASCII characters only.
//
// See also section 41 of Rec. ITU-T X.680.
type IA5String string

// IsValid reports whether the contents of s consist only of ASCII characters.
func (s IA5String) IsValid() bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// VisibleString represents the corresponding ASN.1 type. It is limited to
// visible ASCII characters. In particular this does not include ASCII control
// characters.
//
// See also section 41 of Rec. ITU-T X.680.
type VisibleString string

// IsValid reports whether s only consists of visible ASCII characters.
func (s VisibleString) IsValid() bool {
	for i := 0; i < len(s); i++ {
		if s[i] < ' ' || s[i] >= 0x7F {
			return false
		}
	}
	return true
}

// BMPString represents the corresponding ASN.1 type. A BMPString can hold any
// character of the Unicode Basic Multilingual Plane. The Go representation is
// UTF-8, the BER encoding uses big endian UTF-16.
//
// See also section 41 of Rec. ITU-T X.680.
type BMPString string

// IsValid reports whether s only contains characters of the Basic Multilingual
// Plane.
func (s BMPString) IsValid() bool {
	for _, r := range s {
		if r > 0xFFFF || (r >= 0xD800 && r < 0xE000) || r == utf8.RuneError {
			return false
		}
	}
	return true
}

//endregion

//region [UNIVERSAL 23] UTCTime

// UTCTime represents the corresponding ASN.1 type. Only dates between
// 1950 and 2049 can be represented by this type.
//
// See also section 47 of Rec. ITU-T X.680.
type UTCTime time.Time

// IsValid reports whether the year of t is between 1950 and 2049.
func (t UTCTime) IsValid() bool {
	year := time.Time(t).Year()
	return year >= 1950 && year < 2050
}

// String returns the time of t in the format YYMMDDhhmmssZ or YYMMDDhhmmss+hhmm.
func (t UTCTime) String() string {
	tt := time.Time(t)
	b := strings.Builder{}
	b.Grow(17)
	b.WriteString(itoaN(tt.Year()%100, 2))
	b.WriteString(itoaN(int(tt.Month()), 2))
	b.WriteString(itoaN(tt.Day(), 2))
	b.WriteString(itoaN(tt.Hour(), 2))
	b.WriteString(itoaN(tt.Minute(), 2))
	b.WriteString(itoaN(tt.Second(), 2))
	writeOffset(&b, tt)
	return b.String()
}

//endregion

//region [UNIVERSAL 24] GeneralizedTime

// GeneralizedTime represents the corresponding ASN.1 type. This type can
// represent dates between years 1 and 9999.
//
// See also section 46 of Rec. ITU-T X.680.
type GeneralizedTime time.Time

// IsValid reports if the year of t is between 1 and 9999.
func (t GeneralizedTime) IsValid() bool {
	year := time.Time(t).Year()
	return year >= 1 && year <= 9999
}

// String returns a string representation of t that matches its representation
// in ASN.1 notation. Fractional seconds are written without trailing zeros.
func (t GeneralizedTime) String() string {
	tt := time.Time(t)
	b := strings.Builder{}
	b.Grow(29) // allocate enough space for nanosecond precision
	b.WriteString(itoaN(tt.Year()%10000, 4))
	b.WriteString(itoaN(int(tt.Month()), 2))
	b.WriteString(itoaN(tt.Day(), 2))
	b.WriteString(itoaN(tt.Hour(), 2))
	b.WriteString(itoaN(tt.Minute(), 2))
	b.WriteString(itoaN(tt.Second(), 2))
	if tt.Nanosecond() > 0 {
		s := strconv.FormatFloat(float64(tt.Nanosecond())/float64(time.Second), 'f', -1, 64)
		b.WriteString(s[1:])
	}
	if tt.Location() == time.Local {
		return b.String()
	}
	writeOffset(&b, tt)
	return b.String()
}

// writeOffset appends the zone offset of t as Z or ±hhmm.
func writeOffset(b *strings.Builder, t time.Time) {
	_, offset := t.Zone()
	offset /= 60
	if offset == 0 {
		b.WriteByte('Z')
		return
	}
	if offset < 0 {
		b.WriteByte('-')
	} else {
		b.WriteByte('+')
	}
	b.WriteString(itoaN(offset/60, 2))
	b.WriteString(itoaN(offset%60, 2))
}

// itoaN returns the base 10 string representation of the absolute value of i,
// truncated or zero padded to exactly n digits.
func itoaN(i int, n int) string {
	if i < 0 {
		i = -i
	}
	bs := make([]byte, n)
	for ; n > 0; n-- {
		bs[n-1] = '0' + byte(i%10)
		i /= 10
	}
	return unsafe.String(unsafe.SliceData(bs), len(bs))
}

//endregion
