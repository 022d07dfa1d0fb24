// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asn1map defines the ASN.1 vocabulary shared by the schema-driven
// codec in its subpackages. Unlike encoders that derive the structure of a
// value from Go types, this module describes data structures with explicit
// schemas that are interpreted at runtime.
//
// The module is split into the following packages:
//
//   - Package tlv reads and writes BER identifier and length octets and builds
//     a tree of raw TLV nodes from an input buffer.
//   - Package schema defines the schema vocabulary (SEQUENCE, SET, CHOICE, OF,
//     primitive types and their modifiers).
//   - Package ber maps a TLV tree onto a schema, producing a tree of typed
//     values, and encodes such trees using the Distinguished Encoding Rules.
//   - Package schemas contains schemas for common key formats.
//
// # Mapping a Structure
//
// Take the following ASN.1 definition:
//
//	RSAPublicKey ::= SEQUENCE {
//		modulus           INTEGER,  -- n
//		publicExponent    INTEGER   -- e
//	}
//
// The equivalent schema is built like this:
//
//	s := schema.Sequence(
//		schema.Field("modulus", schema.Integer()),
//		schema.Field("publicExponent", schema.Integer()),
//	)
//
// Decoding a BER or DER encoded value with ber.Decode produces a
// ber.Constructed value whose fields are accessed by name. Unmodified values
// re-encode to exactly the bytes they were decoded from.
//
// This package itself only defines Go types for ASN.1 tags and for some
// universal types whose Go representation is not obvious.
//
// [Rec. ITU-T X.680]: https://www.itu.int/rec/T-REC-X.680
package asn1map

import (
	"strconv"
	"strings"
)

// Tag constitutes an ASN.1 tag, consisting of its class and number. For
// details, see Section 8 of [Rec. ITU-T X.680].
type Tag struct {
	Class  Class
	Number uint
}

// Universal returns the tag with the given number in the [ClassUniversal]
// namespace.
func Universal(number uint) Tag {
	return Tag{ClassUniversal, number}
}

// Class holds the class part of an ASN.1 tag. The class acts as a namespace for
// the tag number. A Class value is an unsigned 2-bit integer. Class values
// whose value exceeds 2 bits are invalid.
//
//go:generate stringer -type=Class -trimprefix=Class
type Class uint8

// IsValid reports whether c is a valid Class value.
func (c Class) IsValid() bool {
	return c <= 3
}

// Predefined [Class] constants. These are all the possible values that can be
// encoded in the [Class] type.
const (
	ClassUniversal Class = iota
	ClassApplication
	ClassContextSpecific
	ClassPrivate
)

// String returns a string representation t in a format similar to the one used
// in ASN.1 notation. The tag number is enclosed by square brackets and prefixed
// with the class used. To avoid ambiguity the UNIVERSAL word is used for
// universal tags, although this is not valid ASN.1 syntax.
func (t Tag) String() string {
	if t.Class == ClassContextSpecific {
		return "[" + strconv.FormatUint(uint64(t.Number), 10) + "]"
	}
	return "[" + strings.ToUpper(t.Class.String()) + " " + strconv.FormatUint(uint64(t.Number), 10) + "]"
}

// TagEndOfContents is the reserved universal tag number used by the end of
// contents marker of indefinite length encodings. This assignment is defined
// in Rec. ITU-T X.680, Section 8, Table 1.
const TagEndOfContents = 0

// These are the ASN.1 tag numbers defined in the [ClassUniversal] namespace
// that have a meaning in this module. These assignments are defined in Rec.
// ITU-T X.680, Section 8, Table 1.
const (
	TagBoolean         uint = 1
	TagInteger         uint = 2
	TagBitString       uint = 3
	TagOctetString     uint = 4
	TagNull            uint = 5
	TagOID             uint = 6
	TagReal            uint = 9
	TagEnumerated      uint = 10
	TagUTF8String      uint = 12
	TagSequence        uint = 16
	TagSet             uint = 17
	TagNumericString   uint = 18
	TagPrintableString uint = 19
	TagTeletexString   uint = 20
	TagT61String            = TagTeletexString
	TagVideotexString  uint = 21
	TagIA5String       uint = 22
	TagUTCTime         uint = 23
	TagGeneralizedTime uint = 24
	TagGraphicString   uint = 25
	TagVisibleString   uint = 26
	TagISO646String         = TagVisibleString
	TagGeneralString   uint = 27
	TagUniversalString uint = 28
	TagBMPString       uint = 30
)

// TypeName returns the ASN.1 name of the universal type with the given tag
// number, for example "OCTET STRING". Unknown numbers are formatted as their
// tag notation.
func TypeName(number uint) string {
	if name, ok := typeNames[number]; ok {
		return name
	}
	return Universal(number).String()
}

var typeNames = map[uint]string{
	TagBoolean:         "BOOLEAN",
	TagInteger:         "INTEGER",
	TagBitString:       "BIT STRING",
	TagOctetString:     "OCTET STRING",
	TagNull:            "NULL",
	TagOID:             "OBJECT IDENTIFIER",
	TagReal:            "REAL",
	TagEnumerated:      "ENUMERATED",
	TagUTF8String:      "UTF8String",
	TagSequence:        "SEQUENCE",
	TagSet:             "SET",
	TagNumericString:   "NumericString",
	TagPrintableString: "PrintableString",
	TagTeletexString:   "TeletexString",
	TagVideotexString:  "VideotexString",
	TagIA5String:       "IA5String",
	TagUTCTime:         "UTCTime",
	TagGeneralizedTime: "GeneralizedTime",
	TagGraphicString:   "GraphicString",
	TagVisibleString:   "VisibleString",
	TagGeneralString:   "GeneralString",
	TagUniversalString: "UniversalString",
	TagBMPString:       "BMPString",
}
