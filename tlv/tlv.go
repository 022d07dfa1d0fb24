// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tlv implements the syntactic layer of the tag-length-value (TLV)
// format used by the Basic Encoding Rules (BER) and related encoding rules as
// specified in [Rec. ITU-T X.690].
// See also “[A Layman's Guide to a Subset of ASN.1, BER, and DER]”.
//
// The package consists of three parts:
//
//   - The header functions [DecodeTag], [DecodeLength] and [DecodeHeader]
//     read identifier and length octets. [AppendTag], [AppendLength] and
//     [AppendHeader] write them using the minimal form.
//   - [Parse] builds a tree of [Node] values from a buffer containing a
//     complete BER encoding. Definite and indefinite lengths are supported.
//   - A [Guard] bounds the nesting depth of the tree. The same guard can be
//     shared with later processing stages so that the combined recursion depth
//     stays bounded.
//
// This package deals with the syntactic layer of BER while the
// [codello.dev/asn1map/ber] package deals with the semantic layer.
//
// [Rec. ITU-T X.690]: https://www.itu.int/rec/T-REC-X.690
// [A Layman's Guide to a Subset of ASN.1, BER, and DER]: http://luca.ntop.org/Teaching/Appunti/asn1.html
package tlv

import (
	"strconv"

	"codello.dev/asn1map"
)

// EndOfContents is the end-of-contents marker signalling the end of a
// constructed element using the indefinite-length encoding. The following are
// equivalent:
//
//	tlv.Header{}
//	tlv.Header{Tag: asn1map.Universal(asn1map.TagEndOfContents)}
//	tlv.EndOfContents
var EndOfContents = Header{}

// LengthIndefinite when used as a magic number for the length of a [Header]
// indicates that the data value is encoded using the constructed
// indefinite-length format.
const LengthIndefinite = -1

// Header represents a TLV header. The [Header.Length] may be [LengthIndefinite]
// if an indefinite-length encoding is used. It is invalid to use the
// indefinite-length encoding when [Header.Constructed] = false.
type Header struct {
	Tag         asn1map.Tag
	Constructed bool
	Length      int
}

// String returns a string representation of h.
func (h Header) String() string {
	if h == (Header{}) {
		return "EndOfContents"
	}
	s := h.Tag.String()
	if h.Constructed {
		s += "/c"
	} else {
		s += "/p"
	}
	if h.Length == LengthIndefinite {
		return s + ":indefinite"
	}
	return s + ":" + strconv.Itoa(h.Length)
}

// requireKeyedLiterals can be embedded in a struct to require keyed literals.
type requireKeyedLiterals struct{}

// nonComparable can be embedded in a struct to prevent comparability.
type nonComparable [0]func()
