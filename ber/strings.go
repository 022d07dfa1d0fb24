// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"

	"codello.dev/asn1map"
	"codello.dev/asn1map/tlv"
)

var errSegment = errors.New("non-matching segment in constructed string")

// segments iterates over the primitive segments of the string encoding n.
// String types can use the primitive or constructed encoding. When using the
// constructed encoding strings can be arbitrarily nested and every nested data
// value must carry the universal tag of the string type. Each nested level is
// accounted for in g.
func segments(n *tlv.Node, tag asn1map.Tag, g *tlv.Guard) iter.Seq2[*tlv.Node, error] {
	return func(yield func(*tlv.Node, error) bool) {
		walkSegments(n, tag, g, yield)
	}
}

func walkSegments(n *tlv.Node, tag asn1map.Tag, g *tlv.Guard, yield func(*tlv.Node, error) bool) bool {
	if !n.Constructed {
		return yield(n, nil)
	}
	if n.Err != nil {
		yield(nil, n.Err)
		return false
	}
	if err := g.Enter(); err != nil {
		yield(nil, err)
		return false
	}
	defer g.Leave()
	for _, c := range n.Children {
		if c.Tag != tag {
			yield(nil, fmt.Errorf("%w: %w %s", ErrSchemaMismatch, errSegment, c.Tag))
			return false
		}
		if !walkSegments(c, tag, g, yield) {
			return false
		}
	}
	return true
}

// flatten returns the concatenated contents of the string encoding n.
func flatten(n *tlv.Node, tag asn1map.Tag, g *tlv.Guard) ([]byte, error) {
	if !n.Constructed {
		return n.Content, nil
	}
	var buf bytes.Buffer
	for seg, err := range segments(n, tag, g) {
		if err != nil {
			return nil, err
		}
		buf.Write(seg.Content)
	}
	return buf.Bytes(), nil
}

// charset returns the text encoding of the string type with the given tag
// number, or nil if the type is encoded as UTF-8 or ASCII.
func charset(number uint) encoding.Encoding {
	switch number {
	case asn1map.TagBMPString:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	case asn1map.TagUniversalString:
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)
	case asn1map.TagTeletexString, asn1map.TagVideotexString, asn1map.TagGraphicString, asn1map.TagGeneralString:
		return charmap.ISO8859_1
	}
	return nil
}

// decodeString converts the contents octets of a string type to a Go string.
func decodeString(number uint, b []byte) (string, error) {
	switch number {
	case asn1map.TagBMPString:
		if len(b)%2 != 0 {
			return "", errors.New("odd length BMPString")
		}
	case asn1map.TagUniversalString:
		if len(b)%4 != 0 {
			return "", errors.New("invalid length of UniversalString")
		}
	case asn1map.TagUTF8String:
		if !utf8.Valid(b) {
			return "", errors.New("invalid UTF-8")
		}
	}
	enc := charset(number)
	if enc == nil {
		return string(b), nil
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// encodeString returns the contents octets of s as a string type.
func encodeString(number uint, s string) ([]byte, error) {
	if !asn1map.ValidString(number, s) {
		return nil, fmt.Errorf("invalid characters for %s", asn1map.TypeName(number))
	}
	enc := charset(number)
	if enc == nil {
		return []byte(s), nil
	}
	return enc.NewEncoder().Bytes([]byte(s))
}
