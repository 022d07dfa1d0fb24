// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlv

import (
	"errors"

	"codello.dev/asn1map"
)

// Node is a single data value of a parsed BER encoding. Nodes are immutable
// after [Parse] returns and share memory with the parsed buffer.
type Node struct {
	Header

	// Offset is the position of the identifier octets within the parsed buffer.
	Offset int
	// HeaderLen is the number of identifier and length octets.
	HeaderLen int

	// Raw is the complete encoding of the data value, including the
	// end-of-contents marker of an indefinite-length encoding.
	Raw []byte
	// Content holds the contents octets. For indefinite-length encodings the
	// end-of-contents marker is not included.
	Content []byte

	// Children holds the nested data values of a constructed encoding in
	// encounter order.
	Children []*Node

	// Err is set by a tolerant [Parser] if the contents of a constructed
	// data value with definite length could not be parsed. Children is empty in
	// that case.
	Err error
}

// EncodedLen returns the total number of bytes of the encoding of n.
func (n *Node) EncodedLen() int {
	return len(n.Raw)
}

// End returns the offset of the first byte after n in the parsed buffer.
func (n *Node) End() int {
	return n.Offset + len(n.Raw)
}

// Is reports whether n carries the given tag.
func (n *Node) Is(tag asn1map.Tag) bool {
	return n.Tag == tag
}

// Parser configures the construction of a [Node] tree.
type Parser struct {
	// Guard bounds the nesting depth. If nil, a new guard with
	// [DefaultMaxDepth] is used for each call to [Parser.Parse].
	Guard *Guard

	// Tolerant makes the parser record syntax errors in the contents of a
	// constructed data value with definite length in [Node.Err] instead of
	// failing. Errors that prevent finding the end of a data value, as well as
	// [ErrExcessiveDepth], are never tolerated.
	Tolerant bool
}

// Parse parses the data value starting at buf[offset] using a strict [Parser]
// with guard g. Bytes after the data value are not examined.
func Parse(buf []byte, offset int, g *Guard) (*Node, error) {
	p := Parser{Guard: g}
	return p.Parse(buf, offset)
}

// ParseAll parses buf, which must contain exactly one data value, using a
// strict [Parser] with guard g.
func ParseAll(buf []byte, g *Guard) (*Node, error) {
	p := Parser{Guard: g}
	return p.ParseAll(buf)
}

// Parse parses the data value starting at buf[offset]. Bytes after the data
// value are not examined. All errors are of type [*SyntaxError].
func (p *Parser) Parse(buf []byte, offset int) (*Node, error) {
	g := p.Guard
	if g == nil {
		g = NewGuard(0)
	}
	n, eoc, err := p.parse(buf, offset, len(buf), false, g, Header{})
	if err != nil {
		return nil, err
	}
	if eoc {
		return nil, &SyntaxError{Err: malformed(errUnexpectedEOC), ByteOffset: offset}
	}
	return n, nil
}

// ParseAll parses buf, which must contain exactly one data value. If buf
// contains bytes after the data value, the node is returned together with an
// error wrapping [ErrTrailingData].
func (p *Parser) ParseAll(buf []byte) (*Node, error) {
	n, err := p.Parse(buf, 0)
	if err != nil {
		return nil, err
	}
	if n.End() != len(buf) {
		return n, &SyntaxError{Err: ErrTrailingData, ByteOffset: n.End()}
	}
	return n, nil
}

// parse reads a single data value starting at buf[offset] that must end at or
// before limit. If bounded is true, limit is the end of a definite-length parent
// and exceeding it is a malformation rather than a truncation. The boolean
// result reports an end-of-contents marker, in which case the node is nil.
func (p *Parser) parse(buf []byte, offset, limit int, bounded bool, g *Guard, parent Header) (*Node, bool, error) {
	h, hl, err := DecodeHeader(buf[:limit], offset)
	if err != nil {
		if err == ErrTruncated && bounded {
			err = malformed(errExceedsParent)
		}
		return nil, false, &SyntaxError{Err: err, ByteOffset: offset, Header: parent}
	}
	if h.Tag == asn1map.Universal(asn1map.TagEndOfContents) {
		if h == EndOfContents && hl == 2 {
			return nil, true, nil
		}
		return nil, false, &SyntaxError{Err: malformed(errInvalidEOC), ByteOffset: offset, Header: parent}
	}

	start := offset + hl
	n := &Node{Header: h, Offset: offset, HeaderLen: hl}
	if h.Length != LengthIndefinite && h.Length > limit-start {
		err = ErrTruncated
		if bounded {
			err = malformed(errExceedsParent)
		}
		return nil, false, &SyntaxError{Err: err, ByteOffset: offset, Header: parent}
	}
	if !h.Constructed {
		n.Content = buf[start : start+h.Length]
		n.Raw = buf[offset : start+h.Length]
		return n, false, nil
	}

	if err = g.Enter(); err != nil {
		return nil, false, &SyntaxError{Err: err, ByteOffset: offset, Header: parent}
	}
	defer g.Leave()

	if h.Length != LengthIndefinite {
		end := start + h.Length
		n.Content = buf[start:end]
		n.Raw = buf[offset:end]
		n.Children, err = p.definite(buf, start, end, g, h)
		if err != nil {
			if !p.Tolerant || errors.Is(err, ErrExcessiveDepth) {
				return nil, false, err
			}
			n.Children, n.Err = nil, err
		}
		return n, false, nil
	}

	pos := start
	for {
		child, eoc, err := p.parse(buf, pos, limit, bounded, g, h)
		if err != nil {
			return nil, false, err
		}
		if eoc {
			n.Content = buf[start:pos]
			n.Raw = buf[offset : pos+2]
			return n, false, nil
		}
		n.Children = append(n.Children, child)
		pos = child.End()
	}
}

// definite parses the children of a definite-length constructed data value
// whose contents occupy buf[start:end].
func (p *Parser) definite(buf []byte, start, end int, g *Guard, h Header) ([]*Node, error) {
	var children []*Node
	for pos := start; pos < end; {
		child, eoc, err := p.parse(buf, pos, end, true, g, h)
		if err != nil {
			return nil, err
		}
		if eoc {
			return nil, &SyntaxError{Err: malformed(errUnexpectedEOC), ByteOffset: pos, Header: h}
		}
		children = append(children, child)
		pos = child.End()
	}
	return children, nil
}
