// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlv

import (
	"errors"
	"strconv"
)

// These errors classify syntax errors of a BER encoding. They are usually
// wrapped in a [SyntaxError] and can be tested for using [errors.Is].
var (
	// ErrMalformedHeader indicates identifier or length octets that violate
	// X.690, or a nested data value that does not fit into its parent.
	ErrMalformedHeader = errors.New("malformed header")
	// ErrTruncated indicates that the input ended before a data value was
	// complete.
	ErrTruncated = errors.New("truncated data value")
	// ErrReservedLength indicates the reserved initial length octet 0xFF.
	ErrReservedLength = errors.New("reserved length octet")
	// ErrExcessiveDepth indicates that the nesting of data values exceeded the
	// limit of a [Guard].
	ErrExcessiveDepth = errors.New("excessive recursion depth")
	// ErrTrailingData indicates bytes following the top-level data value.
	ErrTrailingData = errors.New("trailing data after top-level value")
)

var (
	errUnexpectedEOC = errors.New("unexpected end of contents")
	errInvalidEOC    = errors.New("invalid end of contents")
	errExceedsParent = errors.New("data value exceeds its parent")
)

// SyntaxError represents an error in the TLV encoding. The error value contains
// the location of the error within the input as well as the [Header] of the
// surrounding data value.
type SyntaxError struct {
	requireKeyedLiterals
	nonComparable

	Err error // underlying error

	// ByteOffset is the location of the error. The location is usually the start of
	// the TLV header containing the error.
	ByteOffset int

	// Header is the TLV header of the constructed TLV whose value contained the
	// malformed data. It is the zero Header for top-level errors.
	Header Header
}

func (e *SyntaxError) Unwrap() error { return e.Err }
func (e *SyntaxError) Error() string {
	b := []byte("tlv: syntax error")
	if e.Header != (Header{}) {
		b = append(b, " within "...)
		b = append(b, e.Header.String()...)
	}
	b = strconv.AppendInt(append(b, " at offset "...), int64(e.ByteOffset), 10)
	if e.Err != nil {
		b = append(b, ": "...)
		b = append(b, e.Err.Error()...)
	}
	return string(b)
}

// malformed returns an error wrapping [ErrMalformedHeader] with additional
// detail.
func malformed(detail error) error {
	return &wrapError{ErrMalformedHeader, detail}
}

// wrapError is an error that matches both kind and detail with [errors.Is].
type wrapError struct {
	kind   error
	detail error
}

func (e *wrapError) Error() string   { return e.kind.Error() + ": " + e.detail.Error() }
func (e *wrapError) Unwrap() []error { return []error{e.kind, e.detail} }
