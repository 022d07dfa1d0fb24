// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"errors"
	"strconv"

	"codello.dev/asn1map"
	"codello.dev/asn1map/schema"
	"codello.dev/asn1map/tlv"
)

// These errors classify failures of mapping and encoding. They are usually
// wrapped in a [StructuralError] or [EncodeError] and can be tested for using
// [errors.Is].
var (
	// ErrSchemaMismatch indicates a data value whose tag, form or contents do
	// not match the expected type.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrMissingField indicates that a required component is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrExtraField indicates data values that are not matched by any
	// component.
	ErrExtraField = errors.New("unexpected extra field")
	// ErrUnavailableEncoding indicates that a value has no cached encoding.
	ErrUnavailableEncoding = errors.New("encoding unavailable")
)

// Errors of the syntactic layer. They are re-exported for convenience.
var (
	ErrMalformedHeader = tlv.ErrMalformedHeader
	ErrTruncated       = tlv.ErrTruncated
	ErrReservedLength  = tlv.ErrReservedLength
	ErrExcessiveDepth  = tlv.ErrExcessiveDepth
)

var (
	errConstructed    = errors.New("expected constructed encoding")
	errPrimitive      = errors.New("expected primitive encoding")
	errExplicit       = errors.New("explicit tag must contain exactly one data value")
	errNoAlternative  = errors.New("no matching alternative")
	errTooFew         = errors.New("too few elements")
	errTooMany        = errors.New("too many elements")
	errInvalidValue   = errors.New("invalid value")
	errNotConstructed = errors.New("schema is not SEQUENCE or SET")
	errUnknownField   = errors.New("unknown field")
	errNotOf          = errors.New("schema is not SEQUENCE OF or SET OF")
)

// StructuralError describes a data value that is syntactically valid BER but
// does not conform to the schema it is mapped onto.
type StructuralError struct {
	// Path of the field, slash separated. Empty for the top-level value.
	Path string
	// Tag of the offending data value. Zero if the value is absent.
	Tag asn1map.Tag
	// Want is the schema the data value was mapped onto.
	Want *schema.Schema
	// Offset of the data value within the input, or -1 if unknown.
	Offset int
	Err    error
}

func (e *StructuralError) Unwrap() error { return e.Err }
func (e *StructuralError) Error() string {
	b := []byte("ber: structural error")
	if e.Path != "" {
		b = append(b, " at "...)
		b = append(b, e.Path...)
	}
	if e.Want != nil {
		b = append(b, " decoding "...)
		if e.Tag != (asn1map.Tag{}) {
			b = append(b, e.Tag.String()...)
			b = append(b, " into "...)
		}
		b = append(b, e.Want.String()...)
	}
	if e.Offset >= 0 {
		b = strconv.AppendInt(append(b, " (offset "...), int64(e.Offset), 10)
		b = append(b, ')')
	}
	if e.Err != nil {
		b = append(b, ": "...)
		b = append(b, e.Err.Error()...)
	}
	return string(b)
}

// EncodeError indicates that a value cannot be encoded with a schema.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Unwrap() error { return e.Err }
func (e *EncodeError) Error() string {
	if e.Path == "" {
		return "ber: encoding error: " + e.Err.Error()
	}
	return "ber: encoding error at " + e.Path + ": " + e.Err.Error()
}
