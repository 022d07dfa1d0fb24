// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"bytes"
	"math/big"
	"time"

	"codello.dev/asn1map"
)

// Value is the result of mapping a data value onto a schema. The set of
// implementations is closed:
//
//   - [Integer] for INTEGER and ENUMERATED
//   - [Boolean], [Null], [OctetString], [BitString], [OID]
//   - [String] for all character string types
//   - [Time] for UTCTime and GeneralizedTime
//   - [Raw] for ANY
//   - [Constructed] for SEQUENCE, SET, SEQUENCE OF and SET OF
//   - [Choice] for CHOICE
//   - [Malformed] for fields that could not be mapped in tolerant mode
type Value interface {
	value()
}

// Integer is the value of an INTEGER or ENUMERATED type. Name holds the
// symbolic name of the value if the schema defines one.
type Integer struct {
	Int  *big.Int
	Name string
}

// NewInteger returns the Integer with value i.
func NewInteger(i int64) Integer {
	return Integer{Int: big.NewInt(i)}
}

// Int64 returns i as an int64. The second return value is false if i does not
// fit.
func (i Integer) Int64() (int64, bool) {
	if i.Int == nil {
		return 0, true
	}
	return i.Int.Int64(), i.Int.IsInt64()
}

func (i Integer) String() string {
	if i.Name != "" {
		return i.Name
	}
	if i.Int == nil {
		return "0"
	}
	return i.Int.String()
}

// Boolean is the value of a BOOLEAN type.
type Boolean bool

// Null is the value of a NULL type.
type Null struct{}

// OctetString is the value of an OCTET STRING type.
type OctetString []byte

// BitString is the value of a BIT STRING type. For named bit lists Names
// holds the names of the bits that are set.
type BitString struct {
	asn1map.BitString
	Names []string
}

// String is the value of a character string type.
type String string

// OID is the value of an OBJECT IDENTIFIER type.
type OID asn1map.ObjectIdentifier

func (o OID) String() string { return asn1map.ObjectIdentifier(o).String() }

// Time is the value of a UTCTime or GeneralizedTime type.
type Time struct {
	time.Time
}

// Raw is the value of an ANY type. Bytes holds the complete encoding of the
// data value.
type Raw struct {
	Tag         asn1map.Tag
	Constructed bool
	Bytes       []byte
}

// Malformed is a placeholder for a field that could not be mapped in tolerant
// mode. Raw holds the encoding of the offending data value and is nil for
// missing fields.
type Malformed struct {
	Err error
	Raw []byte
}

func (Integer) value()     {}
func (Boolean) value()     {}
func (Null) value()        {}
func (OctetString) value() {}
func (BitString) value()   {}
func (String) value()      {}
func (OID) value()         {}
func (Time) value()        {}
func (Raw) value()         {}
func (Malformed) value()   {}
func (Constructed) value() {}
func (Choice) value()      {}

// Equal reports whether a and b represent the same abstract value. Integers
// are compared numerically regardless of their names, bit strings by their
// bits, and constructed values field by field. Constructed values that cannot
// be materialized are not equal to anything.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case nil:
		return b == nil
	case Integer:
		b, ok := b.(Integer)
		return ok && bigOrZero(a.Int).Cmp(bigOrZero(b.Int)) == 0
	case Boolean, Null, String:
		return a == b
	case OctetString:
		b, ok := b.(OctetString)
		return ok && bytes.Equal(a, b)
	case BitString:
		b, ok := b.(BitString)
		return ok && a.BitString.Equal(b.BitString)
	case OID:
		b, ok := b.(OID)
		return ok && asn1map.ObjectIdentifier(a).Equal(asn1map.ObjectIdentifier(b))
	case Time:
		b, ok := b.(Time)
		return ok && a.Equal(b.Time)
	case Raw:
		b, ok := b.(Raw)
		return ok && bytes.Equal(a.Bytes, b.Bytes)
	case Malformed:
		b, ok := b.(Malformed)
		return ok && a.Raw != nil && bytes.Equal(a.Raw, b.Raw)
	case Choice:
		b, ok := b.(Choice)
		return ok && a.Name == b.Name && Equal(a.Value, b.Value)
	case Constructed:
		b, ok := b.(Constructed)
		return ok && equalConstructed(a, b)
	}
	return false
}

func equalConstructed(a, b Constructed) bool {
	if a.IsZero() || b.IsZero() {
		return a.IsZero() && b.IsZero()
	}
	ea, err := a.entries()
	if err != nil {
		return false
	}
	ea = append([]entry(nil), ea...)
	eb, err := b.entries()
	if err != nil || len(ea) != len(eb) {
		return false
	}
	if !a.Schema().IsOf() && a.Schema().Kind == b.Schema().Kind {
		// Fields are compared by name.
		for _, e := range ea {
			v, err := b.Get(e.key)
			if err != nil || !Equal(e.val, v) {
				return false
			}
		}
		return true
	}
	for i := range ea {
		if !Equal(ea[i].val, eb[i].val) {
			return false
		}
	}
	return true
}

func bigOrZero(i *big.Int) *big.Int {
	if i == nil {
		return new(big.Int)
	}
	return i
}
