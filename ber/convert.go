// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"bytes"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/exp/constraints"

	"codello.dev/asn1map"
	"codello.dev/asn1map/schema"
	"codello.dev/asn1map/tlv"
)

// ValueOf converts the Go value x into a [Value] of type s. Values are
// converted as follows:
//
//   - A [Value] is returned unchanged.
//   - Go integers and *big.Int become an [Integer]. For INTEGER and
//     ENUMERATED types with names a string selects a value by name.
//   - bool becomes a [Boolean] and nil a [Null].
//   - []byte and string become an [OctetString] or a [String], depending on
//     s. For ANY types []byte must hold a complete encoding.
//   - An [asn1map.ObjectIdentifier], []uint or a dotted string becomes an
//     [OID].
//   - time.Time becomes a [Time].
//   - An [asn1map.BitString] becomes a [BitString]. For named bit lists a
//     []string sets the named bits.
//   - map[string]any becomes a SEQUENCE or SET with the given fields, or a
//     CHOICE with a single entry naming the alternative.
//   - []any becomes a SEQUENCE OF or SET OF.
func ValueOf(s *schema.Schema, x any) (Value, error) {
	if v, ok := x.(Value); ok {
		return v, nil
	}
	switch s.Kind {
	case schema.KindAny:
		b, ok := x.([]byte)
		if !ok {
			break
		}
		n, err := tlv.ParseAll(b, nil)
		if err != nil {
			return nil, err
		}
		return Raw{Tag: n.Tag, Constructed: n.Constructed, Bytes: bytes.Clone(b)}, nil
	case schema.KindChoice:
		m, ok := x.(map[string]any)
		if !ok || len(m) != 1 {
			break
		}
		for name, val := range m {
			alt, _, ok := s.Lookup(name)
			if !ok {
				return nil, fmt.Errorf("%w %q", errUnknownField, name)
			}
			v, err := ValueOf(alt.Schema, val)
			if err != nil {
				return nil, err
			}
			return Choice{Name: name, Value: v}, nil
		}
	case schema.KindSequence, schema.KindSet:
		return constructedOf(s, x)
	default:
		if v, ok := primitiveOf(s, x); ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: cannot convert %T to %s", ErrSchemaMismatch, x, s)
}

func constructedOf(s *schema.Schema, x any) (Value, error) {
	c := NewConstructed(s)
	if s.IsOf() {
		xs, ok := x.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: cannot convert %T to %s", ErrSchemaMismatch, x, s)
		}
		for _, elem := range xs {
			v, err := ValueOf(s.Elem, elem)
			if err != nil {
				return nil, err
			}
			if err = c.Append(v); err != nil {
				return nil, err
			}
		}
		return c, nil
	}
	m, ok := x.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: cannot convert %T to %s", ErrSchemaMismatch, x, s)
	}
	for name := range m {
		if _, _, ok := s.Lookup(name); !ok {
			return nil, fmt.Errorf("%w %q", errUnknownField, name)
		}
	}
	for _, f := range s.Components {
		val, ok := m[f.Name]
		if !ok {
			continue
		}
		if err := c.Put(f.Name, val); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func primitiveOf(s *schema.Schema, x any) (Value, bool) {
	switch s.Type {
	case asn1map.TagBoolean:
		b, ok := x.(bool)
		return Boolean(b), ok
	case asn1map.TagInteger, asn1map.TagEnumerated:
		if name, ok := x.(string); ok {
			i, ok := s.ValueOf(name)
			return Integer{Int: big.NewInt(i), Name: name}, ok
		}
		i, ok := bigIntOf(x)
		if !ok {
			return nil, false
		}
		v := Integer{Int: i}
		if i.IsInt64() {
			v.Name, _ = s.NameOf(i.Int64())
		}
		return v, true
	case asn1map.TagBitString:
		switch x := x.(type) {
		case asn1map.BitString:
			return BitString{x, bitNames(s, x)}, true
		case []string:
			var bs asn1map.BitString
			for _, name := range x {
				i, ok := s.ValueOf(name)
				if !ok {
					return nil, false
				}
				bs = bs.SetBit(int(i))
			}
			return BitString{bs, bitNames(s, bs)}, true
		}
	case asn1map.TagOctetString:
		switch x := x.(type) {
		case []byte:
			return OctetString(bytes.Clone(x)), true
		case string:
			return OctetString(x), true
		}
	case asn1map.TagNull:
		switch x.(type) {
		case nil, struct{}:
			return Null{}, true
		}
	case asn1map.TagOID:
		switch x := x.(type) {
		case asn1map.ObjectIdentifier:
			return OID(x), true
		case []uint:
			return OID(x), true
		case string:
			oid, err := asn1map.ParseObjectIdentifier(x)
			return OID(oid), err == nil
		}
	case asn1map.TagUTCTime, asn1map.TagGeneralizedTime:
		t, ok := x.(time.Time)
		return Time{t}, ok
	default:
		str, ok := x.(string)
		return String(str), ok && s.IsString()
	}
	return nil, false
}

// bigIntOf converts the Go integer x into a *big.Int.
func bigIntOf(x any) (*big.Int, bool) {
	switch x := x.(type) {
	case int:
		return bigInt(x), true
	case int8:
		return bigInt(x), true
	case int16:
		return bigInt(x), true
	case int32:
		return bigInt(x), true
	case int64:
		return bigInt(x), true
	case uint:
		return bigInt(x), true
	case uint8:
		return bigInt(x), true
	case uint16:
		return bigInt(x), true
	case uint32:
		return bigInt(x), true
	case uint64:
		return bigInt(x), true
	case *big.Int:
		if x == nil {
			return nil, false
		}
		return new(big.Int).Set(x), true
	}
	return nil, false
}

func bigInt[T constraints.Integer](i T) *big.Int {
	if i < 0 {
		return big.NewInt(int64(i))
	}
	return new(big.Int).SetUint64(uint64(i))
}

// Export converts v into plain Go values:
//
//   - An [Integer] becomes its name, if it has one, or a *big.Int.
//   - [Boolean], [OctetString] and [String] become bool, []byte and string.
//   - [Null] becomes nil.
//   - A [BitString] of a named bit list becomes the []string of names of its
//     set bits, any other [BitString] an [asn1map.BitString].
//   - An [OID] becomes its dotted string.
//   - [Time] becomes a time.Time and [Raw] its encoding.
//   - A [Malformed] value becomes a string describing its error.
//   - A [Choice] becomes a map with a single entry.
//   - A SEQUENCE or SET becomes a map[string]any and a SEQUENCE OF or SET OF a
//     []any.
//
// The result of Export can be converted back using [ValueOf].
func Export(v Value) (any, error) {
	switch v := v.(type) {
	case nil, Null:
		return nil, nil
	case Integer:
		if v.Name != "" {
			return v.Name, nil
		}
		return bigOrZero(v.Int), nil
	case Boolean:
		return bool(v), nil
	case OctetString:
		return []byte(v), nil
	case String:
		return string(v), nil
	case BitString:
		if v.Names != nil {
			return v.Names, nil
		}
		return v.BitString, nil
	case OID:
		return v.String(), nil
	case Time:
		return v.Time, nil
	case Raw:
		return v.Bytes, nil
	case Malformed:
		return "<malformed: " + v.Err.Error() + ">", nil
	case Choice:
		inner, err := Export(v.Value)
		if err != nil {
			return nil, err
		}
		return map[string]any{v.Name: inner}, nil
	case Constructed:
		entries, err := v.entries()
		if err != nil {
			return nil, err
		}
		entries = append([]entry(nil), entries...)
		if v.Schema().IsOf() {
			xs := make([]any, len(entries))
			for i, e := range entries {
				if xs[i], err = Export(e.val); err != nil {
					return nil, err
				}
			}
			return xs, nil
		}
		m := make(map[string]any, len(entries))
		for _, e := range entries {
			if m[e.key], err = Export(e.val); err != nil {
				return nil, err
			}
		}
		return m, nil
	}
	return nil, fmt.Errorf("unsupported value %T", v)
}
