// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/crypto/cryptobyte"

	"codello.dev/asn1map"
	"codello.dev/asn1map/schema"
	"codello.dev/asn1map/tlv"
)

// Encode returns the encoding of v as type s. Constructed values that carry a
// cached encoding are written verbatim, so an unmodified value reproduces the
// bytes it was decoded from. All other values are encoded using DER and the
// result is cached in each constructed value.
//
// Components with a default value are omitted if their value equals the
// default. The components of a SET are written in schema order. The elements
// of a SET OF are sorted by their encoding.
func Encode(v Value, s *schema.Schema) ([]byte, error) {
	e := encoder{useCache: true}
	return e.bytes(v, s, "")
}

// EncodeCanonical works like [Encode] but ignores cached encodings. The
// result is the DER encoding of v even if v was decoded from BER. No
// encodings are cached.
func EncodeCanonical(v Value, s *schema.Schema) ([]byte, error) {
	e := encoder{}
	return e.bytes(v, s, "")
}

type encoder struct {
	useCache bool
}

// bytes returns the encoding of v.
func (e *encoder) bytes(v Value, s *schema.Schema, path string) ([]byte, error) {
	b := cryptobyte.NewBuilder(nil)
	if err := e.encode(b, v, s, path); err != nil {
		return nil, err
	}
	return b.Bytes()
}

func (e *encoder) fail(path string, err error) error {
	var encErr *EncodeError
	if errors.As(err, &encErr) {
		return err
	}
	return &EncodeError{Path: path, Err: err}
}

func (e *encoder) encode(b *cryptobyte.Builder, v Value, s *schema.Schema, path string) error {
	if v == nil {
		return e.fail(path, errInvalidValue)
	}
	if m, ok := v.(Malformed); ok {
		if m.Raw == nil {
			return e.fail(path, m.Err)
		}
		b.AddBytes(m.Raw)
		return nil
	}
	if s.IsExplicit() {
		inner, err := e.bytes(v, s.Untagged(), path)
		if err != nil {
			return err
		}
		writeElement(b, s.Tagging.Tag(), true, inner)
		return nil
	}

	switch s.Kind {
	case schema.KindAny:
		switch v := v.(type) {
		case Raw:
			if len(v.Bytes) == 0 {
				return e.fail(path, errInvalidValue)
			}
			b.AddBytes(v.Bytes)
			return nil
		case Choice:
			return e.encode(b, v.Value, s, path)
		default:
			if is, ok := intrinsic(v); ok {
				return e.encode(b, v, is, path)
			}
		}
	case schema.KindChoice:
		c, ok := v.(Choice)
		if !ok {
			break
		}
		alt, _, ok := s.Lookup(c.Name)
		if !ok {
			return e.fail(path, fmt.Errorf("%w: unknown alternative %q", ErrSchemaMismatch, c.Name))
		}
		return e.encode(b, c.Value, alt.Schema, path)
	case schema.KindSequence, schema.KindSet:
		c, ok := v.(Constructed)
		if !ok || c.IsZero() {
			break
		}
		return e.encodeConstructed(b, c, s, path)
	default:
		tag, _ := s.Tag()
		if inner, is, ok := encapsulated(v, s); ok {
			content, err := e.bytes(inner, is, path)
			if err != nil {
				return err
			}
			if s.Type == asn1map.TagBitString {
				content = append([]byte{0x00}, content...)
			}
			writeElement(b, tag, false, content)
			return nil
		}
		content, err := encodePrimitive(v, s)
		if err != nil {
			return e.fail(path, err)
		}
		writeElement(b, tag, false, content)
		return nil
	}
	return e.fail(path, fmt.Errorf("%w: cannot encode %T as %s", ErrSchemaMismatch, v, s))
}

// encapsulated returns the value carried in the contents of v, an OCTET STRING
// or BIT STRING of type s, and the schema of that value.
func encapsulated(v Value, s *schema.Schema) (Value, *schema.Schema, bool) {
	if s.Type != asn1map.TagOctetString && s.Type != asn1map.TagBitString {
		return nil, nil, false
	}
	if c, ok := v.(Choice); ok {
		return encapsulated(c.Value, s)
	}
	is, ok := intrinsic(v)
	if !ok || (is.Kind == schema.KindPrimitive && is.Type == s.Type) {
		return nil, nil, false
	}
	return v, is, true
}

// intrinsic returns the schema of the universal type of v. Strings and times
// do not determine their type.
func intrinsic(v Value) (*schema.Schema, bool) {
	switch v := v.(type) {
	case Integer:
		return schema.Integer(), true
	case Boolean:
		return schema.Boolean(), true
	case Null:
		return schema.Null(), true
	case OctetString:
		return schema.OctetString(), true
	case BitString:
		return schema.BitString(), true
	case OID:
		return schema.ObjectIdentifier(), true
	case Raw:
		return schema.Any(), true
	case Constructed:
		return v.Schema(), !v.IsZero()
	}
	return nil, false
}

func (e *encoder) encodeConstructed(b *cryptobyte.Builder, c Constructed, s *schema.Schema, path string) error {
	tag, _ := s.Tag()
	if e.useCache {
		if enc := c.node().enc; enc != nil {
			b.AddBytes(retag(enc, tag))
			return nil
		}
	}
	entries, err := c.entries()
	if err != nil {
		return e.fail(path, err)
	}
	entries = slices.Clone(entries)

	body := cryptobyte.NewBuilder(nil)
	if s.IsOf() {
		elems := make([][]byte, 0, len(entries))
		for _, en := range entries {
			enc, err := e.bytes(en.val, s.Elem, schema.Path(path, en.key))
			if err != nil {
				return err
			}
			elems = append(elems, enc)
		}
		if s.Kind == schema.KindSet {
			slices.SortFunc(elems, bytes.Compare)
		}
		for _, enc := range elems {
			body.AddBytes(enc)
		}
	} else {
		for _, f := range s.Components {
			fpath := schema.Path(path, f.Name)
			i := slices.IndexFunc(entries, func(en entry) bool { return en.key == f.Name })
			if i < 0 {
				if f.IsOptional() {
					continue
				}
				return e.fail(fpath, ErrMissingField)
			}
			v := entries[i].val
			if f.HasDefault() && isDefault(v, f.Schema) {
				continue
			}
			if err = e.encode(body, v, f.Schema, fpath); err != nil {
				return err
			}
		}
	}
	content, err := body.Bytes()
	if err != nil {
		return e.fail(path, err)
	}
	enc := tlv.AppendHeader(nil, tlv.Header{Tag: tag, Constructed: true, Length: len(content)})
	enc = append(enc, content...)
	if e.useCache {
		c.node().enc = enc
	}
	b.AddBytes(enc)
	return nil
}

// isDefault reports whether v encodes like the default value of s.
func isDefault(v Value, s *schema.Schema) bool {
	dv, err := ValueOf(s, s.Default)
	if err != nil {
		return false
	}
	e := encoder{}
	a, err := e.bytes(v, s.Untagged(), "")
	if err != nil {
		return false
	}
	d, err := e.bytes(dv, s.Untagged(), "")
	return err == nil && bytes.Equal(a, d)
}

// retag returns enc with its identifier octets replaced by tag.
func retag(enc []byte, tag asn1map.Tag) []byte {
	h, n, err := tlv.DecodeTag(enc, 0)
	if err != nil || h.Tag == tag {
		return enc
	}
	return append(tlv.AppendTag(nil, tag, h.Constructed), enc[n:]...)
}

// writeElement appends a data value with definite length to b.
func writeElement(b *cryptobyte.Builder, tag asn1map.Tag, constructed bool, content []byte) {
	b.AddBytes(tlv.AppendHeader(nil, tlv.Header{Tag: tag, Constructed: constructed, Length: len(content)}))
	b.AddBytes(content)
}
