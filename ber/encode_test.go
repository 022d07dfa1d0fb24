// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codello.dev/asn1map"
	"codello.dev/asn1map/schema"
)

func TestEncode_RSAPublicKey(t *testing.T) {
	c := NewConstructed(rsaPublicKey)
	require.NoError(t, c.Put("modulus", 65537))
	require.NoError(t, c.Put("publicExponent", 3))
	want := []byte{0x30, 0x08, 0x02, 0x03, 0x01, 0x00, 0x01, 0x02, 0x01, 0x03}
	for name, encode := range map[string]func(Value, *schema.Schema) ([]byte, error){
		"Encode":          Encode,
		"EncodeCanonical": EncodeCanonical,
	} {
		t.Run(name, func(t *testing.T) {
			enc, err := encode(c, rsaPublicKey)
			require.NoError(t, err)
			assert.Equal(t, want, enc)
		})
	}

	v, err := Decode(want, rsaPublicKey, nil)
	require.NoError(t, err)
	assert.True(t, Equal(c, v))
}

func TestEncode_Modified(t *testing.T) {
	v, err := Decode([]byte{0x30, 0x08, 0x02, 0x03, 0x01, 0x00, 0x01, 0x02, 0x01, 0x03}, rsaPublicKey, nil)
	require.NoError(t, err)
	require.NoError(t, v.(Constructed).Put("publicExponent", 65537))
	enc, err := Encode(v, rsaPublicKey)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x30, 0x0A, 0x02, 0x03, 0x01, 0x00, 0x01, 0x02, 0x03, 0x01, 0x00, 0x01}, enc)
}

func TestEncode_Cache(t *testing.T) {
	ber := []byte{0x30, 0x80, 0x02, 0x01, 0x05, 0x02, 0x01, 0x03, 0x00, 0x00}
	der := []byte{0x30, 0x06, 0x02, 0x01, 0x05, 0x02, 0x01, 0x03}
	v, err := Decode(ber, rsaPublicKey, nil)
	require.NoError(t, err)
	c := v.(Constructed)

	enc, err := Encode(v, rsaPublicKey)
	require.NoError(t, err)
	assert.Equal(t, ber, enc)
	enc, err = EncodeCanonical(v, rsaPublicKey)
	require.NoError(t, err)
	assert.Equal(t, der, enc)
	// EncodeCanonical does not replace the cache.
	cached, err := c.Encoded()
	require.NoError(t, err)
	assert.Equal(t, ber, cached)

	require.NoError(t, c.Put("modulus", 5))
	assert.False(t, c.HasEncoded())
	_, err = c.Encoded()
	assert.ErrorIs(t, err, ErrUnavailableEncoding)

	enc, err = Encode(v, rsaPublicKey)
	require.NoError(t, err)
	assert.Equal(t, der, enc)
	cached, err = c.Encoded()
	require.NoError(t, err)
	assert.Equal(t, der, cached)

	// Encoding a second time yields the same bytes.
	again, err := Encode(v, rsaPublicKey)
	require.NoError(t, err)
	assert.Equal(t, enc, again)
}

func TestEncode_Of(t *testing.T) {
	elems := []any{3, 1, 256}
	tests := map[string]struct {
		s    *schema.Schema
		want []byte
	}{
		"SetOf":      {schema.SetOf(schema.Integer()), []byte{0x31, 0x0A, 0x02, 0x01, 0x01, 0x02, 0x01, 0x03, 0x02, 0x02, 0x01, 0x00}},
		"SequenceOf": {schema.SequenceOf(schema.Integer()), []byte{0x30, 0x0A, 0x02, 0x01, 0x03, 0x02, 0x01, 0x01, 0x02, 0x02, 0x01, 0x00}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			v, err := ValueOf(tc.s, elems)
			require.NoError(t, err)
			enc, err := Encode(v, tc.s)
			require.NoError(t, err)
			assert.Equal(t, tc.want, enc)
		})
	}
}

func TestEncode_Tagging(t *testing.T) {
	tests := map[string]struct {
		opt  schema.Option
		want []byte
	}{
		"Explicit":    {schema.Explicit(0), []byte{0x30, 0x05, 0xA0, 0x03, 0x02, 0x01, 0x02}},
		"Implicit":    {schema.Implicit(1), []byte{0x30, 0x03, 0x81, 0x01, 0x02}},
		"Application": {schema.Tags("tag:2,application"), []byte{0x30, 0x03, 0x42, 0x01, 0x02}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			s := schema.Sequence(schema.Field("v", schema.Integer(), tc.opt))
			v, err := ValueOf(s, map[string]any{"v": 2})
			require.NoError(t, err)
			enc, err := Encode(v, s)
			require.NoError(t, err)
			assert.Equal(t, tc.want, enc)

			got, err := Decode(enc, s, nil)
			require.NoError(t, err)
			assert.True(t, Equal(v, got))
		})
	}
}

func TestEncode_Retag(t *testing.T) {
	inner := schema.Sequence(schema.Field("x", schema.Integer()))
	s := schema.Sequence(schema.Field("a", inner, schema.Implicit(0)))
	x, err := Decode([]byte{0x30, 0x03, 0x02, 0x01, 0x05}, inner, nil)
	require.NoError(t, err)

	c := NewConstructed(s)
	require.NoError(t, c.Set("a", x))
	enc, err := Encode(c, s)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x30, 0x05, 0xA0, 0x03, 0x02, 0x01, 0x05}, enc)
}

func TestEncode_Encapsulated(t *testing.T) {
	inner := schema.Sequence(schema.Field("x", schema.Integer()))
	x, err := ValueOf(inner, map[string]any{"x": 5})
	require.NoError(t, err)
	tests := map[string]struct {
		s    *schema.Schema
		want []byte
	}{
		"OctetString": {schema.OctetString(), []byte{0x30, 0x07, 0x04, 0x05, 0x30, 0x03, 0x02, 0x01, 0x05}},
		"BitString":   {schema.BitString(), []byte{0x30, 0x08, 0x03, 0x06, 0x00, 0x30, 0x03, 0x02, 0x01, 0x05}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			s := schema.Sequence(schema.Field("data", tc.s))
			c := NewConstructed(s)
			require.NoError(t, c.Set("data", x))
			enc, err := Encode(c, s)
			require.NoError(t, err)
			assert.Equal(t, tc.want, enc)
		})
	}
}

func TestEncode_Intrinsic(t *testing.T) {
	s := schema.Sequence(
		schema.Field("any", schema.Any()),
		schema.Field("wrapped", schema.OctetString()),
	)
	c := NewConstructed(s)
	require.NoError(t, c.Set("any", NewInteger(5)))
	require.NoError(t, c.Set("wrapped", BitString{BitString: asn1map.BitString{Bytes: []byte{0x80}, BitLength: 1}}))
	enc, err := Encode(c, s)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x30, 0x09, 0x02, 0x01, 0x05, 0x04, 0x04, 0x03, 0x02, 0x07, 0x80}, enc)

	require.NoError(t, c.Set("any", String("text")))
	_, err = Encode(c, s)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestEncode_Any(t *testing.T) {
	s := schema.Sequence(
		schema.Field("algorithm", schema.ObjectIdentifier()),
		schema.Field("parameters", schema.Any(), schema.Optional()),
	)
	v, err := ValueOf(s, map[string]any{
		"algorithm":  "1.2.840.113549.1.1.1",
		"parameters": []byte{0x05, 0x00},
	})
	require.NoError(t, err)
	enc, err := Encode(v, s)
	require.NoError(t, err)
	want := []byte{0x30, 0x0D, 0x06, 0x09, 0x2A, 0x86, 0x48, 0x86, 0xF7, 0x0D, 0x01, 0x01, 0x01, 0x05, 0x00}
	assert.Equal(t, want, enc)

	got, err := Decode(want, s, nil)
	require.NoError(t, err)
	params := get(t, got, "parameters")
	require.IsType(t, Raw{}, params)
	assert.Equal(t, []byte{0x05, 0x00}, params.(Raw).Bytes)

	_, err = ValueOf(s, map[string]any{"parameters": []byte{0x05}})
	assert.Error(t, err)
}

func TestEncode_Errors(t *testing.T) {
	c := NewConstructed(rsaPublicKey)
	require.NoError(t, c.Put("modulus", 5))
	_, err := Encode(c, rsaPublicKey)
	require.ErrorIs(t, err, ErrMissingField)
	var encErr *EncodeError
	require.True(t, errors.As(err, &encErr))
	assert.Equal(t, "publicExponent", encErr.Path)
	assert.EqualError(t, err, "ber: encoding error at publicExponent: missing required field")

	_, err = Encode(Boolean(true), schema.Integer())
	assert.ErrorIs(t, err, ErrSchemaMismatch)
	_, err = Encode(c, schema.Integer())
	assert.ErrorIs(t, err, ErrSchemaMismatch)
	_, err = Encode(Choice{Name: "nope", Value: Null{}}, schema.Choice(schema.Field("n", schema.Null())))
	assert.ErrorIs(t, err, ErrSchemaMismatch)
	_, err = Encode(nil, schema.Null())
	assert.Error(t, err)
}
