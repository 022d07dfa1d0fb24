// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codello.dev/asn1map"
	"codello.dev/asn1map/tlv"
)

func TestFlatten(t *testing.T) {
	tests := map[string]struct {
		data    []byte
		want    []byte
		wantErr error
	}{
		"Primitive": {[]byte{0x04, 0x03, 0x54, 0x65, 0x65}, []byte("Tee"), nil},
		"Constructed": {[]byte{0x33, 0x0f,
			0x13, 0x05, 0x54, 0x65, 0x73, 0x74, 0x20,
			0x13, 0x06, 0x55, 0x73, 0x65, 0x72, 0x20, 0x31}, []byte("Test " + "User 1"), nil},
		"IndefiniteLength": {[]byte{0x33, 0x80,
			0x13, 0x05, 0x54, 0x65, 0x73, 0x74, 0x20,
			0x13, 0x06, 0x55, 0x73, 0x65, 0x72, 0x20, 0x31,
			0x00, 0x00}, []byte("Test " + "User 1"), nil},
		"EmptySegments": {[]byte{0x33, 0x10,
			0x13, 0x00, // empty primitive
			0x33, 0x00, // empty constructed
			0x33, 0x80, 0x00, 0x00, // empty indefinite constructed
			0x13, 0x06, 0x55, 0x73, 0x65, 0x72, 0x20, 0x31}, []byte("User 1"), nil},
		"NestedConstructed": {[]byte{0x33, 0x10,
			0x33, 0x06, 0x33, 0x04, 0x13, 0x02, 0x54, 0x65,
			0x13, 0x06, 0x55, 0x73, 0x65, 0x72, 0x20, 0x31}, []byte("TeUser 1"), nil},
		"HeaderMismatch": {[]byte{0x33, 0x06,
			0x0C, 0x04, 0x54, 0x65, 0x73, 0x74}, nil, ErrSchemaMismatch},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			n, err := tlv.ParseAll(tc.data, nil)
			require.NoError(t, err)
			g := tlv.NewGuard(0)
			got, err := flatten(n, asn1map.Universal(n.Tag.Number), g)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Zero(t, g.Depth())
		})
	}
}

func TestFlatten_Depth(t *testing.T) {
	// OCTET STRING nested in 10 constructed levels
	data := []byte{0x04, 0x01, 0xAB}
	for range 10 {
		data = append(tlv.AppendHeader(nil, tlv.Header{Tag: asn1map.Universal(asn1map.TagOctetString), Constructed: true, Length: len(data)}), data...)
	}
	n, err := tlv.ParseAll(data, nil)
	require.NoError(t, err)

	got, err := flatten(n, asn1map.Universal(asn1map.TagOctetString), tlv.NewGuard(10))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAB}, got)

	_, err = flatten(n, asn1map.Universal(asn1map.TagOctetString), tlv.NewGuard(9))
	assert.ErrorIs(t, err, ErrExcessiveDepth)
}

func TestDecodeString(t *testing.T) {
	tests := map[string]struct {
		number  uint
		data    []byte
		want    string
		wantErr bool
	}{
		"UTF8":               {asn1map.TagUTF8String, []byte{0x68, 0xC3, 0xA9}, "hé", false},
		"UTF8Invalid":        {asn1map.TagUTF8String, []byte{0xFF}, "", true},
		"BMP":                {asn1map.TagBMPString, []byte{0x00, 0x68, 0x00, 0xE9}, "hé", false},
		"BMPOdd":             {asn1map.TagBMPString, []byte{0x00, 0x68, 0x00}, "", true},
		"Universal":          {asn1map.TagUniversalString, []byte{0x00, 0x01, 0xF6, 0x00}, "😀", false},
		"UniversalLength":    {asn1map.TagUniversalString, []byte{0x00, 0x00, 0x41}, "", true},
		"Teletex":            {asn1map.TagTeletexString, []byte{0x68, 0xE9}, "hé", false},
		"Printable":          {asn1map.TagPrintableString, []byte("Test"), "Test", false},
		"IA5":                {asn1map.TagIA5String, []byte("a@b"), "a@b", false},
		"General":            {asn1map.TagGeneralString, []byte{0xFC}, "ü", false},
		"EmptyBMP":           {asn1map.TagBMPString, nil, "", false},
		"EmptyUniversal":     {asn1map.TagUniversalString, []byte{}, "", false},
		"VisibleUnvalidated": {asn1map.TagVisibleString, []byte("x"), "x", false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := decodeString(tc.number, tc.data)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEncodeString(t *testing.T) {
	tests := map[string]struct {
		number  uint
		s       string
		want    []byte
		wantErr bool
	}{
		"UTF8":              {asn1map.TagUTF8String, "hé", []byte{0x68, 0xC3, 0xA9}, false},
		"BMP":               {asn1map.TagBMPString, "hé", []byte{0x00, 0x68, 0x00, 0xE9}, false},
		"BMPOutOfRange":     {asn1map.TagBMPString, "😀", nil, true},
		"Universal":         {asn1map.TagUniversalString, "😀", []byte{0x00, 0x01, 0xF6, 0x00}, false},
		"Teletex":           {asn1map.TagTeletexString, "hé", []byte{0x68, 0xE9}, false},
		"TeletexOutOfRange": {asn1map.TagTeletexString, "€", nil, true},
		"Printable":         {asn1map.TagPrintableString, "Test", []byte("Test"), false},
		"PrintableInvalid":  {asn1map.TagPrintableString, "a@b", nil, true},
		"Numeric":           {asn1map.TagNumericString, "123 4", []byte("123 4"), false},
		"NumericInvalid":    {asn1map.TagNumericString, "12a", nil, true},
		"IA5Invalid":        {asn1map.TagIA5String, "ü", nil, true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := encodeString(tc.number, tc.s)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
