// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber_test

import (
	"fmt"

	"codello.dev/asn1map/ber"
	"codello.dev/asn1map/schema"
)

func Example() {
	rsaPublicKey := schema.Sequence(
		schema.Field("modulus", schema.Integer()),
		schema.Field("publicExponent", schema.Integer()),
	)
	data := []byte{0x30, 0x08, 0x02, 0x03, 0x01, 0x00, 0x01, 0x02, 0x01, 0x03}
	v, err := ber.Decode(data, rsaPublicKey, nil)
	if err != nil {
		panic(err)
	}
	key := v.(ber.Constructed)
	e, _ := key.Get("publicExponent")
	fmt.Println("publicExponent:", e)

	if err = key.Put("publicExponent", 65537); err != nil {
		panic(err)
	}
	enc, err := ber.Encode(key, rsaPublicKey)
	if err != nil {
		panic(err)
	}
	fmt.Printf("% X\n", enc)
	// Output:
	// publicExponent: 3
	// 30 0A 02 03 01 00 01 02 03 01 00 01
}

func ExampleOptions_tolerant() {
	s := schema.Sequence(
		schema.Field("a", schema.Integer()),
		schema.Field("b", schema.Boolean()),
	)
	data := []byte{0x30, 0x07, 0x02, 0x01, 0x01, 0x01, 0x02, 0xFF, 0xFF}
	v, err := ber.Decode(data, s, &ber.Options{Tolerant: true})
	if err != nil {
		panic(err)
	}
	b, _ := v.(ber.Constructed).Get("b")
	fmt.Printf("%T\n", b)
	// Output:
	// ber.Malformed
}
