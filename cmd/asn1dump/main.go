// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command asn1dump inspects BER and DER encoded data.
//
// Usage:
//
//	asn1dump tree [flags] <file>
//	asn1dump map [flags] <schema> <file>
//	asn1dump reencode [flags] <schema> <file>
//	asn1dump schemas
//
// The tree command prints the TLV structure of the input without a schema.
// The map command decodes the input with one of the schemas listed by the
// schemas command and prints the result as JSON. The reencode command decodes
// the input and writes its DER encoding. A file name of "-" reads standard
// input.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "asn1dump:", err)
		os.Exit(1)
	}
}
