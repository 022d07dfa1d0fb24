// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlv

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"codello.dev/asn1map"
)

// DumpWidth is the maximum number of content bytes [Dump] prints for a
// primitive data value.
const DumpWidth = 32

// Dump writes a human-readable representation of the tree rooted at n to w.
// Every data value is written on its own line in a format similar to the one
// used by "openssl asn1parse": offset, depth, header length, content length,
// encoding and type name. Primitive contents are printed in hexadecimal.
func Dump(w io.Writer, n *Node) error {
	return dump(w, n, 0)
}

func dump(w io.Writer, n *Node, depth int) error {
	enc := "prim"
	if n.Constructed {
		enc = "cons"
	}
	length := "inf"
	if n.Length != LengthIndefinite {
		length = fmt.Sprint(n.Length)
	}
	name := n.Tag.String()
	if n.Tag.Class == asn1map.ClassUniversal {
		name = asn1map.TypeName(n.Tag.Number)
	}
	line := fmt.Sprintf("%5d:d=%-2d hl=%d l=%4s %s: %s%s", n.Offset, depth, n.HeaderLen, length, enc, strings.Repeat("  ", depth), name)
	if !n.Constructed && len(n.Content) > 0 {
		c := n.Content
		suffix := ""
		if len(c) > DumpWidth {
			c, suffix = c[:DumpWidth], "..."
		}
		line += " " + strings.ToUpper(hex.EncodeToString(c)) + suffix
	}
	if n.Err != nil {
		line += " !" + n.Err.Error()
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := dump(w, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}
