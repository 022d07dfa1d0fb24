// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"codello.dev/asn1map/schemas"
)

func newSchemasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List the built-in schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range schemas.Names() {
				s, _ := schemas.Lookup(name)
				fmt.Fprintf(w, "%s\t%s\n", name, s)
			}
			return w.Flush()
		},
	}
}
