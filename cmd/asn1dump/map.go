// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"codello.dev/asn1map/ber"
	"codello.dev/asn1map/schema"
	"codello.dev/asn1map/schemas"
)

func newMapCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "map <schema> <file>",
		Short: "Decode the input with a schema and print it as JSON",
		Long: `The map command decodes the input with one of the built-in schemas and
prints the result as JSON. INTEGER values are printed as numbers or names,
OCTET STRING values in base64. Use the schemas command to list the schemas.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(cmd, cfg, args[0], args[1])
		},
	}
}

// lookup returns the built-in schema with the given name.
func lookup(name string) (*schema.Schema, error) {
	s, ok := schemas.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	return s, nil
}

func runMap(cmd *cobra.Command, cfg *config, name, file string) error {
	s, err := lookup(name)
	if err != nil {
		return err
	}
	data, _, err := cfg.readInput(cmd, file)
	if err != nil {
		return err
	}
	v, err := ber.Decode(data, s, cfg.options(cmd))
	if err != nil {
		return err
	}
	x, err := ber.Export(v)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(x)
}
