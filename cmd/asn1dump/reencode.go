// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"codello.dev/asn1map/ber"
)

func newReencodeCmd(cfg *config) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "reencode <schema> <file>",
		Short: "Convert the input to DER",
		Long: `The reencode command decodes the input with a schema and writes its DER
encoding. The output is hexadecimal unless --raw is given. PEM input is
written as PEM with the same block type.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReencode(cmd, cfg, args[0], args[1], raw)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Write binary output")
	return cmd
}

func runReencode(cmd *cobra.Command, cfg *config, name, file string, raw bool) error {
	s, err := lookup(name)
	if err != nil {
		return err
	}
	data, blockType, err := cfg.readInput(cmd, file)
	if err != nil {
		return err
	}
	opts := cfg.options(cmd)
	v, err := ber.Decode(data, s, opts)
	if err != nil {
		return err
	}
	der, err := ber.EncodeCanonical(v, s)
	if err != nil {
		return err
	}
	if !bytes.Equal(der, data) {
		opts.Logger.Debug("encoding changed", slog.Int("in", len(data)), slog.Int("out", len(der)))
	}

	w := cmd.OutOrStdout()
	switch {
	case cfg.pem:
		return pem.Encode(w, &pem.Block{Type: blockType, Bytes: der})
	case raw:
		_, err = w.Write(der)
	default:
		_, err = fmt.Fprintln(w, hex.EncodeToString(der))
	}
	return err
}
