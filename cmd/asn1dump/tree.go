// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"codello.dev/asn1map/tlv"
)

func newTreeCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "tree <file>",
		Short: "Print the TLV structure of the input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd, cfg, args[0])
		},
	}
}

func runTree(cmd *cobra.Command, cfg *config, name string) error {
	data, _, err := cfg.readInput(cmd, name)
	if err != nil {
		return err
	}
	p := tlv.Parser{Guard: tlv.NewGuard(cfg.maxDepth), Tolerant: cfg.tolerant}
	n, err := p.ParseAll(data)
	if n == nil || (err != nil && !cfg.tolerant) {
		return err
	}
	if err != nil {
		cfg.logger(cmd).Warn("ignoring trailing data", slog.Int("offset", n.End()))
	}
	return tlv.Dump(cmd.OutOrStdout(), n)
}
