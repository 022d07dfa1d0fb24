// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"codello.dev/asn1map/ber"
	"codello.dev/asn1map/schemas"
)

// config holds the values of the global flags.
type config struct {
	tolerant bool
	maxDepth int
	lazy     bool
	verbose  bool
	pem      bool
	noRules  bool
}

func newRootCmd() *cobra.Command {
	cfg := &config{}
	cmd := &cobra.Command{
		Use:   "asn1dump",
		Short: "Inspect BER and DER encoded data",
		Long: `asn1dump prints the structure of BER and DER encoded data. Data can be
printed as a plain TLV tree or mapped onto one of the built-in schemas.

Example:
  asn1dump tree cert.der
  asn1dump map --pem PrivateKeyInfo key.pem
  asn1dump map --tolerant SubjectPublicKeyInfo broken.der
  asn1dump reencode RSAPublicKey key.ber > key.der`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.PersistentFlags()
	flags.BoolVar(&cfg.tolerant, "tolerant", false, "Record malformed fields instead of failing")
	flags.IntVar(&cfg.maxDepth, "max-depth", 0, "Maximum nesting depth (0 = default)")
	flags.BoolVar(&cfg.lazy, "lazy", false, "Decode constructed values on first access")
	flags.BoolVarP(&cfg.verbose, "verbose", "v", false, "Log tolerated errors to stderr")
	flags.BoolVar(&cfg.pem, "pem", false, "Read PEM instead of binary input")
	flags.BoolVar(&cfg.noRules, "no-rules", false, "Do not decode nested encodings")

	cmd.AddCommand(
		newTreeCmd(cfg),
		newMapCmd(cfg),
		newReencodeCmd(cfg),
		newSchemasCmd(),
	)
	return cmd
}

// logger returns the logger for cmd. Debug messages are only written in
// verbose mode.
func (c *config) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// options returns the decoding options selected by the flags.
func (c *config) options(cmd *cobra.Command) *ber.Options {
	opts := &ber.Options{
		Tolerant: c.tolerant,
		MaxDepth: c.maxDepth,
		Lazy:     c.lazy,
		Logger:   c.logger(cmd),
	}
	if !c.noRules {
		opts.Rules = schemas.Rules()
	}
	return opts
}

var errNoPEM = errors.New("no PEM block found")

// readInput reads the file name, or standard input if name is "-". If PEM
// input is selected, the contents of the first PEM block are returned together
// with its type.
func (c *config) readInput(cmd *cobra.Command, name string) ([]byte, string, error) {
	var data []byte
	var err error
	if name == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, "", err
	}
	if !c.pem {
		return data, "", nil
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, "", fmt.Errorf("%s: %w", name, errNoPEM)
	}
	return block.Bytes, block.Type, nil
}
