// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ber maps BER encoded data onto schemas and encodes the resulting
// values using the Distinguished Encoding Rules (DER). The Basic Encoding Rules
// are defined in [Rec. ITU-T X.690].
// See also “[A Layman's Guide to a Subset of ASN.1, BER, and DER]”.
//
// [Decode] parses a buffer into a tree of [tlv.Node] values and maps that tree
// onto a [schema.Schema]. The result is a [Value]: SEQUENCE and SET types
// become [Constructed] values, CHOICE types become [Choice] values and
// primitive types become one of the scalar value types of this package.
//
// # Constructed Values
//
// A [Constructed] value remembers the bytes it was decoded from. As long as it
// is not modified, [Encode] reproduces those bytes exactly, even if the input
// was not DER. Modifying a value through [Constructed.Set],
// [Constructed.Unset] or similar methods discards the remembered encoding of
// the value and of every enclosing value. [EncodeCanonical] ignores
// remembered encodings and always produces DER.
//
// Constructed values of a single decode live in a common [Tree]. Assigning a
// constructed value to a field copies it into the tree of the receiver, so
// every value has exactly one parent.
//
// # Failure Handling
//
// By default the first error aborts decoding. If [Options.Tolerant] is set,
// errors that can be attributed to a single field are recorded as [Malformed]
// values instead and decoding continues. Exceeding the nesting limit always
// aborts.
//
// [Rec. ITU-T X.690]: https://www.itu.int/rec/T-REC-X.690
// [A Layman's Guide to a Subset of ASN.1, BER, and DER]: http://luca.ntop.org/Teaching/Appunti/asn1.html
package ber

import (
	"log/slog"
	"strings"

	"codello.dev/asn1map/schema"
	"codello.dev/asn1map/tlv"
)

// Options configure a decoding operation. A nil *Options is equivalent to the
// zero value.
type Options struct {
	// Tolerant records field level errors as [Malformed] values instead of
	// failing.
	Tolerant bool

	// MaxDepth limits the nesting depth of data values. If zero,
	// [tlv.DefaultMaxDepth] is used.
	MaxDepth int

	// Lazy defers mapping the fields of constructed values until they are
	// first accessed. Errors in deferred fields are reported by the accessing
	// method.
	Lazy bool

	// Rules are applied to fields after they have been mapped. See [Rule] for
	// details.
	Rules map[string]Rule

	// Logger receives debug messages about tolerated errors. If nil, nothing is
	// logged.
	Logger *slog.Logger
}

var discardLogger = slog.New(slog.DiscardHandler)

// orDefault returns a copy of o, or the default options if o is nil.
func (o *Options) orDefault() Options {
	if o == nil {
		return Options{}
	}
	return *o
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return discardLogger
	}
	return o.Logger
}

// rule returns the rule for the field at path. Rules registered for the full
// path take precedence over rules registered for the field name alone.
func (o *Options) rule(path string) Rule {
	if len(o.Rules) == 0 {
		return nil
	}
	pattern := rulePattern(path)
	if r, ok := o.Rules[pattern]; ok {
		return r
	}
	return o.Rules[pattern[strings.LastIndexByte(pattern, '/')+1:]]
}

// rulePattern replaces element indices in path with "*".
func rulePattern(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if isIndex(p) {
			parts[i] = "*"
		}
	}
	return strings.Join(parts, "/")
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// A Rule post-processes the value of a field after it has been mapped. Rules
// are registered in [Options.Rules] under the slash separated path of the field
// (element indices of SEQUENCE OF and SET OF are written as "*") or under the
// bare field name. The value returned by the rule replaces the mapped value.
//
// A typical rule decodes the contents of an OCTET STRING with another schema.
// Such a value is encapsulated again when encoding.
type Rule func(ctx RuleContext, v Value) (Value, error)

// RuleContext describes the field a [Rule] is applied to.
type RuleContext struct {
	// Path of the field, e.g. "tbsCertificate/extensions/0/extnValue".
	Path string
	// Parent is the value containing the field. Fields preceding the field in
	// decoding order are available.
	Parent Constructed
	// Schema of the field.
	Schema *schema.Schema
	// Options of the decoding operation.
	Options *Options

	guard *tlv.Guard
}

// Decode decodes b with s as part of the decoding operation the rule is
// applied in. Nesting in b counts towards the depth limit of that operation,
// starting at the depth of the field. Use Decode instead of the package level
// function to decode encapsulated data.
func (ctx RuleContext) Decode(b []byte, s *schema.Schema) (Value, error) {
	o := ctx.Options.orDefault()
	g := ctx.guard
	if g == nil {
		g = o.newGuard()
	}
	return decode(b, s, o, g)
}

// newGuard returns the depth guard for a decoding operation with o.
func (o *Options) newGuard() *tlv.Guard {
	return tlv.NewGuard(o.MaxDepth)
}
