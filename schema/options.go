// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"math/bits"
	"strconv"
	"strings"

	"codello.dev/asn1map"
)

// An Option modifies a schema. Options are applied by [Field] and [With].
type Option func(*Schema)

// With returns a copy of s with opts applied. If no options are given, s is
// returned unchanged.
func With(s *Schema, opts ...Option) *Schema {
	if len(opts) == 0 {
		return s
	}
	c := *s
	if s.Tagging != nil {
		t := *s.Tagging
		c.Tagging = &t
	}
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// Optional marks a component as OPTIONAL.
func Optional() Option {
	return func(s *Schema) { s.Optional = true }
}

// Default sets the DEFAULT value of a component. The value must be
// convertible to the type of the component.
func Default(v any) Option {
	return func(s *Schema) { s.Default = v }
}

// Implicit replaces the tag of the type with the context-specific tag number n.
// Use [Application] or [Private] to change the class.
func Implicit(n uint) Option {
	return func(s *Schema) {
		s.Tagging = &Tagging{Class: asn1map.ClassContextSpecific, Number: n}
	}
}

// Explicit wraps the type in a constructed encoding with the context-specific
// tag number n. Use [Application] or [Private] to change the class.
func Explicit(n uint) Option {
	return func(s *Schema) {
		s.Tagging = &Tagging{Class: asn1map.ClassContextSpecific, Number: n, Explicit: true}
	}
}

// Application changes the class of the tagging to APPLICATION. It must follow
// [Implicit] or [Explicit].
func Application() Option { return class(asn1map.ClassApplication) }

// Private changes the class of the tagging to PRIVATE. It must follow
// [Implicit] or [Explicit].
func Private() Option { return class(asn1map.ClassPrivate) }

func class(c asn1map.Class) Option {
	return func(s *Schema) {
		if s.Tagging != nil {
			s.Tagging.Class = c
		}
	}
}

// Min sets the minimum number of elements of a SEQUENCE OF or SET OF.
func Min(n int) Option {
	return func(s *Schema) { s.Min = n }
}

// Max sets the maximum number of elements of a SEQUENCE OF or SET OF.
func Max(n int) Option {
	return func(s *Schema) { s.Max = n }
}

// Names assigns symbolic names to INTEGER or ENUMERATED values or to the bits
// of a BIT STRING.
func Names(names map[int64]string) Option {
	return func(s *Schema) { s.Names = names }
}

// Tags parses modifiers from a comma separated string in the notation known
// from struct tags of encoding packages:
//
//	tag:x       specifies the tag number; implies CONTEXT SPECIFIC
//	application specifies that an APPLICATION tag is used
//	private     specifies that a PRIVATE tag is used
//	universal   specifies that a UNIVERSAL tag is used
//	explicit    marks the tag as explicit
//	optional    marks the component as OPTIONAL
//
// Unknown parts are ignored. For example Tags("tag:0,explicit,optional") is
// equivalent to the options Explicit(0) and Optional().
func Tags(str string) Option {
	var (
		tag      *Tagging
		explicit bool
		optional bool
		hasClass bool
		c        asn1map.Class
	)
	for part := range strings.SplitSeq(str, ",") {
		switch part = strings.TrimSpace(part); {
		case part == "optional":
			optional = true
		case part == "explicit":
			explicit = true
		case strings.HasPrefix(part, "tag:"):
			i, err := strconv.ParseUint(part[4:], 10, bits.UintSize)
			if err == nil {
				tag = &Tagging{Class: asn1map.ClassContextSpecific, Number: uint(i)}
			}
		case part == "application":
			c, hasClass = asn1map.ClassApplication, true
		case part == "private":
			c, hasClass = asn1map.ClassPrivate, true
		case part == "universal":
			c, hasClass = asn1map.ClassUniversal, true
		}
	}
	return func(s *Schema) {
		if tag != nil {
			t := *tag
			t.Explicit = explicit
			if hasClass {
				t.Class = c
			}
			s.Tagging = &t
		}
		if optional {
			s.Optional = true
		}
	}
}
