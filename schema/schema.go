// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package schema defines the vocabulary used to describe ASN.1 data
// structures at runtime. A [Schema] is a tree of nodes, each of which has one
// of a closed set of kinds: SEQUENCE, SET, CHOICE, a primitive type, or ANY.
// SEQUENCE OF and SET OF are SEQUENCE and SET schemas with an element schema.
//
// Schemas are built with the constructor functions of this package:
//
//	Certificate := schema.Sequence(
//		schema.Field("tbsCertificate", TBSCertificate),
//		schema.Field("signatureAlgorithm", AlgorithmIdentifier),
//		schema.Field("signature", schema.BitString()),
//	)
//
// Modifiers such as [Optional], [Default], [Implicit] or [Explicit] are
// passed to [Field]. They never modify the schema passed in, so a schema can be
// shared between many fields with different modifiers. Schemas must not be
// modified after they have been used for decoding or encoding.
package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"codello.dev/asn1map"
)

// Kind identifies the kind of a [Schema] node.
//
//go:generate stringer -type=Kind -trimprefix=Kind
type Kind uint8

// The possible [Kind] values.
const (
	KindPrimitive Kind = iota
	KindSequence
	KindSet
	KindChoice
	KindAny
)

// Tagging describes a tag that replaces (implicit tagging) or wraps (explicit
// tagging) the intrinsic tag of a type.
type Tagging struct {
	Class    asn1map.Class
	Number   uint
	Explicit bool
}

// Tag returns the tag described by t.
func (t Tagging) Tag() asn1map.Tag {
	return asn1map.Tag{Class: t.Class, Number: t.Number}
}

// Schema describes an ASN.1 type. The zero value is not a valid schema, use
// the constructor functions of this package instead.
type Schema struct {
	Kind Kind

	// Type is the universal tag number of a primitive type. For SEQUENCE and
	// SET schemas it is [asn1map.TagSequence] or [asn1map.TagSet]. It is zero
	// for CHOICE and ANY.
	Type uint

	// Components holds the named components of SEQUENCE, SET and CHOICE types.
	Components []Component

	// Elem is the element type of SEQUENCE OF and SET OF types.
	Elem *Schema
	// Min and Max bound the number of elements of SEQUENCE OF and SET OF
	// types. A negative Max means unbounded.
	Min, Max int

	// Optional marks a component that may be absent.
	Optional bool
	// Default holds the default value of a component. A component with a
	// default value is implicitly optional.
	Default any

	// Tagging overrides the intrinsic tag of the type, if non-nil.
	Tagging *Tagging

	// Names assigns symbolic names to INTEGER and ENUMERATED values and to the
	// bits of a BIT STRING.
	Names map[int64]string
}

// Component is a named element of a SEQUENCE, SET or CHOICE.
type Component struct {
	Name string
	*Schema
}

// Field returns a component named name with schema s. The options are applied
// to a copy of s.
func Field(name string, s *Schema, opts ...Option) Component {
	return Component{name, With(s, opts...)}
}

func constructed(kind Kind, number uint, cs []Component) *Schema {
	return &Schema{Kind: kind, Type: number, Components: cs, Max: -1}
}

// Sequence returns a SEQUENCE schema with the given components in order.
func Sequence(cs ...Component) *Schema {
	return constructed(KindSequence, asn1map.TagSequence, cs)
}

// Set returns a SET schema with the given components.
func Set(cs ...Component) *Schema {
	return constructed(KindSet, asn1map.TagSet, cs)
}

// Choice returns a CHOICE schema with the given alternatives. Alternatives are
// tried in order.
func Choice(cs ...Component) *Schema {
	return constructed(KindChoice, 0, cs)
}

// SequenceOf returns a SEQUENCE OF schema. Options such as [Min] and [Max]
// apply to the SEQUENCE OF, not to elem.
func SequenceOf(elem *Schema, opts ...Option) *Schema {
	s := constructed(KindSequence, asn1map.TagSequence, nil)
	s.Elem = elem
	return With(s, opts...)
}

// SetOf returns a SET OF schema. Options such as [Min] and [Max] apply to the
// SET OF, not to elem.
func SetOf(elem *Schema, opts ...Option) *Schema {
	s := constructed(KindSet, asn1map.TagSet, nil)
	s.Elem = elem
	return With(s, opts...)
}

// Any returns a schema that matches any single data value. The value is kept
// in its encoded form.
func Any() *Schema { return &Schema{Kind: KindAny, Max: -1} }

// Primitive returns the schema of the primitive universal type with the given
// tag number.
func Primitive(number uint) *Schema {
	return &Schema{Kind: KindPrimitive, Type: number, Max: -1}
}

func Boolean() *Schema          { return Primitive(asn1map.TagBoolean) }
func Integer() *Schema          { return Primitive(asn1map.TagInteger) }
func OctetString() *Schema      { return Primitive(asn1map.TagOctetString) }
func Null() *Schema             { return Primitive(asn1map.TagNull) }
func ObjectIdentifier() *Schema { return Primitive(asn1map.TagOID) }
func UTCTime() *Schema          { return Primitive(asn1map.TagUTCTime) }
func GeneralizedTime() *Schema  { return Primitive(asn1map.TagGeneralizedTime) }
func UTF8String() *Schema       { return Primitive(asn1map.TagUTF8String) }
func NumericString() *Schema    { return Primitive(asn1map.TagNumericString) }
func PrintableString() *Schema  { return Primitive(asn1map.TagPrintableString) }
func TeletexString() *Schema    { return Primitive(asn1map.TagTeletexString) }
func VideotexString() *Schema   { return Primitive(asn1map.TagVideotexString) }
func IA5String() *Schema        { return Primitive(asn1map.TagIA5String) }
func GraphicString() *Schema    { return Primitive(asn1map.TagGraphicString) }
func VisibleString() *Schema    { return Primitive(asn1map.TagVisibleString) }
func GeneralString() *Schema    { return Primitive(asn1map.TagGeneralString) }
func UniversalString() *Schema  { return Primitive(asn1map.TagUniversalString) }
func BMPString() *Schema        { return Primitive(asn1map.TagBMPString) }

// Enumerated returns an ENUMERATED schema with the given value names.
func Enumerated(names map[int64]string) *Schema {
	s := Primitive(asn1map.TagEnumerated)
	s.Names = names
	return s
}

// BitString returns a BIT STRING schema. If names are given, the bit string
// is a named bit list and the names identify bit positions.
func BitString(names ...map[int64]string) *Schema {
	s := Primitive(asn1map.TagBitString)
	if len(names) > 0 {
		s.Names = names[0]
	}
	return s
}

// IsOf reports whether s is a SEQUENCE OF or SET OF schema.
func (s *Schema) IsOf() bool {
	return s.Elem != nil
}

// IsString reports whether s is a character string type.
func (s *Schema) IsString() bool {
	if s.Kind != KindPrimitive {
		return false
	}
	switch s.Type {
	case asn1map.TagUTF8String, asn1map.TagNumericString, asn1map.TagPrintableString,
		asn1map.TagTeletexString, asn1map.TagVideotexString, asn1map.TagIA5String,
		asn1map.TagGraphicString, asn1map.TagVisibleString, asn1map.TagGeneralString,
		asn1map.TagUniversalString, asn1map.TagBMPString:
		return true
	}
	return false
}

// HasDefault reports whether s has a default value.
func (s *Schema) HasDefault() bool {
	return s.Default != nil
}

// IsOptional reports whether a component with schema s may be absent from an
// encoding.
func (s *Schema) IsOptional() bool {
	return s.Optional || s.HasDefault()
}

// UniversalTag returns the intrinsic tag of s, ignoring any tagging. CHOICE and
// ANY have no intrinsic tag.
func (s *Schema) UniversalTag() (asn1map.Tag, bool) {
	if s.Kind == KindChoice || s.Kind == KindAny {
		return asn1map.Tag{}, false
	}
	return asn1map.Universal(s.Type), true
}

// Tag returns the outermost tag of an encoding of s. The second return value
// is false for untagged CHOICE and ANY types, whose tag depends on the value.
func (s *Schema) Tag() (asn1map.Tag, bool) {
	if s.Tagging != nil {
		return s.Tagging.Tag(), true
	}
	return s.UniversalTag()
}

// IsExplicit reports whether the tagging of s wraps the intrinsic encoding.
// Tagged CHOICE and ANY types are always explicitly tagged.
func (s *Schema) IsExplicit() bool {
	if s.Tagging == nil {
		return false
	}
	return s.Tagging.Explicit || s.Kind == KindChoice || s.Kind == KindAny
}

// Untagged returns a copy of s without tagging and without component
// modifiers. It describes the type inside an explicit tag.
func (s *Schema) Untagged() *Schema {
	c := *s
	c.Tagging = nil
	c.Optional = false
	c.Default = nil
	return &c
}

// Lookup returns the component with the given name and its index.
func (s *Schema) Lookup(name string) (Component, int, bool) {
	for i, c := range s.Components {
		if c.Name == name {
			return c, i, true
		}
	}
	return Component{}, -1, false
}

// NameOf returns the symbolic name of v.
func (s *Schema) NameOf(v int64) (string, bool) {
	name, ok := s.Names[v]
	return name, ok
}

// ValueOf returns the value with the symbolic name.
func (s *Schema) ValueOf(name string) (int64, bool) {
	for v, n := range s.Names {
		if n == name {
			return v, true
		}
	}
	return 0, false
}

// String returns a short ASN.1-like notation of s.
func (s *Schema) String() string {
	var b strings.Builder
	if s.Tagging != nil {
		b.WriteString(s.Tagging.Tag().String())
		if s.IsExplicit() {
			b.WriteString(" EXPLICIT ")
		} else {
			b.WriteString(" IMPLICIT ")
		}
	}
	switch s.Kind {
	case KindSequence, KindSet:
		b.WriteString(asn1map.TypeName(s.Type))
		if s.IsOf() {
			b.WriteString(" OF ")
			b.WriteString(s.Elem.String())
		}
	case KindChoice:
		b.WriteString("CHOICE")
	case KindAny:
		b.WriteString("ANY")
	default:
		b.WriteString(asn1map.TypeName(s.Type))
	}
	if s.Optional {
		b.WriteString(" OPTIONAL")
	}
	if s.HasDefault() {
		b.WriteString(" DEFAULT ")
		b.WriteString(fmt.Sprint(s.Default))
	}
	return b.String()
}

var supported = map[uint]bool{
	asn1map.TagBoolean: true, asn1map.TagInteger: true, asn1map.TagBitString: true,
	asn1map.TagOctetString: true, asn1map.TagNull: true, asn1map.TagOID: true,
	asn1map.TagEnumerated: true, asn1map.TagUTCTime: true, asn1map.TagGeneralizedTime: true,
}

// ValidationError describes a schema that cannot be used for decoding or
// encoding.
type ValidationError struct {
	Path string // slash separated component names
	Err  error
}

func (e *ValidationError) Unwrap() error { return e.Err }
func (e *ValidationError) Error() string {
	if e.Path == "" {
		return "schema: " + e.Err.Error()
	}
	return "schema: " + e.Path + ": " + e.Err.Error()
}

var (
	errUnsupportedType = errors.New("unsupported type")
	errNoElem          = errors.New("missing element type")
	errNoName          = errors.New("unnamed component")
	errBounds          = errors.New("invalid size bounds")
	errInvalidClass    = errors.New("invalid tag class")
	errOptionalChoice  = errors.New("optional or default alternative")
)

// Validate checks s and all nested schemas for structural errors: unsupported
// primitive types, components without names, duplicate component names,
// invalid size bounds, and CHOICE or SET components with ambiguous tags.
func (s *Schema) Validate() error {
	return s.validate("", map[*Schema]bool{})
}

func (s *Schema) validate(path string, seen map[*Schema]bool) error {
	if seen[s] {
		return nil
	}
	seen[s] = true
	fail := func(err error) error { return &ValidationError{path, err} }

	if s.Tagging != nil && !s.Tagging.Class.IsValid() {
		return fail(errInvalidClass)
	}
	switch s.Kind {
	case KindPrimitive:
		if !supported[s.Type] && !s.IsString() {
			return fail(fmt.Errorf("%w %s", errUnsupportedType, asn1map.TypeName(s.Type)))
		}
		return nil
	case KindAny:
		return nil
	case KindSequence, KindSet:
		if s.IsOf() {
			if s.Min < 0 || (s.Max >= 0 && s.Max < s.Min) {
				return fail(errBounds)
			}
			return s.Elem.validate(Path(path, "*"), seen)
		}
	case KindChoice:
	default:
		return fail(fmt.Errorf("%w kind %s", errUnsupportedType, s.Kind))
	}

	names := make(map[string]bool, len(s.Components))
	tags := make(map[asn1map.Tag]string, len(s.Components))
	for _, c := range s.Components {
		p := Path(path, c.Name)
		switch {
		case c.Name == "":
			return fail(errNoName)
		case c.Schema == nil:
			return &ValidationError{p, errNoElem}
		case names[c.Name]:
			return fail(fmt.Errorf("duplicate component %q", c.Name))
		case s.Kind == KindChoice && c.IsOptional():
			return &ValidationError{p, errOptionalChoice}
		}
		names[c.Name] = true
		if s.Kind != KindSequence {
			if t, ok := c.Tag(); ok {
				if other, dup := tags[t]; dup {
					return fail(fmt.Errorf("components %q and %q share tag %s", other, c.Name, t))
				}
				tags[t] = c.Name
			}
		}
		if err := c.validate(p, seen); err != nil {
			return err
		}
	}
	return nil
}

// Path joins component names into the slash separated form used for error
// messages and rules.
func Path(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// Index returns the name under which the i-th element of a SEQUENCE OF or SET
// OF is stored.
func Index(i int) string {
	return strconv.Itoa(i)
}
