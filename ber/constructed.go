// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"

	"codello.dev/asn1map/schema"
	"codello.dev/asn1map/tlv"
)

// Constructed is the value of a SEQUENCE, SET, SEQUENCE OF or SET OF type.
// Fields are addressed by component name. Elements of a SEQUENCE OF or SET OF
// are addressed by their decimal index.
//
// A Constructed is a handle into a [Tree]. Copies of a Constructed refer to the
// same value. The zero Constructed is not usable.
type Constructed struct {
	t  *Tree
	id int
}

// NewConstructed returns an empty value of the SEQUENCE or SET type s in a new
// [Tree].
func NewConstructed(s *schema.Schema) Constructed {
	if s.IsExplicit() {
		s = s.Untagged()
	}
	t := &Tree{}
	return Constructed{t, t.newNode(-1, s, "", 1)}
}

// IsZero reports whether c is the zero Constructed.
func (c Constructed) IsZero() bool { return c.t == nil }

func (c Constructed) node() *node { return &c.t.nodes[c.id] }

// Schema returns the schema of c. Explicit tagging is not included.
func (c Constructed) Schema() *schema.Schema { return c.node().schema }

// Path returns the slash separated path of c within its tree.
func (c Constructed) Path() string { return c.node().path }

// Depth returns the nesting depth of c. The outermost value has depth 1.
func (c Constructed) Depth() int { return c.node().depth }

// Tree returns the tree c belongs to.
func (c Constructed) Tree() *Tree { return c.t }

// Parent returns the constructed value containing c. The second return value
// is false if c is the root of its tree.
func (c Constructed) Parent() (Constructed, bool) {
	p := c.node().parent
	if p < 0 {
		return Constructed{}, false
	}
	return Constructed{c.t, p}, true
}

// entries returns the fields of c, mapping them first if necessary.
func (c Constructed) entries() ([]entry, error) {
	if err := c.t.materialize(c.id); err != nil {
		return nil, err
	}
	return c.node().entries, nil
}

func (c Constructed) index(key string) (int, error) {
	entries, err := c.entries()
	if err != nil {
		return -1, err
	}
	return slices.IndexFunc(entries, func(e entry) bool { return e.key == key }), nil
}

// Get returns the value of the field with the given name. The value is nil if
// the field is absent. If c has not been mapped yet, Get maps it and returns
// any errors encountered.
func (c Constructed) Get(name string) (Value, error) {
	i, err := c.index(name)
	if err != nil || i < 0 {
		return nil, err
	}
	return c.node().entries[i].val, nil
}

// fieldSchema returns the schema of the field name.
func (c Constructed) fieldSchema(name string) (*schema.Schema, error) {
	s := c.Schema()
	if s.IsOf() {
		if _, err := strconv.Atoi(name); err != nil {
			return nil, fmt.Errorf("%w %q", errUnknownField, name)
		}
		return s.Elem, nil
	}
	f, _, ok := s.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", errUnknownField, name)
	}
	return f.Schema, nil
}

// Set assigns v to the field with the given name. Constructed values are
// copied into the tree of c, so later modifications of v do not affect c. Set
// discards the cached encodings of c and all enclosing values.
func (c Constructed) Set(name string, v Value) error {
	if v == nil {
		return c.Unset(name)
	}
	s, err := c.fieldSchema(name)
	if err != nil {
		return err
	}
	i, err := c.index(name)
	if err != nil {
		return err
	}
	v, err = c.t.attach(c.id, s, schema.Path(c.Path(), name), v)
	if err != nil {
		return &EncodeError{Path: schema.Path(c.Path(), name), Err: err}
	}
	n := c.node()
	switch {
	case i >= 0:
		n.entries[i].val = v
	case n.schema.Kind == schema.KindSequence && !n.schema.IsOf():
		n.entries = slices.Insert(n.entries, c.insertPos(name), entry{name, v})
	default:
		n.entries = append(n.entries, entry{name, v})
	}
	c.t.invalidate(c.id)
	return nil
}

// insertPos returns the position of a new field name that keeps the fields of
// a SEQUENCE in schema order.
func (c Constructed) insertPos(name string) int {
	n := c.node()
	_, want, _ := n.schema.Lookup(name)
	for i, e := range n.entries {
		if _, j, ok := n.schema.Lookup(e.key); ok && j > want {
			return i
		}
	}
	return len(n.entries)
}

// Put converts x using [ValueOf] and assigns it to the field with the given
// name.
func (c Constructed) Put(name string, x any) error {
	s, err := c.fieldSchema(name)
	if err != nil {
		return err
	}
	v, err := ValueOf(s, x)
	if err != nil {
		return err
	}
	return c.Set(name, v)
}

// Unset removes the field with the given name. Removing an element of a
// SEQUENCE OF or SET OF leaves a gap in the indices until [Constructed.Rekey]
// is called.
func (c Constructed) Unset(name string) error {
	i, err := c.index(name)
	if err != nil || i < 0 {
		return err
	}
	n := c.node()
	n.entries = slices.Delete(n.entries, i, i+1)
	c.t.invalidate(c.id)
	return nil
}

// Len returns the number of fields present in c.
func (c Constructed) Len() (int, error) {
	entries, err := c.entries()
	return len(entries), err
}

// Keys returns the names of the fields present in c in decoding order.
func (c Constructed) Keys() ([]string, error) {
	entries, err := c.entries()
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.key
	}
	return keys, nil
}

// Rekey renumbers the elements of a SEQUENCE OF or SET OF consecutively,
// starting at 0.
func (c Constructed) Rekey() error {
	if !c.Schema().IsOf() {
		return errNotOf
	}
	entries, err := c.entries()
	if err != nil {
		return err
	}
	for i := range entries {
		entries[i].key = strconv.Itoa(i)
	}
	c.t.invalidate(c.id)
	return nil
}

// Append adds v as the last element of a SEQUENCE OF or SET OF.
func (c Constructed) Append(v Value) error {
	if !c.Schema().IsOf() {
		return errNotOf
	}
	entries, err := c.entries()
	if err != nil {
		return err
	}
	return c.Set(nextIndex(entries), v)
}

// Export converts c into plain Go values. See [Export] for details.
func (c Constructed) Export() (any, error) {
	return Export(c)
}

// HasEncoded reports whether c has a cached encoding.
func (c Constructed) HasEncoded() bool {
	return c.node().enc != nil
}

// Encoded returns the cached encoding of c. A value that has been decoded
// and not modified since returns the bytes it was decoded from. A value that
// has been modified has no cached encoding until it is encoded again using
// [Encode]. In this case [ErrUnavailableEncoding] is returned.
//
// The returned slice must not be modified.
func (c Constructed) Encoded() ([]byte, error) {
	enc := c.node().enc
	if enc == nil {
		return nil, ErrUnavailableEncoding
	}
	return enc, nil
}

// SetEncoded replaces c with the value encoded in b. The encoding must carry
// the tag of the schema of c. The cached encodings of all enclosing values are
// discarded.
//
// If forced caching is enabled, only the cached encoding of c is replaced and
// its fields are kept.
func (c Constructed) SetEncoded(b []byte) error {
	n := c.node()
	b = bytes.Clone(b)
	p := tlv.Parser{Guard: tlv.NewGuard(c.t.opts.MaxDepth).Fork(n.depth - 1)}
	src, err := p.ParseAll(b)
	if err != nil {
		return err
	}
	if want, _ := n.schema.Tag(); src.Tag != want || !src.Constructed {
		return &StructuralError{Path: n.path, Tag: src.Tag, Want: n.schema, Err: ErrSchemaMismatch}
	}
	if n.forced {
		n.enc = b
		c.t.invalidateAncestors(c.id)
		return nil
	}
	old := *n
	n.src, n.entries, n.enc = src, nil, b
	if !c.t.opts.Lazy {
		if err = c.t.materialize(c.id); err != nil {
			c.t.nodes[c.id] = old
			return err
		}
	}
	c.t.invalidateAncestors(c.id)
	return nil
}

// EnableForcedCache makes [Constructed.SetEncoded] replace only the cached
// encoding of c.
func (c Constructed) EnableForcedCache() { c.node().forced = true }

// DisableForcedCache reverts [Constructed.EnableForcedCache].
func (c Constructed) DisableForcedCache() { c.node().forced = false }

func (c Constructed) String() string {
	v, err := c.Export()
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return fmt.Sprint(v)
}
