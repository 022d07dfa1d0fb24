// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"strconv"

	"codello.dev/asn1map/schema"
	"codello.dev/asn1map/tlv"
)

// Tree holds the constructed values of a single decoding operation. Values
// refer to their parent by index so that a modification can invalidate the
// cached encodings of all enclosing values. A Tree is not safe for concurrent
// use.
type Tree struct {
	nodes []node
	opts  Options
}

// node is the state of a single constructed value.
type node struct {
	parent int // -1 for a root
	schema *schema.Schema
	path   string
	depth  int

	// src is the parsed encoding of a value whose fields have not been mapped
	// yet. It is nil once the value has been materialized.
	src *tlv.Node
	// enc is the cached encoding.
	enc    []byte
	forced bool

	entries []entry
}

type entry struct {
	key string
	val Value
}

// newNode appends a node to t and returns its index.
func (t *Tree) newNode(parent int, s *schema.Schema, path string, depth int) int {
	t.nodes = append(t.nodes, node{parent: parent, schema: s, path: path, depth: depth})
	return len(t.nodes) - 1
}

// invalidate discards the cached encoding of id and all of its ancestors.
func (t *Tree) invalidate(id int) {
	for ; id >= 0; id = t.nodes[id].parent {
		t.nodes[id].enc = nil
	}
}

// invalidateAncestors discards the cached encodings of the ancestors of id.
func (t *Tree) invalidateAncestors(id int) {
	if p := t.nodes[id].parent; p >= 0 {
		t.invalidate(p)
	}
}

// materialize maps the fields of id if this has not happened yet. If mapping
// fails, id stays unmaterialized and every node created in the process is
// discarded.
func (t *Tree) materialize(id int) error {
	src := t.nodes[id].src
	if src == nil {
		return nil
	}
	mark := len(t.nodes)
	t.nodes[id].src, t.nodes[id].entries = nil, nil
	m := newMapper(t, tlv.NewGuard(t.opts.MaxDepth).Fork(t.nodes[id].depth))
	if err := m.fill(id, src); err != nil {
		t.nodes = t.nodes[:mark]
		t.nodes[id].src, t.nodes[id].entries = src, nil
		return err
	}
	return nil
}

// attach makes v a child of parent in t. Constructed values are copied into
// t, including values inside a [Choice]. s is the schema of the field v is
// assigned to.
func (t *Tree) attach(parent int, s *schema.Schema, path string, v Value) (Value, error) {
	depth := t.nodes[parent].depth + 1
	switch v := v.(type) {
	case Constructed:
		if v.IsZero() {
			return nil, errInvalidValue
		}
		if s.Kind == schema.KindAny || s.Kind == schema.KindPrimitive {
			// Encapsulated values keep their own schema.
			return t.copyNode(v, parent, v.Schema(), path, depth), nil
		}
		if s.IsExplicit() {
			s, depth = s.Untagged(), depth+1
		}
		if !sameType(s, v.Schema()) {
			return nil, ErrSchemaMismatch
		}
		return t.copyNode(v, parent, s, path, depth), nil
	case Choice:
		if v.Value == nil {
			return nil, errInvalidValue
		}
		if s.Kind == schema.KindChoice {
			alt, _, ok := s.Lookup(v.Name)
			if !ok {
				return nil, ErrSchemaMismatch
			}
			s = alt.Schema
		}
		inner, err := t.attach(parent, s, path, v.Value)
		if err != nil {
			return nil, err
		}
		return Choice{Name: v.Name, Value: inner}, nil
	}
	return v, nil
}

// copyNode copies the value c including all nested constructed values into t.
func (t *Tree) copyNode(c Constructed, parent int, s *schema.Schema, path string, depth int) Constructed {
	src := c.t.nodes[c.id]
	id := t.newNode(parent, s, path, depth)
	n := &t.nodes[id]
	n.src, n.enc, n.forced = src.src, src.enc, src.forced
	if src.src != nil {
		return Constructed{t, id}
	}
	entries := make([]entry, len(src.entries))
	for i, e := range src.entries {
		entries[i] = entry{e.key, t.copyValue(e.val, id, schema.Path(path, e.key), depth+1)}
	}
	t.nodes[id].entries = entries
	return Constructed{t, id}
}

func (t *Tree) copyValue(v Value, parent int, path string, depth int) Value {
	switch v := v.(type) {
	case Constructed:
		s := v.Schema()
		if v.t.nodes[v.id].depth > v.t.nodes[v.t.nodes[v.id].parent].depth+1 {
			depth++
		}
		return t.copyNode(v, parent, s, path, depth)
	case Choice:
		return Choice{Name: v.Name, Value: t.copyValue(v.Value, parent, path, depth)}
	}
	return v
}

// sameType reports whether values of schema a can be used where b is
// expected. Tagging and component modifiers are ignored.
func sameType(a, b *schema.Schema) bool {
	if a == b {
		return true
	}
	if a.Kind != b.Kind || a.Type != b.Type || a.IsOf() != b.IsOf() {
		return false
	}
	if a.IsOf() {
		return sameType(a.Elem, b.Elem)
	}
	if len(a.Components) != len(b.Components) {
		return false
	}
	for i := range a.Components {
		if a.Components[i].Name != b.Components[i].Name {
			return false
		}
	}
	return true
}

// nextIndex returns the key for a new element of a SEQUENCE OF or SET OF.
func nextIndex(entries []entry) string {
	next := 0
	for _, e := range entries {
		if i, err := strconv.Atoi(e.key); err == nil && i >= next {
			next = i + 1
		}
	}
	return strconv.Itoa(next)
}
