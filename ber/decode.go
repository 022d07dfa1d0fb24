// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"codello.dev/asn1map"
	"codello.dev/asn1map/schema"
	"codello.dev/asn1map/tlv"
)

// Decode parses the BER encoded data value in b and maps it onto s. b must
// contain exactly one data value. Unless opts enables tolerant mode, trailing
// data is an error.
//
// The returned value does not share memory with b.
func Decode(b []byte, s *schema.Schema, opts *Options) (Value, error) {
	o := opts.orDefault()
	return decode(b, s, o, o.newGuard())
}

func decode(b []byte, s *schema.Schema, o Options, g *tlv.Guard) (Value, error) {
	p := tlv.Parser{Guard: g, Tolerant: o.Tolerant}
	n, err := p.ParseAll(bytes.Clone(b))
	if err != nil {
		if n == nil || !o.Tolerant {
			return nil, err
		}
		o.logger().Debug("ignoring trailing data", slog.Int("offset", n.End()), slog.Int("len", len(b)-n.End()))
	}
	return mapRoot(n, s, o, g)
}

// Map maps the parsed data value n onto s. The returned value shares memory
// with n.
func Map(n *tlv.Node, s *schema.Schema, opts *Options) (Value, error) {
	o := opts.orDefault()
	return mapRoot(n, s, o, o.newGuard())
}

func mapRoot(n *tlv.Node, s *schema.Schema, o Options, g *tlv.Guard) (Value, error) {
	t := &Tree{opts: o}
	m := newMapper(t, g)
	if !compatible(n, s) {
		return nil, m.fail(n, s, "", mismatch(nil))
	}
	return m.mapValue(n, s, -1, "")
}

// mapper converts parsed data values into values of t. The same guard is used
// for all nested levels.
type mapper struct {
	t    *Tree
	g    *tlv.Guard
	opts *Options
	log  *slog.Logger

	// trials counts the CHOICE trials in progress. During a trial every value
	// is mapped eagerly and no error is tolerated.
	trials int
}

func (m *mapper) tolerant() bool { return m.opts.Tolerant && m.trials == 0 }

func (m *mapper) lazy() bool { return m.opts.Lazy && m.trials == 0 }

// trial maps n onto s as part of a CHOICE trial. Nodes created by a failed
// trial are discarded.
func (m *mapper) trial(n *tlv.Node, s *schema.Schema, parent int, path string) (Value, error) {
	mark := len(m.t.nodes)
	m.trials++
	v, err := m.mapValue(n, s, parent, path)
	m.trials--
	if err != nil {
		m.t.nodes = m.t.nodes[:mark]
	}
	return v, err
}

func newMapper(t *Tree, g *tlv.Guard) *mapper {
	return &mapper{t: t, g: g, opts: &t.opts, log: t.opts.logger()}
}

// mismatch returns an error wrapping [ErrSchemaMismatch] and err.
func mismatch(err error) error {
	if err == nil {
		return ErrSchemaMismatch
	}
	if errors.Is(err, ErrSchemaMismatch) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
}

// fail adds location information to err.
func (m *mapper) fail(n *tlv.Node, s *schema.Schema, path string, err error) error {
	var structErr *StructuralError
	var syntaxErr *tlv.SyntaxError
	if errors.As(err, &structErr) || errors.As(err, &syntaxErr) {
		return err
	}
	return &StructuralError{Path: path, Tag: n.Tag, Want: s, Offset: n.Offset, Err: err}
}

// compatible reports whether n could be an encoding of s based on its tag.
// Untagged CHOICE types are compatible if any of their alternatives is. See
// [mapper.match] for the complete test used for components.
func compatible(n *tlv.Node, s *schema.Schema) bool {
	if s.Tagging != nil {
		return n.Tag == s.Tagging.Tag()
	}
	switch s.Kind {
	case schema.KindAny:
		return true
	case schema.KindChoice:
		for _, alt := range s.Components {
			if compatible(n, alt.Schema) {
				return true
			}
		}
		return false
	}
	return n.Tag == asn1map.Universal(s.Type)
}

// mapValue maps n onto s. The tag of n has been checked using compatible. The
// resulting value becomes a child of parent.
func (m *mapper) mapValue(n *tlv.Node, s *schema.Schema, parent int, path string) (Value, error) {
	if !s.IsExplicit() {
		return m.mapUntagged(n, s, parent, path)
	}
	switch {
	case !n.Constructed:
		return nil, m.fail(n, s, path, mismatch(errConstructed))
	case n.Err != nil:
		return nil, n.Err
	case len(n.Children) != 1:
		return nil, m.fail(n, s, path, mismatch(errExplicit))
	}
	if err := m.g.Enter(); err != nil {
		return nil, m.fail(n, s, path, err)
	}
	defer m.g.Leave()
	inner := s.Untagged()
	if child := n.Children[0]; compatible(child, inner) {
		return m.mapUntagged(child, inner, parent, path)
	}
	return nil, m.fail(n.Children[0], inner, path, mismatch(nil))
}

func (m *mapper) mapUntagged(n *tlv.Node, s *schema.Schema, parent int, path string) (Value, error) {
	switch s.Kind {
	case schema.KindAny:
		return Raw{Tag: n.Tag, Constructed: n.Constructed, Bytes: n.Raw}, nil
	case schema.KindChoice:
		return m.mapChoice(n, s, parent, path)
	case schema.KindSequence, schema.KindSet:
		return m.mapConstructed(n, s, parent, path)
	}
	v, err := decodePrimitive(s, n, m.g)
	if err != nil {
		if !errors.Is(err, ErrExcessiveDepth) {
			err = mismatch(err)
		}
		return nil, m.fail(n, s, path, err)
	}
	return v, nil
}

func (m *mapper) mapConstructed(n *tlv.Node, s *schema.Schema, parent int, path string) (Value, error) {
	if !n.Constructed {
		return nil, m.fail(n, s, path, mismatch(errConstructed))
	}
	if n.Err != nil {
		return nil, n.Err
	}
	if err := m.g.Enter(); err != nil {
		return nil, m.fail(n, s, path, err)
	}
	defer m.g.Leave()
	id := m.t.newNode(parent, s, path, m.g.Depth())
	m.t.nodes[id].enc = n.Raw
	if m.lazy() {
		m.t.nodes[id].src = n
		return Constructed{m.t, id}, nil
	}
	if err := m.fill(id, n); err != nil {
		return nil, err
	}
	return Constructed{m.t, id}, nil
}

// mapChoice selects the first alternative of s that n can be mapped onto
// completely. Alternatives are tried eagerly and without tolerating errors.
// If no alternative maps and tolerant mode is enabled, the first alternative
// with a matching tag is mapped again tolerating errors.
func (m *mapper) mapChoice(n *tlv.Node, s *schema.Schema, parent int, path string) (Value, error) {
	var firstErr error
	first := -1
	for i, alt := range s.Components {
		if !compatible(n, alt.Schema) {
			continue
		}
		v, err := m.trial(n, alt.Schema, parent, path)
		if err == nil {
			return Choice{Name: alt.Name, Value: v}, nil
		}
		if errors.Is(err, ErrExcessiveDepth) {
			return nil, err
		}
		if firstErr == nil {
			first, firstErr = i, err
		}
	}
	if first < 0 {
		return nil, m.fail(n, s, path, mismatch(errNoAlternative))
	}
	if !m.tolerant() {
		return nil, firstErr
	}
	alt := s.Components[first]
	v, err := m.mapValue(n, alt.Schema, parent, path)
	if err != nil {
		return nil, err
	}
	return Choice{Name: alt.Name, Value: v}, nil
}

// fill maps the children of n onto the fields of the node id.
func (m *mapper) fill(id int, n *tlv.Node) error {
	s := m.t.nodes[id].schema
	switch {
	case s.IsOf():
		return m.fillOf(id, n, s)
	case s.Kind == schema.KindSet:
		return m.fillSet(id, n, s)
	case s.Kind == schema.KindSequence:
		return m.fillSequence(id, n, s)
	}
	return m.fail(n, s, m.t.nodes[id].path, errNotConstructed)
}

func (m *mapper) add(id int, key string, v Value) {
	m.t.nodes[id].entries = append(m.t.nodes[id].entries, entry{key, v})
}

// fillSequence matches the children of n against the components of s in
// order. An absent component is skipped if it is optional, and its default is
// used if it has one. The child is then matched against the next component.
func (m *mapper) fillSequence(id int, n *tlv.Node, s *schema.Schema) error {
	base := m.t.nodes[id].path
	i := 0
	for _, f := range s.Components {
		path := schema.Path(base, f.Name)
		var next *tlv.Node
		if i < len(n.Children) {
			next = n.Children[i]
		}
		if next != nil {
			v, ok, err := m.match(id, next, f, path)
			if err != nil {
				return err
			}
			if ok {
				m.add(id, f.Name, v)
				i++
				continue
			}
		}
		if err := m.absent(id, f, path, next); err != nil {
			return err
		}
	}
	return m.extra(base, n.Children[i:])
}

// fillSet matches each child of n against the first unmatched component of s
// that is compatible with it.
func (m *mapper) fillSet(id int, n *tlv.Node, s *schema.Schema) error {
	base := m.t.nodes[id].path
	matched := make([]bool, len(s.Components))
	var extra []*tlv.Node
	for _, child := range n.Children {
		k := -1
		for j, f := range s.Components {
			if matched[j] {
				continue
			}
			v, ok, err := m.match(id, child, f, schema.Path(base, f.Name))
			if err != nil {
				return err
			}
			if ok {
				m.add(id, f.Name, v)
				k = j
				break
			}
		}
		if k < 0 {
			extra = append(extra, child)
			continue
		}
		matched[k] = true
	}
	if err := m.extra(base, extra); err != nil {
		return err
	}
	for j, f := range s.Components {
		if matched[j] {
			continue
		}
		if err := m.absent(id, f, schema.Path(base, f.Name), nil); err != nil {
			return err
		}
	}
	return nil
}

// fillOf maps every child of n onto the element type of s.
func (m *mapper) fillOf(id int, n *tlv.Node, s *schema.Schema) error {
	base := m.t.nodes[id].path
	for i, child := range n.Children {
		key := schema.Index(i)
		path := schema.Path(base, key)
		var v Value
		var err error
		if compatible(child, s.Elem) {
			v, err = m.field(id, child, s.Elem, path)
		} else {
			v, err = m.tolerate(m.fail(child, s.Elem, path, mismatch(nil)), path, child)
		}
		if err != nil {
			return err
		}
		m.add(id, key, v)
	}
	var err error
	switch l := len(n.Children); {
	case l < s.Min:
		err = errTooFew
	case s.Max >= 0 && l > s.Max:
		err = errTooMany
	default:
		return nil
	}
	err = m.fail(n, s, base, mismatch(err))
	if !m.tolerant() {
		return err
	}
	m.log.Debug("tolerating size constraint violation", slog.String("path", base), slog.Any("error", err))
	return nil
}

// match maps child onto the component f if child is an encoding of f. A child
// matches a component with a tag if the tags are equal. A child matches an
// untagged CHOICE only if one of the alternatives maps completely. Otherwise ok
// is false and the tree is left unchanged, so the child can be matched against
// another component. Required CHOICE components of a SEQUENCE always consume
// the child in order to report the error at the component.
func (m *mapper) match(id int, child *tlv.Node, f schema.Component, path string) (v Value, ok bool, err error) {
	if !compatible(child, f.Schema) {
		return nil, false, nil
	}
	if f.Schema.Tagging != nil || f.Schema.Kind != schema.KindChoice {
		v, err = m.field(id, child, f.Schema, path)
		return v, true, err
	}
	mark := len(m.t.nodes)
	v, err = m.trial(child, f.Schema, id, path)
	switch {
	case err == nil:
		v, err = m.finish(id, child, f.Schema, path, mark, v, nil)
		return v, true, err
	case errors.Is(err, ErrExcessiveDepth):
		return nil, false, m.fail(child, f.Schema, path, err)
	case f.Optional || f.HasDefault() || m.t.nodes[id].schema.Kind == schema.KindSet:
		return nil, false, nil
	case m.trials > 0:
		return nil, true, m.fail(child, f.Schema, path, err)
	}
	v, err = m.field(id, child, f.Schema, path)
	return v, true, err
}

// field maps child onto the component schema s and applies rules. In tolerant
// mode errors are recorded as a [Malformed] value.
func (m *mapper) field(id int, child *tlv.Node, s *schema.Schema, path string) (Value, error) {
	mark := len(m.t.nodes)
	v, err := m.mapValue(child, s, id, path)
	return m.finish(id, child, s, path, mark, v, err)
}

// finish applies rules to the value v mapped from child. If v or the rule
// fails, the nodes created since mark are discarded.
func (m *mapper) finish(id int, child *tlv.Node, s *schema.Schema, path string, mark int, v Value, err error) (Value, error) {
	if err == nil {
		v, err = m.applyRule(id, s, path, v)
	}
	if err == nil {
		return v, nil
	}
	m.t.nodes = m.t.nodes[:mark]
	return m.tolerate(m.fail(child, s, path, err), path, child)
}

// tolerate returns a [Malformed] placeholder for err in tolerant mode.
// Exceeding the depth limit is never tolerated.
func (m *mapper) tolerate(err error, path string, child *tlv.Node) (Value, error) {
	if !m.tolerant() || errors.Is(err, ErrExcessiveDepth) {
		return nil, err
	}
	m.log.Debug("tolerating malformed field", slog.String("path", path), slog.Any("error", err))
	v := Malformed{Err: err}
	if child != nil {
		v.Raw = child.Raw
	}
	return v, nil
}

func (m *mapper) applyRule(id int, s *schema.Schema, path string, v Value) (Value, error) {
	rule := m.opts.rule(path)
	if rule == nil {
		return v, nil
	}
	ctx := RuleContext{Path: path, Parent: Constructed{m.t, id}, Schema: s, Options: m.opts, guard: m.g}
	v, err := rule(ctx, v)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("rule for %s returned no value", path)
	}
	return m.t.attach(id, s, path, v)
}

// absent handles the absence of component f. next is the child that did not
// match f, if any.
func (m *mapper) absent(id int, f schema.Component, path string, next *tlv.Node) error {
	switch {
	case f.HasDefault():
		v, err := ValueOf(f.Schema, f.Default)
		if err == nil {
			v, err = m.t.attach(id, f.Schema, path, v)
		}
		if err != nil {
			return &StructuralError{Path: path, Want: f.Schema, Offset: -1, Err: fmt.Errorf("invalid default: %w", err)}
		}
		m.add(id, f.Name, v)
		return nil
	case f.Optional:
		return nil
	}
	err := &StructuralError{Path: path, Want: f.Schema, Offset: -1, Err: ErrMissingField}
	if next != nil {
		err.Tag, err.Offset = next.Tag, next.Offset
	}
	v, tErr := m.tolerate(err, path, nil)
	if tErr != nil {
		return tErr
	}
	m.add(id, f.Name, v)
	return nil
}

// extra handles children that are not matched by any component.
func (m *mapper) extra(path string, children []*tlv.Node) error {
	for _, child := range children {
		if !m.tolerant() {
			return &StructuralError{Path: path, Tag: child.Tag, Offset: child.Offset, Err: ErrExtraField}
		}
		m.log.Debug("skipping extra field", slog.String("path", path),
			slog.String("tag", child.Tag.String()), slog.Int("offset", child.Offset))
	}
	return nil
}
