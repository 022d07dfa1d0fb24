// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

// Choice is the value of a CHOICE type. Name is the name of the selected
// alternative.
type Choice struct {
	Name  string
	Value Value
}

// encodable is implemented by values that may carry a cached encoding.
type encodable interface {
	HasEncoded() bool
	Encoded() ([]byte, error)
	SetEncoded(b []byte) error
}

func (c Choice) inner() (encodable, bool) {
	switch v := c.Value.(type) {
	case Constructed:
		return v, !v.IsZero()
	case Choice:
		return v, true
	}
	return nil, false
}

// HasEncoded reports whether the selected value has a cached encoding.
func (c Choice) HasEncoded() bool {
	v, ok := c.inner()
	return ok && v.HasEncoded()
}

// Encoded returns the cached encoding of the selected value. If the selected
// value is not constructed, [ErrUnavailableEncoding] is returned.
func (c Choice) Encoded() ([]byte, error) {
	v, ok := c.inner()
	if !ok {
		return nil, ErrUnavailableEncoding
	}
	return v.Encoded()
}

// SetEncoded calls [Constructed.SetEncoded] on the selected value. If the
// selected value is not constructed, [ErrUnavailableEncoding] is returned.
func (c Choice) SetEncoded(b []byte) error {
	v, ok := c.inner()
	if !ok {
		return ErrUnavailableEncoding
	}
	return v.SetEncoded(b)
}
