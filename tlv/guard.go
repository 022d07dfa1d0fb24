// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlv

// DefaultMaxDepth is the nesting limit of a [Guard] created with a
// non-positive maximum.
const DefaultMaxDepth = 128

// Guard bounds the nesting depth of recursive processing. Every nested level
// calls [Guard.Enter] before descending and [Guard.Leave] afterward. A Guard is
// not safe for concurrent use.
type Guard struct {
	depth int
	max   int
}

// NewGuard returns a Guard that permits max nested levels. If max is not
// positive, [DefaultMaxDepth] is used.
func NewGuard(max int) *Guard {
	if max <= 0 {
		max = DefaultMaxDepth
	}
	return &Guard{max: max}
}

// Enter records the descent into a nested level. If the maximum depth has
// already been reached, Enter returns [ErrExcessiveDepth] and the depth is not
// changed.
func (g *Guard) Enter() error {
	if g.depth >= g.max {
		return ErrExcessiveDepth
	}
	g.depth++
	return nil
}

// Leave records the return from a nested level.
func (g *Guard) Leave() {
	if g.depth > 0 {
		g.depth--
	}
}

// Depth returns the current nesting depth.
func (g *Guard) Depth() int { return g.depth }

// Max returns the maximum nesting depth.
func (g *Guard) Max() int { return g.max }

// Fork returns a new Guard with the same maximum whose current depth is depth.
// It is used to continue processing of a subtree at a later time.
func (g *Guard) Fork(depth int) *Guard {
	return &Guard{depth: min(depth, g.max), max: g.max}
}
