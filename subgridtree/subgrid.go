// Copyright 2026 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package subgridtree

import "fmt"

// SubGrid is a 32x32 block at some level of a tree. The only
// implementations are *Node[T] and *Leaf[T].
type SubGrid interface {
	// Level returns the tree level of the subgrid; the root is at level 1.
	Level() byte
	// Origin returns the address of the subgrid's bottom left cell.
	Origin() Address
	// IsLeaf reports whether this is a leaf subgrid.
	IsLeaf() bool

	subGrid()
}

// header carries the fields common to nodes and leaves. The parent and owner
// references are for navigation only; a subgrid is owned solely by the child
// slot holding it.
type header[T any] struct {
	owner  *Tree[T]
	parent *Node[T]
	level  byte
	origin Address
}

// Level implements SubGrid.
func (h *header[T]) Level() byte { return h.level }

// Origin implements SubGrid.
func (h *header[T]) Origin() Address { return h.origin }

// Owner returns the tree this subgrid belongs to.
func (h *header[T]) Owner() *Tree[T] { return h.owner }

// Parent returns the node holding this subgrid, or nil for the root.
func (h *header[T]) Parent() *Node[T] { return h.parent }

// Node is a non-leaf subgrid whose slots hold child subgrids one level down.
type Node[T any] struct {
	header[T]
	children [Dimension][Dimension]SubGrid
	count    int

	// Present has a bit set for each child slot known to hold data. It is
	// only maintained by BitMask trees.
	Present Bits
}

// IsLeaf implements SubGrid.
func (n *Node[T]) IsLeaf() bool { return false }

func (n *Node[T]) subGrid() {}

// childShift is the number of low address bits below this node's child
// index bits.
func (n *Node[T]) childShift() uint {
	return uint(IndexBitsPerLevel) * uint(n.owner.numLevels-n.level)
}

// ChildIndex returns the slot within this node on the path to cell a.
func (n *Node[T]) ChildIndex(a Address) (byte, byte) {
	s := n.childShift()
	return byte((a.X >> s) & LocalMask), byte((a.Y >> s) & LocalMask)
}

// ChildOrigin returns the origin address of the child in slot (i, j).
func (n *Node[T]) ChildOrigin(i, j byte) Address {
	s := n.childShift()
	return Address{
		X: n.origin.X + uint32(i)<<s,
		Y: n.origin.Y + uint32(j)<<s,
	}
}

// Child returns the child in slot (i, j), or nil.
func (n *Node[T]) Child(i, j byte) SubGrid {
	return n.children[i][j]
}

// ChildCount returns the number of populated child slots.
func (n *Node[T]) ChildCount() int {
	return n.count
}

func (n *Node[T]) setChild(i, j byte, c SubGrid) {
	if n.children[i][j] != nil {
		panic(fmt.Sprintf("subgridtree: slot (%d, %d) of node at level %d already populated", i, j, n.level))
	}
	n.children[i][j] = c
	n.count++
}

func (n *Node[T]) deleteChild(i, j byte) bool {
	c := n.children[i][j]
	if c == nil {
		return false
	}
	switch c := c.(type) {
	case *Node[T]:
		c.parent = nil
	case *Leaf[T]:
		c.parent = nil
	}
	n.children[i][j] = nil
	n.count--
	return true
}

// ForEachChild calls f for every populated child slot until f returns false.
func (n *Node[T]) ForEachChild(f func(i, j byte, c SubGrid) bool) bool {
	if n.count == 0 {
		return true
	}
	for i := byte(0); i < Dimension; i++ {
		for j := byte(0); j < Dimension; j++ {
			if c := n.children[i][j]; c != nil {
				if !f(i, j, c) {
					return false
				}
			}
		}
	}
	return true
}

// Leaf is a subgrid at the bottom level of a tree, holding payload Data for
// its cells.
type Leaf[T any] struct {
	header[T]
	Data T

	dirty bool
}

// IsLeaf implements SubGrid.
func (l *Leaf[T]) IsLeaf() bool { return true }

func (l *Leaf[T]) subGrid() {}

// SetDirty marks the leaf content as changed. It is the only way to set the
// flag; it never clears it.
func (l *Leaf[T]) SetDirty() {
	l.dirty = true
}

// Dirty returns whether the leaf has changed since its last successful
// Refresh.
func (l *Leaf[T]) Dirty() bool {
	return l.dirty
}

// Refresh runs recompute over the leaf payload and clears the dirty flag if
// it succeeds. A clean leaf is left alone.
func (l *Leaf[T]) Refresh(recompute func(T) error) error {
	if !l.dirty {
		return nil
	}
	if err := recompute(l.Data); err != nil {
		return err
	}
	l.dirty = false
	return nil
}

// CellIndex returns the local coordinates of cell a within this leaf.
func (l *Leaf[T]) CellIndex(a Address) (byte, byte) {
	return byte(a.X & LocalMask), byte(a.Y & LocalMask)
}

// CellAddress returns the global address of local cell (x, y).
func (l *Leaf[T]) CellAddress(x, y byte) Address {
	return Address{X: l.origin.X + uint32(x), Y: l.origin.Y + uint32(y)}
}

// WorldOrigin returns the world coordinates of the bottom left corner of
// the leaf.
func (l *Leaf[T]) WorldOrigin() (float64, float64) {
	return l.owner.CellWorldOrigin(l.origin)
}
