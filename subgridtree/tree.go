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

import (
	"fmt"
	"math"

	"k8s.io/klog/v2"
)

// Tree is a sparse, fixed-depth tree of subgrids with leaf payload T.
type Tree[T any] struct {
	numLevels         byte
	cellSize          float64
	indexOriginOffset uint32
	newLeafData       func() T
	root              *Node[T]
}

// New returns an empty tree with the given depth and cell size. newLeafData
// is called to create the payload of each new leaf; it may be nil, in which
// case leaves start with the zero value of T.
func New[T any](numLevels byte, cellSize float64, newLeafData func() T) *Tree[T] {
	if numLevels < 2 || numLevels > MaxNumLevels {
		panic(fmt.Sprintf("subgridtree: numLevels %d out of range [2, %d]", numLevels, MaxNumLevels))
	}
	if !(cellSize > 0) {
		panic(fmt.Sprintf("subgridtree: invalid cell size %v", cellSize))
	}
	klog.V(2).Infof("Creating subgrid tree numLevels=%d cellSize=%v", numLevels, cellSize)
	t := &Tree[T]{
		numLevels:         numLevels,
		cellSize:          cellSize,
		indexOriginOffset: 1 << (IndexBitsPerLevel*uint(numLevels) - 1),
		newLeafData:       newLeafData,
	}
	t.root = t.newNode(nil, 1, Address{})
	return t
}

// NumLevels returns the depth of the tree. Leaves are at this level.
func (t *Tree[T]) NumLevels() byte { return t.numLevels }

// CellSize returns the side length of a cell in world units.
func (t *Tree[T]) CellSize() float64 { return t.cellSize }

// IndexOriginOffset is the cell address of the world origin on each axis.
func (t *Tree[T]) IndexOriginOffset() uint32 { return t.indexOriginOffset }

// Root returns the root node.
func (t *Tree[T]) Root() *Node[T] { return t.root }

// CellsPerSide returns the number of addressable cells along each axis.
func (t *Tree[T]) CellsPerSide() uint64 {
	return 1 << (IndexBitsPerLevel * uint(t.numLevels))
}

// SideAtLevel returns the number of cells along each side of a subgrid at
// the given level.
func (t *Tree[T]) SideAtLevel(level byte) uint64 {
	return 1 << (IndexBitsPerLevel * uint(t.numLevels-level+1))
}

// InRange reports whether a is inside the addressable cell space.
func (t *Tree[T]) InRange(a Address) bool {
	n := t.CellsPerSide()
	return uint64(a.X) < n && uint64(a.Y) < n
}

func (t *Tree[T]) newNode(parent *Node[T], level byte, origin Address) *Node[T] {
	n := &Node[T]{}
	n.owner, n.parent, n.level, n.origin = t, parent, level, origin
	return n
}

func (t *Tree[T]) newLeaf(parent *Node[T], origin Address) *Leaf[T] {
	l := &Leaf[T]{}
	l.owner, l.parent, l.level, l.origin = t, parent, t.numLevels, origin
	if t.newLeafData != nil {
		l.Data = t.newLeafData()
	}
	return l
}

// ConstructPath walks from the root towards the leaf containing cell a,
// creating missing subgrids as mode dictates.
//
// ReturnExistingLeafOnly returns the leaf or nil. CreateLeaf returns the leaf,
// creating it and its ancestors as needed. CreatePathToLeaf returns the node
// that owns (or would own) the leaf. Addresses outside the cell space give
// nil in ReturnExistingLeafOnly mode and panic otherwise.
func (t *Tree[T]) ConstructPath(a Address, mode PathMode) SubGrid {
	if !t.InRange(a) {
		if mode == ReturnExistingLeafOnly {
			return nil
		}
		panic(fmt.Sprintf("subgridtree: ConstructPath(%v, %v): address outside cell space", a, mode))
	}
	node := t.root
	for {
		i, j := node.ChildIndex(a)
		child := node.children[i][j]
		if node.level == t.numLevels-1 {
			switch {
			case mode == CreatePathToLeaf:
				return node
			case child != nil:
				return child
			case mode == ReturnExistingLeafOnly:
				return nil
			}
			leaf := t.newLeaf(node, node.ChildOrigin(i, j))
			node.setChild(i, j, leaf)
			klog.V(3).Infof("subgridtree: created leaf at %v", leaf.origin)
			return leaf
		}
		if child == nil {
			if mode == ReturnExistingLeafOnly {
				return nil
			}
			n := t.newNode(node, node.level+1, node.ChildOrigin(i, j))
			node.setChild(i, j, n)
			child = n
		}
		node = child.(*Node[T])
	}
}

// Locate returns the existing leaf containing cell a, or nil.
func (t *Tree[T]) Locate(a Address) *Leaf[T] {
	l, _ := t.ConstructPath(a, ReturnExistingLeafOnly).(*Leaf[T])
	return l
}

// CreateLeaf returns the leaf containing cell a, creating it if needed.
func (t *Tree[T]) CreateLeaf(a Address) *Leaf[T] {
	return t.ConstructPath(a, CreateLeaf).(*Leaf[T])
}

// CreatePathToLeaf returns the node that owns the leaf containing cell a,
// creating intermediate nodes if needed but not the leaf itself.
func (t *Tree[T]) CreatePathToLeaf(a Address) *Node[T] {
	return t.ConstructPath(a, CreatePathToLeaf).(*Node[T])
}

// LocateSubGrid returns the existing subgrid at level whose area contains
// cell a, or nil.
func (t *Tree[T]) LocateSubGrid(a Address, level byte) SubGrid {
	if level < 1 || level > t.numLevels || !t.InRange(a) {
		return nil
	}
	var sg SubGrid = t.root
	for sg.Level() < level {
		node := sg.(*Node[T])
		i, j := node.ChildIndex(a)
		if sg = node.children[i][j]; sg == nil {
			return nil
		}
	}
	return sg
}

// LocateLeafOwner returns the existing node that owns the leaf containing
// cell a, or nil.
func (t *Tree[T]) LocateLeafOwner(a Address) *Node[T] {
	n, _ := t.LocateSubGrid(a, t.numLevels-1).(*Node[T])
	return n
}

// DeleteSubGrid detaches the subgrid at level containing cell a from its
// parent. The root cannot be deleted. It returns false if there was no such
// subgrid.
func (t *Tree[T]) DeleteSubGrid(a Address, level byte) bool {
	if level <= 1 {
		return false
	}
	parent, ok := t.LocateSubGrid(a, level-1).(*Node[T])
	if !ok {
		return false
	}
	i, j := parent.ChildIndex(a)
	return parent.deleteChild(i, j)
}

// Clear removes all subgrids from the tree.
func (t *Tree[T]) Clear() {
	t.root = t.newNode(nil, 1, Address{})
}

// ForEachLeaf calls f for every leaf in the tree until f returns false. It
// returns false if the scan was stopped early.
func (t *Tree[T]) ForEachLeaf(f func(*Leaf[T]) bool) bool {
	return forEachLeaf(t.root, f)
}

func forEachLeaf[T any](n *Node[T], f func(*Leaf[T]) bool) bool {
	return n.ForEachChild(func(_, _ byte, c SubGrid) bool {
		switch c := c.(type) {
		case *Leaf[T]:
			return f(c)
		case *Node[T]:
			return forEachLeaf(c, f)
		}
		return true
	})
}

// CountLeafSubGrids returns the number of leaves in the tree.
func (t *Tree[T]) CountLeafSubGrids() int {
	n := 0
	t.ForEachLeaf(func(*Leaf[T]) bool {
		n++
		return true
	})
	return n
}

// CellWorldOrigin returns the world coordinates of the bottom left corner of
// cell a.
func (t *Tree[T]) CellWorldOrigin(a Address) (float64, float64) {
	off := int64(t.indexOriginOffset)
	return float64(int64(a.X)-off) * t.cellSize, float64(int64(a.Y)-off) * t.cellSize
}

// CellCenter returns the world coordinates of the centre of cell a.
func (t *Tree[T]) CellCenter(a Address) (float64, float64) {
	x, y := t.CellWorldOrigin(a)
	h := t.cellSize / 2
	return x + h, y + h
}

// CellContaining returns the address of the cell containing the world
// position (wx, wy). ok is false if the position is outside the cell space.
func (t *Tree[T]) CellContaining(wx, wy float64) (a Address, ok bool) {
	cx := math.Floor(wx/t.cellSize) + float64(t.indexOriginOffset)
	cy := math.Floor(wy/t.cellSize) + float64(t.indexOriginOffset)
	n := float64(t.CellsPerSide())
	if cx < 0 || cy < 0 || cx >= n || cy >= n {
		return Address{}, false
	}
	return Address{X: uint32(cx), Y: uint32(cy)}, true
}
