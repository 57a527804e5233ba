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

	"k8s.io/klog/v2"
)

// BitMask is a tree holding one bit per cell.
//
// Each node keeps a presence bit per child slot in Node.Present. Setting a
// cell bit also sets the presence bit for its leaf in the owning node.
// Clearing cell bits never clears presence bits: they summarise leaves that
// have had bits set and have not been removed since, and only
// RemoveLeafOwningCell clears them.
type BitMask struct {
	*Tree[Bits]
}

// NewBitMask returns an empty bit mask tree.
func NewBitMask(numLevels byte, cellSize float64) *BitMask {
	return &BitMask{Tree: New[Bits](numLevels, cellSize, nil)}
}

func markPresent(l *Leaf[Bits]) {
	if p := l.parent; p != nil {
		i, j := p.ChildIndex(l.origin)
		p.Present.SetBit(i, j)
	}
}

// Cell returns the bit for cell a; false if no leaf holds it.
func (b *BitMask) Cell(a Address) bool {
	l := b.Locate(a)
	if l == nil {
		return false
	}
	x, y := l.CellIndex(a)
	return l.Data.BitSet(x, y)
}

// SetCell sets the bit for cell a to v, creating the leaf if necessary. When
// v is true the presence bit for the leaf is set in its parent node.
func (b *BitMask) SetCell(a Address, v bool) {
	l := b.CreateLeaf(a)
	x, y := l.CellIndex(a)
	l.Data.SetBitValue(x, y, v)
	if v {
		markPresent(l)
	}
}

// ClearCellIfSet clears the bit for cell a if it is set and returns whether
// it did so. The parent presence bit is not touched.
func (b *BitMask) ClearCellIfSet(a Address) bool {
	l := b.Locate(a)
	if l == nil {
		return false
	}
	x, y := l.CellIndex(a)
	if !l.Data.BitSet(x, y) {
		return false
	}
	l.Data.ClearBit(x, y)
	return true
}

// LeafPresent tests the presence bit held by the node that owns the leaf
// containing cell a. The leaf itself need not exist.
func (b *BitMask) LeafPresent(a Address) bool {
	n := b.LocateLeafOwner(a)
	if n == nil {
		return false
	}
	i, j := n.ChildIndex(a)
	return n.Present.BitSet(i, j)
}

// LeafExists reports whether a leaf holding cell a exists, whatever its bits.
func (b *BitMask) LeafExists(a Address) bool {
	return b.Locate(a) != nil
}

// RemoveLeafOwningCell clears the presence bit for the leaf containing cell
// a and removes the leaf. It returns false if the owning node does not exist.
func (b *BitMask) RemoveLeafOwningCell(a Address) bool {
	n := b.LocateLeafOwner(a)
	if n == nil {
		return false
	}
	i, j := n.ChildIndex(a)
	n.Present.ClearBit(i, j)
	n.deleteChild(i, j)
	return true
}

func (b *BitMask) checkCompatible(op string, o *BitMask) error {
	if o.numLevels != b.numLevels || o.cellSize != b.cellSize {
		return fmt.Errorf("subgridtree: %s: incompatible trees (levels %d/%d, cell size %v/%v)",
			op, b.numLevels, o.numLevels, b.cellSize, o.cellSize)
	}
	return nil
}

// SetOpOR sets b to the union of b and o.
func (b *BitMask) SetOpOR(o *BitMask) error {
	if err := b.checkCompatible("OR", o); err != nil {
		return err
	}
	o.ForEachLeaf(func(ol *Leaf[Bits]) bool {
		if ol.Data.IsEmpty() {
			return true
		}
		l := b.CreateLeaf(ol.origin)
		l.Data.OrWith(&ol.Data)
		markPresent(l)
		return true
	})
	return nil
}

// SetOpAND sets b to the intersection of b and o.
//
// Only leaves present in b are visited: a leaf missing from b has no set
// bits, so nothing in o can add to it.
func (b *BitMask) SetOpAND(o *BitMask) error {
	if err := b.checkCompatible("AND", o); err != nil {
		return err
	}
	b.ForEachLeaf(func(l *Leaf[Bits]) bool {
		if ol := o.Locate(l.origin); ol != nil {
			l.Data.AndWith(&ol.Data)
		} else {
			l.Data.Clear()
		}
		return true
	})
	return nil
}

// SetOpXOR sets b to the symmetric difference of b and o.
func (b *BitMask) SetOpXOR(o *BitMask) error {
	if err := b.checkCompatible("XOR", o); err != nil {
		return err
	}
	o.ForEachLeaf(func(ol *Leaf[Bits]) bool {
		if ol.Data.IsEmpty() {
			return true
		}
		l := b.CreateLeaf(ol.origin)
		l.Data.XorWith(&ol.Data)
		if !l.Data.IsEmpty() {
			markPresent(l)
		}
		return true
	})
	return nil
}

// SetOpANDNOT clears every bit in b that is set in o.
func (b *BitMask) SetOpANDNOT(o *BitMask) error {
	if err := b.checkCompatible("ANDNOT", o); err != nil {
		return err
	}
	b.ForEachLeaf(func(l *Leaf[Bits]) bool {
		if ol := o.Locate(l.origin); ol != nil {
			l.Data.AndNotWith(&ol.Data)
		}
		return true
	})
	return nil
}

// CountBits returns the number of set bits in the tree.
func (b *BitMask) CountBits() uint64 {
	var n uint64
	b.ForEachLeaf(func(l *Leaf[Bits]) bool {
		n += uint64(l.Data.CountBits())
		return true
	})
	return n
}

// ComputeCellsExtents returns the bounding rectangle of all set bits, or an
// inverted extent if there are none.
func (b *BitMask) ComputeCellsExtents() CellExtent {
	e := InvertedCellExtent()
	b.ForEachLeaf(func(l *Leaf[Bits]) bool {
		if minX, minY, maxX, maxY, ok := l.Data.Extents(); ok {
			ox, oy := int64(l.origin.X), int64(l.origin.Y)
			e.Include(ox+int64(minX), oy+int64(minY), ox+int64(maxX), oy+int64(maxY))
		}
		return true
	})
	return e
}

// ComputeCellsWorldExtents returns the world rectangle covered by all set
// bits, or an inverted extent if there are none.
func (b *BitMask) ComputeCellsWorldExtents() WorldExtent {
	ce := b.ComputeCellsExtents()
	if !ce.IsValid() {
		return InvertedWorldExtent()
	}
	minX, minY := b.CellWorldOrigin(Address{X: uint32(ce.MinX), Y: uint32(ce.MinY)})
	maxX, maxY := b.CellWorldOrigin(Address{X: uint32(ce.MaxX), Y: uint32(ce.MaxY)})
	return WorldExtent{
		MinX: minX,
		MinY: minY,
		MaxX: maxX + b.cellSize,
		MaxY: maxY + b.cellSize,
	}
}

// ScanAllSetBits calls f with the address of every set cell.
func (b *BitMask) ScanAllSetBits(f func(Address)) {
	b.ForEachLeaf(func(l *Leaf[Bits]) bool {
		l.Data.ForEachSetBit(func(x, y byte) {
			f(l.CellAddress(x, y))
		})
		return true
	})
}

// ScanAllSetBitsAsSubGridAddresses treats every set bit as naming a leaf
// subgrid of a companion tree one level finer than this one, and calls f
// with the origin address of that subgrid.
func (b *BitMask) ScanAllSetBitsAsSubGridAddresses(f func(Address)) {
	b.ScanAllSetBits(func(a Address) {
		f(Address{X: a.X << IndexBitsPerLevel, Y: a.Y << IndexBitsPerLevel})
	})
}

// Clone returns a deep copy of b, presence bits included.
func (b *BitMask) Clone() *BitMask {
	c := NewBitMask(b.numLevels, b.cellSize)
	b.ForEachLeaf(func(l *Leaf[Bits]) bool {
		cl := c.CreateLeaf(l.origin)
		cl.Data = l.Data
		if wasPresent(l) {
			markPresent(cl)
		}
		return true
	})
	return c
}

func wasPresent(l *Leaf[Bits]) bool {
	if l.parent == nil {
		return false
	}
	i, j := l.parent.ChildIndex(l.origin)
	return l.parent.Present.BitSet(i, j)
}

// NewExistenceMap returns an empty existence map for a data tree with the
// given depth and cell size. Each cell of the map stands for one leaf
// subgrid of the data tree, so the map is one level shallower and its cells
// are 32 data cells wide. dataLevels must be at least 3.
func NewExistenceMap(dataLevels byte, dataCellSize float64) *BitMask {
	return NewBitMask(dataLevels-1, dataCellSize*Dimension)
}

// SubGridAddressMask builds the existence map of the leaves in t: cell
// (x, y) of the map is set when t has a leaf with origin (x << 5, y << 5).
func SubGridAddressMask[T any](t *Tree[T]) *BitMask {
	m := NewExistenceMap(t.numLevels, t.cellSize)
	n := 0
	t.ForEachLeaf(func(l *Leaf[T]) bool {
		m.SetCell(Address{X: l.origin.X >> IndexBitsPerLevel, Y: l.origin.Y >> IndexBitsPerLevel}, true)
		n++
		return true
	})
	klog.V(2).Infof("subgridtree: built existence map over %d leaves", n)
	return m
}
