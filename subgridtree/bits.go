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

import "math/bits"

// Bits is a packed 32x32 bit array, one bit per cell of a subgrid.
//
// Each uint32 is a stripe of cells sharing the same local X coordinate. The
// cell with local Y coordinate 0 is held in the most significant bit.
type Bits [Dimension]uint32

const highBit = uint32(1) << (Dimension - 1)

// FullStripe has all bits in a stripe set.
const FullStripe = ^uint32(0)

// FullBits returns a Bits value with every bit set.
func FullBits() Bits {
	var b Bits
	b.Fill()
	return b
}

// BitSet returns whether the bit for local cell (x, y) is set.
func (b *Bits) BitSet(x, y byte) bool {
	return b[x]&(highBit>>y) != 0
}

// SetBit sets the bit for local cell (x, y).
func (b *Bits) SetBit(x, y byte) {
	b[x] |= highBit >> y
}

// ClearBit clears the bit for local cell (x, y).
func (b *Bits) ClearBit(x, y byte) {
	b[x] &^= highBit >> y
}

// SetBitValue sets or clears the bit for local cell (x, y).
func (b *Bits) SetBitValue(x, y byte, v bool) {
	if v {
		b.SetBit(x, y)
	} else {
		b.ClearBit(x, y)
	}
}

// Clear clears all bits.
func (b *Bits) Clear() {
	*b = Bits{}
}

// Fill sets all bits.
func (b *Bits) Fill() {
	for i := range b {
		b[i] = FullStripe
	}
}

// IsEmpty returns true if no bits are set.
func (b *Bits) IsEmpty() bool {
	for _, s := range b {
		if s != 0 {
			return false
		}
	}
	return true
}

// IsFull returns true if all bits are set.
func (b *Bits) IsFull() bool {
	for _, s := range b {
		if s != FullStripe {
			return false
		}
	}
	return true
}

// CountBits returns the number of set bits.
func (b *Bits) CountBits() int {
	n := 0
	for _, s := range b {
		n += bits.OnesCount32(s)
	}
	return n
}

// OrWith sets b to b | o.
func (b *Bits) OrWith(o *Bits) {
	for i := range b {
		b[i] |= o[i]
	}
}

// AndWith sets b to b & o.
func (b *Bits) AndWith(o *Bits) {
	for i := range b {
		b[i] &= o[i]
	}
}

// XorWith sets b to b ^ o.
func (b *Bits) XorWith(o *Bits) {
	for i := range b {
		b[i] ^= o[i]
	}
}

// AndNotWith sets b to b &^ o.
func (b *Bits) AndNotWith(o *Bits) {
	for i := range b {
		b[i] &^= o[i]
	}
}

// And returns a & o.
func (b Bits) And(o Bits) Bits {
	b.AndWith(&o)
	return b
}

// Or returns a | o.
func (b Bits) Or(o Bits) Bits {
	b.OrWith(&o)
	return b
}

// ForEachSetBit calls f for every set bit, stripe by stripe, in ascending
// local (x, y) order.
func (b *Bits) ForEachSetBit(f func(x, y byte)) {
	for x, s := range b {
		for s != 0 {
			y := bits.LeadingZeros32(s)
			f(byte(x), byte(y))
			s &^= highBit >> uint(y)
		}
	}
}

// ForEachSetBitWhile is like ForEachSetBit but stops as soon as f returns
// false. It returns false if the scan was stopped early.
func (b *Bits) ForEachSetBitWhile(f func(x, y byte) bool) bool {
	for x, s := range b {
		for s != 0 {
			y := bits.LeadingZeros32(s)
			if !f(byte(x), byte(y)) {
				return false
			}
			s &^= highBit >> uint(y)
		}
	}
	return true
}

// ForEach calls f for every cell of the subgrid in stripe order.
func ForEach(f func(x, y byte)) {
	for x := byte(0); x < Dimension; x++ {
		for y := byte(0); y < Dimension; y++ {
			f(x, y)
		}
	}
}

// Extents returns the bounding box of the set bits in local coordinates.
// ok is false if no bits are set.
func (b *Bits) Extents() (minX, minY, maxX, maxY byte, ok bool) {
	minX, minY = Dimension, Dimension
	var union uint32
	for x, s := range b {
		if s == 0 {
			continue
		}
		if !ok {
			minX = byte(x)
			ok = true
		}
		maxX = byte(x)
		union |= s
	}
	if !ok {
		return 0, 0, 0, 0, false
	}
	minY = byte(bits.LeadingZeros32(union))
	maxY = byte(Dimension - 1 - bits.TrailingZeros32(union))
	return minX, minY, maxX, maxY, true
}
