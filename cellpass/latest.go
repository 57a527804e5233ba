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

package cellpass

import (
	"github.com/terrain-ops/subgrid/subgridtree"
)

// LatestCells caches, per cell, the most recent pass together with the
// latest non-null value of every bubbled up attribute.
//
// For a cell with passes, Pass(x, y) is the last recorded pass with each
// bubbled up attribute replaced by the most recent non-null value of that
// attribute anywhere in the cell's history. A null attribute therefore
// means the whole history is null for it. ValueFromLastPass tells whether the
// value came from the last pass itself.
type LatestCells struct {
	passes       [subgridtree.Dimension][subgridtree.Dimension]CellPass
	exists       subgridtree.Bits
	hasData      [numAttributes]bool
	fromLastPass [numAttributes]subgridtree.Bits
}

// Clear resets every cell to a null pass.
func (l *LatestCells) Clear() {
	null := NullCellPass()
	subgridtree.ForEach(func(x, y byte) {
		l.passes[x][y] = null
	})
	l.exists.Clear()
	for a := range l.hasData {
		l.hasData[a] = false
		l.fromLastPass[a].Clear()
	}
}

func (l *LatestCells) update(x, y byte, ps []CellPass) {
	last := &ps[len(ps)-1]
	l.passes[x][y] = *last
	l.exists.SetBit(x, y)
	latest := &l.passes[x][y]
	for i := 0; i < numAttributes; i++ {
		a := Attribute(i)
		if !last.IsNull(a) {
			l.fromLastPass[a].SetBit(x, y)
			l.hasData[a] = true
			continue
		}
		for j := len(ps) - 2; j >= 0; j-- {
			if !ps[j].IsNull(a) {
				latest.copyAttribute(a, &ps[j])
				l.hasData[a] = true
				break
			}
		}
	}
}

// Pass returns the cached latest pass of cell (x, y). It is a null pass if
// the cell has no passes.
func (l *LatestCells) Pass(x, y byte) *CellPass {
	return &l.passes[x][y]
}

// PassExists reports whether cell (x, y) has any passes.
func (l *LatestCells) PassExists(x, y byte) bool {
	return l.exists.BitSet(x, y)
}

// PassExistence returns the map of cells that have passes.
func (l *LatestCells) PassExistence() subgridtree.Bits {
	return l.exists
}

// HasData reports whether any cell has a non-null value for a.
func (l *LatestCells) HasData(a Attribute) bool {
	return l.hasData[a]
}

// ValueFromLastPass reports whether the cached value of a for cell (x, y)
// was recorded by the cell's last pass.
func (l *LatestCells) ValueFromLastPass(a Attribute, x, y byte) bool {
	return l.fromLastPass[a].BitSet(x, y)
}
