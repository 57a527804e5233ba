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

// Package client holds the leaf grids a retrieval writes its results into.
package client

import (
	"fmt"

	"github.com/terrain-ops/subgrid/filter"
	"github.com/terrain-ops/subgrid/subgridtree"
	"github.com/terrain-ops/subgrid/types"
)

// Leaf is a 32×32 grid of query results for one leaf subgrid.
type Leaf interface {
	// DataType returns the attribute the grid holds.
	DataType() types.GridDataType
	// Origin returns the address of the grid's origin cell.
	Origin() subgridtree.Address
	SetOrigin(subgridtree.Address)
	CellSize() float64

	// Clear sets every cell to null and empties both maps.
	Clear()
	// AssignFilteredValue stores the value chosen for cell (x, y).
	AssignFilteredValue(x, y byte, v *filter.FilteredValue)
	// CellHasValue reports whether cell (x, y) holds a non-null value.
	CellHasValue(x, y byte) bool
	// CellString formats the value of cell (x, y).
	CellString(x, y byte) string

	// FilterMap marks the cells the query selected.
	FilterMap() *subgridtree.Bits
	// ProdDataMap marks the selected cells that hold production data.
	ProdDataMap() *subgridtree.Bits

	// WantsLiftProcessingResults reports whether values must come from
	// layer analysed history rather than cached latest values.
	WantsLiftProcessingResults() bool
}

// Grid is a Leaf with cell values of type V.
type Grid[V any] struct {
	Cells [subgridtree.Dimension][subgridtree.Dimension]V

	// LiftProcessing is returned by WantsLiftProcessingResults.
	LiftProcessing bool

	dataType    types.GridDataType
	origin      subgridtree.Address
	cellSize    float64
	null        V
	isNull      func(V) bool
	convert     func(*filter.FilteredValue) V
	filterMap   subgridtree.Bits
	prodDataMap subgridtree.Bits
}

func newGrid[V any](t types.GridDataType, cellSize float64, null V, isNull func(V) bool, convert func(*filter.FilteredValue) V) *Grid[V] {
	g := &Grid[V]{
		dataType: t,
		cellSize: cellSize,
		null:     null,
		isNull:   isNull,
		convert:  convert,
	}
	g.Clear()
	return g
}

// DataType implements Leaf.
func (g *Grid[V]) DataType() types.GridDataType { return g.dataType }

// Origin implements Leaf.
func (g *Grid[V]) Origin() subgridtree.Address { return g.origin }

// SetOrigin implements Leaf.
func (g *Grid[V]) SetOrigin(a subgridtree.Address) { g.origin = a }

// CellSize implements Leaf.
func (g *Grid[V]) CellSize() float64 { return g.cellSize }

// Clear implements Leaf.
func (g *Grid[V]) Clear() {
	subgridtree.ForEach(func(x, y byte) {
		g.Cells[x][y] = g.null
	})
	g.filterMap.Clear()
	g.prodDataMap.Clear()
}

// AssignFilteredValue implements Leaf.
func (g *Grid[V]) AssignFilteredValue(x, y byte, v *filter.FilteredValue) {
	g.Cells[x][y] = g.convert(v)
}

// CellHasValue implements Leaf.
func (g *Grid[V]) CellHasValue(x, y byte) bool {
	return !g.isNull(g.Cells[x][y])
}

// CellString implements Leaf.
func (g *Grid[V]) CellString(x, y byte) string {
	if !g.CellHasValue(x, y) {
		return "-"
	}
	return fmt.Sprint(g.Cells[x][y])
}

// Value returns the value of cell (x, y).
func (g *Grid[V]) Value(x, y byte) V { return g.Cells[x][y] }

// FilterMap implements Leaf.
func (g *Grid[V]) FilterMap() *subgridtree.Bits { return &g.filterMap }

// ProdDataMap implements Leaf.
func (g *Grid[V]) ProdDataMap() *subgridtree.Bits { return &g.prodDataMap }

// WantsLiftProcessingResults implements Leaf.
func (g *Grid[V]) WantsLiftProcessingResults() bool { return g.LiftProcessing }

// CountNonNull returns the number of cells holding a value.
func (g *Grid[V]) CountNonNull() int {
	n := 0
	subgridtree.ForEach(func(x, y byte) {
		if g.CellHasValue(x, y) {
			n++
		}
	})
	return n
}
