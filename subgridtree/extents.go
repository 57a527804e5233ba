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
)

// CellExtent is an inclusive rectangle of cell addresses.
type CellExtent struct {
	MinX, MinY, MaxX, MaxY int64
}

// InvertedCellExtent returns the empty extent: every Include shrinks it onto
// the included cells.
func InvertedCellExtent() CellExtent {
	return CellExtent{MinX: math.MaxInt64, MinY: math.MaxInt64, MaxX: math.MinInt64, MaxY: math.MinInt64}
}

// IsValid reports whether the extent covers at least one cell.
func (e CellExtent) IsValid() bool {
	return e.MinX <= e.MaxX && e.MinY <= e.MaxY
}

// Include grows the extent to cover the rectangle (minX, minY)-(maxX, maxY).
func (e *CellExtent) Include(minX, minY, maxX, maxY int64) {
	e.MinX = min(e.MinX, minX)
	e.MinY = min(e.MinY, minY)
	e.MaxX = max(e.MaxX, maxX)
	e.MaxY = max(e.MaxY, maxY)
}

func (e CellExtent) String() string {
	if !e.IsValid() {
		return "[inverted]"
	}
	return fmt.Sprintf("[(%d, %d) - (%d, %d)]", e.MinX, e.MinY, e.MaxX, e.MaxY)
}

// WorldExtent is a box in world coordinates.
type WorldExtent struct {
	MinX, MinY, MaxX, MaxY, MinZ, MaxZ float64
}

// InvertedWorldExtent returns the empty world extent.
func InvertedWorldExtent() WorldExtent {
	return WorldExtent{
		MinX: math.MaxFloat64, MinY: math.MaxFloat64, MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64, MaxY: -math.MaxFloat64, MaxZ: -math.MaxFloat64,
	}
}

// IsValidPlanExtent reports whether the X/Y part of the extent is non-empty.
func (e WorldExtent) IsValidPlanExtent() bool {
	return e.MinX <= e.MaxX && e.MinY <= e.MaxY
}

// Include grows the extent to cover point (x, y, z).
func (e *WorldExtent) Include(x, y, z float64) {
	e.MinX = math.Min(e.MinX, x)
	e.MinY = math.Min(e.MinY, y)
	e.MinZ = math.Min(e.MinZ, z)
	e.MaxX = math.Max(e.MaxX, x)
	e.MaxY = math.Max(e.MaxY, y)
	e.MaxZ = math.Max(e.MaxZ, z)
}
