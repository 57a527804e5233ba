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

package filter

import (
	"github.com/ctessum/geom"
	"github.com/terrain-ops/subgrid/subgridtree"
)

// DesignMask supplies the cells of a leaf subgrid covered by a design
// surface.
type DesignMask interface {
	// CellMask returns the cells of the leaf with the given origin whose
	// centres lie on the design. An error means the patch could not be
	// computed.
	CellMask(origin subgridtree.Address, cellSize float64) (subgridtree.Bits, error)
}

// DesignMaskError wraps a failure to compute a design patch.
type DesignMaskError struct {
	Err error
}

func (e *DesignMaskError) Error() string {
	return "computing design filter patch: " + e.Err.Error()
}

func (e *DesignMaskError) Unwrap() error { return e.Err }

// Spatial selects cells by position. Every set restriction must hold for a
// cell to be selected; the zero value selects everything.
type Spatial struct {
	// Rect restricts cell centres to a world rectangle.
	Rect *geom.Bounds
	// Fence restricts cell centres to a polygon. Centres on an edge are
	// selected.
	Fence geom.Polygon
	// Design restricts cells to a design surface.
	Design DesignMask
}

// IsSet reports whether any restriction is set.
func (s *Spatial) IsSet() bool {
	return s.Rect != nil || len(s.Fence) > 0 || s.Design != nil
}

// CellMask returns the selected cells of the leaf with the given origin in
// a tree with the given cell size and index origin offset. A failed design mask
// is returned as a *DesignMaskError.
func (s *Spatial) CellMask(origin subgridtree.Address, cellSize float64, indexOriginOffset uint32) (subgridtree.Bits, error) {
	mask := subgridtree.FullBits()
	if !s.IsSet() {
		return mask, nil
	}
	ox := float64(int64(origin.X)-int64(indexOriginOffset)) * cellSize
	oy := float64(int64(origin.Y)-int64(indexOriginOffset)) * cellSize
	side := cellSize * subgridtree.Dimension
	leaf := &geom.Bounds{Min: geom.Point{X: ox, Y: oy}, Max: geom.Point{X: ox + side, Y: oy + side}}

	if s.Rect != nil && !s.Rect.Overlaps(leaf) {
		return subgridtree.Bits{}, nil
	}
	var fence *geom.Bounds
	if len(s.Fence) > 0 {
		if fence = s.Fence.Bounds(); !fence.Overlaps(leaf) {
			return subgridtree.Bits{}, nil
		}
	}
	if s.Rect != nil || fence != nil {
		subgridtree.ForEach(func(x, y byte) {
			c := geom.Point{X: ox + (float64(x)+0.5)*cellSize, Y: oy + (float64(y)+0.5)*cellSize}
			if s.Rect != nil && (c.X < s.Rect.Min.X || c.X > s.Rect.Max.X || c.Y < s.Rect.Min.Y || c.Y > s.Rect.Max.Y) {
				mask.ClearBit(x, y)
				return
			}
			if fence != nil && c.Within(s.Fence) == geom.Outside {
				mask.ClearBit(x, y)
			}
		})
	}
	if s.Design != nil {
		dm, err := s.Design.CellMask(origin, cellSize)
		if err != nil {
			return subgridtree.Bits{}, &DesignMaskError{Err: err}
		}
		mask.AndWith(&dm)
	}
	return mask, nil
}
