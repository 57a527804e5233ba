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

// Store gives read access to the cell pass tree of a site.
type Store interface {
	// CellSize returns the side length of a cell in world units.
	CellSize() float64
	// LocateSubGrid returns the existing subgrid at level containing cell
	// a, or nil. Cell pass leaves are *subgridtree.Leaf[*Segment].
	LocateSubGrid(a subgridtree.Address, level byte) subgridtree.SubGrid
}
