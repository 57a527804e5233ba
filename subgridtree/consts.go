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

const (
	// Dimension is the number of cells (or child slots) along each side of a
	// subgrid.
	Dimension = 32
	// IndexBitsPerLevel is the number of address bits consumed per level.
	IndexBitsPerLevel = 5
	// CellsPerSubGrid is the number of cells in a subgrid.
	CellsPerSubGrid = Dimension * Dimension
	// LocalMask masks an address down to its index within a leaf subgrid.
	LocalMask = Dimension - 1

	// DefaultNumLevels is the tree depth used for cell pass data.
	DefaultNumLevels = 6
	// MaxNumLevels is the deepest tree that fits 32 bit cell addresses with
	// room for the signed index origin offset.
	MaxNumLevels = 6

	// DefaultCellSize is the default side length of a cell in world units.
	DefaultCellSize = 0.34
)

// Address identifies a cell by its global coordinates. When used to name a
// subgrid it is the address of the subgrid's origin cell.
type Address struct {
	X, Y uint32
}

// PathMode controls how ConstructPath treats missing subgrids.
type PathMode int

const (
	// ReturnExistingLeafOnly never creates subgrids and returns nil at the
	// first missing one.
	ReturnExistingLeafOnly PathMode = iota
	// CreateLeaf creates any missing nodes and the final leaf.
	CreateLeaf
	// CreatePathToLeaf creates missing nodes down to, and returns, the node
	// that would own the leaf.
	CreatePathToLeaf
)

// String returns the mode name.
func (m PathMode) String() string {
	switch m {
	case ReturnExistingLeafOnly:
		return "ReturnExistingLeafOnly"
	case CreateLeaf:
		return "CreateLeaf"
	case CreatePathToLeaf:
		return "CreatePathToLeaf"
	}
	return "PathMode(?)"
}
