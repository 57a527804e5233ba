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
	"fmt"

	"github.com/google/uuid"
	"github.com/terrain-ops/subgrid/subgridtree"
	"k8s.io/klog/v2"
)

// Site is an in-memory Store: the cell pass tree of one site together with
// an existence map of its leaves. It is not safe for concurrent mutation.
type Site struct {
	ID uuid.UUID

	tree      *subgridtree.Tree[*Segment]
	existence *subgridtree.BitMask
}

// NewSite returns an empty site. A nil id is replaced by a random one.
func NewSite(id uuid.UUID, numLevels byte, cellSize float64) *Site {
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &Site{
		ID:        id,
		tree:      subgridtree.New(numLevels, cellSize, NewSegment),
		existence: subgridtree.NewExistenceMap(numLevels, cellSize),
	}
}

// CellSize implements Store.
func (s *Site) CellSize() float64 { return s.tree.CellSize() }

// LocateSubGrid implements Store.
func (s *Site) LocateSubGrid(a subgridtree.Address, level byte) subgridtree.SubGrid {
	return s.tree.LocateSubGrid(a, level)
}

// Tree returns the cell pass tree.
func (s *Site) Tree() *subgridtree.Tree[*Segment] { return s.tree }

// ExistenceMap returns the map of leaves holding passes. Cell (x, y) of the
// map names the leaf with origin (x << 5, y << 5).
func (s *Site) ExistenceMap() *subgridtree.BitMask { return s.existence }

// AddPass records p against cell a and marks the leaf's latest values out
// of date.
func (s *Site) AddPass(a subgridtree.Address, p CellPass) error {
	if !s.tree.InRange(a) {
		return fmt.Errorf("cell %v outside site %v", a, s.ID)
	}
	l := s.tree.CreateLeaf(a)
	x, y := l.CellIndex(a)
	l.Data.AddPass(x, y, p)
	l.SetDirty()
	s.existence.SetCell(leafKey(l.Origin()), true)
	return nil
}

// AddPassAt records p against the cell containing world position (wx, wy).
func (s *Site) AddPassAt(wx, wy float64, p CellPass) error {
	a, ok := s.tree.CellContaining(wx, wy)
	if !ok {
		return fmt.Errorf("position (%v, %v) outside site %v", wx, wy, s.ID)
	}
	return s.AddPass(a, p)
}

// RefreshLatest recomputes the latest values of every out of date leaf.
func (s *Site) RefreshLatest() error {
	var err error
	n := 0
	s.tree.ForEachLeaf(func(l *subgridtree.Leaf[*Segment]) bool {
		if !l.Dirty() {
			return true
		}
		if err = l.Refresh((*Segment).ComputeLatest); err != nil {
			err = fmt.Errorf("refreshing leaf %v: %v", l.Origin(), err)
			return false
		}
		n++
		return true
	})
	klog.V(2).Infof("%v: refreshed latest values of %d leaves", s.ID, n)
	return err
}

// RemoveSubGrid deletes the leaf containing cell a and its existence bit.
// When no other leaf in the same existence map leaf remains, that leaf is
// pruned too. It returns false if there was no such leaf.
func (s *Site) RemoveSubGrid(a subgridtree.Address) bool {
	if !s.tree.DeleteSubGrid(a, s.tree.NumLevels()) {
		return false
	}
	key := leafKey(a)
	s.existence.ClearCellIfSet(key)
	if l := s.existence.Locate(key); l != nil && l.Data.IsEmpty() {
		s.existence.RemoveLeafOwningCell(key)
	}
	return true
}

func leafKey(a subgridtree.Address) subgridtree.Address {
	return subgridtree.Address{X: a.X >> subgridtree.IndexBitsPerLevel, Y: a.Y >> subgridtree.IndexBitsPerLevel}
}
