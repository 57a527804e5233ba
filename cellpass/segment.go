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
	"sort"

	"github.com/terrain-ops/subgrid/subgridtree"
)

// Segment is the payload of a cell pass leaf: the time ordered pass stack of
// each of its cells and the latest values computed from them.
type Segment struct {
	passes [subgridtree.Dimension][subgridtree.Dimension][]CellPass

	// Latest is valid only while the owning leaf is clean. It is rebuilt by
	// ComputeLatest.
	Latest LatestCells
}

// NewSegment returns an empty segment.
func NewSegment() *Segment {
	s := &Segment{}
	s.Latest.Clear()
	return s
}

// AddPass inserts p into the stack of cell (x, y), keeping it ordered by
// time. A pass with the same time as an existing one goes after it.
func (s *Segment) AddPass(x, y byte, p CellPass) {
	ps := s.passes[x][y]
	i := sort.Search(len(ps), func(i int) bool { return ps[i].Time.After(p.Time) })
	ps = append(ps, CellPass{})
	copy(ps[i+1:], ps[i:])
	ps[i] = p
	s.passes[x][y] = ps
}

// Passes returns the pass stack of cell (x, y), oldest first. The slice
// must not be modified.
func (s *Segment) Passes(x, y byte) []CellPass {
	return s.passes[x][y]
}

// PassCount returns the number of passes recorded for cell (x, y).
func (s *Segment) PassCount(x, y byte) int {
	return len(s.passes[x][y])
}

// TotalPasses returns the number of passes in the segment.
func (s *Segment) TotalPasses() int {
	n := 0
	subgridtree.ForEach(func(x, y byte) {
		n += len(s.passes[x][y])
	})
	return n
}

// ComputeLatest rebuilds s.Latest from the pass stacks. It is the recompute
// step run by Leaf.Refresh.
func (s *Segment) ComputeLatest() error {
	s.Latest.Clear()
	subgridtree.ForEach(func(x, y byte) {
		if ps := s.passes[x][y]; len(ps) > 0 {
			s.Latest.update(x, y, ps)
		}
	})
	return nil
}
