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

// Package retriever answers filtered queries for one leaf subgrid of a
// site's cell pass tree, writing the chosen value of each cell into a client
// grid.
package retriever

import (
	"errors"
	"time"

	"github.com/terrain-ops/subgrid/cellpass"
	"github.com/terrain-ops/subgrid/client"
	"github.com/terrain-ops/subgrid/filter"
	"github.com/terrain-ops/subgrid/monitoring"
	"github.com/terrain-ops/subgrid/subgridtree"
	"github.com/terrain-ops/subgrid/types"
	"github.com/terrain-ops/subgrid/util/clock"
	"k8s.io/klog/v2"
)

// Options configures a Retriever.
type Options struct {
	// MetricFactory creates the retrieval metrics the first time any
	// Retriever is made. Nil means monitoring.InertMetricFactory.
	MetricFactory monitoring.MetricFactory
	// TimeSource times retrievals. Nil means clock.System.
	TimeSource clock.TimeSource
	// PrepareGridForCacheStorage retrieves every selected cell, ignoring
	// the area control sieve, for grids that will be cached and reused.
	PrepareGridForCacheStorage bool
}

// Retriever fills client grids from one site under one filter. It keeps
// working state for the duration of a RetrieveSubGrid call and must not be
// used by more than one goroutine at a time.
type Retriever struct {
	site   cellpass.Store
	filter *filter.Combined
	opts   Options

	// Per call state.
	grid     client.Leaf
	leaf     *subgridtree.Leaf[*cellpass.Segment]
	dataType types.GridDataType
	attr     cellpass.Attribute
	hasAttr  bool
	dirty    bool
	eligible bool
	iter     *cellpass.Iterator
	value    filter.FilteredValue
	selected subgridtree.Bits
	cells    int
	halves   int

	sieve      subgridtree.Bits
	sieveInUse bool
	probed     bool
	probes     [subgridtree.Dimension][subgridtree.Dimension]probe
}

// New returns a Retriever reading from site and selecting with f.
func New(site cellpass.Store, f *filter.Combined, opts Options) *Retriever {
	initMetrics(opts.MetricFactory)
	if opts.TimeSource == nil {
		opts.TimeSource = clock.System
	}
	return &Retriever{
		site:   site,
		filter: f,
		opts:   opts,
		iter:   cellpass.NewIterator(),
	}
}

// SieveFilterInUse reports whether the last retrieval evaluated only the
// cells picked by an area control sieve.
func (r *Retriever) SieveFilterInUse() bool { return r.sieveInUse }

// Sieve returns the sieve of the last retrieval.
func (r *Retriever) Sieve() subgridtree.Bits { return r.sieve }

// ProbeOffset returns where in cell (x, y) the floating point sieve of the
// last retrieval sampled, as an offset in world units from the cell's bottom
// left corner. ok is false if the cell was not sampled or the last
// retrieval used no floating point sieve.
func (r *Retriever) ProbeOffset(x, y byte) (dx, dy float64, ok bool) {
	if !r.probed || !r.sieve.BitSet(x, y) {
		return 0, 0, false
	}
	p := r.probes[x][y]
	return p.dx, p.dy, true
}

// RetrieveSubGrid fills grid with the filtered values of the leaf at level
// containing cell (cellX, cellY). overrideMask, if not nil, further
// restricts the selected cells. area, if not nil, may enable a sieve; its
// pixel sizes are zeroed when no sieve is used.
//
// Expected outcomes are reported by the ResultCode with a nil error. A
// collaborator failure gives UnknownError and the failure.
func (r *Retriever) RetrieveSubGrid(cellX, cellY uint32, level byte, grid client.Leaf, overrideMask *subgridtree.Bits, area *AreaControlSet) (code ResultCode, err error) {
	start := r.opts.TimeSource.Now()
	r.grid = grid
	r.dataType = grid.DataType()
	r.cells = 0
	r.sieveInUse, r.probed = false, false
	defer func() {
		r.grid, r.leaf = nil, nil
		retrievals.Inc(code.String())
		retrievalLatency.Observe(clock.SecondsSince(r.opts.TimeSource, start), r.dataType.String())
		if code == NoError {
			cellsEvaluated.Observe(float64(r.cells))
		}
	}()

	// Locate and validate.
	a := subgridtree.Address{X: cellX, Y: cellY}
	sg := r.site.LocateSubGrid(a, level)
	if sg == nil {
		return SubGridNotFound, nil
	}
	if !sg.IsLeaf() {
		klog.Warningf("retrieving %v at level %d: found a node, not a leaf", a, level)
		return Unsupported, nil
	}
	leaf, ok := sg.(*subgridtree.Leaf[*cellpass.Segment])
	if !ok {
		klog.Warningf("retrieving %v at level %d: leaf %T does not hold cell passes", a, level, sg)
		return Unsupported, nil
	}
	r.leaf = leaf
	r.dirty = leaf.Dirty()
	r.attr, r.hasAttr = cellpass.AttributeFor(r.dataType)
	grid.SetOrigin(leaf.Origin())
	grid.Clear()

	// Prune on the cached has-data flags.
	if r.hasAttr && !r.dirty && !leaf.Data.Latest.HasData(r.attr) {
		klog.V(3).Infof("%v: no %v data in subgrid", leaf.Origin(), r.attr)
		return NoError, nil
	}

	if code, err := r.buildMasks(overrideMask, area); code != NoError {
		return code, err
	}

	f := &r.filter.Attribute
	r.eligible = r.canUseGlobalLatest()
	if r.eligible && r.useLastPassGrid() {
		lastPassGridUsed.Inc()
		r.assignFromLastPassGrid()
		return NoError, nil
	}

	r.iter.SetTimeRange(f.StartTime, f.EndTime)
	if f.IterateForward() {
		r.iter.SetDirection(cellpass.Forward)
	} else {
		r.iter.SetDirection(cellpass.Backward)
	}
	r.iter.ClearElevationRange()

	for x := byte(0); x < subgridtree.Dimension; x++ {
		for y := byte(0); y < subgridtree.Dimension; y++ {
			if !r.cellSelected(x, y) {
				continue
			}
			r.processCell(x, y)
		}
	}
	return NoError, nil
}

// buildMasks computes the selected cells from the spatial filter, the
// override mask and the sieve.
func (r *Retriever) buildMasks(overrideMask *subgridtree.Bits, area *AreaControlSet) (ResultCode, error) {
	origin := r.leaf.Origin()
	cellSize := r.site.CellSize()
	offset := r.leaf.Owner().IndexOriginOffset()

	mask, err := r.filter.Spatial.CellMask(origin, cellSize, offset)
	if err != nil {
		var dme *filter.DesignMaskError
		if errors.As(err, &dme) {
			klog.Warningf("%v: %v", origin, err)
			return FailedToComputeDesignFilterPatch, nil
		}
		return UnknownError, err
	}
	if overrideMask != nil {
		mask.AndWith(overrideMask)
	}
	r.selected = mask

	if area != nil && !r.opts.PrepareGridForCacheStorage {
		if area.UseIntegerAlgorithm {
			r.sieveInUse = integerSieve(area, cellSize, origin, offset, &r.sieve)
		} else {
			wx, wy := r.leaf.WorldOrigin()
			r.sieveInUse = floatSieve(area, cellSize, wx, wy, &r.sieve, &r.probes)
			r.probed = r.sieveInUse
		}
	}
	if !r.sieveInUse {
		r.sieve = subgridtree.FullBits()
		if area != nil {
			area.PixelXWorldSize, area.PixelYWorldSize = 0, 0
		}
	}
	fm := r.grid.FilterMap()
	*fm = r.selected.And(r.sieve)
	return NoError, nil
}

// cellSelected checks the sieve first when sieving, the selection mask
// first otherwise.
func (r *Retriever) cellSelected(x, y byte) bool {
	if r.sieveInUse {
		return r.sieve.BitSet(x, y) && r.selected.BitSet(x, y)
	}
	return r.selected.BitSet(x, y)
}

func excludedFromLatest(t types.GridDataType) bool {
	switch t {
	case types.PassCount, types.Temperature, types.CellProfile, types.CellPasses, types.MachineSpeed:
		return true
	}
	return false
}

// canUseGlobalLatest reports whether cached latest values can answer the
// query for this subgrid.
func (r *Retriever) canUseGlobalLatest() bool {
	f := &r.filter.Attribute
	return !r.dirty &&
		f.LastRecordedCellPassSatisfiesFilter() &&
		!f.HasElevationRangeFilter() &&
		!r.grid.WantsLiftProcessingResults() &&
		!f.SelectsExtremum() &&
		!f.IterateForward() &&
		!excludedFromLatest(r.dataType)
}

// useLastPassGrid reports whether every selected cell can take its cached
// value without confirmation: the requested value is always from the last
// pass, or it is for every selected cell.
func (r *Retriever) useLastPassGrid() bool {
	if !r.hasAttr {
		return true
	}
	latest := &r.leaf.Data.Latest
	return r.grid.FilterMap().ForEachSetBitWhile(func(x, y byte) bool {
		return !latest.PassExists(x, y) || latest.Pass(x, y).IsNull(r.attr) || latest.ValueFromLastPass(r.attr, x, y)
	})
}

func (r *Retriever) assignFromLastPassGrid() {
	latest := &r.leaf.Data.Latest
	r.grid.FilterMap().ForEachSetBit(func(x, y byte) {
		if !latest.PassExists(x, y) {
			return
		}
		r.grid.ProdDataMap().SetBit(x, y)
		r.cells++
		r.value.Pass = *latest.Pass(x, y)
		r.value.PassCount = -1
		r.grid.AssignFilteredValue(x, y, &r.value)
	})
}

func (r *Retriever) processCell(x, y byte) {
	seg := r.leaf.Data
	if seg.PassCount(x, y) == 0 {
		return
	}
	r.grid.ProdDataMap().SetBit(x, y)
	r.cells++

	latest := &seg.Latest
	// A null bubbled up value means no pass in the history has one.
	if r.hasAttr && !r.dirty && latest.Pass(x, y).IsNull(r.attr) {
		return
	}

	r.value.Clear()
	found, searched := false, false
	if r.eligible && latest.Pass(x, y).HasValueFor(r.dataType) {
		r.value.Pass = *latest.Pass(x, y)
		r.value.PassCount = -1
		found = !r.hasAttr || latest.ValueFromLastPass(r.attr, x, y)
	}
	if !found {
		found, searched = r.searchHistory(x, y), true
	}
	if !found {
		return
	}
	if r.countsPasses() {
		// A searched value carries the count of the window it was found in.
		if searched {
			r.value.PassCount = r.halves / 2
		} else {
			r.value.PassCount = r.countPasses(x, y)
		}
	}
	r.grid.AssignFilteredValue(x, y, &r.value)
}

// searchHistory walks the pass stack of cell (x, y) for the filtered value,
// retrying forward past an overridden time boundary.
func (r *Retriever) searchHistory(x, y byte) bool {
	f := &r.filter.Attribute
	if f.HasElevationRangeFilter() {
		wx, wy := r.leaf.Owner().CellCenter(r.leaf.CellAddress(x, y))
		lo, hi, ok := f.ElevationRange.Bounds(wx, wy)
		if !ok {
			return false
		}
		r.iter.SetElevationRange(lo, hi)
	}
	passes := r.leaf.Data.Passes(x, y)
	if r.search(passes) {
		return true
	}
	if !f.HasTimeComponent() || !f.OverrideTimeBoundary || f.ReturnEarliest {
		return false
	}

	start, end := r.iter.TimeRange()
	dir := r.iter.Direction()
	r.iter.SetTimeRange(start, time.Time{})
	r.iter.SetDirection(cellpass.Forward)
	found := r.search(passes)
	r.iter.SetTimeRange(start, end)
	r.iter.SetDirection(dir)
	timeBoundaryRetry.Inc()
	klog.V(4).Infof("%v: forward search from %v for cell (%d, %d) found=%v", r.leaf.Origin(), start, x, y, found)
	return found
}

// search runs one iteration over passes, leaving the chosen pass in
// r.value. For pass counting grids the whole window is walked and its half
// pass count left in r.halves.
func (r *Retriever) search(passes []cellpass.CellPass) bool {
	f := &r.filter.Attribute
	extremum := f.SelectsExtremum()
	lowest := f.MinElevationMapping || f.ElevationType == types.ElevationLowest
	counting := r.countsPasses()
	passCount := -1
	if f.HasElevationTypeFilter() {
		passCount = 1
	}

	found := false
	r.halves = 0
	r.iter.Initialise(passes)
	for p, ok := r.iter.Next(); ok; p, ok = r.iter.Next() {
		if !f.FilterPassUntimed(p) {
			continue
		}
		if counting {
			r.halves += halvesOf(p)
		}
		if !p.HasValueFor(r.dataType) {
			continue
		}
		if !extremum {
			if !found {
				r.value.Pass, r.value.PassCount = *p, passCount
				found = true
			}
			if !counting {
				return true
			}
			continue
		}
		if !found || (lowest && p.Height < r.value.Pass.Height) || (!lowest && p.Height > r.value.Pass.Height) {
			r.value.Pass = *p
			found = true
		}
	}
	if found {
		r.value.PassCount = passCount
	}
	return found
}

// countPasses returns the number of qualifying passes of cell (x, y), with
// half width passes counting one half.
func (r *Retriever) countPasses(x, y byte) int {
	f := &r.filter.Attribute
	halves := 0
	r.iter.Initialise(r.leaf.Data.Passes(x, y))
	for p, ok := r.iter.Next(); ok; p, ok = r.iter.Next() {
		if f.FilterPassUntimed(p) {
			halves += halvesOf(p)
		}
	}
	return halves / 2
}

func (r *Retriever) countsPasses() bool {
	return r.dataType == types.PassCount || r.dataType == types.CellProfile
}

func halvesOf(p *cellpass.CellPass) int {
	if p.HalfPass {
		return 1
	}
	return 2
}
