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

package retriever

import (
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/terrain-ops/subgrid/cellpass"
	"github.com/terrain-ops/subgrid/client"
	"github.com/terrain-ops/subgrid/filter"
	"github.com/terrain-ops/subgrid/monitoring"
	"github.com/terrain-ops/subgrid/subgridtree"
	"github.com/terrain-ops/subgrid/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	cellSize  = 0.5
	leafLevel = subgridtree.DefaultNumLevels
	offset    = 1 << 29
)

var (
	t0     = time.Date(2026, 4, 1, 6, 0, 0, 0, time.UTC)
	origin = subgridtree.Address{X: offset, Y: offset}
)

func at(min int) time.Time { return t0.Add(time.Duration(min) * time.Minute) }

// recordingGrid is a client.Leaf that keeps the filtered values assigned to
// it.
type recordingGrid struct {
	dt          types.GridDataType
	origin      subgridtree.Address
	values      map[[2]byte]filter.FilteredValue
	filterMap   subgridtree.Bits
	prodDataMap subgridtree.Bits
	lift        bool
}

func newRecordingGrid(dt types.GridDataType) *recordingGrid {
	return &recordingGrid{dt: dt, values: make(map[[2]byte]filter.FilteredValue)}
}

func (g *recordingGrid) DataType() types.GridDataType { return g.dt }
func (g *recordingGrid) Origin() subgridtree.Address { return g.origin }
func (g *recordingGrid) SetOrigin(a subgridtree.Address) { g.origin = a }
func (g *recordingGrid) CellSize() float64 { return cellSize }
func (g *recordingGrid) FilterMap() *subgridtree.Bits { return &g.filterMap }
func (g *recordingGrid) ProdDataMap() *subgridtree.Bits { return &g.prodDataMap }
func (g *recordingGrid) WantsLiftProcessingResults() bool { return g.lift }
func (g *recordingGrid) CellString(x, y byte) string { return "" }
func (g *recordingGrid) CellHasValue(x, y byte) bool {
	_, ok := g.values[[2]byte{x, y}]
	return ok
}

func (g *recordingGrid) Clear() {
	g.values = make(map[[2]byte]filter.FilteredValue)
	g.filterMap.Clear()
	g.prodDataMap.Clear()
}

func (g *recordingGrid) AssignFilteredValue(x, y byte, v *filter.FilteredValue) {
	g.values[[2]byte{x, y}] = *v
}

func (g *recordingGrid) value(t *testing.T, x, y byte) filter.FilteredValue {
	t.Helper()
	v, ok := g.values[[2]byte{x, y}]
	if !ok {
		t.Fatalf("cell (%d, %d) has no value", x, y)
	}
	return v
}

func mkPass(min int, h float32) cellpass.CellPass {
	p := cellpass.NullCellPass()
	p.Time = at(min)
	p.Height = h
	p.MachineID = 1
	return p
}

func withCCV(p cellpass.CellPass, ccv int16) cellpass.CellPass {
	p.CCV = ccv
	return p
}

func withMachine(p cellpass.CellPass, m int16) cellpass.CellPass {
	p.MachineID = m
	return p
}

type cellPasses struct {
	x, y   byte
	passes []cellpass.CellPass
}

func newSite(t *testing.T, cells ...cellPasses) *cellpass.Site {
	t.Helper()
	s := cellpass.NewSite(uuid.New(), leafLevel, cellSize)
	for _, c := range cells {
		for _, p := range c.passes {
			if err := s.AddPass(subgridtree.Address{X: origin.X + uint32(c.x), Y: origin.Y + uint32(c.y)}, p); err != nil {
				t.Fatalf("AddPass: %v", err)
			}
		}
	}
	if err := s.RefreshLatest(); err != nil {
		t.Fatalf("RefreshLatest: %v", err)
	}
	return s
}

// counterValue reads c, creating the package metrics first if no Retriever
// has been made yet.
func counterValue(c *monitoring.Counter) float64 {
	initMetrics(nil)
	return (*c).Value()
}

func retrieve(t *testing.T, s cellpass.Store, f *filter.Combined, g client.Leaf, area *AreaControlSet) *Retriever {
	t.Helper()
	r := New(s, f, Options{})
	code, err := r.RetrieveSubGrid(origin.X, origin.Y, leafLevel, g, nil, area)
	if err != nil || code != NoError {
		t.Fatalf("RetrieveSubGrid = %v, %v; want NoError", code, err)
	}
	return r
}

func TestRetrieveNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := cellpass.NewMockStore(ctrl)
	store.EXPECT().LocateSubGrid(origin, byte(leafLevel)).Return(nil)

	g := newRecordingGrid(types.Height)
	g.filterMap.SetBit(1, 1)
	code, err := New(store, &filter.Combined{}, Options{}).RetrieveSubGrid(origin.X, origin.Y, leafLevel, g, nil, nil)
	if err != nil || code != SubGridNotFound {
		t.Fatalf("RetrieveSubGrid = %v, %v; want SubGridNotFound", code, err)
	}
	if !g.filterMap.BitSet(1, 1) {
		t.Error("client grid was cleared")
	}
}

func TestRetrieveUnsupported(t *testing.T) {
	cells := subgridtree.New(leafLevel, cellSize, cellpass.NewSegment)
	cells.CreateLeaf(origin)
	bits := subgridtree.NewBitMask(leafLevel, cellSize)
	bits.SetCell(origin, true)

	for _, tc := range []struct {
		desc string
		sg   subgridtree.SubGrid
	}{
		{desc: "node", sg: cells.LocateSubGrid(origin, leafLevel-1)},
		{desc: "bit mask leaf", sg: bits.Locate(origin)},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			store := cellpass.NewMockStore(ctrl)
			store.EXPECT().LocateSubGrid(gomock.Any(), gomock.Any()).Return(tc.sg)

			g := newRecordingGrid(types.Height)
			g.filterMap.SetBit(1, 1)
			code, err := New(store, &filter.Combined{}, Options{}).RetrieveSubGrid(origin.X, origin.Y, leafLevel, g, nil, nil)
			if err != nil || code != Unsupported {
				t.Fatalf("RetrieveSubGrid = %v, %v; want Unsupported", code, err)
			}
			if !g.filterMap.BitSet(1, 1) || g.origin != (subgridtree.Address{}) {
				t.Error("client grid was modified")
			}
		})
	}
}

func TestLastPassGridShortcut(t *testing.T) {
	s := newSite(t,
		cellPasses{x: 0, y: 0, passes: []cellpass.CellPass{mkPass(1, 1), mkPass(2, 2)}},
		cellPasses{x: 3, y: 7, passes: []cellpass.CellPass{mkPass(1, 10), mkPass(5, 9), mkPass(3, 12)}},
		cellPasses{x: 31, y: 31, passes: []cellpass.CellPass{mkPass(1, 4)}},
	)
	before := counterValue(&lastPassGridUsed)
	g := newRecordingGrid(types.Height)
	retrieve(t, s, &filter.Combined{}, g, nil)

	if got := counterValue(&lastPassGridUsed) - before; got != 1 {
		t.Errorf("last pass grid used %v times, want 1", got)
	}
	leaf := s.Tree().Locate(origin)
	if got, want := len(g.values), 3; got != want {
		t.Fatalf("got %d values, want %d", got, want)
	}
	for xy, v := range g.values {
		if v.PassCount != -1 {
			t.Errorf("cell %v: PassCount = %d, want -1", xy, v.PassCount)
		}
		if diff := cmp.Diff(*leaf.Data.Latest.Pass(xy[0], xy[1]), v.Pass); diff != "" {
			t.Errorf("cell %v: value differs from cached latest (-want +got):\n%s", xy, diff)
		}
	}
	if got := g.value(t, 3, 7).Pass.Height; got != 9 {
		t.Errorf("cell (3, 7) height = %v, want 9", got)
	}
	if got := g.prodDataMap.CountBits(); got != 3 {
		t.Errorf("ProdDataMap has %d cells, want 3", got)
	}
}

func TestLatestConfirmation(t *testing.T) {
	fromLast := cellPasses{x: 0, y: 0, passes: []cellpass.CellPass{withCCV(mkPass(1, 1), 100), withCCV(mkPass(2, 2), 200)}}
	fromOlder := cellPasses{x: 1, y: 0, passes: []cellpass.CellPass{withCCV(mkPass(1, 5), 300), mkPass(2, 6)}}

	for _, tc := range []struct {
		desc         string
		cells        []cellPasses
		wantLastGrid float64
	}{
		{desc: "all from last pass", cells: []cellPasses{fromLast}, wantLastGrid: 1},
		{desc: "needs confirmation", cells: []cellPasses{fromLast, fromOlder}, wantLastGrid: 0},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			s := newSite(t, tc.cells...)
			before := counterValue(&lastPassGridUsed)
			g := newRecordingGrid(types.CCV)
			retrieve(t, s, &filter.Combined{}, g, nil)
			if got := counterValue(&lastPassGridUsed) - before; got != tc.wantLastGrid {
				t.Errorf("last pass grid used %v times, want %v", got, tc.wantLastGrid)
			}
			leaf := s.Tree().Locate(origin)
			for _, c := range tc.cells {
				v := g.value(t, c.x, c.y)
				if v.PassCount != -1 {
					t.Errorf("cell (%d, %d): PassCount = %d, want -1", c.x, c.y, v.PassCount)
				}
				if got, want := v.Pass.CCV, leaf.Data.Latest.Pass(c.x, c.y).CCV; got != want {
					t.Errorf("cell (%d, %d): CCV = %d, want %d", c.x, c.y, got, want)
				}
			}
		})
	}
}

func TestPruneOnHasData(t *testing.T) {
	s := newSite(t, cellPasses{x: 2, y: 2, passes: []cellpass.CellPass{mkPass(1, 1)}})
	g := newRecordingGrid(types.MDP)
	retrieve(t, s, &filter.Combined{}, g, nil)
	if len(g.values) != 0 || !g.prodDataMap.IsEmpty() {
		t.Errorf("got values %v and prod data %v for a subgrid without MDP", g.values, g.prodDataMap)
	}
}

func TestBubbleUpNullSkip(t *testing.T) {
	s := newSite(t,
		cellPasses{x: 0, y: 0, passes: []cellpass.CellPass{withCCV(mkPass(1, 1), 100)}},
		cellPasses{x: 0, y: 1, passes: []cellpass.CellPass{mkPass(1, 1), mkPass(2, 2)}},
	)
	g := newRecordingGrid(types.CCV)
	retrieve(t, s, &filter.Combined{Attribute: filter.Attribute{EndTime: at(10)}}, g, nil)
	if g.CellHasValue(0, 1) {
		t.Error("cell with no CCV history has a value")
	}
	if got := g.value(t, 0, 0).Pass.CCV; got != 100 {
		t.Errorf("CCV = %d, want 100", got)
	}
}

func TestElevationExtremum(t *testing.T) {
	s := newSite(t, cellPasses{x: 4, y: 4, passes: []cellpass.CellPass{mkPass(1, 5), mkPass(2, 2), mkPass(3, 8)}})
	for _, tc := range []struct {
		desc      string
		f         filter.Attribute
		want      float32
		passCount int
	}{
		{desc: "lowest", f: filter.Attribute{ElevationType: types.ElevationLowest}, want: 2, passCount: 1},
		{desc: "highest", f: filter.Attribute{ElevationType: types.ElevationHighest}, want: 8, passCount: 1},
		{desc: "first", f: filter.Attribute{ElevationType: types.ElevationFirst}, want: 5, passCount: 1},
		{desc: "earliest", f: filter.Attribute{ReturnEarliest: true}, want: 5, passCount: -1},
		{desc: "min elevation mapping", f: filter.Attribute{MinElevationMapping: true}, want: 2, passCount: -1},
		{desc: "last", want: 8, passCount: -1},
		{desc: "lowest in window", f: filter.Attribute{ElevationType: types.ElevationLowest, StartTime: at(3)}, want: 8, passCount: 1},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			g := newRecordingGrid(types.Height)
			retrieve(t, s, &filter.Combined{Attribute: tc.f}, g, nil)
			v := g.value(t, 4, 4)
			if v.Pass.Height != tc.want {
				t.Errorf("height = %v, want %v", v.Pass.Height, tc.want)
			}
			if v.PassCount != tc.passCount {
				t.Errorf("PassCount = %d, want %d", v.PassCount, tc.passCount)
			}
		})
	}
}

func TestElevationRange(t *testing.T) {
	s := newSite(t, cellPasses{x: 0, y: 0, passes: []cellpass.CellPass{mkPass(1, 5), mkPass(2, 2), mkPass(3, 8)}})
	g := newRecordingGrid(types.Height)
	f := &filter.Combined{Attribute: filter.Attribute{ElevationRange: &filter.ElevationRange{Level: 4, Thickness: 2}}}
	retrieve(t, s, f, g, nil)
	if got := g.value(t, 0, 0).Pass.Height; got != 5 {
		t.Errorf("height = %v, want 5", got)
	}
}

func TestOverrideTimeBoundaryRetry(t *testing.T) {
	s := newSite(t,
		// Nothing qualifies inside the window; the first qualifying pass
		// after its start is at minute 40.
		cellPasses{x: 0, y: 0, passes: []cellpass.CellPass{
			mkPass(10, 1),
			withMachine(mkPass(25, 2), 2),
			mkPass(40, 4),
			mkPass(50, 5),
		}},
		// A later stripe with two qualifying passes inside the window.
		cellPasses{x: 5, y: 0, passes: []cellpass.CellPass{mkPass(22, 22), mkPass(28, 28)}},
	)
	attr := filter.Attribute{StartTime: at(20), EndTime: at(30), MachineIDs: []int16{1}}

	for _, tc := range []struct {
		desc      string
		override  bool
		earliest  bool
		want00    float32
		want50    float32
		wantRetry float64
		wantDir   cellpass.Direction
	}{
		{desc: "override", override: true, want00: 4, want50: 28, wantRetry: 1, wantDir: cellpass.Backward},
		{desc: "no override", want00: cellpass.NullHeight, want50: 28, wantDir: cellpass.Backward},
		{desc: "earliest", override: true, earliest: true, want00: cellpass.NullHeight, want50: 22, wantDir: cellpass.Forward},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			f := &filter.Combined{Attribute: attr}
			f.Attribute.OverrideTimeBoundary = tc.override
			f.Attribute.ReturnEarliest = tc.earliest
			before := counterValue(&timeBoundaryRetry)
			g := newRecordingGrid(types.Height)
			r := retrieve(t, s, f, g, nil)

			if tc.want00 == cellpass.NullHeight {
				if g.CellHasValue(0, 0) {
					t.Errorf("cell (0, 0) = %v, want no value", g.values[[2]byte{0, 0}].Pass)
				}
			} else if got := g.value(t, 0, 0).Pass.Height; got != tc.want00 {
				t.Errorf("cell (0, 0) height = %v, want %v", got, tc.want00)
			}
			if got := g.value(t, 5, 0).Pass.Height; got != tc.want50 {
				t.Errorf("cell (5, 0) height = %v, want %v", got, tc.want50)
			}
			if got := counterValue(&timeBoundaryRetry) - before; got != tc.wantRetry {
				t.Errorf("retries = %v, want %v", got, tc.wantRetry)
			}
			if got := r.iter.Direction(); got != tc.wantDir {
				t.Errorf("iterator direction after retrieval = %v, want %v", got, tc.wantDir)
			}
			start, end := r.iter.TimeRange()
			if !start.Equal(at(20)) || !end.Equal(at(30)) {
				t.Errorf("iterator window after retrieval = [%v, %v], want [%v, %v]", start, end, at(20), at(30))
			}
		})
	}
}

func TestPassCountGrid(t *testing.T) {
	half := func(p cellpass.CellPass) cellpass.CellPass {
		p.HalfPass = true
		return p
	}
	s := newSite(t, cellPasses{x: 9, y: 9, passes: []cellpass.CellPass{
		mkPass(1, 1), mkPass(2, 2), half(mkPass(3, 3)), half(mkPass(4, 4)), half(mkPass(5, 5)),
	}})
	for _, tc := range []struct {
		desc string
		f    filter.Attribute
		dt   types.GridDataType
		want int
	}{
		{desc: "pass count", dt: types.PassCount, want: 3},
		{desc: "cell profile", dt: types.CellProfile, want: 3},
		{desc: "windowed", dt: types.PassCount, f: filter.Attribute{StartTime: at(2), EndTime: at(4)}, want: 2},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			g := newRecordingGrid(tc.dt)
			retrieve(t, s, &filter.Combined{Attribute: tc.f}, g, nil)
			if got := g.value(t, 9, 9).PassCount; got != tc.want {
				t.Errorf("PassCount = %d, want %d", got, tc.want)
			}
		})
	}

	t.Run("past overridden boundary", func(t *testing.T) {
		s := newSite(t, cellPasses{x: 4, y: 6, passes: []cellpass.CellPass{mkPass(10, 1), mkPass(40, 4), mkPass(50, 5)}})
		f := &filter.Combined{Attribute: filter.Attribute{StartTime: at(20), EndTime: at(30), OverrideTimeBoundary: true}}
		for _, dt := range []types.GridDataType{types.PassCount, types.CellProfile} {
			g := newRecordingGrid(dt)
			retrieve(t, s, f, g, nil)
			v := g.value(t, 4, 6)
			if v.Pass.Height != 4 {
				t.Errorf("%v: height = %v, want 4", dt, v.Pass.Height)
			}
			// Counted over the widened window: minutes 40 and 50.
			if v.PassCount != 2 {
				t.Errorf("%v: PassCount = %d, want 2", dt, v.PassCount)
			}
		}
	})
}

func TestPassCountClientGrid(t *testing.T) {
	s := newSite(t, cellPasses{x: 1, y: 2, passes: []cellpass.CellPass{mkPass(1, 1), mkPass(2, 2)}})
	g, err := client.New(types.PassCount, cellSize)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	retrieve(t, s, &filter.Combined{}, g, nil)
	if got := g.(*client.Grid[int32]).Value(1, 2); got != 2 {
		t.Errorf("pass count = %d, want 2", got)
	}
	if got := g.Origin(); got != origin {
		t.Errorf("grid origin = %v, want %v", got, origin)
	}
}

func TestDirtyLeafIgnoresCache(t *testing.T) {
	s := newSite(t, cellPasses{x: 0, y: 0, passes: []cellpass.CellPass{mkPass(1, 1)}})
	a := subgridtree.Address{X: origin.X, Y: origin.Y}
	if err := s.AddPass(a, withCCV(mkPass(2, 2), 77)); err != nil {
		t.Fatalf("AddPass: %v", err)
	}

	g := newRecordingGrid(types.Height)
	retrieve(t, s, &filter.Combined{}, g, nil)
	if got := g.value(t, 0, 0).Pass.Height; got != 2 {
		t.Errorf("height = %v, want 2", got)
	}
	// The cache says there is no CCV, but it is out of date.
	g = newRecordingGrid(types.CCV)
	retrieve(t, s, &filter.Combined{}, g, nil)
	if got := g.value(t, 0, 0).Pass.CCV; got != 77 {
		t.Errorf("CCV = %d, want 77", got)
	}
}

func TestSpatialSelection(t *testing.T) {
	var cells []cellPasses
	for x := byte(0); x < 4; x++ {
		for y := byte(0); y < 4; y++ {
			cells = append(cells, cellPasses{x: x, y: y, passes: []cellpass.CellPass{mkPass(1, float32(x*10+y))}})
		}
	}
	s := newSite(t, cells...)

	var override subgridtree.Bits
	override.SetBit(1, 1)
	override.SetBit(2, 2)
	override.SetBit(3, 3)

	r := New(s, &filter.Combined{}, Options{})
	g := newRecordingGrid(types.Height)
	code, err := r.RetrieveSubGrid(origin.X, origin.Y, leafLevel, g, &override, nil)
	if err != nil || code != NoError {
		t.Fatalf("RetrieveSubGrid = %v, %v", code, err)
	}
	if got := len(g.values); got != 3 {
		t.Errorf("got %d values, want 3", got)
	}
	if diff := cmp.Diff(override, g.filterMap); diff != "" {
		t.Errorf("FilterMap diff (-want +got):\n%s", diff)
	}
}

type failingDesign struct{}

func (failingDesign) CellMask(subgridtree.Address, float64) (subgridtree.Bits, error) {
	return subgridtree.Bits{}, errors.New("surface unavailable")
}

func TestDesignMaskFailure(t *testing.T) {
	s := newSite(t, cellPasses{x: 0, y: 0, passes: []cellpass.CellPass{mkPass(1, 1)}})
	f := &filter.Combined{Spatial: filter.Spatial{Design: failingDesign{}}}
	g := newRecordingGrid(types.Height)
	code, err := New(s, f, Options{}).RetrieveSubGrid(origin.X, origin.Y, leafLevel, g, nil, nil)
	if err != nil || code != FailedToComputeDesignFilterPatch {
		t.Fatalf("RetrieveSubGrid = %v, %v; want FailedToComputeDesignFilterPatch", code, err)
	}
	if len(g.values) != 0 {
		t.Errorf("got values %v after a failed mask", g.values)
	}
}

func TestResultCodeErr(t *testing.T) {
	for _, tc := range []struct {
		code ResultCode
		want codes.Code
	}{
		{NoError, codes.OK},
		{SubGridNotFound, codes.NotFound},
		{FailedToComputeDesignFilterPatch, codes.FailedPrecondition},
		{UnknownError, codes.Unknown},
		{Unsupported, codes.Unimplemented},
	} {
		if got := status.Code(tc.code.Err()); got != tc.want {
			t.Errorf("%v.Err() code = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestLiftProcessingDisablesShortcut(t *testing.T) {
	s := newSite(t, cellPasses{x: 0, y: 0, passes: []cellpass.CellPass{mkPass(1, 1), mkPass(2, 2)}})
	before := counterValue(&lastPassGridUsed)
	g := newRecordingGrid(types.Height)
	g.lift = true
	retrieve(t, s, &filter.Combined{}, g, nil)
	if got := counterValue(&lastPassGridUsed) - before; got != 0 {
		t.Errorf("last pass grid used %v times, want 0", got)
	}
	if got := g.value(t, 0, 0).Pass.Height; got != 2 {
		t.Errorf("height = %v, want 2", got)
	}
}
