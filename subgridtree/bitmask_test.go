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
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newMask() *BitMask {
	return NewBitMask(DefaultNumLevels, DefaultCellSize)
}

func TestBitMaskPropagateOnSet(t *testing.T) {
	m := newMask()
	a := Address{X: 1<<29 + 17, Y: 1<<29 - 3}
	if m.Cell(a) || m.LeafPresent(a) || m.LeafExists(a) {
		t.Fatal("empty mask reports data")
	}
	m.SetCell(a, true)
	if !m.Cell(a) {
		t.Error("Cell after SetCell(true): got false")
	}
	if !m.LeafPresent(a) {
		t.Error("LeafPresent after SetCell(true): got false")
	}
	m.SetCell(a, false)
	if m.Cell(a) {
		t.Error("Cell after SetCell(false): got true")
	}
	if !m.LeafPresent(a) {
		t.Error("SetCell(false) cleared the presence bit")
	}

	// Setting false on a fresh leaf creates it but does not mark it present.
	b := Address{X: a.X + 64, Y: a.Y}
	m.SetCell(b, false)
	if !m.LeafExists(b) {
		t.Error("SetCell(false) did not create the leaf")
	}
	if m.LeafPresent(b) {
		t.Error("SetCell(false) set the presence bit")
	}
}

func TestBitMaskClearCellIfSet(t *testing.T) {
	m := newMask()
	a := Address{X: 100, Y: 200}
	if m.ClearCellIfSet(a) {
		t.Error("ClearCellIfSet on missing leaf: got true")
	}
	m.SetCell(a, true)
	if !m.ClearCellIfSet(a) {
		t.Error("ClearCellIfSet on set bit: got false")
	}
	if m.ClearCellIfSet(a) {
		t.Error("second ClearCellIfSet: got true")
	}
	if !m.LeafPresent(a) {
		t.Error("ClearCellIfSet cleared the presence bit")
	}
}

func TestBitMaskRemoveLeafOwningCell(t *testing.T) {
	m := newMask()
	a := Address{X: 4096, Y: 8192}
	sibling := Address{X: 4096 + 32, Y: 8192}
	m.SetCell(a, true)
	m.SetCell(sibling, true)
	if !m.RemoveLeafOwningCell(a) {
		t.Fatal("RemoveLeafOwningCell: got false")
	}
	if m.LeafExists(a) {
		t.Error("LeafExists after remove: got true")
	}
	if m.LeafPresent(a) {
		t.Error("LeafPresent after remove: got true")
	}
	if !m.LeafPresent(sibling) || !m.Cell(sibling) {
		t.Error("remove disturbed the sibling leaf")
	}
	if m.RemoveLeafOwningCell(Address{X: 1 << 28, Y: 1 << 28}) {
		t.Error("RemoveLeafOwningCell without owner node: got true")
	}
}

func randomMask(r *rand.Rand, n int) *BitMask {
	m := newMask()
	for i := 0; i < n; i++ {
		m.SetCell(Address{X: 1<<29 + uint32(r.Intn(200)), Y: 1<<29 + uint32(r.Intn(200))}, true)
	}
	return m
}

func TestBitMaskSetOps(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		a, b := randomMask(r, 300), randomMask(r, 500)
		ca, cb := a.CountBits(), b.CountBits()

		or := a.Clone()
		if err := or.SetOpOR(b); err != nil {
			t.Fatalf("SetOpOR: %v", err)
		}
		if got := or.CountBits(); got < max(ca, cb) {
			t.Errorf("|A or B| = %d < max(%d, %d)", got, ca, cb)
		}

		and := a.Clone()
		if err := and.SetOpAND(b); err != nil {
			t.Fatalf("SetOpAND: %v", err)
		}
		if got := and.CountBits(); got > min(ca, cb) {
			t.Errorf("|A and B| = %d > min(%d, %d)", got, ca, cb)
		}
		// Inclusion-exclusion.
		if got, want := or.CountBits()+and.CountBits(), ca+cb; got != want {
			t.Errorf("|A or B| + |A and B| = %d, want %d", got, want)
		}

		self := a.Clone()
		if err := self.SetOpAND(a); err != nil {
			t.Fatalf("SetOpAND(self): %v", err)
		}
		var want, got []Address
		a.ScanAllSetBits(func(x Address) { want = append(want, x) })
		self.ScanAllSetBits(func(x Address) { got = append(got, x) })
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("A and A differs from A (-want +got):\n%s", diff)
		}

		xor := a.Clone()
		if err := xor.SetOpXOR(b); err != nil {
			t.Fatalf("SetOpXOR: %v", err)
		}
		if got, want := xor.CountBits(), or.CountBits()-and.CountBits(); got != want {
			t.Errorf("|A xor B| = %d, want %d", got, want)
		}

		andNot := a.Clone()
		if err := andNot.SetOpANDNOT(b); err != nil {
			t.Fatalf("SetOpANDNOT: %v", err)
		}
		if got, want := andNot.CountBits(), ca-and.CountBits(); got != want {
			t.Errorf("|A andnot B| = %d, want %d", got, want)
		}
	}
}

func TestBitMaskANDDisjointLeaves(t *testing.T) {
	a, b := newMask(), newMask()
	a.SetCell(Address{X: 10, Y: 10}, true)
	b.SetCell(Address{X: 10000, Y: 10000}, true)
	if err := a.SetOpAND(b); err != nil {
		t.Fatal(err)
	}
	if got := a.CountBits(); got != 0 {
		t.Errorf("CountBits: got %d, want 0", got)
	}
	if b.LeafExists(Address{X: 10, Y: 10}) {
		t.Error("AND created a leaf in its operand")
	}
	// The presence bit is a summary and survives the AND.
	if !a.LeafPresent(Address{X: 10, Y: 10}) {
		t.Error("AND cleared the presence bit")
	}
}

func TestBitMaskIncompatible(t *testing.T) {
	a := newMask()
	b := NewBitMask(DefaultNumLevels, 1)
	if err := a.SetOpOR(b); err == nil {
		t.Error("SetOpOR with different cell size: got nil error")
	}
	if err := a.SetOpAND(NewBitMask(5, DefaultCellSize)); err == nil {
		t.Error("SetOpAND with different depth: got nil error")
	}
}

func TestBitMaskExtents(t *testing.T) {
	m := NewBitMask(DefaultNumLevels, 2)
	if e := m.ComputeCellsExtents(); e.IsValid() {
		t.Errorf("empty mask extents: got %v, want inverted", e)
	}
	if e := m.ComputeCellsWorldExtents(); e.IsValidPlanExtent() {
		t.Errorf("empty mask world extents: got %+v, want inverted", e)
	}
	off := m.IndexOriginOffset()
	m.SetCell(Address{X: off - 5, Y: off + 40}, true)
	m.SetCell(Address{X: off + 70, Y: off - 2}, true)
	m.SetCell(Address{X: off + 3, Y: off + 3}, false)

	if diff := cmp.Diff(CellExtent{
		MinX: int64(off) - 5, MinY: int64(off) - 2,
		MaxX: int64(off) + 70, MaxY: int64(off) + 40,
	}, m.ComputeCellsExtents()); diff != "" {
		t.Errorf("ComputeCellsExtents diff (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(WorldExtent{MinX: -10, MinY: -4, MaxX: 142, MaxY: 82},
		m.ComputeCellsWorldExtents()); diff != "" {
		t.Errorf("ComputeCellsWorldExtents diff (-want +got):\n%s", diff)
	}
}

func TestScanAllSetBitsAsSubGridAddresses(t *testing.T) {
	m := newMask()
	m.SetCell(Address{X: 3, Y: 4}, true)
	m.SetCell(Address{X: 40, Y: 1}, true)
	var got []Address
	m.ScanAllSetBitsAsSubGridAddresses(func(a Address) { got = append(got, a) })
	want := []Address{{X: 3 << 5, Y: 4 << 5}, {X: 40 << 5, Y: 1 << 5}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("subgrid addresses diff (-want +got):\n%s", diff)
	}
}

func TestSubGridAddressMask(t *testing.T) {
	tr := New[int](DefaultNumLevels, 1, nil)
	origins := []Address{{X: 0, Y: 0}, {X: 32 * 7, Y: 32 * 9}, {X: 1 << 29, Y: 1 << 29}}
	for _, o := range origins {
		tr.CreateLeaf(Address{X: o.X + 3, Y: o.Y + 5})
	}
	m := SubGridAddressMask(tr)
	if got, want := m.CountBits(), uint64(len(origins)); got != want {
		t.Fatalf("CountBits: got %d, want %d", got, want)
	}
	seen := make(map[Address]bool)
	m.ScanAllSetBitsAsSubGridAddresses(func(a Address) { seen[a] = true })
	for _, o := range origins {
		if !seen[o] {
			t.Errorf("subgrid %v missing from existence map", o)
		}
		if tr.Locate(o) == nil {
			t.Errorf("existence map names %v but tree has no leaf there", o)
		}
		wx, wy := tr.CellWorldOrigin(o)
		mx, my := m.CellWorldOrigin(Address{X: o.X >> IndexBitsPerLevel, Y: o.Y >> IndexBitsPerLevel})
		if wx != mx || wy != my {
			t.Errorf("world origin of %v: tree (%v, %v), existence map (%v, %v)", o, wx, wy, mx, my)
		}
	}
	if got, want := m.NumLevels(), byte(DefaultNumLevels-1); got != want {
		t.Errorf("NumLevels: got %d, want %d", got, want)
	}
}
