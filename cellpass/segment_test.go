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
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/terrain-ops/subgrid/types"
)

var t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func pass(min int, h float32, ccv int16) CellPass {
	p := NullCellPass()
	p.Time = t0.Add(time.Duration(min) * time.Minute)
	p.Height = h
	p.CCV = ccv
	return p
}

func heights(ps []CellPass) []float32 {
	var hs []float32
	for _, p := range ps {
		hs = append(hs, p.Height)
	}
	return hs
}

func TestAddPassOrdersByTime(t *testing.T) {
	s := NewSegment()
	for _, p := range []CellPass{pass(3, 3, 0), pass(1, 1, 0), pass(2, 2, 0), pass(2, 2.5, 0)} {
		s.AddPass(4, 7, p)
	}
	if diff := cmp.Diff([]float32{1, 2, 2.5, 3}, heights(s.Passes(4, 7))); diff != "" {
		t.Errorf("Passes diff (-want +got):\n%s", diff)
	}
	if got, want := s.PassCount(4, 7), 4; got != want {
		t.Errorf("PassCount: got %d, want %d", got, want)
	}
	if got, want := s.TotalPasses(), 4; got != want {
		t.Errorf("TotalPasses: got %d, want %d", got, want)
	}
}

func TestComputeLatest(t *testing.T) {
	s := NewSegment()
	// Cell (0, 0): CCV recorded by the last pass.
	s.AddPass(0, 0, pass(1, 1, 100))
	s.AddPass(0, 0, pass(2, 2, 200))
	// Cell (1, 0): last pass has no CCV, an older one does.
	s.AddPass(1, 0, pass(1, 5, 300))
	s.AddPass(1, 0, pass(2, 6, NullCCV))
	// Cell (2, 0): no CCV at all.
	s.AddPass(2, 0, pass(1, 9, NullCCV))

	if err := s.ComputeLatest(); err != nil {
		t.Fatalf("ComputeLatest: %v", err)
	}
	l := &s.Latest

	for _, tc := range []struct {
		x          byte
		height     float32
		ccv        int16
		fromLast   bool
		passExists bool
	}{
		{x: 0, height: 2, ccv: 200, fromLast: true, passExists: true},
		{x: 1, height: 6, ccv: 300, fromLast: false, passExists: true},
		{x: 2, height: 9, ccv: NullCCV, fromLast: false, passExists: true},
		{x: 3, height: NullHeight, ccv: NullCCV, fromLast: false, passExists: false},
	} {
		p := l.Pass(tc.x, 0)
		if p.Height != tc.height || p.CCV != tc.ccv {
			t.Errorf("cell %d: got height %v ccv %d, want %v %d", tc.x, p.Height, p.CCV, tc.height, tc.ccv)
		}
		if got := l.ValueFromLastPass(AttrCCV, tc.x, 0); got != tc.fromLast {
			t.Errorf("cell %d: ValueFromLastPass = %v, want %v", tc.x, got, tc.fromLast)
		}
		if got := l.PassExists(tc.x, 0); got != tc.passExists {
			t.Errorf("cell %d: PassExists = %v, want %v", tc.x, got, tc.passExists)
		}
	}
	if !l.HasData(AttrCCV) {
		t.Error("HasData(CCV) = false, want true")
	}
	if l.HasData(AttrMDP) {
		t.Error("HasData(MDP) = true, want false")
	}
	pe := l.PassExistence()
	if got, want := pe.CountBits(), 3; got != want {
		t.Errorf("PassExistence count: got %d, want %d", got, want)
	}
}

func TestAttributeFor(t *testing.T) {
	for _, tc := range []struct {
		t    types.GridDataType
		want Attribute
		ok   bool
	}{
		{t: types.CCV, want: AttrCCV, ok: true},
		{t: types.Temperature, want: AttrTemperature, ok: true},
		{t: types.CCA, want: AttrCCA, ok: true},
		{t: types.Height},
		{t: types.PassCount},
	} {
		got, ok := AttributeFor(tc.t)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("AttributeFor(%v) = %v, %v; want %v, %v", tc.t, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNullCellPassIsNullForEveryAttribute(t *testing.T) {
	p := NullCellPass()
	for _, a := range Attributes() {
		if !p.IsNull(a) {
			t.Errorf("IsNull(%v) = false", a)
		}
	}
	for _, gt := range []types.GridDataType{types.Height, types.MachineSpeed, types.CCV} {
		if p.HasValueFor(gt) {
			t.Errorf("HasValueFor(%v) = true", gt)
		}
	}
	if !p.HasValueFor(types.PassCount) {
		t.Error("HasValueFor(PassCount) = false, want true")
	}
}
