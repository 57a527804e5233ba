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

package client

import (
	"fmt"
	"time"

	"github.com/terrain-ops/subgrid/cellpass"
	"github.com/terrain-ops/subgrid/filter"
	"github.com/terrain-ops/subgrid/types"
)

// NullPassCount is the null value of a pass count grid.
const NullPassCount int32 = -1

// HeightAndTime is the value of a HeightAndTime grid.
type HeightAndTime struct {
	Height float32
	Time   time.Time
}

func (v HeightAndTime) String() string {
	return fmt.Sprintf("%v@%s", v.Height, v.Time.Format(time.RFC3339))
}

// ProfileCell is the value of a CellProfile grid.
type ProfileCell struct {
	Pass      cellpass.CellPass
	PassCount int
}

func (v ProfileCell) String() string {
	return fmt.Sprintf("%v x%d", v.Pass, v.PassCount)
}

// New returns an empty grid for data type t.
func New(t types.GridDataType, cellSize float64) (Leaf, error) {
	switch t {
	case types.Height:
		return newGrid(t, cellSize, cellpass.NullHeight,
			func(v float32) bool { return v == cellpass.NullHeight },
			func(fv *filter.FilteredValue) float32 { return fv.Pass.Height }), nil
	case types.HeightAndTime:
		return newGrid(t, cellSize, HeightAndTime{Height: cellpass.NullHeight},
			func(v HeightAndTime) bool { return v.Height == cellpass.NullHeight },
			func(fv *filter.FilteredValue) HeightAndTime {
				return HeightAndTime{Height: fv.Pass.Height, Time: fv.Pass.Time}
			}), nil
	case types.CCV:
		return int16Grid(t, cellSize, cellpass.NullCCV, func(p *cellpass.CellPass) int16 { return p.CCV }), nil
	case types.RMV:
		return int16Grid(t, cellSize, cellpass.NullRMV, func(p *cellpass.CellPass) int16 { return p.RMV }), nil
	case types.MDP:
		return int16Grid(t, cellSize, cellpass.NullMDP, func(p *cellpass.CellPass) int16 { return p.MDP }), nil
	case types.Frequency:
		return uint16Grid(t, cellSize, cellpass.NullFrequency, func(p *cellpass.CellPass) uint16 { return p.Frequency }), nil
	case types.Amplitude:
		return uint16Grid(t, cellSize, cellpass.NullAmplitude, func(p *cellpass.CellPass) uint16 { return p.Amplitude }), nil
	case types.Temperature:
		return uint16Grid(t, cellSize, cellpass.NullMaterialTemperature, func(p *cellpass.CellPass) uint16 { return p.MaterialTemperature }), nil
	case types.MachineSpeed:
		return uint16Grid(t, cellSize, cellpass.NullMachineSpeed, func(p *cellpass.CellPass) uint16 { return p.MachineSpeed }), nil
	case types.CCA:
		return newGrid(t, cellSize, cellpass.NullCCA,
			func(v uint8) bool { return v == cellpass.NullCCA },
			func(fv *filter.FilteredValue) uint8 { return fv.Pass.CCA }), nil
	case types.GPSModeData:
		return newGrid(t, cellSize, cellpass.NullGPSMode,
			func(v types.GPSMode) bool { return v == cellpass.NullGPSMode },
			func(fv *filter.FilteredValue) types.GPSMode { return fv.Pass.GPSMode }), nil
	case types.PassCount:
		return newGrid(t, cellSize, NullPassCount,
			func(v int32) bool { return v == NullPassCount },
			func(fv *filter.FilteredValue) int32 { return int32(fv.PassCount) }), nil
	case types.CellProfile:
		return newGrid(t, cellSize, ProfileCell{Pass: cellpass.NullCellPass()},
			func(v ProfileCell) bool { return v.Pass.Time.IsZero() },
			func(fv *filter.FilteredValue) ProfileCell {
				return ProfileCell{Pass: fv.Pass, PassCount: fv.PassCount}
			}), nil
	case types.CellPasses:
		return newGrid(t, cellSize, cellpass.NullCellPass(),
			func(v cellpass.CellPass) bool { return v.Time.IsZero() },
			func(fv *filter.FilteredValue) cellpass.CellPass { return fv.Pass }), nil
	}
	return nil, fmt.Errorf("no client grid for data type %v", t)
}

func int16Grid(t types.GridDataType, cellSize float64, null int16, get func(*cellpass.CellPass) int16) *Grid[int16] {
	return newGrid(t, cellSize, null,
		func(v int16) bool { return v == null },
		func(fv *filter.FilteredValue) int16 { return get(&fv.Pass) })
}

func uint16Grid(t types.GridDataType, cellSize float64, null uint16, get func(*cellpass.CellPass) uint16) *Grid[uint16] {
	return newGrid(t, cellSize, null,
		func(v uint16) bool { return v == null },
		func(fv *filter.FilteredValue) uint16 { return get(&fv.Pass) })
}
