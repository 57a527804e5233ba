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

// Package cellpass holds the cell pass records measured by machines, the
// per-subgrid stacks they are stored in, and the cached latest values used to
// answer queries without walking a cell's history.
package cellpass

import (
	"fmt"
	"math"
	"time"

	"github.com/terrain-ops/subgrid/types"
)

// Null values for CellPass fields.
const (
	NullHeight              float32 = -1e8
	NullMachineID           int16   = -1
	NullCCV                 int16   = math.MaxInt16
	NullRMV                 int16   = math.MaxInt16
	NullMDP                 int16   = math.MaxInt16
	NullFrequency           uint16  = math.MaxUint16
	NullAmplitude           uint16  = math.MaxUint16
	NullCCA                 uint8   = math.MaxUint8
	NullMaterialTemperature uint16  = 4096
	NullMachineSpeed        uint16  = math.MaxUint16
	NullGPSMode                     = types.GPSModeNone
)

// CellPass is one measurement recorded for a cell as a machine passed over
// it.
type CellPass struct {
	Time                time.Time
	Height              float32
	MachineID           int16
	CCV                 int16
	RMV                 int16
	MDP                 int16
	Frequency           uint16
	Amplitude           uint16
	CCA                 uint8
	MaterialTemperature uint16
	GPSMode             types.GPSMode
	MachineSpeed        uint16
	PassType            types.PassType
	HalfPass            bool
	VibrationState      types.VibrationState
}

// NullCellPass returns a pass with every field null.
func NullCellPass() CellPass {
	return CellPass{
		Height:              NullHeight,
		MachineID:           NullMachineID,
		CCV:                 NullCCV,
		RMV:                 NullRMV,
		MDP:                 NullMDP,
		Frequency:           NullFrequency,
		Amplitude:           NullAmplitude,
		CCA:                 NullCCA,
		MaterialTemperature: NullMaterialTemperature,
		GPSMode:             NullGPSMode,
		MachineSpeed:        NullMachineSpeed,
		VibrationState:      types.VibrationInvalid,
	}
}

func (p CellPass) String() string {
	return fmt.Sprintf("{t=%s h=%v m=%d ccv=%d mdp=%d}", p.Time.Format(time.RFC3339), p.Height, p.MachineID, p.CCV, p.MDP)
}

// Attribute is a cell pass value whose latest non-null value is bubbled up
// into LatestCells.
type Attribute int

// Bubbled up attributes.
const (
	AttrCCV Attribute = iota
	AttrRMV
	AttrFrequency
	AttrAmplitude
	AttrGPSMode
	AttrTemperature
	AttrMDP
	AttrCCA

	numAttributes = int(AttrCCA) + 1
)

var attributeNames = [numAttributes]string{"CCV", "RMV", "Frequency", "Amplitude", "GPSMode", "Temperature", "MDP", "CCA"}

func (a Attribute) String() string {
	if a >= 0 && int(a) < numAttributes {
		return attributeNames[a]
	}
	return fmt.Sprintf("Attribute(%d)", int(a))
}

// Attributes returns every bubbled up attribute.
func Attributes() []Attribute {
	as := make([]Attribute, numAttributes)
	for i := range as {
		as[i] = Attribute(i)
	}
	return as
}

// AttributeFor returns the bubbled up attribute that a grid of type t
// reads. ok is false for types with no such attribute.
func AttributeFor(t types.GridDataType) (a Attribute, ok bool) {
	switch t {
	case types.CCV:
		return AttrCCV, true
	case types.RMV:
		return AttrRMV, true
	case types.Frequency:
		return AttrFrequency, true
	case types.Amplitude:
		return AttrAmplitude, true
	case types.GPSModeData:
		return AttrGPSMode, true
	case types.Temperature:
		return AttrTemperature, true
	case types.MDP:
		return AttrMDP, true
	case types.CCA:
		return AttrCCA, true
	}
	return 0, false
}

// IsNull reports whether the value of attribute a is null in p.
func (p *CellPass) IsNull(a Attribute) bool {
	switch a {
	case AttrCCV:
		return p.CCV == NullCCV
	case AttrRMV:
		return p.RMV == NullRMV
	case AttrFrequency:
		return p.Frequency == NullFrequency
	case AttrAmplitude:
		return p.Amplitude == NullAmplitude
	case AttrGPSMode:
		return p.GPSMode == NullGPSMode
	case AttrTemperature:
		return p.MaterialTemperature == NullMaterialTemperature
	case AttrMDP:
		return p.MDP == NullMDP
	case AttrCCA:
		return p.CCA == NullCCA
	}
	panic(fmt.Sprintf("cellpass: IsNull(%v): unknown attribute", a))
}

// copyAttribute copies the value of attribute a from src to p.
func (p *CellPass) copyAttribute(a Attribute, src *CellPass) {
	switch a {
	case AttrCCV:
		p.CCV = src.CCV
	case AttrRMV:
		p.RMV = src.RMV
	case AttrFrequency:
		p.Frequency = src.Frequency
	case AttrAmplitude:
		p.Amplitude = src.Amplitude
	case AttrGPSMode:
		p.GPSMode = src.GPSMode
	case AttrTemperature:
		p.MaterialTemperature = src.MaterialTemperature
	case AttrMDP:
		p.MDP = src.MDP
	case AttrCCA:
		p.CCA = src.CCA
	}
}

// HasValueFor reports whether p carries a value a grid of type t can use.
// Types that count or list passes accept every pass.
func (p *CellPass) HasValueFor(t types.GridDataType) bool {
	if a, ok := AttributeFor(t); ok {
		return !p.IsNull(a)
	}
	switch t {
	case types.Height, types.HeightAndTime:
		return p.Height != NullHeight
	case types.MachineSpeed:
		return p.MachineSpeed != NullMachineSpeed
	}
	return true
}
