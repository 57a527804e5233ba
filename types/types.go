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

// Package types contains enumerations shared by the subgrid storage, filter
// and retrieval packages.
package types

import (
	"fmt"
	"strings"
)

// GridDataType identifies the attribute a client grid is requesting.
type GridDataType int

// Supported grid data types.
const (
	Height GridDataType = iota
	HeightAndTime
	CCV
	RMV
	Frequency
	Amplitude
	MDP
	CCA
	Temperature
	GPSModeData
	PassCount
	MachineSpeed
	CellProfile
	CellPasses
)

var gridDataTypeNames = map[GridDataType]string{
	Height:        "Height",
	HeightAndTime: "HeightAndTime",
	CCV:           "CCV",
	RMV:           "RMV",
	Frequency:     "Frequency",
	Amplitude:     "Amplitude",
	MDP:           "MDP",
	CCA:           "CCA",
	Temperature:   "Temperature",
	GPSModeData:   "GPSMode",
	PassCount:     "PassCount",
	MachineSpeed:  "MachineSpeed",
	CellProfile:   "CellProfile",
	CellPasses:    "CellPasses",
}

func (t GridDataType) String() string {
	if s, ok := gridDataTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("GridDataType(%d)", int(t))
}

// ParseGridDataType returns the GridDataType with the given name.
func ParseGridDataType(s string) (GridDataType, error) {
	for t, name := range gridDataTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown grid data type %q", s)
}

// ElevationType selects which of the qualifying passes supplies the value.
type ElevationType int

const (
	// ElevationLast takes the most recent qualifying pass. It is the
	// behaviour when no elevation type filter is set.
	ElevationLast ElevationType = iota
	// ElevationFirst takes the earliest qualifying pass.
	ElevationFirst
	// ElevationHighest takes the qualifying pass with the greatest height.
	ElevationHighest
	// ElevationLowest takes the qualifying pass with the smallest height.
	ElevationLowest
)

func (e ElevationType) String() string {
	switch e {
	case ElevationLast:
		return "Last"
	case ElevationFirst:
		return "First"
	case ElevationHighest:
		return "Highest"
	case ElevationLowest:
		return "Lowest"
	}
	return fmt.Sprintf("ElevationType(%d)", int(e))
}

// ParseElevationType returns the ElevationType named s, ignoring case.
func ParseElevationType(s string) (ElevationType, error) {
	for e := ElevationLast; e <= ElevationLowest; e++ {
		if strings.EqualFold(e.String(), s) {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown elevation type %q", s)
}

// GPSMode is the positioning mode reported by a machine's receiver.
type GPSMode uint8

const (
	GPSModeOld GPSMode = iota
	GPSModeFixed
	GPSModeFloat
	GPSModeDGPS
	GPSModeSBAS
	GPSModeLocationRTK
	GPSModeUnknown
	// GPSModeNone means no mode was recorded.
	GPSModeNone GPSMode = 15
)

// PassType records which part of the machine made a pass.
type PassType uint8

const (
	PassTypeFront PassType = iota
	PassTypeRear
	PassTypeTrack
	PassTypeWheel
)

// PassTypeSet is a bit set of PassType values.
type PassTypeSet uint8

// Contains reports whether p is in the set.
func (s PassTypeSet) Contains(p PassType) bool {
	return s&(1<<p) != 0
}

// NewPassTypeSet returns the set holding the given types.
func NewPassTypeSet(ps ...PassType) PassTypeSet {
	var s PassTypeSet
	for _, p := range ps {
		s |= 1 << p
	}
	return s
}

// VibrationState is the drum vibration state of a compactor.
type VibrationState uint8

const (
	VibrationOff VibrationState = iota
	VibrationOn
	VibrationInvalid
)
