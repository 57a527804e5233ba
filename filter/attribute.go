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

// Package filter holds the predicates that select cells and cell passes for
// a subgrid query.
package filter

import (
	"slices"
	"time"

	"github.com/terrain-ops/subgrid/cellpass"
	"github.com/terrain-ops/subgrid/types"
)

// ElevationDesign supplies the reference surface of a design-relative
// elevation range.
type ElevationDesign interface {
	// ElevationAt returns the surface elevation at world position
	// (wx, wy). ok is false where the surface is undefined.
	ElevationAt(wx, wy float64) (elev float64, ok bool)
}

// ElevationRange accepts passes with heights in [Level+Offset,
// Level+Offset+Thickness]. When Design is set, Level is taken from the
// design surface under each cell instead.
type ElevationRange struct {
	Level     float64
	Offset    float64
	Thickness float64
	Design    ElevationDesign
}

// Bounds returns the range at world position (wx, wy). ok is false if the
// design surface has no elevation there.
func (r *ElevationRange) Bounds(wx, wy float64) (lo, hi float64, ok bool) {
	level := r.Level
	if r.Design != nil {
		if level, ok = r.Design.ElevationAt(wx, wy); !ok {
			return 0, 0, false
		}
	}
	lo = level + r.Offset
	return lo, lo + r.Thickness, true
}

// Attribute selects which cell passes qualify and how one of them is chosen.
// It must not be modified while a retrieval is using it.
type Attribute struct {
	// StartTime and EndTime bound pass times inclusively. A zero value
	// leaves that side open.
	StartTime, EndTime time.Time
	// OverrideTimeBoundary asks for the first pass after StartTime when the
	// window itself holds no qualifying pass.
	OverrideTimeBoundary bool
	// ReturnEarliest selects the oldest qualifying pass instead of the
	// newest.
	ReturnEarliest bool

	ElevationType  types.ElevationType
	ElevationRange *ElevationRange
	// MinElevationMapping selects the lowest qualifying pass.
	MinElevationMapping bool

	// MachineIDs restricts passes to these machines when non-empty.
	MachineIDs []int16
	// GPSModes restricts passes to these positioning modes when non-empty.
	GPSModes []types.GPSMode
	// PassTypes restricts passes to these types when non-zero.
	PassTypes types.PassTypeSet
	// VibrationState restricts passes to this drum state when set.
	VibrationState *types.VibrationState
	// ExcludeHalfPasses drops passes recorded by half the machine width.
	ExcludeHalfPasses bool
}

// HasTimeComponent reports whether the filter restricts pass times.
func (f *Attribute) HasTimeComponent() bool {
	return !f.StartTime.IsZero() || !f.EndTime.IsZero()
}

// HasElevationTypeFilter reports whether an elevation type other than the
// default last pass is selected.
func (f *Attribute) HasElevationTypeFilter() bool {
	return f.ElevationType != types.ElevationLast
}

// HasElevationRangeFilter reports whether passes are restricted by height.
func (f *Attribute) HasElevationRangeFilter() bool {
	return f.ElevationRange != nil
}

// SelectsExtremum reports whether the chosen pass is the highest or lowest
// qualifying one rather than the first found.
func (f *Attribute) SelectsExtremum() bool {
	return f.MinElevationMapping || f.ElevationType == types.ElevationHighest || f.ElevationType == types.ElevationLowest
}

// IterateForward reports whether passes are searched oldest first.
func (f *Attribute) IterateForward() bool {
	return f.ReturnEarliest || f.ElevationType == types.ElevationFirst
}

func (f *Attribute) hasPassPredicates() bool {
	return len(f.MachineIDs) > 0 || len(f.GPSModes) > 0 || f.PassTypes != 0 || f.VibrationState != nil || f.ExcludeHalfPasses
}

// LastRecordedCellPassSatisfiesFilter reports whether the last recorded
// pass of any cell is guaranteed to qualify, so cached latest values can
// stand in for a history search.
func (f *Attribute) LastRecordedCellPassSatisfiesFilter() bool {
	return !f.HasTimeComponent() && !f.hasPassPredicates()
}

// FilterPass reports whether p qualifies, time window included.
func (f *Attribute) FilterPass(p *cellpass.CellPass) bool {
	if !f.StartTime.IsZero() && p.Time.Before(f.StartTime) {
		return false
	}
	if !f.EndTime.IsZero() && p.Time.After(f.EndTime) {
		return false
	}
	return f.FilterPassUntimed(p)
}

// FilterPassUntimed reports whether p qualifies, ignoring its time. It is
// used when the pass iterator already applies the time window.
func (f *Attribute) FilterPassUntimed(p *cellpass.CellPass) bool {
	if len(f.MachineIDs) > 0 && !slices.Contains(f.MachineIDs, p.MachineID) {
		return false
	}
	if len(f.GPSModes) > 0 && !slices.Contains(f.GPSModes, p.GPSMode) {
		return false
	}
	if f.PassTypes != 0 && !f.PassTypes.Contains(p.PassType) {
		return false
	}
	if f.VibrationState != nil && p.VibrationState != *f.VibrationState {
		return false
	}
	if f.ExcludeHalfPasses && p.HalfPass {
		return false
	}
	return true
}
