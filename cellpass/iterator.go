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
	"time"
)

// Direction is the order in which an Iterator visits a pass stack.
type Direction int

const (
	// Backward visits the newest pass first.
	Backward Direction = iota
	// Forward visits the oldest pass first.
	Forward
)

func (d Direction) String() string {
	if d == Forward {
		return "Forward"
	}
	return "Backward"
}

// Iterator walks the pass stack of one cell, skipping passes outside its
// time and elevation windows. The windows and direction persist across
// Initialise calls so one iterator can serve every cell of a subgrid.
type Iterator struct {
	dir Direction

	// A zero start or end leaves that side of the window open. Both ends
	// are inclusive.
	start, end time.Time

	elevation        bool
	minElev, maxElev float64

	passes []CellPass
	next   int
}

// NewIterator returns a backward iterator with open windows.
func NewIterator() *Iterator {
	return &Iterator{}
}

// SetDirection sets the iteration order used by the next Initialise.
func (it *Iterator) SetDirection(d Direction) { it.dir = d }

// Direction returns the iteration order.
func (it *Iterator) Direction() Direction { return it.dir }

// SetTimeRange restricts iteration to passes with start <= Time <= end.
func (it *Iterator) SetTimeRange(start, end time.Time) {
	it.start, it.end = start, end
}

// TimeRange returns the time window.
func (it *Iterator) TimeRange() (start, end time.Time) {
	return it.start, it.end
}

// SetElevationRange restricts iteration to passes with lo <= Height <= hi.
func (it *Iterator) SetElevationRange(lo, hi float64) {
	it.elevation, it.minElev, it.maxElev = true, lo, hi
}

// ClearElevationRange removes the elevation window.
func (it *Iterator) ClearElevationRange() {
	it.elevation = false
}

// Initialise positions the iterator at the start of passes, which must be
// ordered oldest first.
func (it *Iterator) Initialise(passes []CellPass) {
	it.passes = passes
	if it.dir == Forward {
		it.next = 0
	} else {
		it.next = len(passes) - 1
	}
}

// Next returns the next pass inside the windows. ok is false when there are
// no more.
func (it *Iterator) Next() (p *CellPass, ok bool) {
	for it.next >= 0 && it.next < len(it.passes) {
		p = &it.passes[it.next]
		if it.dir == Forward {
			it.next++
		} else {
			it.next--
		}
		if !it.start.IsZero() && p.Time.Before(it.start) {
			if it.dir == Backward {
				// Everything older is outside the window too.
				it.next = -1
				return nil, false
			}
			continue
		}
		if !it.end.IsZero() && p.Time.After(it.end) {
			if it.dir == Forward {
				it.next = len(it.passes)
				return nil, false
			}
			continue
		}
		if it.elevation && (float64(p.Height) < it.minElev || float64(p.Height) > it.maxElev) {
			continue
		}
		return p, true
	}
	return nil, false
}
