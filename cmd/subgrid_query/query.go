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

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ctessum/geom"
	"github.com/terrain-ops/subgrid/filter"
	"github.com/terrain-ops/subgrid/retriever"
	"github.com/terrain-ops/subgrid/subgridtree"
	"github.com/terrain-ops/subgrid/types"
)

// query holds the filter and area settings of one run, as given on the
// command line.
type query struct {
	start, end           string
	overrideTimeBoundary bool
	earliest             bool
	elevationType        string
	machines             string
	rect                 string
	fence                string
	pixelSize            float64
	integerSieve         bool
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// parseFloats parses n comma separated numbers.
func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("%q: want %d comma separated numbers", s, n)
	}
	r := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		r[i] = v
	}
	return r, nil
}

// parseFence parses a polygon written as space separated x,y vertices.
func parseFence(s string) (geom.Polygon, error) {
	var path geom.Path
	for _, v := range strings.Fields(s) {
		xy, err := parseFloats(v, 2)
		if err != nil {
			return nil, err
		}
		path = append(path, geom.Point{X: xy[0], Y: xy[1]})
	}
	if len(path) < 3 {
		return nil, fmt.Errorf("fence %q: want at least 3 vertices", s)
	}
	return geom.Polygon{path}, nil
}

func (q *query) filter() (*filter.Combined, error) {
	f := &filter.Combined{}
	a := &f.Attribute
	var err error
	if a.StartTime, err = parseTime(q.start); err != nil {
		return nil, fmt.Errorf("start time: %v", err)
	}
	if a.EndTime, err = parseTime(q.end); err != nil {
		return nil, fmt.Errorf("end time: %v", err)
	}
	a.OverrideTimeBoundary = q.overrideTimeBoundary
	a.ReturnEarliest = q.earliest
	if q.elevationType != "" {
		if a.ElevationType, err = types.ParseElevationType(q.elevationType); err != nil {
			return nil, err
		}
	}
	if q.machines != "" {
		for _, m := range strings.Split(q.machines, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(m), 10, 16)
			if err != nil {
				return nil, fmt.Errorf("machine id %q: %v", m, err)
			}
			a.MachineIDs = append(a.MachineIDs, int16(id))
		}
	}
	if q.rect != "" {
		r, err := parseFloats(q.rect, 4)
		if err != nil {
			return nil, fmt.Errorf("rect: %v", err)
		}
		f.Spatial.Rect = &geom.Bounds{Min: geom.Point{X: r[0], Y: r[1]}, Max: geom.Point{X: r[2], Y: r[3]}}
	}
	if q.fence != "" {
		if f.Spatial.Fence, err = parseFence(q.fence); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// area returns the area control set, or nil if no pixel size was given.
func (q *query) area() *retriever.AreaControlSet {
	if q.pixelSize <= 0 {
		return nil
	}
	return &retriever.AreaControlSet{
		UseIntegerAlgorithm: q.integerSieve,
		PixelXWorldSize:     q.pixelSize,
		PixelYWorldSize:     q.pixelSize,
	}
}

// printResult writes one line per cell holding a value, top row first.
func printResult(w io.Writer, r retriever.BatchResult) error {
	if _, err := fmt.Fprintf(w, "subgrid %d,%d: %v\n", r.Origin.X, r.Origin.Y, r.Code); err != nil {
		return err
	}
	if r.Code != retriever.NoError {
		return nil
	}
	var err error
	for y := subgridtree.Dimension - 1; y >= 0 && err == nil; y-- {
		for x := 0; x < subgridtree.Dimension && err == nil; x++ {
			if r.Grid.CellHasValue(byte(x), byte(y)) {
				_, err = fmt.Fprintf(w, "  %2d %2d %s\n", x, y, r.Grid.CellString(byte(x), byte(y)))
			}
		}
	}
	return err
}
