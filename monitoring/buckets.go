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

package monitoring

import (
	"github.com/terrain-ops/subgrid/subgridtree"
)

// CellCountBuckets returns histogram upper limits for a number of cells in
// one subgrid: powers of two up to the subgrid size.
func CellCountBuckets() []float64 {
	var r []float64
	for v := 1; v <= subgridtree.CellsPerSubGrid; v *= 2 {
		r = append(r, float64(v))
	}
	return r
}

// LatencyBuckets returns histogram upper limits for subgrid retrieval
// latencies in seconds, from 10µs to about 10s.
func LatencyBuckets() []float64 {
	return ExpBuckets(1e-5, 1.5, 35)
}

// ExpBuckets returns the given number of histogram upper limits, growing
// exponentially from base to base * mult^(buckets-1).
func ExpBuckets(base, mult float64, buckets uint) []float64 {
	r := make([]float64, buckets)
	for i, exp := uint(0), base; i < buckets; i, exp = i+1, exp*mult {
		r[i] = exp
	}
	return r
}
