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
	"math"

	"github.com/terrain-ops/subgrid/subgridtree"
	"k8s.io/klog/v2"
)

const (
	minSieveStep = 1
	maxSieveStep = 10000
)

func clampStep(v float64) int64 {
	s := int64(v)
	if s < minSieveStep {
		return minSieveStep
	}
	if s > maxSieveStep {
		return maxSieveStep
	}
	return s
}

// firstSample returns the local index of the first sampled cell along one
// axis of a leaf whose origin is origin cells from the world origin. Samples
// fall at the centre of each block of step cells, counted from the world
// origin.
func firstSample(origin, step int64) int64 {
	rem := origin % step
	if rem < 0 {
		rem += step
	}
	first := step/2 - rem
	for first < 0 {
		first += step
	}
	return first
}

// integerSieve marks one cell in each block of pixel sized cells. It
// returns false if sieving is not worthwhile: pixels no more than one cell
// across on both axes, or at least a subgrid across on both.
func integerSieve(area *AreaControlSet, cellSize float64, origin subgridtree.Address, indexOriginOffset uint32, sieve *subgridtree.Bits) bool {
	stepX := clampStep(area.PixelXWorldSize / cellSize)
	stepY := clampStep(area.PixelYWorldSize / cellSize)
	if (stepX < 2 && stepY < 2) || (stepX >= subgridtree.Dimension && stepY >= subgridtree.Dimension) {
		return false
	}
	firstX := firstSample(int64(origin.X)-int64(indexOriginOffset), stepX)
	firstY := firstSample(int64(origin.Y)-int64(indexOriginOffset), stepY)
	sieve.Clear()
	for x := firstX; x < subgridtree.Dimension; x += stepX {
		for y := firstY; y < subgridtree.Dimension; y += stepY {
			sieve.SetBit(byte(x), byte(y))
		}
	}
	klog.V(4).Infof("integer sieve for %v: steps (%d, %d) first (%d, %d)", origin, stepX, stepY, firstX, firstY)
	return true
}

// probe is the position of a sieve sample inside its cell, as an offset
// from the cell's bottom left corner in world units.
type probe struct {
	dx, dy float64
}

// floatSieve samples the leaf at the centres of a pixel grid rotated about
// the user origin, recording the sampled cells and where in each cell the
// sample fell. Samples outside the leaf are dropped. It returns false if
// pixels are no larger than a cell on both axes.
func floatSieve(area *AreaControlSet, cellSize, leafX, leafY float64, sieve *subgridtree.Bits, probes *[subgridtree.Dimension][subgridtree.Dimension]probe) bool {
	px, py := area.PixelXWorldSize, area.PixelYWorldSize
	if px <= cellSize && py <= cellSize {
		return false
	}
	if px <= 0 || py <= 0 {
		return false
	}
	side := cellSize * subgridtree.Dimension
	// Bound the samples per axis as clampStep bounds integer steps.
	px = math.Min(math.Max(px, side/maxSieveStep), cellSize*maxSieveStep)
	py = math.Min(math.Max(py, side/maxSieveStep), cellSize*maxSieveStep)
	sin, cos := math.Sincos(area.Rotation)

	// Bounds of the leaf in the pixel grid frame.
	minU, minV := math.Inf(1), math.Inf(1)
	maxU, maxV := math.Inf(-1), math.Inf(-1)
	for _, c := range [4][2]float64{{leafX, leafY}, {leafX + side, leafY}, {leafX, leafY + side}, {leafX + side, leafY + side}} {
		dx, dy := c[0]-area.UserOriginX, c[1]-area.UserOriginY
		u := dx*cos + dy*sin
		v := -dx*sin + dy*cos
		minU, maxU = math.Min(minU, u), math.Max(maxU, u)
		minV, maxV = math.Min(minV, v), math.Max(maxV, v)
	}
	startU, endU := math.Ceil(minU/px-0.5), math.Floor(maxU/px-0.5)
	startV, endV := math.Ceil(minV/py-0.5), math.Floor(maxV/py-0.5)

	sieve.Clear()
	n := 0
	for i := startU; i <= endU; i++ {
		u := (i + 0.5) * px
		for j := startV; j <= endV; j++ {
			v := (j + 0.5) * py
			wx := area.UserOriginX + u*cos - v*sin
			wy := area.UserOriginY + u*sin + v*cos
			cx := math.Floor((wx - leafX) / cellSize)
			cy := math.Floor((wy - leafY) / cellSize)
			if cx < 0 || cy < 0 || cx >= subgridtree.Dimension || cy >= subgridtree.Dimension {
				continue
			}
			x, y := byte(cx), byte(cy)
			sieve.SetBit(x, y)
			probes[x][y] = probe{dx: wx - leafX - cx*cellSize, dy: wy - leafY - cy*cellSize}
			n++
		}
	}
	klog.V(4).Infof("float sieve at (%v, %v): %d samples", leafX, leafY, n)
	return true
}
