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

// AreaControlSet describes the pixel grid of a rendered tile, from which the
// retriever derives a sieve that evaluates one cell per pixel.
type AreaControlSet struct {
	// UseIntegerAlgorithm selects the axis aligned integer sieve instead of
	// the rotated floating point one.
	UseIntegerAlgorithm bool

	// PixelXWorldSize and PixelYWorldSize are the pixel dimensions in world
	// units. The retriever sets both to zero when it does not sieve.
	PixelXWorldSize float64
	PixelYWorldSize float64

	// UserOriginX and UserOriginY are the world position the pixel grid is
	// anchored and rotated about.
	UserOriginX float64
	UserOriginY float64
	// Rotation is the anticlockwise rotation of the pixel grid, in radians.
	Rotation float64
}
