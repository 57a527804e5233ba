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

package filter

import (
	"github.com/terrain-ops/subgrid/cellpass"
)

// Combined is the full predicate set of one query.
type Combined struct {
	Attribute Attribute
	Spatial   Spatial
}

// FilteredValue is the pass chosen for a cell together with the pass count
// reported alongside it. A PassCount of -1 means the count was not
// computed.
type FilteredValue struct {
	Pass      cellpass.CellPass
	PassCount int
}

// Clear resets v to a null pass with no count.
func (v *FilteredValue) Clear() {
	v.Pass = cellpass.NullCellPass()
	v.PassCount = -1
}
