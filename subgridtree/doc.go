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

// Package subgridtree implements a fixed-depth 32-ary tree addressing a very
// large square space of cells.
//
// Every subgrid in the tree is a 32x32 block. Node subgrids hold references
// to child subgrids one level down, leaf subgrids hold per-cell payload. The
// root is at level 1 and leaves are at level NumLevels, so a tree with the
// default 6 levels addresses a space of 32^6 cells on each side.
//
// Trees are not safe for concurrent mutation. Callers sharing a tree across
// goroutines must provide their own locking.
package subgridtree
