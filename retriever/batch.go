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
	"context"
	"fmt"

	"github.com/terrain-ops/subgrid/cellpass"
	"github.com/terrain-ops/subgrid/client"
	"github.com/terrain-ops/subgrid/filter"
	"github.com/terrain-ops/subgrid/subgridtree"
	"github.com/terrain-ops/subgrid/types"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// BatchOptions configures Batch.
type BatchOptions struct {
	Options
	// DataType is the grid type to retrieve.
	DataType types.GridDataType
	// Area, if set, is copied for each subgrid.
	Area *AreaControlSet
	// Concurrency bounds the number of retrievals in flight. Zero or less
	// means one.
	Concurrency int
}

// BatchResult is the outcome of retrieving one subgrid.
type BatchResult struct {
	Origin subgridtree.Address
	Code   ResultCode
	Grid   client.Leaf
}

// Batch retrieves every subgrid named by the existence map of site, one
// Retriever per subgrid, in parallel. Results are in existence map scan
// order. The first collaborator error stops the batch.
func Batch(ctx context.Context, site cellpass.Store, existence *subgridtree.BitMask, f *filter.Combined, opts BatchOptions) ([]BatchResult, error) {
	initMetrics(opts.MetricFactory)
	var origins []subgridtree.Address
	existence.ScanAllSetBitsAsSubGridAddresses(func(a subgridtree.Address) {
		origins = append(origins, a)
	})
	level := existence.NumLevels() + 1
	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}
	klog.V(1).Infof("retrieving %d subgrids of %v with concurrency %d", len(origins), opts.DataType, limit)

	results := make([]BatchResult, len(origins))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, origin := range origins {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			batchInflight.Inc()
			defer batchInflight.Dec()

			grid, err := client.New(opts.DataType, site.CellSize())
			if err != nil {
				return err
			}
			var area *AreaControlSet
			if opts.Area != nil {
				a := *opts.Area
				area = &a
			}
			code, err := New(site, f, opts.Options).RetrieveSubGrid(origin.X, origin.Y, level, grid, nil, area)
			if err != nil {
				return fmt.Errorf("retrieving subgrid %v: %w", origin, err)
			}
			results[i] = BatchResult{Origin: origin, Code: code, Grid: grid}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
