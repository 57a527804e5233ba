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
	"sync"

	"github.com/terrain-ops/subgrid/monitoring"
)

var (
	once              sync.Once
	retrievals        monitoring.Counter
	retrievalLatency  monitoring.Histogram
	cellsEvaluated    monitoring.Histogram
	lastPassGridUsed  monitoring.Counter
	timeBoundaryRetry monitoring.Counter
	batchInflight     monitoring.Gauge
)

func initMetrics(mf monitoring.MetricFactory) {
	once.Do(func() { createMetrics(mf) })
}

func createMetrics(mf monitoring.MetricFactory) {
	if mf == nil {
		mf = monitoring.InertMetricFactory{}
	}
	retrievals = mf.NewCounter("subgrid_retrievals", "Number of subgrid retrievals by result code", "result")
	retrievalLatency = mf.NewHistogram("subgrid_retrieval_seconds", "Latency of subgrid retrievals in seconds", monitoring.LatencyBuckets(), "data_type")
	cellsEvaluated = mf.NewHistogram("subgrid_cells_evaluated", "Number of cells evaluated per subgrid retrieval", monitoring.CellCountBuckets())
	lastPassGridUsed = mf.NewCounter("subgrid_last_pass_grid", "Number of retrievals answered from cached latest values")
	timeBoundaryRetry = mf.NewCounter("subgrid_time_boundary_retries", "Number of forward searches past an overridden time boundary")
	batchInflight = mf.NewGauge("subgrid_batch_inflight", "Number of batch retrievals in progress")
}
