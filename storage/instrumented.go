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

package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/terrain-ops/subgrid/monitoring"
	"google.golang.org/grpc/status"
)

var (
	once         sync.Once
	storageOps   monitoring.Counter
	storageBytes monitoring.Histogram
)

func createMetrics(mf monitoring.MetricFactory) {
	if mf == nil {
		mf = monitoring.InertMetricFactory{}
	}
	storageOps = mf.NewCounter("existence_map_storage_ops", "Number of existence map storage operations by operation and status code", "op", "code")
	storageBytes = mf.NewHistogram("existence_map_storage_bytes", "Size of existence maps saved and loaded", monitoring.ExpBuckets(64, 4, 12), "op")
}

type instrumented struct {
	s ExistenceMapStorage
}

// Instrument returns s with operations counted in metrics created by mf.
// Metrics are created on the first call only.
func Instrument(s ExistenceMapStorage, mf monitoring.MetricFactory) ExistenceMapStorage {
	once.Do(func() { createMetrics(mf) })
	return &instrumented{s: s}
}

func record(op string, err error) {
	storageOps.Inc(op, status.Code(err).String())
}

func (i *instrumented) Save(ctx context.Context, site uuid.UUID, name string, data []byte) (int64, error) {
	rev, err := i.s.Save(ctx, site, name, data)
	record("save", err)
	if err == nil {
		storageBytes.Observe(float64(len(data)), "save")
	}
	return rev, err
}

func (i *instrumented) Load(ctx context.Context, site uuid.UUID, name string, rev int64) ([]byte, int64, error) {
	data, got, err := i.s.Load(ctx, site, name, rev)
	record("load", err)
	if err == nil {
		storageBytes.Observe(float64(len(data)), "load")
	}
	return data, got, err
}

func (i *instrumented) Delete(ctx context.Context, site uuid.UUID, name string) error {
	err := i.s.Delete(ctx, site, name)
	record("delete", err)
	return err
}
