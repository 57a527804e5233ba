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

// Package monitoring defines the metrics interfaces used by the retrieval
// engine, so that callers can choose the metrics backend.
package monitoring

// MetricFactory creates metrics. Label values passed to a metric must match
// the label names it was created with, in number and order.
type MetricFactory interface {
	NewCounter(name, help string, labelNames ...string) Counter
	NewGauge(name, help string, labelNames ...string) Gauge
	NewHistogram(name, help string, buckets []float64, labelNames ...string) Histogram
}

// Counter is a monotonically increasing value.
type Counter interface {
	Inc(labelVals ...string)
	Add(val float64, labelVals ...string)
	Value(labelVals ...string) float64
}

// Gauge is a value that can go up and down.
type Gauge interface {
	Inc(labelVals ...string)
	Dec(labelVals ...string)
	Add(val float64, labelVals ...string)
	Set(val float64, labelVals ...string)
	Value(labelVals ...string) float64
}

// Histogram records a distribution of observations. Info returns the count
// and sum of observations, mostly for tests.
type Histogram interface {
	Observe(val float64, labelVals ...string)
	Info(labelVals ...string) (uint64, float64)
}
