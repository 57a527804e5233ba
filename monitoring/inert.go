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
	"fmt"
	"strings"
	"sync"

	"k8s.io/klog/v2"
)

// InertMetricFactory creates metrics that only keep their values in memory.
type InertMetricFactory struct{}

// NewCounter implements MetricFactory.
func (InertMetricFactory) NewCounter(name, help string, labelNames ...string) Counter {
	return newInertValue(name, labelNames)
}

// NewGauge implements MetricFactory.
func (InertMetricFactory) NewGauge(name, help string, labelNames ...string) Gauge {
	return newInertValue(name, labelNames)
}

// NewHistogram implements MetricFactory. Buckets are ignored.
func (InertMetricFactory) NewHistogram(name, help string, _ []float64, labelNames ...string) Histogram {
	return &inertHistogram{
		name:   name,
		labels: len(labelNames),
		counts: make(map[string]uint64),
		sums:   make(map[string]float64),
	}
}

type inertValue struct {
	name   string
	labels int

	mu   sync.Mutex
	vals map[string]float64
}

func newInertValue(name string, labelNames []string) *inertValue {
	return &inertValue{name: name, labels: len(labelNames), vals: make(map[string]float64)}
}

func (m *inertValue) Inc(labelVals ...string) { m.Add(1, labelVals...) }

func (m *inertValue) Dec(labelVals ...string) { m.Add(-1, labelVals...) }

func (m *inertValue) Add(val float64, labelVals ...string) {
	m.update(labelVals, func(old float64) float64 { return old + val })
}

func (m *inertValue) Set(val float64, labelVals ...string) {
	m.update(labelVals, func(float64) float64 { return val })
}

func (m *inertValue) update(labelVals []string, f func(float64) float64) {
	key, err := labelKey(m.name, labelVals, m.labels)
	if err != nil {
		klog.Error(err)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key] = f(m.vals[key])
}

func (m *inertValue) Value(labelVals ...string) float64 {
	key, err := labelKey(m.name, labelVals, m.labels)
	if err != nil {
		klog.Error(err)
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vals[key]
}

type inertHistogram struct {
	name   string
	labels int

	mu     sync.Mutex
	counts map[string]uint64
	sums   map[string]float64
}

func (m *inertHistogram) Observe(val float64, labelVals ...string) {
	key, err := labelKey(m.name, labelVals, m.labels)
	if err != nil {
		klog.Error(err)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	m.sums[key] += val
}

func (m *inertHistogram) Info(labelVals ...string) (uint64, float64) {
	key, err := labelKey(m.name, labelVals, m.labels)
	if err != nil {
		klog.Error(err)
		return 0, 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key], m.sums[key]
}

func labelKey(name string, labelVals []string, want int) (string, error) {
	if len(labelVals) != want {
		return "", fmt.Errorf("%s: got %d label values, want %d", name, len(labelVals), want)
	}
	return strings.Join(labelVals, "|"), nil
}
