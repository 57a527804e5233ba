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

// Package prometheus provides a Prometheus implementation of
// monitoring.MetricFactory.
package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/terrain-ops/subgrid/monitoring"
	"k8s.io/klog/v2"
)

// MetricFactory creates metrics registered with Registerer, or with the
// default registry if Registerer is nil. Every metric name gets Prefix.
type MetricFactory struct {
	Prefix     string
	Registerer prometheus.Registerer
}

func (f MetricFactory) register(c prometheus.Collector) {
	r := f.Registerer
	if r == nil {
		r = prometheus.DefaultRegisterer
	}
	r.MustRegister(c)
}

// NewCounter implements monitoring.MetricFactory.
func (f MetricFactory) NewCounter(name, help string, labelNames ...string) monitoring.Counter {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: f.Prefix + name, Help: help}, labelNames)
	f.register(vec)
	return &Counter{metric: metric{labelNames: labelNames}, vec: vec}
}

// NewGauge implements monitoring.MetricFactory.
func (f MetricFactory) NewGauge(name, help string, labelNames ...string) monitoring.Gauge {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: f.Prefix + name, Help: help}, labelNames)
	f.register(vec)
	return &Gauge{metric: metric{labelNames: labelNames}, vec: vec}
}

// NewHistogram implements monitoring.MetricFactory. Nil buckets select the
// Prometheus defaults.
func (f MetricFactory) NewHistogram(name, help string, buckets []float64, labelNames ...string) monitoring.Histogram {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: f.Prefix + name, Help: help, Buckets: buckets}, labelNames)
	f.register(vec)
	return &Histogram{metric: metric{labelNames: labelNames}, vec: vec}
}

type metric struct {
	labelNames []string
}

func (m metric) labels(values []string) (prometheus.Labels, bool) {
	if len(values) != len(m.labelNames) {
		klog.Errorf("got %d (%v) values for %d labels (%v)", len(values), values, len(m.labelNames), m.labelNames)
		return nil, false
	}
	labels := make(prometheus.Labels, len(values))
	for i, name := range m.labelNames {
		labels[name] = values[i]
	}
	return labels, true
}

func read(m prometheus.Metric) (*dto.Metric, error) {
	var pb dto.Metric
	if err := m.Write(&pb); err != nil {
		return nil, fmt.Errorf("failed to write metric: %v", err)
	}
	return &pb, nil
}

// Counter wraps a Prometheus CounterVec.
type Counter struct {
	metric
	vec *prometheus.CounterVec
}

// Inc adds 1 to the counter.
func (c *Counter) Inc(labelVals ...string) { c.Add(1, labelVals...) }

// Add adds val to the counter.
func (c *Counter) Add(val float64, labelVals ...string) {
	if l, ok := c.labels(labelVals); ok {
		c.vec.With(l).Add(val)
	}
}

// Value returns the counter value.
func (c *Counter) Value(labelVals ...string) float64 {
	l, ok := c.labels(labelVals)
	if !ok {
		return 0
	}
	pb, err := read(c.vec.With(l))
	if err != nil {
		klog.Error(err)
		return 0
	}
	return pb.GetCounter().GetValue()
}

// Gauge wraps a Prometheus GaugeVec.
type Gauge struct {
	metric
	vec *prometheus.GaugeVec
}

// Inc adds 1 to the gauge.
func (g *Gauge) Inc(labelVals ...string) { g.Add(1, labelVals...) }

// Dec subtracts 1 from the gauge.
func (g *Gauge) Dec(labelVals ...string) { g.Add(-1, labelVals...) }

// Add adds val to the gauge.
func (g *Gauge) Add(val float64, labelVals ...string) {
	if l, ok := g.labels(labelVals); ok {
		g.vec.With(l).Add(val)
	}
}

// Set sets the gauge to val.
func (g *Gauge) Set(val float64, labelVals ...string) {
	if l, ok := g.labels(labelVals); ok {
		g.vec.With(l).Set(val)
	}
}

// Value returns the gauge value.
func (g *Gauge) Value(labelVals ...string) float64 {
	l, ok := g.labels(labelVals)
	if !ok {
		return 0
	}
	pb, err := read(g.vec.With(l))
	if err != nil {
		klog.Error(err)
		return 0
	}
	return pb.GetGauge().GetValue()
}

// Histogram wraps a Prometheus HistogramVec.
type Histogram struct {
	metric
	vec *prometheus.HistogramVec
}

// Observe adds an observation.
func (h *Histogram) Observe(val float64, labelVals ...string) {
	if l, ok := h.labels(labelVals); ok {
		h.vec.With(l).Observe(val)
	}
}

// Info returns the count and sum of observations.
func (h *Histogram) Info(labelVals ...string) (uint64, float64) {
	l, ok := h.labels(labelVals)
	if !ok {
		return 0, 0
	}
	pb, err := read(h.vec.With(l).(prometheus.Metric))
	if err != nil {
		klog.Error(err)
		return 0, 0
	}
	hist := pb.GetHistogram()
	return hist.GetSampleCount(), hist.GetSampleSum()
}
