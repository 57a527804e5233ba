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

// Package clock provides the time source used for latencies and retry
// pauses, replaceable by a fake in tests.
package clock

import (
	"context"
	"time"
)

// System is the TimeSource backed by the system clock.
var System TimeSource = systemTimeSource{}

// TimeSource tells the time and creates timers.
type TimeSource interface {
	Now() time.Time
	NewTimer(d time.Duration) Timer
}

// Timer fires once on its channel unless stopped first.
type Timer interface {
	Chan() <-chan time.Time
	// Stop prevents the timer from firing. It returns false if the timer
	// had already fired or been stopped.
	Stop() bool
}

// SecondsSince returns the seconds elapsed since t according to ts.
func SecondsSince(ts TimeSource, t time.Time) float64 {
	return ts.Now().Sub(t).Seconds()
}

// Sleep waits for d on ts. It returns ctx.Err() if ctx is done first.
func Sleep(ctx context.Context, d time.Duration, ts TimeSource) error {
	timer := ts.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.Chan():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type systemTimeSource struct{}

func (systemTimeSource) Now() time.Time { return time.Now() }

func (systemTimeSource) NewTimer(d time.Duration) Timer {
	return systemTimer{time.NewTimer(d)}
}

type systemTimer struct {
	*time.Timer
}

func (t systemTimer) Chan() <-chan time.Time { return t.C }
