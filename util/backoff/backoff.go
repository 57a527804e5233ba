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

// Package backoff retries storage operations with exponentially growing
// pauses.
package backoff

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/terrain-ops/subgrid/util/clock"
)

// Backoff holds the pause parameters. It requires 0 < Min <= Max and
// Factor >= 1.
type Backoff struct {
	Min    time.Duration
	Max    time.Duration
	Factor float64
	// Jitter adds a random extra pause of up to the current pause.
	Jitter bool
	// Clock is the time source for pauses. Nil means clock.System.
	Clock clock.TimeSource

	delta time.Duration
}

// Duration returns the next pause. Successive calls grow by Factor up to
// Max.
func (b *Backoff) Duration() time.Duration {
	pause := b.Min + b.delta
	next := time.Duration(float64(pause) * b.Factor)
	if next > b.Max || next < b.Min {
		next = b.Max
	}
	b.delta = next - b.Min
	if b.Jitter {
		pause += time.Duration(rand.Int63n(int64(pause)))
	}
	return pause
}

// Reset returns the pause to Min.
func (b *Backoff) Reset() {
	b.delta = 0
}

type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }

func (e permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that Retry gives up on it at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// Retry calls f until it succeeds, returns a Permanent error or ctx is
// done, pausing between attempts. It returns the last error from f, with
// any Permanent wrapping removed.
func (b *Backoff) Retry(ctx context.Context, f func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ts := b.Clock
	if ts == nil {
		ts = clock.System
	}
	for {
		err := f()
		if err == nil {
			return nil
		}
		var perm permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if clock.Sleep(ctx, b.Duration(), ts) != nil {
			return err
		}
	}
}
