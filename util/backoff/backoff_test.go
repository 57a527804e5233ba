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

package backoff

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	for _, tc := range []struct {
		times int
		want  time.Duration
	}{
		{times: 1, want: 1},
		{times: 2, want: 2},
		{times: 3, want: 4},
		{times: 4, want: 8},
		{times: 8, want: 100},
	} {
		b := Backoff{Min: 1, Max: 100, Factor: 2}
		var got time.Duration
		for i := 0; i < tc.times; i++ {
			got = b.Duration()
		}
		if got != tc.want {
			t.Errorf("Duration() %d times: %v, want %v", tc.times, got, tc.want)
		}
	}
}

func TestJitterBounds(t *testing.T) {
	b := Backoff{Min: time.Second, Max: 100 * time.Second, Factor: 2, Jitter: true}
	for i, want := range []time.Duration{1, 2, 4, 8} {
		got := b.Duration()
		if lo, hi := want*time.Second, 2*want*time.Second; got < lo || got > hi {
			t.Errorf("pause %d: %v not in [%v, %v]", i, got, lo, hi)
		}
	}
}

func TestRetry(t *testing.T) {
	b := Backoff{Min: time.Millisecond, Max: time.Millisecond, Factor: 1}
	calls := 0
	err := b.Retry(context.Background(), func() error {
		if calls++; calls < 3 {
			return errors.New("unavailable")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("Retry = %v after %d calls, want nil after 3", err, calls)
	}
}

func TestRetryPermanent(t *testing.T) {
	b := Backoff{Min: time.Millisecond, Max: time.Millisecond, Factor: 1}
	cause := errors.New("bad request")
	calls := 0
	err := b.Retry(context.Background(), func() error {
		calls++
		return Permanent(cause)
	})
	if err != cause || calls != 1 {
		t.Errorf("Retry = %v after %d calls, want %v after 1", err, calls, cause)
	}
}

func TestRetryContextDone(t *testing.T) {
	b := Backoff{Min: time.Hour, Max: time.Hour, Factor: 1}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	cause := errors.New("unavailable")
	if err := b.Retry(ctx, func() error { return cause }); err != cause {
		t.Errorf("Retry = %v, want %v", err, cause)
	}

	cancel()
	if err := b.Retry(ctx, func() error { return nil }); err == nil {
		t.Error("Retry with a done context called f")
	}
}
