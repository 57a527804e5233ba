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

// Package util holds process helpers shared by the binaries.
package util

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"k8s.io/klog/v2"
)

// AwaitSignal blocks until one of sigs arrives, SIGINT or SIGTERM when none
// are given, and returns it after calling onSignal. If ctx is done first it
// returns nil without calling onSignal.
func AwaitSignal(ctx context.Context, onSignal func(os.Signal), sigs ...os.Signal) os.Signal {
	if len(sigs) == 0 {
		sigs = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	defer signal.Stop(ch)

	select {
	case sig := <-ch:
		klog.Warningf("Signal received: %v", sig)
		if onSignal != nil {
			onSignal(sig)
		}
		return sig
	case <-ctx.Done():
		klog.V(1).Infof("No longer waiting for signals: %v", ctx.Err())
		return nil
	}
}
