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

// Package flagsaver snapshots flag values so tests can change them freely.
//
//	func TestQuery(t *testing.T) {
//		flagsaver.Scope(t)
//		flag.Set("data_type", "CCV")
//		...
//	}
package flagsaver

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"testing"

	"k8s.io/klog/v2"
)

// Stash is a snapshot of the values of one flag set.
type Stash struct {
	fs     *flag.FlagSet
	values map[string]string
}

// Save snapshots flag.CommandLine.
func Save() *Stash {
	return SaveFlagSet(flag.CommandLine)
}

// SaveFlagSet snapshots fs, skipping go test's own flags and
// log_backtrace_at, which may hold an empty value but cannot be set to one.
func SaveFlagSet(fs *flag.FlagSet) *Stash {
	s := &Stash{fs: fs, values: make(map[string]string)}
	fs.VisitAll(func(f *flag.Flag) {
		if strings.HasPrefix(f.Name, "test.") || f.Name == "log_backtrace_at" {
			return
		}
		s.values[f.Name] = f.Value.String()
	})
	return s
}

// Restore sets every flag that has changed since the snapshot back to its
// saved value. It tries all of them and reports every failure.
func (s *Stash) Restore() error {
	var errs []error
	for name, value := range s.values {
		f := s.fs.Lookup(name)
		if f == nil || f.Value.String() == value {
			continue
		}
		if err := s.fs.Set(name, value); err != nil {
			errs = append(errs, fmt.Errorf("restoring -%s=%q: %w", name, value, err))
		}
	}
	return errors.Join(errs...)
}

// MustRestore is Restore for deferred calls outside a testing.TB; a failure
// is fatal.
func (s *Stash) MustRestore() {
	if err := s.Restore(); err != nil {
		klog.Fatalf("flagsaver: %v", err)
	}
}

// Scope snapshots flag.CommandLine and restores it when t finishes.
func Scope(t testing.TB) {
	t.Helper()
	s := Save()
	t.Cleanup(func() {
		if err := s.Restore(); err != nil {
			t.Errorf("flagsaver: %v", err)
		}
	})
}
