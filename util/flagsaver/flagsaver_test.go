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

package flagsaver

import (
	"errors"
	"flag"
	"strings"
	"testing"
	"time"
)

var (
	_ = flag.Int("levels_flag", 6, "test integer flag")
	_ = flag.String("data_type_flag", "Height", "test string flag")
	_ = flag.Duration("timeout_flag", 5*time.Second, "test duration flag")
)

// TestRestore checks that flags are saved and restore correctly.
// Checks are performed on flags with both their default values and with explicit values set.
// Only a subset of the possible flag types are currently tested.
func TestRestore(t *testing.T) {
	tests := []struct {
		desc string
		// flag is the name of the flag to save and restore.
		flag string
		// oldValue is the value the flag should have when saved. If empty, this indicates the flag should have its default value.
		oldValue string
		// newValue is the value the flag should have just before being restored to oldValue.
		newValue string
	}{
		{
			desc:     "RestoreDefaultIntValue",
			flag:     "levels_flag",
			newValue: "8",
		},
		{
			desc:     "RestoreDefaultStrValue",
			flag:     "data_type_flag",
			newValue: "CCV",
		},
		{
			desc:     "RestoreDefaultDurationValue",
			flag:     "timeout_flag",
			newValue: "1m0s",
		},
		{
			desc:     "RestoreSetIntValue",
			flag:     "levels_flag",
			oldValue: "4",
			newValue: "8",
		},
		{
			desc:     "RestoreSetStrValue",
			flag:     "data_type_flag",
			oldValue: "PassCount",
			newValue: "CCV",
		},
		{
			desc:     "RestoreSetDurationValue",
			flag:     "timeout_flag",
			oldValue: "10s",
			newValue: "1m0s",
		},
	}

	for _, test := range tests {
		f := flag.Lookup(test.flag)
		if f == nil {
			t.Errorf("%v: flag.Lookup(%q) = nil, want not nil", test.desc, test.flag)
			continue
		}

		if test.oldValue != "" {
			if err := flag.Set(test.flag, test.oldValue); err != nil {
				t.Errorf("%v: flag.Set(%q, %q) = %q, want nil", test.desc, test.flag, test.oldValue, err)
				continue
			}
		} else {
			// Use the default value of the flag as the oldValue if none was set.
			test.oldValue = f.DefValue
		}

		func() {
			defer Save().MustRestore()
			// If the Set() fails the value won't have been updated but some of the
			// test cases set the same value so it's safer to have this check.
			if err := flag.Set(test.flag, test.newValue); err != nil {
				t.Errorf("%v: flag.Set(%q) = %q, want nil", test.desc, test.flag, err)
			}
			if gotValue := f.Value.String(); gotValue != test.newValue {
				t.Errorf("%v: flag.Lookup(%q).Value.String() = %q, want %q", test.desc, test.flag, gotValue, test.newValue)
			}
		}()

		if gotValue := f.Value.String(); gotValue != test.oldValue {
			t.Errorf("%v: flag.Lookup(%q).Value.String() = %q, want %q", test.desc, test.flag, gotValue, test.oldValue)
		}
	}
}

func TestSaveFlagSet(t *testing.T) {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	level := fs.Int("level", 6, "")
	name := fs.String("name", "site", "")

	s := SaveFlagSet(fs)
	*level = 3
	if err := fs.Set("name", "other"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Restore(); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if *level != 6 || *name != "site" {
		t.Errorf("after Restore level=%d name=%q, want 6 and site", *level, *name)
	}
	if flag.CommandLine.Lookup("level") != nil {
		t.Error("SaveFlagSet touched flag.CommandLine")
	}
}

type rejectingValue struct{ v string }

func (r *rejectingValue) String() string { return r.v }
func (r *rejectingValue) Set(string) error {
	return errors.New("read only")
}

func TestRestoreReportsFailures(t *testing.T) {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	ro := &rejectingValue{v: "a"}
	fs.Var(ro, "fixed", "")
	fs.Int("level", 6, "")

	s := SaveFlagSet(fs)
	// Unchanged flags are not set again, so this succeeds.
	if err := s.Restore(); err != nil {
		t.Fatalf("Restore of unchanged flags: %v", err)
	}
	ro.v = "b"
	err := s.Restore()
	if err == nil || !strings.Contains(err.Error(), "-fixed") {
		t.Errorf("Restore = %v, want an error naming -fixed", err)
	}
}

func TestScope(t *testing.T) {
	f := flag.Lookup("levels_flag")
	want := f.Value.String()
	t.Run("changes", func(t *testing.T) {
		Scope(t)
		if err := flag.Set("levels_flag", "11"); err != nil {
			t.Fatalf("Set: %v", err)
		}
	})
	if got := f.Value.String(); got != want {
		t.Errorf("levels_flag = %q after the subtest, want %q", got, want)
	}
}
