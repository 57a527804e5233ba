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

// Package testonly holds test helpers shared by storage implementations.
package testonly

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/terrain-ops/subgrid/storage"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ExistenceMapStorageTester runs a suite of tests against
// ExistenceMapStorage implementations.
type ExistenceMapStorageTester struct {
	// NewStorage returns an ExistenceMapStorage backed by a clean store.
	NewStorage func(t *testing.T) storage.ExistenceMapStorage
}

// RunAllTests runs all ExistenceMapStorage tests.
func (tester *ExistenceMapStorageTester) RunAllTests(t *testing.T) {
	t.Run("TestSaveLoad", tester.TestSaveLoad)
	t.Run("TestRevisions", tester.TestRevisions)
	t.Run("TestNotFound", tester.TestNotFound)
	t.Run("TestDelete", tester.TestDelete)
	t.Run("TestInvalidArguments", tester.TestInvalidArguments)
	t.Run("TestKeysIsolated", tester.TestKeysIsolated)
}

// TestSaveLoad checks that saved data comes back unchanged.
func (tester *ExistenceMapStorageTester) TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := tester.NewStorage(t)
	site := uuid.New()
	data := []byte("SGBM\x01\x06 existence map bytes \x00\xff")

	rev, err := s.Save(ctx, site, "existence", data)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rev != 1 {
		t.Errorf("Save = revision %d, want 1", rev)
	}
	got, gotRev, err := s.Load(ctx, site, "existence", storage.LatestRevision)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gotRev != rev || !bytes.Equal(got, data) {
		t.Errorf("Load = %q@%d, want %q@%d", got, gotRev, data, rev)
	}
}

// TestRevisions checks that every save makes a new readable revision.
func (tester *ExistenceMapStorageTester) TestRevisions(t *testing.T) {
	ctx := context.Background()
	s := tester.NewStorage(t)
	site := uuid.New()

	versions := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	for i, v := range versions {
		rev, err := s.Save(ctx, site, "existence", v)
		if err != nil {
			t.Fatalf("Save(%q): %v", v, err)
		}
		if want := int64(i + 1); rev != want {
			t.Errorf("Save(%q) = revision %d, want %d", v, rev, want)
		}
	}
	for i, v := range versions {
		rev := int64(i + 1)
		got, gotRev, err := s.Load(ctx, site, "existence", rev)
		if err != nil {
			t.Fatalf("Load(%d): %v", rev, err)
		}
		if gotRev != rev || !bytes.Equal(got, v) {
			t.Errorf("Load(%d) = %q@%d, want %q", rev, got, gotRev, v)
		}
	}
	got, gotRev, err := s.Load(ctx, site, "existence", storage.LatestRevision)
	if err != nil {
		t.Fatalf("Load(latest): %v", err)
	}
	if gotRev != 3 || string(got) != "three" {
		t.Errorf("Load(latest) = %q@%d, want three@3", got, gotRev)
	}
}

// TestNotFound checks the errors for missing maps and revisions.
func (tester *ExistenceMapStorageTester) TestNotFound(t *testing.T) {
	ctx := context.Background()
	s := tester.NewStorage(t)
	site := uuid.New()

	if _, _, err := s.Load(ctx, site, "existence", storage.LatestRevision); status.Code(err) != codes.NotFound {
		t.Errorf("Load of a missing map = %v, want NotFound", err)
	}
	if _, err := s.Save(ctx, site, "existence", []byte("x")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, _, err := s.Load(ctx, site, "existence", 2); status.Code(err) != codes.NotFound {
		t.Errorf("Load of a missing revision = %v, want NotFound", err)
	}
	if err := s.Delete(ctx, site, "other"); status.Code(err) != codes.NotFound {
		t.Errorf("Delete of a missing map = %v, want NotFound", err)
	}
}

// TestDelete checks that Delete removes all revisions, and that revisions
// restart afterwards.
func (tester *ExistenceMapStorageTester) TestDelete(t *testing.T) {
	ctx := context.Background()
	s := tester.NewStorage(t)
	site := uuid.New()

	for _, v := range []string{"a", "b"} {
		if _, err := s.Save(ctx, site, "existence", []byte(v)); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	if err := s.Delete(ctx, site, "existence"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	for _, rev := range []int64{storage.LatestRevision, 1, 2} {
		if _, _, err := s.Load(ctx, site, "existence", rev); status.Code(err) != codes.NotFound {
			t.Errorf("Load(%d) after Delete = %v, want NotFound", rev, err)
		}
	}
	rev, err := s.Save(ctx, site, "existence", []byte("c"))
	if err != nil {
		t.Fatalf("Save after Delete: %v", err)
	}
	if rev != 1 {
		t.Errorf("Save after Delete = revision %d, want 1", rev)
	}
}

// TestInvalidArguments checks key and revision validation.
func (tester *ExistenceMapStorageTester) TestInvalidArguments(t *testing.T) {
	ctx := context.Background()
	s := tester.NewStorage(t)

	if _, err := s.Save(ctx, uuid.Nil, "existence", []byte("x")); status.Code(err) != codes.InvalidArgument {
		t.Errorf("Save with a nil site = %v, want InvalidArgument", err)
	}
	if _, err := s.Save(ctx, uuid.New(), "", []byte("x")); status.Code(err) != codes.InvalidArgument {
		t.Errorf("Save with an empty name = %v, want InvalidArgument", err)
	}
	if _, _, err := s.Load(ctx, uuid.New(), "existence", 0); status.Code(err) != codes.InvalidArgument {
		t.Errorf("Load of revision 0 = %v, want InvalidArgument", err)
	}
	if err := s.Delete(ctx, uuid.New(), "a/b"); status.Code(err) != codes.InvalidArgument {
		t.Errorf("Delete with a bad name = %v, want InvalidArgument", err)
	}
}

// TestKeysIsolated checks that maps of other sites and names are unaffected
// by saves and deletes.
func (tester *ExistenceMapStorageTester) TestKeysIsolated(t *testing.T) {
	ctx := context.Background()
	s := tester.NewStorage(t)
	site1, site2 := uuid.New(), uuid.New()

	for _, k := range []struct {
		site uuid.UUID
		name string
	}{{site1, "m"}, {site1, "mm"}, {site2, "m"}} {
		if _, err := s.Save(ctx, k.site, k.name, []byte(k.site.String()+k.name)); err != nil {
			t.Fatalf("Save(%v, %q): %v", k.site, k.name, err)
		}
	}
	if err := s.Delete(ctx, site1, "m"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _, err := s.Load(ctx, site1, "mm", storage.LatestRevision); err != nil || string(got) != site1.String()+"mm" {
		t.Errorf("Load(site1, mm) = %q, %v", got, err)
	}
	if got, _, err := s.Load(ctx, site2, "m", storage.LatestRevision); err != nil || string(got) != site2.String()+"m" {
		t.Errorf("Load(site2, m) = %q, %v", got, err)
	}
}
