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

package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/terrain-ops/subgrid/subgridtree"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// fakeStorage keeps revisions in a map, without validation.
type fakeStorage struct {
	revs map[string][][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{revs: make(map[string][][]byte)}
}

func (f *fakeStorage) Save(_ context.Context, site uuid.UUID, name string, data []byte) (int64, error) {
	k := site.String() + "/" + name
	f.revs[k] = append(f.revs[k], data)
	return int64(len(f.revs[k])), nil
}

func (f *fakeStorage) Load(_ context.Context, site uuid.UUID, name string, rev int64) ([]byte, int64, error) {
	r := f.revs[site.String()+"/"+name]
	if rev == LatestRevision {
		rev = int64(len(r))
	}
	if rev < 1 || rev > int64(len(r)) {
		return nil, 0, status.Error(codes.NotFound, "no such revision")
	}
	return r[rev-1], rev, nil
}

func (f *fakeStorage) Delete(_ context.Context, site uuid.UUID, name string) error {
	delete(f.revs, site.String()+"/"+name)
	return nil
}

func TestValidateKey(t *testing.T) {
	site := uuid.New()
	for _, tc := range []struct {
		desc string
		site uuid.UUID
		name string
		ok   bool
	}{
		{desc: "ok", site: site, name: "existence", ok: true},
		{desc: "longest name", site: site, name: strings.Repeat("x", MaxNameLen), ok: true},
		{desc: "nil site", site: uuid.Nil, name: "existence"},
		{desc: "empty name", site: site},
		{desc: "long name", site: site, name: strings.Repeat("x", MaxNameLen+1)},
		{desc: "slash", site: site, name: "a/b"},
		{desc: "colon", site: site, name: "a:b"},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			err := ValidateKey(tc.site, tc.name)
			if tc.ok {
				if err != nil {
					t.Errorf("ValidateKey = %v, want nil", err)
				}
				return
			}
			if got := status.Code(err); got != codes.InvalidArgument {
				t.Errorf("ValidateKey = %v, want InvalidArgument", err)
			}
		})
	}
}

func TestValidateRevision(t *testing.T) {
	for rev, ok := range map[int64]bool{LatestRevision: true, 1: true, 99: true, 0: false, -2: false} {
		if err := ValidateRevision(rev); (err == nil) != ok {
			t.Errorf("ValidateRevision(%d) = %v, want ok %v", rev, err, ok)
		}
	}
}

func TestBitMaskRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newFakeStorage()
	site := uuid.New()

	m := subgridtree.NewBitMask(5, 16)
	m.SetCell(subgridtree.Address{X: 1 << 24, Y: 1 << 24}, true)
	m.SetCell(subgridtree.Address{X: 1<<24 + 100, Y: 1<<24 - 3}, true)
	rev, err := SaveBitMask(ctx, s, site, "existence", m)
	if err != nil || rev != 1 {
		t.Fatalf("SaveBitMask = %d, %v; want 1, nil", rev, err)
	}

	got, gotRev, err := LoadBitMask(ctx, s, site, "existence", LatestRevision)
	if err != nil {
		t.Fatalf("LoadBitMask: %v", err)
	}
	if gotRev != 1 {
		t.Errorf("LoadBitMask revision = %d, want 1", gotRev)
	}
	if got.CountBits() != 2 || got.NumLevels() != 5 || got.CellSize() != 16 {
		t.Errorf("loaded mask has %d bits, %d levels, cell size %v", got.CountBits(), got.NumLevels(), got.CellSize())
	}
	var want, have []subgridtree.Address
	m.ScanAllSetBits(func(a subgridtree.Address) { want = append(want, a) })
	got.ScanAllSetBits(func(a subgridtree.Address) { have = append(have, a) })
	if diff := cmp.Diff(want, have); diff != "" {
		t.Errorf("loaded bits differ (-want +got):\n%s", diff)
	}
}

func TestLoadBitMaskErrors(t *testing.T) {
	ctx := context.Background()
	s := newFakeStorage()
	site := uuid.New()

	if _, _, err := LoadBitMask(ctx, s, site, "missing", LatestRevision); status.Code(err) != codes.NotFound {
		t.Errorf("LoadBitMask of a missing map = %v, want NotFound", err)
	}
	if _, err := s.Save(ctx, site, "junk", []byte("not a bit mask")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, _, err := LoadBitMask(ctx, s, site, "junk", LatestRevision); status.Code(err) != codes.DataLoss {
		t.Errorf("LoadBitMask of corrupt data = %v, want DataLoss", err)
	}
}

func TestInstrument(t *testing.T) {
	ctx := context.Background()
	s := Instrument(newFakeStorage(), nil)
	site := uuid.New()

	saves := storageOps.Value("save", "OK")
	notFound := storageOps.Value("load", "NotFound")
	if _, err := s.Save(ctx, site, "m", []byte{1, 2, 3}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, _, err := s.Load(ctx, site, "other", LatestRevision); status.Code(err) != codes.NotFound {
		t.Fatalf("Load = %v, want NotFound", err)
	}
	if got := storageOps.Value("save", "OK") - saves; got != 1 {
		t.Errorf("save count grew by %v, want 1", got)
	}
	if got := storageOps.Value("load", "NotFound") - notFound; got != 1 {
		t.Errorf("load NotFound count grew by %v, want 1", got)
	}
}
