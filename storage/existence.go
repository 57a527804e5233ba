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

// Package storage persists subgrid existence maps. Maps are stored as the
// opaque bytes of subgridtree.BitMask.MarshalBinary, keyed by site and map
// name, with a new revision for every save.
package storage

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/terrain-ops/subgrid/subgridtree"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LatestRevision asks Load for the newest revision of a map.
const LatestRevision int64 = -1

// MaxNameLen is the longest allowed map name.
const MaxNameLen = 255

// ExistenceMapStorage stores revisions of serialized existence maps.
// Implementations return status errors: NotFound for missing maps or
// revisions, InvalidArgument for bad keys.
type ExistenceMapStorage interface {
	// Save stores data as the next revision of map name of site, and
	// returns that revision. Revisions start at 1.
	Save(ctx context.Context, site uuid.UUID, name string, data []byte) (int64, error)
	// Load returns revision rev of map name of site, or the newest one if
	// rev is LatestRevision, along with the revision returned.
	Load(ctx context.Context, site uuid.UUID, name string, rev int64) ([]byte, int64, error)
	// Delete removes every revision of map name of site.
	Delete(ctx context.Context, site uuid.UUID, name string) error
}

// ValidateKey checks a site and map name pair.
func ValidateKey(site uuid.UUID, name string) error {
	if site == uuid.Nil {
		return status.Error(codes.InvalidArgument, "site id is nil")
	}
	if name == "" || len(name) > MaxNameLen {
		return status.Errorf(codes.InvalidArgument, "map name %q must be 1 to %d bytes", name, MaxNameLen)
	}
	if strings.ContainsAny(name, "/:") {
		return status.Errorf(codes.InvalidArgument, "map name %q contains '/' or ':'", name)
	}
	return nil
}

// ValidateRevision checks a revision passed to Load.
func ValidateRevision(rev int64) error {
	if rev == LatestRevision || rev > 0 {
		return nil
	}
	return status.Errorf(codes.InvalidArgument, "invalid revision %d", rev)
}

// SaveBitMask serializes m and saves it as a new revision.
func SaveBitMask(ctx context.Context, s ExistenceMapStorage, site uuid.UUID, name string, m *subgridtree.BitMask) (int64, error) {
	data, err := m.MarshalBinary()
	if err != nil {
		return 0, status.Errorf(codes.Internal, "marshalling existence map %s/%s: %v", site, name, err)
	}
	return s.Save(ctx, site, name, data)
}

// LoadBitMask loads and decodes revision rev of an existence map.
func LoadBitMask(ctx context.Context, s ExistenceMapStorage, site uuid.UUID, name string, rev int64) (*subgridtree.BitMask, int64, error) {
	data, got, err := s.Load(ctx, site, name, rev)
	if err != nil {
		return nil, 0, err
	}
	m := &subgridtree.BitMask{}
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, 0, status.Errorf(codes.DataLoss, "existence map %s/%s@%d: %v", site, name, got, err)
	}
	return m, got, nil
}
