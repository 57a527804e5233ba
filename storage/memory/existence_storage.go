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

package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/btree"
	"github.com/google/uuid"
	"github.com/terrain-ops/subgrid/storage"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"k8s.io/klog/v2"
)

const degree = 8

// mapPrefix is the key prefix shared by all revisions of one map.
func mapPrefix(site uuid.UUID, name string) string {
	return fmt.Sprintf("/%s/%s/", site, name)
}

// revisionKey formats a key for one revision. Revisions are zero padded so
// that key order is revision order.
func revisionKey(site uuid.UUID, name string, rev int64) *kv {
	return &kv{k: fmt.Sprintf("%s%020d", mapPrefix(site, name), rev)}
}

// kv is a simple key->value type which implements btree's Item interface.
type kv struct {
	k string
	v []byte
}

// Less than by k's string key
func (a kv) Less(b btree.Item) bool {
	return strings.Compare(a.k, b.(*kv).k) < 0
}

// ExistenceMapStorage keeps existence map revisions in a B-tree ordered by
// site, map name and revision.
type ExistenceMapStorage struct {
	mu    sync.RWMutex
	store *btree.BTree
}

// NewExistenceMapStorage returns an empty storage.
func NewExistenceMapStorage() *ExistenceMapStorage {
	return &ExistenceMapStorage{store: btree.New(degree)}
}

// latestLocked returns the newest revision of a map, or nil.
func (m *ExistenceMapStorage) latestLocked(site uuid.UUID, name string) *kv {
	prefix := mapPrefix(site, name)
	var latest *kv
	m.store.DescendLessOrEqual(revisionKey(site, name, 1<<62), func(i btree.Item) bool {
		if it := i.(*kv); strings.HasPrefix(it.k, prefix) {
			latest = it
		}
		return false
	})
	return latest
}

func revisionOf(it *kv) int64 {
	rev, err := strconv.ParseInt(it.k[strings.LastIndexByte(it.k, '/')+1:], 10, 64)
	if err != nil {
		panic(fmt.Sprintf("memory: malformed revision key %q", it.k))
	}
	return rev
}

// Save implements storage.ExistenceMapStorage.
func (m *ExistenceMapStorage) Save(_ context.Context, site uuid.UUID, name string, data []byte) (int64, error) {
	if err := storage.ValidateKey(site, name); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rev := int64(1)
	if latest := m.latestLocked(site, name); latest != nil {
		rev = revisionOf(latest) + 1
	}
	k := revisionKey(site, name, rev)
	k.v = append([]byte(nil), data...)
	m.store.ReplaceOrInsert(k)
	klog.V(2).Infof("memory: saved %s%d (%d bytes)", mapPrefix(site, name), rev, len(data))
	return rev, nil
}

// Load implements storage.ExistenceMapStorage.
func (m *ExistenceMapStorage) Load(_ context.Context, site uuid.UUID, name string, rev int64) ([]byte, int64, error) {
	if err := storage.ValidateKey(site, name); err != nil {
		return nil, 0, err
	}
	if err := storage.ValidateRevision(rev); err != nil {
		return nil, 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var it *kv
	if rev == storage.LatestRevision {
		it = m.latestLocked(site, name)
	} else if i := m.store.Get(revisionKey(site, name, rev)); i != nil {
		it = i.(*kv)
	}
	if it == nil {
		return nil, 0, status.Errorf(codes.NotFound, "existence map %s/%s revision %d not found", site, name, rev)
	}
	// Return a copy to protect against the caller modifying the stored one.
	return append([]byte(nil), it.v...), revisionOf(it), nil
}

// Delete implements storage.ExistenceMapStorage.
func (m *ExistenceMapStorage) Delete(_ context.Context, site uuid.UUID, name string) error {
	if err := storage.ValidateKey(site, name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := mapPrefix(site, name)
	var doomed []btree.Item
	m.store.AscendGreaterOrEqual(&kv{k: prefix}, func(i btree.Item) bool {
		if !strings.HasPrefix(i.(*kv).k, prefix) {
			return false
		}
		doomed = append(doomed, i)
		return true
	})
	if len(doomed) == 0 {
		return status.Errorf(codes.NotFound, "existence map %s/%s not found", site, name)
	}
	for _, i := range doomed {
		m.store.Delete(i)
	}
	return nil
}
