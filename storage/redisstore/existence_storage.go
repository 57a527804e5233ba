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

// Package redisstore stores existence maps in Redis. Each map has a revision
// counter key and one key per revision holding the serialized map.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"github.com/google/uuid"
	"github.com/terrain-ops/subgrid/storage"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"k8s.io/klog/v2"
)

// DefaultKeyPrefix is the key prefix used when none is configured.
const DefaultKeyPrefix = "subgrid"

// RedisClient is an interface that encompasses the various methods used by
// ExistenceMapStorage, and allows selecting among different Redis client
// implementations (e.g. regular Redis, Redis Cluster, sharded, etc.)
type RedisClient interface {
	Get(key string) *redis.StringCmd
	Set(key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(key string) *redis.IntCmd
	Del(keys ...string) *redis.IntCmd
}

// ExistenceMapStorage implements storage.ExistenceMapStorage on Redis.
type ExistenceMapStorage struct {
	c      RedisClient
	prefix string
	// ttl is the expiry of saved keys. Zero means they never expire.
	ttl time.Duration
}

// NewExistenceMapStorage returns a storage using client, with keys under
// prefix (DefaultKeyPrefix if empty) that expire after ttl if it is
// positive.
func NewExistenceMapStorage(client RedisClient, prefix string, ttl time.Duration) *ExistenceMapStorage {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &ExistenceMapStorage{c: client, prefix: prefix, ttl: ttl}
}

func (s *ExistenceMapStorage) revKey(site uuid.UUID, name string) string {
	return fmt.Sprintf("%s:%s:%s:rev", s.prefix, site, name)
}

func (s *ExistenceMapStorage) dataKey(site uuid.UUID, name string, rev int64) string {
	return fmt.Sprintf("%s:%s:%s:%d", s.prefix, site, name, rev)
}

func redisToGRPC(op string, err error) error {
	if err == redis.Nil {
		return status.Errorf(codes.NotFound, "%s: not found", op)
	}
	return status.Errorf(codes.Unavailable, "%s: %v", op, err)
}

// Save implements storage.ExistenceMapStorage. The revision counter is
// incremented atomically, so concurrent saves get distinct revisions.
func (s *ExistenceMapStorage) Save(ctx context.Context, site uuid.UUID, name string, data []byte) (int64, error) {
	if err := storage.ValidateKey(site, name); err != nil {
		return 0, err
	}
	c := withClientContext(ctx, s.c)
	rev, err := c.Incr(s.revKey(site, name)).Result()
	if err != nil {
		return 0, redisToGRPC("incrementing revision", err)
	}
	if err := c.Set(s.dataKey(site, name, rev), data, s.ttl).Err(); err != nil {
		return 0, redisToGRPC("saving existence map", err)
	}
	klog.V(2).Infof("redis: saved %s (%d bytes)", s.dataKey(site, name, rev), len(data))
	return rev, nil
}

// Load implements storage.ExistenceMapStorage.
func (s *ExistenceMapStorage) Load(ctx context.Context, site uuid.UUID, name string, rev int64) ([]byte, int64, error) {
	if err := storage.ValidateKey(site, name); err != nil {
		return nil, 0, err
	}
	if err := storage.ValidateRevision(rev); err != nil {
		return nil, 0, err
	}
	c := withClientContext(ctx, s.c)
	if rev == storage.LatestRevision {
		latest, err := c.Get(s.revKey(site, name)).Int64()
		if err != nil {
			return nil, 0, redisToGRPC(fmt.Sprintf("existence map %s/%s", site, name), err)
		}
		rev = latest
	}
	data, err := c.Get(s.dataKey(site, name, rev)).Bytes()
	if err != nil {
		return nil, 0, redisToGRPC(fmt.Sprintf("existence map %s/%s revision %d", site, name, rev), err)
	}
	return data, rev, nil
}

// Delete implements storage.ExistenceMapStorage.
func (s *ExistenceMapStorage) Delete(ctx context.Context, site uuid.UUID, name string) error {
	if err := storage.ValidateKey(site, name); err != nil {
		return err
	}
	c := withClientContext(ctx, s.c)
	latest, err := c.Get(s.revKey(site, name)).Int64()
	if err != nil {
		return redisToGRPC(fmt.Sprintf("existence map %s/%s", site, name), err)
	}
	keys := []string{s.revKey(site, name)}
	for r := int64(1); r <= latest; r++ {
		keys = append(keys, s.dataKey(site, name, r))
	}
	if err := c.Del(keys...).Err(); err != nil {
		return redisToGRPC("deleting existence map", err)
	}
	return nil
}

// withClientContext returns a client that will use the given context, if
// the client type supports it.
func withClientContext(ctx context.Context, client RedisClient) RedisClient {
	type withContextable interface {
		WithContext(context.Context) RedisClient
	}

	switch c := client.(type) {
	case *redis.Client:
		return c.WithContext(ctx)
	case *redis.ClusterClient:
		return c.WithContext(ctx)
	case *redis.Ring:
		return c.WithContext(ctx)
	case withContextable:
		return c.WithContext(ctx)
	}
	return client
}
