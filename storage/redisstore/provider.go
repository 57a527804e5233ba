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

package redisstore

import (
	"context"
	"flag"
	"time"

	"github.com/go-redis/redis"
	"github.com/terrain-ops/subgrid/monitoring"
	"github.com/terrain-ops/subgrid/storage"
	"github.com/terrain-ops/subgrid/util/backoff"
	"k8s.io/klog/v2"
)

var (
	redisAddr      = flag.String("redis_addr", "localhost:6379", "Address of the Redis server")
	redisDB        = flag.Int("redis_db", 0, "Redis database number")
	redisKeyPrefix = flag.String("redis_key_prefix", DefaultKeyPrefix, "Prefix of Redis keys holding existence maps")
	redisTTL       = flag.Duration("redis_ttl", 0, "Expiry of saved existence maps, zero for none")
	redisConnect   = flag.Duration("redis_connect_timeout", 30*time.Second, "How long to retry the initial connection to Redis")
)

func init() {
	if err := storage.RegisterProvider("redis", newRedisStorageProvider); err != nil {
		klog.Fatalf("Failed to register storage provider redis: %v", err)
	}
}

type redisProvider struct {
	client *redis.Client
	es     storage.ExistenceMapStorage
}

func newRedisStorageProvider(mf monitoring.MetricFactory) (storage.Provider, error) {
	client := redis.NewClient(&redis.Options{Addr: *redisAddr, DB: *redisDB})
	ctx, cancel := context.WithTimeout(context.Background(), *redisConnect)
	defer cancel()
	if err := ping(ctx, client); err != nil {
		client.Close()
		return nil, err
	}
	return &redisProvider{
		client: client,
		es:     storage.Instrument(NewExistenceMapStorage(client, *redisKeyPrefix, *redisTTL), mf),
	}, nil
}

// ping waits for the server to answer, backing off between attempts.
func ping(ctx context.Context, client *redis.Client) error {
	b := backoff.Backoff{Min: 100 * time.Millisecond, Max: 5 * time.Second, Factor: 2, Jitter: true}
	return b.Retry(ctx, func() error {
		err := client.WithContext(ctx).Ping().Err()
		if err != nil {
			klog.Warningf("Redis at %s not ready: %v", *redisAddr, err)
		}
		return err
	})
}

func (s *redisProvider) ExistenceMapStorage() storage.ExistenceMapStorage {
	return s.es
}

func (s *redisProvider) Close() error {
	return s.client.Close()
}
