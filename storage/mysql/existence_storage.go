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

package mysql

import (
	"context"
	"database/sql"
	_ "embed" // schema
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/terrain-ops/subgrid/storage"
	"github.com/terrain-ops/subgrid/util/backoff"
	"github.com/terrain-ops/subgrid/util/clock"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"k8s.io/klog/v2"
)

// Schema creates the tables used by ExistenceMapStorage.
//
//go:embed schema/storage.sql
var Schema string

const (
	selectLatestRevisionSQL = `SELECT COALESCE(MAX(Revision), 0) FROM ExistenceMaps
		WHERE SiteId = ? AND Name = ? FOR UPDATE`
	insertMapSQL = `INSERT INTO ExistenceMaps(SiteId, Name, Revision, Data, SaveTimestampNanos)
		VALUES(?, ?, ?, ?, ?)`
	selectLatestMapSQL = `SELECT Revision, Data FROM ExistenceMaps
		WHERE SiteId = ? AND Name = ? ORDER BY Revision DESC LIMIT 1`
	selectMapSQL = `SELECT Revision, Data FROM ExistenceMaps
		WHERE SiteId = ? AND Name = ? AND Revision = ?`
	deleteMapSQL = `DELETE FROM ExistenceMaps WHERE SiteId = ? AND Name = ?`
)

// ExistenceMapStorage implements storage.ExistenceMapStorage on MySQL.
type ExistenceMapStorage struct {
	db *sql.DB
	ts clock.TimeSource
	// retry paces repeated attempts at saves that lost a race for a
	// revision.
	retry backoff.Backoff
}

// NewExistenceMapStorage returns a storage using db, which must hold the
// tables created by Schema.
func NewExistenceMapStorage(db *sql.DB) *ExistenceMapStorage {
	return &ExistenceMapStorage{
		db:    db,
		ts:    clock.System,
		retry: backoff.Backoff{Min: 10 * time.Millisecond, Max: time.Second, Factor: 2, Jitter: true},
	}
}

// Save implements storage.ExistenceMapStorage. Saves racing for the same
// revision are retried until ctx is done.
func (m *ExistenceMapStorage) Save(ctx context.Context, site uuid.UUID, name string, data []byte) (int64, error) {
	if err := storage.ValidateKey(site, name); err != nil {
		return 0, err
	}
	var rev int64
	b := m.retry
	err := b.Retry(ctx, func() error {
		var err error
		rev, err = m.save(ctx, site, name, data)
		if status.Code(err) != codes.Aborted {
			return backoff.Permanent(err)
		}
		klog.V(1).Infof("mysql: retrying save of %s/%s: %v", site, name, err)
		return err
	})
	if err != nil {
		return 0, err
	}
	return rev, nil
}

func (m *ExistenceMapStorage) save(ctx context.Context, site uuid.UUID, name string, data []byte) (int64, error) {
	tx, err := m.db.BeginTx(ctx, nil /* opts */)
	if err != nil {
		return 0, mysqlToGRPC("begin", err)
	}
	defer tx.Rollback() // nolint: errcheck

	var latest int64
	if err := tx.QueryRowContext(ctx, selectLatestRevisionSQL, site[:], name).Scan(&latest); err != nil {
		return 0, mysqlToGRPC("reading latest revision", err)
	}
	rev := latest + 1
	if _, err := tx.ExecContext(ctx, insertMapSQL, site[:], name, rev, data, m.ts.Now().UnixNano()); err != nil {
		return 0, mysqlToGRPC("inserting existence map", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, mysqlToGRPC("commit", err)
	}
	klog.V(2).Infof("mysql: saved %s/%s revision %d (%d bytes)", site, name, rev, len(data))
	return rev, nil
}

// Load implements storage.ExistenceMapStorage.
func (m *ExistenceMapStorage) Load(ctx context.Context, site uuid.UUID, name string, rev int64) ([]byte, int64, error) {
	if err := storage.ValidateKey(site, name); err != nil {
		return nil, 0, err
	}
	if err := storage.ValidateRevision(rev); err != nil {
		return nil, 0, err
	}
	var row *sql.Row
	if rev == storage.LatestRevision {
		row = m.db.QueryRowContext(ctx, selectLatestMapSQL, site[:], name)
	} else {
		row = m.db.QueryRowContext(ctx, selectMapSQL, site[:], name, rev)
	}
	var got int64
	var data []byte
	if err := row.Scan(&got, &data); err != nil {
		return nil, 0, mysqlToGRPC(fmt.Sprintf("existence map %s/%s revision %d", site, name, rev), err)
	}
	return data, got, nil
}

// Delete implements storage.ExistenceMapStorage.
func (m *ExistenceMapStorage) Delete(ctx context.Context, site uuid.UUID, name string) error {
	if err := storage.ValidateKey(site, name); err != nil {
		return err
	}
	res, err := m.db.ExecContext(ctx, deleteMapSQL, site[:], name)
	if err != nil {
		return mysqlToGRPC("deleting existence map", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mysqlToGRPC("deleting existence map", err)
	}
	if n == 0 {
		return status.Errorf(codes.NotFound, "existence map %s/%s not found", site, name)
	}
	return nil
}
