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

// Package testdb creates new databases for tests.
package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"golang.org/x/sys/unix"
	"k8s.io/klog/v2"

	_ "github.com/go-sql-driver/mysql" // mysql driver
)

const (
	// MySQLURIEnv is the name of the ENV variable checked for the test MySQL
	// instance URI to use. The value must have a trailing slash.
	MySQLURIEnv = "TEST_MYSQL_URI"

	// Note: sql.Open requires the URI to end with a slash.
	defaultTestMySQLURI = "root@tcp(127.0.0.1)/"
)

// mysqlURI returns the MySQL connection URI to use for tests. It returns the
// value in the ENV variable defined by MySQLURIEnv. If the value is empty,
// returns defaultTestMySQLURI.
func mysqlURI() string {
	if e := os.Getenv(MySQLURIEnv); len(e) > 0 {
		return e
	}
	return defaultTestMySQLURI
}

// MySQLAvailable indicates whether the configured MySQL database is available.
func MySQLAvailable() bool {
	db, err := sql.Open("mysql", mysqlURI())
	if err != nil {
		klog.Warningf("sql.Open(): %v", err)
		return false
	}
	defer db.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		klog.Warningf("db.Ping(): %v", err)
		return false
	}
	return true
}

// RaiseFDLimit raises the soft limit on open file descriptors to uLimit, or
// to the hard limit if that is lower. Tests opening many databases need
// more descriptors than some systems allow by default.
func RaiseFDLimit(uLimit uint64) error {
	var rLimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rLimit); err != nil {
		return err
	}
	if rLimit.Cur >= uLimit {
		return nil
	}
	rLimit.Cur = min(uLimit, rLimit.Max)
	return unix.Setrlimit(unix.RLIMIT_NOFILE, &rLimit)
}

// NewDB creates a randomly named database holding the tables created by
// the statements stmts. It returns the database handle and a clean-up
// function that drops the database, or an error.
func NewDB(ctx context.Context, stmts []string) (*sql.DB, func(context.Context), error) {
	if err := RaiseFDLimit(2048); err != nil {
		return nil, nil, err
	}
	db, err := sql.Open("mysql", mysqlURI())
	if err != nil {
		return nil, nil, err
	}

	// Create a randomly-named database and then connect using the new name.
	name := fmt.Sprintf("subgrid_%v", time.Now().UnixNano())

	stmt := fmt.Sprintf("CREATE DATABASE %v", name)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("error running statement %q: %v", stmt, err)
	}

	db.Close()
	db, err = sql.Open("mysql", mysqlURI()+name)
	if err != nil {
		return nil, nil, err
	}

	done := func(ctx context.Context) {
		defer db.Close()
		if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP DATABASE %v", name)); err != nil {
			klog.Warningf("Failed to drop test database %q: %v", name, err)
		}
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			done(ctx)
			return nil, nil, fmt.Errorf("error running statement %q: %v", stmt, err)
		}
	}
	return db, done, nil
}

// SkipIfNoMySQL is a test helper that skips tests that require a local MySQL.
func SkipIfNoMySQL(t *testing.T) {
	t.Helper()
	if !MySQLAvailable() {
		t.Skip("Skipping test as MySQL not available")
	}
	t.Logf("Test MySQL available at %q", mysqlURI())
}
