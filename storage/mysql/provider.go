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
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"errors"
	"flag"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/terrain-ops/subgrid/monitoring"
	"github.com/terrain-ops/subgrid/storage"
	"github.com/terrain-ops/subgrid/util/backoff"
	"k8s.io/klog/v2"

	// Load MySQL driver
	"github.com/go-sql-driver/mysql"
)

var (
	mySQLURI        = flag.String("mysql_uri", "test:zaphod@tcp(127.0.0.1:3306)/test", "Connection URI for MySQL database")
	maxConns        = flag.Int("mysql_max_conns", 0, "Maximum connections to the database")
	maxIdle         = flag.Int("mysql_max_idle_conns", -1, "Maximum idle database connections in the connection pool")
	mySQLTLSCA      = flag.String("mysql_tls_ca", "", "Path to the CA certificate file for MySQL TLS connection ")
	mySQLServerName = flag.String("mysql_server_name", "", "Name of the MySQL server to be used as the Server Name in the TLS configuration")
	connectTimeout  = flag.Duration("mysql_connect_timeout", 30*time.Second, "How long to retry the initial connection to MySQL")
	createSchema    = flag.Bool("mysql_create_schema", false, "Create the existence map tables if they do not exist")

	mysqlMu              sync.Mutex
	mysqlErr             error
	mysqlDB              *sql.DB
	mysqlStorageInstance *mysqlProvider
)

func init() {
	if err := storage.RegisterProvider("mysql", newMySQLStorageProvider); err != nil {
		klog.Fatalf("Failed to register storage provider mysql: %v", err)
	}
}

type mysqlProvider struct {
	db *sql.DB
	es storage.ExistenceMapStorage
}

func newMySQLStorageProvider(mf monitoring.MetricFactory) (storage.Provider, error) {
	mysqlMu.Lock()
	defer mysqlMu.Unlock()
	if mysqlStorageInstance == nil {
		db, err := getMySQLDatabaseLocked()
		if err != nil {
			return nil, err
		}
		mysqlStorageInstance = &mysqlProvider{
			db: db,
			es: storage.Instrument(NewExistenceMapStorage(db), mf),
		}
	}
	return mysqlStorageInstance, nil
}

// getMySQLDatabaseLocked returns an instance of MySQL database, or creates
// one. Requires mysqlMu to be locked.
func getMySQLDatabaseLocked() (*sql.DB, error) {
	if mysqlDB != nil || mysqlErr != nil {
		return mysqlDB, mysqlErr
	}
	dsn := *mySQLURI
	if *mySQLTLSCA != "" {
		if err := registerMySQLTLSConfig(); err != nil {
			return nil, err
		}
		dsn += "?tls=custom"
	}
	ctx, cancel := context.WithTimeout(context.Background(), *connectTimeout)
	defer cancel()
	db, err := OpenDB(ctx, dsn)
	if err != nil {
		mysqlErr = err
		return nil, err
	}
	if *maxConns > 0 {
		db.SetMaxOpenConns(*maxConns)
	}
	if *maxIdle >= 0 {
		db.SetMaxIdleConns(*maxIdle)
	}
	if *createSchema {
		if err := CreateSchema(ctx, db); err != nil {
			db.Close()
			mysqlErr = err
			return nil, err
		}
	}
	mysqlDB, mysqlErr = db, nil
	return db, nil
}

// OpenDB opens a database connection, waiting for the server to answer,
// and sets strict mode.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		// Don't log the DSN as it could contain credentials.
		klog.Warningf("Could not parse MySQL DSN, check config: %s", err)
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		klog.Warningf("Could not open MySQL database, check config: %s", err)
		return nil, err
	}
	b := backoff.Backoff{Min: 100 * time.Millisecond, Max: 5 * time.Second, Factor: 2, Jitter: true}
	if err := b.Retry(ctx, func() error {
		err := db.PingContext(ctx)
		if err != nil {
			klog.Warningf("MySQL at %s not ready: %v", cfg.Addr, err)
		}
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "SET sql_mode = 'STRICT_ALL_TABLES'"); err != nil {
		klog.Warningf("Failed to set strict mode on mysql db: %s", err)
		db.Close()
		return nil, err
	}
	klog.Infof("Connected to MySQL database %q at %s", cfg.DBName, cfg.Addr)
	return db, nil
}

// CreateSchema runs the statements of Schema against db.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range Statements(Schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Statements splits a SQL script into statements, dropping comments and
// blank lines.
func Statements(script string) []string {
	var b strings.Builder
	for _, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	var r []string
	for _, stmt := range strings.Split(b.String(), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			r = append(r, stmt)
		}
	}
	return r
}

func (s *mysqlProvider) ExistenceMapStorage() storage.ExistenceMapStorage {
	return s.es
}

func (s *mysqlProvider) Close() error {
	return s.db.Close()
}

// registerMySQLTLSConfig registers a custom TLS config for MySQL using a provided CA certificate and optional server name.
// Returns an error if the CA certificate can't be read or added to the root cert pool, or when the registration of the TLS config fails.
func registerMySQLTLSConfig() error {
	if *mySQLTLSCA == "" {
		return nil
	}
	rootCertPool := x509.NewCertPool()
	pem, err := os.ReadFile(*mySQLTLSCA)
	if err != nil {
		return err
	}
	if ok := rootCertPool.AppendCertsFromPEM(pem); !ok {
		return errors.New("failed to append PEM")
	}
	tlsConfig := &tls.Config{
		RootCAs: rootCertPool,
	}
	if *mySQLServerName != "" {
		tlsConfig.ServerName = *mySQLServerName
	}
	return mysql.RegisterTLSConfig("custom", tlsConfig)
}
