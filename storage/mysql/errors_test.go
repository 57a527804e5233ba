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
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestMySQLToGRPC(t *testing.T) {
	for _, tc := range []struct {
		desc string
		err  error
		want codes.Code
	}{
		{desc: "no rows", err: sql.ErrNoRows, want: codes.NotFound},
		{desc: "wrapped no rows", err: fmt.Errorf("scan: %w", sql.ErrNoRows), want: codes.NotFound},
		{desc: "deadlock", err: &mysql.MySQLError{Number: errNumDeadlock, Message: "Deadlock found"}, want: codes.Aborted},
		{desc: "duplicate", err: &mysql.MySQLError{Number: errNumDuplicate, Message: "Duplicate entry"}, want: codes.Aborted},
		{desc: "other mysql error", err: &mysql.MySQLError{Number: 1146, Message: "Table doesn't exist"}, want: codes.Internal},
		{desc: "other error", err: errors.New("bad connection"), want: codes.Internal},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			if got := status.Code(mysqlToGRPC("op", tc.err)); got != tc.want {
				t.Errorf("mysqlToGRPC(%v) code = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
