// Copyright 2024 Gapwatch Authors
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

package testutil

import (
	"os"
	"testing"
)

// TestSQLiteURI returns SQLite URI for a fresh in-memory database.
func TestSQLiteURI(tb testing.TB) string {
	tb.Helper()

	return "file:" + TableName(tb) + "?mode=memory&cache=shared"
}

// TestPostgreSQLURI returns PostgreSQL URL for testing, or skips the test if it is not set.
func TestPostgreSQLURI(tb testing.TB) string {
	tb.Helper()

	uri := os.Getenv("GAPWATCH_TEST_POSTGRESQL_URL")
	if uri == "" {
		tb.Skip("GAPWATCH_TEST_POSTGRESQL_URL is not set")
	}

	return uri
}

// TestMySQLURI returns MySQL URL for testing, or skips the test if it is not set.
func TestMySQLURI(tb testing.TB) string {
	tb.Helper()

	uri := os.Getenv("GAPWATCH_TEST_MYSQL_URL")
	if uri == "" {
		tb.Skip("GAPWATCH_TEST_MYSQL_URL is not set")
	}

	return uri
}
