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

package sources

import "regexp"

// identifierRe validates table and column names.
//
// That validation is quite restrictive because table and column names are
// interpolated into queries (quoted), and because we expect it to be easy
// for users to point gapwatch at conventionally-named tables.
// Engines can do their own additional validation.
var identifierRe = regexp.MustCompile("^[a-zA-Z_][a-zA-Z0-9_]{0,62}$")

// validateTableName checks that the table name is valid for gapwatch.
func validateTableName(name string) error {
	if !identifierRe.MatchString(name) {
		return NewError(ErrorCodeTableNameIsInvalid, nil)
	}

	return nil
}

// validateColumnName checks that the column name is valid for gapwatch.
func validateColumnName(name string) error {
	if !identifierRe.MatchString(name) {
		return NewError(ErrorCodeColumnNameIsInvalid, nil)
	}

	return nil
}
