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

package gaps

import (
	"fmt"
	"strconv"
)

// Run represents a contiguous inclusive range of missing values.
type Run struct {
	First int64 `json:"first"`
	Last  int64 `json:"last"`
}

// Len returns the number of values in the run.
func (r Run) Len() int64 {
	return r.Last - r.First + 1
}

// String implements fmt.Stringer.
func (r Run) String() string {
	if r.First == r.Last {
		return strconv.FormatInt(r.First, 10)
	}

	return fmt.Sprintf("%d..%d", r.First, r.Last)
}

// Runs compresses an ascending sequence of values into contiguous runs.
//
// The input must be sorted in ascending order without duplicates,
// as returned by Find.
func Runs(values []int64) []Run {
	if len(values) == 0 {
		return nil
	}

	res := []Run{{First: values[0], Last: values[0]}}

	for _, v := range values[1:] {
		if last := &res[len(res)-1]; v == last.Last+1 {
			last.Last = v
			continue
		}

		res = append(res, Run{First: v, Last: v})
	}

	return res
}
