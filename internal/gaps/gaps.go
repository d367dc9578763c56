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

// Package gaps computes missing values in integer identifier sequences.
//
// All functions are pure: they accept a finite collection of integers and
// return fresh results without retaining or mutating their arguments.
// Duplicates and input order have no effect.
package gaps

// Find returns every integer strictly between the minimum and the maximum
// of ids that does not occur in ids, in ascending order.
//
// It returns nil if ids has fewer than two distinct values,
// including the empty input.
//
// The running time is O(n + span), where span is max(ids) - min(ids).
// Callers reading untrusted or unbounded sequences should check Span first.
func Find(ids []int64) []int64 {
	if len(ids) < 2 {
		return nil
	}

	present := make(map[int64]struct{}, len(ids))

	lo, hi := ids[0], ids[0]

	for _, id := range ids {
		present[id] = struct{}{}

		if id < lo {
			lo = id
		}
		if id > hi {
			hi = id
		}
	}

	if int64(len(present)) == hi-lo+1 {
		// dense, nothing to collect
		return nil
	}

	size := hi - lo + 1 - int64(len(present))
	if size < 0 {
		// span does not fit in int64; the walk below is bounded by the range either way
		size = 0
	}

	res := make([]int64, 0, size)

	for v := lo + 1; v < hi; v++ {
		if _, ok := present[v]; !ok {
			res = append(res, v)
		}
	}

	return res
}

// Span returns the minimum and the maximum of ids and the number of distinct
// values in one pass.
//
// ok is false for the empty input; lo, hi, and distinct are zero values then.
func Span(ids []int64) (lo, hi int64, distinct int, ok bool) {
	if len(ids) == 0 {
		return 0, 0, 0, false
	}

	seen := make(map[int64]struct{}, len(ids))

	lo, hi = ids[0], ids[0]

	for _, id := range ids {
		seen[id] = struct{}{}

		if id < lo {
			lo = id
		}
		if id > hi {
			hi = id
		}
	}

	return lo, hi, len(seen), true
}
