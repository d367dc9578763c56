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

// Package must provides helper functions that panic on error.
package must

import "github.com/gapwatch/gapwatch/internal/util/lazyerrors"

// NotFail panics if the error is not nil, returns res otherwise.
//
// Use that function only for static initialization, test code,
// or code that "can't" fail in a sense that error checking and reporting
// would not give anything to the user.
func NotFail[T any](res T, err error) T {
	NoError(err)
	return res
}

// NoError panics if the error is not nil.
//
// See NotFail for the intended use.
func NoError(err error) {
	if err != nil {
		panic(lazyerrors.Error(err))
	}
}

// BeTrue panics if the given value is false.
//
// See NotFail for the intended use.
func BeTrue(b bool) {
	if !b {
		panic("not true")
	}
}

// BeZero panics if the given value is not zero.
//
// See NotFail for the intended use.
func BeZero[T comparable](v T) {
	var zero T
	if v != zero {
		panic(lazyerrors.Errorf("%v is not zero", v))
	}
}

// NotBeZero panics if the given value is zero.
//
// See NotFail for the intended use.
func NotBeZero[T comparable](v T) {
	var zero T
	if v == zero {
		panic("zero value")
	}
}
