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

// Package resource provides utilities for tracking lifetimes of objects
// that must be closed or untracked explicitly.
package resource

import (
	"fmt"
	"reflect"
	"runtime"
	"runtime/pprof"
	"sync"

	"github.com/gapwatch/gapwatch/internal/util/debugbuild"
)

// Token is a field of a tracked object.
//
// It exists to ensure that the finalizer is attached to the object itself,
// not to some copy of it, and to carry the creation stack for debug builds.
type Token struct {
	stack []byte
}

// NewToken returns a new Token.
func NewToken() *Token {
	return &Token{
		stack: debugbuild.Stack(),
	}
}

// profilesM protects access to profiles.
var profilesM sync.Mutex

// profileName returns pprof profile name for the given object.
func profileName(obj any) string {
	return "gapwatch/" + reflect.TypeOf(obj).Elem().String()
}

// profile returns pprof profile for the given object, creating it if needed.
func profile(obj any) *pprof.Profile {
	name := profileName(obj)

	// fast path

	if p := pprof.Lookup(name); p != nil {
		return p
	}

	// slow path

	profilesM.Lock()
	defer profilesM.Unlock()

	// a concurrent call might have created a profile already; check again
	p := pprof.Lookup(name)
	if p == nil {
		p = pprof.NewProfile(name)
	}

	return p
}

// checkArgs ensures that obj is a pointer to a struct and token is not nil.
func checkArgs(obj any, token *Token) {
	if token == nil {
		panic("token must not be nil")
	}

	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		panic(fmt.Sprintf("obj must be a pointer to a struct, got %T", obj))
	}
}

// Track tracks the lifetime of an object until Untrack is called on it.
//
// Obj should be a pointer to a struct with a field "token" of type *Token.
// If the object is garbage-collected before Untrack is called,
// the finalizer panics, surfacing the leak.
func Track[T any](obj *T, token *Token) {
	checkArgs(obj, token)

	profile(obj).Add(token, 1)

	msg := fmt.Sprintf("%T has not been finalized", obj)
	if token.stack != nil {
		msg += "\nobject created by " + string(token.stack)
	}

	runtime.SetFinalizer(obj, func(*T) {
		panic(msg)
	})
}

// Untrack stops tracking the object.
func Untrack[T any](obj *T, token *Token) {
	checkArgs(obj, token)

	profile(obj).Remove(token)

	runtime.SetFinalizer(obj, nil)
}
