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

package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap/zapcore"
)

// RecentEntries implements zap logging entries interception
// and stores the last 1024 entries in a ring buffer in memory.
var RecentEntries = NewCircularBuffer(1024)

// circularBuffer stores log entries in memory.
type circularBuffer struct {
	mu    sync.RWMutex
	log   []*zapcore.Entry
	index int
}

// NewCircularBuffer creates a circular buffer for log entries of the given size.
func NewCircularBuffer(size int) *circularBuffer {
	if size < 1 {
		panic(fmt.Sprintf("buffer size must be at least 1, but %d provided", size))
	}

	return &circularBuffer{
		log: make([]*zapcore.Entry, size),
	}
}

// append adds an entry to the buffer, evicting the oldest one if needed.
func (cb *circularBuffer) append(entry *zapcore.Entry) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.log[cb.index] = entry
	cb.index = (cb.index + 1) % len(cb.log)
}

// Get returns entries stored in the buffer, oldest first.
func (cb *circularBuffer) Get() []*zapcore.Entry {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	var entries []*zapcore.Entry

	for i := 0; i < len(cb.log); i++ {
		k := (i + cb.index) % len(cb.log)

		if cb.log[k] != nil {
			entries = append(entries, cb.log[k])
		}
	}

	return entries
}
