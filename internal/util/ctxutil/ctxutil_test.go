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

package ctxutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDelay(t *testing.T) {
	t.Parallel()

	t.Run("Canceled", func(t *testing.T) {
		t.Parallel()

		done := make(chan struct{})
		ctx, cancel := WithDelay(done, time.Hour)

		cancel()

		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
			t.Fatal("context was not canceled")
		}
	})

	t.Run("Delayed", func(t *testing.T) {
		t.Parallel()

		done := make(chan struct{})
		ctx, cancel := WithDelay(done, 10*time.Millisecond)
		defer cancel()

		close(done)

		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
			t.Fatal("context was not canceled after delay")
		}
	})
}

func TestSleep(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	Sleep(ctx, time.Hour)
	require.Less(t, time.Since(start), time.Minute)

	start = time.Now()
	Sleep(context.Background(), 10*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}
