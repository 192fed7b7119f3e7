// Copyright 2025 walteh LLC
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

package lockq

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_MutualExclusion(t *testing.T) {
	q := New()
	ctx := context.Background()

	var mu sync.Mutex
	inCritical := 0
	maxInCritical := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := q.Acquire(ctx, "/dest")
			require.NoError(t, err)
			defer release()

			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInCritical, "at most one holder per key at a time")
}

func TestAcquire_DifferentKeysDoNotBlock(t *testing.T) {
	q := New()
	ctx := context.Background()

	releaseA, err := q.Acquire(ctx, "/a")
	require.NoError(t, err)
	defer releaseA()

	done := make(chan struct{})
	go func() {
		releaseB, err := q.Acquire(ctx, "/b")
		assert.NoError(t, err)
		releaseB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquiring an unrelated key should not block")
	}
}

func TestAcquire_ContextCancelled(t *testing.T) {
	q := New()

	release, err := q.Acquire(context.Background(), "/dest")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = q.Acquire(ctx, "/dest")
	assert.Error(t, err, "waiting acquire should fail once the context is done")
}

func TestRelease_IsIdempotent(t *testing.T) {
	q := New()
	ctx := context.Background()

	release, err := q.Acquire(ctx, "/dest")
	require.NoError(t, err)
	release()
	release() // second call must be a no-op

	releaseAgain, err := q.Acquire(ctx, "/dest")
	require.NoError(t, err)
	releaseAgain()
}

func TestDo(t *testing.T) {
	q := New()
	ran := false
	err := q.Do(context.Background(), "/dest", func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}
