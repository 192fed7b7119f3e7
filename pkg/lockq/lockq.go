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

// Package lockq provides path-keyed mutual exclusion. The sync engine does
// not serialize concurrent calls against overlapping destinations itself;
// callers acquire a lock on the destination path before invoking it.
package lockq

import (
	"context"
	"sync"

	"gitlab.com/tozd/go/errors"
)

// 🔒 Queue hands out at most one lock per key at a time. The zero value is
// not usable; call New.
type Queue struct {
	mu    sync.Mutex
	locks map[string]*lock
}

type lock struct {
	sem     chan struct{}
	holders int
}

// 🏭 New creates an empty lock queue.
func New() *Queue {
	return &Queue{locks: make(map[string]*lock)}
}

// 🔑 Acquire blocks until the lock for key is available or ctx is done. On
// success it returns a release function that must be called exactly once.
func (q *Queue) Acquire(ctx context.Context, key string) (func(), error) {
	q.mu.Lock()
	l, ok := q.locks[key]
	if !ok {
		l = &lock{sem: make(chan struct{}, 1)}
		q.locks[key] = l
	}
	l.holders++
	q.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-l.sem
				q.drop(key, l)
			})
		}, nil
	case <-ctx.Done():
		q.drop(key, l)
		return nil, errors.Errorf("acquiring lock on %s: %w", key, ctx.Err())
	}
}

// drop releases one interest in the key, removing the entry once nobody is
// holding or waiting on it.
func (q *Queue) drop(key string, l *lock) {
	q.mu.Lock()
	defer q.mu.Unlock()
	l.holders--
	if l.holders == 0 {
		delete(q.locks, key)
	}
}

// 🏃 Do runs fn while holding the lock for key.
func (q *Queue) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	release, err := q.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}
