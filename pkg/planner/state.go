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

package planner

import (
	"context"
	"path/filepath"
	"sync"

	"golang.org/x/sync/semaphore"
)

// 🗂️ planState is the shared accumulator for one Plan call: the growing
// action list, the provisionally-extraneous destination paths, and the
// destination paths proven live. It is owned by a single call and guarded
// by one mutex; nothing escapes the call.
type planState struct {
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	cancel context.CancelFunc

	mu         sync.Mutex
	actions    []Action
	extraneous map[string]struct{}
	seen       map[string]struct{}
	err        error
}

func newPlanState(concurrency int64, cancel context.CancelFunc) *planState {
	return &planState{
		sem:        semaphore.NewWeighted(concurrency),
		cancel:     cancel,
		extraneous: make(map[string]struct{}),
		seen:       make(map[string]struct{}),
	}
}

// fail records the first error and cancels all in-flight tasks.
func (st *planState) fail(err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.err == nil {
		st.err = err
		st.cancel()
	}
}

func (st *planState) failed() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.err != nil
}

func (st *planState) firstErr() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.err
}

// emit appends a planned action.
func (st *planState) emit(a Action) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.actions = append(st.actions, a)
}

// markSeen proves a destination path live: it is removed from the
// extraneous set and can never be re-added.
func (st *planState) markSeen(path string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.seen[path] = struct{}{}
	delete(st.extraneous, path)
}

// markSeenWithAncestors proves a destination directory and every ancestor
// path component live, so later extraneous checks never delete a directory
// still in use.
func (st *planState) markSeenWithAncestors(path string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for p := path; ; {
		st.seen[p] = struct{}{}
		delete(st.extraneous, p)
		parent := filepath.Dir(p)
		if parent == p {
			break
		}
		p = parent
	}
}

// addExtraneous records a destination path as provisionally extraneous,
// unless it has already been proven live.
func (st *planState) addExtraneous(path string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.seen[path]; ok {
		return
	}
	st.extraneous[path] = struct{}{}
}

// drain returns the never-seen extraneous paths and the final action list.
func (st *planState) drain() (actions []Action, doomed []string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for path := range st.extraneous {
		doomed = append(doomed, path)
	}
	return st.actions, doomed
}
