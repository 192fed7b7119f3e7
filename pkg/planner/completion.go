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
	"sync"
	"sync/atomic"
)

// 🧮 completion tracks one top-level request and the transitive closure of
// the child requests it spawns. The counter starts at one for the request
// itself; every enqueued descendant adds one and every finished task
// removes one. When it reaches zero the request is settled.
type completion struct {
	pending     atomic.Int32
	diffOnce    sync.Once
	settleOnce  sync.Once
	onFirstDiff func()
	onSettled   func()
}

func newCompletion(onFirstDiff, onSettled func()) *completion {
	c := &completion{
		onFirstDiff: onFirstDiff,
		onSettled:   onSettled,
	}
	c.pending.Store(1)
	return c
}

// markDiff fires the first-difference callback, at most once, the first
// time any task under this request emits an action.
func (c *completion) markDiff() {
	c.diffOnce.Do(func() {
		if c.onFirstDiff != nil {
			c.onFirstDiff()
		}
	})
}

// addChild registers one more pending descendant. Must be called before the
// calling task itself reports done.
func (c *completion) addChild() {
	c.pending.Add(1)
}

// done reports one task finished; the settled callback fires exactly once,
// when the whole subtree has been classified.
func (c *completion) done() {
	if c.pending.Add(-1) == 0 {
		c.settleOnce.Do(func() {
			if c.onSettled != nil {
				c.onSettled()
			}
		})
	}
}
