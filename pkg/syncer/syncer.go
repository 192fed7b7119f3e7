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

// Package syncer ties the planner and executor together: one Sync call
// covers a batch of source→destination pairs, treated as a single unit of
// work with one final action list and one extraneous set.
//
// The engine does not serialize concurrent calls against overlapping
// destination subtrees; callers needing that guarantee acquire a lockq lock
// keyed by destination path before invoking it.
package syncer

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/walteh/treesync/pkg/executor"
	"github.com/walteh/treesync/pkg/planner"
	"gitlab.com/tozd/go/errors"
)

// 🎯 Pair is one source→destination assignment.
type Pair struct {
	Source string
	Dest   string
}

// 📊 Stats summarizes one synchronization call.
type Stats struct {
	// Pairs is the number of top-level source→destination pairs.
	Pairs int
	// Changed is how many top-level pairs needed at least one action.
	Changed int
	// FileCopies and SymlinkCreates count the executed actions.
	FileCopies     int
	SymlinkCreates int
}

// 🔧 Options configures a Syncer.
type Options struct {
	// Concurrency bounds both planning fan-out and file-copy execution;
	// defaults to 4.
	Concurrency int

	// Progress receives executor callbacks.
	Progress executor.Progress

	// OnDelete is called once per removed extraneous destination path.
	OnDelete func(path string)
}

// 🔄 Syncer makes destination trees structurally and content-identical to
// their sources.
type Syncer struct {
	planner  *planner.Planner
	executor *executor.Executor
	progress executor.Progress
}

// 🏭 New creates a syncer.
func New(opts Options) *Syncer {
	return &Syncer{
		planner: planner.New(planner.Options{
			Concurrency: opts.Concurrency,
			OnDelete:    opts.OnDelete,
		}),
		executor: executor.New(executor.Options{Concurrency: opts.Concurrency}),
		progress: opts.Progress,
	}
}

// 🗺️ Plan produces the action list for the given pairs without executing
// it. Extraneous destination entries are still deleted; planning is the
// phase that owns the extraneous set.
func (s *Syncer) Plan(ctx context.Context, pairs []Pair) ([]planner.Action, error) {
	requests := make([]planner.Request, 0, len(pairs))
	for _, pair := range pairs {
		requests = append(requests, planner.Request{Source: pair.Source, Dest: pair.Dest})
	}
	return s.planner.Plan(ctx, requests, nil)
}

// 🔄 Sync plans and executes in one call. A failure in any single entry
// aborts the whole call; already-applied actions are not rolled back.
func (s *Syncer) Sync(ctx context.Context, pairs []Pair) (Stats, error) {
	logger := zerolog.Ctx(ctx)

	var changed atomic.Int64
	requests := make([]planner.Request, 0, len(pairs))
	for _, pair := range pairs {
		requests = append(requests, planner.Request{
			Source: pair.Source,
			Dest:   pair.Dest,
			OnFirstDiff: func() {
				changed.Add(1)
			},
		})
	}

	actions, err := s.planner.Plan(ctx, requests, nil)
	if err != nil {
		return Stats{}, errors.Errorf("planning sync: %w", err)
	}

	if err := s.executor.Execute(ctx, actions, s.progress); err != nil {
		return Stats{}, errors.Errorf("executing sync: %w", err)
	}

	stats := Stats{
		Pairs:   len(pairs),
		Changed: int(changed.Load()),
	}
	for _, action := range actions {
		switch action.Type {
		case planner.ActionFileCopy:
			stats.FileCopies++
		case planner.ActionSymlinkCreate:
			stats.SymlinkCreates++
		}
	}

	logger.Debug().
		Int("pairs", stats.Pairs).
		Int("changed", stats.Changed).
		Int("copies", stats.FileCopies).
		Int("symlinks", stats.SymlinkCreates).
		Msg("sync complete")

	return stats, nil
}
