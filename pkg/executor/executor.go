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

// Package executor consumes a sync plan: file copies run with bounded
// concurrency, symlinks are created strictly after every file copy has
// completed. Execution is fail-fast; nothing is rolled back.
package executor

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/treesync/pkg/fsops"
	"github.com/walteh/treesync/pkg/planner"
	"github.com/walteh/treesync/pkg/symlink"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// defaultConcurrency bounds in-flight file copies.
const defaultConcurrency = 4

// 📈 Progress receives execution callbacks. Both callbacks may be invoked
// from multiple goroutines and must be safe for concurrent use.
type Progress struct {
	// OnStart is called once with the total action count, before any
	// copying begins.
	OnStart func(total int)

	// OnComplete is called once per completed destination path, for file
	// copies and symlinks alike.
	OnComplete func(action planner.Action)
}

// 🔧 Options configures an Executor.
type Options struct {
	// Concurrency bounds in-flight file copies; defaults to 4.
	Concurrency int
}

// 🏃 Executor runs sync plans.
type Executor struct {
	concurrency int
}

// 🏭 New creates an executor.
func New(opts Options) *Executor {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Executor{concurrency: concurrency}
}

// 🏃 Execute performs every action in the plan. All file copies complete
// before the first symlink is created, because a link's target may be a
// file this same plan is creating. The first error aborts the call.
func (e *Executor) Execute(ctx context.Context, actions []planner.Action, progress Progress) error {
	logger := zerolog.Ctx(ctx)

	var copies, links []planner.Action
	for _, action := range actions {
		switch action.Type {
		case planner.ActionFileCopy:
			copies = append(copies, action)
		case planner.ActionSymlinkCreate:
			links = append(links, action)
		default:
			return errors.Errorf("unknown action type %q for %s", action.Type, action.Dest)
		}
	}

	if progress.OnStart != nil {
		progress.OnStart(len(actions))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, action := range copies {
		action := action
		g.Go(func() error {
			if err := e.copyFile(gctx, action); err != nil {
				return err
			}
			if progress.OnComplete != nil {
				progress.OnComplete(action)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Errorf("copying files: %w", err)
	}

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, action := range links {
		action := action
		g.Go(func() error {
			if err := symlink.Create(gctx, action.Target, action.Dest); err != nil {
				return err
			}
			if progress.OnComplete != nil {
				progress.OnComplete(action)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Errorf("creating symlinks: %w", err)
	}

	logger.Debug().
		Int("copies", len(copies)).
		Int("symlinks", len(links)).
		Msg("plan executed")

	return nil
}

// 📄 copyFile streams one file and applies the metadata recorded at plan
// time.
func (e *Executor) copyFile(ctx context.Context, action planner.Action) error {
	if err := fsops.CopyFile(ctx, action.Source, action.Dest, action.Mode); err != nil {
		return err
	}
	return fsops.Chtimes(action.Dest, action.AccessTime, action.ModTime)
}
