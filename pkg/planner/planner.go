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

// Package planner compares source and destination trees and produces the
// list of copy and symlink actions needed to make the destination identical
// to the source. As a side effect it deletes destination entries that no
// longer exist in the source.
package planner

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/treesync/pkg/fsops"
	"github.com/walteh/treesync/pkg/symlink"
	"gitlab.com/tozd/go/errors"
)

// defaultConcurrency bounds the number of in-flight tree comparisons.
const defaultConcurrency = 4

// 🏷️ ActionType discriminates the two kinds of planned work.
type ActionType string

const (
	// ActionFileCopy streams one regular file to the destination.
	ActionFileCopy ActionType = "copy"

	// ActionSymlinkCreate materializes one symlink at the destination.
	ActionSymlinkCreate ActionType = "symlink"
)

// 📋 Action is one planned, not-yet-executed unit of work. The list returned
// by Plan contains exactly one action per filesystem leaf that actually
// needs copying; unchanged leaves are pruned during planning.
type Action struct {
	Type ActionType

	// Source is the path of the regular file to copy (file copies only).
	Source string

	// Dest is the destination path for both kinds.
	Dest string

	// Target is the absolute link target (symlink creates only).
	Target string

	// Mode, AccessTime and ModTime are the source file's metadata at plan
	// time, applied verbatim to the destination after copying.
	Mode       os.FileMode
	AccessTime time.Time
	ModTime    time.Time
}

// 📨 Request is one source→destination pair submitted to Plan.
type Request struct {
	Source string
	Dest   string

	// OnFirstDiff fires once, the first time this request or any of its
	// descendants is determined to need copying.
	OnFirstDiff func()

	// OnSettled fires once, when this request and the transitive closure
	// of its children have all been classified, changed or not.
	OnSettled func()
}

// 🔧 Options configures a Planner.
type Options struct {
	// Concurrency bounds in-flight comparisons; defaults to 4.
	Concurrency int

	// OnDelete is called once per extraneous destination path, after it has
	// been removed.
	OnDelete func(path string)
}

// 🗺️ Planner produces sync plans.
type Planner struct {
	concurrency int64
	onDelete    func(path string)
}

// 🏭 New creates a planner.
func New(opts Options) *Planner {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Planner{concurrency: int64(concurrency), onDelete: opts.OnDelete}
}

// 🗺️ Plan walks every request and returns the ordered action list. Paths in
// extraneousSeed are treated as provisionally extraneous from the start.
// Destination entries never matched by a source entry are deleted before
// Plan returns; an error on any single entry aborts the whole call.
func (p *Planner) Plan(ctx context.Context, requests []Request, extraneousSeed []string) ([]Action, error) {
	logger := zerolog.Ctx(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	st := newPlanState(p.concurrency, cancel)
	for _, path := range extraneousSeed {
		st.addExtraneous(path)
	}

	for _, req := range requests {
		comp := newCompletion(req.OnFirstDiff, req.OnSettled)
		st.wg.Add(1)
		go p.process(ctx, st, req.Source, req.Dest, comp)
	}
	st.wg.Wait()

	if err := st.firstErr(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Errorf("planning cancelled: %w", err)
	}

	actions, doomed := st.drain()

	// Extraneous deletion happens only after the full walk, so a path the
	// walk has not yet re-confirmed as live is never deleted early.
	sort.Strings(doomed)
	for _, path := range doomed {
		logger.Debug().Str("path", path).Msg("removing extraneous destination entry")
		if err := fsops.Remove(path); err != nil {
			return nil, err
		}
		if p.onDelete != nil {
			p.onDelete(path)
		}
	}

	logger.Debug().
		Int("actions", len(actions)).
		Int("extraneous", len(doomed)).
		Msg("plan complete")

	return actions, nil
}

// 🔍 process classifies one source→destination pair, emitting actions and
// spawning one child task per directory entry. Each task reports done to
// comp exactly once.
func (p *Planner) process(ctx context.Context, st *planState, source, dest string, comp *completion) {
	defer st.wg.Done()
	defer comp.done()

	if err := st.sem.Acquire(ctx, 1); err != nil {
		// Cancelled while waiting; the first failure is already recorded.
		return
	}
	defer st.sem.Release(1)

	if st.failed() {
		return
	}

	srcInfo, destInfo, err := p.classify(source, dest)
	if err != nil {
		st.fail(err)
		return
	}

	if destInfo != nil {
		switch {
		case srcInfo.Mode().IsRegular() && destInfo.Mode().IsRegular():
			if srcInfo.Size() == destInfo.Size() && srcInfo.ModTime().Equal(destInfo.ModTime()) {
				// Unchanged: no action, no content read.
				st.markSeen(dest)
				return
			}

		case isSymlink(srcInfo) && isSymlink(destInfo):
			same, err := sameLinkTarget(source, dest)
			if err != nil {
				st.fail(err)
				return
			}
			if same {
				st.markSeen(dest)
				return
			}

		case srcInfo.IsDir() && destInfo.IsDir():
			if err := p.preseedExtraneous(st, source, dest); err != nil {
				st.fail(err)
				return
			}
		}
	}

	switch {
	case isSymlink(srcInfo):
		target, err := symlink.MirrorTarget(source, dest)
		if err != nil {
			st.fail(err)
			return
		}
		st.emit(Action{Type: ActionSymlinkCreate, Dest: dest, Target: target})
		comp.markDiff()
		st.markSeen(dest)

	case srcInfo.IsDir():
		if err := fsops.MkdirAll(dest, srcInfo.Mode().Perm()); err != nil {
			st.fail(err)
			return
		}
		// MkdirAll is subject to the umask; pin the source mode so the
		// next sync sees identical directory modes.
		if err := fsops.Chmod(dest, srcInfo.Mode()); err != nil {
			st.fail(err)
			return
		}
		st.markSeenWithAncestors(dest)

		children, err := fsops.ReadDir(source)
		if err != nil {
			st.fail(err)
			return
		}
		for _, child := range children {
			comp.addChild()
			st.wg.Add(1)
			go p.process(ctx, st, filepath.Join(source, child.Name()), filepath.Join(dest, child.Name()), comp)
		}

	case srcInfo.Mode().IsRegular():
		atime, mtime := fsops.Times(srcInfo)
		st.emit(Action{
			Type:       ActionFileCopy,
			Source:     source,
			Dest:       dest,
			Mode:       srcInfo.Mode(),
			AccessTime: atime,
			ModTime:    mtime,
		})
		comp.markDiff()
		st.markSeen(dest)

	default:
		st.fail(errors.Errorf("planning %s: %w", source, fsops.ErrUnsupportedEntryKind))
	}
}

// 🧭 classify stats both sides and resolves kind conflicts. A destination
// whose mode differs from the source is repaired in place when both are
// regular files, and otherwise deleted so classification restarts from
// scratch (this handles a source whose kind changed since the last sync).
// The returned destInfo is nil when the destination does not exist.
func (p *Planner) classify(source, dest string) (srcInfo, destInfo os.FileInfo, err error) {
	for {
		srcInfo, err = fsops.Lstat(source)
		if err != nil {
			return nil, nil, err
		}

		destInfo, err = fsops.Lstat(dest)
		if err != nil {
			if fsops.IsNotFound(err) {
				return srcInfo, nil, nil
			}
			return nil, nil, err
		}

		if srcInfo.Mode() == destInfo.Mode() {
			return srcInfo, destInfo, nil
		}

		if srcInfo.Mode().IsRegular() && destInfo.Mode().IsRegular() {
			// Non-destructive repair: only the permission bits drifted.
			if err := fsops.Chmod(dest, srcInfo.Mode()); err != nil {
				return nil, nil, err
			}
			return srcInfo, destInfo, nil
		}

		if err := fsops.Remove(dest); err != nil {
			return nil, nil, err
		}
	}
}

// 🌱 preseedExtraneous records destination children with no counterpart in
// the source directory as provisionally extraneous. For an extraneous child
// that is itself a directory its immediate children are seeded too; this
// deliberately does not recurse further.
func (p *Planner) preseedExtraneous(st *planState, source, dest string) error {
	srcChildren, err := fsops.ReadDir(source)
	if err != nil {
		return err
	}
	destChildren, err := fsops.ReadDir(dest)
	if err != nil {
		return err
	}

	srcNames := make(map[string]struct{}, len(srcChildren))
	for _, child := range srcChildren {
		srcNames[child.Name()] = struct{}{}
	}

	for _, child := range destChildren {
		if _, ok := srcNames[child.Name()]; ok {
			continue
		}
		childPath := filepath.Join(dest, child.Name())
		st.addExtraneous(childPath)

		if child.IsDir() {
			grandchildren, err := fsops.ReadDir(childPath)
			if err != nil {
				return err
			}
			for _, grandchild := range grandchildren {
				st.addExtraneous(filepath.Join(childPath, grandchild.Name()))
			}
		}
	}

	return nil
}

func isSymlink(info os.FileInfo) bool {
	return info.Mode()&os.ModeSymlink != 0
}

// sameLinkTarget reports whether the link at dest already points where a
// mirror of the link at source must point.
func sameLinkTarget(source, dest string) (bool, error) {
	want, err := symlink.MirrorTarget(source, dest)
	if err != nil {
		return false, err
	}
	got, err := symlink.ResolveTarget(dest)
	if err != nil {
		return false, err
	}
	return want == got, nil
}
