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

//go:build !windows

package executor

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/treesync/pkg/planner"
)

func TestExecute_CopiesThenLinks(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	link := filepath.Join(dir, "link")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0644))

	mtime := time.Date(2024, 2, 2, 2, 2, 2, 0, time.UTC)
	actions := []planner.Action{
		// The link comes first in the plan but must be created last: its
		// target is the file this same plan copies.
		{Type: planner.ActionSymlinkCreate, Dest: link, Target: dst},
		{Type: planner.ActionFileCopy, Source: src, Dest: dst, Mode: 0600, AccessTime: mtime, ModTime: mtime},
	}

	require.NoError(t, New(Options{}).Execute(context.Background(), actions, Progress{}))

	content, err := os.ReadFile(link)
	require.NoError(t, err, "link should resolve to the freshly copied file")
	assert.Equal(t, "payload", string(content))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "plan-time mode should be applied")
	assert.True(t, info.ModTime().Equal(mtime), "plan-time mtime should be applied")
}

func TestExecute_Progress(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))

	actions := []planner.Action{
		{Type: planner.ActionFileCopy, Source: src, Dest: filepath.Join(dir, "a"), Mode: 0644},
		{Type: planner.ActionFileCopy, Source: src, Dest: filepath.Join(dir, "b"), Mode: 0644},
		{Type: planner.ActionSymlinkCreate, Dest: filepath.Join(dir, "l"), Target: src},
	}

	var total atomic.Int32
	var completed atomic.Int32
	progress := Progress{
		OnStart:    func(n int) { total.Store(int32(n)) },
		OnComplete: func(planner.Action) { completed.Add(1) },
	}

	require.NoError(t, New(Options{Concurrency: 2}).Execute(context.Background(), actions, progress))

	assert.Equal(t, int32(3), total.Load(), "start callback should carry the full action count")
	assert.Equal(t, int32(3), completed.Load(), "one completion per action")
}

func TestExecute_EmptyPlan(t *testing.T) {
	started := false
	progress := Progress{OnStart: func(n int) { started = true }}

	require.NoError(t, New(Options{}).Execute(context.Background(), nil, progress))
	assert.True(t, started, "start still fires with a zero total")
}

func TestExecute_MissingSourceAborts(t *testing.T) {
	dir := t.TempDir()
	actions := []planner.Action{
		{Type: planner.ActionFileCopy, Source: filepath.Join(dir, "missing"), Dest: filepath.Join(dir, "out"), Mode: 0644},
	}

	err := New(Options{}).Execute(context.Background(), actions, Progress{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "copying files")
}

func TestExecute_UnknownActionType(t *testing.T) {
	err := New(Options{}).Execute(context.Background(), []planner.Action{{Type: "move"}}, Progress{})
	require.Error(t, err)
}
